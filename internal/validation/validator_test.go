package validation

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"timetracker/pkg/domain"
)

func TestIsValidName(t *testing.T) {
	cases := map[string]bool{
		"Meeting":                 true,
		"Réunion d'équipe":        true,
		"":                        false,
		" leading":                false,
		"trailing ":               false,
		"tab\tinside":             false,
		strings.Repeat("x", 127):  true,
		strings.Repeat("x", 128):  false,
		strings.Repeat("é", 127):  true,
	}
	for in, want := range cases {
		assert.Equal(t, want, IsValidName(in), "name %q", in)
	}
}

func TestIsValidDescriptionAllowsNewlineAndTabOnly(t *testing.T) {
	assert.True(t, IsValidDescription(""))
	assert.True(t, IsValidDescription("line one\nline two\tindented"))
	assert.False(t, IsValidDescription("bell\a"))
	assert.False(t, IsValidDescription("carriage\rreturn"))
	assert.False(t, IsValidDescription(strings.Repeat("d", MaxDescriptionLength+1)))
}

func TestInactivityTimeoutBounds(t *testing.T) {
	v := New()
	d := func(x time.Duration) *time.Duration { return &x }
	assert.True(t, v.User.IsValidInactivityTimeout(nil))
	assert.True(t, v.User.IsValidInactivityTimeout(d(5*time.Minute)))
	assert.True(t, v.User.IsValidInactivityTimeout(d(24*time.Hour)))
	assert.False(t, v.User.IsValidInactivityTimeout(d(5*time.Minute-time.Second)))
	assert.False(t, v.Activity.IsValidTimeout(d(25*time.Hour)))
	assert.False(t, v.Activity.IsValidTimeout(d(10*time.Minute+time.Millisecond)))
}

func TestEmailAddresses(t *testing.T) {
	v := New()
	assert.True(t, v.User.IsValidEmailAddresses(nil))
	assert.True(t, v.User.IsValidEmailAddresses([]string{"alice@example.com", "a.b@corp.example.org"}))
	assert.False(t, v.User.IsValidEmailAddresses([]string{"alice@example"}))
	assert.False(t, v.Account.IsValidEmailAddresses([]string{"a@b.c", "A@B.C"}))
}

func TestLoginAndPassword(t *testing.T) {
	v := New()
	assert.True(t, v.Account.IsValidLogin("alice"))
	assert.False(t, v.Account.IsValidLogin(""))
	assert.False(t, v.Account.IsValidLogin("al ice"))
	assert.True(t, v.Account.IsValidPassword(""))
	assert.True(t, v.Account.IsValidPassword("p@ss word"))
	assert.False(t, v.Account.IsValidPassword("new\nline"))
	assert.True(t, v.Account.IsValidPasswordHash("E5E9FA1BA31ECD1AE84F75CAAA474F3A663F05F4"))
	assert.False(t, v.Account.IsValidPasswordHash("e5e9fa1ba31ecd1ae84f75caaa474f3a663f05f4"))
	assert.True(t, v.Account.IsValidCapabilities(domain.NewCapabilities(domain.CapAdministrator)))
	assert.False(t, v.Account.IsValidCapabilities(domain.Capabilities(1<<30)))
}

func TestUILocale(t *testing.T) {
	v := New()
	assert.True(t, v.User.IsValidUILocale(""))
	assert.True(t, v.User.IsValidUILocale("en-US"))
	assert.True(t, v.User.IsValidUILocale("de"))
	assert.False(t, v.User.IsValidUILocale("not a locale!"))
}

func TestWorkInterval(t *testing.T) {
	v := New()
	start := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	assert.True(t, v.Work.IsValidInterval(start, start))
	assert.True(t, v.Work.IsValidInterval(start, start.Add(time.Hour)))
	assert.False(t, v.Work.IsValidInterval(start, start.Add(-time.Minute)))
	assert.False(t, v.Work.IsValidInterval(start.In(time.FixedZone("X", 3600)), start.Add(time.Hour)))
	assert.False(t, v.Work.IsValidInterval(start, start.Add(MaxWorkDuration+time.Second)))
	assert.False(t, v.Event.IsValidOccurredAt(time.Time{}))
	assert.True(t, v.Event.IsValidOccurredAt(start))
}
