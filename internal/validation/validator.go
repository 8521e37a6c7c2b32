// Package validation holds the pure predicates the workspace engine consults
// before committing a property change. Nothing here mutates state or
// returns errors; callers translate a false result into a domain error.
package validation

import (
	"regexp"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/language"

	"timetracker/pkg/domain"
)

// Bounds shared by the sub-validators.
const (
	MaxNameLength        = 127
	MaxDescriptionLength = 32767
	MaxLoginLength       = 127
	MaxPasswordLength    = 127
	MinInactivityTimeout = 5 * time.Minute
	MaxInactivityTimeout = 24 * time.Hour
	MaxWorkDuration      = 7 * 24 * time.Hour
)

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// Validator groups one sub-validator per entity kind.
type Validator struct {
	User         UserValidator
	Account      AccountValidator
	ActivityType ActivityTypeValidator
	Activity     ActivityValidator
	Workload     WorkloadValidator
	Beneficiary  BeneficiaryValidator
	Work         WorkValidator
	Event        EventValidator
}

// New returns the default validator.
func New() *Validator { return &Validator{} }

// IsValidName reports whether s can be used as a display name or real name.
func IsValidName(s string) bool {
	n := utf8.RuneCountInString(s)
	if n == 0 || n > MaxNameLength || !utf8.ValidString(s) {
		return false
	}
	if strings.TrimSpace(s) != s {
		return false
	}
	for _, r := range s {
		if unicode.IsControl(r) {
			return false
		}
	}
	return true
}

// IsValidDescription reports whether s can be stored as free text. Newline
// and tab are the only control characters allowed.
func IsValidDescription(s string) bool {
	if !utf8.ValidString(s) || utf8.RuneCountInString(s) > MaxDescriptionLength {
		return false
	}
	for _, r := range s {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			return false
		}
	}
	return true
}

// IsValidEmailAddress reports whether s looks like a mailbox address.
func IsValidEmailAddress(s string) bool {
	return len(s) <= 254 && emailPattern.MatchString(s)
}

// IsValidEmailAddresses rejects invalid or duplicate addresses.
func IsValidEmailAddresses(list []string) bool {
	seen := make(map[string]struct{}, len(list))
	for _, addr := range list {
		if !IsValidEmailAddress(addr) {
			return false
		}
		key := strings.ToLower(addr)
		if _, dup := seen[key]; dup {
			return false
		}
		seen[key] = struct{}{}
	}
	return true
}

// IsValidInactivityTimeout accepts an absent timeout or a whole number of
// seconds from 5 minutes to 24 hours.
func IsValidInactivityTimeout(timeout *time.Duration) bool {
	if timeout == nil {
		return true
	}
	d := *timeout
	return d >= MinInactivityTimeout && d <= MaxInactivityTimeout && d%time.Second == 0
}

func isUTC(t time.Time) bool {
	return !t.IsZero() && t.Location() == time.UTC
}

// UserValidator checks user properties.
type UserValidator struct{}

// IsValidRealName reports whether name is acceptable.
func (UserValidator) IsValidRealName(name string) bool { return IsValidName(name) }

// IsValidInactivityTimeout reports whether timeout is acceptable.
func (UserValidator) IsValidInactivityTimeout(timeout *time.Duration) bool {
	return IsValidInactivityTimeout(timeout)
}

// IsValidUILocale accepts an empty locale (system default) or a BCP 47 tag.
func (UserValidator) IsValidUILocale(locale string) bool {
	if locale == "" {
		return true
	}
	_, err := language.Parse(locale)
	return err == nil
}

// IsValidEmailAddresses reports whether the list is acceptable.
func (UserValidator) IsValidEmailAddresses(list []string) bool { return IsValidEmailAddresses(list) }

// AccountValidator checks account properties.
type AccountValidator struct{}

// IsValidLogin rejects empty logins, whitespace and control characters.
func (AccountValidator) IsValidLogin(login string) bool {
	n := utf8.RuneCountInString(login)
	if n == 0 || n > MaxLoginLength || !utf8.ValidString(login) {
		return false
	}
	for _, r := range login {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return false
		}
	}
	return true
}

// IsValidPassword rejects control characters and overlong passwords.
func (AccountValidator) IsValidPassword(password string) bool {
	if !utf8.ValidString(password) || utf8.RuneCountInString(password) > MaxPasswordLength {
		return false
	}
	for _, r := range password {
		if unicode.IsControl(r) {
			return false
		}
	}
	return true
}

// IsValidPasswordHash accepts an uppercase hex SHA-1 digest.
func (AccountValidator) IsValidPasswordHash(hash string) bool {
	if len(hash) != 40 {
		return false
	}
	for _, r := range hash {
		if !(r >= '0' && r <= '9' || r >= 'A' && r <= 'F') {
			return false
		}
	}
	return true
}

// IsValidCapabilities rejects unknown capability bits.
func (AccountValidator) IsValidCapabilities(caps domain.Capabilities) bool { return caps.IsValid() }

// IsValidEmailAddresses reports whether the list is acceptable.
func (AccountValidator) IsValidEmailAddresses(list []string) bool { return IsValidEmailAddresses(list) }

// ActivityTypeValidator checks activity type properties.
type ActivityTypeValidator struct{}

// IsValidDisplayName reports whether name is acceptable.
func (ActivityTypeValidator) IsValidDisplayName(name string) bool { return IsValidName(name) }

// IsValidDescription reports whether description is acceptable.
func (ActivityTypeValidator) IsValidDescription(description string) bool {
	return IsValidDescription(description)
}

// ActivityValidator checks properties shared by all four activity kinds.
type ActivityValidator struct{}

// IsValidDisplayName reports whether name is acceptable.
func (ActivityValidator) IsValidDisplayName(name string) bool { return IsValidName(name) }

// IsValidDescription reports whether description is acceptable.
func (ActivityValidator) IsValidDescription(description string) bool {
	return IsValidDescription(description)
}

// IsValidTimeout reports whether the activity inactivity timeout is acceptable.
func (ActivityValidator) IsValidTimeout(timeout *time.Duration) bool {
	return IsValidInactivityTimeout(timeout)
}

// WorkloadValidator checks project and work stream properties.
type WorkloadValidator struct{}

// IsValidDisplayName reports whether name is acceptable.
func (WorkloadValidator) IsValidDisplayName(name string) bool { return IsValidName(name) }

// IsValidDescription reports whether description is acceptable.
func (WorkloadValidator) IsValidDescription(description string) bool {
	return IsValidDescription(description)
}

// BeneficiaryValidator checks beneficiary properties.
type BeneficiaryValidator struct{}

// IsValidDisplayName reports whether name is acceptable.
func (BeneficiaryValidator) IsValidDisplayName(name string) bool { return IsValidName(name) }

// IsValidDescription reports whether description is acceptable.
func (BeneficiaryValidator) IsValidDescription(description string) bool {
	return IsValidDescription(description)
}

// WorkValidator checks work intervals.
type WorkValidator struct{}

// IsValidInterval requires UTC timestamps, start <= finish and a bounded duration.
func (WorkValidator) IsValidInterval(startedAt, finishedAt time.Time) bool {
	if !isUTC(startedAt) || !isUTC(finishedAt) {
		return false
	}
	if finishedAt.Before(startedAt) {
		return false
	}
	return finishedAt.Sub(startedAt) <= MaxWorkDuration
}

// EventValidator checks events.
type EventValidator struct{}

// IsValidOccurredAt requires a non-zero UTC timestamp.
func (EventValidator) IsValidOccurredAt(t time.Time) bool { return isUTC(t) }

// IsValidSummary reports whether summary is acceptable.
func (EventValidator) IsValidSummary(summary string) bool { return IsValidDescription(summary) }
