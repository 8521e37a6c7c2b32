// Package address maps store locations to reference-counted handles and
// encodes them in the single-line external form used by configuration and
// recent-workspace lists.
package address

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"timetracker/pkg/domain"
)

// Ref names a store location: the store type mnemonic plus the location in
// that type's normalized external form.
type Ref struct {
	Type     string
	Location string
}

func (r Ref) String() string { return Encode(r) }

func (r Ref) validate() error {
	if r.Type == "" {
		return invalid("", "empty store type")
	}
	if r.Location == "" {
		return invalid("", "empty location")
	}
	if !utf8.ValidString(r.Type) || !utf8.ValidString(r.Location) {
		return invalid("", "address is not valid UTF-8")
	}
	return nil
}

// Error reports a malformed address or external form.
type Error struct {
	Form string
	Msg  string
}

func (e *Error) Error() string {
	if e.Form == "" {
		return "address: " + e.Msg
	}
	return fmt.Sprintf("address: %s: %q", e.Msg, e.Form)
}

// ErrorKind implements domain.KindedError.
func (e *Error) ErrorKind() domain.ErrorKind { return domain.KindInvalidAddress }

func invalid(form, msg string) error { return &Error{Form: form, Msg: msg} }

const defaultSeparator = '\t'

// separatorFor picks tab unless it occurs in one of parts, else the first
// code point at or above 256 that occurs in none of them.
func separatorFor(parts ...string) rune {
	used := func(r rune) bool {
		for _, p := range parts {
			if strings.ContainsRune(p, r) {
				return true
			}
		}
		return false
	}
	if !used(defaultSeparator) {
		return defaultSeparator
	}
	for r := rune(256); ; r++ {
		if utf8.ValidRune(r) && !used(r) {
			return r
		}
	}
}

// Encode renders r as <sep><type><sep><location><sep>.
func Encode(r Ref) string {
	sep := string(separatorFor(r.Type, r.Location))
	return sep + r.Type + sep + r.Location + sep
}

// Decode parses a form produced by Encode.
func Decode(form string) (Ref, error) {
	sep, body, err := splitSeparator(form)
	if err != nil {
		return Ref{}, err
	}
	if !strings.HasSuffix(body, sep) {
		return Ref{}, invalid(form, "missing trailing separator")
	}
	parts := strings.Split(strings.TrimSuffix(body, sep), sep)
	if len(parts) != 2 {
		return Ref{}, invalid(form, "expected a type and a location")
	}
	r := Ref{Type: parts[0], Location: parts[1]}
	if err := r.validate(); err != nil {
		return Ref{}, invalid(form, err.(*Error).Msg)
	}
	return r, nil
}

// EncodeList renders refs as <sep> followed by <type><sep><location><sep>
// for each ref and a final <sep>. The empty list is <sep><sep>.
func EncodeList(refs []Ref) string {
	parts := make([]string, 0, 2*len(refs))
	for _, r := range refs {
		parts = append(parts, r.Type, r.Location)
	}
	sep := string(separatorFor(parts...))
	var b strings.Builder
	b.WriteString(sep)
	for _, p := range parts {
		b.WriteString(p)
		b.WriteString(sep)
	}
	b.WriteString(sep)
	return b.String()
}

// DecodeList parses a form produced by EncodeList.
func DecodeList(form string) ([]Ref, error) {
	sep, body, err := splitSeparator(form)
	if err != nil {
		return nil, err
	}
	if body == sep {
		return nil, nil
	}
	if !strings.HasSuffix(body, sep+sep) {
		return nil, invalid(form, "missing list terminator")
	}
	parts := strings.Split(strings.TrimSuffix(body, sep+sep), sep)
	if len(parts)%2 != 0 {
		return nil, invalid(form, "unpaired type and location")
	}
	refs := make([]Ref, 0, len(parts)/2)
	for i := 0; i < len(parts); i += 2 {
		r := Ref{Type: parts[i], Location: parts[i+1]}
		if err := r.validate(); err != nil {
			return nil, invalid(form, err.(*Error).Msg)
		}
		refs = append(refs, r)
	}
	return refs, nil
}

func splitSeparator(form string) (sep, body string, err error) {
	r, size := utf8.DecodeRuneInString(form)
	if r == utf8.RuneError {
		return "", "", invalid(form, "missing separator")
	}
	if r != defaultSeparator && r < 256 {
		return "", "", invalid(form, "separator must be a tab or a code point above 255")
	}
	return form[:size], form[size:], nil
}
