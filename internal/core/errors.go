package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"timetracker/pkg/domain"
)

// Error is raised by the store and its entities. Kind classifies the
// failure; the remaining fields carry diagnostics where they apply.
type Error struct {
	Kind      domain.ErrorKind
	Entity    domain.EntityKind
	Property  string
	Value     string
	StoreType string
	Location  string
	Msg       string
	Err       error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	var b strings.Builder
	b.WriteString("core: ")
	b.WriteString(e.Kind.String())
	if e.Entity != "" {
		fmt.Fprintf(&b, ": %s", e.Entity.DisplayName())
	}
	if e.Property != "" {
		fmt.Fprintf(&b, " %s=%q", e.Property, e.Value)
	}
	if e.Location != "" {
		fmt.Fprintf(&b, " (%s %s)", e.StoreType, e.Location)
	}
	if e.Msg != "" {
		b.WriteString(": ")
		b.WriteString(e.Msg)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// ErrorKind implements domain.KindedError.
func (e *Error) ErrorKind() domain.ErrorKind { return e.Kind }

func (e *Error) Unwrap() error { return e.Err }

func errInstanceDead(kind domain.EntityKind) error {
	return &Error{Kind: domain.KindInstanceDead, Entity: kind}
}

func errStoreClosed() error {
	return &Error{Kind: domain.KindStoreClosed}
}

func errInvalidProperty(kind domain.EntityKind, property string, value any) error {
	return &Error{Kind: domain.KindInvalidPropertyValue, Entity: kind, Property: property, Value: formatValue(value)}
}

func errAlreadyExists(kind domain.EntityKind, property string, value any) error {
	return &Error{Kind: domain.KindAlreadyExists, Entity: kind, Property: property, Value: formatValue(value)}
}

func errDoesNotExist(kind domain.EntityKind, property string, value any) error {
	return &Error{Kind: domain.KindDoesNotExist, Entity: kind, Property: property, Value: formatValue(value)}
}

func errIncompatible(kind domain.EntityKind, msg string) error {
	return &Error{Kind: domain.KindIncompatibleInstance, Entity: kind, Msg: msg}
}

func errMissingObject() error {
	return &Error{Kind: domain.KindInvalidPropertyValue, Msg: "nil object"}
}

func errCustom(msg string, err error) error {
	return &Error{Kind: domain.KindCustom, Msg: msg, Err: err}
}

func (s *Store) errCorrupt(format string, args ...any) error {
	return &Error{
		Kind:      domain.KindStoreCorrupt,
		StoreType: s.typeName,
		Location:  s.location,
		Msg:       fmt.Sprintf(format, args...),
	}
}

func (s *Store) wrapCorrupt(err error) error {
	var coreErr *Error
	if errors.As(err, &coreErr) && coreErr.Kind == domain.KindStoreCorrupt {
		return err
	}
	return &Error{Kind: domain.KindStoreCorrupt, StoreType: s.typeName, Location: s.location, Err: err}
}

func formatValue(value any) string {
	switch v := value.(type) {
	case nil:
		return "<none>"
	case string:
		return v
	case *time.Duration:
		if v == nil {
			return "<none>"
		}
		return v.String()
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}
