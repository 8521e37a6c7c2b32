package workspace

import (
	"errors"
	"fmt"
	"strings"

	"timetracker/internal/address"
	"timetracker/internal/core"
	"timetracker/pkg/domain"
)

// Error is the only error type returned by Workspace operations. Engine
// errors are relabelled field by field; nothing is swallowed.
type Error struct {
	Kind      domain.ErrorKind
	Op        string
	Entity    domain.EntityKind
	Property  string
	Value     string
	StoreType string
	Location  string
	Msg       string
	Err       error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("workspace")
	if e.Op != "" {
		b.WriteString(" ")
		b.WriteString(e.Op)
	}
	b.WriteString(": ")
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
	return b.String()
}

// ErrorKind implements domain.KindedError.
func (e *Error) ErrorKind() domain.ErrorKind { return e.Kind }

func (e *Error) Unwrap() error { return e.Err }

func accessDenied(op, msg string) error {
	return &Error{Kind: domain.KindAccessDenied, Op: op, Msg: msg}
}

// translate maps any error raised below the gate onto *Error. It is total:
// unknown errors become Custom with the original wrapped.
func translate(op string, err error) error {
	if err == nil {
		return nil
	}
	var gate *Error
	if errors.As(err, &gate) {
		if gate.Op == "" {
			relabelled := *gate
			relabelled.Op = op
			return &relabelled
		}
		return gate
	}
	var engine *core.Error
	if errors.As(err, &engine) {
		msg := engine.Msg
		if engine.Err != nil {
			if msg != "" {
				msg += ": "
			}
			msg += engine.Err.Error()
		}
		return &Error{
			Kind:      engine.Kind,
			Op:        op,
			Entity:    engine.Entity,
			Property:  engine.Property,
			Value:     engine.Value,
			StoreType: engine.StoreType,
			Location:  engine.Location,
			Msg:       msg,
			Err:       err,
		}
	}
	var addr *address.Error
	if errors.As(err, &addr) {
		return &Error{Kind: domain.KindInvalidAddress, Op: op, Msg: addr.Error(), Err: err}
	}
	if kind := domain.KindOf(err); kind != domain.KindUnknown {
		return &Error{Kind: kind, Op: op, Msg: err.Error(), Err: err}
	}
	return &Error{Kind: domain.KindCustom, Op: op, Msg: err.Error(), Err: err}
}
