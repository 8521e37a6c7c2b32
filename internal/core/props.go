package core

import (
	"strings"
	"time"

	"timetracker/internal/validation"
	"timetracker/pkg/domain"
)

// readProp returns get() once tx may read o.
func readProp[T any](tx *Tx, o *object, get func() T) (T, error) {
	if err := tx.read(o); err != nil {
		var zero T
		return zero, err
	}
	return get(), nil
}

// set runs the setter template: liveness and writability, validation,
// mutation, then a Modified event when apply reports a change.
func (tx *Tx) set(obj Object, validate func() error, apply func() bool) error {
	if err := tx.write(obj.base()); err != nil {
		return err
	}
	if validate != nil {
		if err := validate(); err != nil {
			return err
		}
	}
	if apply() {
		tx.store.touch(obj)
		return tx.structural()
	}
	return nil
}

func (tx *Tx) validator() *validation.Validator { return tx.store.validator }

func invalidUnless(ok bool, kind domain.EntityKind, property string, value any) error {
	if ok {
		return nil
	}
	return errInvalidProperty(kind, property, value)
}

func assign[T comparable](dst *T, value T) bool {
	if *dst == value {
		return false
	}
	*dst = value
	return true
}

func assignDuration(dst **time.Duration, value *time.Duration) bool {
	if durationEqual(*dst, value) {
		return false
	}
	*dst = cloneDuration(value)
	return true
}

func assignStrings(dst *[]string, value []string) bool {
	if stringsEqual(*dst, value) {
		return false
	}
	*dst = cloneList(value)
	return true
}

func cloneDuration(d *time.Duration) *time.Duration {
	if d == nil {
		return nil
	}
	v := *d
	return &v
}

func durationEqual(a, b *time.Duration) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func stringsEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// beginDestroy marks obj as dying so cascades do not report it modified.
func beginDestroy(obj Object) {
	obj.base().dying = true
}

func joinEmails(list []string) string { return strings.Join(list, ";") }
