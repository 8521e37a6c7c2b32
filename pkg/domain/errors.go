package domain

import "errors"

// ErrorKind classifies failures raised by the engine and the access gate.
type ErrorKind int

// Error kinds.
const (
	KindUnknown ErrorKind = iota
	KindInvalidAddress
	KindStoreInUse
	KindStoreCorrupt
	KindStoreClosed
	KindAccessDenied
	KindInvalidPropertyValue
	KindAlreadyExists
	KindDoesNotExist
	KindInstanceDead
	KindIncompatibleInstance
	KindCustom
)

func (k ErrorKind) String() string {
	switch k {
	case KindInvalidAddress:
		return "invalid address"
	case KindStoreInUse:
		return "store in use"
	case KindStoreCorrupt:
		return "store corrupt"
	case KindStoreClosed:
		return "store closed"
	case KindAccessDenied:
		return "access denied"
	case KindInvalidPropertyValue:
		return "invalid property value"
	case KindAlreadyExists:
		return "already exists"
	case KindDoesNotExist:
		return "does not exist"
	case KindInstanceDead:
		return "instance dead"
	case KindIncompatibleInstance:
		return "incompatible instance"
	case KindCustom:
		return "custom"
	default:
		return "unknown"
	}
}

// KindedError is implemented by errors that carry an ErrorKind.
type KindedError interface {
	error
	ErrorKind() ErrorKind
}

// KindOf returns the kind of the first kinded error in err's chain, or
// KindUnknown when there is none.
func KindOf(err error) ErrorKind {
	var kinded KindedError
	if errors.As(err, &kinded) {
		return kinded.ErrorKind()
	}
	return KindUnknown
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind ErrorKind) bool {
	return err != nil && KindOf(err) == kind
}
