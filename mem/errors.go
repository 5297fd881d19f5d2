package mem

import (
	"errors"
	"fmt"
)

// ErrorKind classifies access failures.
type ErrorKind int

// Failure kinds. InvalidByteEnable is only produced when strict byte-enable
// checking is turned on.
const (
	InvalidByteEnable ErrorKind = iota + 1
	OutOfRange
	UnknownNode
)

func (k ErrorKind) String() string {
	switch k {
	case InvalidByteEnable:
		return "InvalidByteEnable"
	case OutOfRange:
		return "OutOfRange"
	case UnknownNode:
		return "UnknownNode"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

// Sentinels that AccessErrors match with errors.Is.
var (
	ErrInvalidByteEnable = errors.New("invalid byte enable")
	ErrOutOfRange        = errors.New("address out of range")
	ErrUnknownNode       = errors.New("unknown node")
)

func (k ErrorKind) sentinel() error {
	switch k {
	case InvalidByteEnable:
		return ErrInvalidByteEnable
	case OutOfRange:
		return ErrOutOfRange
	case UnknownNode:
		return ErrUnknownNode
	default:
		return nil
	}
}

// An AccessError reports the kind of failure together with the address and
// node that triggered it.
type AccessError struct {
	Kind    ErrorKind
	Address uint64
	Node    uint32
	// Width is the number of bytes accessed, or the byte-enable mask for
	// InvalidByteEnable.
	Width uint64
}

func (e *AccessError) Error() string {
	switch e.Kind {
	case InvalidByteEnable:
		return fmt.Sprintf("%s: mask 0x%x at 0x%08x on node %d",
			e.Kind.sentinel(), e.Width, e.Address, e.Node)
	case UnknownNode:
		return fmt.Sprintf("%s: node %d", e.Kind.sentinel(), e.Node)
	default:
		return fmt.Sprintf("%s: %d byte(s) at 0x%08x on node %d",
			e.Kind.sentinel(), e.Width, e.Address, e.Node)
	}
}

// Unwrap lets errors.Is match the sentinel of the error kind.
func (e *AccessError) Unwrap() error {
	return e.Kind.sentinel()
}

// KindOf returns the kind of the first AccessError in err's chain, or 0 if
// there is none.
func KindOf(err error) ErrorKind {
	var accessErr *AccessError
	if errors.As(err, &accessErr) {
		return accessErr.Kind
	}

	return 0
}
