package types

import (
	"errors"
	"fmt"
)

// Kind classifies a data failure.
type Kind int

const (
	KindUnknown Kind = iota
	KindInsufficientHistory
	KindDataUnavailable
	KindMalformedData
	KindInvalidPrice
	KindInvalidArgument
)

func (k Kind) String() string {
	switch k {
	case KindInsufficientHistory:
		return "insufficient history"
	case KindDataUnavailable:
		return "data unavailable"
	case KindMalformedData:
		return "malformed data"
	case KindInvalidPrice:
		return "invalid price"
	case KindInvalidArgument:
		return "invalid argument"
	default:
		return "unknown"
	}
}

var (
	ErrInsufficientHistory = errors.New("insufficient history")
	ErrDataUnavailable     = errors.New("data unavailable")
	ErrMalformedData       = errors.New("malformed data")
	ErrInvalidPrice        = errors.New("invalid price")
	ErrInvalidArgument     = errors.New("invalid argument")
)

func (k Kind) sentinel() error {
	switch k {
	case KindInsufficientHistory:
		return ErrInsufficientHistory
	case KindDataUnavailable:
		return ErrDataUnavailable
	case KindMalformedData:
		return ErrMalformedData
	case KindInvalidPrice:
		return ErrInvalidPrice
	case KindInvalidArgument:
		return ErrInvalidArgument
	default:
		return nil
	}
}

// DataError is a failure scoped to one symbol and one operation.
// errors.Is matches it against the sentinel of its Kind.
type DataError struct {
	Kind   Kind
	Symbol string
	Op     string // e.g. "history", "quote", "returns"
	Err    error
}

func (e *DataError) Error() string {
	msg := e.Kind.String()
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Symbol != "" {
		msg = e.Symbol + ": " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *DataError) Unwrap() error { return e.Err }

func (e *DataError) Is(target error) bool {
	s := e.Kind.sentinel()
	return s != nil && target == s
}

// NewDataError builds a DataError with a formatted cause.
func NewDataError(kind Kind, symbol, op, format string, args ...any) *DataError {
	return &DataError{Kind: kind, Symbol: symbol, Op: op, Err: fmt.Errorf(format, args...)}
}

// Classify returns the Kind of err, or KindUnknown.
func Classify(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	var de *DataError
	if errors.As(err, &de) {
		return de.Kind
	}
	for _, k := range []Kind{
		KindInsufficientHistory,
		KindDataUnavailable,
		KindMalformedData,
		KindInvalidPrice,
		KindInvalidArgument,
	} {
		if errors.Is(err, k.sentinel()) {
			return k
		}
	}
	return KindUnknown
}
