package bag

import (
	"errors"
	"fmt"

	"github.com/danmuck/bagctl/internal/bag/cursor"
)

var (
	ErrInvalidHeader          = errors.New("bag: invalid header")
	ErrInvalidRecord          = errors.New("bag: invalid record")
	ErrUnsupportedVersion     = errors.New("bag: unsupported version")
	ErrUnsupportedCompression = errors.New("bag: unsupported compression type")
	ErrOutOfBounds            = errors.New("bag: out of bounds")
)

// FieldError reports which field of which record kind failed to parse.
type FieldError struct {
	Op    Op
	Field string
	Err   error
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%v: op=%s field=%q", e.Err, e.Op, e.Field)
}

func (e FieldError) Unwrap() error {
	return e.Err
}

func fieldErr(op Op, field string, err error) error {
	return FieldError{Op: op, Field: field, Err: err}
}

func missingField(op Op, name string) error {
	return fieldErr(op, name, fmt.Errorf("%w: missing", ErrInvalidHeader))
}

// fromCursor maps cursor bounds failures onto ErrOutOfBounds, keeping the
// cursor's detail in the chain.
func fromCursor(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, cursor.ErrOutOfBounds) && !errors.Is(err, ErrOutOfBounds) {
		return fmt.Errorf("%w: %w", ErrOutOfBounds, err)
	}
	return err
}

// ErrorKind names the taxonomy member err belongs to, for labelling.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidHeader):
		return "invalid_header"
	case errors.Is(err, ErrInvalidRecord):
		return "invalid_record"
	case errors.Is(err, ErrUnsupportedVersion):
		return "unsupported_version"
	case errors.Is(err, ErrUnsupportedCompression):
		return "unsupported_compression"
	case errors.Is(err, ErrOutOfBounds), errors.Is(err, cursor.ErrOutOfBounds):
		return "out_of_bounds"
	default:
		return "other"
	}
}
