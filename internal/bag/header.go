package bag

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"iter"
	"unicode/utf8"

	"github.com/danmuck/bagctl/internal/bag/cursor"
	"github.com/rs/zerolog/log"
)

const opField = "op"

// Field is one name=value entry of a header block. Value aliases the
// header bytes and is only valid as long as the buffer is.
type Field struct {
	Name  string
	Value []byte
}

// FieldProcessor accumulates the fields of one record kind's header.
type FieldProcessor interface {
	Op() Op
	ProcessField(name string, value []byte) error
}

// Header is the two-phase contract every record kind implements: fields are
// fed to ProcessField, then ReadData validates the accumulated header and
// reads the data block into the final record.
type Header[R any] interface {
	FieldProcessor
	ReadData(c *cursor.Cursor) (R, error)
}

// Read parses one record of h's kind at the cursor. On failure the zero R
// is returned.
func Read[R any](c *cursor.Cursor, h Header[R]) (R, error) {
	var zero R
	header, err := c.NextChunk()
	if err != nil {
		return zero, fromCursor(err)
	}
	if err := ReadHeader(header, h); err != nil {
		return zero, err
	}
	rec, err := h.ReadData(c)
	if err != nil {
		return zero, fromCursor(err)
	}
	return rec, nil
}

// ReadHeader feeds every field of a header block to h. The op field is
// handled here: it must be present once, one byte long, and equal h.Op().
func ReadHeader(header []byte, h FieldProcessor) error {
	var op *Op
	err := processFields(header, func(name string, value []byte) error {
		if name != opField {
			return h.ProcessField(name, value)
		}
		return setField(h.Op(), name, &op, value, decodeOp)
	})
	if err != nil {
		return err
	}
	if op == nil {
		return missingField(h.Op(), opField)
	}
	if *op != h.Op() {
		return fieldErr(h.Op(), opField, fmt.Errorf("%w: got %s", ErrInvalidHeader, *op))
	}
	return nil
}

// Fields walks the entries of a header block. Iteration stops after the
// first error.
func Fields(header []byte) iter.Seq2[Field, error] {
	return func(yield func(Field, error) bool) {
		c := cursor.New(header)
		for !c.Done() {
			f, err := nextField(c)
			if err != nil {
				yield(Field{}, err)
				return
			}
			if !yield(f, nil) {
				return
			}
		}
	}
}

// HeaderOp returns the op of a header block without interpreting any other
// field.
func HeaderOp(header []byte) (Op, error) {
	for f, err := range Fields(header) {
		if err != nil {
			return 0, err
		}
		if f.Name != opField {
			continue
		}
		op, ok := decodeOp(f.Value)
		if !ok {
			return 0, fmt.Errorf("%w: op field of %d bytes", ErrInvalidHeader, len(f.Value))
		}
		return op, nil
	}
	return 0, fmt.Errorf("%w: missing op field", ErrInvalidHeader)
}

func processFields(block []byte, process func(name string, value []byte) error) error {
	for f, err := range Fields(block) {
		if err != nil {
			return err
		}
		if err := process(f.Name, f.Value); err != nil {
			return err
		}
	}
	return nil
}

func nextField(c *cursor.Cursor) (Field, error) {
	entry, err := c.NextChunk()
	if err != nil {
		return Field{}, fromCursor(err)
	}
	i := bytes.IndexByte(entry, '=')
	if i < 0 {
		return Field{}, fmt.Errorf("%w: field without '='", ErrInvalidHeader)
	}
	name := entry[:i]
	if !utf8.Valid(name) {
		return Field{}, fmt.Errorf("%w: field name is not utf-8", ErrInvalidHeader)
	}
	return Field{Name: string(name), Value: entry[i+1:]}, nil
}

// setField decodes value into *dst. A field may only be set once.
func setField[T any](op Op, name string, dst **T, value []byte, decode func([]byte) (T, bool)) error {
	if *dst != nil {
		return fieldErr(op, name, fmt.Errorf("%w: duplicate field", ErrInvalidHeader))
	}
	v, ok := decode(value)
	if !ok {
		return fieldErr(op, name, ErrInvalidHeader)
	}
	*dst = &v
	return nil
}

func unknownField(op Op, name string, value []byte) {
	log.Trace().
		Str("op", op.String()).
		Str("field", name).
		Int("len", len(value)).
		Msg("bag: ignoring unknown header field")
}

func decodeOp(b []byte) (Op, bool) {
	if len(b) != 1 {
		return 0, false
	}
	return Op(b[0]), true
}

func decodeU32(b []byte) (uint32, bool) {
	if len(b) != 4 {
		return 0, false
	}
	return binary.LittleEndian.Uint32(b), true
}

func decodeTime(b []byte) (Time, bool) {
	if len(b) != 8 {
		return Time{}, false
	}
	return Time{
		Sec:  binary.LittleEndian.Uint32(b[0:4]),
		NSec: binary.LittleEndian.Uint32(b[4:8]),
	}, true
}

func decodeString(b []byte) (string, bool) {
	if !utf8.Valid(b) {
		return "", false
	}
	return string(b), true
}

func decodeFlag(b []byte) (bool, bool) {
	switch string(b) {
	case "1":
		return true, true
	case "0":
		return false, true
	default:
		return false, false
	}
}
