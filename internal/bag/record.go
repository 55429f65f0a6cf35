package bag

import (
	"fmt"
	"sync"

	"github.com/danmuck/bagctl/internal/bag/cursor"
)

// Op is the one-byte record kind carried in every header's op field.
type Op byte

const (
	OpMessageData Op = 0x02
	OpBagHeader   Op = 0x03
	OpIndexData   Op = 0x04
	OpChunk       Op = 0x05
	OpChunkInfo   Op = 0x06
	OpConnection  Op = 0x07
)

func (o Op) String() string {
	switch o {
	case OpMessageData:
		return "message_data"
	case OpBagHeader:
		return "bag_header"
	case OpIndexData:
		return "index_data"
	case OpChunk:
		return "chunk"
	case OpChunkInfo:
		return "chunk_info"
	case OpConnection:
		return "connection"
	default:
		return fmt.Sprintf("op(0x%02x)", byte(o))
	}
}

// Record is a fully parsed record of any kind.
type Record interface {
	Op() Op
}

// ReaderFunc parses one record at the cursor.
type ReaderFunc func(c *cursor.Cursor) (Record, error)

var (
	readersMu sync.RWMutex
	readers   = map[Op]ReaderFunc{
		OpChunk:       readerOf(ReadChunk),
		OpConnection:  readerOf(ReadConnection),
		OpMessageData: readerOf(ReadMessageData),
	}
)

// Register installs the reader used by ReadRecord for op, replacing any
// previous one.
func Register(op Op, read ReaderFunc) {
	readersMu.Lock()
	defer readersMu.Unlock()
	readers[op] = read
}

func Lookup(op Op) (ReaderFunc, bool) {
	readersMu.RLock()
	defer readersMu.RUnlock()
	read, ok := readers[op]
	return read, ok
}

// ReadRecord reads the op of the next record and dispatches to the reader
// registered for it.
func ReadRecord(c *cursor.Cursor) (Record, error) {
	op, err := PeekOp(c)
	if err != nil {
		return nil, err
	}
	read, ok := Lookup(op)
	if !ok {
		return nil, fmt.Errorf("%w: no reader for %s", ErrInvalidRecord, op)
	}
	return read(c)
}

// PeekOp returns the op of the record at the cursor without consuming it.
func PeekOp(c *cursor.Cursor) (Op, error) {
	header, err := cursor.New(c.Rest()).NextChunk()
	if err != nil {
		return 0, fromCursor(err)
	}
	return HeaderOp(header)
}

// SkipRecord consumes one record using only its framing and returns its op.
func SkipRecord(c *cursor.Cursor) (Op, error) {
	header, err := c.NextChunk()
	if err != nil {
		return 0, fromCursor(err)
	}
	op, err := HeaderOp(header)
	if err != nil {
		return 0, err
	}
	if _, err := c.NextChunk(); err != nil {
		return 0, fromCursor(err)
	}
	return op, nil
}

func readerOf[R Record](read func(*cursor.Cursor) (R, error)) ReaderFunc {
	return func(c *cursor.Cursor) (Record, error) {
		rec, err := read(c)
		if err != nil {
			return nil, err
		}
		return rec, nil
	}
}
