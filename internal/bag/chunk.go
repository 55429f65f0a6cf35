package bag

import (
	"fmt"

	"github.com/danmuck/bagctl/internal/bag/cursor"
)

// Compression is the compression tag of a chunk.
type Compression uint8

const (
	CompressionNone Compression = iota
	CompressionBZ2
)

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionBZ2:
		return "bz2"
	default:
		return fmt.Sprintf("compression(%d)", uint8(c))
	}
}

// ParseCompression recognizes a compression tag. Both "bz2" and "bzip2"
// name the bzip2 codec.
func ParseCompression(value []byte) (Compression, error) {
	c, ok := decodeCompression(value)
	if !ok {
		return 0, fmt.Errorf("%w: unknown compression %q", ErrInvalidHeader, value)
	}
	return c, nil
}

func decodeCompression(b []byte) (Compression, bool) {
	switch string(b) {
	case "none":
		return CompressionNone, true
	case "bz2", "bzip2":
		return CompressionBZ2, true
	default:
		return 0, false
	}
}

// Chunk is bulk storage for connection and message data records. Data
// aliases the buffer the chunk was read from.
type Chunk struct {
	Compression Compression
	data        []byte
}

// ReadChunk parses a chunk record at the cursor. Only uncompressed chunks
// can be read; bz2 chunks fail with ErrUnsupportedCompression.
func ReadChunk(c *cursor.Cursor) (*Chunk, error) {
	return Read[*Chunk](c, &chunkHeader{})
}

func (ch *Chunk) Op() Op {
	return OpChunk
}

// Data returns the uncompressed payload.
func (ch *Chunk) Data() []byte {
	return ch.data
}

func (ch *Chunk) Len() int {
	return len(ch.data)
}

// Records returns a fresh iterator over every record in the payload.
func (ch *Chunk) Records() *RecordIterator {
	return newRecordIterator(ch.data)
}

// Messages returns a fresh iterator over the message data records in the
// payload.
func (ch *Chunk) Messages() *MessageIterator {
	return &MessageIterator{records: newRecordIterator(ch.data)}
}

type chunkHeader struct {
	compression *Compression
	size        *uint32
}

func (h *chunkHeader) Op() Op {
	return OpChunk
}

func (h *chunkHeader) ProcessField(name string, value []byte) error {
	switch name {
	case "compression":
		return setField(OpChunk, name, &h.compression, value, decodeCompression)
	case "size":
		return setField(OpChunk, name, &h.size, value, decodeU32)
	default:
		unknownField(OpChunk, name, value)
		return nil
	}
}

func (h *chunkHeader) ReadData(c *cursor.Cursor) (*Chunk, error) {
	if h.compression == nil {
		return nil, missingField(OpChunk, "compression")
	}
	if *h.compression != CompressionNone {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedCompression, *h.compression)
	}
	if h.size == nil {
		return nil, missingField(OpChunk, "size")
	}
	data, err := c.NextChunk()
	if err != nil {
		return nil, fromCursor(err)
	}
	if uint64(len(data)) != uint64(*h.size) {
		return nil, fmt.Errorf("%w: chunk size %d, data block %d bytes", ErrInvalidRecord, *h.size, len(data))
	}
	return &Chunk{Compression: *h.compression, data: data}, nil
}
