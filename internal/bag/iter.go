package bag

import (
	"fmt"
	"iter"

	"github.com/danmuck/bagctl/internal/bag/cursor"
	"github.com/rs/zerolog/log"
)

// RecordIterator walks the records stored in a chunk payload in storage
// order. Once Next returns false the iterator stays exhausted; Err reports
// why it stopped, or nil at the clean end of the payload.
type RecordIterator struct {
	c    *cursor.Cursor
	rec  Record
	err  error
	done bool
}

func newRecordIterator(data []byte) *RecordIterator {
	return &RecordIterator{c: cursor.New(data)}
}

// Next parses the next record. It returns false at the end of the payload
// or on the first parse failure.
func (it *RecordIterator) Next() bool {
	if it.done {
		return false
	}
	if it.c.Done() {
		it.stop(nil)
		return false
	}
	rec, err := readChunkRecord(it.c)
	if err != nil {
		it.stop(err)
		return false
	}
	it.rec = rec
	return true
}

// Record returns the record parsed by the last successful Next: a
// *Connection or a *MessageData.
func (it *RecordIterator) Record() Record {
	return it.rec
}

func (it *RecordIterator) Err() error {
	return it.err
}

// All adapts the iterator to a range-over-func sequence. A terminating
// error is yielded as the final pair.
func (it *RecordIterator) All() iter.Seq2[Record, error] {
	return func(yield func(Record, error) bool) {
		for it.Next() {
			if !yield(it.Record(), nil) {
				return
			}
		}
		if err := it.Err(); err != nil {
			yield(nil, err)
		}
	}
}

func (it *RecordIterator) stop(err error) {
	it.done = true
	it.rec = nil
	it.err = err
	if err != nil {
		log.Debug().
			Err(err).
			Int("offset", it.c.Pos()).
			Int("remaining", it.c.Len()).
			Msg("bag: chunk iteration stopped")
	}
}

// MessageIterator walks only the message data records of a chunk payload,
// preserving their order.
type MessageIterator struct {
	records *RecordIterator
	msg     *MessageData
}

func (it *MessageIterator) Next() bool {
	for it.records.Next() {
		if msg, ok := it.records.Record().(*MessageData); ok {
			it.msg = msg
			return true
		}
	}
	it.msg = nil
	return false
}

func (it *MessageIterator) Message() *MessageData {
	return it.msg
}

func (it *MessageIterator) Err() error {
	return it.records.Err()
}

func (it *MessageIterator) All() iter.Seq2[*MessageData, error] {
	return func(yield func(*MessageData, error) bool) {
		for it.Next() {
			if !yield(it.Message(), nil) {
				return
			}
		}
		if err := it.Err(); err != nil {
			yield(nil, err)
		}
	}
}

// readChunkRecord parses one record nested in a chunk. Only connection and
// message data records may appear there.
func readChunkRecord(c *cursor.Cursor) (Record, error) {
	op, err := PeekOp(c)
	if err != nil {
		return nil, err
	}
	switch op {
	case OpMessageData:
		return readerOf(ReadMessageData)(c)
	case OpConnection:
		return readerOf(ReadConnection)(c)
	default:
		return nil, fmt.Errorf("%w: %s inside chunk", ErrInvalidRecord, op)
	}
}
