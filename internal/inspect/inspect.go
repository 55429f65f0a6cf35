// Package inspect walks a buffer of back-to-back bag records and summarizes
// what it holds: chunks, connections and messages per connection.
package inspect

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/danmuck/bagctl/internal/bag"
	"github.com/danmuck/bagctl/internal/bag/cursor"
	"github.com/danmuck/bagctl/internal/observability"
	"github.com/rs/zerolog/log"
)

type Options struct {
	// MessagesOnly walks chunks with the messages-only iterator. Connection
	// records nested in chunks are then not reported, so topics are only
	// known from top-level connection records.
	MessagesOnly bool
	// Topics restricts message statistics to these topics. Empty means all.
	Topics []string
	// Digest records an xxhash64 digest for every reported message.
	Digest bool
}

type ChunkSummary struct {
	Offset      int    `json:"offset"`
	Compression string `json:"compression"`
	Size        int    `json:"size"`
	Records     int    `json:"records"`
}

type ConnectionSummary struct {
	ID       uint32     `json:"id"`
	Topic    string     `json:"topic"`
	Type     string     `json:"type"`
	Messages int        `json:"messages"`
	First    *time.Time `json:"first,omitempty"`
	Last     *time.Time `json:"last,omitempty"`
}

type MessageSummary struct {
	Conn   uint32    `json:"conn"`
	Time   time.Time `json:"time"`
	Size   int       `json:"size"`
	Digest string    `json:"digest"`
}

type Summary struct {
	Records     map[string]int      `json:"records"`
	Skipped     int                 `json:"skipped"`
	Chunks      []ChunkSummary      `json:"chunks"`
	Connections []ConnectionSummary `json:"connections"`
	Messages    int                 `json:"messages"`
	Start       *time.Time          `json:"start,omitempty"`
	End         *time.Time          `json:"end,omitempty"`
	Digests     []MessageSummary    `json:"digests,omitempty"`
}

// Run walks buf from the start. On a parse failure it returns the summary
// of everything read before the failing record together with the error.
func Run(buf []byte, opts Options) (*Summary, error) {
	w := newWalker(opts)
	c := cursor.New(buf)
	for !c.Done() {
		offset := c.Pos()
		if err := w.step(c); err != nil {
			observability.RecordParseError(bag.ErrorKind(err))
			log.Warn().Err(err).Int("offset", offset).Msg("inspect: record walk stopped")
			return w.finish(), fmt.Errorf("inspect: record at offset %d: %w", offset, err)
		}
	}
	s := w.finish()
	log.Debug().
		Int("bytes", len(buf)).
		Int("chunks", len(s.Chunks)).
		Int("messages", s.Messages).
		Msg("inspect: walk complete")
	return s, nil
}

type connStats struct {
	conn        *bag.Connection
	messages    int
	first, last bag.Time
}

type walker struct {
	opts    Options
	topics  map[string]struct{}
	records map[string]int
	skipped int
	chunks  []ChunkSummary
	conns   map[uint32]*connStats
	digests []MessageSummary
}

func newWalker(opts Options) *walker {
	w := &walker{
		opts:    opts,
		records: make(map[string]int),
		conns:   make(map[uint32]*connStats),
	}
	for _, topic := range opts.Topics {
		topic = strings.TrimSpace(topic)
		if topic == "" {
			continue
		}
		if w.topics == nil {
			w.topics = make(map[string]struct{})
		}
		w.topics[topic] = struct{}{}
	}
	return w
}

func (w *walker) step(c *cursor.Cursor) error {
	op, err := bag.PeekOp(c)
	if err != nil {
		return err
	}
	if _, ok := bag.Lookup(op); !ok {
		if _, err := bag.SkipRecord(c); err != nil {
			return err
		}
		w.skipped++
		return nil
	}

	offset := c.Pos()
	rec, err := bag.ReadRecord(c)
	if err != nil {
		return err
	}
	w.parsed(rec)
	switch r := rec.(type) {
	case *bag.Chunk:
		return w.chunk(offset, r)
	case *bag.Connection:
		w.connection(r)
	case *bag.MessageData:
		w.message(r)
	}
	return nil
}

func (w *walker) chunk(offset int, ch *bag.Chunk) error {
	observability.ObserveChunkPayload(ch.Len())
	cs := ChunkSummary{Offset: offset, Compression: ch.Compression.String(), Size: ch.Len()}
	defer func() { w.chunks = append(w.chunks, cs) }()

	if w.opts.MessagesOnly {
		it := ch.Messages()
		for it.Next() {
			cs.Records++
			w.parsed(it.Message())
			w.message(it.Message())
		}
		return it.Err()
	}

	it := ch.Records()
	for it.Next() {
		cs.Records++
		w.parsed(it.Record())
		switch r := it.Record().(type) {
		case *bag.Connection:
			w.connection(r)
		case *bag.MessageData:
			w.message(r)
		}
	}
	return it.Err()
}

func (w *walker) parsed(rec bag.Record) {
	name := rec.Op().String()
	w.records[name]++
	observability.RecordParsed(name)
}

func (w *walker) stats(id uint32) *connStats {
	st, ok := w.conns[id]
	if !ok {
		st = &connStats{}
		w.conns[id] = st
	}
	return st
}

func (w *walker) connection(conn *bag.Connection) {
	w.stats(conn.ID).conn = conn
}

func (w *walker) message(msg *bag.MessageData) {
	st := w.stats(msg.Conn)
	if st.messages == 0 || msg.Time.Before(st.first) {
		st.first = msg.Time
	}
	if st.messages == 0 || st.last.Before(msg.Time) {
		st.last = msg.Time
	}
	st.messages++
	if w.opts.Digest {
		w.digests = append(w.digests, MessageSummary{
			Conn:   msg.Conn,
			Time:   msg.Time.Time(),
			Size:   len(msg.Data()),
			Digest: fmt.Sprintf("%016x", xxhash.Sum64(msg.Data())),
		})
	}
}

// included reports whether messages on conn pass the topic filter. The
// filter is applied at the end because a connection record may follow the
// messages that use it.
func (w *walker) included(st *connStats) bool {
	if w.topics == nil {
		return true
	}
	if st.conn == nil {
		return false
	}
	_, ok := w.topics[st.conn.Topic]
	return ok
}

func (w *walker) finish() *Summary {
	s := &Summary{
		Records: w.records,
		Skipped: w.skipped,
		Chunks:  w.chunks,
	}

	ids := make([]uint32, 0, len(w.conns))
	for id := range w.conns {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	var start, end bag.Time
	for _, id := range ids {
		st := w.conns[id]
		if !w.included(st) {
			continue
		}
		cs := ConnectionSummary{ID: id, Messages: st.messages}
		if st.conn != nil {
			cs.Topic = st.conn.Topic
			cs.Type = st.conn.Type
		}
		if st.messages > 0 {
			first, last := st.first.Time(), st.last.Time()
			cs.First, cs.Last = &first, &last
			if s.Messages == 0 || st.first.Before(start) {
				start = st.first
			}
			if s.Messages == 0 || end.Before(st.last) {
				end = st.last
			}
			s.Messages += st.messages
		}
		s.Connections = append(s.Connections, cs)
	}
	if s.Messages > 0 {
		first, last := start.Time(), end.Time()
		s.Start, s.End = &first, &last
	}

	for _, d := range w.digests {
		if w.included(w.conns[d.Conn]) {
			s.Digests = append(s.Digests, d)
		}
	}
	return s
}
