package bag

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/danmuck/bagctl/internal/bag/cursor"
	bt "github.com/danmuck/bagctl/internal/testutil/bagtest"
	"github.com/danmuck/bagctl/internal/testutil/testlog"
)

func TestFieldsSplitOnFirstEquals(t *testing.T) {
	testlog.Start(t)
	header := bt.Header(bt.Str("a", "b=c"), bt.Str("key", ""))

	var got []Field
	for f, err := range Fields(header) {
		if err != nil {
			t.Fatalf("fields: %v", err)
		}
		got = append(got, f)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 fields, got %d", len(got))
	}
	if got[0].Name != "a" || string(got[0].Value) != "b=c" {
		t.Fatalf("unexpected first field %q=%q", got[0].Name, got[0].Value)
	}
	if got[1].Name != "key" || len(got[1].Value) != 0 {
		t.Fatalf("unexpected second field %q=%q", got[1].Name, got[1].Value)
	}
}

func TestFieldsMalformedEntries(t *testing.T) {
	testlog.Start(t)
	cases := map[string]struct {
		header []byte
		want   error
	}{
		"no equals":     {bt.Block([]byte("noequals")), ErrInvalidHeader},
		"bad utf8 name": {bt.Block([]byte{0xff, 0xfe, '=', 1}), ErrInvalidHeader},
		"short prefix":  {[]byte{4, 0}, ErrOutOfBounds},
		"short entry":   {[]byte{9, 0, 0, 0, 'a', '=', 'b'}, ErrOutOfBounds},
	}
	for name, tc := range cases {
		var err error
		for _, ferr := range Fields(tc.header) {
			if ferr != nil {
				err = ferr
			}
		}
		if !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", name, tc.want, err)
		}
	}
}

func TestHeaderOp(t *testing.T) {
	testlog.Start(t)
	op, err := HeaderOp(bt.Header(bt.Str("topic", "/x"), bt.Op(bt.OpConnection)))
	if err != nil || op != OpConnection {
		t.Fatalf("expected connection op, got %s err=%v", op, err)
	}
	if _, err := HeaderOp(bt.Header(bt.Str("topic", "/x"))); !errors.Is(err, ErrInvalidHeader) {
		t.Fatalf("expected ErrInvalidHeader for missing op, got %v", err)
	}
	if _, err := HeaderOp(bt.Header(bt.Str("op", "ab"))); !errors.Is(err, ErrInvalidHeader) {
		t.Fatalf("expected ErrInvalidHeader for wide op, got %v", err)
	}
}

func TestReadRecordDispatchesByOp(t *testing.T) {
	testlog.Start(t)
	buf := bt.Concat(
		bt.Chunk("none", bt.Message(1, 1, 0, []byte("x"))),
		bt.Connection(1, "/a", "std_msgs/String"),
		bt.Message(1, 2, 0, []byte("y")),
	)
	c := cursor.New(buf)

	var kinds []string
	for !c.Done() {
		rec, err := ReadRecord(c)
		if err != nil {
			t.Fatalf("read record: %v", err)
		}
		kinds = append(kinds, fmt.Sprintf("%T", rec))
	}
	want := []string{"*bag.Chunk", "*bag.Connection", "*bag.MessageData"}
	if fmt.Sprint(kinds) != fmt.Sprint(want) {
		t.Fatalf("unexpected kinds %v", kinds)
	}
}

func TestReadRecordUnknownOpConsumesNothing(t *testing.T) {
	testlog.Start(t)
	buf := bt.Record(bt.Header(bt.Op(bt.OpIndexData)), []byte("index"))
	c := cursor.New(buf)

	rec, err := ReadRecord(c)
	if !errors.Is(err, ErrInvalidRecord) {
		t.Fatalf("expected ErrInvalidRecord, got %v", err)
	}
	if rec != nil {
		t.Fatalf("expected nil record, got %T", rec)
	}
	if c.Pos() != 0 {
		t.Fatalf("cursor moved to %d", c.Pos())
	}

	op, err := SkipRecord(c)
	if err != nil || op != OpIndexData {
		t.Fatalf("skip: op=%s err=%v", op, err)
	}
	if !c.Done() {
		t.Fatalf("expected cursor done after skip")
	}
}

type markerRecord struct{ payload string }

func (markerRecord) Op() Op { return Op(0x7e) }

func TestRegisterCustomReader(t *testing.T) {
	testlog.Start(t)
	Register(Op(0x7e), func(c *cursor.Cursor) (Record, error) {
		if _, err := c.NextChunk(); err != nil {
			return nil, err
		}
		data, err := c.NextChunk()
		if err != nil {
			return nil, err
		}
		return markerRecord{payload: string(data)}, nil
	})
	if _, ok := Lookup(Op(0x7e)); !ok {
		t.Fatalf("expected registered reader")
	}

	buf := bt.Record(bt.Header(bt.Op(0x7e)), []byte("marker"))
	rec, err := ReadRecord(cursor.New(buf))
	if err != nil {
		t.Fatalf("read record: %v", err)
	}
	if m, ok := rec.(markerRecord); !ok || m.payload != "marker" {
		t.Fatalf("unexpected record %#v", rec)
	}
}

func TestReadConnectionOptionalFields(t *testing.T) {
	testlog.Start(t)
	buf := bt.Record(
		bt.Header(bt.Op(bt.OpConnection), bt.U32("conn", 4), bt.Str("topic", "/stored")),
		bt.Header(
			bt.Str("topic", "/original"),
			bt.Str("type", "geometry_msgs/Pose"),
			bt.Str("md5sum", "e45d45a5a1ce597b249e23fb30fc871f"),
			bt.Str("message_definition", "Point position\n"),
			bt.Str("callerid", "/talker"),
			bt.Str("latching", "1"),
			bt.Str("extra", "ignored"),
		),
	)
	conn, err := ReadConnection(cursor.New(buf))
	if err != nil {
		t.Fatalf("read connection: %v", err)
	}
	if conn.ID != 4 || conn.StorageTopic != "/stored" || conn.Topic != "/original" {
		t.Fatalf("unexpected topics %+v", conn)
	}
	if conn.CallerID != "/talker" || !conn.Latching {
		t.Fatalf("unexpected optional fields %+v", conn)
	}
}

func TestReadConnectionInvalid(t *testing.T) {
	testlog.Start(t)
	header := bt.Header(bt.Op(bt.OpConnection), bt.U32("conn", 1), bt.Str("topic", "/a"))
	cases := map[string][]byte{
		"missing type": bt.Record(header, bt.Header(
			bt.Str("topic", "/a"),
			bt.Str("md5sum", "x"),
			bt.Str("message_definition", ""),
		)),
		"bad latching": bt.Record(header, bt.Header(
			bt.Str("topic", "/a"),
			bt.Str("type", "t"),
			bt.Str("md5sum", "x"),
			bt.Str("message_definition", ""),
			bt.Str("latching", "yes"),
		)),
		"missing conn": bt.Record(
			bt.Header(bt.Op(bt.OpConnection), bt.Str("topic", "/a")),
			bt.Header(bt.Str("topic", "/a")),
		),
		"short conn": bt.Record(
			bt.Header(bt.Op(bt.OpConnection), bt.Str("conn", "1"), bt.Str("topic", "/a")),
			nil,
		),
	}
	for name, buf := range cases {
		if _, err := ReadConnection(cursor.New(buf)); !errors.Is(err, ErrInvalidHeader) {
			t.Fatalf("%s: expected ErrInvalidHeader, got %v", name, err)
		}
	}
}

func TestReadMessageData(t *testing.T) {
	testlog.Start(t)
	msg, err := ReadMessageData(cursor.New(bt.Message(2, 1700000000, 500, []byte{0xca, 0xfe})))
	if err != nil {
		t.Fatalf("read message: %v", err)
	}
	if msg.Conn != 2 || len(msg.Data()) != 2 {
		t.Fatalf("unexpected message %+v", msg)
	}
	want := time.Unix(1700000000, 500).UTC()
	if !msg.Time.Time().Equal(want) {
		t.Fatalf("unexpected time %v", msg.Time.Time())
	}

	missingTime := bt.Record(bt.Header(bt.Op(bt.OpMessageData), bt.U32("conn", 2)), nil)
	if _, err := ReadMessageData(cursor.New(missingTime)); !errors.Is(err, ErrInvalidHeader) {
		t.Fatalf("expected ErrInvalidHeader, got %v", err)
	}
}

func TestTimeBefore(t *testing.T) {
	a := Time{Sec: 1, NSec: 900}
	b := Time{Sec: 2, NSec: 0}
	if !a.Before(b) || b.Before(a) || a.Before(a) {
		t.Fatalf("unexpected ordering")
	}
}

func TestErrorKind(t *testing.T) {
	cases := map[string]error{
		"invalid_header":          FieldError{Op: OpChunk, Field: "size", Err: ErrInvalidHeader},
		"invalid_record":          fmt.Errorf("%w: x", ErrInvalidRecord),
		"unsupported_compression": ErrUnsupportedCompression,
		"unsupported_version":     ErrUnsupportedVersion,
		"out_of_bounds":           fromCursor(cursor.ErrOutOfBounds),
		"other":                   errors.New("boom"),
		"":                        nil,
	}
	for want, err := range cases {
		if got := ErrorKind(err); got != want {
			t.Fatalf("ErrorKind(%v) = %q, want %q", err, got, want)
		}
	}
}
