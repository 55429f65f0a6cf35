package bag

import (
	"time"

	"github.com/danmuck/bagctl/internal/bag/cursor"
)

// Time is a bag timestamp: seconds and nanoseconds since the Unix epoch.
type Time struct {
	Sec  uint32
	NSec uint32
}

func (t Time) Time() time.Time {
	return time.Unix(int64(t.Sec), int64(t.NSec)).UTC()
}

func (t Time) Before(u Time) bool {
	if t.Sec != u.Sec {
		return t.Sec < u.Sec
	}
	return t.NSec < u.NSec
}

// MessageData is one serialized message. Data aliases the buffer the
// record was read from.
type MessageData struct {
	Conn uint32
	Time Time
	data []byte
}

func ReadMessageData(c *cursor.Cursor) (*MessageData, error) {
	return Read[*MessageData](c, &messageHeader{})
}

func (m *MessageData) Op() Op {
	return OpMessageData
}

// Data returns the serialized message bytes.
func (m *MessageData) Data() []byte {
	return m.data
}

type messageHeader struct {
	conn *uint32
	time *Time
}

func (h *messageHeader) Op() Op {
	return OpMessageData
}

func (h *messageHeader) ProcessField(name string, value []byte) error {
	switch name {
	case "conn":
		return setField(OpMessageData, name, &h.conn, value, decodeU32)
	case "time":
		return setField(OpMessageData, name, &h.time, value, decodeTime)
	default:
		unknownField(OpMessageData, name, value)
		return nil
	}
}

func (h *messageHeader) ReadData(c *cursor.Cursor) (*MessageData, error) {
	if h.conn == nil {
		return nil, missingField(OpMessageData, "conn")
	}
	if h.time == nil {
		return nil, missingField(OpMessageData, "time")
	}
	data, err := c.NextChunk()
	if err != nil {
		return nil, fromCursor(err)
	}
	return &MessageData{Conn: *h.conn, Time: *h.time, data: data}, nil
}
