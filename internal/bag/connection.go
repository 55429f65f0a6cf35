package bag

import "github.com/danmuck/bagctl/internal/bag/cursor"

// Connection describes the topic and message type that message data
// records with the same connection id belong to.
type Connection struct {
	ID uint32
	// StorageTopic is the topic the messages were stored under.
	StorageTopic string
	// Topic is the topic the messages were originally published on.
	Topic             string
	Type              string
	MD5Sum            string
	MessageDefinition string
	CallerID          string
	Latching          bool
}

func ReadConnection(c *cursor.Cursor) (*Connection, error) {
	return Read[*Connection](c, &connectionHeader{})
}

func (conn *Connection) Op() Op {
	return OpConnection
}

type connectionHeader struct {
	id    *uint32
	topic *string
}

func (h *connectionHeader) Op() Op {
	return OpConnection
}

func (h *connectionHeader) ProcessField(name string, value []byte) error {
	switch name {
	case "conn":
		return setField(OpConnection, name, &h.id, value, decodeU32)
	case "topic":
		return setField(OpConnection, name, &h.topic, value, decodeString)
	default:
		unknownField(OpConnection, name, value)
		return nil
	}
}

func (h *connectionHeader) ReadData(c *cursor.Cursor) (*Connection, error) {
	if h.id == nil {
		return nil, missingField(OpConnection, "conn")
	}
	if h.topic == nil {
		return nil, missingField(OpConnection, "topic")
	}
	block, err := c.NextChunk()
	if err != nil {
		return nil, fromCursor(err)
	}

	var d connectionData
	if err := processFields(block, d.processField); err != nil {
		return nil, err
	}
	required := []struct {
		name string
		v    *string
	}{
		{"topic", d.topic},
		{"type", d.tp},
		{"md5sum", d.md5sum},
		{"message_definition", d.definition},
	}
	for _, req := range required {
		if req.v == nil {
			return nil, missingField(OpConnection, req.name)
		}
	}

	conn := &Connection{
		ID:                *h.id,
		StorageTopic:      *h.topic,
		Topic:             *d.topic,
		Type:              *d.tp,
		MD5Sum:            *d.md5sum,
		MessageDefinition: *d.definition,
	}
	if d.callerID != nil {
		conn.CallerID = *d.callerID
	}
	if d.latching != nil {
		conn.Latching = *d.latching
	}
	return conn, nil
}

// connectionData is the connection header block stored as the record's
// data. It has no op field.
type connectionData struct {
	topic      *string
	tp         *string
	md5sum     *string
	definition *string
	callerID   *string
	latching   *bool
}

func (d *connectionData) processField(name string, value []byte) error {
	switch name {
	case "topic":
		return setField(OpConnection, name, &d.topic, value, decodeString)
	case "type":
		return setField(OpConnection, name, &d.tp, value, decodeString)
	case "md5sum":
		return setField(OpConnection, name, &d.md5sum, value, decodeString)
	case "message_definition":
		return setField(OpConnection, name, &d.definition, value, decodeString)
	case "callerid":
		return setField(OpConnection, name, &d.callerID, value, decodeString)
	case "latching":
		return setField(OpConnection, name, &d.latching, value, decodeFlag)
	default:
		unknownField(OpConnection, name, value)
		return nil
	}
}
