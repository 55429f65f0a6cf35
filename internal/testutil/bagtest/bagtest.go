// Package bagtest builds bag record bytes for tests.
package bagtest

import "encoding/binary"

const (
	OpMessageData byte = 0x02
	OpIndexData   byte = 0x04
	OpChunk       byte = 0x05
	OpConnection  byte = 0x07
)

// Field is one header entry; Value is written as-is.
type Field struct {
	Name  string
	Value []byte
}

func Str(name, v string) Field {
	return Field{Name: name, Value: []byte(v)}
}

func U32(name string, v uint32) Field {
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, v)
	return Field{Name: name, Value: buf}
}

func Time(name string, sec, nsec uint32) Field {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint32(buf[0:4], sec)
	binary.LittleEndian.PutUint32(buf[4:8], nsec)
	return Field{Name: name, Value: buf}
}

func Op(op byte) Field {
	return Field{Name: "op", Value: []byte{op}}
}

// Block prefixes b with its little-endian u32 length.
func Block(b []byte) []byte {
	out := make([]byte, 4, 4+len(b))
	binary.LittleEndian.PutUint32(out, uint32(len(b)))
	return append(out, b...)
}

// Header encodes fields as a header block body (without the outer length).
func Header(fields ...Field) []byte {
	var out []byte
	for _, f := range fields {
		entry := make([]byte, 0, len(f.Name)+1+len(f.Value))
		entry = append(entry, f.Name...)
		entry = append(entry, '=')
		entry = append(entry, f.Value...)
		out = append(out, Block(entry)...)
	}
	return out
}

// Record frames a header body and a data body.
func Record(header, data []byte) []byte {
	return Concat(Block(header), Block(data))
}

func Chunk(compression string, payload []byte) []byte {
	return Record(Header(
		Op(OpChunk),
		Str("compression", compression),
		U32("size", uint32(len(payload))),
	), payload)
}

func Connection(conn uint32, topic, msgType string) []byte {
	return Record(
		Header(Op(OpConnection), U32("conn", conn), Str("topic", topic)),
		Header(
			Str("topic", topic),
			Str("type", msgType),
			Str("md5sum", "992ce8a1687cec8c8bd883ec73ca41d1"),
			Str("message_definition", "string data\n"),
		),
	)
}

func Message(conn, sec, nsec uint32, data []byte) []byte {
	return Record(
		Header(Op(OpMessageData), U32("conn", conn), Time("time", sec, nsec)),
		data,
	)
}

func Concat(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}
