// Package bag parses the records of ROS bag v2.0 files.
//
// A record is a length-prefixed header block followed by a length-prefixed
// data block. The header is a run of length-prefixed name=value fields, one
// of which is the one-byte op naming the record kind. Every kind parses the
// same way (see Header and Read): fields are fed to a kind-specific
// accumulator, which is then validated and used to read the data block.
//
// Parsed records alias the buffer they were read from and never copy
// payload bytes. A Chunk's payload is itself a run of records, walked
// lazily by Chunk.Records and Chunk.Messages.
package bag
