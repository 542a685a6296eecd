// Package buffer implements the fixed-capacity, cursor-based I/O buffer
// that the wire codec reads from and writes through. It never performs
// I/O itself: callers check WriteSpaceLeft/ReadBytesLeft before each
// put/get and drive Flush/Refill against a Transport between codec
// calls, the same half-duplex discipline the teacher's message buffer
// uses around a growable slice, adapted here to a fixed capacity so the
// codec can suspend instead of growing without bound.
package buffer

import (
	"encoding/binary"

	"github.com/guileen/pgwirebind/errors"
)

// Transport is the external collaborator that moves bytes to and from
// the wire. The codec core never talks to a socket directly.
type Transport interface {
	// Flush writes p to the wire in full, or returns an error.
	Flush(p []byte) error
	// Fill reads up to len(dest) bytes into dest and returns how many
	// were read. Returning (0, nil) is treated as "nothing available
	// yet"; callers loop.
	Fill(dest []byte) (int, error)
}

// ByteBuffer is a contiguous region of fixed capacity C. It tracks three
// cursors: readPos <= writePos <= C (bytes produced by Put*, pending
// Flush) and filledEnd (bytes landed by Refill, pending consumption via
// Get*). Put* advances writePos and filledEnd together, so data written
// locally is immediately readable back without a round trip through a
// transport; Refill advances filledEnd by the bytes that arrived from
// the wire and raises writePos to filledEnd if it lags behind, so
// readPos <= writePos keeps holding.
type ByteBuffer struct {
	data      []byte
	readPos   int
	writePos  int
	filledEnd int
}

// New allocates a ByteBuffer of the given fixed capacity.
func New(capacity int) *ByteBuffer {
	return &ByteBuffer{data: make([]byte, capacity)}
}

// Capacity returns the buffer's fixed capacity C.
func (b *ByteBuffer) Capacity() int { return len(b.data) }

// WriteSpaceLeft reports C - writePos.
func (b *ByteBuffer) WriteSpaceLeft() int { return len(b.data) - b.writePos }

// ReadBytesLeft reports filledEnd - readPos.
func (b *ByteBuffer) ReadBytesLeft() int { return b.filledEnd - b.readPos }

// Reset returns all cursors to zero, discarding any pending data.
func (b *ByteBuffer) Reset() {
	b.readPos, b.writePos, b.filledEnd = 0, 0, 0
}

func (b *ByteBuffer) bumpWrite(n int) {
	b.writePos += n
	if b.writePos > b.filledEnd {
		b.filledEnd = b.writePos
	}
}

// PutInt16 appends a big-endian int16. Callers must have already
// verified WriteSpaceLeft() >= 2.
func (b *ByteBuffer) PutInt16(v int16) {
	binary.BigEndian.PutUint16(b.data[b.writePos:], uint16(v))
	b.bumpWrite(2)
}

// PutInt32 appends a big-endian int32. Callers must have already
// verified WriteSpaceLeft() >= 4.
func (b *ByteBuffer) PutInt32(v int32) {
	binary.BigEndian.PutUint32(b.data[b.writePos:], uint32(v))
	b.bumpWrite(4)
}

// PutInt64 appends a big-endian int64. Callers must have already
// verified WriteSpaceLeft() >= 8.
func (b *ByteBuffer) PutInt64(v int64) {
	binary.BigEndian.PutUint64(b.data[b.writePos:], uint64(v))
	b.bumpWrite(8)
}

// PutBytes appends p raw. Callers must have already verified
// WriteSpaceLeft() >= len(p).
func (b *ByteBuffer) PutBytes(p []byte) {
	n := copy(b.data[b.writePos:], p)
	b.bumpWrite(n)
}

// PutByte appends a single byte. Callers must have already verified
// WriteSpaceLeft() >= 1.
func (b *ByteBuffer) PutByte(c byte) {
	b.data[b.writePos] = c
	b.bumpWrite(1)
}

// PutCString appends s followed by a NUL terminator. s must be 7-bit
// ASCII with no embedded NUL, per the wire format's string convention.
// Callers must have already verified WriteSpaceLeft() >= len(s)+1.
func (b *ByteBuffer) PutCString(op, s string) error {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == 0 {
			return errors.Newf(op, errors.CodeNotImplemented, "identifier %q contains an embedded NUL", s)
		}
		if c > 0x7f {
			return errors.Newf(op, errors.CodeNotImplemented, "identifier %q is not 7-bit ASCII", s)
		}
	}
	b.PutBytes([]byte(s))
	b.PutByte(0)
	return nil
}

// GetInt16 reads a big-endian int16. Callers must have already verified
// ReadBytesLeft() >= 2.
func (b *ByteBuffer) GetInt16() int16 {
	v := int16(binary.BigEndian.Uint16(b.data[b.readPos:]))
	b.readPos += 2
	return v
}

// GetInt32 reads a big-endian int32. Callers must have already verified
// ReadBytesLeft() >= 4.
func (b *ByteBuffer) GetInt32() int32 {
	v := int32(binary.BigEndian.Uint32(b.data[b.readPos:]))
	b.readPos += 4
	return v
}

// GetInt64 reads a big-endian int64. Callers must have already verified
// ReadBytesLeft() >= 8.
func (b *ByteBuffer) GetInt64() int64 {
	v := int64(binary.BigEndian.Uint64(b.data[b.readPos:]))
	b.readPos += 8
	return v
}

// GetBytes copies and returns the next n bytes. Callers must have
// already verified ReadBytesLeft() >= n.
func (b *ByteBuffer) GetBytes(n int) []byte {
	out := make([]byte, n)
	copy(out, b.data[b.readPos:b.readPos+n])
	b.readPos += n
	return out
}

// Flush hands [0, writePos) to the transport and resets the buffer for
// the next message. A no-op when nothing has been written.
func (b *ByteBuffer) Flush(t Transport) error {
	if b.writePos == 0 {
		return nil
	}
	if err := t.Flush(b.data[:b.writePos]); err != nil {
		return errors.Protocol("bytebuffer.Flush", err)
	}
	b.Reset()
	return nil
}

// Compact shifts any unread bytes [readPos, filledEnd) to the front of
// the buffer so Refill has room to pull in more. Call before Refill
// when WriteSpaceLeft()/room for new bytes has run out but unread data
// remains (e.g. a large array still streaming in on a small buffer).
func (b *ByteBuffer) Compact() {
	if b.readPos == 0 {
		return
	}
	n := copy(b.data, b.data[b.readPos:b.filledEnd])
	b.readPos = 0
	b.filledEnd = n
	if b.writePos > b.filledEnd {
		b.writePos = b.filledEnd
	}
}

// Refill pulls more bytes from the transport into [filledEnd, C) and
// reports how many bytes arrived.
func (b *ByteBuffer) Refill(t Transport) (int, error) {
	if b.filledEnd >= len(b.data) {
		b.Compact()
	}
	n, err := t.Fill(b.data[b.filledEnd:])
	if err != nil {
		return 0, errors.Protocol("bytebuffer.Refill", err)
	}
	b.filledEnd += n
	if b.writePos < b.filledEnd {
		b.writePos = b.filledEnd
	}
	return n, nil
}
