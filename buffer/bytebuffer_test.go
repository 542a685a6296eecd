package buffer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memTransport is an in-memory Transport used by tests: Flush appends to
// Sent, Fill drains from Incoming.
type memTransport struct {
	Sent     []byte
	Incoming []byte
}

func (t *memTransport) Flush(p []byte) error {
	t.Sent = append(t.Sent, p...)
	return nil
}

func (t *memTransport) Fill(dest []byte) (int, error) {
	n := copy(dest, t.Incoming)
	t.Incoming = t.Incoming[n:]
	return n, nil
}

func TestByteBufferPutGetRoundTrip(t *testing.T) {
	b := New(32)
	require.Equal(t, 32, b.WriteSpaceLeft())

	b.PutInt32(42)
	b.PutInt16(-7)
	b.PutBytes([]byte("hi"))

	require.Equal(t, 4+2+2, b.ReadBytesLeft())
	assert.Equal(t, int32(42), b.GetInt32())
	assert.Equal(t, int16(-7), b.GetInt16())
	assert.Equal(t, []byte("hi"), b.GetBytes(2))
	assert.Equal(t, 0, b.ReadBytesLeft())
}

func TestByteBufferCStringRejectsEmbeddedNUL(t *testing.T) {
	b := New(16)
	err := b.PutCString("op", "bad\x00name")
	require.Error(t, err)
}

func TestByteBufferCStringRejectsNonASCII(t *testing.T) {
	b := New(16)
	err := b.PutCString("op", "café")
	require.Error(t, err)
}

func TestByteBufferFlushResetsWriteCursor(t *testing.T) {
	b := New(16)
	tr := &memTransport{}

	b.PutInt32(1)
	b.PutInt32(2)
	require.NoError(t, b.Flush(tr))

	assert.Equal(t, 16, b.WriteSpaceLeft())
	assert.Equal(t, []byte{0, 0, 0, 1, 0, 0, 0, 2}, tr.Sent)
}

func TestByteBufferRefillAndCompact(t *testing.T) {
	b := New(8)
	tr := &memTransport{Incoming: []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}}

	n, err := b.Refill(tr)
	require.NoError(t, err)
	assert.Equal(t, 8, n)
	assert.Equal(t, 8, b.ReadBytesLeft())

	// Consume 5 bytes, leaving 3 unread; a second Refill must compact
	// first to make room for more incoming bytes. Only 2 of the 10
	// incoming bytes are still pending at the transport.
	_ = b.GetBytes(5)
	n, err = b.Refill(tr)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 5, b.ReadBytesLeft())
	assert.Equal(t, []byte{6, 7, 8, 9, 10}, b.GetBytes(5))
}

func TestByteBufferFlushNoopWhenEmpty(t *testing.T) {
	b := New(8)
	tr := &memTransport{}
	require.NoError(t, b.Flush(tr))
	assert.Nil(t, tr.Sent)
}
