package arraycodec

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guileen/pgwirebind/buffer"
	"github.com/guileen/pgwirebind/errors"
	"github.com/guileen/pgwirebind/handler"
)

// int4Element is a minimal SimpleReader/SimpleWriter used to exercise
// the array codec without depending on the handler package's
// built-ins, and to let tests inject SafeReadError at will.
type int4Element struct {
	oid         uint32
	failOnValue int32 // if non-zero, ReadSimple raises SafeReadError for this value
}

func (e *int4Element) OID() uint32                { return e.oid }
func (e *int4Element) PGName() string             { return "int4" }
func (e *int4Element) HostType() reflect.Type     { return reflect.TypeOf(int32(0)) }
func (e *int4Element) SupportsBinaryRead() bool   { return true }
func (e *int4Element) SupportsBinaryWrite() bool  { return true }
func (e *int4Element) PreferTextWrite() bool      { return false }

func (e *int4Element) ValidateAndGetLength(value any) (int, error) { return 4, nil }

func (e *int4Element) WriteSimple(buf *buffer.ByteBuffer, value any) error {
	buf.PutInt32(value.(int32))
	return nil
}

func (e *int4Element) ReadSimple(buf *buffer.ByteBuffer, n int) (any, error) {
	v := buf.GetInt32()
	if e.failOnValue != 0 && v == e.failOnValue {
		return nil, errors.SafeRead("int4Element.ReadSimple", errors.New("test", errors.CodeSafeReadError, "bad value"))
	}
	return v, nil
}

func TestArrayCodecOneDimensionalRoundTrip(t *testing.T) {
	elem := &int4Element{oid: 23}
	codec, err := New(elem)
	require.NoError(t, err)

	require.NoError(t, codec.PrepareWrite([]any{int32(1), int32(2), nil, int32(4)}))
	buf := buffer.New(256)
	done, direct, err := codec.Write(buf, elem.OID())
	require.NoError(t, err)
	require.Nil(t, direct)
	require.True(t, done)

	readCodec, err := New(elem)
	require.NoError(t, err)
	require.NoError(t, readCodec.PrepareRead())
	ok, result, err := readCodec.Read(buf, elem.OID())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []int32{4}, result.Dims)
	assert.Equal(t, []any{int32(1), int32(2), nil, int32(4)}, result.Value)
}

func TestArrayCodecTwoDimensionalRoundTrip(t *testing.T) {
	elem := &int4Element{oid: 23}
	codec, err := New(elem)
	require.NoError(t, err)

	value := []any{
		[]any{int32(1), int32(2)},
		[]any{int32(3), int32(4)},
		[]any{int32(5), int32(6)},
	}
	require.NoError(t, codec.PrepareWrite(value))
	buf := buffer.New(256)
	done, _, err := codec.Write(buf, elem.OID())
	require.NoError(t, err)
	require.True(t, done)

	readCodec, _ := New(elem)
	require.NoError(t, readCodec.PrepareRead())
	ok, result, err := readCodec.Read(buf, elem.OID())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []int32{3, 2}, result.Dims)
	assert.Equal(t, value, result.Value)
}

func TestArrayCodecEmptyArray(t *testing.T) {
	elem := &int4Element{oid: 23}
	codec, _ := New(elem)
	require.NoError(t, codec.PrepareWrite([]any{}))

	buf := buffer.New(64)
	done, _, err := codec.Write(buf, elem.OID())
	require.NoError(t, err)
	require.True(t, done)

	readCodec, _ := New(elem)
	require.NoError(t, readCodec.PrepareRead())
	ok, result, err := readCodec.Read(buf, elem.OID())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []int32{0}, result.Dims)
}

func TestArrayCodecOidMismatch(t *testing.T) {
	elem := &int4Element{oid: 23}
	codec, _ := New(elem)
	require.NoError(t, codec.PrepareWrite([]any{int32(1)}))
	buf := buffer.New(64)
	_, _, err := codec.Write(buf, elem.OID())
	require.NoError(t, err)

	readCodec, _ := New(elem)
	require.NoError(t, readCodec.PrepareRead())
	_, _, err = readCodec.Read(buf, 999)
	require.Error(t, err)
	assert.Equal(t, errors.CodeOidMismatch, errors.Code(err))
}

func TestArrayCodecSafeReadContainment(t *testing.T) {
	elem := &int4Element{oid: 23, failOnValue: 2}
	codec, _ := New(&int4Element{oid: 23})
	require.NoError(t, codec.PrepareWrite([]any{int32(1), int32(2), int32(3)}))
	buf := buffer.New(256)
	_, _, err := codec.Write(buf, elem.OID())
	require.NoError(t, err)

	readCodec, _ := New(elem)
	require.NoError(t, readCodec.PrepareRead())
	ok, result, err := readCodec.Read(buf, elem.OID())
	require.True(t, ok)
	require.Error(t, err)
	assert.Equal(t, errors.CodeSafeReadError, errors.Code(err))
	// All three elements were still consumed byte-wise despite the
	// mid-scan failure: the third element's value is intact.
	assert.Equal(t, []any{int32(1), nil, int32(3)}, result.Value)
}

func TestArrayCodecResumesAcrossSmallBuffer(t *testing.T) {
	elem := &int4Element{oid: 23}
	codec, _ := New(elem)
	require.NoError(t, codec.PrepareWrite([]any{int32(1), int32(2), int32(3), int32(4)}))

	tiny := buffer.New(12 + 8 + 4*2) // header (ndim=1) + exactly one element
	done, _, err := codec.Write(tiny, elem.OID())
	require.NoError(t, err)
	require.False(t, done, "a 4-element array must not fit in a buffer sized for its header plus one element")

	// Drain what was written, make room, and resume.
	written := tiny.GetBytes(tiny.ReadBytesLeft())
	full := buffer.New(256)
	full.PutBytes(written)
	done, _, err = codec.Write(full, elem.OID())
	require.NoError(t, err)
	require.True(t, done)

	readCodec, _ := New(elem)
	require.NoError(t, readCodec.PrepareRead())
	ok, result, err := readCodec.Read(full, elem.OID())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []any{int32(1), int32(2), int32(3), int32(4)}, result.Value)
}

func TestArrayCodecCloneHasIndependentCursors(t *testing.T) {
	elem := &int4Element{oid: 23}
	codec, err := New(elem)
	require.NoError(t, err)
	clone := codec.Clone()

	require.NoError(t, codec.PrepareWrite([]any{int32(1), int32(2)}))
	require.NoError(t, clone.PrepareWrite([]any{int32(9), int32(9), int32(9)}))

	bufA := buffer.New(64)
	doneA, _, err := codec.Write(bufA, elem.OID())
	require.NoError(t, err)
	require.True(t, doneA)

	bufB := buffer.New(64)
	doneB, _, err := clone.Write(bufB, elem.OID())
	require.NoError(t, err)
	require.True(t, doneB)

	readA, _ := New(elem)
	require.NoError(t, readA.PrepareRead())
	_, resultA, err := readA.Read(bufA, elem.OID())
	require.NoError(t, err)
	assert.Equal(t, []any{int32(1), int32(2)}, resultA.Value)

	readB, _ := New(elem)
	require.NoError(t, readB.PrepareRead())
	_, resultB, err := readB.Read(bufB, elem.OID())
	require.NoError(t, err)
	assert.Equal(t, []any{int32(9), int32(9), int32(9)}, resultB.Value)
}

// TestArrayHandlerNewWriterDoesNotShareCursorWithRegisteredInstance
// guards against the race a shared registry handler would otherwise
// hit: two concurrent binds of the same array type must not write
// through the same ArrayCodec cursor.
func TestArrayHandlerNewWriterDoesNotShareCursorWithRegisteredInstance(t *testing.T) {
	elem := &int4Element{oid: 23}
	registered, err := NewArrayHandler(elem, 1007, "_int4")
	require.NoError(t, err)

	w1 := registered.NewWriter()
	w2 := registered.NewWriter()
	require.NotSame(t, w1, w2)

	require.NoError(t, w1.PrepareWrite([]any{int32(1), int32(2)}))
	require.NoError(t, w2.PrepareWrite([]any{int32(7), int32(8), int32(9)}))

	n1, err := w1.ValidateAndGetLength([]any{int32(1), int32(2)})
	require.NoError(t, err)
	buf1 := buffer.New(64)
	done1, _, err := w1.Write(buf1)
	require.NoError(t, err)
	require.True(t, done1)
	assert.Equal(t, n1, buf1.ReadBytesLeft())

	buf2 := buffer.New(64)
	done2, _, err := w2.Write(buf2)
	require.NoError(t, err)
	require.True(t, done2)
}

var _ handler.Handler = (*int4Element)(nil)
