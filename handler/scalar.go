package handler

import (
	"math"
	"reflect"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/guileen/pgwirebind/buffer"
	"github.com/guileen/pgwirebind/errors"
)

// Well-known OIDs, sourced from jackc/pgx/v5/pgtype rather than
// re-derived: these numbers are part of the wire protocol, shared with
// every PostgreSQL-speaking Go program in the ecosystem.
const (
	oidBool        = uint32(pgtype.BoolOID)
	oidInt2        = uint32(pgtype.Int2OID)
	oidInt4        = uint32(pgtype.Int4OID)
	oidInt8        = uint32(pgtype.Int8OID)
	oidFloat4      = uint32(pgtype.Float4OID)
	oidFloat8      = uint32(pgtype.Float8OID)
	oidText        = uint32(pgtype.TextOID)
	oidVarchar     = uint32(pgtype.VarcharOID)
	oidBytea       = uint32(pgtype.ByteaOID)
	oidTimestamp   = uint32(pgtype.TimestampOID)
	oidTimestamptz = uint32(pgtype.TimestamptzOID)
)

var (
	typeBool    = reflect.TypeOf(bool(false))
	typeInt16   = reflect.TypeOf(int16(0))
	typeInt32   = reflect.TypeOf(int32(0))
	typeInt64   = reflect.TypeOf(int64(0))
	typeFloat32 = reflect.TypeOf(float32(0))
	typeFloat64 = reflect.TypeOf(float64(0))
	typeString  = reflect.TypeOf("")
	typeBytes   = reflect.TypeOf([]byte(nil))
)

// fixedHandler serves fixed-width scalar types that always fit in a
// single SimpleWriter/SimpleReader round trip (bool, int2/4/8,
// float4/8). It never implements ChunkingWriter/Reader — its values
// are always small enough that suspension is never needed.
type fixedHandler struct {
	oid      uint32
	pgName   string
	hostType reflect.Type
	width    int
	encode   func(buf *buffer.ByteBuffer, value any) error
	decode   func(buf *buffer.ByteBuffer, n int) (any, error)
}

func (h *fixedHandler) OID() uint32                { return h.oid }
func (h *fixedHandler) PGName() string             { return h.pgName }
func (h *fixedHandler) HostType() reflect.Type     { return h.hostType }
func (h *fixedHandler) SupportsBinaryRead() bool   { return true }
func (h *fixedHandler) SupportsBinaryWrite() bool  { return true }
func (h *fixedHandler) PreferTextWrite() bool      { return false }

func (h *fixedHandler) ValidateAndGetLength(value any) (int, error) {
	return h.width, nil
}

func (h *fixedHandler) WriteSimple(buf *buffer.ByteBuffer, value any) error {
	return h.encode(buf, value)
}

func (h *fixedHandler) ReadSimple(buf *buffer.ByteBuffer, n int) (any, error) {
	if n != h.width {
		return nil, errors.Newf("handler."+h.pgName+".ReadSimple", errors.CodeProtocolError,
			"expected %d-byte %s value, got length %d", h.width, h.pgName, n)
	}
	return h.decode(buf, n)
}

func newBoolHandler() Handler {
	return &fixedHandler{
		oid: oidBool, pgName: "bool", hostType: typeBool, width: 1,
		encode: func(buf *buffer.ByteBuffer, value any) error {
			v, ok := value.(bool)
			if !ok {
				return errors.InvalidCast("handler.bool.WriteSimple", "bool")
			}
			if v {
				buf.PutByte(1)
			} else {
				buf.PutByte(0)
			}
			return nil
		},
		decode: func(buf *buffer.ByteBuffer, n int) (any, error) {
			return buf.GetBytes(1)[0] != 0, nil
		},
	}
}

func newInt2Handler() Handler {
	return &fixedHandler{
		oid: oidInt2, pgName: "int2", hostType: typeInt16, width: 2,
		encode: func(buf *buffer.ByteBuffer, value any) error {
			v, ok := value.(int16)
			if !ok {
				return errors.InvalidCast("handler.int2.WriteSimple", "int16")
			}
			buf.PutInt16(v)
			return nil
		},
		decode: func(buf *buffer.ByteBuffer, n int) (any, error) {
			return buf.GetInt16(), nil
		},
	}
}

func newInt4Handler() Handler {
	return &fixedHandler{
		oid: oidInt4, pgName: "int4", hostType: typeInt32, width: 4,
		encode: func(buf *buffer.ByteBuffer, value any) error {
			v, ok := value.(int32)
			if !ok {
				return errors.InvalidCast("handler.int4.WriteSimple", "int32")
			}
			buf.PutInt32(v)
			return nil
		},
		decode: func(buf *buffer.ByteBuffer, n int) (any, error) {
			return buf.GetInt32(), nil
		},
	}
}

func newInt8Handler() Handler {
	return &fixedHandler{
		oid: oidInt8, pgName: "int8", hostType: typeInt64, width: 8,
		encode: func(buf *buffer.ByteBuffer, value any) error {
			v, ok := value.(int64)
			if !ok {
				return errors.InvalidCast("handler.int8.WriteSimple", "int64")
			}
			buf.PutInt64(v)
			return nil
		},
		decode: func(buf *buffer.ByteBuffer, n int) (any, error) {
			return buf.GetInt64(), nil
		},
	}
}

func newFloat4Handler() Handler {
	return &fixedHandler{
		oid: oidFloat4, pgName: "float4", hostType: typeFloat32, width: 4,
		encode: func(buf *buffer.ByteBuffer, value any) error {
			v, ok := value.(float32)
			if !ok {
				return errors.InvalidCast("handler.float4.WriteSimple", "float32")
			}
			buf.PutInt32(int32(math.Float32bits(v)))
			return nil
		},
		decode: func(buf *buffer.ByteBuffer, n int) (any, error) {
			return math.Float32frombits(uint32(buf.GetInt32())), nil
		},
	}
}

func newFloat8Handler() Handler {
	return &fixedHandler{
		oid: oidFloat8, pgName: "float8", hostType: typeFloat64, width: 8,
		encode: func(buf *buffer.ByteBuffer, value any) error {
			v, ok := value.(float64)
			if !ok {
				return errors.InvalidCast("handler.float8.WriteSimple", "float64")
			}
			buf.PutInt64(int64(math.Float64bits(v)))
			return nil
		},
		decode: func(buf *buffer.ByteBuffer, n int) (any, error) {
			return math.Float64frombits(uint64(buf.GetInt64())), nil
		},
	}
}

// newTimestampHandler serves both timestamp and timestamptz: both are
// wire-encoded as an int64 of microseconds since 2000-01-01. The
// handler reads and writes only that integer encoding; the
// integer_datetimes=off (float8 seconds) form is not supported. Nothing
// in this module reads the backend's integer_datetimes setting or
// raises errors.UnsupportedBackendOption for it.
func newTimestampHandler(oid uint32, pgName string) Handler {
	return &fixedHandler{
		oid: oid, pgName: pgName, hostType: typeInt64, width: 8,
		encode: func(buf *buffer.ByteBuffer, value any) error {
			v, ok := value.(int64)
			if !ok {
				return errors.InvalidCast("handler."+pgName+".WriteSimple", "int64 (microseconds since 2000-01-01)")
			}
			buf.PutInt64(v)
			return nil
		},
		decode: func(buf *buffer.ByteBuffer, n int) (any, error) {
			return buf.GetInt64(), nil
		},
	}
}

// textHandler serves text/varchar: always SimpleWriter/Reader since
// ValidateAndGetLength is computed up front and the per-parameter
// emission path (§4.4) only ever suspends between parameters, not
// mid-value, once the length is known and the buffer has room.
type textHandler struct {
	oid    uint32
	pgName string
}

func (h *textHandler) OID() uint32               { return h.oid }
func (h *textHandler) PGName() string            { return h.pgName }
func (h *textHandler) HostType() reflect.Type    { return typeString }
func (h *textHandler) SupportsBinaryRead() bool  { return true }
func (h *textHandler) SupportsBinaryWrite() bool { return true }
func (h *textHandler) PreferTextWrite() bool     { return false }

func (h *textHandler) ValidateAndGetLength(value any) (int, error) {
	s, ok := value.(string)
	if !ok {
		return 0, errors.InvalidCast("handler."+h.pgName+".ValidateAndGetLength", "string")
	}
	return len(s), nil
}

func (h *textHandler) WriteSimple(buf *buffer.ByteBuffer, value any) error {
	s, ok := value.(string)
	if !ok {
		return errors.InvalidCast("handler."+h.pgName+".WriteSimple", "string")
	}
	buf.PutBytes([]byte(s))
	return nil
}

func (h *textHandler) ReadSimple(buf *buffer.ByteBuffer, n int) (any, error) {
	return string(buf.GetBytes(n)), nil
}

// byteaHandler demonstrates the ChunkingWriter/Reader capability
// (§4.2): bytea values can be arbitrarily large, so this handler
// streams through the buffer instead of requiring the whole value to
// fit in one call, and offers a direct-buffer bypass for values large
// enough that copying through buf first would be wasteful.
//
// writeValue/writeOff/readBuf/readOff are per-value cursor state, not
// shared descriptor data, so NewWriter/NewReader hand out a fresh
// *byteaHandler for each value rather than letting callers mutate the
// single instance NewDefaultRegistry registers.
type byteaHandler struct {
	writeValue []byte
	writeOff   int
	readBuf    []byte
	readOff    int
}

func (h *byteaHandler) NewWriter() ChunkingWriter { return &byteaHandler{} }
func (h *byteaHandler) NewReader() ChunkingReader { return &byteaHandler{} }

func (h *byteaHandler) OID() uint32               { return oidBytea }
func (h *byteaHandler) PGName() string            { return "bytea" }
func (h *byteaHandler) HostType() reflect.Type    { return typeBytes }
func (h *byteaHandler) SupportsBinaryRead() bool  { return true }
func (h *byteaHandler) SupportsBinaryWrite() bool { return true }
func (h *byteaHandler) PreferTextWrite() bool     { return false }

func (h *byteaHandler) ValidateAndGetLength(value any) (int, error) {
	b, ok := value.([]byte)
	if !ok {
		return 0, errors.InvalidCast("handler.bytea.ValidateAndGetLength", "[]byte")
	}
	return len(b), nil
}

func (h *byteaHandler) PrepareWrite(value any) error {
	b, ok := value.([]byte)
	if !ok {
		return errors.InvalidCast("handler.bytea.PrepareWrite", "[]byte")
	}
	h.writeValue = b
	h.writeOff = 0
	return nil
}

// directBufferThreshold is the size above which Write bypasses buf
// entirely and hands the remaining slice straight to the driver loop
// (§4.6's direct-buffer bypass), avoiding a copy for large blobs.
const directBufferThreshold = 4096

func (h *byteaHandler) Write(buf *buffer.ByteBuffer) (bool, []byte, error) {
	remaining := h.writeValue[h.writeOff:]
	if len(remaining) == 0 {
		return true, nil, nil
	}
	if len(remaining) >= directBufferThreshold {
		h.writeOff = len(h.writeValue)
		return false, remaining, nil
	}
	space := buf.WriteSpaceLeft()
	if space == 0 {
		return false, nil, nil
	}
	n := space
	if n > len(remaining) {
		n = len(remaining)
	}
	buf.PutBytes(remaining[:n])
	h.writeOff += n
	return h.writeOff >= len(h.writeValue), nil, nil
}

func (h *byteaHandler) PrepareRead(n int) error {
	h.readBuf = make([]byte, n)
	h.readOff = 0
	return nil
}

func (h *byteaHandler) Read(buf *buffer.ByteBuffer) (bool, any, error) {
	remaining := len(h.readBuf) - h.readOff
	if remaining == 0 {
		return true, h.readBuf, nil
	}
	avail := buf.ReadBytesLeft()
	if avail == 0 {
		return false, nil, nil
	}
	n := avail
	if n > remaining {
		n = remaining
	}
	copy(h.readBuf[h.readOff:], buf.GetBytes(n))
	h.readOff += n
	if h.readOff >= len(h.readBuf) {
		return true, h.readBuf, nil
	}
	return false, nil, nil
}

// unrecognizedHandler is the fallback installed for any OID the
// registry has no entry for (§4.2): text format only, binary refused.
type unrecognizedHandler struct{}

func (unrecognizedHandler) OID() uint32               { return 0 }
func (unrecognizedHandler) PGName() string            { return "unrecognized" }
func (unrecognizedHandler) HostType() reflect.Type    { return typeString }
func (unrecognizedHandler) SupportsBinaryRead() bool  { return false }
func (unrecognizedHandler) SupportsBinaryWrite() bool { return false }
func (unrecognizedHandler) PreferTextWrite() bool     { return true }

func (h unrecognizedHandler) ValidateAndGetLength(value any) (int, error) {
	s, ok := value.(string)
	if !ok {
		return 0, errors.InvalidCast("handler.unrecognized.ValidateAndGetLength", "string")
	}
	return len(s), nil
}

func (h unrecognizedHandler) WriteSimple(buf *buffer.ByteBuffer, value any) error {
	return errors.UnsupportedBinaryFormat("handler.unrecognized.WriteSimple", "unrecognized")
}

func (h unrecognizedHandler) ReadSimple(buf *buffer.ByteBuffer, n int) (any, error) {
	return nil, errors.UnsupportedBinaryFormat("handler.unrecognized.ReadSimple", "unrecognized")
}

// NewDefaultRegistry returns a Registry pre-populated with the
// built-in scalar handlers and the unrecognized fallback. Array
// handlers are wired in separately by the arraycodec package (see
// arraycodec.RegisterArrayHandlers) to avoid a handler<->arraycodec
// import cycle.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(newBoolHandler(), typeBool, "")
	r.Register(newInt2Handler(), typeInt16, "")
	r.Register(newInt4Handler(), typeInt32, "")
	r.Register(newInt8Handler(), typeInt64, "")
	r.Register(newFloat4Handler(), typeFloat32, "")
	r.Register(newFloat8Handler(), typeFloat64, "")
	r.Register(&textHandler{oid: oidText, pgName: "text"}, typeString, "text")
	r.Register(&textHandler{oid: oidVarchar, pgName: "varchar"}, typeString, "varchar")
	r.Register(&byteaHandler{}, typeBytes, "")
	r.Register(newTimestampHandler(oidTimestamp, "timestamp"), typeInt64, "timestamp")
	r.Register(newTimestampHandler(oidTimestamptz, "timestamptz"), typeInt64, "timestamptz")
	r.SetFallback(unrecognizedHandler{})
	return r
}
