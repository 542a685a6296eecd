// Package handler implements the type-handler registry and dispatch
// rules (§4.2) used to move values between Go host types and the
// PostgreSQL wire format.
package handler

import (
	"reflect"

	"github.com/guileen/pgwirebind/buffer"
)

// FormatCode is the wire format selector carried in Bind's format-code
// blocks: 0 = text, 1 = binary.
type FormatCode int16

const (
	FormatText   FormatCode = 0
	FormatBinary FormatCode = 1
)

// Handler describes a single PostgreSQL type's wire capabilities. A
// concrete handler implements whichever of SimpleReader/Writer and
// ChunkingReader/Writer it can; never both a simple and a chunking
// writer for the same direction (see WriterFor).
type Handler interface {
	// OID is the PostgreSQL type OID this handler serves.
	OID() uint32
	// PGName is the PostgreSQL type name (e.g. "int4", "text").
	PGName() string
	// HostType is the Go type this handler marshals to/from.
	HostType() reflect.Type
	SupportsBinaryRead() bool
	SupportsBinaryWrite() bool
	// PreferTextWrite reports whether a caller that didn't request a
	// format explicitly should still receive text (used by the
	// unrecognized fallback handler).
	PreferTextWrite() bool
}

// SimpleWriter writes a bounded value into buf in one shot. Callers
// must have already verified buf has len(bound size) bytes of write
// space left.
type SimpleWriter interface {
	Handler
	// ValidateAndGetLength returns the wire length required to encode
	// value, without writing anything.
	ValidateAndGetLength(value any) (int, error)
	// WriteSimple encodes value into buf.
	WriteSimple(buf *buffer.ByteBuffer, value any) error
}

// ChunkingWriter streams an unbounded value across repeated calls.
// PrepareWrite resets the writer's internal cursor for a fresh value;
// Write emits as much as fits in buf and returns true once the value
// is fully written, false to request another call after a flush.
// directBuf, when non-nil on return, is a slice the driver loop should
// hand directly to the transport instead of copying through buf (the
// direct-buffer bypass used for large blobs).
type ChunkingWriter interface {
	Handler
	ValidateAndGetLength(value any) (int, error)
	PrepareWrite(value any) error
	Write(buf *buffer.ByteBuffer) (done bool, directBuf []byte, err error)
}

// SimpleReader reads a bounded, already fully-buffered value in one
// shot. n is the wire length already read from the element/parameter
// length prefix.
type SimpleReader interface {
	Handler
	ReadSimple(buf *buffer.ByteBuffer, n int) (any, error)
}

// ChunkingReader streams an unbounded value across repeated calls,
// symmetric with ChunkingWriter.
type ChunkingReader interface {
	Handler
	PrepareRead(n int) error
	Read(buf *buffer.ByteBuffer) (done bool, value any, err error)
}

// ChunkingWriterFactory is implemented by a registered Handler whose
// ChunkingWriter capability carries per-value cursor state (a byte
// offset, a partially-read element length). NewWriter returns a fresh
// ChunkingWriter for one value's write, leaving the registered
// instance itself untouched — state lives in the returned writer, not
// in the handler, so the same registered Handler stays safe to share
// read-only across concurrent connections (see WriterFor).
type ChunkingWriterFactory interface {
	NewWriter() ChunkingWriter
}

// ChunkingReaderFactory is the read-side counterpart of
// ChunkingWriterFactory.
type ChunkingReaderFactory interface {
	NewReader() ChunkingReader
}

// hostTypeKey composes a host Go type with an optional database type
// hint (e.g. distinguishing a Go string bound to "text" vs "varchar").
type hostTypeKey struct {
	host reflect.Type
	hint string
}
