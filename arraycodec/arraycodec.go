// Package arraycodec implements the binary array wire format (§4.5):
// resumable read and write state machines layered over a single
// element handler, plus the per-element safe-read containment
// redesign that keeps a semantically-invalid element from breaking
// the connection mid-scan.
package arraycodec

import (
	"github.com/guileen/pgwirebind/errors"
	"github.com/guileen/pgwirebind/handler"
)

// readState names the array-read state machine's states (§4.5).
type readState int

const (
	readNeedPrepare readState = iota
	readNothing
	readHeader
	readingElements
)

// writeState names the array-write state machine's states (§4.5).
type writeState int

const (
	writeNeedPrepare writeState = iota
	writeNothing
	writingElements
	writeCleanup
)

// ArrayCodec encodes/decodes a one-dimensional or multidimensional
// PostgreSQL binary array around a single element Handler. A codec
// instance is not safe for concurrent use; ConcurrentOperation is
// raised if PrepareRead is called after a prior read on the same
// instance has read its header but not finished, or PrepareWrite after
// a prior write has emitted its header but not finished. Preparing
// again before the first Read/Write call is allowed.
type ArrayCodec struct {
	element       handler.Handler
	elementSimple handler.SimpleReader
	elementChunk  handler.ChunkingReader
	elementSW     handler.SimpleWriter
	elementCW     handler.ChunkingWriter

	// read side
	rState        readState
	ndim          int
	hasNulls      int32
	dimLengths    []int32
	flatIndex     int
	totalCount    int
	readFlat      []flatElement
	elementLen    int32 // -1 means "length not yet read"
	chunkPrepared bool
	pendingSafe   []error

	// write side
	wState          writeState
	writeDims       []int32
	writeFlatValues []any
	writeFlat       int
	writeTotal      int
	wroteElemLen    bool
}

// New builds an ArrayCodec for the given element handler. The element
// handler must implement either SimpleReader+SimpleWriter or
// ChunkingReader+ChunkingWriter (mixing capability families across
// read/write is fine; mixing within one direction is not, matching the
// "never both a simple and a chunking writer" handler invariant).
//
// Dispatch goes through handler.WriterFor/ReaderFor rather than a
// direct type assertion on element, so an element handler backed by a
// ChunkingWriterFactory/ChunkingReaderFactory (e.g. bytea) hands this
// codec a fresh per-instance writer/reader instead of aliasing a
// shared singleton's cursor state.
func New(element handler.Handler) (*ArrayCodec, error) {
	c := &ArrayCodec{element: element}
	c.elementSimple, c.elementChunk = handler.ReaderFor(element)
	c.elementSW, c.elementCW = handler.WriterFor(element)
	if c.elementSimple == nil && c.elementChunk == nil {
		return nil, errors.InvalidCast("arraycodec.New", element.PGName()+" (no reader capability)")
	}
	if c.elementSW == nil && c.elementCW == nil {
		return nil, errors.InvalidCast("arraycodec.New", element.PGName()+" (no writer capability)")
	}
	c.elementLen = -1
	return c, nil
}

// ElementHandler returns the element handler this codec was built with.
func (c *ArrayCodec) ElementHandler() handler.Handler { return c.element }

// Clone returns a fresh ArrayCodec over the same element handler, with
// its own write/read cursors and its own element writer/reader
// obtained independently through handler.WriterFor/ReaderFor. Two
// ArrayCodec instances produced from the same ArrayHandler must never
// alias each other's cursor state (§3 invariant i), so ArrayHandler's
// ChunkingWriterFactory/ChunkingReaderFactory implementation calls
// this for every new value rather than reusing one codec across binds.
func (c *ArrayCodec) Clone() *ArrayCodec {
	nc, err := New(c.element)
	if err != nil {
		// c.element already passed these same capability checks when
		// this codec was built; a second, identical check cannot fail.
		panic("arraycodec: element handler capability check failed on clone: " + err.Error())
	}
	return nc
}
