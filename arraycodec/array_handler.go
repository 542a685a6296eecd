package arraycodec

import (
	"reflect"

	"github.com/guileen/pgwirebind/buffer"
	"github.com/guileen/pgwirebind/handler"
)

// arrayOfAny is the host Go type every ArrayHandler dispatches under:
// a nested []any value, shaped to match the array's dimensionality.
var arrayOfAny = reflect.TypeOf([]any(nil))

// ArrayHandler adapts an ArrayCodec to the handler.Handler family so
// arrays can be registered into a handler.Registry like any scalar
// type (§4.2: "An array handler is generic over an element handler
// ... it forwards supports_binary_* to the element"). It lives in this
// package, not handler, so handler never needs to import arraycodec.
type ArrayHandler struct {
	codec      *ArrayCodec
	oid        uint32
	pgName     string
	elementOID uint32
}

// NewArrayHandler builds the one-dimensional-or-more array handler
// for elementHandler, registered under arrayOID/arrayName (the
// well-known "_"-prefixed PostgreSQL array type, e.g. "_int4" at OID
// 1007 for int4's array counterpart).
func NewArrayHandler(elementHandler handler.Handler, arrayOID uint32, arrayName string) (*ArrayHandler, error) {
	codec, err := New(elementHandler)
	if err != nil {
		return nil, err
	}
	return &ArrayHandler{
		codec:      codec,
		oid:        arrayOID,
		pgName:     arrayName,
		elementOID: elementHandler.OID(),
	}, nil
}

func (h *ArrayHandler) OID() uint32            { return h.oid }
func (h *ArrayHandler) PGName() string         { return h.pgName }
func (h *ArrayHandler) HostType() reflect.Type { return arrayOfAny }

func (h *ArrayHandler) SupportsBinaryRead() bool  { return h.codec.element.SupportsBinaryRead() }
func (h *ArrayHandler) SupportsBinaryWrite() bool { return h.codec.element.SupportsBinaryWrite() }
func (h *ArrayHandler) PreferTextWrite() bool      { return h.codec.element.PreferTextWrite() }

func (h *ArrayHandler) ValidateAndGetLength(value any) (int, error) {
	return h.codec.ValidateAndGetLength(value)
}

func (h *ArrayHandler) PrepareWrite(value any) error {
	return h.codec.PrepareWrite(value)
}

func (h *ArrayHandler) Write(buf *buffer.ByteBuffer) (bool, []byte, error) {
	return h.codec.Write(buf, h.elementOID)
}

func (h *ArrayHandler) PrepareRead(n int) error {
	return h.codec.PrepareRead()
}

func (h *ArrayHandler) Read(buf *buffer.ByteBuffer) (bool, any, error) {
	done, result, err := h.codec.Read(buf, h.elementOID)
	if !done {
		return false, nil, err
	}
	if err != nil {
		return true, result.Value, err
	}
	return true, result.Value, nil
}

// NewWriter and NewReader implement handler.ChunkingWriterFactory and
// handler.ChunkingReaderFactory: the ArrayHandler a Registry holds is
// shared process-wide across connections, but its codec's write/read
// cursors are not, so every new bind gets its own cloned codec rather
// than mutating the registered instance's.
func (h *ArrayHandler) NewWriter() handler.ChunkingWriter {
	return &ArrayHandler{codec: h.codec.Clone(), oid: h.oid, pgName: h.pgName, elementOID: h.elementOID}
}

func (h *ArrayHandler) NewReader() handler.ChunkingReader {
	return &ArrayHandler{codec: h.codec.Clone(), oid: h.oid, pgName: h.pgName, elementOID: h.elementOID}
}

var (
	_ handler.ChunkingWriter        = (*ArrayHandler)(nil)
	_ handler.ChunkingReader        = (*ArrayHandler)(nil)
	_ handler.ChunkingWriterFactory = (*ArrayHandler)(nil)
	_ handler.ChunkingReaderFactory = (*ArrayHandler)(nil)
)
