package handler

import (
	"reflect"
	"sync"

	"github.com/guileen/pgwirebind/errors"
	"github.com/guileen/pgwirebind/metrics"
)

// Registry is the lookup table the binding and array codecs consult to
// find a Handler for an OID, a PostgreSQL type name, or a host Go
// value. It is safe for concurrent reads once built; Register calls
// are expected at startup, before the registry is shared across
// connections.
type Registry struct {
	mu         sync.RWMutex
	byOID      map[uint32]Handler
	byName     map[string]Handler
	byHostType map[hostTypeKey]Handler
	fallback   Handler
	metrics    *metrics.Metrics
}

// SetMetrics installs the sink ByOID/ByName/ByHostType report each
// successful dispatch to, keyed by the resolved handler's OID (§10.5).
// Pass nil, the default, to skip instrumentation entirely.
func (r *Registry) SetMetrics(m *metrics.Metrics) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.metrics = m
}

func (r *Registry) observeDispatch(h Handler) {
	if r.metrics != nil {
		r.metrics.ObserveDispatch(h.OID())
	}
}

// NewRegistry returns an empty registry. Use NewDefaultRegistry to get
// one pre-populated with the built-in scalar handlers and the
// unrecognized fallback; array handlers are added by
// arraycodec.RegisterArrayHandlers.
func NewRegistry() *Registry {
	return &Registry{
		byOID:      make(map[uint32]Handler),
		byName:     make(map[string]Handler),
		byHostType: make(map[hostTypeKey]Handler),
	}
}

// Register adds h under its OID and name. hostType, when non-nil, also
// indexes h for host-type-based lookup with the given dbTypeHint (pass
// "" when the handler is the only one serving that host type).
func (r *Registry) Register(h Handler, hostType reflect.Type, dbTypeHint string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byOID[h.OID()] = h
	r.byName[h.PGName()] = h
	if hostType != nil {
		r.byHostType[hostTypeKey{hostType, dbTypeHint}] = h
	}
}

// SetFallback installs the "unrecognized" handler used when no OID,
// name, or host-type match is found.
func (r *Registry) SetFallback(h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fallback = h
}

// ByOID resolves a handler by wire OID.
func (r *Registry) ByOID(oid uint32) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.byOID[oid]
	if !ok && r.fallback != nil {
		h, ok = r.fallback, true
	}
	if ok {
		r.observeDispatch(h)
	}
	return h, ok
}

// ByName resolves a handler by PostgreSQL type name.
func (r *Registry) ByName(name string) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.byName[name]
	if !ok && r.fallback != nil {
		h, ok = r.fallback, true
	}
	if ok {
		r.observeDispatch(h)
	}
	return h, ok
}

// ByHostType resolves a handler by Go host type and an optional
// database type hint, in precedence order: pgType name, then dbType
// hint, then host Go type, matching §4.3's "declared PG type / DB type
// / host type" precedence.
func (r *Registry) ByHostType(hostType reflect.Type, pgTypeName, dbTypeHint string) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if pgTypeName != "" {
		if h, ok := r.byName[pgTypeName]; ok {
			r.observeDispatch(h)
			return h, true
		}
	}
	if h, ok := r.byHostType[hostTypeKey{hostType, dbTypeHint}]; ok {
		r.observeDispatch(h)
		return h, true
	}
	if h, ok := r.byHostType[hostTypeKey{hostType, ""}]; ok {
		r.observeDispatch(h)
		return h, true
	}
	if r.fallback != nil {
		r.observeDispatch(r.fallback)
		return r.fallback, true
	}
	return nil, false
}

// WriterFor implements the §4.2 dispatch rule for writers: a
// SimpleWriter is tried first (fast fixed-size path), then a
// ChunkingWriter. For a handler that implements neither, WriterFor
// returns (nil, nil); MustDispatchWriter turns that case into an
// InvalidCast error.
//
// A handler that implements ChunkingWriterFactory is dispatched through
// NewWriter instead of being returned directly: the registry holds one
// shared Handler per type across every connection, and a ChunkingWriter
// with cursor state cannot be that shared instance without two
// concurrent binds racing on the same cursor (§3 invariant i, §5
// "Handler references are shared read-only").
func WriterFor(h Handler) (SimpleWriter, ChunkingWriter) {
	if sw, ok := h.(SimpleWriter); ok {
		return sw, nil
	}
	if f, ok := h.(ChunkingWriterFactory); ok {
		return nil, f.NewWriter()
	}
	if cw, ok := h.(ChunkingWriter); ok {
		return nil, cw
	}
	return nil, nil
}

// ReaderFor implements the symmetric dispatch rule for readers, giving
// ChunkingReaderFactory the same priority over a shared ChunkingReader
// that WriterFor gives its write-side counterpart.
func ReaderFor(h Handler) (SimpleReader, ChunkingReader) {
	if sr, ok := h.(SimpleReader); ok {
		return sr, nil
	}
	if f, ok := h.(ChunkingReaderFactory); ok {
		return nil, f.NewReader()
	}
	if cr, ok := h.(ChunkingReader); ok {
		return nil, cr
	}
	return nil, nil
}

// MustDispatchWriter resolves h to a writer capability or returns
// InvalidCast if the handler offers neither — the runtime TypeMismatch
// path §4.2 describes for the generic codec entry points.
func MustDispatchWriter(op string, h Handler) (SimpleWriter, ChunkingWriter, error) {
	sw, cw := WriterFor(h)
	if sw == nil && cw == nil {
		return nil, nil, errors.InvalidCast(op, h.PGName())
	}
	return sw, cw, nil
}

// MustDispatchReader resolves h to a reader capability or returns
// InvalidCast if the handler offers neither.
func MustDispatchReader(op string, h Handler) (SimpleReader, ChunkingReader, error) {
	sr, cr := ReaderFor(h)
	if sr == nil && cr == nil {
		return nil, nil, errors.InvalidCast(op, h.PGName())
	}
	return sr, cr, nil
}
