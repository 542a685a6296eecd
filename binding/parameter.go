// Package binding resolves host values to wire type handlers and
// precomputes the per-parameter bookkeeping (§4.3) the bind message
// writer needs before it starts emitting bytes.
package binding

import (
	"reflect"

	"github.com/guileen/pgwirebind/errors"
	"github.com/guileen/pgwirebind/handler"
)

// Direction distinguishes an input parameter (bound into a Bind
// message) from an output/result column description. Bind always
// produces Input parameters; the bind message writer refuses any
// parameter whose Direction is not Input.
type Direction int

const (
	Input Direction = iota
	Output
)

// Parameter is one bound value, ready for the bind message writer:
// its handler has been resolved, its format_code fixed (binary when
// the handler supports it, text otherwise), and its bound_size
// precomputed so the writer never has to call back into the registry
// mid-emission.
type Parameter struct {
	Handler       handler.Handler
	Value         any
	FormatCode    handler.FormatCode
	IsNull        bool
	Direction     Direction
	BoundSize     int32

	SimpleWriter   handler.SimpleWriter
	ChunkingWriter handler.ChunkingWriter
}

// Bind resolves value's handler from reg using the declared PG type
// name, dbTypeHint, and value's own Go type, in that precedence
// (handler.Registry.ByHostType already implements the precedence
// order). A nil value or an explicit isNull is bound as SQL NULL:
// bound_size is -1 and no handler dispatch is required for sizing.
//
// InvalidCast is fatal — no handler was found for the host type.
func Bind(reg *handler.Registry, pgTypeName, dbTypeHint string, value any, isNull bool) (*Parameter, error) {
	if value == nil {
		isNull = true
	}

	var hostType reflect.Type
	if value != nil {
		hostType = reflect.TypeOf(value)
	}

	h, ok := reg.ByHostType(hostType, pgTypeName, dbTypeHint)
	if !ok {
		name := pgTypeName
		if name == "" && hostType != nil {
			name = hostType.String()
		}
		return nil, errors.InvalidCast("binding.Bind", name)
	}

	p := &Parameter{Handler: h, Value: value, IsNull: isNull, Direction: Input}

	if h.SupportsBinaryWrite() && !h.PreferTextWrite() {
		p.FormatCode = handler.FormatBinary
	} else {
		p.FormatCode = handler.FormatText
	}

	if p.IsNull {
		p.BoundSize = -1
		return p, nil
	}

	sw, cw := handler.WriterFor(h)
	if sw == nil && cw == nil {
		return nil, errors.InvalidCast("binding.Bind", h.PGName())
	}
	p.SimpleWriter, p.ChunkingWriter = sw, cw

	var n int
	var err error
	if sw != nil {
		n, err = sw.ValidateAndGetLength(value)
	} else {
		n, err = cw.ValidateAndGetLength(value)
	}
	if err != nil {
		return nil, err
	}
	p.BoundSize = int32(n)
	return p, nil
}
