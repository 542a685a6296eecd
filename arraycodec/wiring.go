package arraycodec

import (
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/guileen/pgwirebind/handler"
)

// arrayOIDFor maps a scalar PostgreSQL type name to its one-dimensional
// array counterpart's OID, reusing jackc/pgx/v5/pgtype's constants the
// same way handler.NewDefaultRegistry reuses the scalar ones (§4.2).
var arrayOIDFor = map[string]uint32{
	"bool":        uint32(pgtype.BoolArrayOID),
	"int2":        uint32(pgtype.Int2ArrayOID),
	"int4":        uint32(pgtype.Int4ArrayOID),
	"int8":        uint32(pgtype.Int8ArrayOID),
	"float4":      uint32(pgtype.Float4ArrayOID),
	"float8":      uint32(pgtype.Float8ArrayOID),
	"text":        uint32(pgtype.TextArrayOID),
	"varchar":     uint32(pgtype.VarcharArrayOID),
	"bytea":       uint32(pgtype.ByteaArrayOID),
	"timestamp":   uint32(pgtype.TimestampArrayOID),
	"timestamptz": uint32(pgtype.TimestamptzArrayOID),
}

// RegisterArrayHandlers adds a one-dimensional-or-more ArrayHandler to
// reg for every scalar handler reg already carries that has a
// well-known array counterpart OID. Call this once, right after
// handler.NewDefaultRegistry, to complete the registry's type catalog
// (handler itself never imports arraycodec, to avoid a cycle).
func RegisterArrayHandlers(reg *handler.Registry) error {
	for name, arrayOID := range arrayOIDFor {
		elem, ok := reg.ByName(name)
		if !ok {
			continue
		}
		ah, err := NewArrayHandler(elem, arrayOID, "_"+name)
		if err != nil {
			return err
		}
		reg.Register(ah, arrayOfAny, "_"+name)
	}
	return nil
}
