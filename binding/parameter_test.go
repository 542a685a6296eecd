package binding

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guileen/pgwirebind/handler"
)

func TestBindResolvesByHostType(t *testing.T) {
	reg := handler.NewDefaultRegistry()
	p, err := Bind(reg, "", "", int32(42), false)
	require.NoError(t, err)
	assert.Equal(t, "int4", p.Handler.PGName())
	assert.Equal(t, handler.FormatBinary, p.FormatCode)
	assert.Equal(t, int32(4), p.BoundSize)
	assert.False(t, p.IsNull)
}

func TestBindResolvesByDeclaredPGType(t *testing.T) {
	reg := handler.NewDefaultRegistry()
	// A string value explicitly declared as text still resolves to the
	// text handler even though byte slices also exist in the registry.
	p, err := Bind(reg, "text", "", "hello", false)
	require.NoError(t, err)
	assert.Equal(t, "text", p.Handler.PGName())
	assert.Equal(t, int32(5), p.BoundSize)
}

func TestBindNullHasBoundSizeNegativeOne(t *testing.T) {
	reg := handler.NewDefaultRegistry()
	p, err := Bind(reg, "int4", "", nil, false)
	require.NoError(t, err)
	assert.True(t, p.IsNull)
	assert.Equal(t, int32(-1), p.BoundSize)
}

func TestBindUnrecognizedHostTypeFailsSizing(t *testing.T) {
	reg := handler.NewDefaultRegistry()
	type weird struct{ X int }
	// The registry's ByHostType always resolves to the unrecognized
	// fallback when nothing more specific matches, but that fallback's
	// ValidateAndGetLength only accepts a string, so sizing fails.
	_, err := Bind(reg, "", "", weird{X: 1}, false)
	require.Error(t, err)
}

func TestBindFormatCodeFallsBackToTextForUnrecognized(t *testing.T) {
	reg := handler.NewDefaultRegistry()
	p, err := Bind(reg, "", "", "anything not otherwise registered", false)
	require.NoError(t, err)
	assert.Equal(t, "unrecognized", p.Handler.PGName())
	assert.Equal(t, handler.FormatText, p.FormatCode)
}

// TestBindGivesEachByteaParameterItsOwnCursor guards against two
// concurrent binds of the same handler type racing on a shared cursor
// (§3 invariant i): both Parameters resolve to the same registered
// bytea Handler, but their ChunkingWriters must be distinct instances.
func TestBindGivesEachByteaParameterItsOwnCursor(t *testing.T) {
	reg := handler.NewDefaultRegistry()

	p1, err := Bind(reg, "", "", []byte{1, 2, 3}, false)
	require.NoError(t, err)
	p2, err := Bind(reg, "", "", []byte{9, 9, 9, 9, 9}, false)
	require.NoError(t, err)

	require.NotNil(t, p1.ChunkingWriter)
	require.NotNil(t, p2.ChunkingWriter)
	assert.NotSame(t, p1.ChunkingWriter, p2.ChunkingWriter)
	assert.Same(t, p1.Handler, p2.Handler, "both parameters still resolve to the one registered bytea Handler")
}
