package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guileen/pgwirebind/errors"
)

func TestDefaultConfigIsValid(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())
}

func TestLoadConfigOverridesFromEnv(t *testing.T) {
	t.Setenv("PGWIREBIND_BUFFER_CAPACITY", "65536")
	t.Setenv("PGWIREBIND_UNKNOWN_TYPE_POLICY", "reject")
	t.Setenv("PGWIREBIND_STRICT_ASCII_IDENTIFIERS", "false")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 65536, cfg.BufferCapacity)
	assert.Equal(t, UnknownTypeReject, cfg.UnknownTypePolicy)
	assert.False(t, cfg.StrictASCIIIdentifiers)
}

func TestLoadConfigIgnoresGarbageEnvValues(t *testing.T) {
	t.Setenv("PGWIREBIND_BUFFER_CAPACITY", "not-a-number")
	t.Setenv("PGWIREBIND_UNKNOWN_TYPE_POLICY", "bogus")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().BufferCapacity, cfg.BufferCapacity)
	assert.Equal(t, DefaultConfig().UnknownTypePolicy, cfg.UnknownTypePolicy)
}

func TestValidateRejectsUndersizedBufferCapacityEagerly(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BufferCapacity = 4
	err := cfg.Validate()
	require.Error(t, err)
	assert.Equal(t, errors.CodeBufferTooSmall, errors.Code(err))
}
