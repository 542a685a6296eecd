// Package config loads the codec core's runtime configuration (§10.3),
// following logger.LoadConfig's env-var-with-fallback style.
package config

import (
	"os"
	"strconv"

	"github.com/guileen/pgwirebind/errors"
)

// UnknownTypePolicy controls what happens when the registry is asked
// to resolve a host value or OID it has no handler for.
type UnknownTypePolicy string

const (
	// UnknownTypeFallbackText routes unrecognized types through the
	// text-only fallback handler (§4.2's "unrecognized handler").
	UnknownTypeFallbackText UnknownTypePolicy = "fallback_text"
	// UnknownTypeReject refuses to bind unrecognized types outright.
	UnknownTypeReject UnknownTypePolicy = "reject"
)

// minimalBindHeaderSize is the smallest possible Bind header: an
// unnamed portal and statement, zero parameters, zero compressed
// format codes — 4 (length) + 1 (portal NUL) + 1 (statement NUL) + 2
// (format count) + 2 (param count), plus the leading type byte.
const minimalBindHeaderSize = 1 + 4 + 1 + 1 + 2 + 2

// Config holds the codec core's tunables.
type Config struct {
	// BufferCapacity is the fixed capacity every buffer.ByteBuffer is
	// allocated with. Defaults to 8 KiB.
	BufferCapacity int
	// UnknownTypePolicy controls unrecognized-type handling.
	UnknownTypePolicy UnknownTypePolicy
	// StrictASCIIIdentifiers rejects non-ASCII portal/statement names
	// at bind time instead of relying solely on PutCString's own check.
	StrictASCIIIdentifiers bool
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		BufferCapacity:         8 * 1024,
		UnknownTypePolicy:      UnknownTypeFallbackText,
		StrictASCIIIdentifiers: true,
	}
}

// LoadConfig loads configuration from environment variables, falling
// back to DefaultConfig for anything unset or unparsable.
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()

	if v := os.Getenv("PGWIREBIND_BUFFER_CAPACITY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.BufferCapacity = n
		}
	}

	if v := os.Getenv("PGWIREBIND_UNKNOWN_TYPE_POLICY"); v != "" {
		switch UnknownTypePolicy(v) {
		case UnknownTypeFallbackText, UnknownTypeReject:
			cfg.UnknownTypePolicy = UnknownTypePolicy(v)
		}
	}

	if v := os.Getenv("PGWIREBIND_STRICT_ASCII_IDENTIFIERS"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.StrictASCIIIdentifiers = b
		}
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate raises BufferTooSmall eagerly, at configuration time,
// rather than waiting for the first Bind message to fail (§10.3).
func (c Config) Validate() error {
	if c.BufferCapacity < minimalBindHeaderSize {
		return errors.BufferTooSmall("config.Validate", c.BufferCapacity, minimalBindHeaderSize)
	}
	return nil
}
