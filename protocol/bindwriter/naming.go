package bindwriter

import "github.com/google/uuid"

// NameGenerator produces a short unique suffix for auto-generated
// portal/statement names, so callers running many concurrent prepared
// statements over one connection don't have to hand-roll
// collision-free names themselves (§4.4).
type NameGenerator interface {
	NextSuffix() string
}

// UUIDNameGenerator backs NameGenerator with google/uuid.
type UUIDNameGenerator struct{}

func (UUIDNameGenerator) NextSuffix() string {
	return uuid.NewString()
}

// ResolveName returns name unchanged unless auto is true, in which
// case it ignores name and composes prefix+gen.NextSuffix(). Passing
// name == "" with auto == false yields the unnamed portal/statement;
// auto-naming never triggers implicitly just because name is empty —
// the caller must opt in explicitly via auto.
func ResolveName(prefix, name string, auto bool, gen NameGenerator) string {
	if !auto {
		return name
	}
	return prefix + gen.NextSuffix()
}
