// Package id generates identifiers for stored entities.
package id

import (
	"strings"

	"github.com/google/uuid"
)

// UUIDGenerator returns random UUIDs, optionally compacted and prefixed.
type UUIDGenerator struct {
	prefix  string
	compact bool
}

func NewUUIDGenerator() *UUIDGenerator {
	return &UUIDGenerator{}
}

// NewPrefixedGenerator yields ids such as "pi_3f2a9c..." (dashes removed).
func NewPrefixedGenerator(prefix string) *UUIDGenerator {
	return &UUIDGenerator{prefix: prefix, compact: true}
}

func (g *UUIDGenerator) NewID() string {
	s := uuid.NewString()
	if g.compact {
		s = strings.ReplaceAll(s, "-", "")
	}
	return g.prefix + s
}
