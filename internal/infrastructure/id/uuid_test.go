package id

import (
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestUUIDGenerator(t *testing.T) {
	raw := NewUUIDGenerator().NewID()
	if _, err := uuid.Parse(raw); err != nil {
		t.Fatalf("not a uuid: %q", raw)
	}

	g := NewPrefixedGenerator("pi_")
	a, b := g.NewID(), g.NewID()
	if !strings.HasPrefix(a, "pi_") || strings.Contains(a, "-") || len(a) != 3+32 {
		t.Fatalf("unexpected id %q", a)
	}
	if a == b {
		t.Fatalf("ids must differ")
	}
}
