package account

import (
	"errors"
	"testing"
)

func TestRegistrationValidate(t *testing.T) {
	tests := []struct {
		name string
		reg  Registration
		want error
	}{
		{"ok", Registration{Name: "Ana", Email: "ana@shop.test", Password: "pw"}, nil},
		{"no name", Registration{Email: "ana@shop.test", Password: "pw"}, ErrMissingFields},
		{"no password", Registration{Name: "Ana", Email: "ana@shop.test"}, ErrMissingFields},
		{"bad email", Registration{Name: "Ana", Email: "not-an-email", Password: "pw"}, ErrInvalidEmail},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.reg.Validate(); !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestNormalizeEmail(t *testing.T) {
	if got := NormalizeEmail("  Ana@Shop.TEST "); got != "ana@shop.test" {
		t.Fatalf("got %q", got)
	}
}
