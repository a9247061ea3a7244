package logging

import (
	"strings"
	"testing"
)

// Run with: go test ./internal/logging -fuzz=FuzzMaskURL -fuzztime=30s
func FuzzMaskURL(f *testing.F) {
	for _, seed := range []string{
		"https://hooks.example.com/sync?token=secret123",
		"postgres://driver:hunter2@db:5432/app",
		"http://localhost:8080",
		"not-a-url",
		"",
	} {
		f.Add(seed)
	}

	f.Fuzz(func(t *testing.T, input string) {
		if masked := MaskURL(input); input != "" && masked == "" {
			t.Fatalf("MaskURL(%q) returned nothing", input)
		}
	})
}

// Run with: go test ./internal/logging -fuzz=FuzzMaskValue -fuzztime=30s
func FuzzMaskValue(f *testing.F) {
	for _, seed := range []string{"secret123", "a", "", string(make([]byte, 4096))} {
		f.Add(seed)
	}

	f.Fuzz(func(t *testing.T, input string) {
		masked := MaskValue(input)
		if len(masked) > 8 {
			t.Fatalf("MaskValue leaked length: %d", len(masked))
		}
		if input != "" && strings.Trim(masked, MaskChar) != "" {
			t.Fatalf("MaskValue(%q) = %q", input, masked)
		}
	})
}
