package token

import (
	"errors"
	"testing"
	"time"
)

// FuzzParseAccess asserts that arbitrary input is always rejected as a
// value, never with a panic, and that the only accepted strings are tokens
// the manager itself signed.
func FuzzParseAccess(f *testing.F) {
	m, err := NewManager(testFuzzConfig(f))
	if err != nil {
		f.Fatalf("NewManager failed: %v", err)
	}

	valid, err := m.CreateAccess(Payload{UserID: "u-1", Email: "a@example.com", Role: "user"})
	if err != nil {
		f.Fatalf("CreateAccess failed: %v", err)
	}

	f.Add("")
	f.Add("a.b.c")
	f.Add(valid)
	f.Add(valid + "x")
	f.Add("eyJhbGciOiJub25lIn0.eyJzdWIiOiJ1LTEifQ.")

	f.Fuzz(func(t *testing.T, input string) {
		claims, err := m.ParseAccess(input)
		if err != nil {
			if !errors.Is(err, ErrMalformed) && !errors.Is(err, ErrExpired) {
				t.Fatalf("error outside taxonomy: %v", err)
			}
			return
		}
		if claims.Subject != "u-1" {
			t.Fatalf("accepted token with foreign subject %q", claims.Subject)
		}
	})
}

func testFuzzConfig(f *testing.F) Config {
	f.Helper()

	cfg := Config{
		Access: DomainConfig{
			SigningMethod: MethodHS256,
			PrivateKey:    []byte("fuzz-access-secret-32-bytes-long"),
			TTL:           time.Hour,
		},
		Refresh: DomainConfig{
			SigningMethod: MethodHS256,
			PrivateKey:    []byte("fuzz-refresh-secret-32-bytes-lng"),
			TTL:           2 * time.Hour,
		},
	}
	return cfg
}
