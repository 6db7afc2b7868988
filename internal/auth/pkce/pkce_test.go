package pkce

import (
	"strings"
	"testing"
)

func TestGenerate_VerifierShape(t *testing.T) {
	codes, err := Generate()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(codes.Verifier) != 43 {
		t.Fatalf("expected 43-char verifier, got %d", len(codes.Verifier))
	}
	const unreserved = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-._~"
	for _, r := range codes.Verifier {
		if !strings.ContainsRune(unreserved, r) {
			t.Fatalf("verifier contains reserved character %q", r)
		}
	}
	if strings.ContainsAny(codes.Challenge, "=+/") {
		t.Fatalf("challenge is not unpadded base64url: %s", codes.Challenge)
	}
}

func TestGenerate_VerifiersAreUnique(t *testing.T) {
	a, err := Generate()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	b, err := Generate()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if a.Verifier == b.Verifier {
		t.Fatal("two generated verifiers are identical")
	}
}

func TestChallenge_RFC7636Vector(t *testing.T) {
	// Appendix B of RFC 7636.
	verifier := "dBjftJeZ4CVP-mB92K27uhbUJU1p1r_wW1gFWFOEjXk"
	want := "E9Melhoa2OwvFrEMTJguCHaoeK1t8URWbuGJSstw-cM"
	if got := Challenge(verifier); got != want {
		t.Fatalf("expected %s, got %s", want, got)
	}
}

func TestChallenge_Deterministic(t *testing.T) {
	codes, err := Generate()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if Challenge(codes.Verifier) != codes.Challenge {
		t.Fatal("challenge is not deterministic for the same verifier")
	}
}
