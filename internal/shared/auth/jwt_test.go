package auth

import (
	"errors"
	"testing"
)

func TestSignVerifyRoundTrip(t *testing.T) {
	signer, err := NewSigner("test-secret")
	if err != nil {
		t.Fatalf("NewSigner: %v", err)
	}

	token, err := signer.Sign(Claims{Sub: "acct-1", Email: "ada@example.com", Name: "Ada Lovelace"})
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	claims, err := signer.Verify(token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.Sub != "acct-1" || claims.Email != "ada@example.com" || claims.Name != "Ada Lovelace" {
		t.Errorf("claims = %+v", claims)
	}
}

func TestSignRequiresSubject(t *testing.T) {
	signer, _ := NewSigner("test-secret")
	if _, err := signer.Sign(Claims{Email: "ada@example.com"}); err == nil {
		t.Fatal("empty sub accepted")
	}
}

func TestVerifyRejectsTamperedToken(t *testing.T) {
	signer, _ := NewSigner("test-secret")
	token, err := signer.Sign(Claims{Sub: "acct-1"})
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	if _, err := signer.Verify(token + "x"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("err = %v, want ErrInvalidToken", err)
	}
}

func TestVerifyRejectsForeignSecret(t *testing.T) {
	signer, _ := NewSigner("test-secret")
	other, _ := NewSigner("another-secret")

	token, err := other.Sign(Claims{Sub: "acct-1"})
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if _, err := signer.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("err = %v, want ErrInvalidToken", err)
	}
}

func TestNewSignerRequiresSecret(t *testing.T) {
	if _, err := NewSigner(""); err == nil {
		t.Fatal("empty secret accepted")
	}
}
