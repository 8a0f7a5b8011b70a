package usertoken

import (
	"errors"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-signing-secret"

func signToken(t *testing.T, secret, subject string, expiresAt time.Time) string {
	t.Helper()
	claims := jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(expiresAt),
		IssuedAt:  jwt.NewNumericDate(time.Now().UTC()),
	}
	if subject != "" {
		claims.Subject = subject
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func TestVerifySubjectReturnsPhoneNumber(t *testing.T) {
	v, err := NewVerifier(Config{Secret: testSecret})
	if err != nil {
		t.Fatalf("new verifier: %v", err)
	}
	token := signToken(t, testSecret, "+5511999990000", time.Now().Add(time.Hour))
	subject, err := v.VerifySubject(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if subject != "+5511999990000" {
		t.Fatalf("unexpected subject: %q", subject)
	}
}

func TestVerifySubjectRejectsWrongSecret(t *testing.T) {
	v, err := NewVerifier(Config{Secret: testSecret})
	if err != nil {
		t.Fatalf("new verifier: %v", err)
	}
	token := signToken(t, "other-secret", "+5511999990000", time.Now().Add(time.Hour))
	if _, err := v.VerifySubject(token); err == nil {
		t.Fatal("expected signature validation error")
	}
}

func TestVerifySubjectRejectsExpiredToken(t *testing.T) {
	v, err := NewVerifier(Config{Secret: testSecret})
	if err != nil {
		t.Fatalf("new verifier: %v", err)
	}
	token := signToken(t, testSecret, "+5511999990000", time.Now().Add(-time.Hour))
	if _, err := v.VerifySubject(token); err == nil {
		t.Fatal("expected expiry validation error")
	}
}

func TestVerifySubjectRejectsMissingSubject(t *testing.T) {
	v, err := NewVerifier(Config{Secret: testSecret})
	if err != nil {
		t.Fatalf("new verifier: %v", err)
	}
	token := signToken(t, testSecret, "", time.Now().Add(time.Hour))
	if _, err := v.VerifySubject(token); !errors.Is(err, ErrNoSubject) {
		t.Fatalf("expected ErrNoSubject, got: %v", err)
	}
}

func TestVerifySubjectRejectsUnsignedAlg(t *testing.T) {
	v, err := NewVerifier(Config{Secret: testSecret})
	if err != nil {
		t.Fatalf("new verifier: %v", err)
	}
	token := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Subject:   "+5511999990000",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none token: %v", err)
	}
	if _, err := v.VerifySubject(signed); err == nil {
		t.Fatal("expected alg validation error")
	}
}

func TestNewVerifierRequiresSecret(t *testing.T) {
	if _, err := NewVerifier(Config{Secret: "   "}); err == nil {
		t.Fatal("expected constructor error for empty secret")
	}
}
