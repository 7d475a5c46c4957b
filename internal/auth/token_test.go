package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestIssueAndVerifyToken(t *testing.T) {
	t.Setenv(secretEnvVariable, "test-secret")
	ResetSecretForTests()

	token, err := IssueToken("codisecadm", []string{"page:agenda", "page:eventos", "page:agenda"}, time.Hour)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}

	claims, err := VerifyToken(token)
	if err != nil {
		t.Fatalf("VerifyToken: %v", err)
	}
	if claims.Subject != "codisecadm" {
		t.Fatalf("unexpected subject: %s", claims.Subject)
	}
	if len(claims.Permissions) != 2 {
		t.Fatalf("expected deduplicated permissions, got %v", claims.Permissions)
	}
	if !claims.HasPermission("page:eventos") {
		t.Fatalf("expected page:eventos grant")
	}
	if claims.HasPermission("page:users") {
		t.Fatalf("unexpected page:users grant")
	}
}

func TestVerifyTokenRejectsTampering(t *testing.T) {
	t.Setenv(secretEnvVariable, "test-secret")
	ResetSecretForTests()

	token, err := IssueToken("codisecadm", []string{"page:agenda"}, time.Hour)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}

	tampered := token[:len(token)-2] + "xx"
	if _, err := VerifyToken(tampered); err == nil {
		t.Fatalf("expected tampered token to fail verification")
	}
}

func TestVerifyTokenRejectsExpired(t *testing.T) {
	t.Setenv(secretEnvVariable, "test-secret")
	ResetSecretForTests()

	past := time.Now().UTC().Add(-2 * time.Hour)
	claims := Claims{
		Permissions: []string{"page:agenda"},
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   "codisecadm",
			IssuedAt:  jwt.NewNumericDate(past),
			ExpiresAt: jwt.NewNumericDate(past.Add(time.Hour)),
			ID:        "expired",
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := VerifyToken(token); err == nil {
		t.Fatalf("expected expired token to fail verification")
	}
}

func TestVerifyTokenRejectsWrongSecret(t *testing.T) {
	t.Setenv(secretEnvVariable, "first-secret")
	ResetSecretForTests()

	token, err := IssueToken("codisecadm", []string{"page:agenda"}, time.Hour)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}

	t.Setenv(secretEnvVariable, "second-secret")
	ResetSecretForTests()

	if _, err := VerifyToken(token); err == nil {
		t.Fatalf("expected verification to fail with a rotated secret")
	}
}

func TestIssueTokenRequiresSecret(t *testing.T) {
	t.Setenv(secretEnvVariable, "")
	ResetSecretForTests()

	if _, err := IssueToken("codisecadm", nil, time.Hour); err == nil {
		t.Fatalf("expected error without configured secret")
	}
}

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := HashPassword("clave12345")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if hash == "clave12345" {
		t.Fatalf("hash must not equal the plaintext")
	}
	if err := VerifyPassword(hash, "clave12345"); err != nil {
		t.Fatalf("VerifyPassword: %v", err)
	}
	if err := VerifyPassword(hash, "otra"); err == nil {
		t.Fatalf("expected mismatch error")
	}
}
