package jwt

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"os"
	"strings"
	"testing"
	"time"

	gojwt "github.com/golang-jwt/jwt/v4"
)

// ============================================================================
// Test Helpers
// ============================================================================

func newTestService(t *testing.T) *Service {
	t.Helper()
	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("failed to generate RSA key: %v", err)
	}
	return NewTestService(privateKey, "test-issuer", 15*time.Minute)
}

func writeFile(path string, data []byte) error {
	return os.WriteFile(path, data, 0644)
}

// ============================================================================
// Sign Tests
// ============================================================================

func TestSign_SetsStandardClaims(t *testing.T) {
	t.Parallel()
	svc := newTestService(t)

	token, err := svc.Sign("user:123", "Ana")
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}
	if len(strings.Split(token, ".")) != 3 {
		t.Fatalf("expected three token segments, got %q", token)
	}

	claims, err := svc.Validate(token)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if claims.UserID() != "user:123" || claims.Name != "Ana" {
		t.Errorf("unexpected claims %+v", claims)
	}
	if claims.Issuer != "test-issuer" {
		t.Errorf("expected issuer test-issuer, got %s", claims.Issuer)
	}
	if claims.IssuedAt == nil || claims.ExpiresAt == nil {
		t.Fatal("expected iat and exp to be set")
	}
	lifetime := claims.ExpiresAt.Sub(claims.IssuedAt.Time)
	if lifetime != 15*time.Minute {
		t.Errorf("expected 15m lifetime, got %s", lifetime)
	}
}

func TestSign_NilPrivateKey_ReturnsErrInvalidKey(t *testing.T) {
	t.Parallel()
	svc := &Service{issuer: "test-issuer"}

	if _, err := svc.Sign("user:123", ""); err != ErrInvalidKey {
		t.Errorf("expected ErrInvalidKey, got %v", err)
	}
}

func TestSignClaims_PreservesCustomExpiration(t *testing.T) {
	t.Parallel()
	svc := newTestService(t)
	exp := time.Now().Add(3 * time.Hour).Truncate(time.Second)

	token, err := svc.SignClaims(Claims{RegisteredClaims: gojwt.RegisteredClaims{
		Subject:   "user:123",
		ExpiresAt: gojwt.NewNumericDate(exp),
	}})
	if err != nil {
		t.Fatalf("SignClaims failed: %v", err)
	}

	claims, err := svc.Validate(token)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if !claims.ExpiresAt.Time.Equal(exp) {
		t.Errorf("expected exp %s, got %s", exp, claims.ExpiresAt.Time)
	}
}

// ============================================================================
// Validate Tests
// ============================================================================

func TestValidate_NilPublicKey_ReturnsErrInvalidKey(t *testing.T) {
	t.Parallel()
	svc := &Service{}

	if _, err := svc.Validate("a.b.c"); err != ErrInvalidKey {
		t.Errorf("expected ErrInvalidKey, got %v", err)
	}
}

func TestValidate_Malformed_ReturnsErrInvalidToken(t *testing.T) {
	t.Parallel()
	svc := newTestService(t)

	for _, token := range []string{"", "a", "a.b", "a.b.c.d", "not.a.token"} {
		if _, err := svc.Validate(token); err != ErrInvalidToken {
			t.Errorf("%q: expected ErrInvalidToken, got %v", token, err)
		}
	}
}

func TestValidate_InvalidSignature_ReturnsErrInvalidSignature(t *testing.T) {
	t.Parallel()
	svc := newTestService(t)

	token, err := svc.Sign("user:123", "")
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}

	parts := strings.Split(token, ".")
	wrongSig := base64.RawURLEncoding.EncodeToString([]byte("this is not a valid signature but is valid base64"))
	tampered := parts[0] + "." + parts[1] + "." + wrongSig

	if _, err := svc.Validate(tampered); err != ErrInvalidSignature {
		t.Errorf("expected ErrInvalidSignature, got %v", err)
	}
}

func TestValidate_TamperedClaims_ReturnsErrInvalidSignature(t *testing.T) {
	t.Parallel()
	svc := newTestService(t)

	token, err := svc.Sign("user:123", "")
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}

	parts := strings.Split(token, ".")
	forged := base64.RawURLEncoding.EncodeToString([]byte(`{"sub":"user:hacker","iss":"test-issuer"}`))
	tampered := parts[0] + "." + forged + "." + parts[2]

	if _, err := svc.Validate(tampered); err != ErrInvalidSignature {
		t.Errorf("expected ErrInvalidSignature, got %v", err)
	}
}

func TestValidate_DifferentKey_ReturnsErrInvalidSignature(t *testing.T) {
	t.Parallel()
	signer := newTestService(t)
	verifier := newTestService(t)

	token, err := signer.Sign("user:123", "")
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}
	if _, err := verifier.Validate(token); err != ErrInvalidSignature {
		t.Errorf("expected ErrInvalidSignature, got %v", err)
	}
}

func TestValidate_ExpiredToken_ReturnsErrTokenExpired(t *testing.T) {
	t.Parallel()
	svc := newTestService(t)

	token, err := svc.SignClaims(Claims{RegisteredClaims: gojwt.RegisteredClaims{
		Subject:   "user:123",
		ExpiresAt: gojwt.NewNumericDate(time.Now().Add(-time.Hour)),
	}})
	if err != nil {
		t.Fatalf("SignClaims failed: %v", err)
	}
	if _, err := svc.Validate(token); err != ErrTokenExpired {
		t.Errorf("expected ErrTokenExpired, got %v", err)
	}
}

func TestValidate_WrongIssuer_ReturnsErrInvalidToken(t *testing.T) {
	t.Parallel()
	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("failed to generate RSA key: %v", err)
	}
	issuerA := NewTestService(privateKey, "issuer-a", time.Hour)
	issuerB := NewTestService(privateKey, "issuer-b", time.Hour)

	token, err := issuerA.Sign("user:123", "")
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}
	if _, err := issuerB.Validate(token); err != ErrInvalidToken {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}

func TestValidate_MissingSubject_ReturnsErrInvalidToken(t *testing.T) {
	t.Parallel()
	svc := newTestService(t)

	token, err := svc.Sign("", "nobody")
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}
	if _, err := svc.Validate(token); err != ErrInvalidToken {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}

func TestValidate_HMACToken_Rejected(t *testing.T) {
	t.Parallel()
	svc := newTestService(t)

	hs := gojwt.NewWithClaims(gojwt.SigningMethodHS256, gojwt.RegisteredClaims{Subject: "user:123", Issuer: "test-issuer"})
	token, err := hs.SignedString([]byte("shared-secret"))
	if err != nil {
		t.Fatalf("failed to sign HS256 token: %v", err)
	}
	if _, err := svc.Validate(token); err == nil {
		t.Error("expected HS256 token to be rejected")
	}
}

// ============================================================================
// Key loading
// ============================================================================

func TestGenerateKeyPair_LoadsForSigningAndVerifying(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	privatePath := dir + "/private.pem"
	publicPath := dir + "/public.pem"

	if err := GenerateKeyPair(privatePath, publicPath); err != nil {
		t.Fatalf("GenerateKeyPair failed: %v", err)
	}

	signer, err := NewService(Config{PrivateKeyPath: privatePath, Issuer: "test", ExpirationMins: 15})
	if err != nil {
		t.Fatalf("failed to load private key: %v", err)
	}
	verifier, err := NewService(Config{PublicKeyPath: publicPath, Issuer: "test", ExpirationMins: 15})
	if err != nil {
		t.Fatalf("failed to load public key: %v", err)
	}

	token, err := signer.Sign("user:123", "")
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}
	claims, err := verifier.Validate(token)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if claims.UserID() != "user:123" {
		t.Errorf("expected user:123, got %s", claims.UserID())
	}

	if _, err := verifier.Sign("user:123", ""); err != ErrInvalidKey {
		t.Errorf("expected verify-only service to refuse signing, got %v", err)
	}
	if verifier.GetExpiration() != 15*time.Minute {
		t.Errorf("expected 15m expiration, got %s", verifier.GetExpiration())
	}
}

func TestNewService_NoKeys_ReturnsService(t *testing.T) {
	t.Parallel()

	svc, err := NewService(Config{Issuer: "test"})
	if err != nil || svc == nil {
		t.Fatalf("expected service, got %v, %v", svc, err)
	}
}

func TestNewService_MissingFiles_ReturnError(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	if _, err := NewService(Config{PrivateKeyPath: dir + "/missing.pem"}); err == nil {
		t.Error("expected error for missing private key")
	}
	if _, err := NewService(Config{PublicKeyPath: dir + "/missing.pem"}); err == nil {
		t.Error("expected error for missing public key")
	}
}

func TestNewService_InvalidPEM_ReturnsError(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := dir + "/garbage.pem"
	if err := writeFile(path, []byte("not a pem file")); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	if _, err := NewService(Config{PublicKeyPath: path}); err == nil {
		t.Error("expected error for invalid public key PEM")
	}
	if _, err := NewService(Config{PrivateKeyPath: path}); err == nil {
		t.Error("expected error for invalid private key PEM")
	}
}
