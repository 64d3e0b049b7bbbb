package security

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/iconzrus/marketplace-helper/backend/src/logger"
)

func newTestAuth(t *testing.T) *AuthService {
	t.Helper()
	logger.InitLogger("error")
	svc, err := NewAuthService("operator", "secret-pass", "test-jwt-secret", time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	return svc
}

func TestLoginAndValidate(t *testing.T) {
	svc := newTestAuth(t)

	token, err := svc.Login("operator", "secret-pass")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	username, err := svc.ValidateToken(token)
	if err != nil {
		t.Fatalf("token rejected: %v", err)
	}
	if username != "operator" {
		t.Errorf("username = %q, want operator", username)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc := newTestAuth(t)
	if _, err := svc.Login("operator", "wrong"); err != ErrInvalidCredentials {
		t.Errorf("wrong password: err = %v, want ErrInvalidCredentials", err)
	}
	if _, err := svc.Login("intruder", "secret-pass"); err != ErrInvalidCredentials {
		t.Errorf("wrong username: err = %v, want ErrInvalidCredentials", err)
	}
}

func TestValidateRejectsGarbage(t *testing.T) {
	svc := newTestAuth(t)
	if _, err := svc.ValidateToken("not-a-token"); err != ErrInvalidToken {
		t.Errorf("garbage token: err = %v, want ErrInvalidToken", err)
	}
}

func TestLogoutRevokesToken(t *testing.T) {
	svc := newTestAuth(t)
	token, err := svc.Login("operator", "secret-pass")
	if err != nil {
		t.Fatal(err)
	}
	svc.Logout(token)
	if _, err := svc.ValidateToken(token); err != ErrInvalidToken {
		t.Errorf("revoked token still accepted, err = %v", err)
	}
}

func TestLogoutIgnoresUnsignedToken(t *testing.T) {
	svc := newTestAuth(t)
	token, err := svc.Login("operator", "secret-pass")
	if err != nil {
		t.Fatal(err)
	}

	claims := &sessionClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		t.Fatal(err)
	}
	forged, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatal(err)
	}

	svc.Logout(forged)
	if _, err := svc.ValidateToken(token); err != nil {
		t.Errorf("unsigned token revoked a live session, err = %v", err)
	}
}

func TestTokensFromOtherSecretRejected(t *testing.T) {
	svc := newTestAuth(t)
	other, err := NewAuthService("operator", "secret-pass", "different-secret", time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	token, err := other.Login("operator", "secret-pass")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.ValidateToken(token); err != ErrInvalidToken {
		t.Errorf("foreign token accepted, err = %v", err)
	}
}
