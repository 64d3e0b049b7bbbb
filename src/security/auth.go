package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"golang.org/x/crypto/bcrypt"

	"github.com/iconzrus/marketplace-helper/backend/src/logger"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

// AuthService implements the single-operator login: one configured account,
// bearer tokens signed with HS256, and a session registry so logout actually
// revokes a token before it expires.
type AuthService struct {
	username     string
	passwordHash []byte
	jwtSecret    []byte
	tokenExpiry  time.Duration
	sessions     *cache.Cache
}

type sessionClaims struct {
	Username  string `json:"username"`
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

func NewAuthService(username, password, jwtSecret string, tokenExpiry time.Duration) (*AuthService, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing configured password: %w", err)
	}
	return &AuthService{
		username:     username,
		passwordHash: hash,
		jwtSecret:    []byte(jwtSecret),
		tokenExpiry:  tokenExpiry,
		sessions:     cache.New(tokenExpiry, 10*time.Minute),
	}, nil
}

// Login checks the credentials and returns a signed token.
func (s *AuthService) Login(username, password string) (string, error) {
	if username != s.username {
		return "", ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(s.passwordHash, []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	sessionID := uuid.NewString()
	now := time.Now()
	claims := sessionClaims{
		Username:  username,
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenExpiry)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}

	s.sessions.Set(sessionID, username, s.tokenExpiry)
	logger.L.Info("user logged in", "username", username)
	return token, nil
}

// ValidateToken parses the token and checks the session is still active.
func (s *AuthService) ValidateToken(tokenString string) (string, error) {
	claims := &sessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}
	if _, active := s.sessions.Get(claims.SessionID); !active {
		return "", ErrInvalidToken
	}
	return claims.Username, nil
}

// Logout revokes the session carried by the token. Revoking an already
// invalid token is not an error.
func (s *AuthService) Logout(tokenString string) {
	claims := &sessionClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err == nil && claims.SessionID != "" {
		s.sessions.Delete(claims.SessionID)
		logger.L.Info("user logged out", "username", claims.Username)
	}
}
