package auth

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"rental-location/internal/models"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrMissingToken = errors.New("authorization header is missing")
	ErrInvalidToken = errors.New("invalid token")
)

// ExtractTokenFromRequest extracts a JWT token from an HTTP request's Authorization header
func ExtractTokenFromRequest(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", ErrMissingToken
	}

	// Bearer token format: "Bearer {token}"
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", errors.New("authorization header format must be 'Bearer {token}'")
	}

	return parts[1], nil
}

type editorClaims struct {
	Email     string `json:"email,omitempty"`
	Anonymous bool   `json:"anon"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies the HS256 tokens handed out by anonymous sign-in
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}
	return &TokenIssuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// IssueAnonymous creates a session for a new anonymous editor
func (i *TokenIssuer) IssueAnonymous() (models.AnonymousSession, error) {
	now := i.now()
	editorID := uuid.New().String()
	expires := now.Add(i.ttl)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, editorClaims{
		Anonymous: true,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   editorID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	})
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return models.AnonymousSession{}, fmt.Errorf("failed to sign token: %w", err)
	}

	return models.AnonymousSession{
		Token:     signed,
		EditorID:  editorID,
		ExpiresAt: expires.Unix(),
	}, nil
}

// IssueEditor signs a token for a known editor, e.g. a site manager account
// provisioned outside the identity provider.
func (i *TokenIssuer) IssueEditor(editor models.Editor) (string, error) {
	if editor.ID == "" {
		return "", errors.New("editor id is required")
	}
	now := i.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, editorClaims{
		Email:     editor.Email,
		Anonymous: editor.Anonymous,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   editor.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	})
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// MatchesSecret compares a presented editor secret in constant time. An empty
// configured secret never matches.
func MatchesSecret(configured, presented string) bool {
	if configured == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(configured), []byte(presented)) == 1
}

// Verify parses a token signed by this issuer
func (i *TokenIssuer) Verify(tokenString string) (models.Editor, error) {
	var claims editorClaims
	_, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (interface{}, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return models.Editor{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return models.Editor{}, fmt.Errorf("%w: subject claim not found in token", ErrInvalidToken)
	}

	return models.Editor{
		ID:        claims.Subject,
		Email:     claims.Email,
		Anonymous: claims.Anonymous,
	}, nil
}
