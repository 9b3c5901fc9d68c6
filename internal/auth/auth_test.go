package auth

import (
	"net/http"
	"net/http/httptest"
	"rental-location/internal/models"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractTokenFromRequest(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	_, err := ExtractTokenFromRequest(r)
	assert.ErrorIs(t, err, ErrMissingToken)

	r.Header.Set("Authorization", "Token abc")
	_, err = ExtractTokenFromRequest(r)
	assert.Error(t, err)

	r.Header.Set("Authorization", "Bearer abc")
	token, err := ExtractTokenFromRequest(r)
	require.NoError(t, err)
	assert.Equal(t, "abc", token)
}

func TestIssueAndVerifyAnonymous(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Hour)

	session, err := issuer.IssueAnonymous()
	require.NoError(t, err)
	assert.NotEmpty(t, session.EditorID)

	editor, err := issuer.Verify(session.Token)
	require.NoError(t, err)
	assert.Equal(t, session.EditorID, editor.ID)
	assert.True(t, editor.Anonymous)
	assert.Empty(t, editor.Email)
}

func TestVerifyRejectsForeignAndExpiredTokens(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Hour)
	other := NewTokenIssuer("other-secret", time.Hour)

	session, err := other.IssueAnonymous()
	require.NoError(t, err)
	_, err = issuer.Verify(session.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	session, err = issuer.IssueAnonymous()
	require.NoError(t, err)
	issuer.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = issuer.Verify(session.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	// Test case: unsigned tokens are refused
	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "x"})
	raw, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = issuer.Verify(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestMiddleware(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Hour)
	var seen []string
	handler := Middleware(issuer)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, EditorFromContext(r.Context()).ID)
		w.WriteHeader(http.StatusNoContent)
	}))

	// Test case: no token continues as anonymous
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	// Test case: valid token carries the editor
	session, err := issuer.IssueAnonymous()
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+session.Token)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	// Test case: invalid token is rejected
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	assert.Equal(t, []string{"anonymous", session.EditorID}, seen)
}

func TestEditorFromEmptyContext(t *testing.T) {
	editor := EditorFromContext(httptest.NewRequest(http.MethodGet, "/", nil).Context())
	assert.True(t, editor.Anonymous)
	assert.Equal(t, "anonymous", editor.ID)
}

func TestIssueEditor(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Hour)

	_, err := issuer.IssueEditor(models.Editor{})
	assert.Error(t, err)

	token, err := issuer.IssueEditor(models.Editor{ID: "manager", Email: "m@site.example.com"})
	require.NoError(t, err)

	editor, err := issuer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "manager", editor.ID)
	assert.Equal(t, "m@site.example.com", editor.Email)
	assert.False(t, editor.Anonymous)
}

func TestMatchesSecret(t *testing.T) {
	assert.True(t, MatchesSecret("site-office", "site-office"))
	assert.False(t, MatchesSecret("site-office", "site-offic"))
	assert.False(t, MatchesSecret("", ""), "an unset secret never matches")
}
