package oauthstate

import (
	"strings"
	"testing"
	"time"

	"social-publisher/domain/apperror"
	"social-publisher/domain/model"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSigner(t *testing.T, now time.Time) *Signer {
	t.Helper()
	s, err := NewSigner("state-secret", 10*time.Minute)
	require.NoError(t, err)
	s.now = func() time.Time { return now }
	return s
}

func TestIssueVerify_RoundTrip(t *testing.T) {
	now := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	s := newTestSigner(t, now)

	token, issued, err := s.Issue(model.AuthorizationState{
		UserID:       "user-1",
		Platform:     "twitter",
		RedirectURI:  "https://app.example.com/auth/twitter/callback",
		CodeVerifier: "verifier",
	})
	require.NoError(t, err)
	assert.Len(t, issued.Nonce, 32)
	assert.Equal(t, "verifier", issued.CodeVerifier)
	assert.Equal(t, now.Add(10*time.Minute), issued.ExpiresAt)

	got, err := s.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, issued.Nonce, got.Nonce)
	assert.Equal(t, "user-1", got.UserID)
	assert.Equal(t, "twitter", got.Platform)
	assert.Equal(t, "https://app.example.com/auth/twitter/callback", got.RedirectURI)
	assert.Empty(t, got.CodeVerifier, "the verifier never travels in the token")
	assert.NotContains(t, token, "verifier")
	assert.Equal(t, issued.ExpiresAt, got.ExpiresAt)
}

func TestIssue_UniqueNonces(t *testing.T) {
	s := newTestSigner(t, time.Now().UTC())
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		_, st, err := s.Issue(model.AuthorizationState{UserID: "u", Platform: "linkedin"})
		require.NoError(t, err)
		require.False(t, seen[st.Nonce], "nonce reused")
		seen[st.Nonce] = true
	}
}

func TestVerify_Rejects(t *testing.T) {
	now := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	s := newTestSigner(t, now)
	token, _, err := s.Issue(model.AuthorizationState{UserID: "u", Platform: "linkedin"})
	require.NoError(t, err)

	t.Run("tampered", func(t *testing.T) {
		parts := strings.Split(token, ".")
		require.Len(t, parts, 3)
		parts[2] = strings.Repeat("A", len(parts[2]))
		_, err := s.Verify(strings.Join(parts, "."))
		assert.True(t, apperror.Is(err, apperror.KindValidation))
	})
	t.Run("other secret", func(t *testing.T) {
		other, err := NewSigner("another-secret", time.Minute)
		require.NoError(t, err)
		_, err = other.Verify(token)
		assert.True(t, apperror.Is(err, apperror.KindValidation))
	})
	t.Run("expired", func(t *testing.T) {
		s.now = func() time.Time { return now.Add(11 * time.Minute) }
		defer func() { s.now = func() time.Time { return now } }()
		_, err := s.Verify(token)
		assert.True(t, apperror.Is(err, apperror.KindValidation))
		assert.Contains(t, err.Error(), "expired")
	})
	t.Run("empty", func(t *testing.T) {
		_, err := s.Verify("  ")
		assert.True(t, apperror.Is(err, apperror.KindValidation))
	})
	t.Run("wrong algorithm", func(t *testing.T) {
		unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims{
			RegisteredClaims: jwt.RegisteredClaims{ID: "n", Issuer: issuer, ExpiresAt: jwt.NewNumericDate(now.Add(time.Minute))},
			Platform:         "linkedin",
		}).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, err = s.Verify(unsigned)
		assert.True(t, apperror.Is(err, apperror.KindValidation))
	})
	t.Run("foreign issuer", func(t *testing.T) {
		foreign, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
			RegisteredClaims: jwt.RegisteredClaims{ID: "n", Issuer: "someone-else", ExpiresAt: jwt.NewNumericDate(now.Add(time.Minute))},
			Platform:         "linkedin",
		}).SignedString(s.secret)
		require.NoError(t, err)
		_, err = s.Verify(foreign)
		assert.True(t, apperror.Is(err, apperror.KindValidation))
	})
}

func TestNewSigner_RequiresSecret(t *testing.T) {
	_, err := NewSigner(" ", time.Minute)
	assert.ErrorIs(t, err, ErrNoSecret)
}
