package twitter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"

	"social-publisher/domain/apperror"
	"social-publisher/domain/model"
	"social-publisher/infrastructure/platforms"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func newTestPlatform(srv *httptest.Server) *Platform {
	return New(platforms.ClientConfig{
		ClientID:     "tw-id",
		ClientSecret: "tw-secret",
		TokenURL:     srv.URL + "/2/oauth2/token",
		RevokeURL:    srv.URL + "/2/oauth2/revoke",
		APIBaseURL:   srv.URL,
	}, srv.Client())
}

func TestAuthorizationURL_RequiresPKCE(t *testing.T) {
	p := New(platforms.ClientConfig{ClientID: "tw-id"}, nil)
	require.True(t, p.RequiresPKCE())

	_, err := p.AuthorizationURL("st", "https://app.example.com/cb", "")
	assert.True(t, apperror.Is(err, apperror.KindValidation))

	verifier := oauth2.GenerateVerifier()
	raw, err := p.AuthorizationURL("st", "https://app.example.com/cb", verifier)
	require.NoError(t, err)
	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, oauth2.S256ChallengeFromVerifier(verifier), u.Query().Get("code_challenge"))
	assert.Contains(t, u.Query().Get("scope"), "offline.access")
}

func TestExchange_BasicAuthWithVerifier(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "tw-id", user)
		assert.Equal(t, "tw-secret", pass)
		assert.Equal(t, "v-1", r.PostForm.Get("code_verifier"))
		fmt.Fprint(w, `{"token_type":"bearer","access_token":"at","refresh_token":"rt","expires_in":7200,"scope":"tweet.write"}`)
	}))
	defer srv.Close()

	tokens, err := newTestPlatform(srv).Exchange(context.Background(), "code", "https://app.example.com/cb", "v-1")
	require.NoError(t, err)
	assert.Equal(t, "rt", tokens.RefreshToken)
	assert.Equal(t, "tweet.write", tokens.Scopes)
}

func TestFetchProfile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/2/users/me", r.URL.Path)
		fmt.Fprint(w, `{"data":{"id":"2244994945","name":"","username":"XDevelopers"}}`)
	}))
	defer srv.Close()

	profile, err := newTestPlatform(srv).FetchProfile(context.Background(), "at")
	require.NoError(t, err)
	assert.Equal(t, "2244994945", profile.ID)
	assert.Equal(t, "@XDevelopers", profile.DisplayName)
	assert.Nil(t, profile.Email)
}

func TestPublish(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/2/tweets", r.URL.Path)
		assert.Equal(t, "Bearer at", r.Header.Get("Authorization"))
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Title\n\nbody", body["text"])
		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, `{"data":{"id":"1445880548472328192","text":"Title\n\nbody"}}`)
	}))
	defer srv.Close()

	id, err := newTestPlatform(srv).Publish(context.Background(), model.Credential{AccessToken: "at"},
		model.PublishContent{Title: "Title", Content: "body"})
	require.NoError(t, err)
	assert.Equal(t, "1445880548472328192", id)
}

func TestPublish_TooLong(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer srv.Close()

	_, err := newTestPlatform(srv).Publish(context.Background(), model.Credential{AccessToken: "at"},
		model.PublishContent{Content: strings.Repeat("a", 281)})
	assert.True(t, apperror.Is(err, apperror.KindPublish))
	assert.Zero(t, atomic.LoadInt32(&calls))
}

func TestPublish_Unauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"title":"Unauthorized","status":401}`)
	}))
	defer srv.Close()

	_, err := newTestPlatform(srv).Publish(context.Background(), model.Credential{AccessToken: "at"}, model.PublishContent{Content: "x"})
	assert.True(t, apperror.Is(err, apperror.KindAuthentication))
}

func TestRevoke(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		_, _, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "at", r.PostForm.Get("token"))
		fmt.Fprint(w, `{"revoked":true}`)
	}))
	defer srv.Close()

	require.NoError(t, newTestPlatform(srv).Revoke(context.Background(), "at"))
}
