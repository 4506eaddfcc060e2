package linkedin

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"social-publisher/domain/apperror"
	"social-publisher/domain/model"
	"social-publisher/infrastructure/platforms"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPlatform(srv *httptest.Server) *Platform {
	return New(platforms.ClientConfig{
		ClientID:     "li-id",
		ClientSecret: "li-secret",
		RedirectURI:  "https://app.example.com/auth/linkedin/callback",
		TokenURL:     srv.URL + "/oauth/v2/accessToken",
		RevokeURL:    srv.URL + "/oauth/v2/revoke",
		APIBaseURL:   srv.URL,
	}, srv.Client())
}

func TestAuthorizationURL_NoPKCE(t *testing.T) {
	p := New(platforms.ClientConfig{ClientID: "li-id", ClientSecret: "li-secret"}, nil)
	assert.False(t, p.RequiresPKCE())

	raw, err := p.AuthorizationURL("st", "https://app.example.com/cb", "")
	require.NoError(t, err)
	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "www.linkedin.com", u.Host)
	assert.Empty(t, u.Query().Get("code_challenge"))
	assert.Equal(t, "r_liteprofile r_emailaddress w_member_social", u.Query().Get("scope"))
}

func TestExchangeAndProfile(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/v2/accessToken", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "li-secret", r.PostForm.Get("client_secret"))
		fmt.Fprint(w, `{"access_token":"at","expires_in":5184000}`)
	})
	mux.HandleFunc("/v2/me", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer at", r.Header.Get("Authorization"))
		fmt.Fprint(w, `{"id":"u1","localizedFirstName":"Ada"}`)
	})
	mux.HandleFunc("/v2/emailAddress", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"elements":[{"handle":"urn:li:emailAddress:1","handle~":{"emailAddress":"ada@example.com"}}]}`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()
	p := newTestPlatform(srv)

	tokens, err := p.Exchange(context.Background(), "code", p.RedirectURI(), "")
	require.NoError(t, err)
	assert.Equal(t, "at", tokens.AccessToken)

	profile, err := p.FetchProfile(context.Background(), tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "u1", profile.ID)
	assert.Equal(t, "Ada", profile.DisplayName)
	require.NotNil(t, profile.Email)
	assert.Equal(t, "ada@example.com", *profile.Email)
}

func TestFetchProfile_EmailOptional(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v2/me", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"id":"u1","localizedFirstName":"Ada","localizedLastName":"Lovelace"}`)
	})
	mux.HandleFunc("/v2/emailAddress", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	profile, err := newTestPlatform(srv).FetchProfile(context.Background(), "at")
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", profile.DisplayName)
	assert.Nil(t, profile.Email)
}

func TestFetchProfile_Failure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"message":"Invalid access token"}`)
	}))
	defer srv.Close()

	_, err := newTestPlatform(srv).FetchProfile(context.Background(), "bad")
	assert.True(t, apperror.Is(err, apperror.KindProfileFetch))
}

func TestPublish(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/ugcPosts", r.URL.Path)
		assert.Equal(t, "2.0.0", r.Header.Get("X-Restli-Protocol-Version"))
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "urn:li:person:u1", body["author"])
		assert.Equal(t, "PUBLISHED", body["lifecycleState"])
		visibility := body["visibility"].(map[string]any)
		assert.Equal(t, "PUBLIC", visibility["com.linkedin.ugc.MemberNetworkVisibility"])
		share := body["specificContent"].(map[string]any)["com.linkedin.ugc.ShareContent"].(map[string]any)
		assert.Equal(t, "Launch\n\nhello", share["shareCommentary"].(map[string]any)["text"])
		w.Header().Set("X-RestLi-Id", "urn:li:share:99")
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	id, err := newTestPlatform(srv).Publish(context.Background(),
		model.Credential{AccessToken: "at", ExternalAccountID: "u1"},
		model.PublishContent{Title: "Launch", Content: "hello"})
	require.NoError(t, err)
	assert.Equal(t, "urn:li:share:99", id)
}

func TestPublish_ResolvesAuthor(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v2/me", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"id":"u7"}`)
	})
	mux.HandleFunc("/v2/ugcPosts", func(w http.ResponseWriter, r *http.Request) {
		var body ugcPost
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "urn:li:person:u7", body.Author)
		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, `{"id":"urn:li:ugcPost:7"}`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	id, err := newTestPlatform(srv).Publish(context.Background(), model.Credential{AccessToken: "at"}, model.PublishContent{Content: "x"})
	require.NoError(t, err)
	assert.Equal(t, "urn:li:ugcPost:7", id)
}

func TestPublish_Rejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		fmt.Fprint(w, `{"message":"duplicate"}`)
	}))
	defer srv.Close()

	_, err := newTestPlatform(srv).Publish(context.Background(),
		model.Credential{AccessToken: "at", ExternalAccountID: "u1"}, model.PublishContent{Content: "x"})
	assert.True(t, apperror.Is(err, apperror.KindPublish))
	assert.Contains(t, err.Error(), "duplicate")
}

func TestRevoke(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "/oauth/v2/revoke", r.URL.Path)
		assert.Equal(t, "at", r.PostForm.Get("token"))
		assert.Equal(t, "li-id", r.PostForm.Get("client_id"))
	}))
	defer srv.Close()

	require.NoError(t, newTestPlatform(srv).Revoke(context.Background(), "at"))
}
