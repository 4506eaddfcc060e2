// Package platforms holds the shared OAuth2 and HTTP plumbing behind every
// platform adapter, and the static registry that maps a platform id to its adapter.
package platforms

import (
	"strings"

	"social-publisher/domain/repository"
)

// ClientConfig is the injected configuration of one platform adapter. Empty
// endpoint fields fall back to the adapter's production endpoints.
type ClientConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	Scopes       []string
	AuthURL      string
	TokenURL     string
	RevokeURL    string
	APIBaseURL   string
}

// WithDefaults fills every empty field from d.
func (c ClientConfig) WithDefaults(d ClientConfig) ClientConfig {
	if len(c.Scopes) == 0 {
		c.Scopes = append([]string(nil), d.Scopes...)
	}
	c.AuthURL = firstNonEmpty(c.AuthURL, d.AuthURL)
	c.TokenURL = firstNonEmpty(c.TokenURL, d.TokenURL)
	c.RevokeURL = firstNonEmpty(c.RevokeURL, d.RevokeURL)
	c.APIBaseURL = strings.TrimRight(firstNonEmpty(c.APIBaseURL, d.APIBaseURL), "/")
	return c
}

type Registry struct {
	platforms map[string]repository.IPlatform
	ids       []string
}

func NewRegistry(ps ...repository.IPlatform) *Registry {
	r := &Registry{platforms: make(map[string]repository.IPlatform, len(ps))}
	for _, p := range ps {
		id := normalizeID(p.ID())
		if _, dup := r.platforms[id]; dup {
			continue
		}
		r.platforms[id] = p
		r.ids = append(r.ids, id)
	}
	return r
}

func (r *Registry) Get(platform string) (repository.IPlatform, bool) {
	p, ok := r.platforms[normalizeID(platform)]
	return p, ok
}

func (r *Registry) IDs() []string {
	return append([]string(nil), r.ids...)
}

var _ repository.IPlatformRegistry = (*Registry)(nil)

func normalizeID(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
