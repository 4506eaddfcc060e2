package dto

import (
	"strings"

	"social-publisher/domain/model"
)

type PublishRequest struct {
	PostID               string            `json:"postId"`
	Content              string            `json:"content"`
	Title                string            `json:"title"`
	Platform             string            `json:"platform"`
	Platforms            []string          `json:"platforms"`
	UserID               string            `json:"-"`
	AccessToken          string            `json:"accessToken"`
	PlatformSpecificData map[string]string `json:"platformSpecificData"`
}

// TargetPlatforms merges the single and multi platform fields, dropping duplicates.
func (r PublishRequest) TargetPlatforms() []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(r.Platforms)+1)
	for _, p := range append([]string{r.Platform}, r.Platforms...) {
		p = strings.ToLower(strings.TrimSpace(p))
		if p == "" {
			continue
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}

type PublishResponse struct {
	Success        bool            `json:"success"`
	ExternalPostID string          `json:"externalPostId,omitempty"`
	Message        string          `json:"message,omitempty"`
	Error          string          `json:"error,omitempty"`
	Retryable      bool            `json:"retryable,omitempty"`
	Results        []model.Outcome `json:"results,omitempty"`
}

type PublishStatusResponse struct {
	Success bool                   `json:"success"`
	Results []*model.PublishResult `json:"results"`
}

type PublishAttemptsResponse struct {
	Success  bool                   `json:"success"`
	Attempts []model.PublishAttempt `json:"attempts"`
}
