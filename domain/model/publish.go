package model

import "time"

type PublishStatus string

const (
	PublishStatusPending   PublishStatus = "pending"
	PublishStatusPublished PublishStatus = "published"
	PublishStatusFailed    PublishStatus = "failed"
)

// PublishContent is one piece of content to dispatch to a platform.
type PublishContent struct {
	PostID  string
	Title   string
	Content string
}

// Message joins title and body the way single-field platforms expect.
func (p PublishContent) Message() string {
	if p.Title == "" {
		return p.Content
	}
	if p.Content == "" {
		return p.Title
	}
	return p.Title + "\n\n" + p.Content
}

// Outcome is the normalized result of one dispatch.
type Outcome struct {
	Platform       string `json:"platform"`
	Success        bool   `json:"success"`
	ExternalPostID string `json:"externalPostId,omitempty"`
	Error          string `json:"error,omitempty"`
	ErrorKind      string `json:"errorKind,omitempty"`
	// Retryable marks network and timeout failures the caller may resend.
	Retryable      bool   `json:"retryable,omitempty"`
}

// PublishResult is the latest state of publishing one post to one platform.
type PublishResult struct {
	ID             int64         `json:"id"`
	PostID         string        `json:"post_id"`
	Platform       string        `json:"platform"`
	UserID         string        `json:"user_id"`
	Status         PublishStatus `json:"status"`
	ExternalPostID *string       `json:"external_post_id,omitempty"`
	ErrorMessage   *string       `json:"error_message,omitempty"`
	PublishedAt    *time.Time    `json:"published_at,omitempty"`
	AttemptID      string        `json:"attempt_id"`
	AttemptCount   int           `json:"attempt_count"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

// PublishAttempt is the append-only audit entry of a single dispatch.
type PublishAttempt struct {
	AttemptID      string    `json:"attempt_id"       bson:"attemptId"`
	PostID         string    `json:"post_id"          bson:"postId"`
	Platform       string    `json:"platform"         bson:"platform"`
	UserID         string    `json:"user_id"          bson:"userId"`
	Status         string    `json:"status"           bson:"status"`
	ExternalPostID string    `json:"external_post_id" bson:"externalPostId,omitempty"`
	ErrorMessage   string    `json:"error_message"    bson:"errorMessage,omitempty"`
	AttemptCount   int       `json:"attempt_count"    bson:"attemptCount"`
	CreatedAt      time.Time `json:"created_at"       bson:"createdAt"`
}

func NewPublishAttempt(rec *PublishResult) PublishAttempt {
	a := PublishAttempt{
		AttemptID:    rec.AttemptID,
		PostID:       rec.PostID,
		Platform:     rec.Platform,
		UserID:       rec.UserID,
		Status:       string(rec.Status),
		AttemptCount: rec.AttemptCount,
		CreatedAt:    rec.UpdatedAt,
	}
	if rec.ExternalPostID != nil {
		a.ExternalPostID = *rec.ExternalPostID
	}
	if rec.ErrorMessage != nil {
		a.ErrorMessage = *rec.ErrorMessage
	}
	return a
}
