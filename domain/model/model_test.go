package model_test

import (
	"testing"
	"time"

	"social-publisher/domain/model"

	"github.com/stretchr/testify/assert"
)

func TestPublishContent_Message(t *testing.T) {
	assert.Equal(t, "hello world", model.PublishContent{Content: "hello world"}.Message())
	assert.Equal(t, "Launch\n\nhello world", model.PublishContent{Title: "Launch", Content: "hello world"}.Message())
	assert.Equal(t, "Launch", model.PublishContent{Title: "Launch"}.Message())
}

func TestPlatformConnection_Active(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	past := now.Add(-time.Minute)
	future := now.Add(time.Hour)

	var nilConn *model.PlatformConnection
	assert.False(t, nilConn.Active(now))
	assert.True(t, (&model.PlatformConnection{IsConnected: true, AccessToken: "t"}).Active(now))
	assert.True(t, (&model.PlatformConnection{IsConnected: true, AccessToken: "t", ExpiresAt: &future}).Active(now))
	assert.False(t, (&model.PlatformConnection{IsConnected: true, AccessToken: "t", ExpiresAt: &past}).Active(now))
	assert.False(t, (&model.PlatformConnection{IsConnected: false, AccessToken: "t"}).Active(now))
	assert.False(t, (&model.PlatformConnection{IsConnected: true}).Active(now))
}

func TestTokenSet_ExpiresIn(t *testing.T) {
	now := time.Now()
	exp := now.Add(90 * time.Second)
	assert.InDelta(t, 90, (&model.TokenSet{ExpiresAt: &exp}).ExpiresIn(now), 1)
	assert.Zero(t, (&model.TokenSet{}).ExpiresIn(now))
	old := now.Add(-time.Hour)
	assert.Zero(t, (&model.TokenSet{ExpiresAt: &old}).ExpiresIn(now))
}

func TestNewPublishAttempt(t *testing.T) {
	ext := "123"
	at := time.Now().UTC()
	a := model.NewPublishAttempt(&model.PublishResult{
		PostID: "p1", Platform: "facebook", UserID: "u1", Status: model.PublishStatusPublished,
		ExternalPostID: &ext, AttemptID: "a1", AttemptCount: 2, UpdatedAt: at,
	})
	assert.Equal(t, "123", a.ExternalPostID)
	assert.Equal(t, "published", a.Status)
	assert.Equal(t, 2, a.AttemptCount)
	assert.Empty(t, a.ErrorMessage)
	assert.Equal(t, at, a.CreatedAt)
}
