package realtime

import (
	"context"
	"net/http"
	"sync"

	"social-publisher/domain/model"
	"social-publisher/domain/repository"

	"github.com/gin-gonic/gin"
)

const subscriberBuffer = 8

// PublishStatusEvent is the SSE payload for one tracked publish result.
type PublishStatusEvent struct {
	Type           string  `json:"type"`
	PostID         string  `json:"post_id"`
	Platform       string  `json:"platform"`
	Status         string  `json:"status"`
	ExternalPostID *string `json:"external_post_id,omitempty"`
	Error          *string `json:"error,omitempty"`
	AttemptCount   int     `json:"attempt_count"`
}

// Hub maintains per-user subscribers listening for publish status events.
type Hub struct {
	mu    sync.RWMutex
	users map[string]map[chan PublishStatusEvent]struct{}
}

func NewPublishHub() *Hub {
	return &Hub{users: make(map[string]map[chan PublishStatusEvent]struct{})}
}

var _ repository.IPublishNotifier = (*Hub)(nil)

// Serve registers an SSE stream for the authenticated user (user_id set by middleware).
func (h *Hub) Serve(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "error": "unauthorized"})
		return
	}
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no") // disable nginx buffering

	ch := make(chan PublishStatusEvent, subscriberBuffer)
	h.addSubscriber(userID, ch)
	defer h.removeSubscriber(userID, ch)

	c.Status(http.StatusOK)
	_, _ = c.Writer.Write([]byte(":ok\n\n"))
	c.Writer.Flush()

	for {
		select {
		case <-c.Request.Context().Done():
			return
		case evt := <-ch:
			c.SSEvent(evt.Type, evt)
			c.Writer.Flush()
		}
	}
}

// Subscribers reports how many open streams a user has.
func (h *Hub) Subscribers(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.users[userID])
}

func (h *Hub) addSubscriber(userID string, ch chan PublishStatusEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.users[userID] == nil {
		h.users[userID] = make(map[chan PublishStatusEvent]struct{})
	}
	h.users[userID][ch] = struct{}{}
}

func (h *Hub) removeSubscriber(userID string, ch chan PublishStatusEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if subs := h.users[userID]; subs != nil {
		delete(subs, ch)
		close(ch)
		if len(subs) == 0 {
			delete(h.users, userID)
		}
	}
}

// Notify broadcasts rec to every stream of the user who owns it. Slow
// subscribers drop events rather than block the publish path.
func (h *Hub) Notify(_ context.Context, rec *model.PublishResult) error {
	if rec == nil {
		return nil
	}
	evt := PublishStatusEvent{
		Type:           "publish_status",
		PostID:         rec.PostID,
		Platform:       rec.Platform,
		Status:         string(rec.Status),
		ExternalPostID: rec.ExternalPostID,
		Error:          rec.ErrorMessage,
		AttemptCount:   rec.AttemptCount,
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.users[rec.UserID] {
		select {
		case ch <- evt:
		default:
		}
	}
	return nil
}
