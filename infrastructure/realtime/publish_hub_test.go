package realtime

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"social-publisher/domain/model"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStreamServer(h *Hub, userID string) *httptest.Server {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/stream", func(c *gin.Context) {
		if userID != "" {
			c.Set("user_id", userID)
		}
		h.Serve(c)
	})
	return httptest.NewServer(r)
}

func TestHub_StreamsOwnersEvents(t *testing.T) {
	h := NewPublishHub()
	srv := newStreamServer(h, "user-1")
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/stream", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, ":ok\n", line)
	require.Eventually(t, func() bool { return h.Subscribers("user-1") == 1 }, time.Second, 10*time.Millisecond)

	ext := "123"
	require.NoError(t, h.Notify(ctx, &model.PublishResult{UserID: "someone-else", PostID: "p0", Platform: "twitter"}))
	require.NoError(t, h.Notify(ctx, &model.PublishResult{
		UserID: "user-1", PostID: "p1", Platform: "facebook",
		Status: model.PublishStatusPublished, ExternalPostID: &ext, AttemptCount: 1,
	}))

	var data string
	for data == "" {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		if strings.HasPrefix(line, "data:") {
			data = strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		}
	}
	var evt PublishStatusEvent
	require.NoError(t, json.Unmarshal([]byte(data), &evt))
	assert.Equal(t, "p1", evt.PostID, "events of other users are not delivered")
	assert.Equal(t, "published", evt.Status)
	require.NotNil(t, evt.ExternalPostID)
	assert.Equal(t, "123", *evt.ExternalPostID)
}

func TestHub_RequiresUser(t *testing.T) {
	srv := newStreamServer(NewPublishHub(), "")
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/stream")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestHub_NotifyWithoutSubscribers(t *testing.T) {
	h := NewPublishHub()
	assert.NoError(t, h.Notify(context.Background(), nil))
	assert.NoError(t, h.Notify(context.Background(), &model.PublishResult{UserID: "u"}))
	assert.Zero(t, h.Subscribers("u"))
}
