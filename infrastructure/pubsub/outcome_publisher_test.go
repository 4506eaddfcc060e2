package pubsub

import (
	"context"
	"encoding/json"
	"testing"

	"social-publisher/domain/model"

	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/pubsub/pstest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

func newTestClient(t *testing.T) (*pubsub.Client, *pstest.Server) {
	t.Helper()
	srv := pstest.NewServer()
	t.Cleanup(func() { _ = srv.Close() })

	conn, err := grpc.NewClient(srv.Addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	client, err := pubsub.NewClient(context.Background(), "test-project", option.WithGRPCConn(conn))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client, srv
}

func TestOutcomePublisher_Notify(t *testing.T) {
	client, srv := newTestClient(t)
	p := NewOutcomePublisher(client, "publish-outcomes")
	defer p.Stop()

	ext := "123"
	rec := &model.PublishResult{
		PostID: "post-1", Platform: "facebook", UserID: "user-1",
		Status: model.PublishStatusPublished, ExternalPostID: &ext, AttemptID: "a1", AttemptCount: 1,
	}
	require.NoError(t, p.Notify(context.Background(), rec))
	require.NoError(t, p.Notify(context.Background(), rec), "topic is created once and reused")

	msgs := srv.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "facebook", msgs[0].Attributes["platform"])
	assert.Equal(t, "published", msgs[0].Attributes["status"])

	var attempt model.PublishAttempt
	require.NoError(t, json.Unmarshal(msgs[0].Data, &attempt))
	assert.Equal(t, "post-1", attempt.PostID)
	assert.Equal(t, "123", attempt.ExternalPostID)
	assert.Equal(t, "a1", attempt.AttemptID)
}

func TestNewPubSub_RequiresProject(t *testing.T) {
	_, err := NewPubSub(context.Background(), "")
	assert.Error(t, err)
}
