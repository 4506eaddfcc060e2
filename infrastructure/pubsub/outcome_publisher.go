package pubsub

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"social-publisher/domain/model"
	"social-publisher/domain/repository"
	"social-publisher/infrastructure/logger"

	"cloud.google.com/go/pubsub"
)

func NewPubSub(ctx context.Context, projectID string) (*pubsub.Client, error) {
	if projectID == "" {
		return nil, errors.New("pubsub project id is not configured")
	}
	return pubsub.NewClient(ctx, projectID)
}

// OutcomePublisher publishes every tracked publish result to a Pub/Sub topic so
// downstream schedulers can react to outcomes.
type OutcomePublisher struct {
	client  *pubsub.Client
	topicID string

	mu    sync.Mutex
	topic *pubsub.Topic
}

func NewOutcomePublisher(client *pubsub.Client, topicID string) *OutcomePublisher {
	return &OutcomePublisher{client: client, topicID: topicID}
}

var _ repository.IPublishNotifier = (*OutcomePublisher)(nil)

func (p *OutcomePublisher) Notify(ctx context.Context, rec *model.PublishResult) error {
	topic, err := p.ensureTopic(ctx)
	if err != nil {
		return err
	}
	msg, err := NewOutcomeMessage(rec)
	if err != nil {
		return err
	}
	serverID, err := topic.Publish(ctx, msg).Get(ctx)
	if err != nil {
		return err
	}
	logger.GetLogger().
		WithField("server ID", serverID).
		WithField("post_id", rec.PostID).
		WithField("platform", rec.Platform).
		Debug("Publish outcome published")
	return nil
}

// Stop flushes pending messages.
func (p *OutcomePublisher) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.topic != nil {
		p.topic.Stop()
	}
}

func (p *OutcomePublisher) ensureTopic(ctx context.Context) (*pubsub.Topic, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.topic != nil {
		return p.topic, nil
	}
	topic := p.client.Topic(p.topicID)
	// Create the topic if it doesn't exist.
	exists, err := topic.Exists(ctx)
	if err != nil {
		return nil, err
	}
	if !exists {
		logger.GetLogger().WithField("topic", p.topicID).Info("Topic doesn't exist - creating it")
		if topic, err = p.client.CreateTopic(ctx, p.topicID); err != nil {
			return nil, err
		}
	}
	p.topic = topic
	return topic, nil
}

// NewOutcomeMessage encodes rec as a JSON attempt with routing attributes.
func NewOutcomeMessage(rec *model.PublishResult) (*pubsub.Message, error) {
	data, err := json.Marshal(model.NewPublishAttempt(rec))
	if err != nil {
		return nil, err
	}
	return &pubsub.Message{
		Data: data,
		Attributes: map[string]string{
			"postId":   rec.PostID,
			"platform": rec.Platform,
			"status":   string(rec.Status),
		},
	}, nil
}
