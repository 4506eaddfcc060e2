package servicebus

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"social-publisher/domain/model"
	"social-publisher/domain/repository"
	"social-publisher/infrastructure/logger"

	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/messaging/azservicebus"
)

// NewServiceBus connects to a namespace (e.g. "myns.servicebus.windows.net")
// with the default Azure credential chain.
func NewServiceBus(namespace string) (*azservicebus.Client, error) {
	if namespace == "" {
		return nil, errors.New("service bus namespace is not configured")
	}
	cred, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, err
	}
	return azservicebus.NewClient(namespace, cred, nil)
}

type messageSender interface {
	SendMessage(ctx context.Context, message *azservicebus.Message, options *azservicebus.SendMessageOptions) error
	Close(ctx context.Context) error
}

// OutcomeSender queues every tracked publish result on a Service Bus queue.
type OutcomeSender struct {
	newSender func() (messageSender, error)

	mu     sync.Mutex
	sender messageSender
}

func NewOutcomeSender(client *azservicebus.Client, queue string) *OutcomeSender {
	return &OutcomeSender{newSender: func() (messageSender, error) {
		return client.NewSender(queue, nil)
	}}
}

var _ repository.IPublishNotifier = (*OutcomeSender)(nil)

func (s *OutcomeSender) Notify(ctx context.Context, rec *model.PublishResult) error {
	sender, err := s.getSender()
	if err != nil {
		logger.GetLogger().
			WithField("error", err).
			Error("Error while making new sender service bus.")
		return err
	}
	msg, err := NewOutcomeMessage(rec)
	if err != nil {
		return err
	}
	if err := sender.SendMessage(ctx, msg, nil); err != nil {
		logger.GetLogger().WithField("error", err).Error("Error while sending message.")
		return err
	}
	return nil
}

func (s *OutcomeSender) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sender == nil {
		return nil
	}
	err := s.sender.Close(ctx)
	s.sender = nil
	return err
}

func (s *OutcomeSender) getSender() (messageSender, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sender != nil {
		return s.sender, nil
	}
	sender, err := s.newSender()
	if err != nil {
		return nil, err
	}
	s.sender = sender
	return sender, nil
}

// NewOutcomeMessage encodes rec as a JSON attempt. The attempt id doubles as
// the message id so duplicate detection on the queue drops redeliveries.
func NewOutcomeMessage(rec *model.PublishResult) (*azservicebus.Message, error) {
	body, err := json.Marshal(model.NewPublishAttempt(rec))
	if err != nil {
		return nil, err
	}
	contentType := "application/json"
	subject := rec.Platform
	msg := &azservicebus.Message{
		Body:        body,
		ContentType: &contentType,
		Subject:     &subject,
		ApplicationProperties: map[string]any{
			"postId":   rec.PostID,
			"platform": rec.Platform,
			"status":   string(rec.Status),
		},
	}
	if rec.AttemptID != "" {
		id := rec.AttemptID
		msg.MessageID = &id
	}
	return msg, nil
}
