package pubsub

import (
	"context"
	"encoding/json"
	"fmt"

	"socialhub/domain/model"
	"socialhub/infrastructure/logger"

	"cloud.google.com/go/pubsub"
)

// AccountPublisher publishes account events to a Pub/Sub topic as JSON.
type AccountPublisher struct {
	topic *pubsub.Topic
}

// NewAccountPublisher creates the topic when it does not exist yet.
func NewAccountPublisher(ctx context.Context, client *pubsub.Client, topicID string) (*AccountPublisher, error) {
	topic := client.Topic(topicID)
	exists, err := topic.Exists(ctx)
	if err != nil {
		return nil, fmt.Errorf("check topic %s: %w", topicID, err)
	}
	if !exists {
		logger.GetLogger().WithField("topic", topicID).Info("Topic doesn't exist - creating it")
		if topic, err = client.CreateTopic(ctx, topicID); err != nil {
			return nil, fmt.Errorf("create topic %s: %w", topicID, err)
		}
	}
	return &AccountPublisher{topic: topic}, nil
}

func (p *AccountPublisher) Publish(ctx context.Context, event model.AccountEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	msg := &pubsub.Message{
		Data: data,
		Attributes: map[string]string{
			"type":     event.Type,
			"platform": event.Platform,
		},
	}
	serverID, err := p.topic.Publish(ctx, msg).Get(ctx)
	if err != nil {
		return fmt.Errorf("publish %s: %w", event.Type, err)
	}
	logger.GetLogger().WithField("server ID", serverID).WithField("type", event.Type).Debug("Account event published")
	return nil
}

// Stop flushes outstanding messages.
func (p *AccountPublisher) Stop() {
	p.topic.Stop()
}
