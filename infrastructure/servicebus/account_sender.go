package servicebus

import (
	"context"
	"encoding/json"
	"fmt"

	"socialhub/domain/model"
	"socialhub/infrastructure/logger"

	"github.com/Azure/azure-sdk-for-go/sdk/messaging/azservicebus"
)

type messageSender interface {
	SendMessage(ctx context.Context, message *azservicebus.Message, options *azservicebus.SendMessageOptions) error
	Close(ctx context.Context) error
}

// AccountSender forwards account events to a Service Bus queue.
type AccountSender struct {
	sender messageSender
}

func NewAccountSender(client *azservicebus.Client, queue string) (*AccountSender, error) {
	sender, err := client.NewSender(queue, nil)
	if err != nil {
		logger.GetLogger().
			WithField("error", err).
			Error("Error while making new sender service bus.")
		return nil, err
	}
	return &AccountSender{sender: sender}, nil
}

func (s *AccountSender) Publish(ctx context.Context, event model.AccountEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return err
	}
	contentType := "application/json"
	subject := event.Type
	msg := &azservicebus.Message{
		Body:        body,
		ContentType: &contentType,
		Subject:     &subject,
		ApplicationProperties: map[string]any{
			"platform": event.Platform,
			"user_id":  event.UserID,
		},
	}
	if event.ID != "" {
		id := event.ID
		msg.MessageID = &id
	}
	if err := s.sender.SendMessage(ctx, msg, nil); err != nil {
		return fmt.Errorf("send %s: %w", event.Type, err)
	}
	return nil
}

func (s *AccountSender) Close(ctx context.Context) {
	if err := s.sender.Close(ctx); err != nil {
		logger.GetLogger().
			WithField("error", err).
			Error("Error while closing sender.")
	}
}
