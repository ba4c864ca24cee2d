package pubsub

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"socialhub/domain/model"

	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/pubsub/pstest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

func newFakeClient(t *testing.T) (*pstest.Server, *pubsub.Client) {
	t.Helper()
	srv := pstest.NewServer()
	t.Cleanup(func() { _ = srv.Close() })

	conn, err := grpc.NewClient(srv.Addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	client, err := pubsub.NewClient(context.Background(), "socialhub-test", option.WithGRPCConn(conn))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return srv, client
}

func TestNewPubSub_RequiresProject(t *testing.T) {
	_, err := NewPubSub(context.Background(), "")
	assert.Error(t, err)
}

func TestAccountPublisher_Publish(t *testing.T) {
	srv, client := newFakeClient(t)
	ctx := context.Background()

	pub, err := NewAccountPublisher(ctx, client, "account-events")
	require.NoError(t, err)
	defer pub.Stop()

	evt := model.AccountEvent{
		ID:         "evt-1",
		Type:       model.EventAccountLinked,
		UserID:     "user-1",
		Platform:   "twitter",
		State:      model.LinkStateLinked,
		Username:   "jdoe",
		OccurredAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, pub.Publish(ctx, evt))

	msgs := srv.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "account.linked", msgs[0].Attributes["type"])
	assert.Equal(t, "twitter", msgs[0].Attributes["platform"])

	var got model.AccountEvent
	require.NoError(t, json.Unmarshal(msgs[0].Data, &got))
	assert.Equal(t, evt, got)
}

func TestNewAccountPublisher_ReusesExistingTopic(t *testing.T) {
	_, client := newFakeClient(t)
	ctx := context.Background()

	_, err := client.CreateTopic(ctx, "account-events")
	require.NoError(t, err)

	pub, err := NewAccountPublisher(ctx, client, "account-events")
	require.NoError(t, err)
	pub.Stop()
}
