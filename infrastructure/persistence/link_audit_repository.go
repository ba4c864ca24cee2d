package persistence

import (
	"context"
	"fmt"

	"socialhub/domain/model"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

type eventInserter interface {
	InsertOne(ctx context.Context, document interface{}, opts ...options.Lister[options.InsertOneOptions]) (*mongo.InsertOneResult, error)
}

// LinkAuditRepository appends every account event to a Mongo collection.
type LinkAuditRepository struct {
	collection eventInserter
}

func NewLinkAuditRepository(client *mongo.Client, database, collection string) *LinkAuditRepository {
	return &LinkAuditRepository{collection: client.Database(database).Collection(collection)}
}

func (r *LinkAuditRepository) Publish(ctx context.Context, event model.AccountEvent) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if _, err := r.collection.InsertOne(ctx, event); err != nil {
		return fmt.Errorf("insert account event: %w", err)
	}
	return nil
}
