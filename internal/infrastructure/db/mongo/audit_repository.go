package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/darkr4m/5StarK9/internal/core/domain"
	"github.com/darkr4m/5StarK9/internal/core/ports"
)

const auditCollection = "account_events"

// AuditRepository appends account events to the account_events collection.
type AuditRepository struct {
	coll *mongo.Collection
}

func NewAuditRepository(db *mongo.Database) *AuditRepository {
	return &AuditRepository{coll: db.Collection(auditCollection)}
}

// EnsureIndexes creates the lookup indexes used when reviewing an account's history.
func (r *AuditRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}, {Key: "timestamp", Value: -1}}},
		{Keys: bson.D{{Key: "action", Value: 1}}},
		{Keys: bson.D{{Key: "subject_id", Value: 1}}, Options: options.Index().SetSparse(true)},
	})
	if err != nil {
		return fmt.Errorf("create audit indexes: %w", err)
	}
	return nil
}

func (r *AuditRepository) Insert(ctx context.Context, event *domain.AuditEvent) error {
	if _, err := r.coll.InsertOne(ctx, auditDocument(event)); err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

func auditDocument(event *domain.AuditEvent) bson.M {
	doc := bson.M{
		"action":    string(event.Action),
		"email":     event.Email,
		"timestamp": event.Timestamp.UTC(),
	}
	if event.ActorID != "" {
		doc["actor_id"] = event.ActorID
	}
	if event.SubjectID != "" {
		doc["subject_id"] = event.SubjectID
	}
	if len(event.Details) > 0 {
		doc["details"] = event.Details
	}
	return doc
}

var _ ports.AuditRepository = (*AuditRepository)(nil)
