package legacy

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Source reads every legacy collection.
type Source interface {
	Patients(ctx context.Context) ([]PatientDoc, error)
	Caregivers(ctx context.Context) ([]CaregiverDoc, error)
	Missions(ctx context.Context) ([]MissionDoc, error)
	Submissions(ctx context.Context) ([]SubmissionDoc, error)
}

// MongoSource reads the legacy collections from a live database.
type MongoSource struct {
	client *mongo.Client
	db     *mongo.Database
}

// Connect dials uri and verifies the connection.
func Connect(ctx context.Context, uri, database string) (*MongoSource, error) {
	client, err := mongo.Connect(ctx, options.Client().
		ApplyURI(uri).
		SetConnectTimeout(10*time.Second))
	if err != nil {
		return nil, fmt.Errorf("connect to legacy store: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping legacy store: %w", err)
	}
	return &MongoSource{client: client, db: client.Database(database)}, nil
}

func (s *MongoSource) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func findAll[T any](ctx context.Context, db *mongo.Database, collection string) ([]T, error) {
	cursor, err := db.Collection(collection).Find(ctx, bson.D{},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", collection, err)
	}
	var docs []T
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode %s: %w", collection, err)
	}
	return docs, nil
}

func (s *MongoSource) Patients(ctx context.Context) ([]PatientDoc, error) {
	return findAll[PatientDoc](ctx, s.db, PatientCollection)
}

func (s *MongoSource) Caregivers(ctx context.Context) ([]CaregiverDoc, error) {
	return findAll[CaregiverDoc](ctx, s.db, CaregiverCollection)
}

func (s *MongoSource) Missions(ctx context.Context) ([]MissionDoc, error) {
	return findAll[MissionDoc](ctx, s.db, MissionCollection)
}

func (s *MongoSource) Submissions(ctx context.Context) ([]SubmissionDoc, error) {
	return findAll[SubmissionDoc](ctx, s.db, SubmissionCollection)
}
