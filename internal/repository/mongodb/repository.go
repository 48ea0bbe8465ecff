package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mamadbah2/isp-dashboard/internal/domain/models"
)

// Repository defines the interface for commission snapshot storage.
type Repository interface {
	SaveSnapshot(ctx context.Context, snapshot models.CommissionSnapshot) error
	FindSnapshot(ctx context.Context, month, year int) (*models.CommissionSnapshot, error)
}

// MongoDBRepository implements the Repository interface for MongoDB.
type MongoDBRepository struct {
	client   *mongo.Client
	dbName   string
	collName string
}

// NewMongoDBRepository creates a new MongoDB repository.
func NewMongoDBRepository(ctx context.Context, uri string, dbName string) (*MongoDBRepository, error) {
	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	repo := &MongoDBRepository{
		client:   client,
		dbName:   dbName,
		collName: "commission_snapshots",
	}

	_, err = repo.collection().Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "year", Value: 1}, {Key: "month", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to ensure snapshot index: %w", err)
	}

	return repo, nil
}

func (r *MongoDBRepository) collection() *mongo.Collection {
	return r.client.Database(r.dbName).Collection(r.collName)
}

// SaveSnapshot stores the snapshot, replacing an earlier close of the same month.
func (r *MongoDBRepository) SaveSnapshot(ctx context.Context, snapshot models.CommissionSnapshot) error {
	doc, err := snapshotDocument(snapshot, time.Now())
	if err != nil {
		return err
	}
	opts := options.Replace().SetUpsert(true)

	if _, err := r.collection().ReplaceOne(ctx, periodFilter(snapshot.Month, snapshot.Year), doc, opts); err != nil {
		return fmt.Errorf("failed to save commission snapshot %d-%02d: %w", snapshot.Year, snapshot.Month+1, err)
	}
	return nil
}

// FindSnapshot returns the archived snapshot of a month, or nil if the month
// was never closed.
func (r *MongoDBRepository) FindSnapshot(ctx context.Context, month, year int) (*models.CommissionSnapshot, error) {
	var snapshot models.CommissionSnapshot
	err := r.collection().FindOne(ctx, periodFilter(month, year)).Decode(&snapshot)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find commission snapshot %d-%02d: %w", year, month+1, err)
	}
	return &snapshot, nil
}

// periodFilter selects the snapshot of one zero-based month.
func periodFilter(month, year int) bson.D {
	return bson.D{{Key: "month", Value: month}, {Key: "year", Value: year}}
}

// snapshotDocument encodes the upsert replacement, stamping the creation
// time when the caller left it unset.
func snapshotDocument(snapshot models.CommissionSnapshot, now time.Time) (bson.Raw, error) {
	if snapshot.CreatedAt.IsZero() {
		snapshot.CreatedAt = now.UTC()
	}
	doc, err := bson.Marshal(snapshot)
	if err != nil {
		return nil, fmt.Errorf("failed to encode commission snapshot %d-%02d: %w", snapshot.Year, snapshot.Month+1, err)
	}
	return doc, nil
}

// Close closes the MongoDB connection.
func (r *MongoDBRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}
