package store

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"docverify/internal/models"
)

// OpenMongo connects to a MongoDB (or Cosmos DB Mongo API) deployment and
// makes sure the lookup indexes exist.
func OpenMongo(ctx context.Context, uri, dbName string, lg *zap.SugaredLogger) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	db := client.Database(dbName)
	if err := ensureIndexes(ctx, db); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	lg.Infow("mongo store ready", "database", dbName)
	return &Store{
		Users:     NewMongoCollection[models.User](db.Collection(models.UsersCollection)),
		Documents: NewMongoCollection[models.DocumentRecord](db.Collection(models.DocumentsCollection)),
		AuditLogs: NewMongoCollection[models.AuditLogEntry](db.Collection(models.AuditLogsCollection)),
		close:     client.Disconnect,
	}, nil
}

func ensureIndexes(ctx context.Context, db *mongo.Database) error {
	specs := map[string][]mongo.IndexModel{
		models.UsersCollection: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		models.DocumentsCollection: {
			{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "hash", Value: 1}}},
			{Keys: bson.D{{Key: "uploadedAt", Value: -1}}},
		},
		models.AuditLogsCollection: {
			{Keys: bson.D{{Key: "timestamp", Value: -1}}},
			{Keys: bson.D{{Key: "user.email", Value: 1}, {Key: "timestamp", Value: -1}}},
		},
	}
	for coll, idx := range specs {
		if _, err := db.Collection(coll).Indexes().CreateMany(ctx, idx); err != nil {
			return fmt.Errorf("create %s indexes: %w", coll, err)
		}
	}
	return nil
}

type MongoCollection[T any] struct {
	c *mongo.Collection
}

func NewMongoCollection[T any](c *mongo.Collection) *MongoCollection[T] {
	return &MongoCollection[T]{c: c}
}

func (c *MongoCollection[T]) Insert(ctx context.Context, rec *T) error {
	if _, err := c.c.InsertOne(ctx, rec); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

func sortSpec(q Query) bson.D {
	var d bson.D
	for _, s := range q.Sort {
		d = append(d, bson.E{Key: s.Field, Value: direction(s.Desc)})
	}
	// ObjectIDs grow with insertion time, so _id breaks timestamp ties.
	return append(d, bson.E{Key: "_id", Value: direction(tieDesc(q))})
}

func direction(desc bool) int {
	if desc {
		return -1
	}
	return 1
}

func filterDoc(f Filter) bson.M {
	if f == nil {
		return bson.M{}
	}
	return bson.M(f)
}

func (c *MongoCollection[T]) Find(ctx context.Context, q Query) ([]T, error) {
	opts := options.Find().SetSort(sortSpec(q))
	if q.Limit > 0 {
		opts.SetLimit(int64(q.Limit))
	}
	cur, err := c.c.Find(ctx, filterDoc(q.Filter), opts)
	if err != nil {
		return nil, err
	}
	out := []T{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *MongoCollection[T]) FindOne(ctx context.Context, f Filter) (*T, error) {
	var out T
	err := c.c.FindOne(ctx, filterDoc(f)).Decode(&out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *MongoCollection[T]) DeleteOne(ctx context.Context, f Filter) (int64, error) {
	res, err := c.c.DeleteOne(ctx, filterDoc(f))
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
