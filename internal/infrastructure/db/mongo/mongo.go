package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/eduacademy/academy-api/internal/core/domain"
)

const defaultTimeout = 10 * time.Second

const collectionCounters = "counters"

// Config captures the minimal settings required to establish a MongoDB connection.
type Config struct {
	URI      string
	Database string
	Timeout  time.Duration
}

// Connect establishes a MongoDB client, verifies connectivity with a ping, and
// returns both the client and the selected database. A default timeout is
// applied when none is provided.
func Connect(ctx context.Context, cfg Config) (*mongo.Client, *mongo.Database, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, nil, fmt.Errorf("mongo connect: %w", err)
	}

	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(connectCtx)
		return nil, nil, fmt.Errorf("mongo ping: %w", err)
	}

	db := client.Database(cfg.Database)
	return client, db, nil
}

// Pinger adapts a client to the readiness check.
type Pinger struct {
	Client *mongo.Client
}

func (p Pinger) Ping(ctx context.Context) error {
	return p.Client.Ping(ctx, nil)
}

// EnsureIndexes creates the indexes of every collection owned by this package.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	specs := map[string][]mongo.IndexModel{
		collectionUsers: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "role", Value: 1}}},
		},
		collectionCourses: {
			{Keys: bson.D{{Key: "published", Value: 1}}},
			{Keys: bson.D{{Key: "instructor_ids", Value: 1}}},
			{Keys: bson.D{{Key: "student_ids", Value: 1}}},
		},
		collectionLessons: {
			{Keys: bson.D{{Key: "course_id", Value: 1}}},
		},
		collectionEnrollments: {
			{Keys: bson.D{{Key: "course_id", Value: 1}, {Key: "student_id", Value: 1}, {Key: "status", Value: 1}}},
			{Keys: bson.D{{Key: "student_id", Value: 1}}},
			// One pending request per course and student.
			{
				Keys: bson.D{{Key: "course_id", Value: 1}, {Key: "student_id", Value: 1}},
				Options: options.Index().
					SetName("one_pending_request").
					SetUnique(true).
					SetPartialFilterExpression(bson.M{"status": string(domain.EnrollmentPending)}),
			},
		},
		collectionAssessments: {
			{Keys: bson.D{{Key: "course_id", Value: 1}, {Key: "kind", Value: 1}}},
		},
		collectionSubmissions: {
			{Keys: bson.D{{Key: "assessment_id", Value: 1}, {Key: "student_id", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "course_id", Value: 1}}},
		},
		collectionReviews: {
			{Keys: bson.D{{Key: "course_id", Value: 1}, {Key: "student_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		collectionAuthEvents: {
			{Keys: bson.D{{Key: "email", Value: 1}, {Key: "occurred_at", Value: -1}}},
		},
	}

	for name, indexes := range specs {
		if _, err := db.Collection(name).Indexes().CreateMany(ctx, indexes); err != nil {
			return fmt.Errorf("create %s indexes: %w", name, err)
		}
	}
	return nil
}

// nextID allocates the next value of the named sequence.
func nextID(ctx context.Context, db *mongo.Database, sequence string) (int64, error) {
	var doc struct {
		Seq int64 `bson:"seq"`
	}
	err := db.Collection(collectionCounters).FindOneAndUpdate(
		ctx,
		bson.M{"_id": sequence},
		bson.M{"$inc": bson.M{"seq": int64(1)}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		return 0, fmt.Errorf("next %s id: %w", sequence, err)
	}
	return doc.Seq, nil
}

func isNotFound(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

func unixToTime(ts int64) time.Time {
	if ts == 0 {
		return time.Time{}
	}
	return time.Unix(ts, 0).UTC()
}
