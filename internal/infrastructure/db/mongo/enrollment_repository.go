package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/eduacademy/academy-api/internal/core/domain"
)

const collectionEnrollments = "enrollment_requests"

// EnrollmentRepository stores enrollment requests.
type EnrollmentRepository struct {
	db  *mongo.Database
	col *mongo.Collection
}

func NewEnrollmentRepository(db *mongo.Database) *EnrollmentRepository {
	return &EnrollmentRepository{db: db, col: db.Collection(collectionEnrollments)}
}

type mongoEnrollment struct {
	ID        int64  `bson:"_id"`
	CourseID  int64  `bson:"course_id"`
	StudentID int64  `bson:"student_id"`
	Status    string `bson:"status"`
	CreatedAt int64  `bson:"created_at"`
	UpdatedAt int64  `bson:"updated_at"`
}

func (me *mongoEnrollment) toDomain() *domain.EnrollmentRequest {
	return &domain.EnrollmentRequest{
		ID:        me.ID,
		CourseID:  me.CourseID,
		StudentID: me.StudentID,
		Status:    domain.EnrollmentStatus(me.Status),
		CreatedAt: unixToTime(me.CreatedAt),
		UpdatedAt: unixToTime(me.UpdatedAt),
	}
}

func (r *EnrollmentRepository) Create(ctx context.Context, req *domain.EnrollmentRequest) (*domain.EnrollmentRequest, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	id, err := nextID(ctx, r.db, collectionEnrollments)
	if err != nil {
		return nil, err
	}
	doc := mongoEnrollment{
		ID:        id,
		CourseID:  req.CourseID,
		StudentID: req.StudentID,
		Status:    string(req.Status),
		CreatedAt: req.CreatedAt.Unix(),
		UpdatedAt: req.UpdatedAt.Unix(),
	}
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrDuplicateRequest
		}
		return nil, fmt.Errorf("insert enrollment request: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *EnrollmentRepository) FindByID(ctx context.Context, id int64) (*domain.EnrollmentRequest, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *EnrollmentRepository) FindPending(ctx context.Context, courseID, studentID int64) (*domain.EnrollmentRequest, error) {
	return r.findOne(ctx, bson.M{
		"course_id":  courseID,
		"student_id": studentID,
		"status":     string(domain.EnrollmentPending),
	})
}

func (r *EnrollmentRepository) findOne(ctx context.Context, filter bson.M) (*domain.EnrollmentRequest, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc mongoEnrollment
	if err := r.col.FindOne(ctx, filter).Decode(&doc); err != nil {
		if isNotFound(err) {
			return nil, domain.ErrRequestNotFound
		}
		return nil, fmt.Errorf("find enrollment request: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *EnrollmentRepository) ListByCourse(ctx context.Context, courseID int64) ([]*domain.EnrollmentRequest, error) {
	return r.list(ctx, bson.M{"course_id": courseID})
}

func (r *EnrollmentRepository) ListByStudent(ctx context.Context, studentID int64) ([]*domain.EnrollmentRequest, error) {
	return r.list(ctx, bson.M{"student_id": studentID})
}

func (r *EnrollmentRepository) list(ctx context.Context, filter bson.M) ([]*domain.EnrollmentRequest, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.col.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list enrollment requests: %w", err)
	}
	var docs []mongoEnrollment
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode enrollment requests: %w", err)
	}
	out := make([]*domain.EnrollmentRequest, 0, len(docs))
	for i := range docs {
		out = append(out, docs[i].toDomain())
	}
	return out, nil
}

func (r *EnrollmentRepository) UpdateStatus(ctx context.Context, id int64, from, to domain.EnrollmentStatus) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": id, "status": string(from)},
		bson.M{"$set": bson.M{"status": string(to), "updated_at": time.Now().UTC().Unix()}},
	)
	if err != nil {
		return fmt.Errorf("update enrollment request: %w", err)
	}
	if res.MatchedCount > 0 {
		return nil
	}

	// Nothing matched: either the request is gone or its status moved on.
	n, err := r.col.CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("count enrollment request: %w", err)
	}
	if n == 0 {
		return domain.ErrRequestNotFound
	}
	return domain.ErrRequestNotPending
}

func (r *EnrollmentRepository) DeleteByCourse(ctx context.Context, courseID int64) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.col.DeleteMany(ctx, bson.M{"course_id": courseID}); err != nil {
		return fmt.Errorf("delete course enrollment requests: %w", err)
	}
	return nil
}
