package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/eduacademy/academy-api/internal/core/domain"
)

const collectionReviews = "reviews"

// ReviewRepository stores course reviews. The unique (course_id, student_id)
// index limits each student to one review per course.
type ReviewRepository struct {
	db  *mongo.Database
	col *mongo.Collection
}

func NewReviewRepository(db *mongo.Database) *ReviewRepository {
	return &ReviewRepository{db: db, col: db.Collection(collectionReviews)}
}

type mongoReview struct {
	ID        int64  `bson:"_id"`
	CourseID  int64  `bson:"course_id"`
	StudentID int64  `bson:"student_id"`
	Rating    int    `bson:"rating"`
	Comment   string `bson:"comment"`
	CreatedAt int64  `bson:"created_at"`
	UpdatedAt int64  `bson:"updated_at"`
}

func (mr *mongoReview) toDomain() *domain.Review {
	return &domain.Review{
		ID:        mr.ID,
		CourseID:  mr.CourseID,
		StudentID: mr.StudentID,
		Rating:    mr.Rating,
		Comment:   mr.Comment,
		CreatedAt: unixToTime(mr.CreatedAt),
		UpdatedAt: unixToTime(mr.UpdatedAt),
	}
}

func (r *ReviewRepository) Create(ctx context.Context, rev *domain.Review) (*domain.Review, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	id, err := nextID(ctx, r.db, collectionReviews)
	if err != nil {
		return nil, err
	}
	doc := mongoReview{
		ID:        id,
		CourseID:  rev.CourseID,
		StudentID: rev.StudentID,
		Rating:    rev.Rating,
		Comment:   rev.Comment,
		CreatedAt: rev.CreatedAt.Unix(),
		UpdatedAt: rev.UpdatedAt.Unix(),
	}
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrDuplicateReview
		}
		return nil, fmt.Errorf("insert review: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *ReviewRepository) FindByStudent(ctx context.Context, courseID, studentID int64) (*domain.Review, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc mongoReview
	if err := r.col.FindOne(ctx, bson.M{"course_id": courseID, "student_id": studentID}).Decode(&doc); err != nil {
		if isNotFound(err) {
			return nil, domain.ErrReviewNotFound
		}
		return nil, fmt.Errorf("find review: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *ReviewRepository) ListByCourse(ctx context.Context, courseID int64) ([]*domain.Review, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.col.Find(ctx, bson.M{"course_id": courseID}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	var docs []mongoReview
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode reviews: %w", err)
	}
	out := make([]*domain.Review, 0, len(docs))
	for i := range docs {
		out = append(out, docs[i].toDomain())
	}
	return out, nil
}

func (r *ReviewRepository) Update(ctx context.Context, rev *domain.Review) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": rev.ID, "course_id": rev.CourseID, "student_id": rev.StudentID},
		bson.M{"$set": bson.M{
			"rating":     rev.Rating,
			"comment":    rev.Comment,
			"updated_at": rev.UpdatedAt.Unix(),
		}},
	)
	if err != nil {
		return fmt.Errorf("update review: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrReviewNotFound
	}
	return nil
}

func (r *ReviewRepository) Delete(ctx context.Context, courseID, studentID int64) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"course_id": courseID, "student_id": studentID})
	if err != nil {
		return fmt.Errorf("delete review: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrReviewNotFound
	}
	return nil
}

func (r *ReviewRepository) DeleteByCourse(ctx context.Context, courseID int64) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.col.DeleteMany(ctx, bson.M{"course_id": courseID}); err != nil {
		return fmt.Errorf("delete course reviews: %w", err)
	}
	return nil
}
