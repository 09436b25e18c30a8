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

const (
	collectionAssessments = "assessments"
	collectionSubmissions = "submissions"
)

// AssessmentRepository stores assignments and exams in one collection,
// separated by kind.
type AssessmentRepository struct {
	db  *mongo.Database
	col *mongo.Collection
}

func NewAssessmentRepository(db *mongo.Database) *AssessmentRepository {
	return &AssessmentRepository{db: db, col: db.Collection(collectionAssessments)}
}

type mongoAssessment struct {
	ID        int64  `bson:"_id"`
	CourseID  int64  `bson:"course_id"`
	Kind      string `bson:"kind"`
	Title     string `bson:"title"`
	Content   string `bson:"content"`
	StartsAt  int64  `bson:"starts_at"`
	DueAt     int64  `bson:"due_at"`
	CreatedAt int64  `bson:"created_at"`
	UpdatedAt int64  `bson:"updated_at"`
}

func (ma *mongoAssessment) toDomain() *domain.Assessment {
	return &domain.Assessment{
		ID:        ma.ID,
		CourseID:  ma.CourseID,
		Kind:      domain.AssessmentKind(ma.Kind),
		Title:     ma.Title,
		Content:   ma.Content,
		StartsAt:  unixToTime(ma.StartsAt),
		DueAt:     unixToTime(ma.DueAt),
		CreatedAt: unixToTime(ma.CreatedAt),
		UpdatedAt: unixToTime(ma.UpdatedAt),
	}
}

func (r *AssessmentRepository) Create(ctx context.Context, a *domain.Assessment) (*domain.Assessment, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	id, err := nextID(ctx, r.db, collectionAssessments)
	if err != nil {
		return nil, err
	}
	doc := mongoAssessment{
		ID:        id,
		CourseID:  a.CourseID,
		Kind:      string(a.Kind),
		Title:     a.Title,
		Content:   a.Content,
		StartsAt:  a.StartsAt.Unix(),
		DueAt:     a.DueAt.Unix(),
		CreatedAt: a.CreatedAt.Unix(),
		UpdatedAt: a.UpdatedAt.Unix(),
	}
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return nil, fmt.Errorf("insert assessment: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *AssessmentRepository) FindByID(ctx context.Context, courseID, id int64) (*domain.Assessment, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc mongoAssessment
	if err := r.col.FindOne(ctx, bson.M{"_id": id, "course_id": courseID}).Decode(&doc); err != nil {
		if isNotFound(err) {
			return nil, domain.ErrAssessmentNotFound
		}
		return nil, fmt.Errorf("find assessment: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *AssessmentRepository) ListByCourse(ctx context.Context, courseID int64, kind domain.AssessmentKind) ([]*domain.Assessment, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{"course_id": courseID}
	if kind != "" {
		filter["kind"] = string(kind)
	}
	cur, err := r.col.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list assessments: %w", err)
	}
	var docs []mongoAssessment
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode assessments: %w", err)
	}
	out := make([]*domain.Assessment, 0, len(docs))
	for i := range docs {
		out = append(out, docs[i].toDomain())
	}
	return out, nil
}

func (r *AssessmentRepository) Update(ctx context.Context, a *domain.Assessment) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": a.ID, "course_id": a.CourseID},
		bson.M{"$set": bson.M{
			"title":      a.Title,
			"content":    a.Content,
			"due_at":     a.DueAt.Unix(),
			"updated_at": a.UpdatedAt.Unix(),
		}},
	)
	if err != nil {
		return fmt.Errorf("update assessment: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrAssessmentNotFound
	}
	return nil
}

func (r *AssessmentRepository) Delete(ctx context.Context, courseID, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id, "course_id": courseID})
	if err != nil {
		return fmt.Errorf("delete assessment: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrAssessmentNotFound
	}
	return nil
}

func (r *AssessmentRepository) DeleteByCourse(ctx context.Context, courseID int64) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.col.DeleteMany(ctx, bson.M{"course_id": courseID}); err != nil {
		return fmt.Errorf("delete course assessments: %w", err)
	}
	return nil
}

// SubmissionRepository stores one answer document per assessment and student.
// A unique index on (assessment_id, student_id) backs that invariant.
type SubmissionRepository struct {
	db  *mongo.Database
	col *mongo.Collection
}

func NewSubmissionRepository(db *mongo.Database) *SubmissionRepository {
	return &SubmissionRepository{db: db, col: db.Collection(collectionSubmissions)}
}

type mongoSubmission struct {
	ID           int64  `bson:"_id"`
	AssessmentID int64  `bson:"assessment_id"`
	CourseID     int64  `bson:"course_id"`
	StudentID    int64  `bson:"student_id"`
	Answer       string `bson:"answer"`
	Status       string `bson:"status"`
	Score        *int   `bson:"score,omitempty"`
	SubmittedAt  int64  `bson:"submitted_at"`
	GradedAt     int64  `bson:"graded_at,omitempty"`
}

func (ms *mongoSubmission) toDomain() *domain.Submission {
	sub := &domain.Submission{
		ID:           ms.ID,
		AssessmentID: ms.AssessmentID,
		CourseID:     ms.CourseID,
		StudentID:    ms.StudentID,
		Answer:       ms.Answer,
		Status:       domain.SubmissionStatus(ms.Status),
		Score:        ms.Score,
		SubmittedAt:  unixToTime(ms.SubmittedAt),
	}
	if ms.GradedAt != 0 {
		at := unixToTime(ms.GradedAt)
		sub.GradedAt = &at
	}
	return sub
}

// Submit upserts on an ungraded submission. When a graded one exists the
// filter misses, the insert collides with the unique index and the answer is
// rejected.
func (r *SubmissionRepository) Submit(ctx context.Context, s *domain.Submission) (*domain.Submission, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	id, err := nextID(ctx, r.db, collectionSubmissions)
	if err != nil {
		return nil, err
	}

	var doc mongoSubmission
	err = r.col.FindOneAndUpdate(ctx,
		bson.M{
			"assessment_id": s.AssessmentID,
			"student_id":    s.StudentID,
			"status":        bson.M{"$ne": string(domain.SubmissionGraded)},
		},
		bson.M{
			"$set": bson.M{
				"answer":       s.Answer,
				"submitted_at": s.SubmittedAt.Unix(),
			},
			"$setOnInsert": bson.M{
				"_id":       id,
				"course_id": s.CourseID,
				"status":    string(domain.SubmissionSubmitted),
			},
		},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrAlreadyGraded
		}
		return nil, fmt.Errorf("submit answer: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *SubmissionRepository) FindByID(ctx context.Context, assessmentID, id int64) (*domain.Submission, error) {
	return r.findOne(ctx, bson.M{"_id": id, "assessment_id": assessmentID})
}

func (r *SubmissionRepository) FindByStudent(ctx context.Context, assessmentID, studentID int64) (*domain.Submission, error) {
	return r.findOne(ctx, bson.M{"assessment_id": assessmentID, "student_id": studentID})
}

func (r *SubmissionRepository) findOne(ctx context.Context, filter bson.M) (*domain.Submission, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc mongoSubmission
	if err := r.col.FindOne(ctx, filter).Decode(&doc); err != nil {
		if isNotFound(err) {
			return nil, domain.ErrSubmissionNotFound
		}
		return nil, fmt.Errorf("find submission: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *SubmissionRepository) ListByAssessment(ctx context.Context, assessmentID int64) ([]*domain.Submission, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.col.Find(ctx, bson.M{"assessment_id": assessmentID}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	var docs []mongoSubmission
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode submissions: %w", err)
	}
	out := make([]*domain.Submission, 0, len(docs))
	for i := range docs {
		out = append(out, docs[i].toDomain())
	}
	return out, nil
}

func (r *SubmissionRepository) SetScore(ctx context.Context, assessmentID, id int64, score *int) (*domain.Submission, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	update := bson.M{
		"$set":   bson.M{"status": string(domain.SubmissionSubmitted)},
		"$unset": bson.M{"score": "", "graded_at": ""},
	}
	if score != nil {
		update = bson.M{"$set": bson.M{
			"status":    string(domain.SubmissionGraded),
			"score":     *score,
			"graded_at": time.Now().UTC().Unix(),
		}}
	}

	var doc mongoSubmission
	err := r.col.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "assessment_id": assessmentID},
		update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		if isNotFound(err) {
			return nil, domain.ErrSubmissionNotFound
		}
		return nil, fmt.Errorf("set submission score: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *SubmissionRepository) DeleteByAssessment(ctx context.Context, assessmentID int64) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.col.DeleteMany(ctx, bson.M{"assessment_id": assessmentID}); err != nil {
		return fmt.Errorf("delete assessment submissions: %w", err)
	}
	return nil
}

func (r *SubmissionRepository) DeleteByCourse(ctx context.Context, courseID int64) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.col.DeleteMany(ctx, bson.M{"course_id": courseID}); err != nil {
		return fmt.Errorf("delete course submissions: %w", err)
	}
	return nil
}
