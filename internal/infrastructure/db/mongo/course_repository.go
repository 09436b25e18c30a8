package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/eduacademy/academy-api/internal/core/domain"
	"github.com/eduacademy/academy-api/internal/core/ports"
)

const (
	collectionCourses = "courses"
	collectionLessons = "lessons"
)

// CourseRepository stores courses with their membership lists embedded.
type CourseRepository struct {
	db  *mongo.Database
	col *mongo.Collection
}

func NewCourseRepository(db *mongo.Database) *CourseRepository {
	return &CourseRepository{db: db, col: db.Collection(collectionCourses)}
}

type mongoCourse struct {
	ID            int64   `bson:"_id"`
	Name          string  `bson:"name"`
	Description   string  `bson:"description"`
	Published     bool    `bson:"published"`
	InstructorIDs []int64 `bson:"instructor_ids"`
	StudentIDs    []int64 `bson:"student_ids"`
	CreatedAt     int64   `bson:"created_at"`
	UpdatedAt     int64   `bson:"updated_at"`
}

func courseDoc(c *domain.Course) mongoCourse {
	doc := mongoCourse{
		ID:            c.ID,
		Name:          c.Name,
		Description:   c.Description,
		Published:     c.Published,
		InstructorIDs: c.InstructorIDs,
		StudentIDs:    c.StudentIDs,
		CreatedAt:     c.CreatedAt.Unix(),
		UpdatedAt:     c.UpdatedAt.Unix(),
	}
	if doc.InstructorIDs == nil {
		doc.InstructorIDs = []int64{}
	}
	if doc.StudentIDs == nil {
		doc.StudentIDs = []int64{}
	}
	return doc
}

func (mc *mongoCourse) toDomain() *domain.Course {
	return &domain.Course{
		ID:            mc.ID,
		Name:          mc.Name,
		Description:   mc.Description,
		Published:     mc.Published,
		InstructorIDs: mc.InstructorIDs,
		StudentIDs:    mc.StudentIDs,
		CreatedAt:     unixToTime(mc.CreatedAt),
		UpdatedAt:     unixToTime(mc.UpdatedAt),
	}
}

func (r *CourseRepository) Create(ctx context.Context, c *domain.Course) (*domain.Course, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	id, err := nextID(ctx, r.db, collectionCourses)
	if err != nil {
		return nil, err
	}
	doc := courseDoc(c)
	doc.ID = id
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return nil, fmt.Errorf("insert course: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *CourseRepository) FindByID(ctx context.Context, id int64) (*domain.Course, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc mongoCourse
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if isNotFound(err) {
			return nil, domain.ErrCourseNotFound
		}
		return nil, fmt.Errorf("find course: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *CourseRepository) List(ctx context.Context, f ports.CourseFilter) ([]*domain.Course, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{}
	if f.Published != nil {
		filter["published"] = *f.Published
	}
	if f.InstructorID != 0 {
		filter["instructor_ids"] = f.InstructorID
	}
	if f.StudentID != 0 {
		filter["student_ids"] = f.StudentID
	}

	cur, err := r.col.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	var docs []mongoCourse
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode courses: %w", err)
	}
	out := make([]*domain.Course, 0, len(docs))
	for i := range docs {
		out = append(out, docs[i].toDomain())
	}
	return out, nil
}

func (r *CourseRepository) Update(ctx context.Context, c *domain.Course) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.ReplaceOne(ctx, bson.M{"_id": c.ID}, courseDoc(c))
	if err != nil {
		return fmt.Errorf("update course: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrCourseNotFound
	}
	return nil
}

// AddStudent uses $addToSet so concurrent approvals cannot duplicate a member.
func (r *CourseRepository) AddStudent(ctx context.Context, courseID, studentID int64) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": courseID},
		bson.M{"$addToSet": bson.M{"student_ids": studentID}},
	)
	if err != nil {
		return fmt.Errorf("add student: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrCourseNotFound
	}
	return nil
}

func (r *CourseRepository) RemoveStudent(ctx context.Context, courseID, studentID int64) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": courseID, "student_ids": studentID},
		bson.M{"$pull": bson.M{"student_ids": studentID}},
	)
	if err != nil {
		return fmt.Errorf("remove student: %w", err)
	}
	if res.MatchedCount > 0 {
		return nil
	}
	n, err := r.col.CountDocuments(ctx, bson.M{"_id": courseID})
	if err != nil {
		return fmt.Errorf("count course: %w", err)
	}
	if n == 0 {
		return domain.ErrCourseNotFound
	}
	return domain.ErrNotEnrolled
}

func (r *CourseRepository) Delete(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete course: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrCourseNotFound
	}
	return nil
}

// LessonRepository stores lessons keyed by id and indexed by course.
type LessonRepository struct {
	db  *mongo.Database
	col *mongo.Collection
}

func NewLessonRepository(db *mongo.Database) *LessonRepository {
	return &LessonRepository{db: db, col: db.Collection(collectionLessons)}
}

type mongoLesson struct {
	ID        int64  `bson:"_id"`
	CourseID  int64  `bson:"course_id"`
	Title     string `bson:"title"`
	Content   string `bson:"content"`
	CreatedAt int64  `bson:"created_at"`
	UpdatedAt int64  `bson:"updated_at"`
}

func (ml *mongoLesson) toDomain() *domain.Lesson {
	return &domain.Lesson{
		ID:        ml.ID,
		CourseID:  ml.CourseID,
		Title:     ml.Title,
		Content:   ml.Content,
		CreatedAt: unixToTime(ml.CreatedAt),
		UpdatedAt: unixToTime(ml.UpdatedAt),
	}
}

func (r *LessonRepository) Create(ctx context.Context, l *domain.Lesson) (*domain.Lesson, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	id, err := nextID(ctx, r.db, collectionLessons)
	if err != nil {
		return nil, err
	}
	doc := mongoLesson{
		ID:        id,
		CourseID:  l.CourseID,
		Title:     l.Title,
		Content:   l.Content,
		CreatedAt: l.CreatedAt.Unix(),
		UpdatedAt: l.UpdatedAt.Unix(),
	}
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return nil, fmt.Errorf("insert lesson: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *LessonRepository) FindByID(ctx context.Context, courseID, lessonID int64) (*domain.Lesson, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc mongoLesson
	if err := r.col.FindOne(ctx, bson.M{"_id": lessonID, "course_id": courseID}).Decode(&doc); err != nil {
		if isNotFound(err) {
			return nil, domain.ErrLessonNotFound
		}
		return nil, fmt.Errorf("find lesson: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *LessonRepository) ListByCourse(ctx context.Context, courseID int64) ([]*domain.Lesson, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.col.Find(ctx, bson.M{"course_id": courseID}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list lessons: %w", err)
	}
	var docs []mongoLesson
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode lessons: %w", err)
	}
	out := make([]*domain.Lesson, 0, len(docs))
	for i := range docs {
		out = append(out, docs[i].toDomain())
	}
	return out, nil
}

func (r *LessonRepository) Update(ctx context.Context, l *domain.Lesson) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": l.ID, "course_id": l.CourseID},
		bson.M{"$set": bson.M{
			"title":      l.Title,
			"content":    l.Content,
			"updated_at": l.UpdatedAt.Unix(),
		}},
	)
	if err != nil {
		return fmt.Errorf("update lesson: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrLessonNotFound
	}
	return nil
}

func (r *LessonRepository) Delete(ctx context.Context, courseID, lessonID int64) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": lessonID, "course_id": courseID})
	if err != nil {
		return fmt.Errorf("delete lesson: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrLessonNotFound
	}
	return nil
}

func (r *LessonRepository) DeleteByCourse(ctx context.Context, courseID int64) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.col.DeleteMany(ctx, bson.M{"course_id": courseID}); err != nil {
		return fmt.Errorf("delete course lessons: %w", err)
	}
	return nil
}
