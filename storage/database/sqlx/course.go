package sqlxrepos

import (
	"context"
	"strconv"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/darasahq/darasa/core"
	"github.com/darasahq/darasa/core/course"
)

type courseRepository struct {
	db *sqlx.DB
}

var _ course.Repository = (*courseRepository)(nil) // interface compliance check

func NewCourseRepository(db *sqlx.DB) course.Repository {
	return &courseRepository{db: db}
}

func (repo *courseRepository) CreateCourse(ctx context.Context, crs course.Course) (course.Course, error) {
	crs.ID = uuid.New().String()
	query := `
		INSERT INTO course (id, title, description, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := repo.db.ExecContext(ctx, query,
		crs.ID, crs.Title, crs.Description, crs.IsActive, crs.CreatedAt, crs.UpdatedAt,
	)
	if err != nil {
		return course.Course{}, core.NewTransientError(err, "inserting course")
	}
	return crs, nil
}

func (repo *courseRepository) GetCourse(ctx context.Context, id string) (course.Course, error) {
	if _, err := uuid.Parse(id); err != nil {
		return course.Course{}, course.ErrNotFound
	}
	var crs course.Course
	if err := repo.db.GetContext(ctx, &crs, `SELECT * FROM course WHERE id = $1`, id); err != nil {
		return course.Course{}, trapNoRowsErr(err, course.ErrNotFound, "finding course")
	}
	return crs, nil
}

func (repo *courseRepository) QueryCourses(ctx context.Context, filter *course.QueryFilter) ([]course.Course, error) {
	query := `SELECT * FROM course WHERE true`
	var args []interface{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if filter != nil {
		if filter.Search != "" {
			p := arg("%" + filter.Search + "%")
			query += ` AND (title ILIKE ` + p + ` OR description ILIKE ` + p + `)`
		}
		if filter.IsActive != nil {
			query += ` AND is_active = ` + arg(*filter.IsActive)
		}
	}
	query += ` ORDER BY created_at DESC`

	var courses []course.Course
	if err := repo.db.SelectContext(ctx, &courses, query, args...); err != nil {
		return nil, core.NewTransientError(err, "querying courses")
	}
	return courses, nil
}

func (repo *courseRepository) UpdateCourse(ctx context.Context, crs course.Course, isActive *bool) (course.Course, error) {
	query := `
		UPDATE course SET
			title       = COALESCE(NULLIF($2, ''), title),
			description = COALESCE(NULLIF($3, ''), description),
			is_active   = COALESCE($4, is_active),
			updated_at  = $5
		WHERE id = $1`
	res, err := repo.db.ExecContext(ctx, query, crs.ID, crs.Title, crs.Description, isActive, crs.UpdatedAt)
	if err != nil {
		return course.Course{}, core.NewTransientError(err, "updating course")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return course.Course{}, course.ErrNotFound
	}
	return repo.GetCourse(ctx, crs.ID)
}

func (repo *courseRepository) CreateLesson(ctx context.Context, lsn course.Lesson) (course.Lesson, error) {
	lsn.ID = uuid.New().String()
	query := `INSERT INTO lesson (id, course_id, title, position) VALUES ($1, $2, $3, $4)`
	if _, err := repo.db.ExecContext(ctx, query, lsn.ID, lsn.CourseID, lsn.Title, lsn.Position); err != nil {
		return course.Lesson{}, core.NewTransientError(err, "inserting lesson")
	}
	return lsn, nil
}

func (repo *courseRepository) QueryLessons(ctx context.Context, courseID string) ([]course.Lesson, error) {
	var lessons []course.Lesson
	query := `SELECT * FROM lesson WHERE course_id = $1 ORDER BY position, title`
	if err := repo.db.SelectContext(ctx, &lessons, query, courseID); err != nil {
		return nil, core.NewTransientError(err, "querying lessons")
	}
	return lessons, nil
}

func (repo *courseRepository) CountLessons(ctx context.Context, courseID string) (int, error) {
	var count int
	if err := repo.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM lesson WHERE course_id = $1`, courseID); err != nil {
		return 0, core.NewTransientError(err, "counting lessons")
	}
	return count, nil
}
