package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/darasahq/darasa/core"
	"github.com/darasahq/darasa/core/enroll"
)

type enrollRepository struct {
	db *sqlx.DB
}

var _ enroll.Repository = (*enrollRepository)(nil) // interface compliance check

func NewEnrollRepository(db *sqlx.DB) enroll.Repository {
	return &enrollRepository{db: db}
}

// CreateEnrollment inserts the row or keeps the existing one; the unique
// (user_id, course_id) constraint arbitrates concurrent attempts.
func (repo *enrollRepository) CreateEnrollment(ctx context.Context, enr enroll.Enrollment) (enroll.Enrollment, bool, error) {
	enr.ID = uuid.New().String()
	query := `
		INSERT INTO enrollment (id, user_id, course_id, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT ON CONSTRAINT enrollment_user_course_key DO NOTHING
		RETURNING id`
	var id string
	err := repo.db.GetContext(ctx, &id, query, enr.ID, enr.UserID, enr.CourseID, enr.CreatedAt)
	if err == nil {
		return enr, true, nil
	}
	if err != sql.ErrNoRows {
		return enroll.Enrollment{}, false, core.NewTransientError(err, "inserting enrollment")
	}

	// conflict: another call won the race; return the existing row
	existing, err := repo.GetEnrollment(ctx, enr.UserID, enr.CourseID)
	if err != nil {
		return enroll.Enrollment{}, false, err
	}
	return existing, false, nil
}

func (repo *enrollRepository) GetEnrollment(ctx context.Context, userID, courseID string) (enroll.Enrollment, error) {
	var enr enroll.Enrollment
	query := `SELECT * FROM enrollment WHERE user_id = $1 AND course_id = $2`
	if err := repo.db.GetContext(ctx, &enr, query, userID, courseID); err != nil {
		return enroll.Enrollment{}, trapNoRowsErr(err, enroll.ErrNotFound, "finding enrollment")
	}
	return enr, nil
}

func (repo *enrollRepository) QueryEnrollments(ctx context.Context, userID string) ([]enroll.Enrollment, error) {
	var enrs []enroll.Enrollment
	query := `SELECT * FROM enrollment WHERE user_id = $1 ORDER BY created_at DESC`
	if err := repo.db.SelectContext(ctx, &enrs, query, userID); err != nil {
		return nil, core.NewTransientError(err, "querying enrollments")
	}
	return enrs, nil
}
