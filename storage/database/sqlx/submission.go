package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/volatiletech/null/v8"

	"github.com/darasahq/darasa/core"
	"github.com/darasahq/darasa/core/assignment"
)

type assignmentRepository struct {
	db *sqlx.DB
}

var _ assignment.Repository = (*assignmentRepository)(nil) // interface compliance check

func NewAssignmentRepository(db *sqlx.DB) assignment.Repository {
	return &assignmentRepository{db: db}
}

type submissionRow struct {
	ID           string         `db:"id"`
	AssignmentID string         `db:"assignment_id"`
	UserID       string         `db:"user_id"`
	SubmittedAt  time.Time      `db:"submitted_at"`
	IsLate       bool           `db:"is_late"`
	DaysLate     int            `db:"days_late"`
	FilePaths    pq.StringArray `db:"file_paths"`
	Notes        string         `db:"notes"`
	Score        null.Int       `db:"score"`
	Feedback     null.String    `db:"feedback"`
	GradedAt     null.Time      `db:"graded_at"`
}

func (r submissionRow) unpack() assignment.Submission {
	return assignment.Submission{
		ID:           r.ID,
		AssignmentID: r.AssignmentID,
		UserID:       r.UserID,
		SubmittedAt:  r.SubmittedAt,
		IsLate:       r.IsLate,
		DaysLate:     r.DaysLate,
		FilePaths:    r.FilePaths,
		Notes:        r.Notes,
		Score:        r.Score,
		Feedback:     r.Feedback,
		GradedAt:     r.GradedAt,
	}
}

func (repo *assignmentRepository) CreateAssignment(ctx context.Context, asg assignment.Assignment) (assignment.Assignment, error) {
	asg.ID = uuid.New().String()
	query := `
		INSERT INTO assignment (id, course_id, title, due_date, max_score, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := repo.db.ExecContext(ctx, query,
		asg.ID, asg.CourseID, asg.Title, asg.DueDate, asg.MaxScore, asg.CreatedAt,
	)
	if err != nil {
		return assignment.Assignment{}, core.NewTransientError(err, "inserting assignment")
	}
	return asg, nil
}

func (repo *assignmentRepository) GetAssignment(ctx context.Context, id string) (assignment.Assignment, error) {
	if _, err := uuid.Parse(id); err != nil {
		return assignment.Assignment{}, assignment.ErrNotFound
	}
	var asg assignment.Assignment
	if err := repo.db.GetContext(ctx, &asg, `SELECT * FROM assignment WHERE id = $1`, id); err != nil {
		return assignment.Assignment{}, trapNoRowsErr(err, assignment.ErrNotFound, "finding assignment")
	}
	return asg, nil
}

func (repo *assignmentRepository) QueryAssignments(ctx context.Context, courseID string) ([]assignment.Assignment, error) {
	var asgs []assignment.Assignment
	query := `SELECT * FROM assignment WHERE course_id = $1 ORDER BY due_date`
	if err := repo.db.SelectContext(ctx, &asgs, query, courseID); err != nil {
		return nil, core.NewTransientError(err, "querying assignments")
	}
	return asgs, nil
}

// UpsertSubmission applies latest-wins: a resubmission overwrites content and
// timeliness and clears the previous grade; the row ID stays stable.
func (repo *assignmentRepository) UpsertSubmission(ctx context.Context, sub assignment.Submission) (assignment.Submission, error) {
	sub.ID = uuid.New().String()
	query := `
		INSERT INTO submission (id, assignment_id, user_id, submitted_at, is_late, days_late, file_paths, notes, score, feedback, graded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NULL, NULL, NULL)
		ON CONFLICT ON CONSTRAINT submission_assignment_user_key
		DO UPDATE SET
			submitted_at = EXCLUDED.submitted_at,
			is_late      = EXCLUDED.is_late,
			days_late    = EXCLUDED.days_late,
			file_paths   = EXCLUDED.file_paths,
			notes        = EXCLUDED.notes,
			score        = NULL,
			feedback     = NULL,
			graded_at    = NULL
		RETURNING id`
	err := repo.db.GetContext(ctx, &sub.ID, query,
		sub.ID, sub.AssignmentID, sub.UserID, sub.SubmittedAt, sub.IsLate, sub.DaysLate,
		pq.StringArray(sub.FilePaths), sub.Notes,
	)
	if err != nil {
		return assignment.Submission{}, core.NewTransientError(err, "upserting submission")
	}
	sub.Score = null.Int{}
	sub.Feedback = null.String{}
	sub.GradedAt = null.Time{}
	return sub, nil
}

func (repo *assignmentRepository) GetSubmission(ctx context.Context, id string) (assignment.Submission, error) {
	if _, err := uuid.Parse(id); err != nil {
		return assignment.Submission{}, assignment.ErrSubmissionNotFound
	}
	var row submissionRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM submission WHERE id = $1`, id); err != nil {
		return assignment.Submission{}, trapNoRowsErr(err, assignment.ErrSubmissionNotFound, "finding submission")
	}
	return row.unpack(), nil
}

func (repo *assignmentRepository) QuerySubmissions(ctx context.Context, assignmentID string) ([]assignment.Submission, error) {
	var rows []submissionRow
	query := `SELECT * FROM submission WHERE assignment_id = $1 ORDER BY submitted_at DESC`
	if err := repo.db.SelectContext(ctx, &rows, query, assignmentID); err != nil {
		return nil, core.NewTransientError(err, "querying submissions")
	}
	subs := make([]assignment.Submission, 0, len(rows))
	for _, row := range rows {
		subs = append(subs, row.unpack())
	}
	return subs, nil
}

func (repo *assignmentRepository) UpdateSubmissionGrade(ctx context.Context, sub assignment.Submission) (assignment.Submission, error) {
	query := `UPDATE submission SET score = $2, feedback = $3, graded_at = $4 WHERE id = $1`
	res, err := repo.db.ExecContext(ctx, query, sub.ID, sub.Score, sub.Feedback, sub.GradedAt)
	if err != nil {
		return assignment.Submission{}, core.NewTransientError(err, "updating submission grade")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return assignment.Submission{}, assignment.ErrSubmissionNotFound
	}
	return sub, nil
}
