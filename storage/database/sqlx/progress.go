package sqlxrepos

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/darasahq/darasa/core"
	"github.com/darasahq/darasa/core/progress"
)

type progressRepository struct {
	db *sqlx.DB
}

var _ progress.Repository = (*progressRepository)(nil) // interface compliance check

func NewProgressRepository(db *sqlx.DB) progress.Repository {
	return &progressRepository{db: db}
}

// UpsertProgress marks the lesson completed; re-marking keeps the original
// completion timestamp so the operation is a true no-op.
func (repo *progressRepository) UpsertProgress(ctx context.Context, prg progress.LessonProgress) (progress.LessonProgress, error) {
	prg.ID = uuid.New().String()
	query := `
		INSERT INTO lesson_progress (id, user_id, course_id, lesson_id, completed, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT ON CONSTRAINT lesson_progress_user_course_lesson_key
		DO UPDATE SET
			completed    = lesson_progress.completed OR EXCLUDED.completed,
			completed_at = COALESCE(lesson_progress.completed_at, EXCLUDED.completed_at)
		RETURNING id, completed, completed_at`
	row := repo.db.QueryRowxContext(ctx, query,
		prg.ID, prg.UserID, prg.CourseID, prg.LessonID, prg.Completed, prg.CompletedAt,
	)
	if err := row.Scan(&prg.ID, &prg.Completed, &prg.CompletedAt); err != nil {
		return progress.LessonProgress{}, core.NewTransientError(err, "upserting lesson progress")
	}
	return prg, nil
}

func (repo *progressRepository) QueryProgress(ctx context.Context, userID, courseID string) ([]progress.LessonProgress, error) {
	var rows []progress.LessonProgress
	query := `SELECT * FROM lesson_progress WHERE user_id = $1 AND course_id = $2`
	if err := repo.db.SelectContext(ctx, &rows, query, userID, courseID); err != nil {
		return nil, core.NewTransientError(err, "querying lesson progress")
	}
	return rows, nil
}

func (repo *progressRepository) CountCompleted(ctx context.Context, userID, courseID string) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM lesson_progress WHERE user_id = $1 AND course_id = $2 AND completed`
	if err := repo.db.GetContext(ctx, &count, query, userID, courseID); err != nil {
		return 0, core.NewTransientError(err, "counting completed lessons")
	}
	return count, nil
}
