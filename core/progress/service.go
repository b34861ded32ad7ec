package progress

import (
	"context"
	"errors"
	"time"

	"github.com/darasahq/darasa/core/course"
)

var ErrNotFound = errors.New("lesson progress not found")

type (
	Repository interface {
		// UpsertProgress marks the (user, course, lesson) row completed,
		// creating it if needed; idempotent on re-invocation.
		UpsertProgress(ctx context.Context, prg LessonProgress) (LessonProgress, error)
		QueryProgress(ctx context.Context, userID, courseID string) ([]LessonProgress, error)
		CountCompleted(ctx context.Context, userID, courseID string) (int, error)
	}

	Service struct {
		repo    Repository
		courses course.Repository
	}
)

func NewService(repo Repository, courses course.Repository) *Service {
	return &Service{repo: repo, courses: courses}
}

// MarkComplete records completion of a lesson. Safe to fire-and-forget:
// re-invocation is a no-op.
func (svc *Service) MarkComplete(ctx context.Context, userID, courseID, lessonID string) error {
	prg := LessonProgress{
		UserID:      userID,
		CourseID:    courseID,
		LessonID:    lessonID,
		Completed:   true,
		CompletedAt: time.Now().UTC(),
	}
	_, err := svc.repo.UpsertProgress(ctx, prg)
	return err
}

// CompletionPercentage derives the course completion ratio for the user,
// recomputed on every call so it observes the session's own prior writes.
// A course with zero lessons completes to 0, not a division fault.
func (svc *Service) CompletionPercentage(ctx context.Context, userID, courseID string) (float64, error) {
	total, err := svc.courses.CountLessons(ctx, courseID)
	if err != nil {
		return 0, err
	}
	if total == 0 {
		return 0, nil
	}
	completed, err := svc.repo.CountCompleted(ctx, userID, courseID)
	if err != nil {
		return 0, err
	}
	return float64(completed) / float64(total) * 100, nil
}

// Progress lists the user's per-lesson completion rows for a course.
func (svc *Service) Progress(ctx context.Context, userID, courseID string) ([]LessonProgress, error) {
	return svc.repo.QueryProgress(ctx, userID, courseID)
}
