package course

import (
	"context"
	"errors"
	"time"
)

var (
	// errors
	ErrNotFound       = errors.New("course not found")
	ErrLessonNotFound = errors.New("lesson not found")
)

type (
	Repository interface {
		CreateCourse(ctx context.Context, crs Course) (Course, error)
		GetCourse(ctx context.Context, id string) (Course, error)
		QueryCourses(ctx context.Context, filter *QueryFilter) ([]Course, error)
		UpdateCourse(ctx context.Context, crs Course, isActive *bool) (Course, error)

		CreateLesson(ctx context.Context, lsn Lesson) (Lesson, error)
		QueryLessons(ctx context.Context, courseID string) ([]Lesson, error)
		CountLessons(ctx context.Context, courseID string) (int, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Create(ctx context.Context, nc NewCourse) (Course, error) {
	now := time.Now().UTC()
	crs := Course{
		Title:       nc.Title,
		Description: nc.Description,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if nc.IsActive != nil {
		crs.IsActive = *nc.IsActive
	}
	return svc.repo.CreateCourse(ctx, crs)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Course, error) {
	return svc.repo.GetCourse(ctx, id)
}

func (svc *Service) Query(ctx context.Context, filter *QueryFilter) ([]Course, error) {
	return svc.repo.QueryCourses(ctx, filter)
}

func (svc *Service) Update(ctx context.Context, id string, uc UpdateCourse) (Course, error) {
	crs := Course{
		ID:          id,
		Title:       uc.Title,
		Description: uc.Description,
		UpdatedAt:   time.Now().UTC(),
	}
	return svc.repo.UpdateCourse(ctx, crs, uc.IsActive)
}

func (svc *Service) AddLesson(ctx context.Context, courseID string, nl NewLesson) (Lesson, error) {
	if _, err := svc.repo.GetCourse(ctx, courseID); err != nil {
		return Lesson{}, err
	}
	lsn := Lesson{
		CourseID: courseID,
		Title:    nl.Title,
		Position: nl.Position,
	}
	return svc.repo.CreateLesson(ctx, lsn)
}

func (svc *Service) Lessons(ctx context.Context, courseID string) ([]Lesson, error) {
	return svc.repo.QueryLessons(ctx, courseID)
}
