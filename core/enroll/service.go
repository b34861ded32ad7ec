package enroll

import (
	"context"
	"errors"
	"time"

	pkgerrors "github.com/pkg/errors"

	"github.com/darasahq/darasa/core"
	"github.com/darasahq/darasa/core/course"
)

var (
	// errors
	ErrNotFound       = errors.New("enrollment not found")
	ErrCourseInactive = errors.New("this course is not open for enrollment")
)

type (
	Repository interface {
		// CreateEnrollment atomically creates the (user, course) row or
		// returns the existing one; created reports which happened. The
		// uniqueness constraint is the enforcement mechanism, never a
		// read-then-write check.
		CreateEnrollment(ctx context.Context, enr Enrollment) (e Enrollment, created bool, err error)
		GetEnrollment(ctx context.Context, userID, courseID string) (Enrollment, error)
		QueryEnrollments(ctx context.Context, userID string) ([]Enrollment, error)
	}

	Service struct {
		repo    Repository
		courses course.Repository
	}
)

func NewService(repo Repository, courses course.Repository) *Service {
	return &Service{repo: repo, courses: courses}
}

// IsEnrolled reports whether an Enrollment row exists for the pair.
// A missing row is (false, nil); a genuine query failure is (false, err) —
// the two are never conflated.
func (svc *Service) IsEnrolled(ctx context.Context, userID, courseID string) (bool, error) {
	if _, err := svc.repo.GetEnrollment(ctx, userID, courseID); err != nil {
		if pkgerrors.Cause(err) == ErrNotFound {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Enroll grants the user access to the course. Enrolling twice is not an
// error: the existing row is returned, so duplicate-click races from the UI
// resolve silently. Inactive courses reject new enrollment.
func (svc *Service) Enroll(ctx context.Context, userID, courseID string) (Enrollment, error) {
	crs, err := svc.courses.GetCourse(ctx, courseID)
	if err != nil {
		return Enrollment{}, err
	}
	if !crs.IsActive {
		return Enrollment{}, core.NewValidationError(ErrCourseInactive)
	}

	enr := Enrollment{
		UserID:    userID,
		CourseID:  courseID,
		CreatedAt: time.Now().UTC(),
	}
	// enroll has side effects the learner relies on; retry transient faults
	// rather than letting an unconfirmed write look like a success
	err = core.Retry(2, func() error {
		var cErr error
		enr, _, cErr = svc.repo.CreateEnrollment(ctx, enr)
		return cErr
	})
	if err != nil {
		return Enrollment{}, err
	}
	return enr, nil
}

// Enrollments lists all of the user's enrollments.
func (svc *Service) Enrollments(ctx context.Context, userID string) ([]Enrollment, error) {
	return svc.repo.QueryEnrollments(ctx, userID)
}
