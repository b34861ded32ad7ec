package enroll_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/darasahq/darasa/core"
	"github.com/darasahq/darasa/core/course"
	"github.com/darasahq/darasa/core/enroll"
	dummydb "github.com/darasahq/darasa/storage/database/dummy"
)

func setup(t *testing.T) (*enroll.Service, enroll.Repository, course.Repository) {
	db, err := dummydb.Open()
	require.NoError(t, err)

	enrRepo := dummydb.NewEnrollRepository(db)
	crsRepo := dummydb.NewCourseRepository(db)
	return enroll.NewService(enrRepo, crsRepo), enrRepo, crsRepo
}

func createCourse(t *testing.T, repo course.Repository, title string, isActive bool) course.Course {
	now := time.Now().UTC()
	crs, err := repo.CreateCourse(context.Background(), course.Course{
		Title:     title,
		IsActive:  isActive,
		CreatedAt: now,
		UpdatedAt: now,
	})
	require.NoError(t, err)
	return crs
}

func TestService_Enroll(t *testing.T) {
	svc, _, crsRepo := setup(t)
	ctx := context.Background()

	crs := createCourse(t, crsRepo, "Go from Scratch", true)
	userID := uuid.New().String()

	enr, err := svc.Enroll(ctx, userID, crs.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, enr.ID)
	assert.Equal(t, userID, enr.UserID)
	assert.Equal(t, crs.ID, enr.CourseID)

	// enrolling again returns the same row, not an error
	again, err := svc.Enroll(ctx, userID, crs.ID)
	require.NoError(t, err)
	assert.Equal(t, enr.ID, again.ID)

	enrs, err := svc.Enrollments(ctx, userID)
	require.NoError(t, err)
	assert.Len(t, enrs, 1)
}

func TestService_Enroll_inactiveCourse(t *testing.T) {
	svc, _, crsRepo := setup(t)
	ctx := context.Background()

	crs := createCourse(t, crsRepo, "Archived", false)

	_, err := svc.Enroll(ctx, uuid.New().String(), crs.ID)
	require.Error(t, err)
	vErr, ok := errors.Cause(err).(*core.ValidationError)
	require.True(t, ok, "expected a validation error, got %T", err)
	assert.Equal(t, enroll.ErrCourseInactive.Error(), vErr.Error())
}

func TestService_Enroll_unknownCourse(t *testing.T) {
	svc, _, _ := setup(t)

	_, err := svc.Enroll(context.Background(), uuid.New().String(), uuid.New().String())
	assert.Equal(t, course.ErrNotFound, errors.Cause(err))
}

func TestService_Enroll_concurrent(t *testing.T) {
	svc, _, crsRepo := setup(t)
	ctx := context.Background()

	crs := createCourse(t, crsRepo, "Go from Scratch", true)
	userID := uuid.New().String()

	const n = 16
	ids := make(chan string, n)
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			enr, err := svc.Enroll(ctx, userID, crs.ID)
			assert.NoError(t, err)
			ids <- enr.ID
		}()
	}
	wg.Wait()
	close(ids)

	// every racer got the one and only row
	var first string
	for id := range ids {
		if first == "" {
			first = id
			continue
		}
		assert.Equal(t, first, id)
	}

	enrs, err := svc.Enrollments(ctx, userID)
	require.NoError(t, err)
	assert.Len(t, enrs, 1)
}

func TestService_IsEnrolled(t *testing.T) {
	svc, _, crsRepo := setup(t)
	ctx := context.Background()

	crs := createCourse(t, crsRepo, "Go from Scratch", true)
	userID := uuid.New().String()

	enrolled, err := svc.IsEnrolled(ctx, userID, crs.ID)
	require.NoError(t, err)
	assert.False(t, enrolled)

	_, err = svc.Enroll(ctx, userID, crs.ID)
	require.NoError(t, err)

	enrolled, err = svc.IsEnrolled(ctx, userID, crs.ID)
	require.NoError(t, err)
	assert.True(t, enrolled)
}

// failingEnrollRepo fails a configurable number of times with a transient
// error before delegating to the real repository.
type failingEnrollRepo struct {
	enroll.Repository
	mu       sync.Mutex
	failures int
}

func (repo *failingEnrollRepo) CreateEnrollment(ctx context.Context, enr enroll.Enrollment) (enroll.Enrollment, bool, error) {
	repo.mu.Lock()
	fail := repo.failures > 0
	if fail {
		repo.failures--
	}
	repo.mu.Unlock()

	if fail {
		return enroll.Enrollment{}, false, core.NewTransientError(errors.New("connection reset"), "creating enrollment")
	}
	return repo.Repository.CreateEnrollment(ctx, enr)
}

func (repo *failingEnrollRepo) GetEnrollment(_ context.Context, _, _ string) (enroll.Enrollment, error) {
	return enroll.Enrollment{}, core.NewTransientError(errors.New("connection reset"), "getting enrollment")
}

func TestService_Enroll_retriesTransientFaults(t *testing.T) {
	db, err := dummydb.Open()
	require.NoError(t, err)

	crsRepo := dummydb.NewCourseRepository(db)
	crs := createCourse(t, crsRepo, "Go from Scratch", true)

	repo := &failingEnrollRepo{Repository: dummydb.NewEnrollRepository(db), failures: 1}
	svc := enroll.NewService(repo, crsRepo)

	enr, err := svc.Enroll(context.Background(), uuid.New().String(), crs.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, enr.ID)
}

func TestService_IsEnrolled_failureIsNotAbsence(t *testing.T) {
	db, err := dummydb.Open()
	require.NoError(t, err)

	repo := &failingEnrollRepo{Repository: dummydb.NewEnrollRepository(db)}
	svc := enroll.NewService(repo, dummydb.NewCourseRepository(db))

	_, err = svc.IsEnrolled(context.Background(), uuid.New().String(), uuid.New().String())
	require.Error(t, err, "a backend fault must surface, not read as not-enrolled")
	assert.True(t, core.IsTransient(err))
}
