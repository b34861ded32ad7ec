package course_test

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/darasahq/darasa/core/course"
	dummydb "github.com/darasahq/darasa/storage/database/dummy"
)

func setup(t *testing.T) *course.Service {
	db, err := dummydb.Open()
	require.NoError(t, err)
	return course.NewService(dummydb.NewCourseRepository(db))
}

func TestService_CreateAndQuery(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	crs, err := svc.Create(ctx, course.NewCourse{Title: "Go from Scratch", Description: "Backends in Go."})
	require.NoError(t, err)
	assert.NotEmpty(t, crs.ID)
	assert.True(t, crs.IsActive, "courses default to active")

	inactive := false
	archived, err := svc.Create(ctx, course.NewCourse{Title: "Practical SQL", IsActive: &inactive})
	require.NoError(t, err)
	assert.False(t, archived.IsActive)

	all, err := svc.Query(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	active := true
	onlyActive, err := svc.Query(ctx, &course.QueryFilter{IsActive: &active})
	require.NoError(t, err)
	require.Len(t, onlyActive, 1)
	assert.Equal(t, crs.ID, onlyActive[0].ID)

	found, err := svc.Query(ctx, &course.QueryFilter{Search: "sql"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, archived.ID, found[0].ID)
}

func TestService_Update(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	crs, err := svc.Create(ctx, course.NewCourse{Title: "Go from Scratch"})
	require.NoError(t, err)

	inactive := false
	updated, err := svc.Update(ctx, crs.ID, course.UpdateCourse{Title: "Go from Zero", IsActive: &inactive})
	require.NoError(t, err)
	assert.Equal(t, "Go from Zero", updated.Title)
	assert.False(t, updated.IsActive)

	_, err = svc.Update(ctx, "nope", course.UpdateCourse{Title: "x"})
	assert.Equal(t, course.ErrNotFound, errors.Cause(err))
}

func TestService_Lessons(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	crs, err := svc.Create(ctx, course.NewCourse{Title: "Go from Scratch"})
	require.NoError(t, err)

	_, err = svc.AddLesson(ctx, crs.ID, course.NewLesson{Title: "Goroutines", Position: 1})
	require.NoError(t, err)
	_, err = svc.AddLesson(ctx, crs.ID, course.NewLesson{Title: "Hello, Go", Position: 0})
	require.NoError(t, err)

	_, err = svc.AddLesson(ctx, "nope", course.NewLesson{Title: "Lost"})
	assert.Equal(t, course.ErrNotFound, errors.Cause(err))

	lessons, err := svc.Lessons(ctx, crs.ID)
	require.NoError(t, err)
	require.Len(t, lessons, 2)
	// ordered by position
	assert.Equal(t, "Hello, Go", lessons[0].Title)
	assert.Equal(t, "Goroutines", lessons[1].Title)
}
