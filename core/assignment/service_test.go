package assignment_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/darasahq/darasa/core"
	"github.com/darasahq/darasa/core/assignment"
	dummystorage "github.com/darasahq/darasa/services/storage/dummy"
	dummydb "github.com/darasahq/darasa/storage/database/dummy"
)

func setup(t *testing.T) (*assignment.Service, assignment.Repository) {
	db, err := dummydb.Open()
	require.NoError(t, err)

	repo := dummydb.NewAssignmentRepository(db)
	svc := assignment.NewService(repo, nil, nil, dummystorage.NewService())
	return svc, repo
}

func createAssignment(t *testing.T, repo assignment.Repository, dueDate time.Time, maxScore int) assignment.Assignment {
	asg, err := repo.CreateAssignment(context.Background(), assignment.Assignment{
		CourseID:  uuid.New().String(),
		Title:     "Build a CLI tool",
		DueDate:   dueDate.UTC(),
		MaxScore:  maxScore,
		CreatedAt: time.Now().UTC(),
	})
	require.NoError(t, err)
	return asg
}

func TestService_Submit_timeliness(t *testing.T) {
	dueDate := time.Date(2024, time.January, 10, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name         string
		submittedAt  time.Time
		wantLate     bool
		wantDaysLate int
		wantStatus   assignment.Status
	}{
		{
			name:        "well before due date",
			submittedAt: dueDate.Add(-48 * time.Hour),
			wantStatus:  assignment.StatusSubmittedOnTime,
		},
		{
			name:        "exactly at due date",
			submittedAt: dueDate,
			wantStatus:  assignment.StatusSubmittedOnTime,
		},
		{
			name:         "one second late counts a full day",
			submittedAt:  dueDate.Add(time.Second),
			wantLate:     true,
			wantDaysLate: 1,
			wantStatus:   assignment.StatusSubmittedLate,
		},
		{
			name:         "two days and three hours late",
			submittedAt:  time.Date(2024, time.January, 12, 3, 0, 0, 0, time.UTC),
			wantLate:     true,
			wantDaysLate: 3,
			wantStatus:   assignment.StatusSubmittedLate,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo := setup(t)
			asg := createAssignment(t, repo, dueDate, 100)

			assignment.NowFunc = func() time.Time { return tt.submittedAt }
			defer func() { assignment.NowFunc = time.Now }()

			sub, err := svc.Submit(context.Background(), asg.ID, uuid.New().String(), assignment.NewSubmission{Notes: "done"})
			require.NoError(t, err)
			assert.Equal(t, tt.wantLate, sub.IsLate)
			assert.Equal(t, tt.wantDaysLate, sub.DaysLate)
			assert.Equal(t, tt.wantStatus, sub.Status())
		})
	}
}

func TestService_Submit_latestWins(t *testing.T) {
	svc, repo := setup(t)
	ctx := context.Background()

	dueDate := time.Date(2024, time.January, 10, 0, 0, 0, 0, time.UTC)
	asg := createAssignment(t, repo, dueDate, 100)
	userID := uuid.New().String()
	defer func() { assignment.NowFunc = time.Now }()

	// first attempt: on time
	assignment.NowFunc = func() time.Time { return dueDate.Add(-time.Hour) }
	first, err := svc.Submit(ctx, asg.ID, userID, assignment.NewSubmission{Notes: "v1"})
	require.NoError(t, err)

	// grade it
	assignment.NowFunc = time.Now
	graded, err := svc.Grade(ctx, first.ID, assignment.GradeSubmission{Score: 90, Feedback: "good"})
	require.NoError(t, err)
	require.Equal(t, assignment.StatusGraded, graded.Status())

	// resubmission overwrites the attempt, clears the grade, keeps the row ID
	assignment.NowFunc = func() time.Time { return dueDate.Add(25 * time.Hour) }
	second, err := svc.Submit(ctx, asg.ID, userID, assignment.NewSubmission{Notes: "v2"})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "v2", second.Notes)
	assert.True(t, second.IsLate)
	assert.Equal(t, 2, second.DaysLate)
	assert.False(t, second.Score.Valid)
	assert.False(t, second.Feedback.Valid)
	assert.False(t, second.GradedAt.Valid)
	assert.Equal(t, assignment.StatusSubmittedLate, second.Status())

	subs, err := svc.Submissions(ctx, asg.ID)
	require.NoError(t, err)
	assert.Len(t, subs, 1)
}

func TestService_Grade(t *testing.T) {
	svc, repo := setup(t)
	ctx := context.Background()

	asg := createAssignment(t, repo, time.Now().Add(24*time.Hour), 100)
	sub, err := svc.Submit(ctx, asg.ID, uuid.New().String(), assignment.NewSubmission{})
	require.NoError(t, err)

	graded, err := svc.Grade(ctx, sub.ID, assignment.GradeSubmission{Score: 85, Feedback: "solid work"})
	require.NoError(t, err)
	assert.Equal(t, assignment.StatusGraded, graded.Status())
	assert.Equal(t, 85, graded.Score.Int)
	assert.Equal(t, "solid work", graded.Feedback.String)
	assert.True(t, graded.GradedAt.Valid)
	assert.Equal(t, 85, assignment.Percent(graded, asg))

	// re-grading overwrites score and feedback, never timeliness
	regraded, err := svc.Grade(ctx, sub.ID, assignment.GradeSubmission{Score: 70, Feedback: "after review"})
	require.NoError(t, err)
	assert.Equal(t, graded.ID, regraded.ID)
	assert.Equal(t, 70, regraded.Score.Int)
	assert.Equal(t, graded.IsLate, regraded.IsLate)
	assert.Equal(t, graded.SubmittedAt, regraded.SubmittedAt)
}

func TestService_Grade_scoreOutOfRange(t *testing.T) {
	svc, repo := setup(t)
	ctx := context.Background()

	asg := createAssignment(t, repo, time.Now().Add(24*time.Hour), 20)
	sub, err := svc.Submit(ctx, asg.ID, uuid.New().String(), assignment.NewSubmission{})
	require.NoError(t, err)

	_, err = svc.Grade(ctx, sub.ID, assignment.GradeSubmission{Score: 21})
	require.Error(t, err)
	vErr, ok := errors.Cause(err).(*core.ValidationError)
	require.True(t, ok, "expected a validation error, got %T", err)
	require.Len(t, vErr.Fields, 1)
	assert.Equal(t, "score", vErr.Fields[0].Field)

	// the rejected grade left the row untouched
	refreshed, err := svc.GetSubmission(ctx, sub.ID)
	require.NoError(t, err)
	assert.False(t, refreshed.Score.Valid)
	assert.Equal(t, assignment.StatusSubmittedOnTime, refreshed.Status())
}

func TestService_Grade_percentRounds(t *testing.T) {
	svc, repo := setup(t)
	ctx := context.Background()

	asg := createAssignment(t, repo, time.Now().Add(24*time.Hour), 30)
	sub, err := svc.Submit(ctx, asg.ID, uuid.New().String(), assignment.NewSubmission{})
	require.NoError(t, err)

	graded, err := svc.Grade(ctx, sub.ID, assignment.GradeSubmission{Score: 20})
	require.NoError(t, err)
	assert.Equal(t, 67, assignment.Percent(graded, asg)) // 66.67 rounds up
}

func TestService_UploadDownloadFile(t *testing.T) {
	svc, repo := setup(t)
	ctx := context.Background()

	asg := createAssignment(t, repo, time.Now().Add(24*time.Hour), 100)
	userID := uuid.New().String()
	content := []byte("package main\n")

	p, err := svc.UploadFile(ctx, asg.ID, userID, "main.go", content)
	require.NoError(t, err)
	assert.Contains(t, p, asg.ID)
	assert.Contains(t, p, userID)

	got, err := svc.DownloadFile(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, content, got)

	// same filename resubmitted never collides
	p2, err := svc.UploadFile(ctx, asg.ID, userID, "main.go", []byte("package main // v2\n"))
	require.NoError(t, err)
	assert.NotEqual(t, p, p2)
}

func TestSubmission_MarshalJSON_includesStatus(t *testing.T) {
	svc, repo := setup(t)
	ctx := context.Background()

	asg := createAssignment(t, repo, time.Now().Add(24*time.Hour), 100)
	sub, err := svc.Submit(ctx, asg.ID, uuid.New().String(), assignment.NewSubmission{})
	require.NoError(t, err)

	data, err := json.Marshal(sub)
	require.NoError(t, err)

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, string(assignment.StatusSubmittedOnTime), out["status"])
}
