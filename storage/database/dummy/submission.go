package dummydb

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"

	"github.com/darasahq/darasa/core/assignment"
)

type assignmentRepository struct {
	db *assignmentTable
}

var _ assignment.Repository = (*assignmentRepository)(nil) // interface compliance check

func NewAssignmentRepository(db *DB) assignment.Repository {
	return &assignmentRepository{db: db.assignment}
}

func (repo *assignmentRepository) CreateAssignment(_ context.Context, asg assignment.Assignment) (assignment.Assignment, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	asg.ID = uuid.New().String()
	repo.db.assignments[asg.ID] = &asg
	return asg, nil
}

func (repo *assignmentRepository) GetAssignment(_ context.Context, id string) (assignment.Assignment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if asg, ok := repo.db.assignments[id]; ok {
		return *asg, nil
	}
	return assignment.Assignment{}, assignment.ErrNotFound
}

func (repo *assignmentRepository) QueryAssignments(_ context.Context, courseID string) ([]assignment.Assignment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var asgs []assignment.Assignment
	for _, asg := range repo.db.assignments {
		if asg.CourseID == courseID {
			asgs = append(asgs, *asg)
		}
	}
	sort.Slice(asgs, func(i, j int) bool { return asgs[i].DueDate.Before(asgs[j].DueDate) })
	return asgs, nil
}

// UpsertSubmission overwrites any previous attempt for the (assignment, user)
// pair in place. The row keeps its original ID and the previous grade is
// cleared.
func (repo *assignmentRepository) UpsertSubmission(_ context.Context, sub assignment.Submission) (assignment.Submission, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, existing := range repo.db.submissions {
		if existing.AssignmentID == sub.AssignmentID && existing.UserID == sub.UserID {
			existing.SubmittedAt = sub.SubmittedAt
			existing.IsLate = sub.IsLate
			existing.DaysLate = sub.DaysLate
			existing.FilePaths = sub.FilePaths
			existing.Notes = sub.Notes
			existing.Score = null.Int{}
			existing.Feedback = null.String{}
			existing.GradedAt = null.Time{}
			return *existing, nil
		}
	}
	sub.ID = uuid.New().String()
	repo.db.submissions[sub.ID] = &sub
	return sub, nil
}

func (repo *assignmentRepository) GetSubmission(_ context.Context, id string) (assignment.Submission, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if sub, ok := repo.db.submissions[id]; ok {
		return *sub, nil
	}
	return assignment.Submission{}, assignment.ErrSubmissionNotFound
}

func (repo *assignmentRepository) QuerySubmissions(_ context.Context, assignmentID string) ([]assignment.Submission, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var subs []assignment.Submission
	for _, sub := range repo.db.submissions {
		if sub.AssignmentID == assignmentID {
			subs = append(subs, *sub)
		}
	}
	sort.Slice(subs, func(i, j int) bool { return subs[i].SubmittedAt.After(subs[j].SubmittedAt) })
	return subs, nil
}

func (repo *assignmentRepository) UpdateSubmissionGrade(_ context.Context, sub assignment.Submission) (assignment.Submission, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	existing, ok := repo.db.submissions[sub.ID]
	if !ok {
		return assignment.Submission{}, assignment.ErrSubmissionNotFound
	}
	existing.Score = sub.Score
	existing.Feedback = sub.Feedback
	existing.GradedAt = sub.GradedAt
	return *existing, nil
}
