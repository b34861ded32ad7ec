package dummydb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/darasahq/darasa/core/enroll"
)

type enrollRepository struct {
	db *enrollTable
}

var _ enroll.Repository = (*enrollRepository)(nil) // interface compliance check

func NewEnrollRepository(db *DB) enroll.Repository {
	return &enrollRepository{db: db.enroll}
}

// CreateEnrollment does check-and-insert in one critical section so concurrent
// attempts for the same (user, course) pair yield exactly one row.
func (repo *enrollRepository) CreateEnrollment(_ context.Context, enr enroll.Enrollment) (enroll.Enrollment, bool, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, existing := range repo.db.table {
		if existing.UserID == enr.UserID && existing.CourseID == enr.CourseID {
			return *existing, false, nil
		}
	}
	enr.ID = uuid.New().String()
	repo.db.table[enr.ID] = &enr
	return enr, true, nil
}

func (repo *enrollRepository) GetEnrollment(_ context.Context, userID, courseID string) (enroll.Enrollment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, enr := range repo.db.table {
		if enr.UserID == userID && enr.CourseID == courseID {
			return *enr, nil
		}
	}
	return enroll.Enrollment{}, enroll.ErrNotFound
}

func (repo *enrollRepository) QueryEnrollments(_ context.Context, userID string) ([]enroll.Enrollment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var enrs []enroll.Enrollment
	for _, enr := range repo.db.table {
		if enr.UserID == userID {
			enrs = append(enrs, *enr)
		}
	}
	sort.Slice(enrs, func(i, j int) bool { return enrs[i].CreatedAt.After(enrs[j].CreatedAt) })
	return enrs, nil
}
