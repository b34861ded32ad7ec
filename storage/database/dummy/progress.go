package dummydb

import (
	"context"

	"github.com/google/uuid"

	"github.com/darasahq/darasa/core/progress"
)

type progressRepository struct {
	db *progressTable
}

var _ progress.Repository = (*progressRepository)(nil) // interface compliance check

func NewProgressRepository(db *DB) progress.Repository {
	return &progressRepository{db: db.progress}
}

// UpsertProgress is idempotent: re-marking a completed lesson returns the
// existing row with its original completion timestamp.
func (repo *progressRepository) UpsertProgress(_ context.Context, prg progress.LessonProgress) (progress.LessonProgress, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, existing := range repo.db.table {
		if existing.UserID == prg.UserID && existing.CourseID == prg.CourseID && existing.LessonID == prg.LessonID {
			if !existing.Completed && prg.Completed {
				existing.Completed = true
				existing.CompletedAt = prg.CompletedAt
			}
			return *existing, nil
		}
	}
	prg.ID = uuid.New().String()
	repo.db.table[prg.ID] = &prg
	return prg, nil
}

func (repo *progressRepository) QueryProgress(_ context.Context, userID, courseID string) ([]progress.LessonProgress, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var rows []progress.LessonProgress
	for _, prg := range repo.db.table {
		if prg.UserID == userID && prg.CourseID == courseID {
			rows = append(rows, *prg)
		}
	}
	return rows, nil
}

func (repo *progressRepository) CountCompleted(_ context.Context, userID, courseID string) (int, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var count int
	for _, prg := range repo.db.table {
		if prg.UserID == userID && prg.CourseID == courseID && prg.Completed {
			count++
		}
	}
	return count, nil
}
