package dummydb

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/darasahq/darasa/core/course"
)

type courseRepository struct {
	db *courseTable
}

var _ course.Repository = (*courseRepository)(nil) // interface compliance check

func NewCourseRepository(db *DB) course.Repository {
	return &courseRepository{db: db.course}
}

func (repo *courseRepository) CreateCourse(_ context.Context, crs course.Course) (course.Course, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	crs.ID = uuid.New().String()
	repo.db.courses[crs.ID] = &crs
	return crs, nil
}

func (repo *courseRepository) GetCourse(_ context.Context, id string) (course.Course, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if crs, ok := repo.db.courses[id]; ok {
		return *crs, nil
	}
	return course.Course{}, course.ErrNotFound
}

func (repo *courseRepository) QueryCourses(_ context.Context, filter *course.QueryFilter) ([]course.Course, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	courses := make([]course.Course, 0, len(repo.db.courses))
	for _, crs := range repo.db.courses {
		if filter != nil {
			if filter.IsActive != nil && crs.IsActive != *filter.IsActive {
				continue
			}
			if filter.Search != "" {
				search := strings.ToLower(filter.Search)
				if !strings.Contains(strings.ToLower(crs.Title), search) &&
					!strings.Contains(strings.ToLower(crs.Description), search) {
					continue
				}
			}
		}
		courses = append(courses, *crs)
	}
	sort.Slice(courses, func(i, j int) bool { return courses[i].CreatedAt.After(courses[j].CreatedAt) })
	return courses, nil
}

func (repo *courseRepository) UpdateCourse(_ context.Context, crs course.Course, isActive *bool) (course.Course, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	origCrs, ok := repo.db.courses[crs.ID]
	if !ok {
		return course.Course{}, course.ErrNotFound
	}
	if crs.Title != "" {
		origCrs.Title = crs.Title
	}
	if crs.Description != "" {
		origCrs.Description = crs.Description
	}
	if isActive != nil {
		origCrs.IsActive = *isActive
	}
	origCrs.UpdatedAt = crs.UpdatedAt
	return *origCrs, nil
}

func (repo *courseRepository) CreateLesson(_ context.Context, lsn course.Lesson) (course.Lesson, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	lsn.ID = uuid.New().String()
	repo.db.lessons[lsn.ID] = &lsn
	return lsn, nil
}

func (repo *courseRepository) QueryLessons(_ context.Context, courseID string) ([]course.Lesson, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var lessons []course.Lesson
	for _, lsn := range repo.db.lessons {
		if lsn.CourseID == courseID {
			lessons = append(lessons, *lsn)
		}
	}
	sort.Slice(lessons, func(i, j int) bool {
		if lessons[i].Position != lessons[j].Position {
			return lessons[i].Position < lessons[j].Position
		}
		return lessons[i].Title < lessons[j].Title
	})
	return lessons, nil
}

func (repo *courseRepository) CountLessons(_ context.Context, courseID string) (int, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var count int
	for _, lsn := range repo.db.lessons {
		if lsn.CourseID == courseID {
			count++
		}
	}
	return count, nil
}
