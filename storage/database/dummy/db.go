// Package dummydb is the in-memory demo dataset: same repository contracts as
// the live Postgres backend, no durability, scoped to one running instance.
package dummydb

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/darasahq/darasa/core/assignment"
	"github.com/darasahq/darasa/core/course"
	"github.com/darasahq/darasa/core/enroll"
	"github.com/darasahq/darasa/core/progress"
	"github.com/darasahq/darasa/core/user"
)

type (
	DB struct {
		user       *userTable
		course     *courseTable
		enroll     *enrollTable
		progress   *progressTable
		assignment *assignmentTable
	}

	userTable struct {
		sync.RWMutex
		table map[string]*user.User
	}

	courseTable struct {
		sync.RWMutex
		courses map[string]*course.Course
		lessons map[string]*course.Lesson
	}

	enrollTable struct {
		sync.RWMutex
		table map[string]*enroll.Enrollment
	}

	progressTable struct {
		sync.RWMutex
		table map[string]*progress.LessonProgress
	}

	assignmentTable struct {
		sync.RWMutex
		assignments map[string]*assignment.Assignment
		submissions map[string]*assignment.Submission
	}
)

func Open() (*DB, error) {
	db := &DB{
		user:       &userTable{table: make(map[string]*user.User)},
		course:     &courseTable{courses: make(map[string]*course.Course), lessons: make(map[string]*course.Lesson)},
		enroll:     &enrollTable{table: make(map[string]*enroll.Enrollment)},
		progress:   &progressTable{table: make(map[string]*progress.LessonProgress)},
		assignment: &assignmentTable{assignments: make(map[string]*assignment.Assignment), submissions: make(map[string]*assignment.Submission)},
	}
	return db, nil
}

// Seed loads the demo dataset so a client without backend credentials still
// gets a fully functional read/write experience.
func (db *DB) Seed() {
	now := time.Now().UTC()

	demoStudent := &user.User{
		ID: uuid.New().String(), Name: "Demo Student", Username: "demo_student",
		Email: "student@demo.local", IsActive: true, Roles: []string{user.RoleStudent},
		CreatedAt: now, UpdatedAt: now,
	}
	demoTeacher := &user.User{
		ID: uuid.New().String(), Name: "Demo Teacher", Username: "demo_teacher",
		Email: "teacher@demo.local", IsActive: true, Roles: []string{user.RoleTeacher},
		CreatedAt: now, UpdatedAt: now,
	}
	demoAdmin := &user.User{
		ID: uuid.New().String(), Name: "Demo Admin", Username: "demo_admin",
		Email: "admin@demo.local", IsActive: true, Roles: []string{user.RoleAdmin, user.RoleTeacher},
		CreatedAt: now, UpdatedAt: now,
	}
	_ = demoStudent.SetPassword("Demo-pass-123")
	_ = demoTeacher.SetPassword("Demo-pass-123")
	_ = demoAdmin.SetPassword("Demo-pass-123")
	for _, usr := range []*user.User{demoStudent, demoTeacher, demoAdmin} {
		db.user.table[usr.ID] = usr
	}

	goCourse := &course.Course{
		ID: uuid.New().String(), Title: "Go from Scratch",
		Description: "Build backends in Go, one lesson at a time.",
		IsActive:    true, CreatedAt: now, UpdatedAt: now,
	}
	sqlCourse := &course.Course{
		ID: uuid.New().String(), Title: "Practical SQL",
		Description: "Archived cohort.",
		IsActive:    false, CreatedAt: now, UpdatedAt: now,
	}
	db.course.courses[goCourse.ID] = goCourse
	db.course.courses[sqlCourse.ID] = sqlCourse

	for i, title := range []string{"Hello, Go", "Types and Methods", "Goroutines"} {
		lsn := &course.Lesson{ID: uuid.New().String(), CourseID: goCourse.ID, Title: title, Position: i}
		db.course.lessons[lsn.ID] = lsn
	}

	asg := &assignment.Assignment{
		ID: uuid.New().String(), CourseID: goCourse.ID, Title: "Build a CLI tool",
		DueDate: now.Add(7 * 24 * time.Hour), MaxScore: 100, CreatedAt: now,
	}
	db.assignment.assignments[asg.ID] = asg
}
