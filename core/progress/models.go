package progress

import "time"

// LessonProgress is a completion marker for one lesson of a course.
// Re-marking a completed lesson is a no-op, never a duplicate row.
type LessonProgress struct {
	ID          string    `json:"id" db:"id"`
	UserID      string    `json:"user_id" db:"user_id"`
	CourseID    string    `json:"course_id" db:"course_id"`
	LessonID    string    `json:"lesson_id" db:"lesson_id"`
	Completed   bool      `json:"completed" db:"completed"`
	CompletedAt time.Time `json:"completed_at" db:"completed_at"` // UTC
}
