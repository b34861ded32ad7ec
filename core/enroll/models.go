package enroll

import "time"

// Enrollment is the access grant linking a learner to a course.
// At most one row ever exists per (user, course) pair; rows are never deleted
// through normal flow.
type Enrollment struct {
	ID        string    `json:"id" db:"id"`
	UserID    string    `json:"user_id" db:"user_id"`
	CourseID  string    `json:"course_id" db:"course_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"` // UTC
}
