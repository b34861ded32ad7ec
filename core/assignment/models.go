package assignment

import (
	"encoding/json"
	"math"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/darasahq/darasa/core"
)

// Status is the submission lifecycle state. Timeliness is classified once at
// submission time and never changes; GRADED is one-way (re-grading overwrites
// score/feedback only).
type Status string

const (
	StatusSubmittedOnTime Status = "SUBMITTED_ON_TIME"
	StatusSubmittedLate   Status = "SUBMITTED_LATE"
	StatusGraded          Status = "GRADED"
)

// Assignment is a gradable task within a course.
type Assignment struct {
	ID        string    `json:"id" db:"id"`
	CourseID  string    `json:"course_id" db:"course_id"`
	Title     string    `json:"title" db:"title"`
	DueDate   time.Time `json:"due_date" db:"due_date"` // UTC
	MaxScore  int       `json:"max_score" db:"max_score"`
	CreatedAt time.Time `json:"created_at" db:"created_at"` // UTC
}

// Submission is a learner's current attempt at an Assignment; exactly one
// exists per (assignment, user) pair — resubmission overwrites it.
type Submission struct {
	ID           string      `json:"id" db:"id"`
	AssignmentID string      `json:"assignment_id" db:"assignment_id"`
	UserID       string      `json:"user_id" db:"user_id"`
	SubmittedAt  time.Time   `json:"submitted_at" db:"submitted_at"` // UTC
	IsLate       bool        `json:"is_late" db:"is_late"`
	DaysLate     int         `json:"days_late" db:"days_late"`
	FilePaths    []string    `json:"file_paths" db:"-"`
	Notes        string      `json:"notes" db:"notes"`
	Score        null.Int    `json:"score" db:"score"`
	Feedback     null.String `json:"feedback" db:"feedback"`
	GradedAt     null.Time   `json:"graded_at" db:"graded_at"`
}

func (s Submission) Status() Status {
	switch {
	case s.Score.Valid:
		return StatusGraded
	case s.IsLate:
		return StatusSubmittedLate
	default:
		return StatusSubmittedOnTime
	}
}

func (s Submission) MarshalJSON() ([]byte, error) {
	type alias Submission
	return json.Marshal(struct {
		alias
		Status Status `json:"status"`
	}{alias(s), s.Status()})
}

// Percent is the grade as displayed to the grader: round(score/max*100).
func Percent(sub Submission, asg Assignment) int {
	if !sub.Score.Valid || asg.MaxScore == 0 {
		return 0
	}
	return int(math.Round(float64(sub.Score.Int) / float64(asg.MaxScore) * 100))
}

// classify decides timeliness at submission time. Strictly after the due date
// is late; days late is the ceiling of the delta in days, so 1 second late
// already counts as 1 day.
func classify(submittedAt, dueDate time.Time) (isLate bool, daysLate int) {
	if !submittedAt.After(dueDate) {
		return false, 0
	}
	return true, int(math.Ceil(submittedAt.Sub(dueDate).Hours() / 24))
}

// NewAssignment contains information needed to create a new Assignment.
type NewAssignment struct {
	Title    string    `json:"title" validate:"required"`
	DueDate  time.Time `json:"due_date" validate:"required"`
	MaxScore int       `json:"max_score" validate:"required,gt=0"`
}

func (na *NewAssignment) Validate(validate *validator.Validate) error {
	na.Title = core.CleanString(na.Title)
	return validate.Struct(na)
}

// NewSubmission is a learner's submit payload. File paths are opaque storage
// references; the engine only keeps their count and order.
type NewSubmission struct {
	FilePaths []string `json:"file_paths"`
	Notes     string   `json:"notes"`
}

func (ns *NewSubmission) Validate(validate *validator.Validate) error {
	ns.Notes = core.CleanString(ns.Notes)
	return validate.Struct(ns)
}

// GradeSubmission is the instructor's grading payload.
type GradeSubmission struct {
	Score    int    `json:"score" validate:"gte=0"`
	Feedback string `json:"feedback"`
}

func (gs *GradeSubmission) Validate(validate *validator.Validate) error {
	gs.Feedback = core.CleanString(gs.Feedback)
	return validate.Struct(gs)
}
