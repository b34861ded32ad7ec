package course

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/darasahq/darasa/core"
)

// Course is a purchasable/enrollable learning unit.
type Course struct {
	ID          string    `json:"id" db:"id"`
	Title       string    `json:"title" db:"title"`
	Description string    `json:"description" db:"description"`
	IsActive    bool      `json:"is_active" db:"is_active"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"` // UTC
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"` // UTC
}

// Lesson is a single completable unit within a Course.
type Lesson struct {
	ID       string `json:"id" db:"id"`
	CourseID string `json:"course_id" db:"course_id"`
	Title    string `json:"title" db:"title"`
	Position int    `json:"position" db:"position"`
}

// NewCourse contains information needed to create a new Course.
type NewCourse struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
	IsActive    *bool  `json:"is_active"`
}

func (nc *NewCourse) Validate(validate *validator.Validate) error {
	nc.Title = core.CleanString(nc.Title)
	nc.Description = core.CleanString(nc.Description)
	return validate.Struct(nc)
}

// UpdateCourse defines what information may be provided to modify an existing Course.
type UpdateCourse struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	IsActive    *bool  `json:"is_active"`
}

func (uc *UpdateCourse) Validate(origCrs Course, validate *validator.Validate) error {
	if title := core.CleanString(uc.Title); title != "" {
		uc.Title = title
	} else {
		uc.Title = origCrs.Title
	}
	if desc := core.CleanString(uc.Description); desc != "" {
		uc.Description = desc
	} else {
		uc.Description = origCrs.Description
	}
	return validate.Struct(uc)
}

// NewLesson contains information needed to add a Lesson to a Course.
type NewLesson struct {
	Title    string `json:"title" validate:"required"`
	Position int    `json:"position" validate:"gte=0"`
}

func (nl *NewLesson) Validate(validate *validator.Validate) error {
	nl.Title = core.CleanString(nl.Title)
	return validate.Struct(nl)
}

type QueryFilter struct {
	Search   string `query:"search"`
	IsActive *bool  `query:"is_active"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
}
