package assignment

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/coursework/core"
)

type Assignment struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	CourseID      string    `json:"course_id"`
	TeacherID     string    `json:"teacher_id"`
	DueDate       time.Time `json:"due_date"` // UTC
	SubmissionIDs []string  `json:"submission_ids"`
	CreatedAt     time.Time `json:"created_at"` // UTC
	UpdatedAt     time.Time `json:"updated_at"` // UTC
}

// AddSubmission returns a copy of `asg` referencing `submissionID`.
func AddSubmission(asg Assignment, submissionID string) Assignment {
	ids := make([]string, 0, len(asg.SubmissionIDs)+1)
	for _, id := range asg.SubmissionIDs {
		if id != submissionID {
			ids = append(ids, id)
		}
	}
	asg.SubmissionIDs = append(ids, submissionID)
	return asg
}

// RemoveSubmission returns a copy of `asg` without the reference to `submissionID`.
func RemoveSubmission(asg Assignment, submissionID string) Assignment {
	ids := make([]string, 0, len(asg.SubmissionIDs))
	for _, id := range asg.SubmissionIDs {
		if id != submissionID {
			ids = append(ids, id)
		}
	}
	asg.SubmissionIDs = ids
	return asg
}

// NewAssignment contains information needed to create a new Assignment.
type NewAssignment struct {
	Title       string    `json:"title" validate:"required,notblank,max=200"`
	Description string    `json:"description" validate:"required,notblank"`
	CourseID    string    `json:"course_id" validate:"required,uuid"`
	DueDate     time.Time `json:"due_date" validate:"required"`
}

func (na *NewAssignment) Validate(validate *validator.Validate) error {
	na.Title = core.CleanString(na.Title)
	na.Description = core.CleanString(na.Description)
	na.CourseID = core.CleanString(na.CourseID, true /* lower */)
	return validate.Struct(na)
}

// UpdateAssignment defines what information may be provided to modify an existing Assignment.
// None of the fields can be cleared.
type UpdateAssignment struct {
	Title       core.OptString `json:"title"`
	Description core.OptString `json:"description"`
	DueDate     core.OptTime   `json:"due_date"`
}

func (ua *UpdateAssignment) Validate() error {
	var fields []core.FieldError
	if ua.Title.Blank() {
		fields = append(fields, core.FieldError{Field: "title", Error: "this field cannot be blank"})
	} else if core.ExceedsLen(ua.Title.String.String, 200) {
		fields = append(fields, core.FieldError{Field: "title", Error: "title must be a maximum of 200 characters in length"})
	}
	if ua.Description.Blank() {
		fields = append(fields, core.FieldError{Field: "description", Error: "this field cannot be blank"})
	}
	if ua.DueDate.Set && !ua.DueDate.Valid {
		fields = append(fields, core.FieldError{Field: "due_date", Error: "this field cannot be null"})
	}
	if len(fields) > 0 {
		return core.NewValidationError(nil, fields...)
	}
	return nil
}

// Apply writes the provided fields onto `asg`.
func (ua UpdateAssignment) Apply(asg *Assignment) {
	if ua.Title.Set {
		asg.Title = core.CleanString(ua.Title.String.String)
	}
	if ua.Description.Set {
		asg.Description = core.CleanString(ua.Description.String.String)
	}
	if ua.DueDate.Set {
		asg.DueDate = ua.DueDate.Time.Time.UTC()
	}
}

type SetDueDate struct {
	DueDate time.Time `json:"due_date" validate:"required"`
}

func (sd SetDueDate) Validate(validate *validator.Validate) error {
	return validate.Struct(sd)
}

type QueryFilter struct {
	CourseID  string
	TeacherID string
	DueFrom   time.Time
	DueTo     time.Time
}

func (qf QueryFilter) Match(asg Assignment) bool {
	if qf.CourseID != "" && asg.CourseID != qf.CourseID {
		return false
	}
	if qf.TeacherID != "" && asg.TeacherID != qf.TeacherID {
		return false
	}
	if !qf.DueFrom.IsZero() && asg.DueDate.Before(qf.DueFrom) {
		return false
	}
	if !qf.DueTo.IsZero() && asg.DueDate.After(qf.DueTo) {
		return false
	}
	return true
}
