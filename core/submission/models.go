package submission

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/coursework/core"
)

type Status string

const (
	StatusPending   Status = "Pending"
	StatusSubmitted Status = "Submitted"
	StatusGraded    Status = "Graded"
)

var AllStatuses = []Status{StatusPending, StatusSubmitted, StatusGraded}

// transitions lists the states reachable from each state.
var transitions = map[Status][]Status{
	StatusPending:   {StatusPending, StatusSubmitted},
	StatusSubmitted: {StatusSubmitted, StatusGraded},
	StatusGraded:    {StatusGraded},
}

func IsValidStatus(s string) bool {
	_, ok := transitions[Status(s)]
	return ok
}

// CanTransition reports whether a submission may move from `from` to `to`.
func CanTransition(from, to Status) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

type Submission struct {
	ID           string       `json:"id"`
	AssignmentID string       `json:"assignment_id"`
	CourseID     string       `json:"course_id"`
	StudentID    string       `json:"student_id"`
	Content      string       `json:"content"`
	Status       Status       `json:"status"`
	Grade        null.Float64 `json:"grade"`
	CreatedAt    time.Time    `json:"created_at"` // UTC
	UpdatedAt    time.Time    `json:"updated_at"` // UTC
}

// NewSubmission contains information needed to submit an assignment.
type NewSubmission struct {
	AssignmentID string `json:"assignment_id" validate:"required,uuid"`
	CourseID     string `json:"course_id" validate:"required,uuid"`
	Content      string `json:"content" validate:"required,notblank"`
}

func (ns *NewSubmission) Validate(validate *validator.Validate) error {
	ns.AssignmentID = core.CleanString(ns.AssignmentID, true /* lower */)
	ns.CourseID = core.CleanString(ns.CourseID, true /* lower */)
	return validate.Struct(ns)
}

// UpdateSubmission defines what information may be provided to modify an existing Submission.
// Grade may be cleared with an explicit null.
type UpdateSubmission struct {
	Content core.OptString  `json:"content"`
	Grade   core.OptFloat64 `json:"grade"`
	Status  core.OptString  `json:"status"`
}

func (us *UpdateSubmission) Validate() error {
	var fields []core.FieldError
	if us.Content.Blank() {
		fields = append(fields, core.FieldError{Field: "content", Error: "this field cannot be blank"})
	}
	if us.Grade.Valid && (us.Grade.Float64.Float64 < 0 || us.Grade.Float64.Float64 > 100) {
		fields = append(fields, core.FieldError{Field: "grade", Error: "grade must be between 0 and 100"})
	}
	if us.Status.Set && (!us.Status.Valid || !IsValidStatus(us.Status.String.String)) {
		fields = append(fields, core.FieldError{Field: "status", Error: statusText})
	}
	if len(fields) > 0 {
		return core.NewValidationError(nil, fields...)
	}
	return nil
}

// Apply moves `sub` to the patched state, failing on an illegal status transition.
func (us UpdateSubmission) Apply(sub *Submission) error {
	if us.Status.Set {
		to := Status(us.Status.String.String)
		if !CanTransition(sub.Status, to) {
			return core.NewFieldError("status", "cannot move from "+string(sub.Status)+" to "+string(to))
		}
		sub.Status = to
	}
	if us.Content.Set {
		sub.Content = us.Content.String.String
	}
	if us.Grade.Set {
		sub.Grade = us.Grade.Float64
	}
	return nil
}

type QueryFilter struct {
	CourseID     string
	AssignmentID string
	StudentID    string `query:"student" validate:"omitempty,uuid"`
	Status       string `query:"status" validate:"omitempty,submission_status"`
}

func (qf *QueryFilter) Validate(validate *validator.Validate) error {
	qf.StudentID = core.CleanString(qf.StudentID, true /* lower */)
	qf.Status = core.CleanString(qf.Status)
	return validate.Struct(qf)
}

func (qf QueryFilter) Match(sub Submission) bool {
	if qf.CourseID != "" && sub.CourseID != qf.CourseID {
		return false
	}
	if qf.AssignmentID != "" && sub.AssignmentID != qf.AssignmentID {
		return false
	}
	if qf.StudentID != "" && sub.StudentID != qf.StudentID {
		return false
	}
	if qf.Status != "" && string(sub.Status) != qf.Status {
		return false
	}
	return true
}
