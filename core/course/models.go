package course

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/coursework/core"
	"github.com/trezcool/coursework/core/user"
)

type Course struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Description null.String `json:"description"`
	TeacherID   string      `json:"teacher_id"`
	StudentIDs  []string    `json:"student_ids"`
	CreatedAt   time.Time   `json:"created_at"` // UTC
	UpdatedAt   time.Time   `json:"updated_at"` // UTC
}

func (c Course) IsEnrolled(studentID string) bool {
	for _, id := range c.StudentIDs {
		if id == studentID {
			return true
		}
	}
	return false
}

// Enroll returns a copy of `crs` with `student` added to the roster.
func Enroll(crs Course, student user.User) (Course, error) {
	if !student.IsStudent() {
		return crs, ErrNotStudent
	}
	if crs.IsEnrolled(student.ID) {
		return crs, ErrAlreadyEnrolled
	}
	ids := make([]string, 0, len(crs.StudentIDs)+1)
	ids = append(ids, crs.StudentIDs...)
	crs.StudentIDs = append(ids, student.ID)
	return crs, nil
}

// Unenroll returns a copy of `crs` with `student` removed from the roster.
func Unenroll(crs Course, student user.User) (Course, error) {
	if !crs.IsEnrolled(student.ID) {
		return crs, ErrNotEnrolled
	}
	ids := make([]string, 0, len(crs.StudentIDs)-1)
	for _, id := range crs.StudentIDs {
		if id != student.ID {
			ids = append(ids, id)
		}
	}
	crs.StudentIDs = ids
	return crs, nil
}

// NewCourse contains information needed to create a new Course.
// TeacherID is only honoured for admins creating a course on behalf of a teacher.
type NewCourse struct {
	Title       string `json:"title" validate:"required,notblank,max=200"`
	Description string `json:"description"`
	TeacherID   string `json:"teacher_id" validate:"omitempty,uuid"`
}

func (nc *NewCourse) Validate(validate *validator.Validate) error {
	nc.Title = core.CleanString(nc.Title)
	nc.Description = core.CleanString(nc.Description)
	nc.TeacherID = core.CleanString(nc.TeacherID, true /* lower */)
	return validate.Struct(nc)
}

// UpdateCourse defines what information may be provided to modify an existing Course.
type UpdateCourse struct {
	Title       core.OptString `json:"title"`
	Description core.OptString `json:"description"`
}

func (uc *UpdateCourse) Validate() error {
	if uc.Title.Blank() {
		return core.NewFieldError("title", "this field cannot be blank")
	}
	if core.ExceedsLen(uc.Title.String.String, 200) {
		return core.NewFieldError("title", "title must be a maximum of 200 characters in length")
	}
	return nil
}

// Apply writes the provided fields onto `crs`.
func (uc UpdateCourse) Apply(crs *Course) {
	if uc.Title.Set {
		crs.Title = core.CleanString(uc.Title.String.String)
	}
	if uc.Description.Set {
		crs.Description = uc.Description.String
		if crs.Description.Valid {
			crs.Description.String = core.CleanString(crs.Description.String)
		}
	}
}

type QueryFilter struct {
	TeacherID string
	StudentID string
}

func (qf QueryFilter) Match(crs Course) bool {
	if qf.TeacherID != "" && crs.TeacherID != qf.TeacherID {
		return false
	}
	if qf.StudentID != "" && !crs.IsEnrolled(qf.StudentID) {
		return false
	}
	return true
}
