package grade

import (
	"sort"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/coursework/core"
	"github.com/trezcool/coursework/core/course"
	"github.com/trezcool/coursework/core/user"
)

type Grade struct {
	ID           string    `json:"id"`
	StudentID    string    `json:"student_id"`
	CourseID     string    `json:"course_id"`
	SubmissionID string    `json:"submission_id"`
	AssignmentID string    `json:"assignment_id"`
	Value        float64   `json:"value"`
	CreatedAt    time.Time `json:"created_at"` // UTC
}

// NewGrade contains information needed to grade a submission.
type NewGrade struct {
	StudentID string   `json:"student_id" validate:"required,uuid"`
	CourseID  string   `json:"course_id" validate:"required,uuid"`
	Value     *float64 `json:"value" validate:"required,min=0,max=100"`
}

func (ng *NewGrade) Validate(validate *validator.Validate) error {
	ng.StudentID = core.CleanString(ng.StudentID, true /* lower */)
	ng.CourseID = core.CleanString(ng.CourseID, true /* lower */)
	return validate.Struct(ng)
}

type QueryFilter struct {
	CourseID     string
	StudentID    string
	SubmissionID string
}

func (qf QueryFilter) Match(g Grade) bool {
	if qf.CourseID != "" && g.CourseID != qf.CourseID {
		return false
	}
	if qf.StudentID != "" && g.StudentID != qf.StudentID {
		return false
	}
	if qf.SubmissionID != "" && g.SubmissionID != qf.SubmissionID {
		return false
	}
	return true
}

type Statistics struct {
	CourseID     string  `json:"course_id"`
	CourseTitle  string  `json:"course_title"`
	AverageGrade float64 `json:"average_grade"`
	StudentCount int     `json:"student_count"`
	GradeCount   int     `json:"grade_count"`
}

// ComputeStatistics aggregates the grades of `crs`. The average is 0 when there are no grades.
func ComputeStatistics(crs course.Course, grades []Grade) Statistics {
	stats := Statistics{
		CourseID:     crs.ID,
		CourseTitle:  crs.Title,
		StudentCount: len(crs.StudentIDs),
	}
	var sum float64
	for _, g := range grades {
		if g.CourseID != crs.ID {
			continue
		}
		sum += g.Value
		stats.GradeCount++
	}
	if stats.GradeCount > 0 {
		stats.AverageGrade = sum / float64(stats.GradeCount)
	}
	return stats
}

type (
	AssignmentGrade struct {
		AssignmentID string  `json:"assignment_id"`
		Assignment   string  `json:"assignment"`
		Grade        float64 `json:"grade"`
	}

	StudentGrades struct {
		Student user.User         `json:"student"`
		Grades  []AssignmentGrade `json:"grades"`
	}
)

// Breakdown groups `grades` by student id. `students` and `labels` (assignment titles) resolve ids;
// unknown students keep only their id. Each student's grades are ordered by creation time.
func Breakdown(grades []Grade, students map[string]user.User, labels map[string]string) map[string]StudentGrades {
	ordered := make([]Grade, len(grades))
	copy(ordered, grades)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].CreatedAt.Before(ordered[j].CreatedAt) })

	out := make(map[string]StudentGrades)
	for _, g := range ordered {
		sg, ok := out[g.StudentID]
		if !ok {
			usr, found := students[g.StudentID]
			if !found {
				usr = user.User{ID: g.StudentID}
			}
			sg = StudentGrades{Student: usr}
		}
		sg.Grades = append(sg.Grades, AssignmentGrade{
			AssignmentID: g.AssignmentID,
			Assignment:   labels[g.AssignmentID],
			Grade:        g.Value,
		})
		out[g.StudentID] = sg
	}
	return out
}
