package grade

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/coursework/core/course"
	"github.com/trezcool/coursework/core/user"
)

func TestComputeStatistics(t *testing.T) {
	crs := course.Course{ID: "c1", Title: "Algebra", StudentIDs: []string{"s1", "s2"}}

	t.Run("no grades", func(t *testing.T) {
		stats := ComputeStatistics(course.Course{ID: "c2", Title: "Empty"}, nil)
		assert.Equal(t, Statistics{CourseID: "c2", CourseTitle: "Empty"}, stats)
	})

	t.Run("average", func(t *testing.T) {
		grades := []Grade{
			{CourseID: "c1", Value: 85},
			{CourseID: "c1", Value: 70},
			{CourseID: "other", Value: 0},
		}
		stats := ComputeStatistics(crs, grades)
		assert.Equal(t, 77.5, stats.AverageGrade)
		assert.Equal(t, 2, stats.GradeCount)
		assert.Equal(t, 2, stats.StudentCount)
		assert.Equal(t, "Algebra", stats.CourseTitle)
	})
}

func TestBreakdown(t *testing.T) {
	now := time.Now().UTC()
	grades := []Grade{
		{StudentID: "s1", AssignmentID: "a2", Value: 60, CreatedAt: now.Add(time.Minute)},
		{StudentID: "s2", AssignmentID: "a1", Value: 90, CreatedAt: now},
		{StudentID: "s1", AssignmentID: "a1", Value: 80, CreatedAt: now},
	}
	students := map[string]user.User{"s1": {ID: "s1", Name: "Ann"}}
	labels := map[string]string{"a1": "Essay", "a2": "Quiz"}

	out := Breakdown(grades, students, labels)
	assert.Len(t, out, 2)

	assert.Equal(t, "Ann", out["s1"].Student.Name)
	assert.Equal(t, []AssignmentGrade{
		{AssignmentID: "a1", Assignment: "Essay", Grade: 80},
		{AssignmentID: "a2", Assignment: "Quiz", Grade: 60},
	}, out["s1"].Grades)

	assert.Equal(t, user.User{ID: "s2"}, out["s2"].Student)
	assert.Equal(t, []AssignmentGrade{{AssignmentID: "a1", Assignment: "Essay", Grade: 90}}, out["s2"].Grades)

	assert.Empty(t, Breakdown(nil, nil, nil))
}
