package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/coursework/core"
	"github.com/trezcool/coursework/core/user"
)

var (
	admin    = user.User{ID: "a1", Role: user.RoleAdmin}
	teacher  = user.User{ID: "t1", Role: user.RoleTeacher}
	teacher2 = user.User{ID: "t2", Role: user.RoleTeacher}
	student  = user.User{ID: "s1", Role: user.RoleStudent}
	student2 = user.User{ID: "s2", Role: user.RoleStudent}

	courseTarget = Target{CourseTeacherID: teacher.ID, CourseStudentIDs: []string{student.ID}}
)

func TestPolicy_Authorize(t *testing.T) {
	tests := []struct {
		name       string
		actor      user.User
		action     Action
		target     Target
		wantReason string // "" means allowed
	}{
		{"course create: teacher", teacher, CourseCreate, Target{}, ""},
		{"course create: admin", admin, CourseCreate, Target{}, ""},
		{"course create: student", student, CourseCreate, Target{}, ReasonRole},
		{"course read: student", student, CourseRead, Target{}, ""},
		{"course read: no role", user.User{ID: "x"}, CourseRead, Target{}, ReasonRole},
		{"course update: owner", teacher, CourseUpdate, courseTarget, ""},
		{"course update: admin", admin, CourseUpdate, courseTarget, ""},
		{"course update: other teacher", teacher2, CourseUpdate, courseTarget, ReasonNotOwner},
		{"course delete: student", student, CourseDelete, courseTarget, ReasonRole},
		{"course enroll: student", student2, CourseEnroll, courseTarget, ""},
		{"course enroll: teacher", teacher, CourseEnroll, courseTarget, ReasonRole},
		{"course unenroll: admin", admin, CourseUnenroll, courseTarget, ReasonRole},
		{"assignment create: owner", teacher, AssignmentCreate, courseTarget, ""},
		{"assignment create: admin", admin, AssignmentCreate, courseTarget, ReasonRole},
		{"assignment create: other teacher", teacher2, AssignmentCreate, courseTarget, ReasonNotOwner},
		{"assignment update: assignment teacher", teacher2, AssignmentUpdate, Target{AssignmentTeacherID: teacher2.ID}, ""},
		{"assignment delete: other teacher", teacher2, AssignmentDelete, Target{CourseTeacherID: teacher.ID, AssignmentTeacherID: teacher.ID}, ReasonNotOwner},
		{"assignment due date: student", student, AssignmentSetDueDate, courseTarget, ReasonRole},
		{"assignment read: enrolled student", student, AssignmentRead, courseTarget, ""},
		{"assignment read: other student", student2, AssignmentRead, courseTarget, ReasonNotEnrolled},
		{"assignment read: other teacher", teacher2, AssignmentRead, courseTarget, ReasonNotOwner},
		{"submission create: enrolled student", student, SubmissionCreate, courseTarget, ""},
		{"submission create: not enrolled", student2, SubmissionCreate, courseTarget, ReasonNotEnrolled},
		{"submission create: teacher", teacher, SubmissionCreate, courseTarget, ReasonRole},
		{"submission update: owner student", student, SubmissionUpdate, Target{SubmissionStudentID: student.ID}, ""},
		{"submission update: other student", student2, SubmissionUpdate, Target{SubmissionStudentID: student.ID}, ReasonNotOwner},
		{"submission update: admin", admin, SubmissionUpdate, Target{SubmissionStudentID: student.ID}, ReasonRole},
		{"submission update: course teacher", teacher, SubmissionUpdate, Target{CourseTeacherID: teacher.ID, SubmissionStudentID: student.ID}, ""},
		{"submission delete: other teacher", teacher2, SubmissionDelete, Target{CourseTeacherID: teacher.ID, SubmissionStudentID: student.ID}, ReasonNotOwner},
		{"submission read: admin", admin, SubmissionRead, Target{SubmissionStudentID: student.ID}, ""},
		{"submission read: other student", student2, SubmissionRead, Target{SubmissionStudentID: student.ID}, ReasonNotOwner},
		{"grade assign: owner", teacher, GradeAssign, courseTarget, ""},
		{"grade assign: admin", admin, GradeAssign, courseTarget, ""},
		{"grade assign: other teacher", teacher2, GradeAssign, courseTarget, ReasonNotOwner},
		{"grade assign: student", student, GradeAssign, courseTarget, ReasonRole},
		{"grade read: own grades", student, GradeRead, Target{StudentID: student.ID}, ""},
		{"grade read: someone else's grades", student2, GradeRead, Target{StudentID: student.ID}, ReasonNotOwner},
		{"grade read: owner teacher", teacher, GradeRead, courseTarget, ""},
		{"statistics: owner", teacher, StatisticsRead, courseTarget, ""},
		{"statistics: student", student, StatisticsRead, courseTarget, ReasonRole},
		{"breakdown: other teacher", teacher2, GradeBreakdownRead, courseTarget, ReasonNotOwner},
		{"unknown action", admin, Action("course:archive"), Target{}, ReasonUnknownAction},
	}

	policy := NewPolicy()
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := policy.Authorize(tc.actor, tc.action, tc.target)
			if tc.wantReason == "" {
				assert.NoError(t, err)
				return
			}
			if assert.Error(t, err) {
				assert.Equal(t, tc.wantReason, ReasonOf(err))
				assert.Equal(t, core.KindForbidden, core.KindOf(err))
			}
		})
	}
}

func TestReasonOf(t *testing.T) {
	assert.Equal(t, "", ReasonOf(nil))
	assert.Equal(t, "", ReasonOf(core.ErrNotFound))
	assert.Equal(t, ReasonNotOwner, ReasonOf(&Denied{Action: CourseUpdate, Reason: ReasonNotOwner}))
}
