// Package authz decides who may do what on courses, assignments, submissions and grades.
// Decisions are pure: they read the actor and the target and never touch storage.
package authz

import (
	"github.com/pkg/errors"

	"github.com/trezcool/coursework/core"
	"github.com/trezcool/coursework/core/user"
)

type Action string

const (
	CourseCreate   Action = "course:create"
	CourseRead     Action = "course:read"
	CourseUpdate   Action = "course:update"
	CourseDelete   Action = "course:delete"
	CourseEnroll   Action = "course:enroll"
	CourseUnenroll Action = "course:unenroll"

	AssignmentCreate     Action = "assignment:create"
	AssignmentRead       Action = "assignment:read"
	AssignmentUpdate     Action = "assignment:update"
	AssignmentDelete     Action = "assignment:delete"
	AssignmentSetDueDate Action = "assignment:set-due-date"

	SubmissionCreate   Action = "submission:create"
	SubmissionRead     Action = "submission:read"
	SubmissionList     Action = "submission:list"
	SubmissionUpdate   Action = "submission:update"
	SubmissionDelete   Action = "submission:delete"
	GradeAssign        Action = "grade:assign"
	GradeRead          Action = "grade:read"
	StatisticsRead     Action = "statistics:read"
	GradeBreakdownRead Action = "grade:breakdown"
)

// Reason codes carried by Denied.
const (
	ReasonRole          = "role_not_allowed"
	ReasonNotOwner      = "not_owner"
	ReasonNotEnrolled   = "not_enrolled"
	ReasonUnknownAction = "unknown_action"
)

// Target describes the entities an action touches. Only the fields relevant to the action are read.
type Target struct {
	CourseTeacherID     string
	CourseStudentIDs    []string
	AssignmentTeacherID string
	SubmissionStudentID string
	StudentID           string // owner of the grades being read
}

func (t Target) enrolled(id string) bool {
	for _, sid := range t.CourseStudentIDs {
		if sid == id {
			return true
		}
	}
	return false
}

// Denied is returned when the Policy refuses an action.
type Denied struct {
	Action Action
	Reason string
}

func (d *Denied) Error() string {
	return "forbidden: " + string(d.Action) + ": " + d.Reason
}

func (d *Denied) Kind() core.Kind {
	return core.KindForbidden
}

// ReasonOf returns the reason code of a denial, or "" when `err` is not one.
func ReasonOf(err error) string {
	if d, ok := errors.Cause(err).(*Denied); ok {
		return d.Reason
	}
	return ""
}

type Authorizer interface {
	Authorize(actor user.User, action Action, target Target) error
}

// Policy is the role and ownership based Authorizer.
type Policy struct{}

var _ Authorizer = Policy{}

func NewPolicy() Policy {
	return Policy{}
}

func deny(action Action, reason string) error {
	return &Denied{Action: action, Reason: reason}
}

// Authorize returns nil when `actor` may perform `action` on `target`, a *Denied otherwise.
func (Policy) Authorize(actor user.User, action Action, target Target) error {
	ownsCourse := actor.IsTeacher() && actor.ID != "" && actor.ID == target.CourseTeacherID

	switch action {
	case CourseCreate:
		if actor.IsAdmin() || actor.IsTeacher() {
			return nil
		}
		return deny(action, ReasonRole)

	case CourseRead:
		if user.IsValidRole(actor.Role) {
			return nil
		}
		return deny(action, ReasonRole)

	case CourseUpdate, CourseDelete:
		if actor.IsAdmin() || ownsCourse {
			return nil
		}
		if actor.IsTeacher() {
			return deny(action, ReasonNotOwner)
		}
		return deny(action, ReasonRole)

	case CourseEnroll, CourseUnenroll:
		if actor.IsStudent() {
			return nil
		}
		return deny(action, ReasonRole)

	case AssignmentCreate:
		if !actor.IsTeacher() {
			return deny(action, ReasonRole)
		}
		if !ownsCourse {
			return deny(action, ReasonNotOwner)
		}
		return nil

	case AssignmentUpdate, AssignmentDelete, AssignmentSetDueDate:
		if !actor.IsTeacher() {
			return deny(action, ReasonRole)
		}
		if actor.ID == target.AssignmentTeacherID || ownsCourse {
			return nil
		}
		return deny(action, ReasonNotOwner)

	case AssignmentRead:
		if actor.IsAdmin() || ownsCourse {
			return nil
		}
		if actor.IsStudent() {
			if target.enrolled(actor.ID) {
				return nil
			}
			return deny(action, ReasonNotEnrolled)
		}
		return deny(action, ReasonNotOwner)

	case SubmissionCreate:
		if !actor.IsStudent() {
			return deny(action, ReasonRole)
		}
		if !target.enrolled(actor.ID) {
			return deny(action, ReasonNotEnrolled)
		}
		return nil

	case SubmissionUpdate, SubmissionDelete:
		if actor.ID != "" && actor.ID == target.SubmissionStudentID {
			return nil
		}
		if ownsCourse {
			return nil
		}
		if actor.IsAdmin() {
			return deny(action, ReasonRole)
		}
		return deny(action, ReasonNotOwner)

	case SubmissionRead:
		if actor.IsAdmin() || ownsCourse || (actor.ID != "" && actor.ID == target.SubmissionStudentID) {
			return nil
		}
		return deny(action, ReasonNotOwner)

	case SubmissionList, GradeAssign, StatisticsRead, GradeBreakdownRead:
		if actor.IsAdmin() || ownsCourse {
			return nil
		}
		if actor.IsTeacher() {
			return deny(action, ReasonNotOwner)
		}
		return deny(action, ReasonRole)

	case GradeRead:
		if actor.IsAdmin() || ownsCourse {
			return nil
		}
		if actor.IsStudent() && actor.ID == target.StudentID {
			return nil
		}
		return deny(action, ReasonNotOwner)
	}
	return deny(action, ReasonUnknownAction)
}
