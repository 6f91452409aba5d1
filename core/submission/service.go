package submission

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/coursework/core"
	"github.com/trezcool/coursework/core/assignment"
	"github.com/trezcool/coursework/core/authz"
	"github.com/trezcool/coursework/core/course"
	"github.com/trezcool/coursework/core/user"
)

var (
	// errors
	ErrNotFound           = core.NewError(core.KindNotFound, "submission not found")
	ErrAlreadySubmitted   = core.NewError(core.KindConflict, "assignment already submitted")
	ErrAlreadyGraded      = core.NewError(core.KindConflict, "submission is already graded")
	ErrStudentCannotGrade = core.NewError(core.KindForbidden, "students cannot grade submissions")
)

type (
	Repository interface {
		// CreateSubmission stores `sub` and references it from its assignment in one atomic unit.
		// It fails with ErrAlreadySubmitted when the student already submitted the assignment.
		CreateSubmission(ctx context.Context, sub Submission) (Submission, error)
		GetSubmissionByID(ctx context.Context, id string) (Submission, error)
		QuerySubmissions(ctx context.Context, filter QueryFilter) ([]Submission, error)
		// UpdateSubmission applies `fn` to the stored submission atomically; an error from `fn` aborts the update.
		UpdateSubmission(ctx context.Context, id string, fn func(*Submission) error) (Submission, error)
		// DeleteSubmission removes the submission, its grades and its reference in the assignment in one atomic unit.
		DeleteSubmission(ctx context.Context, id string) error
	}

	CourseGetter interface {
		GetCourseByID(ctx context.Context, id string) (course.Course, error)
	}

	AssignmentGetter interface {
		GetAssignmentByID(ctx context.Context, id string) (assignment.Assignment, error)
	}

	Service struct {
		repo        Repository
		courses     CourseGetter
		assignments AssignmentGetter
		authz       authz.Authorizer
		validate    *validator.Validate
		events      core.EventPublisher
	}
)

func NewService(
	repo Repository,
	courses CourseGetter,
	assignments AssignmentGetter,
	az authz.Authorizer,
	validate *validator.Validate,
	events core.EventPublisher,
) *Service {
	return &Service{
		repo:        repo,
		courses:     courses,
		assignments: assignments,
		authz:       az,
		validate:    validate,
		events:      events,
	}
}

// target builds the authorization target of `sub`; the course part stays empty once the course is gone.
func (svc *Service) target(ctx context.Context, sub Submission) (authz.Target, error) {
	crs, err := svc.courses.GetCourseByID(ctx, sub.CourseID)
	if err != nil && errors.Cause(err) != course.ErrNotFound {
		return authz.Target{}, err
	}
	t := course.Target(crs)
	t.SubmissionStudentID = sub.StudentID
	return t, nil
}

// Submit creates a Submitted submission for the acting student.
func (svc *Service) Submit(ctx context.Context, actor user.User, ns NewSubmission) (Submission, error) {
	if err := ns.Validate(svc.validate); err != nil {
		return Submission{}, err
	}
	crs, err := svc.courses.GetCourseByID(ctx, ns.CourseID)
	if err != nil {
		return Submission{}, err
	}
	if err = svc.authz.Authorize(actor, authz.SubmissionCreate, course.Target(crs)); err != nil {
		if authz.ReasonOf(err) == authz.ReasonNotEnrolled {
			return Submission{}, course.ErrNotEnrolled
		}
		return Submission{}, err
	}
	asg, err := svc.assignments.GetAssignmentByID(ctx, ns.AssignmentID)
	if err != nil {
		return Submission{}, err
	}
	if asg.CourseID != crs.ID {
		return Submission{}, core.NewFieldError("assignment_id", "assignment does not belong to this course")
	}

	now := time.Now().UTC()
	sub, err := svc.repo.CreateSubmission(ctx, Submission{
		ID:           core.NewID(),
		AssignmentID: asg.ID,
		CourseID:     crs.ID,
		StudentID:    actor.ID,
		Content:      ns.Content,
		Status:       StatusSubmitted,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return Submission{}, err
	}
	svc.events.Publish(ctx, core.NewEvent(core.EventSubmissionCreated, sub.ID, actor.ID, sub))
	return sub, nil
}

func (svc *Service) Get(ctx context.Context, actor user.User, id string) (Submission, error) {
	if err := core.CheckID(id); err != nil {
		return Submission{}, err
	}
	sub, err := svc.repo.GetSubmissionByID(ctx, id)
	if err != nil {
		return Submission{}, err
	}
	t, err := svc.target(ctx, sub)
	if err != nil {
		return Submission{}, err
	}
	if err = svc.authz.Authorize(actor, authz.SubmissionRead, t); err != nil {
		return Submission{}, err
	}
	return sub, nil
}

// ListByCourse lists a course's submissions for its teacher or an admin.
func (svc *Service) ListByCourse(ctx context.Context, actor user.User, courseID string, filter QueryFilter) ([]Submission, error) {
	if err := core.CheckID(courseID); err != nil {
		return nil, err
	}
	if err := filter.Validate(svc.validate); err != nil {
		return nil, err
	}
	crs, err := svc.courses.GetCourseByID(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if err = svc.authz.Authorize(actor, authz.SubmissionList, course.Target(crs)); err != nil {
		return nil, err
	}
	filter.CourseID = crs.ID
	return svc.repo.QuerySubmissions(ctx, filter)
}

// Update patches a submission. The owning student may only edit the content, and only until graded.
func (svc *Service) Update(ctx context.Context, actor user.User, id string, us UpdateSubmission) (Submission, error) {
	if err := core.CheckID(id); err != nil {
		return Submission{}, err
	}
	if err := us.Validate(); err != nil {
		return Submission{}, err
	}
	sub, err := svc.repo.GetSubmissionByID(ctx, id)
	if err != nil {
		return Submission{}, err
	}
	t, err := svc.target(ctx, sub)
	if err != nil {
		return Submission{}, err
	}

	return svc.repo.UpdateSubmission(ctx, id, func(sub *Submission) error {
		t.SubmissionStudentID = sub.StudentID
		if err := svc.authz.Authorize(actor, authz.SubmissionUpdate, t); err != nil {
			return err
		}
		ownsCourse := actor.IsTeacher() && actor.ID == t.CourseTeacherID
		if !ownsCourse {
			if us.Grade.Set || (us.Status.Set && Status(us.Status.String.String) == StatusGraded) {
				return ErrStudentCannotGrade
			}
			if sub.Status == StatusGraded {
				return ErrAlreadyGraded
			}
		}
		if err := us.Apply(sub); err != nil {
			return err
		}
		sub.UpdatedAt = time.Now().UTC()
		return nil
	})
}

func (svc *Service) Delete(ctx context.Context, actor user.User, id string) error {
	if err := core.CheckID(id); err != nil {
		return err
	}
	sub, err := svc.repo.GetSubmissionByID(ctx, id)
	if err != nil {
		return err
	}
	t, err := svc.target(ctx, sub)
	if err != nil {
		return err
	}
	if err = svc.authz.Authorize(actor, authz.SubmissionDelete, t); err != nil {
		return err
	}
	if err = svc.repo.DeleteSubmission(ctx, id); err != nil {
		return err
	}
	svc.events.Publish(ctx, core.NewEvent(core.EventSubmissionDeleted, sub.ID, actor.ID, sub))
	return nil
}
