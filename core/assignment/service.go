package assignment

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/coursework/core"
	"github.com/trezcool/coursework/core/authz"
	"github.com/trezcool/coursework/core/course"
	"github.com/trezcool/coursework/core/user"
)

var (
	// errors
	ErrNotFound = core.NewError(core.KindNotFound, "assignment not found")
)

type (
	Repository interface {
		CreateAssignment(ctx context.Context, asg Assignment) (Assignment, error)
		GetAssignmentByID(ctx context.Context, id string) (Assignment, error)
		QueryAssignments(ctx context.Context, filter QueryFilter) ([]Assignment, error)
		// UpdateAssignment applies `fn` to the stored assignment atomically; an error from `fn` aborts the update.
		UpdateAssignment(ctx context.Context, id string, fn func(*Assignment) error) (Assignment, error)
		// DeleteAssignment removes the assignment with its submissions and grades.
		DeleteAssignment(ctx context.Context, id string) error
	}

	CourseGetter interface {
		GetCourseByID(ctx context.Context, id string) (course.Course, error)
	}

	Service struct {
		repo     Repository
		courses  CourseGetter
		authz    authz.Authorizer
		validate *validator.Validate
	}
)

func NewService(repo Repository, courses CourseGetter, az authz.Authorizer, validate *validator.Validate) *Service {
	return &Service{repo: repo, courses: courses, authz: az, validate: validate}
}

func (svc *Service) target(ctx context.Context, asg Assignment) (authz.Target, error) {
	crs, err := svc.courses.GetCourseByID(ctx, asg.CourseID)
	if err != nil && errors.Cause(err) != course.ErrNotFound {
		return authz.Target{}, err
	}
	t := course.Target(crs)
	t.AssignmentTeacherID = asg.TeacherID
	return t, nil
}

func (svc *Service) Create(ctx context.Context, actor user.User, na NewAssignment) (Assignment, error) {
	if err := na.Validate(svc.validate); err != nil {
		return Assignment{}, err
	}
	crs, err := svc.courses.GetCourseByID(ctx, na.CourseID)
	if err != nil {
		return Assignment{}, err
	}
	if err = svc.authz.Authorize(actor, authz.AssignmentCreate, course.Target(crs)); err != nil {
		return Assignment{}, err
	}

	now := time.Now().UTC()
	asg := Assignment{
		ID:            core.NewID(),
		Title:         na.Title,
		Description:   na.Description,
		CourseID:      crs.ID,
		TeacherID:     crs.TeacherID,
		DueDate:       na.DueDate.UTC(),
		SubmissionIDs: []string{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	return svc.repo.CreateAssignment(ctx, asg)
}

func (svc *Service) Get(ctx context.Context, actor user.User, id string) (Assignment, error) {
	if err := core.CheckID(id); err != nil {
		return Assignment{}, err
	}
	asg, err := svc.repo.GetAssignmentByID(ctx, id)
	if err != nil {
		return Assignment{}, err
	}
	t, err := svc.target(ctx, asg)
	if err != nil {
		return Assignment{}, err
	}
	if err = svc.authz.Authorize(actor, authz.AssignmentRead, t); err != nil {
		return Assignment{}, err
	}
	return asg, nil
}

// ListByTeacher lists the assignments owned by `actor`.
func (svc *Service) ListByTeacher(ctx context.Context, actor user.User) ([]Assignment, error) {
	if !actor.IsTeacher() {
		return nil, &authz.Denied{Action: authz.AssignmentRead, Reason: authz.ReasonRole}
	}
	return svc.repo.QueryAssignments(ctx, QueryFilter{TeacherID: actor.ID})
}

func (svc *Service) ListByCourse(ctx context.Context, actor user.User, courseID string) ([]Assignment, error) {
	if err := core.CheckID(courseID); err != nil {
		return nil, err
	}
	crs, err := svc.courses.GetCourseByID(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if err = svc.authz.Authorize(actor, authz.AssignmentRead, course.Target(crs)); err != nil {
		return nil, err
	}
	return svc.repo.QueryAssignments(ctx, QueryFilter{CourseID: crs.ID})
}

func (svc *Service) Update(ctx context.Context, actor user.User, id string, ua UpdateAssignment) (Assignment, error) {
	if err := core.CheckID(id); err != nil {
		return Assignment{}, err
	}
	if err := ua.Validate(); err != nil {
		return Assignment{}, err
	}
	return svc.mutate(ctx, actor, id, authz.AssignmentUpdate, ua.Apply)
}

func (svc *Service) SetDueDate(ctx context.Context, actor user.User, id string, sd SetDueDate) (Assignment, error) {
	if err := core.CheckID(id); err != nil {
		return Assignment{}, err
	}
	if err := sd.Validate(svc.validate); err != nil {
		return Assignment{}, err
	}
	return svc.mutate(ctx, actor, id, authz.AssignmentSetDueDate, func(asg *Assignment) {
		asg.DueDate = sd.DueDate.UTC()
	})
}

func (svc *Service) mutate(ctx context.Context, actor user.User, id string, action authz.Action, apply func(*Assignment)) (Assignment, error) {
	asg, err := svc.repo.GetAssignmentByID(ctx, id)
	if err != nil {
		return Assignment{}, err
	}
	t, err := svc.target(ctx, asg)
	if err != nil {
		return Assignment{}, err
	}
	return svc.repo.UpdateAssignment(ctx, id, func(asg *Assignment) error {
		t.AssignmentTeacherID = asg.TeacherID
		if err := svc.authz.Authorize(actor, action, t); err != nil {
			return err
		}
		apply(asg)
		asg.UpdatedAt = time.Now().UTC()
		return nil
	})
}

func (svc *Service) Delete(ctx context.Context, actor user.User, id string) error {
	if err := core.CheckID(id); err != nil {
		return err
	}
	asg, err := svc.repo.GetAssignmentByID(ctx, id)
	if err != nil {
		return err
	}
	t, err := svc.target(ctx, asg)
	if err != nil {
		return err
	}
	if err = svc.authz.Authorize(actor, authz.AssignmentDelete, t); err != nil {
		return err
	}
	return svc.repo.DeleteAssignment(ctx, id)
}
