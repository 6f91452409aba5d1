package course

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/coursework/core"
	"github.com/trezcool/coursework/core/authz"
	"github.com/trezcool/coursework/core/user"
)

var (
	// errors
	ErrNotFound        = core.NewError(core.KindNotFound, "course not found")
	ErrAlreadyEnrolled = core.NewError(core.KindConflict, "already enrolled")
	ErrNotEnrolled     = core.NewError(core.KindConflict, "not enrolled")
	ErrNotStudent      = core.NewError(core.KindForbidden, "only students may enroll")
)

type (
	Repository interface {
		CreateCourse(ctx context.Context, crs Course) (Course, error)
		GetCourseByID(ctx context.Context, id string) (Course, error)
		QueryCourses(ctx context.Context, filter QueryFilter) ([]Course, error)
		// UpdateCourse applies `fn` to the stored course atomically; an error from `fn` aborts the update.
		UpdateCourse(ctx context.Context, id string, fn func(*Course) error) (Course, error)
		// DeleteCourse removes the course with its assignments, submissions and grades.
		DeleteCourse(ctx context.Context, id string) error
	}

	UserGetter interface {
		GetUserByID(ctx context.Context, id string) (user.User, error)
	}

	Service struct {
		repo     Repository
		users    UserGetter
		authz    authz.Authorizer
		validate *validator.Validate
		events   core.EventPublisher
	}
)

func NewService(repo Repository, users UserGetter, az authz.Authorizer, validate *validator.Validate, events core.EventPublisher) *Service {
	return &Service{repo: repo, users: users, authz: az, validate: validate, events: events}
}

// Target builds the authorization target of `crs`.
func Target(crs Course) authz.Target {
	return authz.Target{CourseTeacherID: crs.TeacherID, CourseStudentIDs: crs.StudentIDs}
}

func (svc *Service) Create(ctx context.Context, actor user.User, nc NewCourse) (Course, error) {
	if err := nc.Validate(svc.validate); err != nil {
		return Course{}, err
	}
	if err := svc.authz.Authorize(actor, authz.CourseCreate, authz.Target{}); err != nil {
		return Course{}, err
	}

	teacherID := actor.ID
	if actor.IsAdmin() && nc.TeacherID != "" {
		teacher, err := svc.users.GetUserByID(ctx, nc.TeacherID)
		if err != nil && errors.Cause(err) != user.ErrNotFound {
			return Course{}, errors.Wrap(err, "getting teacher")
		}
		if err != nil || !teacher.IsTeacher() {
			return Course{}, core.NewFieldError("teacher_id", "must reference a teacher")
		}
		teacherID = teacher.ID
	}

	now := time.Now().UTC()
	crs := Course{
		ID:         core.NewID(),
		Title:      nc.Title,
		TeacherID:  teacherID,
		StudentIDs: []string{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if nc.Description != "" {
		crs.Description = null.StringFrom(nc.Description)
	}
	return svc.repo.CreateCourse(ctx, crs)
}

func (svc *Service) Get(ctx context.Context, actor user.User, id string) (Course, error) {
	if err := core.CheckID(id); err != nil {
		return Course{}, err
	}
	crs, err := svc.repo.GetCourseByID(ctx, id)
	if err != nil {
		return Course{}, err
	}
	if err = svc.authz.Authorize(actor, authz.CourseRead, Target(crs)); err != nil {
		return Course{}, err
	}
	return crs, nil
}

func (svc *Service) List(ctx context.Context, actor user.User) ([]Course, error) {
	if err := svc.authz.Authorize(actor, authz.CourseRead, authz.Target{}); err != nil {
		return nil, err
	}
	return svc.repo.QueryCourses(ctx, QueryFilter{})
}

func (svc *Service) ListEnrolled(ctx context.Context, actor user.User) ([]Course, error) {
	return svc.repo.QueryCourses(ctx, QueryFilter{StudentID: actor.ID})
}

func (svc *Service) Update(ctx context.Context, actor user.User, id string, uc UpdateCourse) (Course, error) {
	if err := core.CheckID(id); err != nil {
		return Course{}, err
	}
	if err := uc.Validate(); err != nil {
		return Course{}, err
	}
	return svc.repo.UpdateCourse(ctx, id, func(crs *Course) error {
		if err := svc.authz.Authorize(actor, authz.CourseUpdate, Target(*crs)); err != nil {
			return err
		}
		uc.Apply(crs)
		crs.UpdatedAt = time.Now().UTC()
		return nil
	})
}

func (svc *Service) Delete(ctx context.Context, actor user.User, id string) error {
	if err := core.CheckID(id); err != nil {
		return err
	}
	crs, err := svc.repo.GetCourseByID(ctx, id)
	if err != nil {
		return err
	}
	if err = svc.authz.Authorize(actor, authz.CourseDelete, Target(crs)); err != nil {
		return err
	}
	if err = svc.repo.DeleteCourse(ctx, id); err != nil {
		return err
	}
	svc.events.Publish(ctx, core.NewEvent(core.EventCourseDeleted, crs.ID, actor.ID, crs))
	return nil
}

func (svc *Service) Enroll(ctx context.Context, actor user.User, id string) (Course, error) {
	return svc.changeRoster(ctx, actor, id, authz.CourseEnroll, Enroll)
}

func (svc *Service) Unenroll(ctx context.Context, actor user.User, id string) (Course, error) {
	return svc.changeRoster(ctx, actor, id, authz.CourseUnenroll, Unenroll)
}

func (svc *Service) changeRoster(
	ctx context.Context,
	actor user.User,
	id string,
	action authz.Action,
	change func(Course, user.User) (Course, error),
) (Course, error) {
	if err := core.CheckID(id); err != nil {
		return Course{}, err
	}
	return svc.repo.UpdateCourse(ctx, id, func(crs *Course) error {
		if err := svc.authz.Authorize(actor, action, Target(*crs)); err != nil {
			return err
		}
		updated, err := change(*crs, actor)
		if err != nil {
			return err
		}
		*crs = updated
		crs.UpdatedAt = time.Now().UTC()
		return nil
	})
}
