package user

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/coursework/core"
)

var (
	// errors
	ErrNotFound       = core.NewError(core.KindNotFound, "user not found")
	ErrEmailExists    = errors.New("a user with this email already exists")
	ErrUsernameExists = errors.New("a user with this username already exists")
	ErrOwnsCourses    = core.NewError(core.KindConflict, "user still teaches courses; delete them first")
)

type (
	Repository interface {
		CheckUsernameUniqueness(ctx context.Context, username, email string) error
		CreateUser(ctx context.Context, usr User) (User, error)
		QueryAllUsers(ctx context.Context) ([]User, error)
		GetUserByID(ctx context.Context, id string) (User, error)
		// FilterUsers applies AND operation on available QueryFilter fields.
		FilterUsers(ctx context.Context, filter QueryFilter) ([]User, error)
		// DeleteUsersByID removes the users atomically. It fails with ErrOwnsCourses if any of them
		// teaches a course. Deleted students leave every roster, and their submissions and grades go too.
		DeleteUsersByID(ctx context.Context, ids ...string) error
	}

	Service struct {
		repo     Repository
		validate *validator.Validate
	}
)

func NewService(repo Repository, validate *validator.Validate) *Service {
	return &Service{repo: repo, validate: validate}
}

func (svc *Service) checkUniqueness(ctx context.Context, uname, email string) error {
	if err := svc.repo.CheckUsernameUniqueness(ctx, uname, email); err != nil {
		var field string
		switch err {
		case ErrUsernameExists:
			field = "username"
		case ErrEmailExists:
			field = "email"
		default:
			return err
		}
		return core.NewValidationError(err, core.FieldError{Field: field, Error: err.Error()})
	}
	return nil
}

func (svc *Service) Create(ctx context.Context, nu NewUser) (User, error) {
	if err := nu.Validate(ctx, svc.validate, svc); err != nil {
		return User{}, err
	}
	now := time.Now().UTC()
	usr := User{
		ID:        core.NewID(),
		Name:      nu.Name,
		Username:  nu.Username,
		Email:     nu.Email,
		Role:      nu.Role,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return svc.repo.CreateUser(ctx, usr)
}

func (svc *Service) QueryAll(ctx context.Context) ([]User, error) {
	return svc.repo.QueryAllUsers(ctx)
}

func (svc *Service) GetByID(ctx context.Context, id string) (User, error) {
	if err := core.CheckID(id); err != nil {
		return User{}, err
	}
	return svc.repo.GetUserByID(ctx, id)
}

func (svc *Service) Filter(ctx context.Context, filter QueryFilter) ([]User, error) {
	filter.Clean()
	if filter.IsEmpty() {
		return svc.repo.QueryAllUsers(ctx)
	}
	return svc.repo.FilterUsers(ctx, filter)
}

func (svc *Service) Delete(ctx context.Context, ids ...string) error {
	for _, id := range ids {
		if err := core.CheckID(id); err != nil {
			return err
		}
	}
	return svc.repo.DeleteUsersByID(ctx, ids...)
}
