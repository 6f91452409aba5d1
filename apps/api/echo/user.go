package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/coursework/core/user"
)

type userApi struct {
	svc *user.Service
}

func registerUserAPI(g *echo.Group, authed []echo.MiddlewareFunc, svc *user.Service) {
	api := userApi{svc: svc}

	ug := g.Group("/users", authed...)
	ug.GET("/me", api.me)
	ug.GET("/roles", api.queryRoles)
	ug.GET("", api.query, adminMiddleware)
	ug.POST("", api.create, adminMiddleware)
	ug.DELETE("/:id", api.destroy, adminMiddleware)
}

func (api *userApi) create(ctx echo.Context) error {
	var data user.NewUser
	if err := bind(ctx, &data, "NewUser"); err != nil {
		return err
	}
	usr, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating user")
	}
	return created(ctx, "user created", usr)
}

func (api *userApi) query(ctx echo.Context) error {
	var filter user.QueryFilter
	if err := bind(ctx, &filter, "QueryFilter"); err != nil {
		return err
	}
	users, err := api.svc.Filter(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying users")
	}
	if users == nil {
		users = []user.User{}
	}
	return success(ctx, "users", users)
}

func (api *userApi) me(ctx echo.Context) error {
	return success(ctx, "current user", getContextUser(ctx))
}

func (api *userApi) queryRoles(ctx echo.Context) error {
	return success(ctx, "roles", user.Roles)
}

func (api *userApi) destroy(ctx echo.Context) error {
	id := ctx.Param("id")
	// admins cannot delete themselves
	if id == getContextUser(ctx).ID {
		return errHttpForbidden
	}
	if _, err := api.svc.GetByID(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "finding user")
	}
	if err := api.svc.Delete(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "deleting user")
	}
	return deleted(ctx, "user deleted")
}
