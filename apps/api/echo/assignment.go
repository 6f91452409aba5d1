package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/coursework/core/assignment"
)

type assignmentApi struct {
	svc *assignment.Service
}

func registerAssignmentAPI(g *echo.Group, authed []echo.MiddlewareFunc, svc *assignment.Service) {
	api := assignmentApi{svc: svc}

	ag := g.Group("/assignments", authed...)
	ag.GET("", api.listOwn)
	ag.POST("", api.create)
	ag.GET("/:id", api.retrieve)
	ag.PUT("/:id", api.update)
	ag.DELETE("/:id", api.destroy)
	ag.PUT("/:id/due-date", api.setDueDate)
}

func (api *assignmentApi) listOwn(ctx echo.Context) error {
	asgs, err := api.svc.ListByTeacher(ctx.Request().Context(), getContextUser(ctx))
	if err != nil {
		return errors.Wrap(err, "listing teacher assignments")
	}
	if asgs == nil {
		asgs = []assignment.Assignment{}
	}
	return success(ctx, "assignments", asgs)
}

func (api *assignmentApi) create(ctx echo.Context) error {
	var data assignment.NewAssignment
	if err := bind(ctx, &data, "NewAssignment"); err != nil {
		return err
	}
	asg, err := api.svc.Create(ctx.Request().Context(), getContextUser(ctx), data)
	if err != nil {
		return errors.Wrap(err, "creating assignment")
	}
	return created(ctx, "assignment created", asg)
}

func (api *assignmentApi) retrieve(ctx echo.Context) error {
	asg, err := api.svc.Get(ctx.Request().Context(), getContextUser(ctx), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting assignment")
	}
	return success(ctx, "assignment", asg)
}

func (api *assignmentApi) update(ctx echo.Context) error {
	var data assignment.UpdateAssignment
	if err := bind(ctx, &data, "UpdateAssignment"); err != nil {
		return err
	}
	asg, err := api.svc.Update(ctx.Request().Context(), getContextUser(ctx), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating assignment")
	}
	return success(ctx, "assignment updated", asg)
}

func (api *assignmentApi) setDueDate(ctx echo.Context) error {
	var data assignment.SetDueDate
	if err := bind(ctx, &data, "SetDueDate"); err != nil {
		return err
	}
	asg, err := api.svc.SetDueDate(ctx.Request().Context(), getContextUser(ctx), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "setting due date")
	}
	return success(ctx, "due date updated", asg)
}

func (api *assignmentApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), getContextUser(ctx), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting assignment")
	}
	return deleted(ctx, "assignment deleted")
}
