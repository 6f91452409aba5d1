package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/coursework/core/grade"
	"github.com/trezcool/coursework/core/submission"
)

type submissionApi struct {
	svc    *submission.Service
	grades *grade.Service
}

func registerSubmissionAPI(g *echo.Group, authed []echo.MiddlewareFunc, svc *submission.Service, grades *grade.Service) {
	api := submissionApi{svc: svc, grades: grades}

	sg := g.Group("/submissions", authed...)
	sg.POST("", api.submit)
	sg.GET("/:id", api.retrieve)
	sg.PUT("/:id", api.update)
	sg.DELETE("/:id", api.destroy)
	sg.POST("/:id/grade", api.assignGrade)
}

func (api *submissionApi) submit(ctx echo.Context) error {
	var data submission.NewSubmission
	if err := bind(ctx, &data, "NewSubmission"); err != nil {
		return err
	}
	sub, err := api.svc.Submit(ctx.Request().Context(), getContextUser(ctx), data)
	if err != nil {
		return errors.Wrap(err, "submitting assignment")
	}
	return created(ctx, "assignment submitted", sub)
}

func (api *submissionApi) retrieve(ctx echo.Context) error {
	sub, err := api.svc.Get(ctx.Request().Context(), getContextUser(ctx), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting submission")
	}
	return success(ctx, "submission", sub)
}

func (api *submissionApi) update(ctx echo.Context) error {
	var data submission.UpdateSubmission
	if err := bind(ctx, &data, "UpdateSubmission"); err != nil {
		return err
	}
	sub, err := api.svc.Update(ctx.Request().Context(), getContextUser(ctx), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating submission")
	}
	return success(ctx, "submission updated", sub)
}

func (api *submissionApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), getContextUser(ctx), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting submission")
	}
	return deleted(ctx, "submission deleted")
}

func (api *submissionApi) assignGrade(ctx echo.Context) error {
	var data grade.NewGrade
	if err := bind(ctx, &data, "NewGrade"); err != nil {
		return err
	}
	g, err := api.grades.Assign(ctx.Request().Context(), getContextUser(ctx), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "assigning grade")
	}
	return created(ctx, "grade assigned", g)
}
