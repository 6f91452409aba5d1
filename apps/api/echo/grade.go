package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/coursework/core/grade"
)

type gradeApi struct {
	svc *grade.Service
}

func registerGradeAPI(g *echo.Group, authed []echo.MiddlewareFunc, svc *grade.Service) {
	api := gradeApi{svc: svc}

	gg := g.Group("/grades", authed...)
	gg.GET("", api.listOwn)
}

func (api *gradeApi) listOwn(ctx echo.Context) error {
	grades, err := api.svc.ListByStudent(ctx.Request().Context(), getContextUser(ctx))
	if err != nil {
		return errors.Wrap(err, "listing grades")
	}
	if grades == nil {
		grades = []grade.Grade{}
	}
	return success(ctx, "grades", grades)
}
