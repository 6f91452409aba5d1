package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/coursework/core/assignment"
	"github.com/trezcool/coursework/core/course"
	"github.com/trezcool/coursework/core/grade"
	"github.com/trezcool/coursework/core/submission"
)

type courseApi struct {
	svc         *course.Service
	assignments *assignment.Service
	submissions *submission.Service
	grades      *grade.Service
}

func registerCourseAPI(
	g *echo.Group,
	authed []echo.MiddlewareFunc,
	svc *course.Service,
	assignments *assignment.Service,
	submissions *submission.Service,
	grades *grade.Service,
) {
	api := courseApi{
		svc:         svc,
		assignments: assignments,
		submissions: submissions,
		grades:      grades,
	}

	cg := g.Group("/courses", authed...)
	cg.GET("", api.list)
	cg.POST("", api.create)
	cg.GET("/enrolled", api.listEnrolled)

	// detail endpoints
	cg.GET("/:id", api.retrieve)
	cg.PUT("/:id", api.update)
	cg.DELETE("/:id", api.destroy)
	cg.POST("/:id/enroll", api.enroll)
	cg.POST("/:id/unenroll", api.unenroll)
	cg.GET("/:id/assignments", api.listAssignments)
	cg.GET("/:id/submissions", api.listSubmissions)
	cg.GET("/:id/grades", api.listGrades)
	cg.GET("/:id/grades/breakdown", api.gradeBreakdown)
	cg.GET("/:id/statistics", api.statistics)
}

func (api *courseApi) list(ctx echo.Context) error {
	courses, err := api.svc.List(ctx.Request().Context(), getContextUser(ctx))
	if err != nil {
		return errors.Wrap(err, "listing courses")
	}
	if courses == nil {
		courses = []course.Course{}
	}
	return success(ctx, "courses", courses)
}

func (api *courseApi) listEnrolled(ctx echo.Context) error {
	courses, err := api.svc.ListEnrolled(ctx.Request().Context(), getContextUser(ctx))
	if err != nil {
		return errors.Wrap(err, "listing enrolled courses")
	}
	if courses == nil {
		courses = []course.Course{}
	}
	return success(ctx, "enrolled courses", courses)
}

func (api *courseApi) create(ctx echo.Context) error {
	var data course.NewCourse
	if err := bind(ctx, &data, "NewCourse"); err != nil {
		return err
	}
	crs, err := api.svc.Create(ctx.Request().Context(), getContextUser(ctx), data)
	if err != nil {
		return errors.Wrap(err, "creating course")
	}
	return created(ctx, "course created", crs)
}

func (api *courseApi) retrieve(ctx echo.Context) error {
	crs, err := api.svc.Get(ctx.Request().Context(), getContextUser(ctx), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting course")
	}
	return success(ctx, "course", crs)
}

func (api *courseApi) update(ctx echo.Context) error {
	var data course.UpdateCourse
	if err := bind(ctx, &data, "UpdateCourse"); err != nil {
		return err
	}
	crs, err := api.svc.Update(ctx.Request().Context(), getContextUser(ctx), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating course")
	}
	return success(ctx, "course updated", crs)
}

func (api *courseApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), getContextUser(ctx), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting course")
	}
	return deleted(ctx, "course deleted")
}

func (api *courseApi) enroll(ctx echo.Context) error {
	crs, err := api.svc.Enroll(ctx.Request().Context(), getContextUser(ctx), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "enrolling")
	}
	return success(ctx, "enrolled", crs)
}

func (api *courseApi) unenroll(ctx echo.Context) error {
	crs, err := api.svc.Unenroll(ctx.Request().Context(), getContextUser(ctx), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "unenrolling")
	}
	return success(ctx, "unenrolled", crs)
}

func (api *courseApi) listAssignments(ctx echo.Context) error {
	asgs, err := api.assignments.ListByCourse(ctx.Request().Context(), getContextUser(ctx), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "listing course assignments")
	}
	if asgs == nil {
		asgs = []assignment.Assignment{}
	}
	return success(ctx, "assignments", asgs)
}

func (api *courseApi) listSubmissions(ctx echo.Context) error {
	var filter submission.QueryFilter
	if err := bind(ctx, &filter, "QueryFilter"); err != nil {
		return err
	}
	subs, err := api.submissions.ListByCourse(ctx.Request().Context(), getContextUser(ctx), ctx.Param("id"), filter)
	if err != nil {
		return errors.Wrap(err, "listing course submissions")
	}
	if subs == nil {
		subs = []submission.Submission{}
	}
	return success(ctx, "submissions", subs)
}

func (api *courseApi) listGrades(ctx echo.Context) error {
	grades, err := api.grades.ListByCourse(ctx.Request().Context(), getContextUser(ctx), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "listing course grades")
	}
	if grades == nil {
		grades = []grade.Grade{}
	}
	return success(ctx, "grades", grades)
}

func (api *courseApi) gradeBreakdown(ctx echo.Context) error {
	breakdown, err := api.grades.StudentBreakdown(ctx.Request().Context(), getContextUser(ctx), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "computing grade breakdown")
	}
	return success(ctx, "grade breakdown", breakdown)
}

func (api *courseApi) statistics(ctx echo.Context) error {
	stats, err := api.grades.Statistics(ctx.Request().Context(), getContextUser(ctx), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "computing course statistics")
	}
	return success(ctx, "course statistics", stats)
}
