package grade

import (
	"context"
	"net/mail"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/coursework/core"
	"github.com/trezcool/coursework/core/assignment"
	"github.com/trezcool/coursework/core/authz"
	"github.com/trezcool/coursework/core/course"
	"github.com/trezcool/coursework/core/submission"
	"github.com/trezcool/coursework/core/user"
)

var (
	// errors
	ErrAlreadyGraded = core.NewError(core.KindConflict, "submission already has a grade")
)

type (
	Repository interface {
		// CreateGrade stores `g`, failing with ErrAlreadyGraded when its submission already has a grade.
		CreateGrade(ctx context.Context, g Grade) (Grade, error)
		// QueryGrades returns the matching grades, newest first.
		QueryGrades(ctx context.Context, filter QueryFilter) ([]Grade, error)
	}

	CourseGetter interface {
		GetCourseByID(ctx context.Context, id string) (course.Course, error)
	}

	SubmissionGetter interface {
		GetSubmissionByID(ctx context.Context, id string) (submission.Submission, error)
	}

	AssignmentQuerier interface {
		GetAssignmentByID(ctx context.Context, id string) (assignment.Assignment, error)
		QueryAssignments(ctx context.Context, filter assignment.QueryFilter) ([]assignment.Assignment, error)
	}

	UserGetter interface {
		GetUserByID(ctx context.Context, id string) (user.User, error)
	}

	Service struct {
		repo        Repository
		courses     CourseGetter
		submissions SubmissionGetter
		assignments AssignmentQuerier
		users       UserGetter
		authz       authz.Authorizer
		validate    *validator.Validate
		events      core.EventPublisher
		mailSvc     core.EmailService
	}

	gradeMailData struct {
		StudentName     string
		CourseTitle     string
		AssignmentTitle string
		Grade           float64
	}
)

func NewService(
	repo Repository,
	courses CourseGetter,
	submissions SubmissionGetter,
	assignments AssignmentQuerier,
	users UserGetter,
	az authz.Authorizer,
	validate *validator.Validate,
	events core.EventPublisher,
	mailSvc core.EmailService,
) *Service {
	return &Service{
		repo:        repo,
		courses:     courses,
		submissions: submissions,
		assignments: assignments,
		users:       users,
		authz:       az,
		validate:    validate,
		events:      events,
		mailSvc:     mailSvc,
	}
}

// Assign records the grade of a submission. The submission status is left as is.
func (svc *Service) Assign(ctx context.Context, actor user.User, submissionID string, ng NewGrade) (Grade, error) {
	if err := core.CheckID(submissionID); err != nil {
		return Grade{}, err
	}
	if err := ng.Validate(svc.validate); err != nil {
		return Grade{}, err
	}
	crs, err := svc.courses.GetCourseByID(ctx, ng.CourseID)
	if err != nil {
		return Grade{}, err
	}
	if err = svc.authz.Authorize(actor, authz.GradeAssign, course.Target(crs)); err != nil {
		return Grade{}, err
	}
	if !crs.IsEnrolled(ng.StudentID) {
		return Grade{}, course.ErrNotEnrolled
	}
	sub, err := svc.submissions.GetSubmissionByID(ctx, submissionID)
	if err != nil {
		return Grade{}, err
	}
	if sub.StudentID != ng.StudentID || sub.CourseID != crs.ID {
		return Grade{}, core.NewFieldError("submission", "submission does not belong to this student and course")
	}

	g, err := svc.repo.CreateGrade(ctx, Grade{
		ID:           core.NewID(),
		StudentID:    sub.StudentID,
		CourseID:     crs.ID,
		SubmissionID: sub.ID,
		AssignmentID: sub.AssignmentID,
		Value:        *ng.Value,
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil {
		return Grade{}, err
	}

	svc.events.Publish(ctx, core.NewEvent(core.EventGradeAssigned, g.ID, actor.ID, g))
	svc.notifyStudent(ctx, crs, g)
	return g, nil
}

func (svc *Service) notifyStudent(ctx context.Context, crs course.Course, g Grade) {
	student, err := svc.users.GetUserByID(ctx, g.StudentID)
	if err != nil || student.Email == "" {
		return
	}
	var asgTitle string
	if asg, err := svc.assignments.GetAssignmentByID(ctx, g.AssignmentID); err == nil {
		asgTitle = asg.Title
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: student.Name, Address: student.Email}},
		Subject:      "Your submission has been graded",
		TemplateName: "grade_assigned",
		TemplateData: gradeMailData{
			StudentName:     student.Name,
			CourseTitle:     crs.Title,
			AssignmentTitle: asgTitle,
			Grade:           g.Value,
		},
	})
}

// ListByStudent lists the acting student's grades, newest first.
func (svc *Service) ListByStudent(ctx context.Context, actor user.User) ([]Grade, error) {
	if err := svc.authz.Authorize(actor, authz.GradeRead, authz.Target{StudentID: actor.ID}); err != nil {
		return nil, err
	}
	return svc.repo.QueryGrades(ctx, QueryFilter{StudentID: actor.ID})
}

// ListByCourse lists a course's grades, newest first.
func (svc *Service) ListByCourse(ctx context.Context, actor user.User, courseID string) ([]Grade, error) {
	crs, err := svc.authorizedCourse(ctx, actor, courseID, authz.GradeRead)
	if err != nil {
		return nil, err
	}
	return svc.repo.QueryGrades(ctx, QueryFilter{CourseID: crs.ID})
}

func (svc *Service) Statistics(ctx context.Context, actor user.User, courseID string) (Statistics, error) {
	crs, err := svc.authorizedCourse(ctx, actor, courseID, authz.StatisticsRead)
	if err != nil {
		return Statistics{}, err
	}
	grades, err := svc.repo.QueryGrades(ctx, QueryFilter{CourseID: crs.ID})
	if err != nil {
		return Statistics{}, err
	}
	return ComputeStatistics(crs, grades), nil
}

// StudentBreakdown groups a course's grades by student.
func (svc *Service) StudentBreakdown(ctx context.Context, actor user.User, courseID string) (map[string]StudentGrades, error) {
	crs, err := svc.authorizedCourse(ctx, actor, courseID, authz.GradeBreakdownRead)
	if err != nil {
		return nil, err
	}
	grades, err := svc.repo.QueryGrades(ctx, QueryFilter{CourseID: crs.ID})
	if err != nil {
		return nil, err
	}

	asgs, err := svc.assignments.QueryAssignments(ctx, assignment.QueryFilter{CourseID: crs.ID})
	if err != nil {
		return nil, err
	}
	labels := make(map[string]string, len(asgs))
	for _, asg := range asgs {
		labels[asg.ID] = asg.Title
	}

	students := make(map[string]user.User)
	for _, g := range grades {
		if _, ok := students[g.StudentID]; ok {
			continue
		}
		usr, err := svc.users.GetUserByID(ctx, g.StudentID)
		if err != nil {
			if errors.Cause(err) == user.ErrNotFound {
				continue
			}
			return nil, err
		}
		students[g.StudentID] = usr
	}
	return Breakdown(grades, students, labels), nil
}

func (svc *Service) authorizedCourse(ctx context.Context, actor user.User, courseID string, action authz.Action) (course.Course, error) {
	if err := core.CheckID(courseID); err != nil {
		return course.Course{}, err
	}
	crs, err := svc.courses.GetCourseByID(ctx, courseID)
	if err != nil {
		return course.Course{}, err
	}
	if err = svc.authz.Authorize(actor, action, course.Target(crs)); err != nil {
		return course.Course{}, err
	}
	return crs, nil
}
