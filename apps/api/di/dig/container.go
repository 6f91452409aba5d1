package dig_container

import (
	"context"
	"fmt"
	"log"
	"os"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/dig"

	echoapi "github.com/trezcool/coursework/apps/api/echo"
	"github.com/trezcool/coursework/core"
	"github.com/trezcool/coursework/core/assignment"
	"github.com/trezcool/coursework/core/authz"
	"github.com/trezcool/coursework/core/course"
	"github.com/trezcool/coursework/core/grade"
	"github.com/trezcool/coursework/core/submission"
	"github.com/trezcool/coursework/core/user"
	emailsvc "github.com/trezcool/coursework/services/email"
	eventsvc "github.com/trezcool/coursework/services/events"
	logsvc "github.com/trezcool/coursework/services/logger"
	"github.com/trezcool/coursework/services/reminder"
	"github.com/trezcool/coursework/storage"
)

type DBLoggerParam struct {
	dig.In
	Logger core.Logger `name:"dbLogger"`
}

func newLogger(conf *core.Config) core.Logger {
	logger := logsvc.NewRollbarLogger(os.Stdout, "API", conf)
	logger.Enable(!conf.Debug)
	return logger
}

func newDBLogger(conf *core.Config) core.Logger {
	logger := logsvc.NewRollbarLogger(os.Stdout, "DB", conf)
	logger.Enable(!conf.Debug)
	return logger
}

func newRepositories(conf *core.Config, loggerParam DBLoggerParam) *storage.Repositories {
	repos, err := storage.Open(conf, loggerParam.Logger, true /* migrate */)
	if err != nil {
		loggerParam.Logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	return repos
}

func newEventPublisher(conf *core.Config, logger core.Logger) core.EventPublisher {
	pub, err := eventsvc.NewPublisher(context.Background(), conf, logger)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up event publisher: %v", err), err)
	}
	return pub
}

func newValidator() (*validator.Validate, ut.Translator) {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	submission.InitValidators(validate, translator)
	return validate, translator
}

func newAuthorizer() authz.Authorizer {
	return authz.NewPolicy()
}

func newUserService(repos *storage.Repositories, validate *validator.Validate) *user.Service {
	return user.NewService(repos.Users, validate)
}

func newCourseService(
	repos *storage.Repositories,
	az authz.Authorizer,
	validate *validator.Validate,
	events core.EventPublisher,
) *course.Service {
	return course.NewService(repos.Courses, repos.Users, az, validate, events)
}

func newAssignmentService(repos *storage.Repositories, az authz.Authorizer, validate *validator.Validate) *assignment.Service {
	return assignment.NewService(repos.Assignments, repos.Courses, az, validate)
}

func newSubmissionService(
	repos *storage.Repositories,
	az authz.Authorizer,
	validate *validator.Validate,
	events core.EventPublisher,
) *submission.Service {
	return submission.NewService(repos.Submissions, repos.Courses, repos.Assignments, az, validate, events)
}

func newGradeService(
	repos *storage.Repositories,
	az authz.Authorizer,
	validate *validator.Validate,
	events core.EventPublisher,
	mailSvc core.EmailService,
) *grade.Service {
	return grade.NewService(
		repos.Grades, repos.Courses, repos.Submissions, repos.Assignments, repos.Users,
		az, validate, events, mailSvc,
	)
}

func newReminder(conf *core.Config, repos *storage.Repositories, mailSvc core.EmailService, logger core.Logger) *reminder.Scheduler {
	return reminder.NewScheduler(conf, reminder.Deps{
		Assignments: repos.Assignments,
		Courses:     repos.Courses,
		Submissions: repos.Submissions,
		Users:       repos.Users,
		MailSvc:     mailSvc,
		Logger:      logger,
	})
}

type serverParams struct {
	dig.In
	Conf       *core.Config
	Logger     core.Logger
	Translator ut.Translator
	UserSvc    *user.Service
	CourseSvc  *course.Service
	AssignSvc  *assignment.Service
	SubmitSvc  *submission.Service
	GradeSvc   *grade.Service
}

func newServer(p serverParams) *echoapi.Server {
	return echoapi.NewServer(echoapi.ServerDeps{
		Conf:       p.Conf,
		Logger:     p.Logger,
		Translator: p.Translator,
		Registerer: prometheus.DefaultRegisterer,
		UserSvc:    p.UserSvc,
		CourseSvc:  p.CourseSvc,
		AssignSvc:  p.AssignSvc,
		SubmitSvc:  p.SubmitSvc,
		GradeSvc:   p.GradeSvc,
	})
}

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	c := dig.New()

	must(c.Provide(core.NewConfig))
	must(c.Provide(newLogger))
	must(c.Provide(newDBLogger, dig.Name("dbLogger")))
	must(c.Provide(newRepositories))
	must(c.Provide(emailsvc.NewService))
	must(c.Provide(newEventPublisher))
	must(c.Provide(newValidator))
	must(c.Provide(newAuthorizer))
	must(c.Provide(newUserService))
	must(c.Provide(newCourseService))
	must(c.Provide(newAssignmentService))
	must(c.Provide(newSubmissionService))
	must(c.Provide(newGradeService))
	must(c.Provide(newReminder))
	must(c.Provide(newServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
