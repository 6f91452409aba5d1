package testutil

import (
	"testing"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/coursework/core"
	"github.com/trezcool/coursework/core/assignment"
	"github.com/trezcool/coursework/core/authz"
	"github.com/trezcool/coursework/core/course"
	"github.com/trezcool/coursework/core/grade"
	"github.com/trezcool/coursework/core/submission"
	"github.com/trezcool/coursework/core/user"
	emailsvc "github.com/trezcool/coursework/services/email"
	"github.com/trezcool/coursework/storage"
)

// Env is a fully wired set of domain services on a temporary bolt store.
type Env struct {
	Conf       *core.Config
	Logger     core.Logger
	Repos      *storage.Repositories
	Validate   *validator.Validate
	Translator ut.Translator
	Events     *EventRecorder
	Mail       *emailsvc.ConsoleServiceMock

	Users       *user.Service
	Courses     *course.Service
	Assignments *assignment.Service
	Submissions *submission.Service
	Grades      *grade.Service
}

func NewEnv(t *testing.T) *Env {
	t.Helper()
	conf := NewConfig()
	logger := NewLogger(conf)
	repos := OpenBoltDB(t)
	validate, translator := NewValidator()
	events := new(EventRecorder)
	mailSvc := emailsvc.NewConsoleServiceMock(conf, logger)
	policy := authz.NewPolicy()

	return &Env{
		Conf:       conf,
		Logger:     logger,
		Repos:      repos,
		Validate:   validate,
		Translator: translator,
		Events:     events,
		Mail:       mailSvc,

		Users:       user.NewService(repos.Users, validate),
		Courses:     course.NewService(repos.Courses, repos.Users, policy, validate, events),
		Assignments: assignment.NewService(repos.Assignments, repos.Courses, policy, validate),
		Submissions: submission.NewService(repos.Submissions, repos.Courses, repos.Assignments, policy, validate, events),
		Grades: grade.NewService(
			repos.Grades, repos.Courses, repos.Submissions, repos.Assignments, repos.Users,
			policy, validate, events, mailSvc,
		),
	}
}
