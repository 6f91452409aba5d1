package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/trezcool/coursework/core"
	"github.com/trezcool/coursework/core/assignment"
	"github.com/trezcool/coursework/core/course"
	"github.com/trezcool/coursework/core/grade"
	"github.com/trezcool/coursework/core/submission"
	"github.com/trezcool/coursework/core/user"
)

type (
	ServerDeps struct {
		Conf       *core.Config
		Logger     core.Logger
		Translator ut.Translator
		Registerer prometheus.Registerer
		UserSvc    *user.Service
		CourseSvc  *course.Service
		AssignSvc  *assignment.Service
		SubmitSvc  *submission.Service
		GradeSvc   *grade.Service
	}

	Server struct {
		conf     *core.Config
		app      *echo.Echo
		shutdown chan os.Signal
		errors   chan error
	}
)

func NewServer(deps ServerDeps) *Server {
	s := &Server{
		conf:     deps.Conf,
		app:      echo.New(),
		shutdown: make(chan os.Signal, 1),
		errors:   make(chan error, 1),
	}
	s.setup(deps)
	return s
}

func (s *Server) setup(deps ServerDeps) {
	s.app.HideBanner = true
	s.app.Server.ReadTimeout = deps.Conf.Server.ReadTimeout
	s.app.Server.WriteTimeout = deps.Conf.Server.WriteTimeout

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !deps.Conf.Server.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(deps.Conf.Debug || deps.Conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}
	if deps.Registerer != nil {
		s.app.Use(metricsMiddleware(newMetrics(deps.Registerer)))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(deps.Logger, deps.Translator, s.SignalShutdown)
	s.app.Debug = deps.Conf.Debug && !deps.Conf.TestMode

	s.app.GET("/", home(deps.Conf.AppName))

	v1 := s.app.Group("/v1")
	authed := []echo.MiddlewareFunc{
		middleware.JWTWithConfig(newJWTConfig(deps.Conf)),
		currentUserMiddleware(deps.UserSvc),
	}

	registerUserAPI(v1, authed, deps.UserSvc)
	registerCourseAPI(v1, authed, deps.CourseSvc, deps.AssignSvc, deps.SubmitSvc, deps.GradeSvc)
	registerAssignmentAPI(v1, authed, deps.AssignSvc)
	registerSubmissionAPI(v1, authed, deps.SubmitSvc, deps.GradeSvc)
	registerGradeAPI(v1, authed, deps.GradeSvc)
}

// Start listens on the configured address; failures are reported on Errors().
func (s *Server) Start() {
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	if err := s.app.Start(s.conf.Server.Address); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *Server) Close() error {
	return s.app.Close()
}

func (s *Server) Errors() <-chan error {
	return s.errors
}

func (s *Server) ShutdownSignal() <-chan os.Signal {
	return s.shutdown
}

// SignalShutdown asks the application to stop gracefully.
func (s *Server) SignalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default:
	}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(appName string) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		return ctx.String(http.StatusOK, "Welcome to "+appName+" API!")
	}
}
