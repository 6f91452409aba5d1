package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof" // /debug/pprof on the default mux

	"github.com/prometheus/client_golang/prometheus/promhttp"

	dig_container "github.com/trezcool/coursework/apps/api/di/dig"
	echoapi "github.com/trezcool/coursework/apps/api/echo"
	"github.com/trezcool/coursework/core"
	"github.com/trezcool/coursework/services/reminder"
	"github.com/trezcool/coursework/storage"
)

type app struct {
	conf      *core.Config
	logger    core.Logger
	dbLogger  core.Logger
	repos     *storage.Repositories
	scheduler *reminder.Scheduler
	server    *echoapi.Server
}

func main() {
	c := dig_container.New()

	must(c.Invoke(func(
		conf *core.Config,
		logger core.Logger,
		dbLogger dig_container.DBLoggerParam,
		repos *storage.Repositories,
		scheduler *reminder.Scheduler,
		server *echoapi.Server,
	) {
		a := &app{
			conf:      conf,
			logger:    logger,
			dbLogger:  dbLogger.Logger,
			repos:     repos,
			scheduler: scheduler,
			server:    server,
		}
		a.run()
	}))
}

func (a *app) run() {
	a.logger.Info(fmt.Sprintf("Application initializing : version %q", a.conf.Build))
	defer a.logger.Info("Application stopped")
	defer func() {
		if err := a.repos.Close(); err != nil {
			a.dbLogger.Fatal("Failed to close", err)
		}
	}()

	a.serveDebug()

	if err := a.scheduler.Start(); err != nil {
		a.logger.Fatal(fmt.Sprintf("starting reminders: %v", err), err)
	}
	defer a.scheduler.Stop()

	go a.server.Start()

	select {
	case err := <-a.server.Errors():
		a.logger.Error(fmt.Sprintf("server error: %v", err), err)
	case sig := <-a.server.ShutdownSignal():
		a.logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))
		a.shutdown()
	}
}

// serveDebug exposes /debug/pprof, /debug/vars and /metrics on the debug host.
func (a *app) serveDebug() {
	expvar.NewString("build").Set(a.conf.Build)
	expvar.NewString("env").Set(a.conf.Env)
	http.Handle("/metrics", promhttp.Handler())

	go func() {
		if err := http.ListenAndServe(a.conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			a.logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()
}

// shutdown drains in-flight requests, then forces the listener closed past the deadline.
func (a *app) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), a.conf.Server.ShutdownTimeout)
	defer cancel()

	err := a.server.Shutdown(ctx)
	if err == nil {
		return
	}
	a.logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)
	if err = a.server.Close(); err != nil {
		a.logger.Error(fmt.Sprintf("could not force stop server: %v", err), err)
	}
}

func must(err error) {
	if err != nil {
		log.Fatal(err)
	}
}
