package logsvc

import (
	"io"
	"os"

	"github.com/rollbar/rollbar-go"
	"github.com/rollbar/rollbar-go/errors"
	"github.com/rs/zerolog"

	"github.com/trezcool/coursework/core"
	"github.com/trezcool/coursework/core/user"
)

// RollbarLogger reports to Rollbar (when enabled) and always writes a zerolog line.
type RollbarLogger struct {
	zl   zerolog.Logger
	exit func(code int)
}

var _ core.Logger = (*RollbarLogger)(nil)

func NewRollbarLogger(out io.Writer, name string, conf *core.Config) *RollbarLogger {
	rollbar.SetToken(conf.RollbarToken)
	rollbar.SetEnvironment(conf.Env)
	rollbar.SetServerHost(conf.Server.Host)
	rollbar.SetCodeVersion(conf.Build)
	rollbar.SetStackTracer(errors.StackTracer)

	if conf.Debug {
		out = zerolog.ConsoleWriter{Out: out}
	}
	zl := zerolog.New(out).With().Timestamp().Str("logger", name).Logger()
	return &RollbarLogger{zl: zl, exit: os.Exit}
}

func (l RollbarLogger) Enable(enabled bool) {
	rollbar.SetEnabled(enabled)
}

// expected fmt: msg | error, map[string]interface{}, user.User
func (l RollbarLogger) prepare(msg string, args []interface{}, ev *zerolog.Event) []interface{} {
	var usrSet bool
	newArgs := make([]interface{}, 0, len(args)+1)
	newArgs = append(newArgs, msg)
	for _, arg := range args {
		switch a := arg.(type) {
		case user.User:
			// set logged in User
			if !usrSet { // only set one User
				rollbar.SetPerson(a.ID, a.Username, a.Email)
				ev.Str("user_id", a.ID)
				usrSet = true
			}
			continue
		case error:
			ev.Err(a)
		case map[string]interface{}:
			ev.Fields(a)
		default:
			ev.Interface("arg", a)
		}
		newArgs = append(newArgs, arg)
	}
	if !usrSet {
		rollbar.ClearPerson()
	}
	return newArgs
}

func (l RollbarLogger) Debug(msg string, args ...interface{}) {
	ev := l.zl.Debug()
	rollbar.Debug(l.prepare(msg, args, ev)...)
	ev.Msg(msg)
}

func (l RollbarLogger) Info(msg string, args ...interface{}) {
	ev := l.zl.Info()
	rollbar.Info(l.prepare(msg, args, ev)...)
	ev.Msg(msg)
}

func (l RollbarLogger) Warn(msg string, args ...interface{}) {
	ev := l.zl.Warn()
	rollbar.Warning(l.prepare(msg, args, ev)...)
	ev.Msg(msg)
}

func (l RollbarLogger) Error(msg string, args ...interface{}) {
	ev := l.zl.Error()
	rollbar.Error(l.prepare(msg, args, ev)...)
	ev.Msg(msg)
}

func (l RollbarLogger) Fatal(msg string, args ...interface{}) {
	ev := l.zl.WithLevel(zerolog.FatalLevel)
	rollbar.Critical(l.prepare(msg, args, ev)...)
	ev.Msg(msg)
	rollbar.Wait()
	l.exit(1)
}
