package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/coursework/core"
	"github.com/trezcool/coursework/core/user"
)

var (
	errUnauthorized       = echo.NewHTTPError(http.StatusUnauthorized, "user not authenticated")
	errAccountDeactivated = echo.NewHTTPError(http.StatusForbidden, "account deactivated")
	errHttpForbidden      = echo.NewHTTPError(http.StatusForbidden, "permission denied")
)

// response is the envelope of every JSON response.
type response struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// statusOf maps a domain error kind onto an HTTP status.
func statusOf(kind core.Kind) int {
	switch kind {
	case core.KindInvalid, core.KindInvalidID:
		return http.StatusBadRequest
	case core.KindForbidden:
		return http.StatusForbidden
	case core.KindNotFound:
		return http.StatusNotFound
	case core.KindConflict:
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, translator ut.Translator, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		res := response{}

		switch origErr := errors.Cause(err).(type) {
		case *echo.HTTPError:
			if origErr == middleware.ErrJWTMissing {
				origErr = echo.NewHTTPError(http.StatusUnauthorized, origErr.Message)
			}
			if origErr.Internal != nil {
				if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
					origErr = herr
				}
			}
			code = origErr.Code
			if msg, ok := origErr.Message.(string); ok {
				res.Message = msg
			} else {
				res.Message = http.StatusText(code)
			}
			res.Error = res.Message

		case validator.ValidationErrors:
			verr := core.TranslateValidationErrors(origErr, translator)
			code = http.StatusBadRequest
			res.Message = verr.Error()
			res.Error = http.StatusText(code)
			res.Data = verr.Fields

		case *core.ValidationError:
			code = http.StatusBadRequest
			res.Message = origErr.Error()
			res.Error = http.StatusText(code)
			if len(origErr.Fields) > 0 {
				res.Data = origErr.Fields
			}

		default:
			code = statusOf(core.KindOf(err))
			if code != http.StatusInternalServerError {
				res.Message = origErr.Error()
				res.Error = http.StatusText(code)
				break
			}

			// any other error is a server error
			res.Message = http.StatusText(code)
			res.Error = res.Message
			usr, _ := ctx.Get(contextUserKey).(user.User)
			logger.Error(res.Message, errors.Wrap(err, res.Message), usr)

			// shutting down...
			if core.IsShutdown(err) {
				signalShutdown()
			}
		}

		if ctx.Echo().Debug {
			res.Error = err.Error()
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
				err = ctx.NoContent(code)
			} else {
				err = ctx.JSON(code, res)
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}
