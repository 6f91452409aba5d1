package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// bind decodes the request into `dst`; `name` only labels the error.
func bind(ctx echo.Context, dst interface{}, name string) error {
	if err := ctx.Bind(dst); err != nil {
		return errors.Wrap(err, "binding to "+name)
	}
	return nil
}

func success(ctx echo.Context, message string, data interface{}) error {
	return ctx.JSON(http.StatusOK, response{Message: message, Data: data})
}

func created(ctx echo.Context, message string, data interface{}) error {
	return ctx.JSON(http.StatusCreated, response{Message: message, Data: data})
}

func deleted(ctx echo.Context, message string) error {
	return ctx.JSON(http.StatusOK, response{Message: message})
}
