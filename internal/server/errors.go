package server

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

// errorHandler converts every error echo surfaces outside a handler,
// including routing misses and auth failures, into the ErrorResponse
// envelope the rest of the API speaks.
func errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	msg := "internal server error"

	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		if s, ok := he.Message.(string); ok && s != "" {
			msg = s
		} else {
			msg = http.StatusText(code)
		}
	}

	_ = c.JSON(code, ErrorResponse{Error: msg, Code: code})
}
