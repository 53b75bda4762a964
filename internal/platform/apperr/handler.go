package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// Body is the JSON error envelope returned to clients.
type Body struct {
	Error Detail `json:"error"`
}

type Detail struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// HTTPErrorHandler renders typed errors and echo errors as JSON. Internal
// errors are logged with their cause; the client only sees a generic message.
func HTTPErrorHandler(logger zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, body := render(err)
		if status >= http.StatusInternalServerError {
			rid, _ := c.Get("request_id").(string)
			logger.Error().
				Err(err).
				Str("request_id", rid).
				Str("method", c.Request().Method).
				Str("path", c.Request().URL.Path).
				Msg("request failed")
		}

		var writeErr error
		if c.Request().Method == http.MethodHead {
			writeErr = c.NoContent(status)
		} else {
			writeErr = c.JSON(status, body)
		}
		if writeErr != nil {
			logger.Error().Err(writeErr).Msg("write error response")
		}
	}
}

func render(err error) (int, Body) {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		if inner, ok := he.Internal.(*Error); ok {
			return render(inner)
		}
		msg := http.StatusText(he.Code)
		if m, ok := he.Message.(string); ok && m != "" {
			msg = m
		} else if he.Message != nil {
			msg = fmt.Sprint(he.Message)
		}
		if he.Code >= http.StatusInternalServerError {
			msg = "internal server error"
		}
		return he.Code, Body{Error: Detail{Code: codeForStatus(he.Code), Message: msg}}
	}

	e := From(err)
	msg := e.Message
	if e.Kind == KindInternal && !errors.Is(e, ErrNoFieldsToUpdate) {
		msg = "internal server error"
	}
	return e.Kind.Status(), Body{Error: Detail{Code: e.Kind.String(), Message: msg, Fields: e.Fields}}
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusNotFound:
		return KindNotFound.String()
	case http.StatusConflict:
		return KindConflict.String()
	case http.StatusUnauthorized:
		return KindUnauthorized.String()
	case http.StatusForbidden:
		return KindForbidden.String()
	case http.StatusBadRequest:
		return "BAD_REQUEST"
	case http.StatusUnprocessableEntity:
		return KindBusinessRule.String()
	}
	if status >= http.StatusInternalServerError {
		return KindInternal.String()
	}
	return strings.ToUpper(strings.ReplaceAll(http.StatusText(status), " ", "_"))
}
