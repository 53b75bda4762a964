// Package httpx holds the request parsing and response helpers shared by the
// domain handlers.
package httpx

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/postosaude/clinic/internal/platform/apperr"
)

// ParamUUID parses the path parameter name as a UUID.
func ParamUUID(c echo.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, apperr.Invalid(name, "must be a valid uuid")
	}
	return id, nil
}

// QueryUUID parses the optional query parameter name. A missing parameter
// yields nil.
func QueryUUID(c echo.Context, name string) (*uuid.UUID, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, apperr.Invalid(name, "must be a valid uuid")
	}
	return &id, nil
}

// DeleteResponse is the body returned by every delete endpoint.
type DeleteResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Deleted writes a 200 DeleteResponse.
func Deleted(c echo.Context, message string) error {
	return c.JSON(http.StatusOK, DeleteResponse{Success: true, Message: message})
}

// BindAndValidate binds the request into dst and runs the echo validator.
func BindAndValidate(c echo.Context, dst interface{}) error {
	if err := c.Bind(dst); err != nil {
		return err
	}
	return c.Validate(dst)
}
