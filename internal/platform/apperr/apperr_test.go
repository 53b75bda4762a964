package apperr

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

func TestKind_Status(t *testing.T) {
	tests := []struct {
		kind Kind
		want int
	}{
		{KindNotFound, http.StatusNotFound},
		{KindConflict, http.StatusConflict},
		{KindUnauthorized, http.StatusUnauthorized},
		{KindForbidden, http.StatusForbidden},
		{KindValidation, http.StatusBadRequest},
		{KindBusinessRule, http.StatusUnprocessableEntity},
		{KindInternal, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := tt.kind.Status(); got != tt.want {
			t.Errorf("%s: expected %d, got %d", tt.kind, tt.want, got)
		}
	}
}

func TestErrorsIs_MatchesByKind(t *testing.T) {
	err := fmt.Errorf("get appointment: %w", NotFound("appointment"))
	if !errors.Is(err, ErrNotFound) {
		t.Error("expected wrapped not-found to match ErrNotFound")
	}
	if errors.Is(err, ErrConflict) {
		t.Error("did not expect not-found to match ErrConflict")
	}
	if KindOf(err) != KindNotFound {
		t.Errorf("expected KindNotFound, got %s", KindOf(err))
	}
}

func TestErrorsIs_NoFieldsToUpdate(t *testing.T) {
	if !errors.Is(ErrNoFieldsToUpdate, ErrInternal) {
		t.Error("expected no-fields error to be internal")
	}
	if errors.Is(Internal(errors.New("boom")), ErrNoFieldsToUpdate) {
		t.Error("did not expect generic internal error to match no-fields sentinel")
	}
}

func TestKindOf_Untyped(t *testing.T) {
	if KindOf(errors.New("plain")) != KindInternal {
		t.Error("expected untyped errors to be internal")
	}
}

func TestWrap_KeepsKind(t *testing.T) {
	cause := errors.New("pg: duplicate key")
	err := Wrap(Conflict("dose already registered"), cause)
	if err.Kind != KindConflict {
		t.Errorf("expected conflict, got %s", err.Kind)
	}
	if !errors.Is(err, cause) {
		t.Error("expected cause to be reachable")
	}
}

func serve(t *testing.T, err error) (*httptest.ResponseRecorder, Body) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/appointments", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("request_id", "rid-1")

	HTTPErrorHandler(zerolog.Nop())(err, c)

	var body Body
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return rec, body
}

func TestHTTPErrorHandler_Validation(t *testing.T) {
	rec, body := serve(t, Validation(map[string]string{"cpf": "must be at least 11 characters long"}))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
	if body.Error.Code != "VALIDATION_ERROR" {
		t.Errorf("expected VALIDATION_ERROR, got %s", body.Error.Code)
	}
	if body.Error.Fields["cpf"] == "" {
		t.Error("expected per-field message for cpf")
	}
}

func TestHTTPErrorHandler_InternalHidesCause(t *testing.T) {
	rec, body := serve(t, Internal(errors.New("connection refused on 10.0.0.3")))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rec.Code)
	}
	if body.Error.Message != "internal server error" {
		t.Errorf("expected generic message, got %q", body.Error.Message)
	}
}

func TestHTTPErrorHandler_NoFieldsToUpdate(t *testing.T) {
	rec, body := serve(t, ErrNoFieldsToUpdate)
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rec.Code)
	}
	if body.Error.Message != "no fields to update" {
		t.Errorf("expected no-fields message, got %q", body.Error.Message)
	}
}

func TestHTTPErrorHandler_BusinessRule(t *testing.T) {
	rec, body := serve(t, BusinessRule("insufficient stock"))
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("expected 422, got %d", rec.Code)
	}
	if body.Error.Message != "insufficient stock" {
		t.Errorf("expected message to pass through, got %q", body.Error.Message)
	}
}

func TestHTTPErrorHandler_EchoHTTPError(t *testing.T) {
	rec, body := serve(t, echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token"))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
	if body.Error.Code != "UNAUTHORIZED" {
		t.Errorf("expected UNAUTHORIZED, got %s", body.Error.Code)
	}
	if body.Error.Message != "invalid or expired token" {
		t.Errorf("unexpected message %q", body.Error.Message)
	}
}

func TestHTTPErrorHandler_UntypedIsInternal(t *testing.T) {
	rec, body := serve(t, errors.New("something broke"))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rec.Code)
	}
	if body.Error.Code != "INTERNAL_ERROR" {
		t.Errorf("expected INTERNAL_ERROR, got %s", body.Error.Code)
	}
}
