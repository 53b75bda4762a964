package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/postosaude/clinic/internal/platform/apperr"
	"github.com/postosaude/clinic/internal/platform/db"
	"github.com/postosaude/clinic/internal/platform/validate"
	"github.com/postosaude/clinic/pkg/httpx"
	"github.com/postosaude/clinic/pkg/pagination"
)

func newTestHandler() (*Handler, *echo.Echo) {
	svc := newTestService()
	h := NewHandler(svc)
	e := echo.New()
	e.Validator = validate.New()
	return h, e
}

func jsonRequest(method, body string, postID uuid.UUID) *http.Request {
	req := httptest.NewRequest(method, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req.WithContext(db.WithTenant(context.Background(), postID))
}

func TestHandler_CreatePatient(t *testing.T) {
	h, e := newTestHandler()

	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPost, `{"cpf":"12345678901","name":"Maria Silva","phone":"11 99999-0000"}`, uuid.Nil), rec)

	if err := h.CreatePatient(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}

	var p Patient
	json.Unmarshal(rec.Body.Bytes(), &p)
	if p.Name != "Maria Silva" || p.ID == uuid.Nil {
		t.Errorf("unexpected patient %+v", p)
	}
}

func TestHandler_CreatePatient_ValidationErrors(t *testing.T) {
	h, e := newTestHandler()

	c := e.NewContext(jsonRequest(http.MethodPost, `{"cpf":"123","name":"Al"}`, uuid.Nil), httptest.NewRecorder())

	err := h.CreatePatient(c)
	ae := apperr.From(err)
	if ae.Kind != apperr.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if ae.Fields["cpf"] == "" || ae.Fields["name"] == "" {
		t.Errorf("expected cpf and name field errors, got %v", ae.Fields)
	}
}

func TestHandler_GetPatient(t *testing.T) {
	h, e := newTestHandler()
	p, _ := h.svc.CreatePatient(context.Background(), &CreatePatientRequest{CPF: "12345678901", Name: "Maria Silva"})

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	c.SetParamNames("id")
	c.SetParamValues(p.ID.String())

	if err := h.GetPatient(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestHandler_GetPatient_InvalidID(t *testing.T) {
	h, e := newTestHandler()

	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues("not-a-uuid")

	if err := h.GetPatient(c); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestHandler_GetPatient_NotFound(t *testing.T) {
	h, e := newTestHandler()

	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues(uuid.New().String())

	if err := h.GetPatient(c); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestHandler_GetPatientByCPF(t *testing.T) {
	h, e := newTestHandler()
	h.svc.CreatePatient(context.Background(), &CreatePatientRequest{CPF: "12345678901", Name: "Maria Silva"})

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	c.SetParamNames("cpf")
	c.SetParamValues("12345678901")

	if err := h.GetPatientByCPF(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(rec.Body.String(), "Maria Silva") {
		t.Errorf("unexpected body %s", rec.Body.String())
	}
}

func TestHandler_UpdatePatient(t *testing.T) {
	h, e := newTestHandler()
	p, _ := h.svc.CreatePatient(context.Background(), &CreatePatientRequest{CPF: "12345678901", Name: "Maria Silva"})

	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPatch, `{"address":"Rua A, 10"}`, uuid.Nil), rec)
	c.SetParamNames("id")
	c.SetParamValues(p.ID.String())

	if err := h.UpdatePatient(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var got Patient
	json.Unmarshal(rec.Body.Bytes(), &got)
	if got.Address == nil || *got.Address != "Rua A, 10" || got.Name != "Maria Silva" {
		t.Errorf("unexpected patient after patch: %+v", got)
	}
}

func TestHandler_UpdatePatient_EmptyBody(t *testing.T) {
	h, e := newTestHandler()
	p, _ := h.svc.CreatePatient(context.Background(), &CreatePatientRequest{CPF: "12345678901", Name: "Maria Silva"})

	c := e.NewContext(jsonRequest(http.MethodPatch, `{}`, uuid.Nil), httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues(p.ID.String())

	if err := h.UpdatePatient(c); !errors.Is(err, apperr.ErrNoFieldsToUpdate) {
		t.Errorf("expected no fields to update, got %v", err)
	}
}

func TestHandler_DeletePatient(t *testing.T) {
	h, e := newTestHandler()
	p, _ := h.svc.CreatePatient(context.Background(), &CreatePatientRequest{CPF: "12345678901", Name: "Maria Silva"})

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodDelete, "/", nil), rec)
	c.SetParamNames("id")
	c.SetParamValues(p.ID.String())

	if err := h.DeletePatient(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var body httpx.DeleteResponse
	json.Unmarshal(rec.Body.Bytes(), &body)
	if rec.Code != http.StatusOK || !body.Success {
		t.Errorf("unexpected delete response %d %s", rec.Code, rec.Body.String())
	}
}

func TestHandler_ListPatients(t *testing.T) {
	h, e := newTestHandler()
	ctx := context.Background()
	h.svc.CreatePatient(ctx, &CreatePatientRequest{CPF: "11111111111", Name: "Maria Silva"})
	h.svc.CreatePatient(ctx, &CreatePatientRequest{CPF: "22222222222", Name: "João Souza"})

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/?limit=1", nil), rec)

	if err := h.ListPatients(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var resp pagination.Response
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Total != 2 || resp.Limit != 1 || !resp.HasMore {
		t.Errorf("unexpected page: %+v", resp)
	}
}

func photoUpload(t *testing.T, contentType string, content []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	hdr := make(textproto.MIMEHeader)
	hdr.Set("Content-Disposition", `form-data; name="photo"; filename="photo"`)
	hdr.Set("Content-Type", contentType)
	part, err := w.CreatePart(hdr)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	part.Write(content)
	w.Close()

	req := httptest.NewRequest(http.MethodPut, "/", &buf)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	return req
}

var pngBytes = append([]byte("\x89PNG\r\n\x1a\n"), "image-data"...)

func TestHandler_PatientPhoto_UploadAndDownload(t *testing.T) {
	h, e := newTestHandler()
	p, _ := h.svc.CreatePatient(context.Background(), &CreatePatientRequest{CPF: "12345678901", Name: "Maria Silva"})

	rec := httptest.NewRecorder()
	c := e.NewContext(photoUpload(t, "image/png", pngBytes), rec)
	c.SetParamNames("id")
	c.SetParamValues(p.ID.String())

	if err := h.UploadPatientPhoto(c); err != nil {
		t.Fatalf("upload: %v", err)
	}
	if !strings.Contains(rec.Body.String(), `"has_photo":true`) {
		t.Errorf("expected has_photo in %s", rec.Body.String())
	}

	rec = httptest.NewRecorder()
	c = e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	c.SetParamNames("id")
	c.SetParamValues(p.ID.String())

	if err := h.GetPatientPhoto(c); err != nil {
		t.Fatalf("download: %v", err)
	}
	if rec.Body.String() != string(pngBytes) {
		t.Errorf("unexpected photo body %q", rec.Body.String())
	}
	if rec.Header().Get(echo.HeaderContentType) != "image/png" {
		t.Errorf("unexpected content type %q", rec.Header().Get(echo.HeaderContentType))
	}
}

func TestHandler_UploadPatientPhoto_SniffsContent(t *testing.T) {
	h, e := newTestHandler()
	p, _ := h.svc.CreatePatient(context.Background(), &CreatePatientRequest{CPF: "12345678901", Name: "Maria Silva"})

	c := e.NewContext(photoUpload(t, "image/png", []byte("plain text pretending to be a photo")), httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues(p.ID.String())

	if err := h.UploadPatientPhoto(c); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	got, _ := h.svc.GetPatient(context.Background(), p.ID)
	if got.HasPhoto {
		t.Error("photo should not be stored")
	}
}

func TestHandler_UploadPatientPhoto_UsesSniffedType(t *testing.T) {
	h, e := newTestHandler()
	p, _ := h.svc.CreatePatient(context.Background(), &CreatePatientRequest{CPF: "12345678901", Name: "Maria Silva"})

	c := e.NewContext(photoUpload(t, "application/octet-stream", pngBytes), httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues(p.ID.String())

	if err := h.UploadPatientPhoto(c); err != nil {
		t.Fatalf("upload: %v", err)
	}
	_, obj, err := h.svc.PatientPhoto(context.Background(), p.ID)
	if err != nil {
		t.Fatalf("photo: %v", err)
	}
	if obj.ContentType != "image/png" {
		t.Errorf("expected sniffed image/png, got %q", obj.ContentType)
	}
}

func TestHandler_UploadPatientPhoto_MissingFile(t *testing.T) {
	h, e := newTestHandler()
	p, _ := h.svc.CreatePatient(context.Background(), &CreatePatientRequest{CPF: "12345678901", Name: "Maria Silva"})

	c := e.NewContext(jsonRequest(http.MethodPut, `{}`, uuid.Nil), httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues(p.ID.String())

	if err := h.UploadPatientPhoto(c); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestHandler_CreatePractitioner_UsesTokenPost(t *testing.T) {
	h, e := newTestHandler()
	postID := uuid.New()

	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPost, `{"cpf":"98765432100","name":"Dra. Ana","post_id":"`+uuid.NewString()+`"}`, postID), rec)

	if err := h.CreatePractitioner(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var p Practitioner
	json.Unmarshal(rec.Body.Bytes(), &p)
	if p.PostID != postID {
		t.Errorf("expected post from token %s, got %s", postID, p.PostID)
	}
}

func TestHandler_GetPractitioner_OtherPost(t *testing.T) {
	h, e := newTestHandler()
	p, _ := h.svc.CreatePractitioner(context.Background(), uuid.New(), &CreatePractitionerRequest{CPF: "98765432100", Name: "Dra. Ana"})

	req := httptest.NewRequest(http.MethodGet, "/", nil).WithContext(db.WithTenant(context.Background(), uuid.New()))
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues(p.ID.String())

	if err := h.GetPractitioner(c); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected not found for another post's practitioner, got %v", err)
	}
}

func TestHandler_ListPractitioners(t *testing.T) {
	h, e := newTestHandler()
	postID := uuid.New()
	ctx := context.Background()
	h.svc.CreatePractitioner(ctx, postID, &CreatePractitionerRequest{CPF: "98765432100", Name: "Dra. Ana"})
	h.svc.CreatePractitioner(ctx, uuid.New(), &CreatePractitionerRequest{CPF: "98765432101", Name: "Dr. Beto"})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil).WithContext(db.WithTenant(ctx, postID))
	c := e.NewContext(req, rec)

	if err := h.ListPractitioners(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var resp pagination.Response
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Total != 1 {
		t.Errorf("expected 1 practitioner for the post, got %d", resp.Total)
	}
}

func TestHandler_DeletePractitioner(t *testing.T) {
	h, e := newTestHandler()
	postID := uuid.New()
	p, _ := h.svc.CreatePractitioner(context.Background(), postID, &CreatePractitionerRequest{CPF: "98765432100", Name: "Dra. Ana"})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/", nil).WithContext(db.WithTenant(context.Background(), postID))
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(p.ID.String())

	if err := h.DeletePractitioner(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}
