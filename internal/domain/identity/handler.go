package identity

import (
	"bytes"
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/postosaude/clinic/internal/platform/apperr"
	"github.com/postosaude/clinic/internal/platform/blobstore"
	"github.com/postosaude/clinic/internal/platform/db"
	"github.com/postosaude/clinic/pkg/httpx"
	"github.com/postosaude/clinic/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/patients", h.ListPatients)
	api.POST("/patients", h.CreatePatient)
	api.GET("/patients/cpf/:cpf", h.GetPatientByCPF)
	api.GET("/patients/:id", h.GetPatient)
	api.PATCH("/patients/:id", h.UpdatePatient)
	api.DELETE("/patients/:id", h.DeletePatient)
	api.PUT("/patients/:id/photo", h.UploadPatientPhoto)
	api.GET("/patients/:id/photo", h.GetPatientPhoto)

	api.GET("/practitioners", h.ListPractitioners)
	api.POST("/practitioners", h.CreatePractitioner)
	api.GET("/practitioners/cpf/:cpf", h.GetPractitionerByCPF)
	api.GET("/practitioners/:id", h.GetPractitioner)
	api.PATCH("/practitioners/:id", h.UpdatePractitioner)
	api.DELETE("/practitioners/:id", h.DeletePractitioner)
}

// -- Patient Handlers --

func (h *Handler) CreatePatient(c echo.Context) error {
	var req CreatePatientRequest
	if err := httpx.BindAndValidate(c, &req); err != nil {
		return err
	}
	p, err := h.svc.CreatePatient(c.Request().Context(), &req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *Handler) GetPatient(c echo.Context) error {
	id, err := httpx.ParamUUID(c, "id")
	if err != nil {
		return err
	}
	p, err := h.svc.GetPatient(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) GetPatientByCPF(c echo.Context) error {
	p, err := h.svc.GetPatientByCPF(c.Request().Context(), c.Param("cpf"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) ListPatients(c echo.Context) error {
	pg := pagination.FromContext(c)
	patients, total, err := h.svc.ListPatients(c.Request().Context(), c.QueryParam("name"), pg.Limit, pg.Offset)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(patients, total, pg.Limit, pg.Offset))
}

func (h *Handler) UpdatePatient(c echo.Context) error {
	id, err := httpx.ParamUUID(c, "id")
	if err != nil {
		return err
	}
	var u PatientUpdate
	if err := httpx.BindAndValidate(c, &u); err != nil {
		return err
	}
	p, err := h.svc.UpdatePatient(c.Request().Context(), id, &u)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) DeletePatient(c echo.Context) error {
	id, err := httpx.ParamUUID(c, "id")
	if err != nil {
		return err
	}
	if err := h.svc.DeletePatient(c.Request().Context(), id); err != nil {
		return err
	}
	return httpx.Deleted(c, "patient deleted")
}

// UploadPatientPhoto accepts a multipart form with the image in "photo".
func (h *Handler) UploadPatientPhoto(c echo.Context) error {
	id, err := httpx.ParamUUID(c, "id")
	if err != nil {
		return err
	}
	fh, err := c.FormFile("photo")
	if err != nil {
		return apperr.Invalid("photo", "is required")
	}
	f, err := fh.Open()
	if err != nil {
		return apperr.Internal(err)
	}
	defer f.Close()

	head := make([]byte, 512)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return apperr.Internal(err)
	}
	head = head[:n]
	contentType := http.DetectContentType(head)
	if !blobstore.AllowedContentTypes[contentType] {
		return apperr.Invalid("photo", "must be a JPEG, PNG or WebP image")
	}

	content := io.MultiReader(bytes.NewReader(head), f)
	p, err := h.svc.SetPatientPhoto(c.Request().Context(), id, contentType, content, fh.Size)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) GetPatientPhoto(c echo.Context) error {
	id, err := httpx.ParamUUID(c, "id")
	if err != nil {
		return err
	}
	rc, obj, err := h.svc.PatientPhoto(c.Request().Context(), id)
	if err != nil {
		return err
	}
	defer rc.Close()

	c.Response().Header().Set("Cache-Control", "private, max-age=300")
	return c.Stream(http.StatusOK, obj.ContentType, rc)
}

// -- Practitioner Handlers --

func (h *Handler) CreatePractitioner(c echo.Context) error {
	var req CreatePractitionerRequest
	if err := httpx.BindAndValidate(c, &req); err != nil {
		return err
	}
	ctx := c.Request().Context()
	p, err := h.svc.CreatePractitioner(ctx, db.TenantFromContext(ctx), &req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *Handler) GetPractitioner(c echo.Context) error {
	id, err := httpx.ParamUUID(c, "id")
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	p, err := h.svc.GetPractitioner(ctx, db.TenantFromContext(ctx), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) GetPractitionerByCPF(c echo.Context) error {
	ctx := c.Request().Context()
	p, err := h.svc.GetPractitionerByCPF(ctx, db.TenantFromContext(ctx), c.Param("cpf"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) ListPractitioners(c echo.Context) error {
	pg := pagination.FromContext(c)
	ctx := c.Request().Context()
	items, total, err := h.svc.ListPractitioners(ctx, db.TenantFromContext(ctx), pg.Limit, pg.Offset)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) UpdatePractitioner(c echo.Context) error {
	id, err := httpx.ParamUUID(c, "id")
	if err != nil {
		return err
	}
	var u PractitionerUpdate
	if err := httpx.BindAndValidate(c, &u); err != nil {
		return err
	}
	ctx := c.Request().Context()
	p, err := h.svc.UpdatePractitioner(ctx, db.TenantFromContext(ctx), id, &u)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) DeletePractitioner(c echo.Context) error {
	id, err := httpx.ParamUUID(c, "id")
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	if err := h.svc.DeletePractitioner(ctx, db.TenantFromContext(ctx), id); err != nil {
		return err
	}
	return httpx.Deleted(c, "practitioner deleted")
}
