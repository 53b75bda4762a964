package medication

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/postosaude/clinic/internal/platform/apperr"
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
	api.GET("/medications", h.ListMedications)
	api.POST("/medications", h.CreateMedication)
	api.GET("/medications/:id", h.GetMedication)
	api.PATCH("/medications/:id", h.UpdateMedication)
	api.DELETE("/medications/:id", h.DeleteMedication)

	api.GET("/medication-stock", h.ListStock)
	api.POST("/medication-stock", h.CreateStock)
	api.GET("/medication-stock/:id", h.GetStock)
	api.PATCH("/medication-stock/:id", h.UpdateStock)
	api.DELETE("/medication-stock/:id", h.DeleteStock)

	api.GET("/prescriptions", h.ListPrescriptions)
	api.POST("/prescriptions", h.CreatePrescription)
	api.GET("/prescriptions/:id", h.GetPrescription)
	api.PATCH("/prescriptions/:id", h.UpdatePrescription)
	api.DELETE("/prescriptions/:id", h.DeletePrescription)
	api.GET("/prescriptions/:id/medications", h.ListPrescriptionMedications)
	api.POST("/prescriptions/:id/medications/:medication_id", h.AddMedication)
	api.DELETE("/prescriptions/:id/medications/:medication_id", h.RemoveMedication)
}

// -- Medication Handlers --

func (h *Handler) CreateMedication(c echo.Context) error {
	var req CreateMedicationRequest
	if err := httpx.BindAndValidate(c, &req); err != nil {
		return err
	}
	m, err := h.svc.CreateMedication(c.Request().Context(), &req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, m)
}

func (h *Handler) GetMedication(c echo.Context) error {
	id, err := httpx.ParamUUID(c, "id")
	if err != nil {
		return err
	}
	m, err := h.svc.GetMedication(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, m)
}

func (h *Handler) ListMedications(c echo.Context) error {
	meds, err := h.svc.ListMedications(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, meds)
}

func (h *Handler) UpdateMedication(c echo.Context) error {
	id, err := httpx.ParamUUID(c, "id")
	if err != nil {
		return err
	}
	var u MedicationUpdate
	if err := httpx.BindAndValidate(c, &u); err != nil {
		return err
	}
	m, err := h.svc.UpdateMedication(c.Request().Context(), id, &u)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, m)
}

func (h *Handler) DeleteMedication(c echo.Context) error {
	id, err := httpx.ParamUUID(c, "id")
	if err != nil {
		return err
	}
	if err := h.svc.DeleteMedication(c.Request().Context(), id); err != nil {
		return err
	}
	return httpx.Deleted(c, "medication deleted")
}

// -- Stock Handlers --

func (h *Handler) CreateStock(c echo.Context) error {
	var req CreateStockRequest
	if err := httpx.BindAndValidate(c, &req); err != nil {
		return err
	}
	ctx := c.Request().Context()
	st, err := h.svc.CreateStock(ctx, db.TenantFromContext(ctx), &req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, st)
}

func (h *Handler) GetStock(c echo.Context) error {
	id, err := httpx.ParamUUID(c, "id")
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	st, err := h.svc.GetStock(ctx, db.TenantFromContext(ctx), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, st)
}

func (h *Handler) ListStock(c echo.Context) error {
	var f StockFilter
	var err error
	if f.MedicationID, err = httpx.QueryUUID(c, "medication_id"); err != nil {
		return err
	}
	if raw := c.QueryParam("low"); raw != "" {
		if f.LowOnly, err = strconv.ParseBool(raw); err != nil {
			return apperr.Invalid("low", "must be a boolean")
		}
	}

	pg := pagination.FromContext(c)
	ctx := c.Request().Context()
	items, total, err := h.svc.ListStock(ctx, db.TenantFromContext(ctx), f, pg.Limit, pg.Offset)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) UpdateStock(c echo.Context) error {
	id, err := httpx.ParamUUID(c, "id")
	if err != nil {
		return err
	}
	var u StockUpdate
	if err := httpx.BindAndValidate(c, &u); err != nil {
		return err
	}
	ctx := c.Request().Context()
	st, err := h.svc.UpdateStock(ctx, db.TenantFromContext(ctx), id, &u)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, st)
}

func (h *Handler) DeleteStock(c echo.Context) error {
	id, err := httpx.ParamUUID(c, "id")
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	if err := h.svc.DeleteStock(ctx, db.TenantFromContext(ctx), id); err != nil {
		return err
	}
	return httpx.Deleted(c, "medication stock deleted")
}

// -- Prescription Handlers --

func (h *Handler) CreatePrescription(c echo.Context) error {
	var req CreatePrescriptionRequest
	if err := httpx.BindAndValidate(c, &req); err != nil {
		return err
	}
	ctx := c.Request().Context()
	p, err := h.svc.CreatePrescription(ctx, db.TenantFromContext(ctx), &req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *Handler) GetPrescription(c echo.Context) error {
	id, err := httpx.ParamUUID(c, "id")
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	p, err := h.svc.GetPrescription(ctx, db.TenantFromContext(ctx), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) ListPrescriptions(c echo.Context) error {
	consultationID, err := httpx.QueryUUID(c, "consultation_id")
	if err != nil {
		return err
	}
	pg := pagination.FromContext(c)
	ctx := c.Request().Context()
	items, total, err := h.svc.ListPrescriptions(ctx, db.TenantFromContext(ctx), consultationID, pg.Limit, pg.Offset)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) UpdatePrescription(c echo.Context) error {
	id, err := httpx.ParamUUID(c, "id")
	if err != nil {
		return err
	}
	var u PrescriptionUpdate
	if err := httpx.BindAndValidate(c, &u); err != nil {
		return err
	}
	ctx := c.Request().Context()
	p, err := h.svc.UpdatePrescription(ctx, db.TenantFromContext(ctx), id, &u)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) DeletePrescription(c echo.Context) error {
	id, err := httpx.ParamUUID(c, "id")
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	if err := h.svc.DeletePrescription(ctx, db.TenantFromContext(ctx), id); err != nil {
		return err
	}
	return httpx.Deleted(c, "prescription deleted")
}

func (h *Handler) ListPrescriptionMedications(c echo.Context) error {
	id, err := httpx.ParamUUID(c, "id")
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	meds, err := h.svc.PrescriptionMedications(ctx, db.TenantFromContext(ctx), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, meds)
}

func (h *Handler) AddMedication(c echo.Context) error {
	id, err := httpx.ParamUUID(c, "id")
	if err != nil {
		return err
	}
	medicationID, err := httpx.ParamUUID(c, "medication_id")
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	p, err := h.svc.AddMedication(ctx, db.TenantFromContext(ctx), id, medicationID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) RemoveMedication(c echo.Context) error {
	id, err := httpx.ParamUUID(c, "id")
	if err != nil {
		return err
	}
	medicationID, err := httpx.ParamUUID(c, "medication_id")
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	p, err := h.svc.RemoveMedication(ctx, db.TenantFromContext(ctx), id, medicationID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}
