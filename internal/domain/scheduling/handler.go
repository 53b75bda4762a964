package scheduling

import (
	"net/http"

	"github.com/labstack/echo/v4"

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
	api.GET("/appointments", h.ListAppointments)
	api.POST("/appointments", h.CreateAppointment)
	api.GET("/appointments/:id", h.GetAppointment)
	api.PATCH("/appointments/:id", h.UpdateAppointment)
	api.DELETE("/appointments/:id", h.DeleteAppointment)

	api.GET("/consultations", h.ListConsultations)
	api.POST("/consultations", h.CreateConsultation)
	api.GET("/consultations/:id", h.GetConsultation)
	api.PATCH("/consultations/:id", h.UpdateConsultation)
	api.DELETE("/consultations/:id", h.DeleteConsultation)
}

// -- Appointment Handlers --

func (h *Handler) CreateAppointment(c echo.Context) error {
	var req CreateAppointmentRequest
	if err := httpx.BindAndValidate(c, &req); err != nil {
		return err
	}
	ctx := c.Request().Context()
	detail, err := h.svc.CreateAppointment(ctx, db.TenantFromContext(ctx), &req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, detail)
}

func (h *Handler) GetAppointment(c echo.Context) error {
	id, err := httpx.ParamUUID(c, "id")
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	detail, err := h.svc.GetAppointmentDetail(ctx, db.TenantFromContext(ctx), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, detail)
}

// ListAppointments accepts patient_id, consultation_id and status filters.
func (h *Handler) ListAppointments(c echo.Context) error {
	var f AppointmentFilter
	var err error
	if f.PatientID, err = httpx.QueryUUID(c, "patient_id"); err != nil {
		return err
	}
	if f.ConsultationID, err = httpx.QueryUUID(c, "consultation_id"); err != nil {
		return err
	}
	f.Status = c.QueryParam("status")

	pg := pagination.FromContext(c)
	ctx := c.Request().Context()
	items, total, err := h.svc.ListAppointments(ctx, db.TenantFromContext(ctx), f, pg.Limit, pg.Offset)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) UpdateAppointment(c echo.Context) error {
	id, err := httpx.ParamUUID(c, "id")
	if err != nil {
		return err
	}
	var u AppointmentUpdate
	if err := httpx.BindAndValidate(c, &u); err != nil {
		return err
	}
	ctx := c.Request().Context()
	a, err := h.svc.UpdateAppointment(ctx, db.TenantFromContext(ctx), id, &u)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) DeleteAppointment(c echo.Context) error {
	id, err := httpx.ParamUUID(c, "id")
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	if err := h.svc.DeleteAppointment(ctx, db.TenantFromContext(ctx), id); err != nil {
		return err
	}
	return httpx.Deleted(c, "appointment deleted")
}

// -- Consultation Handlers --

func (h *Handler) CreateConsultation(c echo.Context) error {
	var req CreateConsultationRequest
	if err := httpx.BindAndValidate(c, &req); err != nil {
		return err
	}
	ctx := c.Request().Context()
	cons, err := h.svc.CreateConsultation(ctx, db.TenantFromContext(ctx), &req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, cons)
}

func (h *Handler) GetConsultation(c echo.Context) error {
	id, err := httpx.ParamUUID(c, "id")
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	cons, err := h.svc.GetConsultation(ctx, db.TenantFromContext(ctx), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, cons)
}

func (h *Handler) ListConsultations(c echo.Context) error {
	practitionerID, err := httpx.QueryUUID(c, "practitioner_id")
	if err != nil {
		return err
	}
	pg := pagination.FromContext(c)
	ctx := c.Request().Context()
	items, total, err := h.svc.ListConsultations(ctx, db.TenantFromContext(ctx), practitionerID, pg.Limit, pg.Offset)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) UpdateConsultation(c echo.Context) error {
	id, err := httpx.ParamUUID(c, "id")
	if err != nil {
		return err
	}
	var u ConsultationUpdate
	if err := httpx.BindAndValidate(c, &u); err != nil {
		return err
	}
	ctx := c.Request().Context()
	cons, err := h.svc.UpdateConsultation(ctx, db.TenantFromContext(ctx), id, &u)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, cons)
}

func (h *Handler) DeleteConsultation(c echo.Context) error {
	id, err := httpx.ParamUUID(c, "id")
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	if err := h.svc.DeleteConsultation(ctx, db.TenantFromContext(ctx), id); err != nil {
		return err
	}
	return httpx.Deleted(c, "consultation deleted")
}
