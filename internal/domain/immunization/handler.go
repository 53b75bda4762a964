package immunization

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
	api.GET("/vaccines", h.ListVaccines)
	api.POST("/vaccines", h.CreateVaccine)
	api.GET("/vaccines/:id", h.GetVaccine)
	api.PATCH("/vaccines/:id", h.UpdateVaccine)
	api.DELETE("/vaccines/:id", h.DeleteVaccine)

	api.GET("/vaccine-stock", h.ListStock)
	api.POST("/vaccine-stock", h.CreateStock)
	api.GET("/vaccine-stock/:id", h.GetStock)
	api.PATCH("/vaccine-stock/:id", h.UpdateStock)
	api.DELETE("/vaccine-stock/:id", h.DeleteStock)

	api.GET("/vaccine-administrations", h.ListAdministrations)
	api.POST("/vaccine-administrations", h.RegisterAdministration)
	api.GET("/vaccine-administrations/:id", h.GetAdministration)
	api.PATCH("/vaccine-administrations/:id", h.UpdateAdministration)
	api.DELETE("/vaccine-administrations/:id", h.DeleteAdministration)
}

// -- Vaccine Handlers --

func (h *Handler) CreateVaccine(c echo.Context) error {
	var req CreateVaccineRequest
	if err := httpx.BindAndValidate(c, &req); err != nil {
		return err
	}
	v, err := h.svc.CreateVaccine(c.Request().Context(), &req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, v)
}

func (h *Handler) GetVaccine(c echo.Context) error {
	id, err := httpx.ParamUUID(c, "id")
	if err != nil {
		return err
	}
	v, err := h.svc.GetVaccine(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, v)
}

func (h *Handler) ListVaccines(c echo.Context) error {
	vaccines, err := h.svc.ListVaccines(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, vaccines)
}

func (h *Handler) UpdateVaccine(c echo.Context) error {
	id, err := httpx.ParamUUID(c, "id")
	if err != nil {
		return err
	}
	var u VaccineUpdate
	if err := httpx.BindAndValidate(c, &u); err != nil {
		return err
	}
	v, err := h.svc.UpdateVaccine(c.Request().Context(), id, &u)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, v)
}

func (h *Handler) DeleteVaccine(c echo.Context) error {
	id, err := httpx.ParamUUID(c, "id")
	if err != nil {
		return err
	}
	if err := h.svc.DeleteVaccine(c.Request().Context(), id); err != nil {
		return err
	}
	return httpx.Deleted(c, "vaccine deleted")
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

// ListStock accepts vaccine_id and low=true to keep only lots at or below
// their minimum.
func (h *Handler) ListStock(c echo.Context) error {
	var f StockFilter
	var err error
	if f.VaccineID, err = httpx.QueryUUID(c, "vaccine_id"); err != nil {
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
	return httpx.Deleted(c, "vaccine stock deleted")
}

// -- Administration Handlers --

func (h *Handler) RegisterAdministration(c echo.Context) error {
	var req RegisterRequest
	if err := httpx.BindAndValidate(c, &req); err != nil {
		return err
	}
	ctx := c.Request().Context()
	a, err := h.svc.RegisterAdministration(ctx, db.TenantFromContext(ctx), &req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, a)
}

func (h *Handler) GetAdministration(c echo.Context) error {
	id, err := httpx.ParamUUID(c, "id")
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	a, err := h.svc.GetAdministration(ctx, db.TenantFromContext(ctx), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) ListAdministrations(c echo.Context) error {
	var f AdministrationFilter
	var err error
	if f.PatientID, err = httpx.QueryUUID(c, "patient_id"); err != nil {
		return err
	}
	if f.PractitionerID, err = httpx.QueryUUID(c, "practitioner_id"); err != nil {
		return err
	}

	pg := pagination.FromContext(c)
	ctx := c.Request().Context()
	items, total, err := h.svc.ListAdministrations(ctx, db.TenantFromContext(ctx), f, pg.Limit, pg.Offset)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) UpdateAdministration(c echo.Context) error {
	id, err := httpx.ParamUUID(c, "id")
	if err != nil {
		return err
	}
	var u AdministrationUpdate
	if err := httpx.BindAndValidate(c, &u); err != nil {
		return err
	}
	ctx := c.Request().Context()
	a, err := h.svc.UpdateAdministration(ctx, db.TenantFromContext(ctx), id, &u)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) DeleteAdministration(c echo.Context) error {
	id, err := httpx.ParamUUID(c, "id")
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	if err := h.svc.DeleteAdministration(ctx, db.TenantFromContext(ctx), id); err != nil {
		return err
	}
	return httpx.Deleted(c, "vaccine administration deleted")
}
