package hospital

import (
	"github.com/labstack/echo/v4"

	"github.com/hms/hms/internal/platform/auth"
	"github.com/hms/hms/internal/platform/respond"
	"github.com/hms/hms/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/hospitals", h.List)
	api.GET("/hospitals/:id", h.Get)

	admin := api.Group("", auth.RequireRole(auth.RoleManager))
	admin.POST("/hospitals", h.Create)
	admin.PUT("/hospitals/:id", h.Update)
	admin.PUT("/hospitals/:id/occupancy", h.UpdateOccupancy)
	admin.DELETE("/hospitals/:id", h.Deactivate)
}

func (h *Handler) Create(c echo.Context) error {
	var hosp Hospital
	if err := c.Bind(&hosp); err != nil {
		return respond.Invalid("body", "malformed request body")
	}
	if err := h.svc.Create(c.Request().Context(), &hosp); err != nil {
		return err
	}
	return respond.Created(c, hosp)
}

func (h *Handler) Get(c echo.Context) error {
	hosp, err := h.svc.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return respond.OK(c, hosp)
}

func (h *Handler) List(c echo.Context) error {
	pg := pagination.FromContext(c)
	includeInactive := c.QueryParam("include_inactive") == "true"
	hospitals, total, err := h.svc.List(c.Request().Context(), includeInactive, pg)
	if err != nil {
		return err
	}
	return respond.OK(c, pagination.NewResponse(hospitals, total, pg))
}

func (h *Handler) Update(c echo.Context) error {
	var upd Hospital
	if err := c.Bind(&upd); err != nil {
		return respond.Invalid("body", "malformed request body")
	}
	hosp, err := h.svc.Update(c.Request().Context(), c.Param("id"), &upd)
	if err != nil {
		return err
	}
	return respond.OK(c, hosp)
}

func (h *Handler) UpdateOccupancy(c echo.Context) error {
	var body struct {
		TotalBeds    int `json:"total_beds"`
		OccupiedBeds int `json:"occupied_beds"`
	}
	if err := c.Bind(&body); err != nil {
		return respond.Invalid("body", "malformed request body")
	}
	hosp, err := h.svc.UpdateOccupancy(c.Request().Context(), c.Param("id"), body.TotalBeds, body.OccupiedBeds)
	if err != nil {
		return err
	}
	return respond.OK(c, hosp)
}

func (h *Handler) Deactivate(c echo.Context) error {
	if err := h.svc.Deactivate(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return respond.Message(c, "hospital deactivated")
}
