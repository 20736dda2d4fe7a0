package staff

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
	api.GET("/staff", h.List)
	api.GET("/staff/:id", h.Get)

	admin := api.Group("", auth.RequireRole(auth.RoleManager))
	admin.POST("/staff", h.Create)
	admin.PUT("/staff/:id", h.Update)
	admin.DELETE("/staff/:id", h.Deactivate)
}

func (h *Handler) Create(c echo.Context) error {
	var p Professional
	if err := c.Bind(&p); err != nil {
		return respond.Invalid("body", "malformed request body")
	}
	if err := h.svc.Create(c.Request().Context(), &p); err != nil {
		return err
	}
	return respond.Created(c, p)
}

func (h *Handler) Get(c echo.Context) error {
	p, err := h.svc.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return respond.OK(c, p)
}

func (h *Handler) List(c echo.Context) error {
	f := ListFilter{
		HospitalID:      c.QueryParam("hospital_id"),
		Specialization:  c.QueryParam("specialization"),
		Department:      c.QueryParam("department"),
		IncludeInactive: c.QueryParam("include_inactive") == "true",
		Page:            pagination.FromContext(c),
	}
	pros, total, err := h.svc.List(c.Request().Context(), f)
	if err != nil {
		return err
	}
	return respond.OK(c, pagination.NewResponse(pros, total, f.Page))
}

func (h *Handler) Update(c echo.Context) error {
	var upd Professional
	if err := c.Bind(&upd); err != nil {
		return respond.Invalid("body", "malformed request body")
	}
	p, err := h.svc.Update(c.Request().Context(), c.Param("id"), &upd)
	if err != nil {
		return err
	}
	return respond.OK(c, p)
}

func (h *Handler) Deactivate(c echo.Context) error {
	if err := h.svc.Deactivate(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return respond.Message(c, "professional deactivated")
}
