package patient

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
	api.GET("/patients/:id", h.Get)
	api.PUT("/patients/:id", h.Update)

	clinical := api.Group("", auth.RequireRole(auth.RoleDoctor, auth.RoleStaff, auth.RoleManager))
	clinical.GET("/patients", h.List)
	clinical.POST("/patients", h.Register)

	api.DELETE("/patients/:id", h.Deactivate, auth.RequireRole(auth.RoleManager))
}

func (h *Handler) Register(c echo.Context) error {
	var p Patient
	if err := c.Bind(&p); err != nil {
		return respond.Invalid("body", "malformed request body")
	}
	if err := h.svc.Register(c.Request().Context(), &p); err != nil {
		return err
	}
	return respond.Created(c, p)
}

func (h *Handler) Get(c echo.Context) error {
	claims := auth.FromContext(c.Request().Context())
	p, err := h.svc.Get(c.Request().Context(), claims, c.Param("id"))
	if err != nil {
		return err
	}
	return respond.OK(c, p)
}

func (h *Handler) List(c echo.Context) error {
	f := ListFilter{
		HospitalID:      c.QueryParam("hospital_id"),
		Search:          c.QueryParam("search"),
		IncludeInactive: c.QueryParam("include_inactive") == "true",
		Page:            pagination.FromContext(c),
	}
	patients, total, err := h.svc.List(c.Request().Context(), f)
	if err != nil {
		return err
	}
	return respond.OK(c, pagination.NewResponse(patients, total, f.Page))
}

func (h *Handler) Update(c echo.Context) error {
	var upd Patient
	if err := c.Bind(&upd); err != nil {
		return respond.Invalid("body", "malformed request body")
	}
	claims := auth.FromContext(c.Request().Context())
	p, err := h.svc.Update(c.Request().Context(), claims, c.Param("id"), &upd)
	if err != nil {
		return err
	}
	return respond.OK(c, p)
}

func (h *Handler) Deactivate(c echo.Context) error {
	if err := h.svc.Deactivate(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return respond.Message(c, "patient deactivated")
}
