package analytics

import (
	"time"

	"github.com/labstack/echo/v4"

	"github.com/hms/hms/internal/platform/auth"
	"github.com/hms/hms/internal/platform/query"
	"github.com/hms/hms/internal/platform/respond"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/analytics", auth.RequireRole(auth.RoleManager))
	g.GET("/dashboard", h.Dashboard)
	g.GET("/appointments", h.AppointmentTrends)
	g.GET("/financial", h.FinancialTrends)
	g.GET("/patients", h.PatientTrends)
	g.GET("/export", h.Export)
}

func (h *Handler) Dashboard(c echo.Context) error {
	scope, err := parseScope(c)
	if err != nil {
		return err
	}
	overview, err := h.svc.Dashboard(c.Request().Context(), scope)
	if err != nil {
		return err
	}
	return respond.OK(c, overview)
}

func (h *Handler) AppointmentTrends(c echo.Context) error {
	return h.trends(c, KindAppointments)
}

func (h *Handler) FinancialTrends(c echo.Context) error {
	return h.trends(c, KindPayments)
}

func (h *Handler) PatientTrends(c echo.Context) error {
	return h.trends(c, KindPatients)
}

func (h *Handler) trends(c echo.Context, kind EntityKind) error {
	scope, err := parseScope(c)
	if err != nil {
		return err
	}
	series, err := h.svc.Trends(c.Request().Context(), kind, c.QueryParam("group_by"), scope)
	if err != nil {
		return err
	}
	return respond.OK(c, series)
}

func (h *Handler) Export(c echo.Context) error {
	scope, err := parseScope(c)
	if err != nil {
		return err
	}
	rows, err := h.svc.ExportRaw(c.Request().Context(), EntityKind(c.QueryParam("entity")), scope)
	if err != nil {
		return err
	}
	return respond.OK(c, rows)
}

func parseScope(c echo.Context) (Scope, error) {
	scope := Scope{HospitalID: c.QueryParam("hospital_id")}

	var fields []respond.FieldError
	if raw := c.QueryParam("date_from"); raw != "" {
		t, err := time.Parse(query.DateLayout, raw)
		if err != nil {
			fields = append(fields, respond.FieldError{Field: "date_from", Message: "must be a date in the form 2006-01-02"})
		} else {
			scope.DateFrom = &t
		}
	}
	if raw := c.QueryParam("date_to"); raw != "" {
		t, err := time.Parse(query.DateLayout, raw)
		if err != nil {
			fields = append(fields, respond.FieldError{Field: "date_to", Message: "must be a date in the form 2006-01-02"})
		} else {
			scope.DateTo = &t
		}
	}
	if scope.DateFrom != nil && scope.DateTo != nil && scope.DateFrom.After(*scope.DateTo) {
		fields = append(fields, respond.FieldError{Field: "date_from", Message: "must not be after date_to"})
	}
	if len(fields) > 0 {
		return Scope{}, respond.Validation(fields...)
	}
	return scope, nil
}
