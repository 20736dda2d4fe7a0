package appointment

import (
	"time"

	"github.com/labstack/echo/v4"

	"github.com/hms/hms/internal/platform/auth"
	"github.com/hms/hms/internal/platform/query"
	"github.com/hms/hms/internal/platform/respond"
	"github.com/hms/hms/pkg/pagination"
)

type Handler struct {
	svc     *Service
	filters query.Builder
}

func NewHandler(svc *Service) *Handler {
	return &Handler{
		svc: svc,
		filters: query.Builder{
			SortFields: map[string]string{
				"scheduled_at":   "scheduled_at",
				"created_at":     "created_at",
				"appointment_id": "appointment_id",
			},
			DefaultSort: "scheduled_at",
		},
	}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/appointments", h.List)
	api.GET("/appointments/:id", h.Get)
	api.POST("/appointments", h.Create)
	api.PUT("/appointments/:id/reschedule", h.Reschedule)
	api.PATCH("/appointments/:id/status", h.UpdateStatus)
}

func (h *Handler) Create(c echo.Context) error {
	var a Appointment
	if err := c.Bind(&a); err != nil {
		return respond.Invalid("body", "malformed request body")
	}
	claims := auth.FromContext(c.Request().Context())
	if err := h.svc.Create(c.Request().Context(), claims, &a); err != nil {
		return err
	}
	return respond.Created(c, a)
}

func (h *Handler) Get(c echo.Context) error {
	claims := auth.FromContext(c.Request().Context())
	a, err := h.svc.Get(c.Request().Context(), claims, c.Param("id"))
	if err != nil {
		return err
	}
	return respond.OK(c, a)
}

func (h *Handler) List(c echo.Context) error {
	claims := auth.FromContext(c.Request().Context())
	f, err := h.filters.Build(c, claims)
	if err != nil {
		return err
	}
	appointments, total, err := h.svc.List(c.Request().Context(), claims, f)
	if err != nil {
		return err
	}
	return respond.OK(c, pagination.NewResponse(appointments, total, f.Page))
}

func (h *Handler) Reschedule(c echo.Context) error {
	var body struct {
		ScheduledAt     time.Time `json:"scheduled_at"`
		DurationMinutes int       `json:"duration_minutes"`
	}
	if err := c.Bind(&body); err != nil {
		return respond.Invalid("body", "malformed request body")
	}
	claims := auth.FromContext(c.Request().Context())
	a, err := h.svc.Reschedule(c.Request().Context(), claims, c.Param("id"), body.ScheduledAt, body.DurationMinutes)
	if err != nil {
		return err
	}
	return respond.OK(c, a)
}

func (h *Handler) UpdateStatus(c echo.Context) error {
	var body struct {
		Status Status `json:"status"`
		Notes  string `json:"notes"`
	}
	if err := c.Bind(&body); err != nil {
		return respond.Invalid("body", "malformed request body")
	}
	claims := auth.FromContext(c.Request().Context())
	a, err := h.svc.UpdateStatus(c.Request().Context(), claims, c.Param("id"), body.Status, body.Notes)
	if err != nil {
		return err
	}
	return respond.OK(c, a)
}
