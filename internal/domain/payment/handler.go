package payment

import (
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
				"created_at": "created_at",
				"total":      "total",
				"payment_id": "payment_id",
			},
			DefaultSort: "created_at",
		},
	}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/payments", h.List)
	api.GET("/payments/:id", h.Get)

	write := api.Group("", auth.RequireRole(auth.RoleDoctor, auth.RoleStaff, auth.RoleManager))
	write.POST("/payments", h.Create)
	write.PUT("/payments/:id/items", h.SetItems)
	write.PATCH("/payments/:id/status", h.UpdateStatus)

	api.POST("/payments/:id/refund", h.Refund, auth.RequireRole(auth.RoleManager))
}

func (h *Handler) Create(c echo.Context) error {
	var p Payment
	if err := c.Bind(&p); err != nil {
		return respond.Invalid("body", "malformed request body")
	}
	claims := auth.FromContext(c.Request().Context())
	if err := h.svc.Create(c.Request().Context(), claims, &p); err != nil {
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
	claims := auth.FromContext(c.Request().Context())
	f, err := h.filters.Build(c, claims)
	if err != nil {
		return err
	}
	payments, total, err := h.svc.List(c.Request().Context(), claims, f)
	if err != nil {
		return err
	}
	return respond.OK(c, pagination.NewResponse(payments, total, f.Page))
}

func (h *Handler) SetItems(c echo.Context) error {
	var body struct {
		Items    []BillingItem `json:"items"`
		Tax      float64       `json:"tax"`
		Discount float64       `json:"discount"`
	}
	if err := c.Bind(&body); err != nil {
		return respond.Invalid("body", "malformed request body")
	}
	claims := auth.FromContext(c.Request().Context())
	p, err := h.svc.SetItems(c.Request().Context(), claims, c.Param("id"), body.Items, body.Tax, body.Discount)
	if err != nil {
		return err
	}
	return respond.OK(c, p)
}

func (h *Handler) UpdateStatus(c echo.Context) error {
	var body struct {
		Status Status `json:"status"`
	}
	if err := c.Bind(&body); err != nil {
		return respond.Invalid("body", "malformed request body")
	}
	claims := auth.FromContext(c.Request().Context())
	p, err := h.svc.UpdateStatus(c.Request().Context(), claims, c.Param("id"), body.Status)
	if err != nil {
		return err
	}
	return respond.OK(c, p)
}

func (h *Handler) Refund(c echo.Context) error {
	var body struct {
		Amount float64 `json:"amount"`
		Reason string  `json:"reason"`
	}
	if err := c.Bind(&body); err != nil {
		return respond.Invalid("body", "malformed request body")
	}
	claims := auth.FromContext(c.Request().Context())
	p, err := h.svc.RefundPayment(c.Request().Context(), claims, c.Param("id"), body.Amount, body.Reason)
	if err != nil {
		return err
	}
	return respond.OK(c, p)
}
