package medicalrecord

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
				"visit_date": "visit_date",
				"created_at": "created_at",
				"record_id":  "record_id",
			},
			DefaultSort: "visit_date",
		},
	}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	// Reads stay open to every authenticated role; ownership is enforced
	// by the policy evaluator in the service.
	api.GET("/medical-records", h.List)
	api.GET("/medical-records/:id", h.Get)
	api.GET("/medical-records/:id/export", h.Export)
	api.GET("/medical-records/:id/print", h.Print)

	write := api.Group("", auth.RequireRole(auth.RoleDoctor, auth.RoleStaff, auth.RoleManager))
	write.PUT("/medical-records/:id", h.Update)
	write.POST("/medical-records/:id/progress-notes", h.AddProgressNote)
	write.POST("/medical-records/:id/attachments", h.AddAttachment)

	create := api.Group("", auth.RequireRole(auth.RoleDoctor, auth.RoleManager))
	create.POST("/medical-records", h.Create)
	create.DELETE("/medical-records/:id", h.Delete)

	api.GET("/medical-records/:id/access-log", h.AccessLog, auth.RequireRole(auth.RoleManager))
}

func (h *Handler) Create(c echo.Context) error {
	var rec MedicalRecord
	if err := c.Bind(&rec); err != nil {
		return respond.Invalid("body", "malformed request body")
	}
	claims := auth.FromContext(c.Request().Context())
	if err := h.svc.Create(c.Request().Context(), claims, &rec); err != nil {
		return err
	}
	return respond.Created(c, rec)
}

func (h *Handler) Get(c echo.Context) error {
	claims := auth.FromContext(c.Request().Context())
	rec, err := h.svc.Get(c.Request().Context(), claims, c.Param("id"))
	if err != nil {
		return err
	}
	return respond.OK(c, rec)
}

func (h *Handler) Export(c echo.Context) error {
	claims := auth.FromContext(c.Request().Context())
	rec, err := h.svc.Export(c.Request().Context(), claims, c.Param("id"))
	if err != nil {
		return err
	}
	return respond.OK(c, rec)
}

func (h *Handler) Print(c echo.Context) error {
	claims := auth.FromContext(c.Request().Context())
	rec, err := h.svc.Print(c.Request().Context(), claims, c.Param("id"))
	if err != nil {
		return err
	}
	return respond.OK(c, rec)
}

func (h *Handler) List(c echo.Context) error {
	claims := auth.FromContext(c.Request().Context())
	f, err := h.filters.Build(c, claims)
	if err != nil {
		return err
	}
	records, total, err := h.svc.List(c.Request().Context(), claims, f)
	if err != nil {
		return err
	}
	return respond.OK(c, pagination.NewResponse(records, total, f.Page))
}

func (h *Handler) Update(c echo.Context) error {
	var upd ClinicalUpdate
	if err := c.Bind(&upd); err != nil {
		return respond.Invalid("body", "malformed request body")
	}
	claims := auth.FromContext(c.Request().Context())
	rec, err := h.svc.Update(c.Request().Context(), claims, c.Param("id"), &upd)
	if err != nil {
		return err
	}
	return respond.OK(c, rec)
}

func (h *Handler) Delete(c echo.Context) error {
	claims := auth.FromContext(c.Request().Context())
	if err := h.svc.SoftDelete(c.Request().Context(), claims, c.Param("id")); err != nil {
		return err
	}
	return respond.Message(c, "medical record deleted")
}

func (h *Handler) AddProgressNote(c echo.Context) error {
	var body struct {
		Note string `json:"note"`
	}
	if err := c.Bind(&body); err != nil {
		return respond.Invalid("body", "malformed request body")
	}
	claims := auth.FromContext(c.Request().Context())
	rec, err := h.svc.AddProgressNote(c.Request().Context(), claims, c.Param("id"), body.Note)
	if err != nil {
		return err
	}
	return respond.OK(c, rec)
}

func (h *Handler) AddAttachment(c echo.Context) error {
	file, err := c.FormFile("file")
	if err != nil {
		return respond.Invalid("file", "multipart file field is required")
	}
	src, err := file.Open()
	if err != nil {
		return respond.Internal(err)
	}
	defer src.Close()

	claims := auth.FromContext(c.Request().Context())
	rec, err := h.svc.AddAttachment(c.Request().Context(), claims, c.Param("id"),
		file.Filename, file.Header.Get("Content-Type"), src)
	if err != nil {
		return err
	}
	return respond.Created(c, rec)
}

func (h *Handler) AccessLog(c echo.Context) error {
	claims := auth.FromContext(c.Request().Context())
	pg := pagination.FromContext(c)
	entries, total, err := h.svc.AccessLog(c.Request().Context(), claims, c.Param("id"), pg)
	if err != nil {
		return err
	}
	return respond.OK(c, pagination.NewResponse(entries, total, pg))
}
