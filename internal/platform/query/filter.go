// Package query translates request filters into a validated query. Every
// malformed field is collected so the whole request is rejected with one
// validation error; role scoping is layered on afterwards so a caller can
// never widen their own visibility with filter parameters.
package query

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/hms/hms/internal/platform/auth"
	"github.com/hms/hms/internal/platform/respond"
	"github.com/hms/hms/pkg/pagination"
)

// DateLayout is the wire format for date range bounds.
const DateLayout = "2006-01-02"

// Business ids look like MR000001, DOC000001, PAY000001, APT000001.
var idPattern = regexp.MustCompile(`^[A-Z]{2,4}[0-9]{6}$`)

// Filter is a validated, role-scoped query against a document collection.
type Filter struct {
	Page       pagination.Params
	PatientID  string
	DoctorID   string
	HospitalID string
	DateFrom   *time.Time // inclusive lower bound
	DateTo     *time.Time // inclusive upper bound
	SortColumn string
	SortDesc   bool
}

// OrderClause renders the validated sort as a SQL ORDER BY fragment. The
// column comes from the builder's whitelist, never from user input.
func (f *Filter) OrderClause() string {
	dir := "ASC"
	if f.SortDesc {
		dir = "DESC"
	}
	return f.SortColumn + " " + dir
}

// Builder validates filters for one collection. SortFields whitelists
// sortable API field names and maps them to columns.
type Builder struct {
	SortFields  map[string]string
	DefaultSort string
}

// Build parses and validates the request's filter parameters, then applies
// role-based scoping from the claims. All offending fields are reported in
// a single validation error.
func (b Builder) Build(c echo.Context, claims *auth.Claims) (*Filter, error) {
	if claims == nil || claims.Subject == "" {
		return nil, respond.Unauthenticated("")
	}
	// A staff token without a hospital produces an empty scope, which would
	// make list queries unconstrained.
	if claims.Role == auth.RoleStaff && claims.HospitalID == "" {
		return nil, respond.Unauthenticated("")
	}

	var fields []respond.FieldError
	f := &Filter{Page: pagination.Params{Page: 1, Limit: pagination.DefaultLimit}}

	if raw := c.QueryParam("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			fields = append(fields, respond.FieldError{Field: "page", Message: "must be an integer >= 1"})
		} else {
			f.Page.Page = n
		}
	}

	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > pagination.MaxLimit {
			fields = append(fields, respond.FieldError{Field: "limit", Message: "must be an integer between 1 and 100"})
		} else {
			f.Page.Limit = n
		}
	}

	f.PatientID = b.ident(c, "patient_id", &fields)
	f.DoctorID = b.ident(c, "doctor_id", &fields)
	f.HospitalID = b.ident(c, "hospital_id", &fields)

	f.DateFrom = b.date(c, "date_from", &fields)
	f.DateTo = b.date(c, "date_to", &fields)
	if f.DateFrom != nil && f.DateTo != nil && f.DateFrom.After(*f.DateTo) {
		fields = append(fields, respond.FieldError{Field: "date_from", Message: "must not be after date_to"})
	}

	f.SortColumn = b.SortFields[b.DefaultSort]
	if raw := c.QueryParam("sort_by"); raw != "" {
		col, ok := b.SortFields[raw]
		if !ok {
			fields = append(fields, respond.FieldError{Field: "sort_by", Message: "must be one of: " + strings.Join(b.sortNames(), ", ")})
		} else {
			f.SortColumn = col
		}
	}
	if raw := c.QueryParam("sort_order"); raw != "" {
		switch raw {
		case "asc":
		case "desc":
			f.SortDesc = true
		default:
			fields = append(fields, respond.FieldError{Field: "sort_order", Message: "must be asc or desc"})
		}
	}

	if len(fields) > 0 {
		return nil, respond.Validation(fields...)
	}

	b.scope(f, claims)
	return f, nil
}

func (b Builder) ident(c echo.Context, name string, fields *[]respond.FieldError) string {
	raw := c.QueryParam(name)
	if raw == "" {
		return ""
	}
	if !idPattern.MatchString(raw) {
		*fields = append(*fields, respond.FieldError{Field: name, Message: "malformed identifier"})
		return ""
	}
	return raw
}

func (b Builder) date(c echo.Context, name string, fields *[]respond.FieldError) *time.Time {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil
	}
	t, err := time.Parse(DateLayout, raw)
	if err != nil {
		*fields = append(*fields, respond.FieldError{Field: name, Message: "must be a date in YYYY-MM-DD format"})
		return nil
	}
	return &t
}

// scope constrains the filter to what the caller's role may see,
// overriding any ids supplied in the request.
func (b Builder) scope(f *Filter, claims *auth.Claims) {
	switch claims.Role {
	case auth.RolePatient:
		f.PatientID = claims.Subject
	case auth.RoleDoctor:
		f.DoctorID = claims.Subject
	case auth.RoleStaff:
		f.HospitalID = claims.HospitalID
	}
}

func (b Builder) sortNames() []string {
	names := make([]string, 0, len(b.SortFields))
	for name := range b.SortFields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
