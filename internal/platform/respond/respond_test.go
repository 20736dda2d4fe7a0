package respond

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

func TestKindStatusCodes(t *testing.T) {
	cases := []struct {
		kind Kind
		want int
	}{
		{KindValidation, http.StatusBadRequest},
		{KindUnauthenticated, http.StatusUnauthorized},
		{KindAccessDenied, http.StatusForbidden},
		{KindNotFound, http.StatusNotFound},
		{KindInternal, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := tc.kind.StatusCode(); got != tc.want {
			t.Fatalf("kind %d -> %d, want %d", tc.kind, got, tc.want)
		}
	}
}

func TestValidationCarriesAllFields(t *testing.T) {
	err := Validation(
		FieldError{Field: "page", Message: "must be an integer >= 1"},
		FieldError{Field: "limit", Message: "must be an integer between 1 and 100"},
	)
	if err.Kind != KindValidation || len(err.Fields) != 2 {
		t.Fatalf("err = %+v", err)
	}
}

func TestInternalHidesCauseFromMessage(t *testing.T) {
	cause := fmt.Errorf("pq: connection refused")
	err := Internal(cause)

	if err.Message != "internal server error" {
		t.Fatalf("external message = %q", err.Message)
	}
	if !errors.Is(err, cause) {
		t.Fatal("cause should be reachable via Unwrap for logging")
	}
}

func errorResponse(t *testing.T, err error) (int, Envelope) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/medical-records", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	HTTPErrorHandler(zerolog.Nop())(err, c)

	var env Envelope
	if jerr := json.Unmarshal(rec.Body.Bytes(), &env); jerr != nil {
		t.Fatalf("unmarshal response: %v", jerr)
	}
	return rec.Code, env
}

func TestHTTPErrorHandlerMapsTaxonomy(t *testing.T) {
	status, env := errorResponse(t, Denied())
	if status != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", status)
	}
	if env.Success || env.Message != "Access denied" {
		t.Fatalf("envelope = %+v", env)
	}

	status, env = errorResponse(t, Invalid("page", "must be an integer >= 1"))
	if status != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", status)
	}
	if len(env.Errors) != 1 || env.Errors[0].Field != "page" {
		t.Fatalf("errors = %+v", env.Errors)
	}
}

func TestHTTPErrorHandlerDoesNotEchoInternalCause(t *testing.T) {
	status, env := errorResponse(t, Internal(fmt.Errorf("dial tcp 10.0.0.4:5432: i/o timeout")))
	if status != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", status)
	}
	if env.Message != "internal server error" {
		t.Fatalf("internal cause leaked: %q", env.Message)
	}
}

func TestHTTPErrorHandlerPassesEchoErrors(t *testing.T) {
	status, env := errorResponse(t, echo.NewHTTPError(http.StatusMethodNotAllowed, "method not allowed"))
	if status != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", status)
	}
	if env.Success {
		t.Fatal("error envelope marked success")
	}
}
