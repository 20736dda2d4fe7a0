package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/hms/hms/internal/platform/respond"
)

func timeoutServer(t *testing.T, timeout time.Duration, path string, handler echo.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	e.HTTPErrorHandler = respond.HTTPErrorHandler(zerolog.Nop())
	e.Use(RequestTimeout(timeout))
	e.GET(path, handler)

	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestRequestTimeoutSurfacesDeadlineAsServerError(t *testing.T) {
	rec := timeoutServer(t, 10*time.Millisecond, "/api/v1/payments", func(c echo.Context) error {
		ctx := c.Request().Context()
		select {
		case <-ctx.Done():
			return respond.Internal(ctx.Err())
		case <-time.After(time.Second):
			return c.JSON(http.StatusOK, respond.Envelope{Success: true})
		}
	})

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}

	// Exactly one well-formed envelope on the wire; Unmarshal rejects any
	// trailing second write.
	var env respond.Envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("body is not a single envelope: %v (%q)", err, rec.Body.String())
	}
	if env.Success || env.Message != "internal server error" {
		t.Fatalf("envelope = %+v", env)
	}
}

func TestRequestTimeoutLeavesFastRequestsAlone(t *testing.T) {
	rec := timeoutServer(t, 100*time.Millisecond, "/api/v1/patients", func(c echo.Context) error {
		return c.JSON(http.StatusOK, respond.Envelope{Success: true, Message: "ok"})
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var env respond.Envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if !env.Success || env.Message != "ok" {
		t.Fatalf("envelope = %+v", env)
	}
}

func TestRequestTimeoutSkipsWebSocketPaths(t *testing.T) {
	rec := timeoutServer(t, 10*time.Millisecond, "/ws/events", func(c echo.Context) error {
		if _, ok := c.Request().Context().Deadline(); ok {
			t.Fatal("websocket request should carry no deadline")
		}
		return c.NoContent(http.StatusOK)
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}
