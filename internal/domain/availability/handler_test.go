package availability

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/kneecare/kneecare/internal/platform/auth"
)

func newTestHandler() (*Handler, *echo.Echo) {
	svc, _ := newTestService()
	return NewHandler(svc), echo.New()
}

func asRole(c echo.Context, userID, role string) {
	ctx := c.Request().Context()
	ctx = context.WithValue(ctx, auth.UserIDKey, userID)
	ctx = context.WithValue(ctx, auth.UserRoleKey, role)
	c.SetRequest(c.Request().WithContext(ctx))
}

func TestHandler_ReplaceWeek(t *testing.T) {
	h, e := newTestHandler()
	doctorID := uuid.New()

	body := `[{"day_of_week":1,"start_time":"09:00","end_time":"17:00","slot_minutes":30}]`
	req := httptest.NewRequest(http.MethodPut, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(doctorID.String())
	asRole(c, doctorID.String(), auth.RoleDoctor)

	if err := h.ReplaceWeek(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}

	var tpls []Template
	if err := json.Unmarshal(rec.Body.Bytes(), &tpls); err != nil {
		t.Fatal(err)
	}
	if len(tpls) != 1 || tpls[0].DayOfWeek != 1 {
		t.Errorf("unexpected response body: %+v", tpls)
	}
}

func TestHandler_ReplaceWeek_OtherDoctorForbidden(t *testing.T) {
	h, e := newTestHandler()

	body := `[]`
	req := httptest.NewRequest(http.MethodPut, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(uuid.New().String())
	asRole(c, uuid.New().String(), auth.RoleDoctor)

	err := h.ReplaceWeek(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %v", err)
	}
}

func TestHandler_ReplaceWeek_InvalidBody(t *testing.T) {
	h, e := newTestHandler()
	doctorID := uuid.New()

	body := `[{"day_of_week":9,"start_time":"09:00","end_time":"17:00","slot_minutes":30}]`
	req := httptest.NewRequest(http.MethodPut, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(doctorID.String())
	asRole(c, doctorID.String(), auth.RoleDoctor)

	err := h.ReplaceWeek(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %v", err)
	}
}

func TestHandler_GetWeek_Empty(t *testing.T) {
	h, e := newTestHandler()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(uuid.New().String())
	asRole(c, uuid.New().String(), auth.RolePatient)

	if err := h.GetWeek(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Errorf("expected empty array, got %s", rec.Body.String())
	}
}

func TestHandler_GetWeek_BadID(t *testing.T) {
	h, e := newTestHandler()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("not-a-uuid")

	err := h.GetWeek(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %v", err)
	}
}
