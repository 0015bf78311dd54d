package identity

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/kneecare/kneecare/internal/platform/auth"
)

func newTestHandler() (*Handler, *Service, *echo.Echo) {
	svc, _, _ := newTestService()
	return NewHandler(svc), svc, echo.New()
}

func asRole(c echo.Context, userID, role string) {
	ctx := c.Request().Context()
	ctx = context.WithValue(ctx, auth.UserIDKey, userID)
	ctx = context.WithValue(ctx, auth.UserRoleKey, role)
	c.SetRequest(c.Request().WithContext(ctx))
}

func httpStatus(t *testing.T, err error) int {
	t.Helper()
	var he *echo.HTTPError
	if !errors.As(err, &he) {
		t.Fatalf("expected *echo.HTTPError, got %v", err)
	}
	return he.Code
}

// A patient creating their own profile gets the token subject as profile id
// regardless of what the body says.
func TestHandler_CreatePatient_SelfID(t *testing.T) {
	h, _, e := newTestHandler()
	callerID := uuid.New()

	body := `{"id":"` + uuid.New().String() + `","full_name":"Asha Rao"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	asRole(c, callerID.String(), auth.RolePatient)

	if err := h.CreatePatient(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}

	var p Patient
	if err := json.Unmarshal(rec.Body.Bytes(), &p); err != nil {
		t.Fatal(err)
	}
	if p.ID != callerID {
		t.Errorf("profile id = %s, want token subject %s", p.ID, callerID)
	}
}

func TestHandler_GetPatient_Access(t *testing.T) {
	h, svc, e := newTestHandler()

	p := &Patient{FullName: "Asha Rao"}
	if err := svc.CreatePatient(context.Background(), p); err != nil {
		t.Fatalf("seed error = %v", err)
	}

	get := func(userID, role string) error {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetParamNames("id")
		c.SetParamValues(p.ID.String())
		asRole(c, userID, role)
		return h.GetPatient(c)
	}

	if err := get(p.ID.String(), auth.RolePatient); err != nil {
		t.Errorf("self read: %v", err)
	}
	if err := get(uuid.New().String(), auth.RoleDoctor); err != nil {
		t.Errorf("doctor read: %v", err)
	}
	if err := get(uuid.New().String(), auth.RolePatient); httpStatus(t, err) != http.StatusForbidden {
		t.Error("other patient should be forbidden")
	}
}

func TestHandler_UpdateDoctor_SelfOnly(t *testing.T) {
	h, svc, e := newTestHandler()

	d := &Doctor{FullName: "Dr. Meera Shah", Specialization: "orthopedics"}
	if err := svc.CreateDoctor(context.Background(), d); err != nil {
		t.Fatalf("seed error = %v", err)
	}

	put := func(userID, role string) error {
		body := `{"full_name":"Dr. Meera Shah","specialization":"orthopedics","bio":"knee specialist"}`
		req := httptest.NewRequest(http.MethodPut, "/", strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetParamNames("id")
		c.SetParamValues(d.ID.String())
		asRole(c, userID, role)
		return h.UpdateDoctor(c)
	}

	if err := put(d.ID.String(), auth.RoleDoctor); err != nil {
		t.Errorf("self update: %v", err)
	}
	if err := put(uuid.New().String(), auth.RoleDoctor); httpStatus(t, err) != http.StatusForbidden {
		t.Error("other doctor should be forbidden")
	}

	got, err := svc.GetDoctor(context.Background(), d.ID)
	if err != nil {
		t.Fatalf("GetDoctor() error = %v", err)
	}
	if got.Bio == nil || *got.Bio != "knee specialist" {
		t.Error("update not persisted")
	}
	if !got.Active {
		t.Error("update must not clear the active flag")
	}
}

func TestHandler_GetDoctor_NotFound(t *testing.T) {
	h, _, e := newTestHandler()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(uuid.New().String())

	if err := h.GetDoctor(c); httpStatus(t, err) != http.StatusNotFound {
		t.Error("expected 404 for unknown doctor")
	}
}

func TestHandler_ListDoctors(t *testing.T) {
	h, svc, e := newTestHandler()

	d := &Doctor{FullName: "Dr. Meera Shah", Specialization: "orthopedics"}
	if err := svc.CreateDoctor(context.Background(), d); err != nil {
		t.Fatalf("seed error = %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/?specialization=orthopedics", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.ListDoctors(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var resp struct {
		Data  []*Doctor `json:"data"`
		Total int       `json:"total"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Total != 1 || len(resp.Data) != 1 {
		t.Errorf("total = %d, data = %d, want 1", resp.Total, len(resp.Data))
	}
}
