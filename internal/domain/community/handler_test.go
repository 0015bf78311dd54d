package community

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
	svc, _ := newTestService()
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

func TestHandler_CreatePost(t *testing.T) {
	h, _, e := newTestHandler()
	authorID := uuid.New()

	body := `{"title":"Recovery timeline?","body":"How long until normal walking?","tags":["recovery","surgery"]}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	asRole(c, authorID.String(), auth.RolePatient)

	if err := h.CreatePost(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}

	var p Post
	if err := json.Unmarshal(rec.Body.Bytes(), &p); err != nil {
		t.Fatal(err)
	}
	if p.AuthorID != authorID || p.AuthorRole != auth.RolePatient {
		t.Errorf("unexpected post: %+v", p)
	}
	if len(p.Tags) != 2 || p.Tags[0] != "recovery" {
		t.Errorf("tags = %v", p.Tags)
	}
}

func TestHandler_GetPost_WithReplies(t *testing.T) {
	h, svc, e := newTestHandler()
	post := seedPost(t, svc, uuid.New())

	if err := svc.Reply(context.Background(), &Reply{PostID: post.ID, AuthorID: uuid.New(), AuthorRole: "doctor", Body: "Expected."}); err != nil {
		t.Fatalf("seed reply error = %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(post.ID.String())

	if err := h.GetPost(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var resp postResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Post.ID != post.ID || len(resp.Replies) != 1 {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestHandler_DeletePost_Forbidden(t *testing.T) {
	h, svc, e := newTestHandler()
	post := seedPost(t, svc, uuid.New())

	req := httptest.NewRequest(http.MethodDelete, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(post.ID.String())
	asRole(c, uuid.New().String(), auth.RolePatient)

	if err := h.DeletePost(c); httpStatus(t, err) != http.StatusForbidden {
		t.Error("non-author delete should be 403")
	}
}

func TestHandler_GetPost_NotFound(t *testing.T) {
	h, _, e := newTestHandler()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(uuid.New().String())

	if err := h.GetPost(c); httpStatus(t, err) != http.StatusNotFound {
		t.Error("expected 404")
	}
}
