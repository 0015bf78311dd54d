package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

func contextWithRole(ctx context.Context, role string) context.Context {
	return context.WithValue(ctx, UserRoleKey, role)
}

var testKey = []byte("test-signing-key")

func signToken(t *testing.T, claims *Claims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := token.SignedString(testKey)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func doRequest(t *testing.T, mw echo.MiddlewareFunc, authHeader string) (echo.Context, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := mw(func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	return c, handler(c)
}

func TestJWTMiddleware_ValidToken(t *testing.T) {
	token := signToken(t, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			Issuer:    "kneecare",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Role: RoleDoctor,
	})

	mw := JWTMiddleware(JWTConfig{Issuer: "kneecare", SigningKey: testKey})
	c, err := doRequest(t, mw, "Bearer "+token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := UserIDFromContext(c.Request().Context()); got != "user-1" {
		t.Errorf("expected user-1, got %q", got)
	}
	if got := RoleFromContext(c.Request().Context()); got != RoleDoctor {
		t.Errorf("expected doctor role, got %q", got)
	}
}

func TestJWTMiddleware_MissingHeader(t *testing.T) {
	mw := JWTMiddleware(JWTConfig{SigningKey: testKey})
	_, err := doRequest(t, mw, "")
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %v", err)
	}
}

func TestJWTMiddleware_ExpiredToken(t *testing.T) {
	token := signToken(t, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
		Role: RolePatient,
	})

	mw := JWTMiddleware(JWTConfig{SigningKey: testKey})
	_, err := doRequest(t, mw, "Bearer "+token)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 for expired token, got %v", err)
	}
}

func TestJWTMiddleware_WrongIssuer(t *testing.T) {
	token := signToken(t, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			Issuer:    "someone-else",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})

	mw := JWTMiddleware(JWTConfig{Issuer: "kneecare", SigningKey: testKey})
	_, err := doRequest(t, mw, "Bearer "+token)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 for wrong issuer, got %v", err)
	}
}

func TestRequireRole(t *testing.T) {
	e := echo.New()

	cases := []struct {
		role    string
		allowed []string
		wantOK  bool
	}{
		{RoleDoctor, []string{RoleDoctor}, true},
		{RolePatient, []string{RoleDoctor}, false},
		{RoleAdmin, []string{RoleDoctor}, true},
		{RolePatient, []string{RolePatient, RoleDoctor}, true},
		{"", []string{RolePatient}, false},
	}

	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		ctx := c.Request().Context()
		if tc.role != "" {
			c.SetRequest(c.Request().WithContext(contextWithRole(ctx, tc.role)))
		}

		mw := RequireRole(tc.allowed...)
		err := mw(func(c echo.Context) error { return c.NoContent(http.StatusOK) })(c)
		if tc.wantOK && err != nil {
			t.Errorf("role %q allowed %v: unexpected error %v", tc.role, tc.allowed, err)
		}
		if !tc.wantOK {
			httpErr, ok := err.(*echo.HTTPError)
			if !ok || httpErr.Code != http.StatusForbidden {
				t.Errorf("role %q allowed %v: expected 403, got %v", tc.role, tc.allowed, err)
			}
		}
	}
}

func TestDevAuthMiddleware(t *testing.T) {
	mw := DevAuthMiddleware()
	c, err := doRequest(t, mw, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if RoleFromContext(c.Request().Context()) != RoleAdmin {
		t.Error("expected dev requests to carry admin role")
	}
}
