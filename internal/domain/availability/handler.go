package availability

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/kneecare/kneecare/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/doctors/:id/availability", h.GetWeek,
		auth.RequireRole(auth.RolePatient, auth.RoleDoctor))
	api.PUT("/doctors/:id/availability", h.ReplaceWeek,
		auth.RequireRole(auth.RoleDoctor))
}

// ReplaceWeek handles PUT /doctors/:id/availability. The body is the full
// weekly template array; the stored set is replaced wholesale.
func (h *Handler) ReplaceWeek(c echo.Context) error {
	doctorID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid doctor id")
	}
	if err := requireSelfOrAdmin(c, doctorID); err != nil {
		return err
	}

	var days []WeekdayInput
	if err := c.Bind(&days); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	tpls, err := h.svc.ReplaceWeek(c.Request().Context(), doctorID, days)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, tpls)
}

func (h *Handler) GetWeek(c echo.Context) error {
	doctorID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid doctor id")
	}
	tpls, err := h.svc.WeekFor(c.Request().Context(), doctorID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if tpls == nil {
		tpls = []*Template{}
	}
	return c.JSON(http.StatusOK, tpls)
}

// requireSelfOrAdmin refuses doctors editing availability other than their
// own. Admin callers pass.
func requireSelfOrAdmin(c echo.Context, doctorID uuid.UUID) error {
	ctx := c.Request().Context()
	if auth.RoleFromContext(ctx) == auth.RoleAdmin {
		return nil
	}
	if auth.UserIDFromContext(ctx) != doctorID.String() {
		return echo.NewHTTPError(http.StatusForbidden, "cannot modify another doctor's availability")
	}
	return nil
}
