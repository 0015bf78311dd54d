package analysis

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/kneecare/kneecare/internal/platform/auth"
	"github.com/kneecare/kneecare/internal/platform/imagestore"
	"github.com/kneecare/kneecare/internal/platform/scorer"
	"github.com/kneecare/kneecare/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	analyses := api.Group("/analyses")
	analyses.POST("", h.Analyze, auth.RequireRole(auth.RolePatient))
	analyses.GET("", h.List)
	analyses.GET("/:id", h.Get)
	analyses.GET("/:id/image", h.Image)
	analyses.POST("/:id/review", h.Review, auth.RequireRole(auth.RoleDoctor))
}

// Analyze handles POST /analyses: a multipart radiograph upload graded
// synchronously.
func (h *Handler) Analyze(c echo.Context) error {
	patientID, err := uuid.Parse(auth.UserIDFromContext(c.Request().Context()))
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid subject")
	}

	fh, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "file is required")
	}
	src, err := fh.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "cannot read upload")
	}
	defer src.Close()

	contentType := fh.Header.Get("Content-Type")
	a, err := h.svc.Analyze(c.Request().Context(), patientID, fh.Filename, contentType, src)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, a)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid analysis id")
	}
	a, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	if err := requireOwnerOrStaff(c, a.PatientID); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, a)
}

// Image handles GET /analyses/:id/image, streaming the stored radiograph.
func (h *Handler) Image(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid analysis id")
	}
	a, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	if err := requireOwnerOrStaff(c, a.PatientID); err != nil {
		return err
	}

	rc, meta, err := h.svc.Image(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	defer rc.Close()
	return c.Stream(http.StatusOK, meta.ContentType, rc)
}

type reviewRequest struct {
	Notes string `json:"notes"`
}

// Review handles POST /analyses/:id/review.
func (h *Handler) Review(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid analysis id")
	}
	var req reviewRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	doctorID, err := uuid.Parse(auth.UserIDFromContext(c.Request().Context()))
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid subject")
	}

	a, err := h.svc.Review(c.Request().Context(), id, doctorID, req.Notes)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, a)
}

// List handles GET /analyses. Patients see their own history; staff pass
// patient_id.
func (h *Handler) List(c echo.Context) error {
	ctx := c.Request().Context()
	p := pagination.FromContext(c)

	var patientID uuid.UUID
	if auth.RoleFromContext(ctx) == auth.RolePatient {
		id, err := uuid.Parse(auth.UserIDFromContext(ctx))
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid subject")
		}
		patientID = id
	} else {
		id, err := uuid.Parse(c.QueryParam("patient_id"))
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "patient_id is required")
		}
		patientID = id
	}

	items, total, err := h.svc.ListByPatient(ctx, patientID, p.Limit, p.Offset)
	if err != nil {
		return httpError(err)
	}
	if items == nil {
		items = []*Analysis{}
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, p))
}

func requireOwnerOrStaff(c echo.Context, patientID uuid.UUID) error {
	ctx := c.Request().Context()
	switch auth.RoleFromContext(ctx) {
	case auth.RoleAdmin, auth.RoleDoctor:
		return nil
	}
	if auth.UserIDFromContext(ctx) == patientID.String() {
		return nil
	}
	return echo.NewHTTPError(http.StatusForbidden, "insufficient permissions")
}

func httpError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, imagestore.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "analysis not found")
	case errors.Is(err, imagestore.ErrInvalidContentType):
		return echo.NewHTTPError(http.StatusUnsupportedMediaType, err.Error())
	case errors.Is(err, imagestore.ErrFileTooLarge):
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge, err.Error())
	case errors.Is(err, scorer.ErrUnavailable):
		return echo.NewHTTPError(http.StatusServiceUnavailable, "grading service unavailable, retry")
	case errors.Is(err, scorer.ErrScoreFailed):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "image could not be graded")
	default:
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
}
