package appointment

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/kneecare/kneecare/internal/domain/availability"
	"github.com/kneecare/kneecare/internal/platform/auth"
	"github.com/kneecare/kneecare/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/doctors/:id/slots", h.DaySlots)

	appts := api.Group("/appointments")
	appts.POST("", h.Book, auth.RequireRole(auth.RolePatient))
	appts.GET("", h.List)
	appts.GET("/:id", h.Get)
	appts.POST("/:id/status", h.UpdateStatus)
	appts.POST("/:id/reschedule", h.Reschedule)
}

type slotsResponse struct {
	DoctorID string `json:"doctor_id"`
	Date     string `json:"date"`
	Slots    []Slot `json:"slots"`
}

// DaySlots handles GET /doctors/:id/slots?date=2006-01-02.
func (h *Handler) DaySlots(c echo.Context) error {
	doctorID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid doctor id")
	}
	date, err := parseDate(c.QueryParam("date"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	slots, err := h.svc.DaySlots(c.Request().Context(), doctorID, date)
	if err != nil {
		return httpError(err)
	}

	// Patients see occupancy but not whose appointment holds the slot.
	if auth.RoleFromContext(c.Request().Context()) == auth.RolePatient {
		for i := range slots {
			slots[i].AppointmentID = nil
		}
	}

	return c.JSON(http.StatusOK, slotsResponse{
		DoctorID: doctorID.String(),
		Date:     date.Format("2006-01-02"),
		Slots:    slots,
	})
}

type bookRequest struct {
	DoctorID   string `json:"doctor_id"`
	Date       string `json:"date"`
	Time       string `json:"time"`
	Type       string `json:"type"`
	Reason     string `json:"reason"`
	AnalysisID string `json:"analysis_id"`
}

// Book handles POST /appointments. The patient identity comes from the
// token, never from the body.
func (h *Handler) Book(c echo.Context) error {
	var req bookRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	patientID, err := uuid.Parse(auth.UserIDFromContext(c.Request().Context()))
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid subject")
	}
	doctorID, err := uuid.Parse(req.DoctorID)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid doctor_id")
	}
	date, err := parseDate(req.Date)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	booking := BookingRequest{
		PatientID: patientID,
		DoctorID:  doctorID,
		Date:      date,
		Time:      req.Time,
		Type:      Type(req.Type),
		Reason:    req.Reason,
	}
	if req.AnalysisID != "" {
		analysisID, err := uuid.Parse(req.AnalysisID)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid analysis_id")
		}
		booking.AnalysisID = &analysisID
	}

	a, err := h.svc.Book(c.Request().Context(), booking)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, a)
}

// List handles GET /appointments, scoped by the caller's role: patients see
// their own bookings, doctors their own calendar. Admins pass patient_id or
// doctor_id explicitly.
func (h *Handler) List(c echo.Context) error {
	ctx := c.Request().Context()
	p := pagination.FromContext(c)

	var (
		appts []*Appointment
		total int
		err   error
	)
	switch auth.RoleFromContext(ctx) {
	case auth.RolePatient:
		patientID, perr := uuid.Parse(auth.UserIDFromContext(ctx))
		if perr != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid subject")
		}
		appts, total, err = h.svc.ListByPatient(ctx, patientID, p.Limit, p.Offset)
	case auth.RoleDoctor:
		doctorID, perr := uuid.Parse(auth.UserIDFromContext(ctx))
		if perr != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid subject")
		}
		appts, total, err = h.svc.ListByDoctor(ctx, doctorID, p.Limit, p.Offset)
	case auth.RoleAdmin:
		if pid := c.QueryParam("patient_id"); pid != "" {
			patientID, perr := uuid.Parse(pid)
			if perr != nil {
				return echo.NewHTTPError(http.StatusBadRequest, "invalid patient_id")
			}
			appts, total, err = h.svc.ListByPatient(ctx, patientID, p.Limit, p.Offset)
		} else if did := c.QueryParam("doctor_id"); did != "" {
			doctorID, perr := uuid.Parse(did)
			if perr != nil {
				return echo.NewHTTPError(http.StatusBadRequest, "invalid doctor_id")
			}
			appts, total, err = h.svc.ListByDoctor(ctx, doctorID, p.Limit, p.Offset)
		} else {
			return echo.NewHTTPError(http.StatusBadRequest, "patient_id or doctor_id is required")
		}
	default:
		return echo.NewHTTPError(http.StatusForbidden, "insufficient permissions")
	}
	if err != nil {
		return httpError(err)
	}
	if appts == nil {
		appts = []*Appointment{}
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(appts, total, p))
}

// Get handles GET /appointments/:id. Only a participant or an admin may
// read an appointment.
func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid appointment id")
	}

	a, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	if err := requireParticipant(c, a); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, a)
}

type statusRequest struct {
	Status string `json:"status"`
}

// UpdateStatus handles POST /appointments/:id/status.
func (h *Handler) UpdateStatus(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid appointment id")
	}
	var req statusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	target := Status(req.Status)

	a, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	if err := requireParticipant(c, a); err != nil {
		return err
	}
	// Patients may only cancel; clinical transitions belong to the doctor.
	if auth.RoleFromContext(c.Request().Context()) == auth.RolePatient && target != StatusCancelled {
		return echo.NewHTTPError(http.StatusForbidden, "patients may only cancel appointments")
	}

	a, err = h.svc.UpdateStatus(c.Request().Context(), id, target)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, a)
}

type rescheduleRequest struct {
	Date   string `json:"date"`
	Time   string `json:"time"`
	Reason string `json:"reason"`
}

// Reschedule handles POST /appointments/:id/reschedule.
func (h *Handler) Reschedule(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid appointment id")
	}
	var req rescheduleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	date, err := parseDate(req.Date)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	existing, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	if err := requireParticipant(c, existing); err != nil {
		return err
	}

	a, err := h.svc.Reschedule(c.Request().Context(), id, date, req.Time, req.Reason)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, a)
}

func requireParticipant(c echo.Context, a *Appointment) error {
	ctx := c.Request().Context()
	if auth.RoleFromContext(ctx) == auth.RoleAdmin {
		return nil
	}
	callerID := auth.UserIDFromContext(ctx)
	if callerID == a.PatientID.String() || callerID == a.DoctorID.String() {
		return nil
	}
	return echo.NewHTTPError(http.StatusForbidden, "insufficient permissions")
}

func parseDate(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, errors.New("date is required")
	}
	date, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, errors.New("invalid date, expected YYYY-MM-DD")
	}
	return date, nil
}

// httpError maps domain errors onto HTTP status codes. A taken slot and a
// misaligned time get distinct codes so clients can tell a retryable race
// loss apart from a bad request.
func httpError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "appointment not found")
	case errors.Is(err, ErrSlotTaken):
		return echo.NewHTTPError(http.StatusConflict, "slot is no longer available")
	case errors.Is(err, ErrInvalidTransition):
		return echo.NewHTTPError(http.StatusConflict, "invalid status transition")
	case errors.Is(err, ErrPastSlot), errors.Is(err, ErrSlotMisaligned):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrStoreUnavailable):
		return echo.NewHTTPError(http.StatusServiceUnavailable, "store unavailable, retry")
	case errors.Is(err, availability.ErrDuplicateTemplate):
		// Data integrity failure: the store guards against this, so seeing
		// it means the availability table is corrupt.
		return echo.NewHTTPError(http.StatusInternalServerError, "availability data is inconsistent")
	default:
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
}
