package v1

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/lawrencemontaril/noynay-app/internal/domain"
	"github.com/lawrencemontaril/noynay-app/internal/domain/appointment"
	"github.com/lawrencemontaril/noynay-app/internal/service"
)

type AppointmentHandler struct {
	svc *service.AppointmentService
}

func NewAppointmentHandler(svc *service.AppointmentService) *AppointmentHandler {
	return &AppointmentHandler{svc: svc}
}

type createAppointmentRequest struct {
	PatientID   string    `json:"patient_id"`
	ScheduledAt time.Time `json:"scheduled_at" binding:"required"`
	Type        string    `json:"type" binding:"required"`
	Complaints  string    `json:"complaints"`
}

func (h *AppointmentHandler) Create(c *gin.Context) {
	claims := mustClaims(c)
	if claims == nil {
		return
	}

	var req createAppointmentRequest
	if !bindJSON(c, &req) {
		return
	}

	cmd := &appointment.CreateAppointmentCommand{
		ScheduledAt: req.ScheduledAt,
		Type:        appointment.ServiceType(req.Type),
		Complaints:  req.Complaints,
	}
	// Staff must name the patient; the service overrides this for patients.
	if req.PatientID != "" {
		pid, err := uuid.Parse(req.PatientID)
		if err != nil {
			respondServiceError(c, service.NewValidationError("patient_id", "The patient id must be a valid UUID."))
			return
		}
		cmd.PatientID = pid
	}

	a, err := h.svc.Create(c.Request.Context(), cmd, claims.UserID, claims.Role, claims.PatientID, c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondCreated(c, a)
}

func (h *AppointmentHandler) Get(c *gin.Context) {
	claims := mustClaims(c)
	if claims == nil {
		return
	}
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	a, err := h.svc.Get(c.Request.Context(), id, claims.Role, claims.PatientID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, a)
}

func (h *AppointmentHandler) List(c *gin.Context) {
	claims := mustClaims(c)
	if claims == nil {
		return
	}

	q := &appointment.ListAppointmentsQuery{
		Search:   c.Query("search"),
		Archived: c.Query("archived") == "true",
		DateFrom: parseQueryTime(c, "date_from"),
		DateTo:   parseQueryTime(c, "date_to"),
		Page:     parseQueryInt(c, "page", 1),
		PageSize: parseQueryInt(c, "page_size", 20),
	}
	if raw := c.Query("patient_id"); raw != "" {
		if pid, err := uuid.Parse(raw); err == nil {
			q.PatientID = &pid
		}
	}
	if raw := c.Query("status"); raw != "" {
		st := appointment.Status(raw)
		q.Status = &st
	}
	if raw := c.Query("type"); raw != "" {
		t := appointment.ServiceType(raw)
		q.Type = &t
	}

	page, err := h.svc.List(c.Request.Context(), q, claims.Role, claims.PatientID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, page)
}

func (h *AppointmentHandler) Approve(c *gin.Context) {
	h.transition(c, h.svc.Approve)
}

func (h *AppointmentHandler) Reject(c *gin.Context) {
	h.transition(c, h.svc.Reject)
}

func (h *AppointmentHandler) MarkNoShow(c *gin.Context) {
	h.transition(c, h.svc.MarkNoShow)
}

type rescheduleRequest struct {
	ScheduledAt time.Time `json:"scheduled_at" binding:"required"`
	Complaints  *string   `json:"complaints"`
}

func (h *AppointmentHandler) Reschedule(c *gin.Context) {
	claims := mustClaims(c)
	if claims == nil {
		return
	}
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	var req rescheduleRequest
	if !bindJSON(c, &req) {
		return
	}

	a, err := h.svc.Reschedule(c.Request.Context(), id, &appointment.RescheduleAppointmentCommand{
		ScheduledAt: req.ScheduledAt,
		Complaints:  req.Complaints,
	}, claims.UserID, claims.Role, claims.PatientID, c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, a)
}

func (h *AppointmentHandler) Cancel(c *gin.Context) {
	claims := mustClaims(c)
	if claims == nil {
		return
	}
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	a, err := h.svc.Cancel(c.Request.Context(), id, claims.UserID, claims.Role, claims.PatientID, c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, a)
}

func (h *AppointmentHandler) Archive(c *gin.Context) {
	h.lifecycle(c, h.svc.Archive)
}

func (h *AppointmentHandler) Restore(c *gin.Context) {
	h.lifecycle(c, h.svc.Restore)
}

func (h *AppointmentHandler) ForceDelete(c *gin.Context) {
	h.lifecycle(c, h.svc.ForceDelete)
}

type transitionFunc func(ctx context.Context, id, callerID uuid.UUID, callerRole domain.Role, ip string) (*appointment.Appointment, error)

func (h *AppointmentHandler) transition(c *gin.Context, fn transitionFunc) {
	claims := mustClaims(c)
	if claims == nil {
		return
	}
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	a, err := fn(c.Request.Context(), id, claims.UserID, claims.Role, c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, a)
}

type lifecycleFunc func(ctx context.Context, id, callerID uuid.UUID, callerRole domain.Role, ip string) error

func (h *AppointmentHandler) lifecycle(c *gin.Context, fn lifecycleFunc) {
	claims := mustClaims(c)
	if claims == nil {
		return
	}
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	if err := fn(c.Request.Context(), id, claims.UserID, claims.Role, c.ClientIP()); err != nil {
		respondServiceError(c, err)
		return
	}

	respondNoContent(c)
}
