package v1

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/lawrencemontaril/noynay-app/internal/domain/appointment"
	"github.com/lawrencemontaril/noynay-app/internal/domain/consultation"
	"github.com/lawrencemontaril/noynay-app/internal/service"
)

type ConsultationHandler struct {
	svc *service.ConsultationService
}

func NewConsultationHandler(svc *service.ConsultationService) *ConsultationHandler {
	return &ConsultationHandler{svc: svc}
}

type createConsultationRequest struct {
	AppointmentID   string             `json:"appointment_id" binding:"required"`
	Type            string             `json:"type"`
	ChiefComplaints string             `json:"chief_complaints"`
	Assessment      string             `json:"assessment"`
	Plan            string             `json:"plan"`
	Vitals          consultation.Vitals `json:"vitals"`
}

func (h *ConsultationHandler) Create(c *gin.Context) {
	claims := mustClaims(c)
	if claims == nil {
		return
	}

	var req createConsultationRequest
	if !bindJSON(c, &req) {
		return
	}

	appointmentID, err := uuid.Parse(req.AppointmentID)
	if err != nil {
		respondServiceError(c, service.NewValidationError("appointment_id", "The appointment id must be a valid UUID."))
		return
	}

	cons, err := h.svc.Create(c.Request.Context(), &consultation.CreateConsultationCommand{
		AppointmentID:   appointmentID,
		Type:            appointment.ServiceType(req.Type),
		ChiefComplaints: req.ChiefComplaints,
		Assessment:      req.Assessment,
		Plan:            req.Plan,
		Vitals:          req.Vitals,
	}, claims.UserID, claims.Role, c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondCreated(c, cons)
}

type updateConsultationRequest struct {
	ChiefComplaints *string              `json:"chief_complaints"`
	Assessment      *string              `json:"assessment"`
	Plan            *string              `json:"plan"`
	Vitals          *consultation.Vitals `json:"vitals"`
}

func (h *ConsultationHandler) Update(c *gin.Context) {
	claims := mustClaims(c)
	if claims == nil {
		return
	}
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	var req updateConsultationRequest
	if !bindJSON(c, &req) {
		return
	}

	cons, err := h.svc.Update(c.Request.Context(), id, &consultation.UpdateConsultationCommand{
		ChiefComplaints: req.ChiefComplaints,
		Assessment:      req.Assessment,
		Plan:            req.Plan,
		Vitals:          req.Vitals,
	}, claims.UserID, claims.Role, c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, cons)
}

func (h *ConsultationHandler) Get(c *gin.Context) {
	claims := mustClaims(c)
	if claims == nil {
		return
	}
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	cons, err := h.svc.Get(c.Request.Context(), id, claims.Role, claims.PatientID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, cons)
}

func (h *ConsultationHandler) List(c *gin.Context) {
	claims := mustClaims(c)
	if claims == nil {
		return
	}

	q := &consultation.ListConsultationsQuery{
		Search:   c.Query("search"),
		Page:     parseQueryInt(c, "page", 1),
		PageSize: parseQueryInt(c, "page_size", 20),
	}
	if raw := c.Query("appointment_id"); raw != "" {
		if id, err := uuid.Parse(raw); err == nil {
			q.AppointmentID = &id
		}
	}
	if raw := c.Query("patient_id"); raw != "" {
		if id, err := uuid.Parse(raw); err == nil {
			q.PatientID = &id
		}
	}

	page, err := h.svc.List(c.Request.Context(), q, claims.Role, claims.PatientID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, page)
}

func (h *ConsultationHandler) Delete(c *gin.Context) {
	claims := mustClaims(c)
	if claims == nil {
		return
	}
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	if err := h.svc.Delete(c.Request.Context(), id, claims.UserID, claims.Role, c.ClientIP()); err != nil {
		respondServiceError(c, err)
		return
	}

	respondNoContent(c)
}
