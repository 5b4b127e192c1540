package v1

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/lawrencemontaril/noynay-app/internal/domain/procedure"
	"github.com/lawrencemontaril/noynay-app/internal/service"
)

type ProcedureHandler struct {
	svc *service.ProcedureService
}

func NewProcedureHandler(svc *service.ProcedureService) *ProcedureHandler {
	return &ProcedureHandler{svc: svc}
}

type createProcedureRequest struct {
	AppointmentID string `json:"appointment_id" binding:"required"`
	Description   string `json:"description"`
	Quantity      int    `json:"quantity"`
}

func (h *ProcedureHandler) Create(c *gin.Context) {
	claims := mustClaims(c)
	if claims == nil {
		return
	}

	var req createProcedureRequest
	if !bindJSON(c, &req) {
		return
	}

	appointmentID, err := uuid.Parse(req.AppointmentID)
	if err != nil {
		respondServiceError(c, service.NewValidationError("appointment_id", "The appointment id must be a valid UUID."))
		return
	}

	p, err := h.svc.Create(c.Request.Context(), &procedure.CreateProcedureCommand{
		AppointmentID: appointmentID,
		Description:   req.Description,
		Quantity:      req.Quantity,
	}, claims.UserID, claims.Role, c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondCreated(c, p)
}

func (h *ProcedureHandler) ListByAppointment(c *gin.Context) {
	claims := mustClaims(c)
	if claims == nil {
		return
	}
	appointmentID, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	procs, err := h.svc.ListByAppointment(c.Request.Context(), appointmentID, claims.Role, claims.PatientID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, procs)
}
