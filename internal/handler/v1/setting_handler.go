package v1

import (
	"github.com/gin-gonic/gin"

	"github.com/lawrencemontaril/noynay-app/internal/domain/setting"
	"github.com/lawrencemontaril/noynay-app/internal/service"
)

type SettingHandler struct {
	svc *service.SettingService
}

func NewSettingHandler(svc *service.SettingService) *SettingHandler {
	return &SettingHandler{svc: svc}
}

func (h *SettingHandler) Get(c *gin.Context) {
	s, err := h.svc.Get(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, s)
}

type updateSettingRequest struct {
	MaxAppointmentPerSlot  *int     `json:"max_appointment_per_slot"`
	VATPercent             *float64 `json:"vat_percent"`
	SpecialDiscountPercent *float64 `json:"special_discount_percent"`
}

func (h *SettingHandler) Update(c *gin.Context) {
	claims := mustClaims(c)
	if claims == nil {
		return
	}

	var req updateSettingRequest
	if !bindJSON(c, &req) {
		return
	}

	s, err := h.svc.Update(c.Request.Context(), &setting.UpdateSettingCommand{
		MaxAppointmentPerSlot:  req.MaxAppointmentPerSlot,
		VATPercent:             req.VATPercent,
		SpecialDiscountPercent: req.SpecialDiscountPercent,
	}, claims.UserID, claims.Role, c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, s)
}
