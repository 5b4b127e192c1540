package v1

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lawrencemontaril/noynay-app/internal/service"
)

type ReportHandler struct {
	svc *service.ReportService
}

func NewReportHandler(svc *service.ReportService) *ReportHandler {
	return &ReportHandler{svc: svc}
}

func reportRange(c *gin.Context) (time.Time, time.Time) {
	var from, to time.Time
	if t := parseQueryTime(c, "from"); t != nil {
		from = *t
	}
	if t := parseQueryTime(c, "to"); t != nil {
		to = *t
	}
	return from, to
}

func (h *ReportHandler) AppointmentVolume(c *gin.Context) {
	from, to := reportRange(c)
	rows, err := h.svc.AppointmentVolume(c.Request.Context(), from, to)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, rows)
}

func (h *ReportHandler) ServiceTypeRanking(c *gin.Context) {
	from, to := reportRange(c)
	rows, err := h.svc.ServiceTypeRanking(c.Request.Context(), from, to)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, rows)
}

func (h *ReportHandler) LabResultBreakdown(c *gin.Context) {
	from, to := reportRange(c)
	rows, err := h.svc.LabResultBreakdown(c.Request.Context(), from, to)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, rows)
}

func (h *ReportHandler) Revenue(c *gin.Context) {
	from, to := reportRange(c)
	rows, err := h.svc.Revenue(c.Request.Context(), from, to)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, rows)
}

func (h *ReportHandler) PatientLoyalty(c *gin.Context) {
	from, to := reportRange(c)
	rows, err := h.svc.PatientLoyalty(c.Request.Context(), from, to, parseQueryInt(c, "limit", 10))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, rows)
}
