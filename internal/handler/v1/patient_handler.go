package v1

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lawrencemontaril/noynay-app/internal/domain/patient"
	"github.com/lawrencemontaril/noynay-app/internal/service"
)

type PatientHandler struct {
	svc *service.PatientService
}

func NewPatientHandler(svc *service.PatientService) *PatientHandler {
	return &PatientHandler{svc: svc}
}

type createPatientRequest struct {
	FirstName     string `json:"first_name" binding:"required"`
	MiddleName    string `json:"middle_name"`
	LastName      string `json:"last_name" binding:"required"`
	Gender        string `json:"gender" binding:"required"`
	CivilStatus   string `json:"civil_status" binding:"required"`
	Birthdate     string `json:"birthdate" binding:"required"`
	ContactNumber string `json:"contact_number" binding:"required"`
	Address       string `json:"address" binding:"required"`
}

func (h *PatientHandler) Create(c *gin.Context) {
	claims := mustClaims(c)
	if claims == nil {
		return
	}

	var req createPatientRequest
	if !bindJSON(c, &req) {
		return
	}

	birthdate, err := time.Parse("2006-01-02", req.Birthdate)
	if err != nil {
		respondServiceError(c, service.NewValidationError("birthdate", "The birthdate must be a valid date in YYYY-MM-DD format."))
		return
	}

	p, err := h.svc.Create(c.Request.Context(), &patient.CreatePatientCommand{
		FirstName:     req.FirstName,
		MiddleName:    req.MiddleName,
		LastName:      req.LastName,
		Gender:        patient.Gender(req.Gender),
		CivilStatus:   patient.CivilStatus(req.CivilStatus),
		Birthdate:     birthdate,
		ContactNumber: req.ContactNumber,
		Address:       req.Address,
	}, claims.UserID, claims.Role, c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondCreated(c, p)
}

func (h *PatientHandler) Get(c *gin.Context) {
	claims := mustClaims(c)
	if claims == nil {
		return
	}
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	p, err := h.svc.Get(c.Request.Context(), id, claims.Role, claims.PatientID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, p)
}

type updatePatientRequest struct {
	FirstName     *string `json:"first_name"`
	MiddleName    *string `json:"middle_name"`
	LastName      *string `json:"last_name"`
	Gender        *string `json:"gender"`
	CivilStatus   *string `json:"civil_status"`
	Birthdate     *string `json:"birthdate"`
	ContactNumber *string `json:"contact_number"`
	Address       *string `json:"address"`
}

func (h *PatientHandler) Update(c *gin.Context) {
	claims := mustClaims(c)
	if claims == nil {
		return
	}
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	var req updatePatientRequest
	if !bindJSON(c, &req) {
		return
	}

	cmd := &patient.UpdatePatientCommand{
		FirstName:     req.FirstName,
		MiddleName:    req.MiddleName,
		LastName:      req.LastName,
		ContactNumber: req.ContactNumber,
		Address:       req.Address,
	}
	if req.Gender != nil {
		g := patient.Gender(*req.Gender)
		cmd.Gender = &g
	}
	if req.CivilStatus != nil {
		cs := patient.CivilStatus(*req.CivilStatus)
		cmd.CivilStatus = &cs
	}
	if req.Birthdate != nil {
		b, err := time.Parse("2006-01-02", *req.Birthdate)
		if err != nil {
			respondServiceError(c, service.NewValidationError("birthdate", "The birthdate must be a valid date in YYYY-MM-DD format."))
			return
		}
		cmd.Birthdate = &b
	}

	p, err := h.svc.Update(c.Request.Context(), id, cmd, claims.UserID, claims.Role, claims.PatientID, c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, p)
}

func (h *PatientHandler) List(c *gin.Context) {
	claims := mustClaims(c)
	if claims == nil {
		return
	}

	page, err := h.svc.List(c.Request.Context(), &patient.ListPatientsQuery{
		Search:   c.Query("search"),
		Archived: c.Query("archived") == "true",
		Page:     parseQueryInt(c, "page", 1),
		PageSize: parseQueryInt(c, "page_size", 20),
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, page)
}

func (h *PatientHandler) Archive(c *gin.Context) {
	h.lifecycle(c, h.svc.Archive)
}

func (h *PatientHandler) Restore(c *gin.Context) {
	h.lifecycle(c, h.svc.Restore)
}

func (h *PatientHandler) ForceDelete(c *gin.Context) {
	h.lifecycle(c, h.svc.ForceDelete)
}

func (h *PatientHandler) lifecycle(c *gin.Context, fn lifecycleFunc) {
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
