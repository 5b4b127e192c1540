package v1

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lawrencemontaril/noynay-app/internal/domain/patient"
	"github.com/lawrencemontaril/noynay-app/internal/service"
)

type AuthHandler struct {
	svc *service.AuthService
}

func NewAuthHandler(svc *service.AuthService) *AuthHandler {
	return &AuthHandler{svc: svc}
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if !bindJSON(c, &req) {
		return
	}

	pair, err := h.svc.Login(c.Request.Context(), req.Email, req.Password, c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, pair)
}

type registerRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`

	FirstName     string `json:"first_name" binding:"required"`
	MiddleName    string `json:"middle_name"`
	LastName      string `json:"last_name" binding:"required"`
	Gender        string `json:"gender" binding:"required"`
	CivilStatus   string `json:"civil_status" binding:"required"`
	Birthdate     string `json:"birthdate" binding:"required"`
	ContactNumber string `json:"contact_number" binding:"required"`
	Address       string `json:"address" binding:"required"`
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if !bindJSON(c, &req) {
		return
	}

	birthdate, err := time.Parse("2006-01-02", req.Birthdate)
	if err != nil {
		respondServiceError(c, service.NewValidationError("birthdate", "The birthdate must be a valid date in YYYY-MM-DD format."))
		return
	}

	pair, err := h.svc.RegisterPatient(c.Request.Context(), &service.RegisterPatientCommand{
		Email:         req.Email,
		Password:      req.Password,
		FirstName:     req.FirstName,
		MiddleName:    req.MiddleName,
		LastName:      req.LastName,
		Gender:        patient.Gender(req.Gender),
		CivilStatus:   patient.CivilStatus(req.CivilStatus),
		Birthdate:     birthdate,
		ContactNumber: req.ContactNumber,
		Address:       req.Address,
	}, c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondCreated(c, pair)
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

func (h *AuthHandler) Refresh(c *gin.Context) {
	var req refreshRequest
	if !bindJSON(c, &req) {
		return
	}

	pair, err := h.svc.RefreshToken(c.Request.Context(), req.RefreshToken)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, pair)
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required"`
}

func (h *AuthHandler) ChangePassword(c *gin.Context) {
	claims := mustClaims(c)
	if claims == nil {
		return
	}

	var req changePasswordRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.svc.ChangePassword(c.Request.Context(), claims.UserID, req.CurrentPassword, req.NewPassword); err != nil {
		respondServiceError(c, err)
		return
	}

	respondNoContent(c)
}

// Me returns the authenticated identity as resolved by the middleware.
func (h *AuthHandler) Me(c *gin.Context) {
	claims := mustClaims(c)
	if claims == nil {
		return
	}
	respondOK(c, claims)
}
