package v1

import (
	"github.com/gin-gonic/gin"

	"github.com/lawrencemontaril/noynay-app/internal/domain"
	"github.com/lawrencemontaril/noynay-app/internal/service"
)

type UserHandler struct {
	svc *service.UserService
}

func NewUserHandler(svc *service.UserService) *UserHandler {
	return &UserHandler{svc: svc}
}

type createUserRequest struct {
	Email      string `json:"email" binding:"required"`
	Password   string `json:"password" binding:"required"`
	FirstName  string `json:"first_name" binding:"required"`
	MiddleName string `json:"middle_name"`
	LastName   string `json:"last_name" binding:"required"`
	Role       string `json:"role" binding:"required"`
}

func (h *UserHandler) Create(c *gin.Context) {
	claims := mustClaims(c)
	if claims == nil {
		return
	}

	var req createUserRequest
	if !bindJSON(c, &req) {
		return
	}

	u, err := h.svc.Create(c.Request.Context(), &service.CreateUserCommand{
		Email:      req.Email,
		Password:   req.Password,
		FirstName:  req.FirstName,
		MiddleName: req.MiddleName,
		LastName:   req.LastName,
		Role:       domain.Role(req.Role),
	}, claims.UserID, claims.Role, c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondCreated(c, u)
}

func (h *UserHandler) Get(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	u, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, u)
}

type updateUserRequest struct {
	FirstName  *string `json:"first_name"`
	MiddleName *string `json:"middle_name"`
	LastName   *string `json:"last_name"`
	Role       *string `json:"role"`
	IsActive   *bool   `json:"is_active"`
}

func (h *UserHandler) Update(c *gin.Context) {
	claims := mustClaims(c)
	if claims == nil {
		return
	}
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	var req updateUserRequest
	if !bindJSON(c, &req) {
		return
	}

	cmd := &service.UpdateUserCommand{
		FirstName:  req.FirstName,
		MiddleName: req.MiddleName,
		LastName:   req.LastName,
		IsActive:   req.IsActive,
	}
	if req.Role != nil {
		r := domain.Role(*req.Role)
		cmd.Role = &r
	}

	u, err := h.svc.Update(c.Request.Context(), id, cmd, claims.UserID, claims.Role, c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, u)
}

type pagedUsersResponse struct {
	Users      []*domain.User `json:"users"`
	TotalCount int64          `json:"total_count"`
	Page       int            `json:"page"`
	PageSize   int            `json:"page_size"`
}

func (h *UserHandler) List(c *gin.Context) {
	var role *domain.Role
	if raw := c.Query("role"); raw != "" {
		r := domain.Role(raw)
		role = &r
	}

	page := parseQueryInt(c, "page", 1)
	pageSize := parseQueryInt(c, "page_size", 20)

	users, total, err := h.svc.List(c.Request.Context(), c.Query("search"), role, page, pageSize)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, pagedUsersResponse{Users: users, TotalCount: total, Page: page, PageSize: pageSize})
}

func (h *UserHandler) Delete(c *gin.Context) {
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
