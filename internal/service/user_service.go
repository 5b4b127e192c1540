package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/lawrencemontaril/noynay-app/internal/domain"
)

// userAdminRepository is the wider surface the system-admin user management
// screens need on top of UserRepository.
type userAdminRepository interface {
	UserRepository
	Save(ctx context.Context, u *domain.User) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, search string, role *domain.Role, page, pageSize int) ([]*domain.User, int64, error)
}

type CreateUserCommand struct {
	Email      string
	Password   string
	FirstName  string
	MiddleName string
	LastName   string
	Role       domain.Role
}

type UpdateUserCommand struct {
	FirstName  *string
	MiddleName *string
	LastName   *string
	Role       *domain.Role
	IsActive   *bool
}

type UserService struct {
	repo     userAdminRepository
	auditSvc *AuditService
	log      *zap.Logger
}

func NewUserService(repo userAdminRepository, auditSvc *AuditService, log *zap.Logger) *UserService {
	return &UserService{repo: repo, auditSvc: auditSvc, log: log}
}

// Create provisions a staff account. Patient accounts go through
// registration instead so the clinical record is created alongside.
func (s *UserService) Create(ctx context.Context, cmd *CreateUserCommand, callerID uuid.UUID, callerRole domain.Role, ip string) (*domain.User, error) {
	if !cmd.Role.IsValid() || cmd.Role == domain.RolePatient {
		return nil, NewValidationError("role", "The selected role is invalid.")
	}
	email := strings.ToLower(strings.TrimSpace(cmd.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, NewValidationError("email", "A valid email address is required.")
	}
	if err := validatePasswordStrength(cmd.Password); err != nil {
		return nil, NewValidationError("password", err.Error())
	}
	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		return nil, NewValidationError("email", "The email has already been taken.")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cmd.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	u := &domain.User{
		Email:             email,
		PasswordHash:      string(hash),
		FirstName:         strings.TrimSpace(cmd.FirstName),
		MiddleName:        strings.TrimSpace(cmd.MiddleName),
		LastName:          strings.TrimSpace(cmd.LastName),
		Role:              cmd.Role,
		IsActive:          true,
		PasswordChangedAt: time.Now(),
	}
	if err := s.repo.Create(ctx, u); err != nil {
		s.log.Error("failed to create user", zap.Error(err))
		return nil, fmt.Errorf("creating user: %w", err)
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID: callerID, UserRole: string(callerRole),
		Action: "create", ResourceType: "user", ResourceID: u.ID.String(), IPAddress: ip,
	})
	return u, nil
}

func (s *UserService) Get(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *UserService) Update(ctx context.Context, id uuid.UUID, cmd *UpdateUserCommand, callerID uuid.UUID, callerRole domain.Role, ip string) (*domain.User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if cmd.FirstName != nil {
		u.FirstName = strings.TrimSpace(*cmd.FirstName)
	}
	if cmd.MiddleName != nil {
		u.MiddleName = strings.TrimSpace(*cmd.MiddleName)
	}
	if cmd.LastName != nil {
		u.LastName = strings.TrimSpace(*cmd.LastName)
	}
	if cmd.Role != nil {
		if !cmd.Role.IsValid() || *cmd.Role == domain.RolePatient {
			return nil, NewValidationError("role", "The selected role is invalid.")
		}
		u.Role = *cmd.Role
	}
	if cmd.IsActive != nil {
		u.IsActive = *cmd.IsActive
	}

	if err := s.repo.Save(ctx, u); err != nil {
		return nil, fmt.Errorf("saving user: %w", err)
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID: callerID, UserRole: string(callerRole),
		Action: "update", ResourceType: "user", ResourceID: u.ID.String(), IPAddress: ip,
	})
	return u, nil
}

func (s *UserService) List(ctx context.Context, search string, role *domain.Role, page, pageSize int) ([]*domain.User, int64, error) {
	return s.repo.List(ctx, search, role, page, pageSize)
}

func (s *UserService) Delete(ctx context.Context, id uuid.UUID, callerID uuid.UUID, callerRole domain.Role, ip string) error {
	if id == callerID {
		return NewValidationError("id", "You may not delete your own account.")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID: callerID, UserRole: string(callerRole),
		Action: "delete", ResourceType: "user", ResourceID: id.String(), IPAddress: ip,
	})
	return nil
}
