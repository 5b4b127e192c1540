package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/lawrencemontaril/noynay-app/internal/domain"
	"github.com/lawrencemontaril/noynay-app/internal/domain/patient"
	"github.com/lawrencemontaril/noynay-app/pkg/auth"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountLocked      = errors.New("account is temporarily locked due to multiple failed login attempts")
	ErrAccountInactive    = errors.New("account is inactive")
)

type UserRepository interface {
	Create(ctx context.Context, u *domain.User) error
	CreateWithPatient(ctx context.Context, u *domain.User, p *patient.Patient) error
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	UpdateLoginAttempt(ctx context.Context, id uuid.UUID, success bool) error
	UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error
}

// RegisterPatientCommand is the patient self-registration payload: the login
// account and the clinical record are created together.
type RegisterPatientCommand struct {
	Email    string
	Password string

	FirstName     string
	MiddleName    string
	LastName      string
	Gender        patient.Gender
	CivilStatus   patient.CivilStatus
	Birthdate     time.Time
	ContactNumber string
	Address       string
}

type AuthService struct {
	userRepo   UserRepository
	jwtManager *auth.JWTManager
	notifier   Notifier
	log        *zap.Logger
}

func NewAuthService(userRepo UserRepository, jwtManager *auth.JWTManager, notifier Notifier, log *zap.Logger) *AuthService {
	return &AuthService{userRepo: userRepo, jwtManager: jwtManager, notifier: notifier, log: log}
}

func (s *AuthService) Login(ctx context.Context, email, password string, ip string) (*domain.TokenPair, error) {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		// Use bcrypt dummy hash to prevent timing-based user enumeration.
		// An attacker measuring response time should not be able to determine
		// whether the email exists in the system.
		_, _ = bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		return nil, ErrInvalidCredentials
	}

	if !user.IsActive {
		return nil, ErrAccountInactive
	}

	if user.IsLocked() {
		return nil, ErrAccountLocked
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		// Record failed attempt; lock if threshold exceeded
		_ = s.userRepo.UpdateLoginAttempt(ctx, user.ID, false)
		s.log.Warn("failed login attempt",
			zap.String("email", email),
			zap.String("ip", ip),
		)
		return nil, ErrInvalidCredentials
	}

	_ = s.userRepo.UpdateLoginAttempt(ctx, user.ID, true)

	claims := &domain.Claims{
		UserID:    user.ID,
		Email:     user.Email,
		Role:      user.Role,
		PatientID: user.PatientID,
	}

	pair, err := s.jwtManager.GenerateTokenPair(claims)
	if err != nil {
		s.log.Error("failed to generate token pair", zap.Error(err))
		return nil, fmt.Errorf("generating tokens: %w", err)
	}

	s.log.Info("user logged in",
		zap.String("user_id", user.ID.String()),
		zap.String("ip", ip),
	)

	return pair, nil
}

// RegisterPatient creates a patient login account together with its clinical
// record in one transaction, then signs the new user in.
func (s *AuthService) RegisterPatient(ctx context.Context, cmd *RegisterPatientCommand, ip string) (*domain.TokenPair, error) {
	if err := validateRegistration(cmd); err != nil {
		return nil, err
	}

	email := strings.ToLower(strings.TrimSpace(cmd.Email))
	if _, err := s.userRepo.GetByEmail(ctx, email); err == nil {
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
		Role:              domain.RolePatient,
		IsActive:          true,
		PasswordChangedAt: time.Now(),
	}
	p := &patient.Patient{
		FirstName:     u.FirstName,
		MiddleName:    u.MiddleName,
		LastName:      u.LastName,
		Gender:        cmd.Gender,
		CivilStatus:   cmd.CivilStatus,
		Birthdate:     cmd.Birthdate,
		ContactNumber: strings.TrimSpace(cmd.ContactNumber),
		Address:       strings.TrimSpace(cmd.Address),
	}

	if err := s.userRepo.CreateWithPatient(ctx, u, p); err != nil {
		s.log.Error("failed to register patient", zap.Error(err))
		return nil, fmt.Errorf("registering patient: %w", err)
	}

	s.notifier.NotifyRole(ctx, domain.RoleSystemAdmin,
		fmt.Sprintf("A new patient named %s has been registered.", p.FullName()),
		"/admin/patients?id="+p.ID.String(),
	)

	s.log.Info("patient registered",
		zap.String("user_id", u.ID.String()),
		zap.String("ip", ip),
	)

	return s.jwtManager.GenerateTokenPair(&domain.Claims{
		UserID:    u.ID,
		Email:     u.Email,
		Role:      u.Role,
		PatientID: u.PatientID,
	})
}

// RefreshToken issues a new access token given a valid refresh token.
func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	claims, err := s.jwtManager.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	// Re-validate user is still active
	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil || !user.IsActive {
		return nil, ErrInvalidCredentials
	}

	return s.jwtManager.GenerateTokenPair(&domain.Claims{
		UserID:    user.ID,
		Email:     user.Email,
		Role:      user.Role,
		PatientID: user.PatientID,
	})
}

// ChangePassword updates a user's password after verifying the current one.
func (s *AuthService) ChangePassword(ctx context.Context, userID uuid.UUID, currentPassword, newPassword string) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(currentPassword)); err != nil {
		return ErrInvalidCredentials
	}

	if err := validatePasswordStrength(newPassword); err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	return s.userRepo.UpdatePassword(ctx, userID, string(hash))
}

func validateRegistration(cmd *RegisterPatientCommand) error {
	fields := map[string]string{}
	if strings.TrimSpace(cmd.Email) == "" || !strings.Contains(cmd.Email, "@") {
		fields["email"] = "A valid email address is required."
	}
	if err := validatePasswordStrength(cmd.Password); err != nil {
		fields["password"] = err.Error()
	}
	if strings.TrimSpace(cmd.FirstName) == "" {
		fields["first_name"] = "The first name field is required."
	}
	if strings.TrimSpace(cmd.LastName) == "" {
		fields["last_name"] = "The last name field is required."
	}
	if !cmd.Gender.IsValid() {
		fields["gender"] = "The selected gender is invalid."
	}
	if !cmd.CivilStatus.IsValid() {
		fields["civil_status"] = "The selected civil status is invalid."
	}
	if cmd.Birthdate.IsZero() || cmd.Birthdate.After(time.Now()) {
		fields["birthdate"] = "The birthdate must be a date in the past."
	}
	if strings.TrimSpace(cmd.ContactNumber) == "" {
		fields["contact_number"] = "The contact number field is required."
	}
	if strings.TrimSpace(cmd.Address) == "" {
		fields["address"] = "The address field is required."
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

func validatePasswordStrength(password string) error {
	if len(password) < 12 {
		return errors.New("password must be at least 12 characters")
	}
	return nil
}
