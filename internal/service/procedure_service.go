package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lawrencemontaril/noynay-app/internal/domain"
	"github.com/lawrencemontaril/noynay-app/internal/domain/appointment"
	"github.com/lawrencemontaril/noynay-app/internal/domain/procedure"
)

type ProcedureService struct {
	repo            procedure.Repository
	appointmentRepo appointment.Repository
	auditSvc        *AuditService
	log             *zap.Logger
}

func NewProcedureService(
	repo procedure.Repository,
	appointmentRepo appointment.Repository,
	auditSvc *AuditService,
	log *zap.Logger,
) *ProcedureService {
	return &ProcedureService{
		repo:            repo,
		appointmentRepo: appointmentRepo,
		auditSvc:        auditSvc,
		log:             log,
	}
}

// Create records a procedure performed during the appointment's visit.
func (s *ProcedureService) Create(ctx context.Context, cmd *procedure.CreateProcedureCommand, callerID uuid.UUID, callerRole domain.Role, ip string) (*procedure.Procedure, error) {
	if cmd.Description == "" {
		return nil, NewValidationError("description", "The description field is required.")
	}
	if len(cmd.Description) > 255 {
		return nil, NewValidationError("description", "The description may not be greater than 255 characters.")
	}
	if cmd.Quantity < 1 {
		return nil, NewValidationError("quantity", "The quantity must be at least 1.")
	}

	a, err := s.appointmentRepo.GetByID(ctx, cmd.AppointmentID)
	if err != nil {
		return nil, err
	}

	p := &procedure.Procedure{
		AppointmentID: a.ID,
		Description:   cmd.Description,
		Quantity:      cmd.Quantity,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("creating procedure: %w", err)
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID: callerID, UserRole: string(callerRole),
		Action: "create", ResourceType: "procedure", ResourceID: p.ID.String(), IPAddress: ip,
	})

	return p, nil
}

// ListByAppointment returns the appointment's procedures. Patients only see
// their own visits.
func (s *ProcedureService) ListByAppointment(ctx context.Context, appointmentID uuid.UUID, callerRole domain.Role, callerPatientID *uuid.UUID) ([]*procedure.Procedure, error) {
	a, err := s.appointmentRepo.GetByID(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if callerRole == domain.RolePatient {
		if callerPatientID == nil || *callerPatientID != a.PatientID {
			return nil, ErrForbidden
		}
	}
	return s.repo.ListByAppointment(ctx, a.ID)
}
