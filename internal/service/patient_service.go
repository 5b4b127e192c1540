package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lawrencemontaril/noynay-app/internal/domain"
	"github.com/lawrencemontaril/noynay-app/internal/domain/patient"
	"github.com/lawrencemontaril/noynay-app/pkg/metrics"
)

type PatientService struct {
	repo     patient.Repository
	notifier Notifier
	auditSvc *AuditService
	metrics  *metrics.Collector
	log      *zap.Logger
}

func NewPatientService(
	repo patient.Repository,
	notifier Notifier,
	auditSvc *AuditService,
	m *metrics.Collector,
	log *zap.Logger,
) *PatientService {
	return &PatientService{
		repo:     repo,
		notifier: notifier,
		auditSvc: auditSvc,
		metrics:  m,
		log:      log,
	}
}

func (s *PatientService) Create(ctx context.Context, cmd *patient.CreatePatientCommand, callerID uuid.UUID, callerRole domain.Role, ip string) (*patient.Patient, error) {
	if err := validatePatientCommand(cmd); err != nil {
		return nil, err
	}

	p := &patient.Patient{
		UserID:        cmd.UserID,
		FirstName:     strings.TrimSpace(cmd.FirstName),
		MiddleName:    strings.TrimSpace(cmd.MiddleName),
		LastName:      strings.TrimSpace(cmd.LastName),
		Gender:        cmd.Gender,
		CivilStatus:   cmd.CivilStatus,
		Birthdate:     cmd.Birthdate,
		ContactNumber: strings.TrimSpace(cmd.ContactNumber),
		Address:       strings.TrimSpace(cmd.Address),
	}

	if err := s.repo.Create(ctx, p); err != nil {
		s.log.Error("failed to create patient", zap.Error(err))
		return nil, fmt.Errorf("creating patient: %w", err)
	}

	s.notifier.NotifyRole(ctx, domain.RoleSystemAdmin,
		fmt.Sprintf("A new patient named %s has been registered.", p.FullName()),
		"/admin/patients?id="+p.ID.String(),
	)

	if s.metrics != nil {
		s.metrics.PatientsCreatedTotal.Inc()
	}
	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID: callerID, UserRole: string(callerRole),
		Action: "create", ResourceType: "patient", ResourceID: p.ID.String(), IPAddress: ip,
	})

	return p, nil
}

func (s *PatientService) Get(ctx context.Context, id uuid.UUID, callerRole domain.Role, callerPatientID *uuid.UUID) (*patient.Patient, error) {
	// Patients can only read their own record.
	if callerRole == domain.RolePatient {
		if callerPatientID == nil || *callerPatientID != id {
			return nil, ErrForbidden
		}
	}
	return s.repo.GetByID(ctx, id)
}

func (s *PatientService) Update(ctx context.Context, id uuid.UUID, cmd *patient.UpdatePatientCommand, callerID uuid.UUID, callerRole domain.Role, callerPatientID *uuid.UUID, ip string) (*patient.Patient, error) {
	if callerRole == domain.RolePatient {
		if callerPatientID == nil || *callerPatientID != id {
			return nil, ErrForbidden
		}
	}
	if cmd.Gender != nil && !cmd.Gender.IsValid() {
		return nil, NewValidationError("gender", "The selected gender is invalid.")
	}
	if cmd.CivilStatus != nil && !cmd.CivilStatus.IsValid() {
		return nil, NewValidationError("civil_status", "The selected civil status is invalid.")
	}

	p, err := s.repo.Update(ctx, id, cmd)
	if err != nil {
		return nil, err
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID: callerID, UserRole: string(callerRole),
		Action: "update", ResourceType: "patient", ResourceID: id.String(), IPAddress: ip,
	})
	return p, nil
}

func (s *PatientService) List(ctx context.Context, q *patient.ListPatientsQuery) (*patient.PagedPatients, error) {
	return s.repo.List(ctx, q)
}

func (s *PatientService) Archive(ctx context.Context, id uuid.UUID, callerID uuid.UUID, callerRole domain.Role, ip string) error {
	if err := s.repo.SoftDelete(ctx, id); err != nil {
		return err
	}
	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID: callerID, UserRole: string(callerRole),
		Action: "delete", ResourceType: "patient", ResourceID: id.String(), IPAddress: ip,
	})
	return nil
}

func (s *PatientService) Restore(ctx context.Context, id uuid.UUID, callerID uuid.UUID, callerRole domain.Role, ip string) error {
	if err := s.repo.Restore(ctx, id); err != nil {
		return err
	}
	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID: callerID, UserRole: string(callerRole),
		Action: "restore", ResourceType: "patient", ResourceID: id.String(), IPAddress: ip,
	})
	return nil
}

func (s *PatientService) ForceDelete(ctx context.Context, id uuid.UUID, callerID uuid.UUID, callerRole domain.Role, ip string) error {
	if err := s.repo.HardDelete(ctx, id); err != nil {
		return err
	}
	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID: callerID, UserRole: string(callerRole),
		Action: "delete", ResourceType: "patient", ResourceID: id.String(), IPAddress: ip,
		Changes: `{"permanent":true}`,
	})
	return nil
}

func validatePatientCommand(cmd *patient.CreatePatientCommand) error {
	fields := map[string]string{}
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
