package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lawrencemontaril/noynay-app/internal/domain"
	"github.com/lawrencemontaril/noynay-app/internal/domain/appointment"
	"github.com/lawrencemontaril/noynay-app/internal/domain/consultation"
	"github.com/lawrencemontaril/noynay-app/internal/domain/invoice"
	"github.com/lawrencemontaril/noynay-app/internal/domain/labresult"
	"github.com/lawrencemontaril/noynay-app/internal/domain/patient"
)

type ConsultationService struct {
	repo            consultation.Repository
	appointmentRepo appointment.Repository
	patientRepo     patient.Repository
	labRepo         labresult.Repository
	invoiceRepo     invoice.Repository
	notifier        Notifier
	auditSvc        *AuditService
	log             *zap.Logger
}

func NewConsultationService(
	repo consultation.Repository,
	appointmentRepo appointment.Repository,
	patientRepo patient.Repository,
	labRepo labresult.Repository,
	invoiceRepo invoice.Repository,
	notifier Notifier,
	auditSvc *AuditService,
	log *zap.Logger,
) *ConsultationService {
	return &ConsultationService{
		repo:            repo,
		appointmentRepo: appointmentRepo,
		patientRepo:     patientRepo,
		labRepo:         labRepo,
		invoiceRepo:     invoiceRepo,
		notifier:        notifier,
		auditSvc:        auditSvc,
		log:             log,
	}
}

// Create records a consultation for an appointment. If this is the first
// service rendered for the visit, cashiers are alerted that an invoice is
// still pending. The owning patient is told their record is available.
func (s *ConsultationService) Create(ctx context.Context, cmd *consultation.CreateConsultationCommand, callerID uuid.UUID, callerRole domain.Role, ip string) (*consultation.Consultation, error) {
	if cmd.ChiefComplaints == "" {
		return nil, NewValidationError("chief_complaints", "The chief complaints field is required.")
	}
	if cmd.Assessment == "" {
		return nil, NewValidationError("assessment", "The assessment field is required.")
	}
	if cmd.Plan == "" {
		return nil, NewValidationError("plan", "The plan field is required.")
	}

	a, err := s.appointmentRepo.GetByID(ctx, cmd.AppointmentID)
	if err != nil {
		return nil, err
	}

	serviced, err := hasBeenServiced(ctx, s.repo, s.labRepo, s.invoiceRepo, a.ID)
	if err != nil {
		return nil, fmt.Errorf("checking prior services: %w", err)
	}

	c := &consultation.Consultation{
		AppointmentID:   a.ID,
		Type:            cmd.Type,
		ChiefComplaints: cmd.ChiefComplaints,
		Assessment:      cmd.Assessment,
		Plan:            cmd.Plan,
		Vitals:          cmd.Vitals,
	}
	if c.Type == "" {
		c.Type = a.Type
	}

	if err := s.repo.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("creating consultation: %w", err)
	}

	if !serviced {
		if p, err := s.patientRepo.GetByID(ctx, a.PatientID); err == nil {
			s.notifier.NotifyRole(ctx, domain.RoleCashier,
				fmt.Sprintf("Pending invoice for %s.", p.FullName()),
				"/admin/appointments?id="+a.ID.String(),
			)
		}
	}

	s.notifier.NotifyPatient(ctx, a.PatientID,
		fmt.Sprintf("A consultation record for your %s appointment is now available.", a.Type.Label()),
		"/consultations?id="+c.ID.String(),
	)

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID: callerID, UserRole: string(callerRole),
		Action: "create", ResourceType: "consultation", ResourceID: c.ID.String(), IPAddress: ip,
	})

	return c, nil
}

func (s *ConsultationService) Update(ctx context.Context, id uuid.UUID, cmd *consultation.UpdateConsultationCommand, callerID uuid.UUID, callerRole domain.Role, ip string) (*consultation.Consultation, error) {
	c, err := s.repo.Update(ctx, id, cmd)
	if err != nil {
		return nil, err
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID: callerID, UserRole: string(callerRole),
		Action: "update", ResourceType: "consultation", ResourceID: id.String(), IPAddress: ip,
	})
	return c, nil
}

func (s *ConsultationService) Get(ctx context.Context, id uuid.UUID, callerRole domain.Role, callerPatientID *uuid.UUID) (*consultation.Consultation, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if callerRole == domain.RolePatient {
		a, err := s.appointmentRepo.GetByID(ctx, c.AppointmentID)
		if err != nil {
			return nil, err
		}
		if callerPatientID == nil || *callerPatientID != a.PatientID {
			return nil, ErrForbidden
		}
	}
	return c, nil
}

func (s *ConsultationService) List(ctx context.Context, q *consultation.ListConsultationsQuery, callerRole domain.Role, callerPatientID *uuid.UUID) (*consultation.PagedConsultations, error) {
	if callerRole == domain.RolePatient {
		if callerPatientID == nil {
			return nil, ErrForbidden
		}
		q.PatientID = callerPatientID
	}
	return s.repo.List(ctx, q)
}

func (s *ConsultationService) Delete(ctx context.Context, id uuid.UUID, callerID uuid.UUID, callerRole domain.Role, ip string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID: callerID, UserRole: string(callerRole),
		Action: "delete", ResourceType: "consultation", ResourceID: id.String(), IPAddress: ip,
	})
	return nil
}
