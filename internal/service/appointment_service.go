package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lawrencemontaril/noynay-app/internal/domain"
	"github.com/lawrencemontaril/noynay-app/internal/domain/appointment"
	"github.com/lawrencemontaril/noynay-app/internal/domain/labresult"
	"github.com/lawrencemontaril/noynay-app/internal/domain/patient"
	"github.com/lawrencemontaril/noynay-app/pkg/metrics"
)

// slotTimeFormat renders slot timestamps inside notification messages.
const slotTimeFormat = "January 2, 2006 3:04 PM"

type AppointmentService struct {
	repo        appointment.Repository
	patientRepo patient.Repository
	labRepo     labresult.Repository
	settings    settingReader
	notifier    Notifier
	auditSvc    *AuditService
	metrics     *metrics.Collector
	log         *zap.Logger
}

func NewAppointmentService(
	repo appointment.Repository,
	patientRepo patient.Repository,
	labRepo labresult.Repository,
	settings settingReader,
	notifier Notifier,
	auditSvc *AuditService,
	m *metrics.Collector,
	log *zap.Logger,
) *AppointmentService {
	return &AppointmentService{
		repo:        repo,
		patientRepo: patientRepo,
		labRepo:     labRepo,
		settings:    settings,
		notifier:    notifier,
		auditSvc:    auditSvc,
		metrics:     m,
		log:         log,
	}
}

// SlotFull reports whether the slot at exactly scheduledAt has reached the
// configured capacity. The slot is a timestamp bucket, not an interval:
// two bookings one minute apart never contend. Concurrent requests can both
// pass this check; there is no database constraint backing it.
func (s *AppointmentService) SlotFull(ctx context.Context, scheduledAt time.Time, excludeID *uuid.UUID) (bool, error) {
	cfg, err := s.settings.Get(ctx)
	if err != nil {
		return false, fmt.Errorf("loading settings: %w", err)
	}

	count, err := s.repo.CountAtSlot(ctx, scheduledAt, excludeID)
	if err != nil {
		return false, fmt.Errorf("counting slot occupancy: %w", err)
	}
	return count >= int64(cfg.MaxAppointmentPerSlot), nil
}

func (s *AppointmentService) Create(
	ctx context.Context,
	cmd *appointment.CreateAppointmentCommand,
	callerID uuid.UUID,
	callerRole domain.Role,
	callerPatientID *uuid.UUID,
	ip string,
) (*appointment.Appointment, error) {
	// Patients always book for themselves.
	if callerRole == domain.RolePatient {
		if callerPatientID == nil {
			return nil, ErrForbidden
		}
		cmd.PatientID = *callerPatientID
	}

	if !cmd.Type.IsValid() {
		return nil, NewValidationError("type", "The selected service type is invalid.")
	}

	p, err := s.patientRepo.GetByID(ctx, cmd.PatientID)
	if err != nil {
		return nil, fmt.Errorf("verifying patient: %w", err)
	}

	unsettled, err := s.repo.HasNonTerminal(ctx, cmd.PatientID, nil)
	if err != nil {
		return nil, fmt.Errorf("checking unsettled appointments: %w", err)
	}
	if unsettled {
		return nil, NewValidationError("patient_id", "This patient already has an unsettled appointment.")
	}

	full, err := s.SlotFull(ctx, cmd.ScheduledAt, nil)
	if err != nil {
		return nil, err
	}
	if full {
		return nil, NewValidationError("scheduled_at", "The selected date and time has reached the maximum number of appointments.")
	}

	a := &appointment.Appointment{
		PatientID:   cmd.PatientID,
		ScheduledAt: cmd.ScheduledAt,
		Type:        cmd.Type,
		Status:      appointment.StatusPending,
		Complaints:  cmd.Complaints,
	}

	if err := s.repo.Create(ctx, a); err != nil {
		s.log.Error("failed to create appointment", zap.Error(err))
		return nil, fmt.Errorf("creating appointment: %w", err)
	}

	s.notifier.NotifyRole(ctx, domain.RoleAdmin,
		fmt.Sprintf("%s booked a new appointment on %s.", p.FullName(), a.ScheduledAt.Format(slotTimeFormat)),
		"/admin/appointments?id="+a.ID.String(),
	)

	if s.metrics != nil {
		s.metrics.AppointmentsTotal.WithLabelValues(string(a.Status)).Inc()
	}
	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID: callerID, UserRole: string(callerRole),
		Action: "create", ResourceType: "appointment", ResourceID: a.ID.String(), IPAddress: ip,
	})

	return a, nil
}

// Approve moves a pending appointment to approved. Laboratory-type
// appointments spawn one pending laboratory result and alert laboratory
// staff; other types become consultation requests for the doctors. The
// owning patient is told either way.
func (s *AppointmentService) Approve(ctx context.Context, id uuid.UUID, callerID uuid.UUID, callerRole domain.Role, ip string) (*appointment.Appointment, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := a.Approve(); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, a); err != nil {
		return nil, fmt.Errorf("saving appointment: %w", err)
	}

	p, err := s.patientRepo.GetByID(ctx, a.PatientID)
	if err != nil {
		return nil, fmt.Errorf("loading patient: %w", err)
	}

	adminLink := "/admin/appointments?id=" + a.ID.String()
	if a.Type.IsLaboratory() {
		lr := &labresult.LaboratoryResult{
			AppointmentID: a.ID,
			Type:          labresult.TestType(a.Type),
			Status:        labresult.StatusPending,
		}
		if err := s.labRepo.Create(ctx, lr); err != nil {
			return nil, fmt.Errorf("creating laboratory result: %w", err)
		}
		s.notifier.NotifyRole(ctx, domain.RoleLaboratoryStaff,
			fmt.Sprintf("New laboratory request for %s (%s).", p.FullName(), a.Type.Label()),
			adminLink,
		)
	} else {
		s.notifier.NotifyRole(ctx, domain.RoleDoctor,
			fmt.Sprintf("New consultation request for %s.", p.FullName()),
			adminLink,
		)
	}

	s.notifier.NotifyPatient(ctx, a.PatientID,
		fmt.Sprintf("Your %s appointment on %s has been approved.", a.Type.Label(), a.ScheduledAt.Format(slotTimeFormat)),
		"/appointments?id="+a.ID.String(),
	)

	if s.metrics != nil {
		s.metrics.AppointmentsTotal.WithLabelValues(string(a.Status)).Inc()
	}
	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID: callerID, UserRole: string(callerRole),
		Action: "update", ResourceType: "appointment", ResourceID: a.ID.String(), IPAddress: ip,
		Changes: `{"status":"approved"}`,
	})

	return a, nil
}

func (s *AppointmentService) Reject(ctx context.Context, id uuid.UUID, callerID uuid.UUID, callerRole domain.Role, ip string) (*appointment.Appointment, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := a.Reject(); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, a); err != nil {
		return nil, fmt.Errorf("saving appointment: %w", err)
	}

	s.notifier.NotifyPatient(ctx, a.PatientID,
		fmt.Sprintf("Unfortunately, your %s appointment has been rejected.", a.Type.Label()),
		"/appointments?id="+a.ID.String(),
	)

	if s.metrics != nil {
		s.metrics.AppointmentsTotal.WithLabelValues(string(a.Status)).Inc()
	}
	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID: callerID, UserRole: string(callerRole),
		Action: "update", ResourceType: "appointment", ResourceID: a.ID.String(), IPAddress: ip,
		Changes: `{"status":"rejected"}`,
	})

	return a, nil
}

// Reschedule moves the appointment to a new slot while it is still at least
// a day out. The slot-capacity check excludes the appointment itself so a
// same-slot edit never self-collides.
func (s *AppointmentService) Reschedule(
	ctx context.Context,
	id uuid.UUID,
	cmd *appointment.RescheduleAppointmentCommand,
	callerID uuid.UUID,
	callerRole domain.Role,
	callerPatientID *uuid.UUID,
	ip string,
) (*appointment.Appointment, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if callerRole == domain.RolePatient {
		if callerPatientID == nil || *callerPatientID != a.PatientID {
			return nil, ErrForbidden
		}
	}
	if !a.IsReschedulable(time.Now()) {
		return nil, appointment.ErrNotReschedulable
	}

	full, err := s.SlotFull(ctx, cmd.ScheduledAt, &a.ID)
	if err != nil {
		return nil, err
	}
	if full {
		return nil, NewValidationError("scheduled_at", "The selected date and time has reached the maximum number of appointments.")
	}

	a.ScheduledAt = cmd.ScheduledAt
	if cmd.Complaints != nil {
		a.Complaints = *cmd.Complaints
	}
	if err := s.repo.Save(ctx, a); err != nil {
		return nil, fmt.Errorf("saving appointment: %w", err)
	}

	p, err := s.patientRepo.GetByID(ctx, a.PatientID)
	if err == nil {
		s.notifier.NotifyRole(ctx, domain.RoleAdmin,
			fmt.Sprintf("%s rescheduled their appointment to %s.", p.FullName(), a.ScheduledAt.Format(slotTimeFormat)),
			"/admin/appointments?id="+a.ID.String(),
		)
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID: callerID, UserRole: string(callerRole),
		Action: "update", ResourceType: "appointment", ResourceID: a.ID.String(), IPAddress: ip,
		Changes: fmt.Sprintf(`{"scheduled_at":%q}`, a.ScheduledAt.Format(time.RFC3339)),
	})

	return a, nil
}

func (s *AppointmentService) Cancel(ctx context.Context, id uuid.UUID, callerID uuid.UUID, callerRole domain.Role, callerPatientID *uuid.UUID, ip string) (*appointment.Appointment, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if callerRole == domain.RolePatient {
		if callerPatientID == nil || *callerPatientID != a.PatientID {
			return nil, ErrForbidden
		}
	}
	if err := a.Cancel(time.Now()); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, a); err != nil {
		return nil, fmt.Errorf("saving appointment: %w", err)
	}

	if p, err := s.patientRepo.GetByID(ctx, a.PatientID); err == nil {
		s.notifier.NotifyRole(ctx, domain.RoleAdmin,
			fmt.Sprintf("%s cancelled their %s appointment.", p.FullName(), a.Type.Label()),
			"/admin/appointments?id="+a.ID.String(),
		)
	}

	if s.metrics != nil {
		s.metrics.AppointmentsTotal.WithLabelValues(string(a.Status)).Inc()
	}
	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID: callerID, UserRole: string(callerRole),
		Action: "update", ResourceType: "appointment", ResourceID: a.ID.String(), IPAddress: ip,
		Changes: `{"status":"cancelled"}`,
	})

	return a, nil
}

func (s *AppointmentService) MarkNoShow(ctx context.Context, id uuid.UUID, callerID uuid.UUID, callerRole domain.Role, ip string) (*appointment.Appointment, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := a.MarkNoShow(); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, a); err != nil {
		return nil, fmt.Errorf("saving appointment: %w", err)
	}

	if p, err := s.patientRepo.GetByID(ctx, a.PatientID); err == nil {
		s.notifier.NotifyRole(ctx, domain.RoleAdmin,
			fmt.Sprintf("%s did not show up for their %s appointment", p.FullName(), a.Type.Label()),
			"/admin/appointments?id="+a.ID.String(),
		)
	}

	if s.metrics != nil {
		s.metrics.AppointmentsTotal.WithLabelValues(string(a.Status)).Inc()
	}
	return a, nil
}

func (s *AppointmentService) Get(ctx context.Context, id uuid.UUID, callerRole domain.Role, callerPatientID *uuid.UUID) (*appointment.Appointment, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if callerRole == domain.RolePatient {
		if callerPatientID == nil || *callerPatientID != a.PatientID {
			return nil, ErrForbidden
		}
	}
	return a, nil
}

func (s *AppointmentService) List(ctx context.Context, q *appointment.ListAppointmentsQuery, callerRole domain.Role, callerPatientID *uuid.UUID) (*appointment.PagedAppointments, error) {
	// Patients only ever see their own appointments.
	if callerRole == domain.RolePatient {
		if callerPatientID == nil {
			return nil, ErrForbidden
		}
		q.PatientID = callerPatientID
		q.Archived = false
	}
	return s.repo.List(ctx, q)
}

func (s *AppointmentService) Archive(ctx context.Context, id uuid.UUID, callerID uuid.UUID, callerRole domain.Role, ip string) error {
	if err := s.repo.SoftDelete(ctx, id); err != nil {
		return err
	}
	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID: callerID, UserRole: string(callerRole),
		Action: "delete", ResourceType: "appointment", ResourceID: id.String(), IPAddress: ip,
	})
	return nil
}

func (s *AppointmentService) Restore(ctx context.Context, id uuid.UUID, callerID uuid.UUID, callerRole domain.Role, ip string) error {
	if err := s.repo.Restore(ctx, id); err != nil {
		return err
	}
	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID: callerID, UserRole: string(callerRole),
		Action: "restore", ResourceType: "appointment", ResourceID: id.String(), IPAddress: ip,
	})
	return nil
}

func (s *AppointmentService) ForceDelete(ctx context.Context, id uuid.UUID, callerID uuid.UUID, callerRole domain.Role, ip string) error {
	if err := s.repo.HardDelete(ctx, id); err != nil {
		return err
	}
	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID: callerID, UserRole: string(callerRole),
		Action: "delete", ResourceType: "appointment", ResourceID: id.String(), IPAddress: ip,
		Changes: `{"permanent":true}`,
	})
	return nil
}
