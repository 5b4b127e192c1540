package service

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lawrencemontaril/noynay-app/internal/domain"
	"github.com/lawrencemontaril/noynay-app/internal/domain/appointment"
	"github.com/lawrencemontaril/noynay-app/internal/domain/consultation"
	"github.com/lawrencemontaril/noynay-app/internal/domain/invoice"
	"github.com/lawrencemontaril/noynay-app/internal/domain/labresult"
	"github.com/lawrencemontaril/noynay-app/internal/domain/patient"
	"github.com/lawrencemontaril/noynay-app/pkg/metrics"
	"github.com/lawrencemontaril/noynay-app/pkg/storage"
)

// ResultsUpload is an optional PDF attachment submitted with a laboratory
// result create or update.
type ResultsUpload struct {
	Filename string
	Content  io.Reader
}

type LaboratoryResultService struct {
	repo            labresult.Repository
	appointmentRepo appointment.Repository
	patientRepo     patient.Repository
	consultRepo     consultation.Repository
	invoiceRepo     invoice.Repository
	files           storage.Store
	notifier        Notifier
	auditSvc        *AuditService
	metrics         *metrics.Collector
	log             *zap.Logger
}

func NewLaboratoryResultService(
	repo labresult.Repository,
	appointmentRepo appointment.Repository,
	patientRepo patient.Repository,
	consultRepo consultation.Repository,
	invoiceRepo invoice.Repository,
	files storage.Store,
	notifier Notifier,
	auditSvc *AuditService,
	m *metrics.Collector,
	log *zap.Logger,
) *LaboratoryResultService {
	return &LaboratoryResultService{
		repo:            repo,
		appointmentRepo: appointmentRepo,
		patientRepo:     patientRepo,
		consultRepo:     consultRepo,
		invoiceRepo:     invoiceRepo,
		files:           files,
		notifier:        notifier,
		auditSvc:        auditSvc,
		metrics:         m,
		log:             log,
	}
}

// Create stores a laboratory result, optionally with its PDF attached
// immediately. Attaching a file releases the result.
func (s *LaboratoryResultService) Create(ctx context.Context, cmd *labresult.CreateLaboratoryResultCommand, upload *ResultsUpload, callerID uuid.UUID, callerRole domain.Role, ip string) (*labresult.LaboratoryResult, error) {
	if !cmd.Type.IsValid() {
		return nil, NewValidationError("type", "The selected laboratory test type is invalid.")
	}
	if _, err := s.appointmentRepo.GetByID(ctx, cmd.AppointmentID); err != nil {
		return nil, err
	}

	r := &labresult.LaboratoryResult{
		AppointmentID: cmd.AppointmentID,
		Type:          cmd.Type,
		Description:   cmd.Description,
	}

	if upload != nil {
		path, err := s.storeUpload(upload)
		if err != nil {
			return nil, err
		}
		r.ResultsFilePath = path
	}
	r.SyncStatus()

	if err := s.repo.Create(ctx, r); err != nil {
		return nil, fmt.Errorf("creating laboratory result: %w", err)
	}

	if r.IsReleased() {
		s.afterRelease(ctx, r)
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID: callerID, UserRole: string(callerRole),
		Action: "create", ResourceType: "laboratory_result", ResourceID: r.ID.String(), IPAddress: ip,
	})

	return r, nil
}

// Update edits a laboratory result. A new upload replaces the prior blob;
// without a file on record the result stays pending.
func (s *LaboratoryResultService) Update(ctx context.Context, id uuid.UUID, cmd *labresult.UpdateLaboratoryResultCommand, upload *ResultsUpload, callerID uuid.UUID, callerRole domain.Role, ip string) (*labresult.LaboratoryResult, error) {
	r, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	wasReleased := r.IsReleased()

	if cmd.Description != nil {
		r.Description = *cmd.Description
	}
	if cmd.Type != nil {
		if !cmd.Type.IsValid() {
			return nil, NewValidationError("type", "The selected laboratory test type is invalid.")
		}
		r.Type = *cmd.Type
	}

	if upload != nil {
		path, err := s.files.Replace(r.ResultsFilePath, upload.Filename, upload.Content)
		if err != nil {
			return nil, mapStorageError(err)
		}
		r.ResultsFilePath = path
	}
	r.SyncStatus()

	if err := s.repo.Save(ctx, r); err != nil {
		return nil, fmt.Errorf("saving laboratory result: %w", err)
	}

	if !wasReleased && r.IsReleased() {
		s.afterRelease(ctx, r)
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID: callerID, UserRole: string(callerRole),
		Action: "update", ResourceType: "laboratory_result", ResourceID: r.ID.String(), IPAddress: ip,
	})

	return r, nil
}

func (s *LaboratoryResultService) Get(ctx context.Context, id uuid.UUID, callerRole domain.Role, callerPatientID *uuid.UUID) (*labresult.LaboratoryResult, error) {
	r, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if callerRole == domain.RolePatient {
		a, err := s.appointmentRepo.GetByID(ctx, r.AppointmentID)
		if err != nil {
			return nil, err
		}
		if callerPatientID == nil || *callerPatientID != a.PatientID {
			return nil, ErrForbidden
		}
		// Patients only ever see released results.
		if !r.IsReleased() {
			return nil, labresult.ErrResultNotFound
		}
	}
	return r, nil
}

func (s *LaboratoryResultService) List(ctx context.Context, q *labresult.ListLaboratoryResultsQuery, callerRole domain.Role, callerPatientID *uuid.UUID) (*labresult.PagedLaboratoryResults, error) {
	if callerRole == domain.RolePatient {
		if callerPatientID == nil {
			return nil, ErrForbidden
		}
		q.PatientID = callerPatientID
		released := labresult.StatusReleased
		q.Status = &released
	}
	return s.repo.List(ctx, q)
}

// Delete removes the result and its stored file.
func (s *LaboratoryResultService) Delete(ctx context.Context, id uuid.UUID, callerID uuid.UUID, callerRole domain.Role, ip string) error {
	r, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	if r.ResultsFilePath != "" {
		if err := s.files.Delete(r.ResultsFilePath); err != nil && !errors.Is(err, storage.ErrFileNotFound) {
			s.log.Warn("failed to delete laboratory result file",
				zap.String("path", r.ResultsFilePath),
				zap.Error(err),
			)
		}
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID: callerID, UserRole: string(callerRole),
		Action: "delete", ResourceType: "laboratory_result", ResourceID: id.String(), IPAddress: ip,
	})
	return nil
}

func (s *LaboratoryResultService) storeUpload(upload *ResultsUpload) (string, error) {
	path, err := s.files.Save(upload.Filename, upload.Content)
	if err != nil {
		return "", mapStorageError(err)
	}
	return path, nil
}

// afterRelease notifies the patient their result is ready and, if this is
// the first service rendered for the visit, alerts cashiers of the still
// missing invoice.
func (s *LaboratoryResultService) afterRelease(ctx context.Context, r *labresult.LaboratoryResult) {
	a, err := s.appointmentRepo.GetByID(ctx, r.AppointmentID)
	if err != nil {
		s.log.Error("failed to load appointment for released result", zap.Error(err))
		return
	}

	s.notifier.NotifyPatient(ctx, a.PatientID,
		fmt.Sprintf("Your laboratory result for %s is now available.", a.Type.Label()),
		"/laboratory_results?id="+r.ID.String(),
	)

	serviced, err := s.servicedBesides(ctx, a.ID, r.ID)
	if err != nil {
		s.log.Error("failed to check prior services", zap.Error(err))
		return
	}
	if !serviced {
		if p, err := s.patientRepo.GetByID(ctx, a.PatientID); err == nil {
			s.notifier.NotifyRole(ctx, domain.RoleCashier,
				fmt.Sprintf("Pending invoice for %s.", p.FullName()),
				"/admin/appointments?id="+a.ID.String(),
			)
		}
	}

	if s.metrics != nil {
		s.metrics.LabResultsReleased.Inc()
	}
}

// servicedBesides is hasBeenServiced minus the result being released right
// now, which is already persisted when the check runs.
func (s *LaboratoryResultService) servicedBesides(ctx context.Context, appointmentID, resultID uuid.UUID) (bool, error) {
	if ok, err := s.consultRepo.ExistsForAppointment(ctx, appointmentID); err != nil || ok {
		return ok, err
	}
	q := &labresult.ListLaboratoryResultsQuery{AppointmentID: &appointmentID, PageSize: 50}
	page, err := s.repo.List(ctx, q)
	if err != nil {
		return false, err
	}
	for _, other := range page.Results {
		if other.ID != resultID && other.IsReleased() {
			return true, nil
		}
	}
	return s.invoiceRepo.ExistsForAppointment(ctx, appointmentID)
}

func mapStorageError(err error) error {
	switch {
	case errors.Is(err, storage.ErrNotPDF):
		return NewValidationError("results_file", "The results file must be a PDF document.")
	case errors.Is(err, storage.ErrFileTooLarge):
		return NewValidationError("results_file", "The results file may not be greater than 12 MB.")
	default:
		return fmt.Errorf("storing results file: %w", err)
	}
}
