package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lawrencemontaril/noynay-app/internal/domain"
	"github.com/lawrencemontaril/noynay-app/internal/domain/appointment"
	"github.com/lawrencemontaril/noynay-app/internal/domain/invoice"
	"github.com/lawrencemontaril/noynay-app/pkg/metrics"
)

type InvoiceService struct {
	repo            invoice.Repository
	appointmentRepo appointment.Repository
	settings        settingReader
	notifier        Notifier
	auditSvc        *AuditService
	metrics         *metrics.Collector
	log             *zap.Logger
}

func NewInvoiceService(
	repo invoice.Repository,
	appointmentRepo appointment.Repository,
	settings settingReader,
	notifier Notifier,
	auditSvc *AuditService,
	m *metrics.Collector,
	log *zap.Logger,
) *InvoiceService {
	return &InvoiceService{
		repo:            repo,
		appointmentRepo: appointmentRepo,
		settings:        settings,
		notifier:        notifier,
		auditSvc:        auditSvc,
		metrics:         m,
		log:             log,
	}
}

// Create bills an appointment. Totals are computed from the submitted items
// and the current settings, the invoice starts unpaid, and the appointment
// is marked completed as a side effect. One invoice per appointment.
func (s *InvoiceService) Create(ctx context.Context, cmd *invoice.CreateInvoiceCommand, callerID uuid.UUID, callerRole domain.Role, ip string) (*invoice.Invoice, error) {
	if len(cmd.Items) == 0 {
		return nil, NewValidationError("items", "At least one invoice item is required.")
	}
	if err := validateItems(cmd.Items); err != nil {
		return nil, err
	}

	a, err := s.appointmentRepo.GetByID(ctx, cmd.AppointmentID)
	if err != nil {
		return nil, err
	}

	cfg, err := s.settings.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading settings: %w", err)
	}

	inv := &invoice.Invoice{
		AppointmentID: a.ID,
		WithDiscount:  cmd.WithDiscount,
		Status:        invoice.StatusUnpaid,
	}
	inv.ApplyTotals(invoice.CalculateTotals(cmd.Items, cfg.VATPercent, cfg.SpecialDiscountPercent, cmd.WithDiscount))
	for _, it := range cmd.Items {
		inv.Items = append(inv.Items, invoice.InvoiceItem{
			Description: it.Description,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
		})
	}
	inv.Reconcile()

	if err := s.repo.Create(ctx, inv); err != nil {
		return nil, err
	}

	// Billing closes the visit; there is no direct complete action.
	if a.CanTransitionTo(appointment.StatusCompleted) {
		if err := a.Complete(); err == nil {
			if err := s.appointmentRepo.Save(ctx, a); err != nil {
				s.log.Error("failed to complete appointment after invoicing",
					zap.String("appointment_id", a.ID.String()),
					zap.Error(err),
				)
			} else {
				s.notifier.NotifyPatient(ctx, a.PatientID,
					fmt.Sprintf("Your %s appointment on %s has been completed.", a.Type.Label(), a.ScheduledAt.Format(slotTimeFormat)),
					"/appointments?id="+a.ID.String(),
				)
			}
		}
	}

	s.notifier.NotifyPatient(ctx, a.PatientID,
		"You have a new invoice.",
		"/invoices?id="+inv.ID.String(),
	)

	if s.metrics != nil {
		s.metrics.InvoicesTotal.WithLabelValues(string(inv.Status)).Inc()
	}
	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID: callerID, UserRole: string(callerRole),
		Action: "create", ResourceType: "invoice", ResourceID: inv.ID.String(), IPAddress: ip,
	})

	return inv, nil
}

// Update replace-syncs the invoice items and recomputes totals and status.
func (s *InvoiceService) Update(ctx context.Context, id uuid.UUID, cmd *invoice.UpdateInvoiceCommand, callerID uuid.UUID, callerRole domain.Role, ip string) (*invoice.Invoice, error) {
	if err := validateItems(cmd.Items); err != nil {
		return nil, err
	}

	inv, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.repo.ReplaceItems(ctx, inv.ID, cmd.Items); err != nil {
		return nil, fmt.Errorf("replacing invoice items: %w", err)
	}

	// Reload so the cached totals are derived from what was persisted.
	inv, err = s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	cfg, err := s.settings.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading settings: %w", err)
	}

	inputs := make([]invoice.ItemInput, 0, len(inv.Items))
	for _, it := range inv.Items {
		inputs = append(inputs, invoice.ItemInput{
			Description: it.Description,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
		})
	}
	inv.ApplyTotals(invoice.CalculateTotals(inputs, cfg.VATPercent, cfg.SpecialDiscountPercent, inv.WithDiscount))

	if err := s.reconcileAndSave(ctx, inv); err != nil {
		return nil, err
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID: callerID, UserRole: string(callerRole),
		Action: "update", ResourceType: "invoice", ResourceID: inv.ID.String(), IPAddress: ip,
	})

	return inv, nil
}

// AddPayment records a payment against the invoice. The amount may not
// exceed the outstanding balance; on violation nothing is persisted.
func (s *InvoiceService) AddPayment(ctx context.Context, cmd *invoice.CreatePaymentCommand, callerID uuid.UUID, callerRole domain.Role, ip string) (*invoice.Payment, error) {
	if cmd.Amount <= 0 {
		return nil, NewValidationError("amount", "The amount must be greater than zero.")
	}

	inv, err := s.repo.GetByID(ctx, cmd.InvoiceID)
	if err != nil {
		return nil, err
	}

	balance := inv.Balance()
	if cmd.Amount > balance {
		return nil, NewValidationError("amount",
			fmt.Sprintf("The amount may not be greater than the invoice balance of %.2f.", balance))
	}

	p := &invoice.Payment{
		InvoiceID: inv.ID,
		Amount:    invoice.Round2(cmd.Amount),
	}
	if err := s.repo.CreatePayment(ctx, p); err != nil {
		return nil, fmt.Errorf("recording payment: %w", err)
	}

	inv.Payments = append(inv.Payments, *p)
	if err := s.reconcileAndSave(ctx, inv); err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.PaymentsRecorded.Inc()
	}
	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID: callerID, UserRole: string(callerRole),
		Action: "create", ResourceType: "payment", ResourceID: p.ID.String(), IPAddress: ip,
		Changes: fmt.Sprintf(`{"amount":%.2f}`, p.Amount),
	})

	return p, nil
}

// UpdatePayment corrects a recorded payment's amount and re-derives the
// invoice status. The payment's own prior amount is freed up first, so the
// new amount may grow up to the balance plus what it already covered.
func (s *InvoiceService) UpdatePayment(ctx context.Context, paymentID uuid.UUID, amount float64, callerID uuid.UUID, callerRole domain.Role, ip string) (*invoice.Payment, error) {
	if amount <= 0 {
		return nil, NewValidationError("amount", "The amount must be greater than zero.")
	}

	p, err := s.repo.GetPayment(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	inv, err := s.repo.GetByID(ctx, p.InvoiceID)
	if err != nil {
		return nil, err
	}

	ceiling := invoice.Round2(inv.Balance() + p.Amount)
	if amount > ceiling {
		return nil, NewValidationError("amount",
			fmt.Sprintf("The amount may not be greater than the invoice balance of %.2f.", ceiling))
	}

	p.Amount = invoice.Round2(amount)
	if err := s.repo.UpdatePaymentAmount(ctx, paymentID, p.Amount); err != nil {
		return nil, fmt.Errorf("updating payment: %w", err)
	}

	// Reload so the reconciliation sees the corrected amount.
	inv, err = s.repo.GetByID(ctx, p.InvoiceID)
	if err != nil {
		return nil, err
	}
	if err := s.reconcileAndSave(ctx, inv); err != nil {
		return nil, err
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID: callerID, UserRole: string(callerRole),
		Action: "update", ResourceType: "payment", ResourceID: paymentID.String(), IPAddress: ip,
		Changes: fmt.Sprintf(`{"amount":%.2f}`, p.Amount),
	})

	return p, nil
}

// RemovePayment deletes a recorded payment and re-derives the invoice status.
func (s *InvoiceService) RemovePayment(ctx context.Context, paymentID uuid.UUID, callerID uuid.UUID, callerRole domain.Role, ip string) error {
	p, err := s.repo.GetPayment(ctx, paymentID)
	if err != nil {
		return err
	}
	if err := s.repo.DeletePayment(ctx, paymentID); err != nil {
		return err
	}

	inv, err := s.repo.GetByID(ctx, p.InvoiceID)
	if err != nil {
		return err
	}
	if err := s.reconcileAndSave(ctx, inv); err != nil {
		return err
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID: callerID, UserRole: string(callerRole),
		Action: "delete", ResourceType: "payment", ResourceID: paymentID.String(), IPAddress: ip,
	})
	return nil
}

func (s *InvoiceService) Get(ctx context.Context, id uuid.UUID, callerRole domain.Role, callerPatientID *uuid.UUID) (*invoice.Invoice, error) {
	inv, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if callerRole == domain.RolePatient {
		a, err := s.appointmentRepo.GetByID(ctx, inv.AppointmentID)
		if err != nil {
			return nil, err
		}
		if callerPatientID == nil || *callerPatientID != a.PatientID {
			return nil, ErrForbidden
		}
	}
	return inv, nil
}

// GetByAppointment looks an invoice up by the visit it bills.
func (s *InvoiceService) GetByAppointment(ctx context.Context, appointmentID uuid.UUID, callerRole domain.Role, callerPatientID *uuid.UUID) (*invoice.Invoice, error) {
	inv, err := s.repo.GetByAppointmentID(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if callerRole == domain.RolePatient {
		a, err := s.appointmentRepo.GetByID(ctx, inv.AppointmentID)
		if err != nil {
			return nil, err
		}
		if callerPatientID == nil || *callerPatientID != a.PatientID {
			return nil, ErrForbidden
		}
	}
	return inv, nil
}

func (s *InvoiceService) List(ctx context.Context, q *invoice.ListInvoicesQuery, callerRole domain.Role, callerPatientID *uuid.UUID) (*invoice.PagedInvoices, error) {
	if callerRole == domain.RolePatient {
		if callerPatientID == nil {
			return nil, ErrForbidden
		}
		q.PatientID = callerPatientID
	}
	return s.repo.List(ctx, q)
}

func (s *InvoiceService) Delete(ctx context.Context, id uuid.UUID, callerID uuid.UUID, callerRole domain.Role, ip string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID: callerID, UserRole: string(callerRole),
		Action: "delete", ResourceType: "invoice", ResourceID: id.String(), IPAddress: ip,
	})
	return nil
}

// reconcileAndSave re-derives the invoice status, persists it, and sends the
// paid notification exactly once per transition into paid.
func (s *InvoiceService) reconcileAndSave(ctx context.Context, inv *invoice.Invoice) error {
	becamePaid := inv.Reconcile()
	if err := s.repo.Save(ctx, inv); err != nil {
		return fmt.Errorf("saving invoice: %w", err)
	}

	if becamePaid {
		if a, err := s.appointmentRepo.GetByID(ctx, inv.AppointmentID); err == nil {
			s.notifier.NotifyPatient(ctx, a.PatientID,
				fmt.Sprintf("Your invoice #%s has been successfully paid.", inv.ID),
				"/invoices?id="+inv.ID.String(),
			)
		}
	}

	if s.metrics != nil {
		s.metrics.InvoicesTotal.WithLabelValues(string(inv.Status)).Inc()
	}
	return nil
}

func validateItems(items []invoice.ItemInput) error {
	for i, it := range items {
		if it.Description == "" {
			return NewValidationError(fmt.Sprintf("items.%d.description", i), "The description is required.")
		}
		if it.Quantity < 1 {
			return NewValidationError(fmt.Sprintf("items.%d.quantity", i), "The quantity must be at least 1.")
		}
		if it.UnitPrice < 0 {
			return NewValidationError(fmt.Sprintf("items.%d.unit_price", i), "The unit price may not be negative.")
		}
	}
	return nil
}
