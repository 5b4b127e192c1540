package invoice

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	// Create persists the invoice together with its initial items.
	// Returns ErrDuplicateInvoice when the appointment is already invoiced.
	Create(ctx context.Context, inv *Invoice) error

	// GetByID loads the invoice with its items and payments.
	GetByID(ctx context.Context, id uuid.UUID) (*Invoice, error)
	GetByAppointmentID(ctx context.Context, appointmentID uuid.UUID) (*Invoice, error)

	// Save persists the invoice's cached totals and status.
	Save(ctx context.Context, inv *Invoice) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, q *ListInvoicesQuery) (*PagedInvoices, error)

	// ReplaceItems applies the replace-sync strategy: lines with a known id
	// are updated, lines missing from the input are deleted, id-less lines
	// are inserted.
	ReplaceItems(ctx context.Context, invoiceID uuid.UUID, items []ItemInput) error

	// ExistsForAppointment reports whether the appointment has been invoiced.
	ExistsForAppointment(ctx context.Context, appointmentID uuid.UUID) (bool, error)

	CreatePayment(ctx context.Context, p *Payment) error
	DeletePayment(ctx context.Context, id uuid.UUID) error
	GetPayment(ctx context.Context, id uuid.UUID) (*Payment, error)
	UpdatePaymentAmount(ctx context.Context, id uuid.UUID, amount float64) error
}
