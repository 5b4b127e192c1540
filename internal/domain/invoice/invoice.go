package invoice

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusUnpaid        Status = "unpaid"
	StatusPartiallyPaid Status = "partially_paid"
	StatusPaid          Status = "paid"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusUnpaid, StatusPartiallyPaid, StatusPaid:
		return true
	}
	return false
}

func (s Status) Label() string {
	switch s {
	case StatusUnpaid:
		return "Unpaid"
	case StatusPartiallyPaid:
		return "Partially Paid"
	case StatusPaid:
		return "Paid"
	}
	return string(s)
}

// Invoice caches the computed totals; they are recomputed from the items on
// every item mutation and never edited directly.
type Invoice struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time `gorm:"autoCreateTime;index"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`

	// One invoice per appointment.
	AppointmentID uuid.UUID `gorm:"column:appointment_id;type:uuid;not null;uniqueIndex"`

	Status       Status `gorm:"column:status;type:varchar(20);not null;default:'unpaid';index"`
	WithDiscount bool   `gorm:"column:with_discount;not null;default:false"`

	Subtotal              float64 `gorm:"column:subtotal;type:numeric(12,2);not null;default:0"`
	DiscountAmount        float64 `gorm:"column:discount_amount;type:numeric(12,2);not null;default:0"`
	SubtotalAfterDiscount float64 `gorm:"column:subtotal_after_discount;type:numeric(12,2);not null;default:0"`
	VATAmount             float64 `gorm:"column:vat_amount;type:numeric(12,2);not null;default:0"`
	Total                 float64 `gorm:"column:total;type:numeric(12,2);not null;default:0"`

	Items    []InvoiceItem `gorm:"foreignKey:InvoiceID"`
	Payments []Payment     `gorm:"foreignKey:InvoiceID"`
}

func (Invoice) TableName() string {
	return "billing.invoices"
}

// TotalPaid sums the recorded payments.
func (i *Invoice) TotalPaid() float64 {
	var paid float64
	for _, p := range i.Payments {
		paid += p.Amount
	}
	return Round2(paid)
}

// Balance is the invoice total minus payments, floored at zero.
func (i *Invoice) Balance() float64 {
	return Balance(i.Total, i.TotalPaid())
}

// ApplyTotals writes a computed Totals onto the cached columns.
func (i *Invoice) ApplyTotals(t Totals) {
	i.Subtotal = t.Subtotal
	i.DiscountAmount = t.DiscountAmount
	i.SubtotalAfterDiscount = t.SubtotalAfterDiscount
	i.VATAmount = t.VATAmount
	i.Total = t.Total
}

// Reconcile derives the invoice status from its items and payments.
// It returns true when the invoice just became paid, which is the caller's
// cue to send the paid notification exactly once.
func (i *Invoice) Reconcile() (becamePaid bool) {
	prev := i.Status
	i.Status = StatusFor(len(i.Items) > 0, i.Balance(), i.TotalPaid())
	return i.Status == StatusPaid && prev != StatusPaid
}

type InvoiceItem struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`

	InvoiceID uuid.UUID `gorm:"column:invoice_id;type:uuid;not null;index"`

	Description string  `gorm:"column:description;type:varchar(255);not null"`
	Quantity    int     `gorm:"column:quantity;not null;default:1"`
	UnitPrice   float64 `gorm:"column:unit_price;type:numeric(10,2);not null"`
}

func (InvoiceItem) TableName() string {
	return "billing.invoice_items"
}

func (it *InvoiceItem) LineTotal() float64 {
	return Round2(float64(it.Quantity) * it.UnitPrice)
}

type Payment struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time `gorm:"autoCreateTime;index"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`

	InvoiceID uuid.UUID `gorm:"column:invoice_id;type:uuid;not null;index"`

	Amount float64 `gorm:"column:amount;type:numeric(12,2);not null"`
}

func (Payment) TableName() string {
	return "billing.payments"
}

// ItemInput is one invoice line as submitted by the caller. A nil ID marks a
// new line; a non-nil ID updates the existing line during replace-sync.
type ItemInput struct {
	ID          *uuid.UUID
	Description string
	Quantity    int
	UnitPrice   float64
}

type CreateInvoiceCommand struct {
	AppointmentID uuid.UUID
	WithDiscount  bool
	Items         []ItemInput
}

type UpdateInvoiceCommand struct {
	Items []ItemInput
}

type CreatePaymentCommand struct {
	InvoiceID uuid.UUID
	Amount    float64
}

type ListInvoicesQuery struct {
	PatientID *uuid.UUID
	Status    *Status
	Search    string
	Page      int
	PageSize  int
}

type PagedInvoices struct {
	Invoices   []*Invoice
	TotalCount int64
	Page       int
	PageSize   int
	TotalPages int
}
