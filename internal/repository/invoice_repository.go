package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lawrencemontaril/noynay-app/internal/domain/invoice"
)

type InvoiceRepository struct {
	db *gorm.DB
}

func NewInvoiceRepository(db *gorm.DB) *InvoiceRepository {
	return &InvoiceRepository{db: db}
}

func (r *InvoiceRepository) Create(ctx context.Context, inv *invoice.Invoice) error {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&invoice.Invoice{}).
		Where("appointment_id = ?", inv.AppointmentID).
		Count(&count).Error
	if err != nil {
		return fmt.Errorf("checking invoice uniqueness: %w", err)
	}
	if count > 0 {
		return invoice.ErrDuplicateInvoice
	}
	return r.db.WithContext(ctx).Create(inv).Error
}

func (r *InvoiceRepository) GetByID(ctx context.Context, id uuid.UUID) (*invoice.Invoice, error) {
	var inv invoice.Invoice
	err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("Payments").
		First(&inv, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, invoice.ErrInvoiceNotFound
		}
		return nil, fmt.Errorf("fetching invoice: %w", err)
	}
	return &inv, nil
}

func (r *InvoiceRepository) GetByAppointmentID(ctx context.Context, appointmentID uuid.UUID) (*invoice.Invoice, error) {
	var inv invoice.Invoice
	err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("Payments").
		First(&inv, "appointment_id = ?", appointmentID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, invoice.ErrInvoiceNotFound
		}
		return nil, fmt.Errorf("fetching invoice by appointment: %w", err)
	}
	return &inv, nil
}

func (r *InvoiceRepository) Save(ctx context.Context, inv *invoice.Invoice) error {
	// Omit associations: items and payments are managed through their own
	// repository methods, not through cascading saves.
	return r.db.WithContext(ctx).Omit("Items", "Payments").Save(inv).Error
}

func (r *InvoiceRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&invoice.InvoiceItem{}, "invoice_id = ?", id).Error; err != nil {
			return fmt.Errorf("deleting invoice items: %w", err)
		}
		if err := tx.Delete(&invoice.Payment{}, "invoice_id = ?", id).Error; err != nil {
			return fmt.Errorf("deleting invoice payments: %w", err)
		}
		res := tx.Delete(&invoice.Invoice{}, "id = ?", id)
		if res.Error != nil {
			return fmt.Errorf("deleting invoice: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return invoice.ErrInvoiceNotFound
		}
		return nil
	})
}

// ReplaceItems implements the replace-sync strategy: lines carrying a known
// id are updated in place, lines absent from the input are deleted, and
// id-less lines are inserted.
func (r *InvoiceRepository) ReplaceItems(ctx context.Context, invoiceID uuid.UUID, items []invoice.ItemInput) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		keep := make([]uuid.UUID, 0, len(items))

		for _, in := range items {
			if in.ID != nil {
				err := tx.Model(&invoice.InvoiceItem{}).
					Where("id = ? AND invoice_id = ?", *in.ID, invoiceID).
					Updates(map[string]any{
						"description": in.Description,
						"quantity":    in.Quantity,
						"unit_price":  in.UnitPrice,
					}).Error
				if err != nil {
					return fmt.Errorf("updating invoice item: %w", err)
				}
				keep = append(keep, *in.ID)
				continue
			}

			item := &invoice.InvoiceItem{
				InvoiceID:   invoiceID,
				Description: in.Description,
				Quantity:    in.Quantity,
				UnitPrice:   in.UnitPrice,
			}
			if err := tx.Create(item).Error; err != nil {
				return fmt.Errorf("creating invoice item: %w", err)
			}
			keep = append(keep, item.ID)
		}

		del := tx.Where("invoice_id = ?", invoiceID)
		if len(keep) > 0 {
			del = del.Where("id NOT IN ?", keep)
		}
		if err := del.Delete(&invoice.InvoiceItem{}).Error; err != nil {
			return fmt.Errorf("pruning invoice items: %w", err)
		}
		return nil
	})
}

func (r *InvoiceRepository) ExistsForAppointment(ctx context.Context, appointmentID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&invoice.Invoice{}).
		Where("appointment_id = ?", appointmentID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("checking invoice existence: %w", err)
	}
	return count > 0, nil
}

func (r *InvoiceRepository) CreatePayment(ctx context.Context, p *invoice.Payment) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *InvoiceRepository) GetPayment(ctx context.Context, id uuid.UUID) (*invoice.Payment, error) {
	var p invoice.Payment
	err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, invoice.ErrPaymentNotFound
		}
		return nil, fmt.Errorf("fetching payment: %w", err)
	}
	return &p, nil
}

func (r *InvoiceRepository) UpdatePaymentAmount(ctx context.Context, id uuid.UUID, amount float64) error {
	res := r.db.WithContext(ctx).
		Model(&invoice.Payment{}).
		Where("id = ?", id).
		Update("amount", amount)
	if res.Error != nil {
		return fmt.Errorf("updating payment: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return invoice.ErrPaymentNotFound
	}
	return nil
}

func (r *InvoiceRepository) DeletePayment(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&invoice.Payment{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("deleting payment: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return invoice.ErrPaymentNotFound
	}
	return nil
}

func (r *InvoiceRepository) List(ctx context.Context, q *invoice.ListInvoicesQuery) (*invoice.PagedInvoices, error) {
	page, pageSize := normalizePage(q.Page, q.PageSize)

	db := r.db.WithContext(ctx).Model(&invoice.Invoice{})
	if q.Status != nil {
		db = db.Where("status = ?", *q.Status)
	}
	if q.PatientID != nil {
		db = db.Joins("JOIN clinical.appointments a ON a.id = billing.invoices.appointment_id").
			Where("a.patient_id = ?", *q.PatientID)
	}
	if q.Search != "" {
		kw := "%" + q.Search + "%"
		db = db.Joins("JOIN clinical.appointments sa ON sa.id = billing.invoices.appointment_id").
			Joins("JOIN clinical.patients p ON p.id = sa.patient_id").
			Where("p.first_name ILIKE ? OR p.middle_name ILIKE ? OR p.last_name ILIKE ?", kw, kw, kw)
	}

	var count int64
	if err := db.Count(&count).Error; err != nil {
		return nil, fmt.Errorf("counting invoices: %w", err)
	}

	var invoices []*invoice.Invoice
	err := db.Preload("Items").
		Preload("Payments").
		Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&invoices).Error
	if err != nil {
		return nil, fmt.Errorf("listing invoices: %w", err)
	}

	return &invoice.PagedInvoices{
		Invoices:   invoices,
		TotalCount: count,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages(count, pageSize),
	}, nil
}
