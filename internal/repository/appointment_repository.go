package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lawrencemontaril/noynay-app/internal/domain/appointment"
)

type AppointmentRepository struct {
	db *gorm.DB
}

func NewAppointmentRepository(db *gorm.DB) *AppointmentRepository {
	return &AppointmentRepository{db: db}
}

func (r *AppointmentRepository) Create(ctx context.Context, a *appointment.Appointment) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *AppointmentRepository) GetByID(ctx context.Context, id uuid.UUID) (*appointment.Appointment, error) {
	var a appointment.Appointment
	err := r.db.WithContext(ctx).First(&a, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, appointment.ErrAppointmentNotFound
		}
		return nil, fmt.Errorf("fetching appointment: %w", err)
	}
	return &a, nil
}

func (r *AppointmentRepository) Save(ctx context.Context, a *appointment.Appointment) error {
	return r.db.WithContext(ctx).Save(a).Error
}

func (r *AppointmentRepository) CountAtSlot(ctx context.Context, scheduledAt time.Time, excludeID *uuid.UUID) (int64, error) {
	var count int64
	q := r.db.WithContext(ctx).
		Model(&appointment.Appointment{}).
		Where("deleted_at IS NULL").
		Where("scheduled_at = ?", scheduledAt).
		Where("status IN ?", appointment.ActiveStatuses())
	if excludeID != nil {
		q = q.Where("id <> ?", *excludeID)
	}
	if err := q.Count(&count).Error; err != nil {
		return 0, fmt.Errorf("counting slot occupancy: %w", err)
	}
	return count, nil
}

func (r *AppointmentRepository) HasNonTerminal(ctx context.Context, patientID uuid.UUID, excludeID *uuid.UUID) (bool, error) {
	var count int64
	q := r.db.WithContext(ctx).
		Model(&appointment.Appointment{}).
		Where("deleted_at IS NULL").
		Where("patient_id = ?", patientID).
		Where("status NOT IN ?", appointment.TerminalStatuses())
	if excludeID != nil {
		q = q.Where("id <> ?", *excludeID)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, fmt.Errorf("checking outstanding appointments: %w", err)
	}
	return count > 0, nil
}

func (r *AppointmentRepository) List(ctx context.Context, q *appointment.ListAppointmentsQuery) (*appointment.PagedAppointments, error) {
	page, pageSize := normalizePage(q.Page, q.PageSize)

	db := r.db.WithContext(ctx).Model(&appointment.Appointment{})
	if q.Archived {
		db = db.Where("clinical.appointments.deleted_at IS NOT NULL")
	} else {
		db = db.Where("clinical.appointments.deleted_at IS NULL")
	}
	if q.PatientID != nil {
		db = db.Where("patient_id = ?", *q.PatientID)
	}
	if q.Status != nil {
		db = db.Where("status = ?", *q.Status)
	}
	if q.Type != nil {
		db = db.Where("type = ?", *q.Type)
	}
	if q.DateFrom != nil {
		db = db.Where("scheduled_at >= ?", *q.DateFrom)
	}
	if q.DateTo != nil {
		db = db.Where("scheduled_at <= ?", *q.DateTo)
	}
	if q.Search != "" {
		kw := "%" + q.Search + "%"
		db = db.Joins("JOIN clinical.patients p ON p.id = clinical.appointments.patient_id").
			Where("p.first_name ILIKE ? OR p.middle_name ILIKE ? OR p.last_name ILIKE ?", kw, kw, kw)
	}

	var count int64
	if err := db.Count(&count).Error; err != nil {
		return nil, fmt.Errorf("counting appointments: %w", err)
	}

	var appts []*appointment.Appointment
	err := db.Order("scheduled_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&appts).Error
	if err != nil {
		return nil, fmt.Errorf("listing appointments: %w", err)
	}

	return &appointment.PagedAppointments{
		Appointments: appts,
		TotalCount:   count,
		Page:         page,
		PageSize:     pageSize,
		TotalPages:   totalPages(count, pageSize),
	}, nil
}

func (r *AppointmentRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Model(&appointment.Appointment{}).
		Where("id = ? AND deleted_at IS NULL", id).
		Update("deleted_at", time.Now())
	if res.Error != nil {
		return fmt.Errorf("archiving appointment: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return appointment.ErrAppointmentNotFound
	}
	return nil
}

func (r *AppointmentRepository) Restore(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Model(&appointment.Appointment{}).
		Where("id = ?", id).
		Update("deleted_at", nil)
	if res.Error != nil {
		return fmt.Errorf("restoring appointment: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return appointment.ErrAppointmentNotFound
	}
	return nil
}

func (r *AppointmentRepository) HardDelete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Delete(&appointment.Appointment{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("deleting appointment: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return appointment.ErrAppointmentNotFound
	}
	return nil
}
