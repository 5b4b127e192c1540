package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lawrencemontaril/noynay-app/internal/domain/consultation"
)

type ConsultationRepository struct {
	db *gorm.DB
}

func NewConsultationRepository(db *gorm.DB) *ConsultationRepository {
	return &ConsultationRepository{db: db}
}

func (r *ConsultationRepository) Create(ctx context.Context, c *consultation.Consultation) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *ConsultationRepository) GetByID(ctx context.Context, id uuid.UUID) (*consultation.Consultation, error) {
	var c consultation.Consultation
	err := r.db.WithContext(ctx).First(&c, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, consultation.ErrConsultationNotFound
		}
		return nil, fmt.Errorf("fetching consultation: %w", err)
	}
	return &c, nil
}

func (r *ConsultationRepository) Update(ctx context.Context, id uuid.UUID, cmd *consultation.UpdateConsultationCommand) (*consultation.Consultation, error) {
	c, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if cmd.ChiefComplaints != nil {
		c.ChiefComplaints = *cmd.ChiefComplaints
	}
	if cmd.Assessment != nil {
		c.Assessment = *cmd.Assessment
	}
	if cmd.Plan != nil {
		c.Plan = *cmd.Plan
	}
	if cmd.Vitals != nil {
		c.Vitals = *cmd.Vitals
	}

	if err := r.db.WithContext(ctx).Save(c).Error; err != nil {
		return nil, fmt.Errorf("updating consultation: %w", err)
	}
	return c, nil
}

func (r *ConsultationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&consultation.Consultation{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("deleting consultation: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return consultation.ErrConsultationNotFound
	}
	return nil
}

func (r *ConsultationRepository) ExistsForAppointment(ctx context.Context, appointmentID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&consultation.Consultation{}).
		Where("appointment_id = ?", appointmentID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("checking consultation existence: %w", err)
	}
	return count > 0, nil
}

func (r *ConsultationRepository) List(ctx context.Context, q *consultation.ListConsultationsQuery) (*consultation.PagedConsultations, error) {
	page, pageSize := normalizePage(q.Page, q.PageSize)

	db := r.db.WithContext(ctx).Model(&consultation.Consultation{})
	if q.AppointmentID != nil {
		db = db.Where("appointment_id = ?", *q.AppointmentID)
	}
	if q.PatientID != nil {
		db = db.Joins("JOIN clinical.appointments a ON a.id = clinical.consultations.appointment_id").
			Where("a.patient_id = ?", *q.PatientID)
	}
	if q.Search != "" {
		kw := "%" + q.Search + "%"
		db = db.Joins("JOIN clinical.appointments sa ON sa.id = clinical.consultations.appointment_id").
			Joins("JOIN clinical.patients p ON p.id = sa.patient_id").
			Where("p.first_name ILIKE ? OR p.middle_name ILIKE ? OR p.last_name ILIKE ?", kw, kw, kw)
	}

	var count int64
	if err := db.Count(&count).Error; err != nil {
		return nil, fmt.Errorf("counting consultations: %w", err)
	}

	var cons []*consultation.Consultation
	err := db.Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&cons).Error
	if err != nil {
		return nil, fmt.Errorf("listing consultations: %w", err)
	}

	return &consultation.PagedConsultations{
		Consultations: cons,
		TotalCount:    count,
		Page:          page,
		PageSize:      pageSize,
		TotalPages:    totalPages(count, pageSize),
	}, nil
}
