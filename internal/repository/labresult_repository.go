package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lawrencemontaril/noynay-app/internal/domain/labresult"
)

type LaboratoryResultRepository struct {
	db *gorm.DB
}

func NewLaboratoryResultRepository(db *gorm.DB) *LaboratoryResultRepository {
	return &LaboratoryResultRepository{db: db}
}

func (r *LaboratoryResultRepository) Create(ctx context.Context, lr *labresult.LaboratoryResult) error {
	return r.db.WithContext(ctx).Create(lr).Error
}

func (r *LaboratoryResultRepository) GetByID(ctx context.Context, id uuid.UUID) (*labresult.LaboratoryResult, error) {
	var lr labresult.LaboratoryResult
	err := r.db.WithContext(ctx).First(&lr, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, labresult.ErrResultNotFound
		}
		return nil, fmt.Errorf("fetching laboratory result: %w", err)
	}
	return &lr, nil
}

func (r *LaboratoryResultRepository) Save(ctx context.Context, lr *labresult.LaboratoryResult) error {
	return r.db.WithContext(ctx).Save(lr).Error
}

func (r *LaboratoryResultRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&labresult.LaboratoryResult{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("deleting laboratory result: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return labresult.ErrResultNotFound
	}
	return nil
}

func (r *LaboratoryResultRepository) ExistsForAppointment(ctx context.Context, appointmentID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&labresult.LaboratoryResult{}).
		Where("appointment_id = ?", appointmentID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("checking laboratory result existence: %w", err)
	}
	return count > 0, nil
}

func (r *LaboratoryResultRepository) ExistsReleasedForAppointment(ctx context.Context, appointmentID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&labresult.LaboratoryResult{}).
		Where("appointment_id = ? AND results_file_path <> ''", appointmentID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("checking released laboratory result: %w", err)
	}
	return count > 0, nil
}

func (r *LaboratoryResultRepository) List(ctx context.Context, q *labresult.ListLaboratoryResultsQuery) (*labresult.PagedLaboratoryResults, error) {
	page, pageSize := normalizePage(q.Page, q.PageSize)

	db := r.db.WithContext(ctx).Model(&labresult.LaboratoryResult{})
	if q.AppointmentID != nil {
		db = db.Where("appointment_id = ?", *q.AppointmentID)
	}
	if q.Status != nil {
		db = db.Where("status = ?", *q.Status)
	}
	if q.Type != nil {
		db = db.Where("type = ?", *q.Type)
	}
	if q.PatientID != nil {
		db = db.Joins("JOIN clinical.appointments a ON a.id = clinical.laboratory_results.appointment_id").
			Where("a.patient_id = ?", *q.PatientID)
	}
	if q.Search != "" {
		kw := "%" + q.Search + "%"
		db = db.Joins("JOIN clinical.appointments sa ON sa.id = clinical.laboratory_results.appointment_id").
			Joins("JOIN clinical.patients p ON p.id = sa.patient_id").
			Where("p.first_name ILIKE ? OR p.middle_name ILIKE ? OR p.last_name ILIKE ?", kw, kw, kw)
	}

	var count int64
	if err := db.Count(&count).Error; err != nil {
		return nil, fmt.Errorf("counting laboratory results: %w", err)
	}

	var results []*labresult.LaboratoryResult
	err := db.Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&results).Error
	if err != nil {
		return nil, fmt.Errorf("listing laboratory results: %w", err)
	}

	return &labresult.PagedLaboratoryResults{
		Results:    results,
		TotalCount: count,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages(count, pageSize),
	}, nil
}
