package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lawrencemontaril/noynay-app/internal/domain/patient"
)

type PatientRepository struct {
	db *gorm.DB
}

func NewPatientRepository(db *gorm.DB) *PatientRepository {
	return &PatientRepository{db: db}
}

func (r *PatientRepository) Create(ctx context.Context, p *patient.Patient) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *PatientRepository) GetByID(ctx context.Context, id uuid.UUID) (*patient.Patient, error) {
	var p patient.Patient
	err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, patient.ErrPatientNotFound
		}
		return nil, fmt.Errorf("fetching patient: %w", err)
	}
	return &p, nil
}

func (r *PatientRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*patient.Patient, error) {
	var p patient.Patient
	err := r.db.WithContext(ctx).First(&p, "user_id = ?", userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, patient.ErrPatientNotFound
		}
		return nil, fmt.Errorf("fetching patient by user: %w", err)
	}
	return &p, nil
}

func (r *PatientRepository) Update(ctx context.Context, id uuid.UUID, cmd *patient.UpdatePatientCommand) (*patient.Patient, error) {
	p, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if cmd.FirstName != nil {
		p.FirstName = *cmd.FirstName
	}
	if cmd.MiddleName != nil {
		p.MiddleName = *cmd.MiddleName
	}
	if cmd.LastName != nil {
		p.LastName = *cmd.LastName
	}
	if cmd.Gender != nil {
		p.Gender = *cmd.Gender
	}
	if cmd.CivilStatus != nil {
		p.CivilStatus = *cmd.CivilStatus
	}
	if cmd.Birthdate != nil {
		p.Birthdate = *cmd.Birthdate
	}
	if cmd.ContactNumber != nil {
		p.ContactNumber = *cmd.ContactNumber
	}
	if cmd.Address != nil {
		p.Address = *cmd.Address
	}

	if err := r.db.WithContext(ctx).Save(p).Error; err != nil {
		return nil, fmt.Errorf("updating patient: %w", err)
	}
	return p, nil
}

func (r *PatientRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Model(&patient.Patient{}).
		Where("id = ? AND deleted_at IS NULL", id).
		Update("deleted_at", time.Now())
	if res.Error != nil {
		return fmt.Errorf("archiving patient: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return patient.ErrPatientNotFound
	}
	return nil
}

func (r *PatientRepository) Restore(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Model(&patient.Patient{}).
		Where("id = ?", id).
		Update("deleted_at", nil)
	if res.Error != nil {
		return fmt.Errorf("restoring patient: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return patient.ErrPatientNotFound
	}
	return nil
}

func (r *PatientRepository) HardDelete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&patient.Patient{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("deleting patient: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return patient.ErrPatientNotFound
	}
	return nil
}

func (r *PatientRepository) List(ctx context.Context, q *patient.ListPatientsQuery) (*patient.PagedPatients, error) {
	page, pageSize := normalizePage(q.Page, q.PageSize)

	db := r.db.WithContext(ctx).Model(&patient.Patient{})
	if q.Archived {
		db = db.Where("deleted_at IS NOT NULL")
	} else {
		db = db.Where("deleted_at IS NULL")
	}
	if q.Search != "" {
		kw := "%" + q.Search + "%"
		db = db.Where(
			"first_name ILIKE ? OR middle_name ILIKE ? OR last_name ILIKE ? OR concat_ws(' ', first_name, middle_name, last_name) ILIKE ?",
			kw, kw, kw, kw,
		)
	}

	var count int64
	if err := db.Count(&count).Error; err != nil {
		return nil, fmt.Errorf("counting patients: %w", err)
	}

	var patients []*patient.Patient
	err := db.Order("last_name ASC, first_name ASC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&patients).Error
	if err != nil {
		return nil, fmt.Errorf("listing patients: %w", err)
	}

	return &patient.PagedPatients{
		Patients:   patients,
		TotalCount: count,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages(count, pageSize),
	}, nil
}
