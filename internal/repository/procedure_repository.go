package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lawrencemontaril/noynay-app/internal/domain/procedure"
)

type ProcedureRepository struct {
	db *gorm.DB
}

func NewProcedureRepository(db *gorm.DB) *ProcedureRepository {
	return &ProcedureRepository{db: db}
}

func (r *ProcedureRepository) Create(ctx context.Context, p *procedure.Procedure) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *ProcedureRepository) ListByAppointment(ctx context.Context, appointmentID uuid.UUID) ([]*procedure.Procedure, error) {
	var procs []*procedure.Procedure
	err := r.db.WithContext(ctx).
		Where("appointment_id = ?", appointmentID).
		Order("created_at ASC").
		Find(&procs).Error
	if err != nil {
		return nil, fmt.Errorf("listing procedures: %w", err)
	}
	return procs, nil
}
