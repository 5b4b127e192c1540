package labresult

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, r *LaboratoryResult) error
	GetByID(ctx context.Context, id uuid.UUID) (*LaboratoryResult, error)
	Save(ctx context.Context, r *LaboratoryResult) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, q *ListLaboratoryResultsQuery) (*PagedLaboratoryResults, error)

	// ExistsForAppointment reports whether the appointment already has a
	// laboratory result on file.
	ExistsForAppointment(ctx context.Context, appointmentID uuid.UUID) (bool, error)

	// ExistsReleasedForAppointment only counts results with an attached file.
	// A pending stub created on approval is not a rendered service.
	ExistsReleasedForAppointment(ctx context.Context, appointmentID uuid.UUID) (bool, error)
}
