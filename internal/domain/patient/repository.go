package patient

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	// Create persists a new patient record.
	Create(ctx context.Context, p *Patient) error

	// GetByID retrieves a patient by primary key. Returns ErrPatientNotFound if not found.
	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)

	// GetByUserID retrieves the patient linked to a login account.
	GetByUserID(ctx context.Context, userID uuid.UUID) (*Patient, error)

	// Update applies partial updates to an existing patient record.
	Update(ctx context.Context, id uuid.UUID, cmd *UpdatePatientCommand) (*Patient, error)

	// SoftDelete archives the patient; staff can restore or purge later.
	SoftDelete(ctx context.Context, id uuid.UUID) error
	Restore(ctx context.Context, id uuid.UUID) error
	HardDelete(ctx context.Context, id uuid.UUID) error

	// List returns a paginated, keyword-filtered list of patients.
	List(ctx context.Context, q *ListPatientsQuery) (*PagedPatients, error)
}
