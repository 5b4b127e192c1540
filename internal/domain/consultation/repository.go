package consultation

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, c *Consultation) error
	GetByID(ctx context.Context, id uuid.UUID) (*Consultation, error)
	Update(ctx context.Context, id uuid.UUID, cmd *UpdateConsultationCommand) (*Consultation, error)
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, q *ListConsultationsQuery) (*PagedConsultations, error)

	// ExistsForAppointment reports whether the appointment already has at
	// least one consultation on file.
	ExistsForAppointment(ctx context.Context, appointmentID uuid.UUID) (bool, error)
}
