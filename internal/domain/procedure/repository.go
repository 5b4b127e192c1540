package procedure

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, p *Procedure) error

	// ListByAppointment returns the appointment's procedures oldest first,
	// the order they were performed in.
	ListByAppointment(ctx context.Context, appointmentID uuid.UUID) ([]*Procedure, error)
}
