package appointment

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	Save(ctx context.Context, a *Appointment) error
	List(ctx context.Context, q *ListAppointmentsQuery) (*PagedAppointments, error)

	// CountAtSlot counts appointments scheduled at exactly the given timestamp
	// with a status that holds slot capacity (pending, approved, completed),
	// optionally excluding one appointment during reschedule.
	CountAtSlot(ctx context.Context, scheduledAt time.Time, excludeID *uuid.UUID) (int64, error)

	// HasNonTerminal reports whether the patient holds an appointment that is
	// neither rejected, cancelled, completed nor no_show.
	HasNonTerminal(ctx context.Context, patientID uuid.UUID, excludeID *uuid.UUID) (bool, error)

	// SoftDelete archives the appointment; Restore brings it back;
	// HardDelete removes it permanently.
	SoftDelete(ctx context.Context, id uuid.UUID) error
	Restore(ctx context.Context, id uuid.UUID) error
	HardDelete(ctx context.Context, id uuid.UUID) error
}
