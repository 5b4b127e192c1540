package procedure

import (
	"time"

	"github.com/google/uuid"
)

// Procedure is a single clinical procedure performed during a visit,
// recorded against the appointment for later billing.
type Procedure struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time `gorm:"autoCreateTime;index"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`

	AppointmentID uuid.UUID `gorm:"column:appointment_id;type:uuid;not null;index"`

	Description string `gorm:"column:description;type:varchar(255);not null"`
	Quantity    int    `gorm:"column:quantity;not null"`
}

func (Procedure) TableName() string {
	return "clinical.procedures"
}

type CreateProcedureCommand struct {
	AppointmentID uuid.UUID
	Description   string
	Quantity      int
}
