package setting

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrSettingNotFound = errors.New("settings record not found")

// Setting is the single row of admin-tunable business constants.
type Setting struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`

	MaxAppointmentPerSlot  int     `gorm:"column:max_appointment_per_slot;not null;default:1"`
	VATPercent             float64 `gorm:"column:vat_percent;type:numeric(5,2);not null;default:12"`
	SpecialDiscountPercent float64 `gorm:"column:special_discount_percent;type:numeric(5,2);not null;default:20"`
}

func (Setting) TableName() string {
	return "clinical.settings"
}

// Defaults returns the settings used when no row has been persisted yet.
func Defaults() *Setting {
	return &Setting{
		MaxAppointmentPerSlot:  1,
		VATPercent:             12,
		SpecialDiscountPercent: 20,
	}
}

type UpdateSettingCommand struct {
	MaxAppointmentPerSlot  *int
	VATPercent             *float64
	SpecialDiscountPercent *float64
}
