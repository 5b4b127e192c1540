package consultation

import (
	"time"

	"github.com/google/uuid"

	"github.com/lawrencemontaril/noynay-app/internal/domain/appointment"
)

// Vitals captured during the consultation. All measurements are optional;
// a counseling-type visit may record none.
type Vitals struct {
	Systolic         *int     `json:"systolic"`
	Diastolic        *int     `json:"diastolic"`
	HeartRate        *int     `json:"heart_rate"`
	RespiratoryRate  *int     `json:"respiratory_rate"`
	WeightKg         *float64 `json:"weight_kg"`
	HeightCm         *float64 `json:"height_cm"`
	TemperatureC     *float64 `json:"temperature_c"`
	OxygenSaturation *float64 `json:"oxygen_saturation"`
}

type Consultation struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time `gorm:"autoCreateTime;index"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`

	AppointmentID uuid.UUID `gorm:"column:appointment_id;type:uuid;not null;index"`

	Type appointment.ServiceType `gorm:"column:type;type:varchar(60);not null"`

	ChiefComplaints string `gorm:"column:chief_complaints;type:text;not null"`
	Assessment      string `gorm:"column:assessment;type:text;not null"`
	Plan            string `gorm:"column:plan;type:text;not null"`

	Vitals Vitals `gorm:"embedded"`
}

func (Consultation) TableName() string {
	return "clinical.consultations"
}

// BMI returns the body mass index when both weight and height were recorded.
func (c *Consultation) BMI() *float64 {
	if c.Vitals.WeightKg == nil || c.Vitals.HeightCm == nil || *c.Vitals.HeightCm == 0 {
		return nil
	}
	m := *c.Vitals.HeightCm / 100
	bmi := *c.Vitals.WeightKg / (m * m)
	return &bmi
}

type CreateConsultationCommand struct {
	AppointmentID   uuid.UUID
	Type            appointment.ServiceType
	ChiefComplaints string
	Assessment      string
	Plan            string
	Vitals          Vitals
}

type UpdateConsultationCommand struct {
	ChiefComplaints *string
	Assessment      *string
	Plan            *string
	Vitals          *Vitals
}

type ListConsultationsQuery struct {
	AppointmentID *uuid.UUID
	PatientID     *uuid.UUID
	Search        string
	Page          int
	PageSize      int
}

type PagedConsultations struct {
	Consultations []*Consultation
	TotalCount    int64
	Page          int
	PageSize      int
	TotalPages    int
}
