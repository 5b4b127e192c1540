package patient

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

func (g Gender) IsValid() bool {
	return g == GenderMale || g == GenderFemale
}

func (g Gender) Label() string {
	switch g {
	case GenderMale:
		return "Male"
	case GenderFemale:
		return "Female"
	}
	return string(g)
}

type CivilStatus string

const (
	CivilStatusSingle    CivilStatus = "single"
	CivilStatusMarried   CivilStatus = "married"
	CivilStatusWidowed   CivilStatus = "widowed"
	CivilStatusDivorced  CivilStatus = "divorced"
	CivilStatusSeparated CivilStatus = "separated"
)

func (c CivilStatus) IsValid() bool {
	switch c {
	case CivilStatusSingle, CivilStatusMarried, CivilStatusWidowed, CivilStatusDivorced, CivilStatusSeparated:
		return true
	}
	return false
}

func (c CivilStatus) Label() string {
	switch c {
	case CivilStatusSingle:
		return "Single"
	case CivilStatusMarried:
		return "Married"
	case CivilStatusWidowed:
		return "Widowed"
	case CivilStatusDivorced:
		return "Divorced"
	case CivilStatusSeparated:
		return "Separated"
	}
	return string(c)
}

type Patient struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time  `gorm:"autoCreateTime;index"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime"`
	DeletedAt *time.Time `gorm:"index"` // Soft delete (archive)

	// Optional link to the patient's own login account.
	UserID *uuid.UUID `gorm:"column:user_id;type:uuid;uniqueIndex"`

	FirstName  string `gorm:"column:first_name;type:varchar(100);not null"`
	MiddleName string `gorm:"column:middle_name;type:varchar(100)"`
	LastName   string `gorm:"column:last_name;type:varchar(100);not null"`

	Gender      Gender      `gorm:"column:gender;type:varchar(10);not null"`
	CivilStatus CivilStatus `gorm:"column:civil_status;type:varchar(20);not null"`
	Birthdate   time.Time   `gorm:"column:birthdate;not null"`

	ContactNumber string `gorm:"column:contact_number;type:varchar(30);not null"`
	Address       string `gorm:"column:address;type:text;not null"`
}

func (Patient) TableName() string {
	return "clinical.patients"
}

func (p *Patient) FullName() string {
	parts := []string{p.FirstName}
	if p.MiddleName != "" {
		parts = append(parts, p.MiddleName)
	}
	parts = append(parts, p.LastName)
	return strings.Join(parts, " ")
}

func (p *Patient) Age(now time.Time) int {
	years := now.Year() - p.Birthdate.Year()
	if now.Month() < p.Birthdate.Month() ||
		(now.Month() == p.Birthdate.Month() && now.Day() < p.Birthdate.Day()) {
		years--
	}
	return years
}

func (p *Patient) IsArchived() bool {
	return p.DeletedAt != nil
}

type CreatePatientCommand struct {
	UserID        *uuid.UUID
	FirstName     string
	MiddleName    string
	LastName      string
	Gender        Gender
	CivilStatus   CivilStatus
	Birthdate     time.Time
	ContactNumber string
	Address       string
}

type UpdatePatientCommand struct {
	FirstName     *string
	MiddleName    *string
	LastName      *string
	Gender        *Gender
	CivilStatus   *CivilStatus
	Birthdate     *time.Time
	ContactNumber *string
	Address       *string
}

type ListPatientsQuery struct {
	Search   string // keyword over first/middle/last name
	Archived bool
	Page     int
	PageSize int
}

type PagedPatients struct {
	Patients   []*Patient
	TotalCount int64
	Page       int
	PageSize   int
	TotalPages int
}
