package labresult

import (
	"time"

	"github.com/google/uuid"
)

type TestType string

const (
	TypePregnancyTest TestType = "pregnancy_test"
	TypePapsmear      TestType = "papsmear"
	TypeCBC           TestType = "cbc"
	TypeUrinalysis    TestType = "urinalysis"
	TypeFecalysis     TestType = "fecalysis"
)

func (t TestType) IsValid() bool {
	switch t {
	case TypePregnancyTest, TypePapsmear, TypeCBC, TypeUrinalysis, TypeFecalysis:
		return true
	}
	return false
}

func (t TestType) Label() string {
	switch t {
	case TypePregnancyTest:
		return "Pregnancy Test"
	case TypePapsmear:
		return "Papsmear"
	case TypeCBC:
		return "Complete Blood Count"
	case TypeUrinalysis:
		return "Urinalysis"
	case TypeFecalysis:
		return "Fecalysis"
	}
	return string(t)
}

// Status is derived from the presence of a results file: pending until a file
// is attached, released afterwards.
type Status string

const (
	StatusPending  Status = "pending"
	StatusReleased Status = "released"
)

func (s Status) Label() string {
	switch s {
	case StatusPending:
		return "Pending"
	case StatusReleased:
		return "Released"
	}
	return string(s)
}

type LaboratoryResult struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time `gorm:"autoCreateTime;index"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`

	AppointmentID uuid.UUID `gorm:"column:appointment_id;type:uuid;not null;index"`

	Type        TestType `gorm:"column:type;type:varchar(30);not null;index"`
	Description string   `gorm:"column:description;type:text"`
	Status      Status   `gorm:"column:status;type:varchar(15);not null;default:'pending';index"`

	ResultsFilePath string `gorm:"column:results_file_path;type:varchar(255)"`
}

func (LaboratoryResult) TableName() string {
	return "clinical.laboratory_results"
}

// IsReleased reports whether a results file has been attached.
func (r *LaboratoryResult) IsReleased() bool {
	return r.ResultsFilePath != ""
}

// SyncStatus derives the status from the attached-file state.
func (r *LaboratoryResult) SyncStatus() {
	if r.IsReleased() {
		r.Status = StatusReleased
	} else {
		r.Status = StatusPending
	}
}

type CreateLaboratoryResultCommand struct {
	AppointmentID   uuid.UUID
	Type            TestType
	Description     string
	ResultsFilePath string
}

type UpdateLaboratoryResultCommand struct {
	Description     *string
	Type            *TestType
	ResultsFilePath *string
}

type ListLaboratoryResultsQuery struct {
	AppointmentID *uuid.UUID
	PatientID     *uuid.UUID
	Status        *Status
	Type          *TestType
	Search        string
	Page          int
	PageSize      int
}

type PagedLaboratoryResults struct {
	Results    []*LaboratoryResult
	TotalCount int64
	Page       int
	PageSize   int
	TotalPages int
}
