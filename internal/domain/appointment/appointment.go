package appointment

import (
	"time"

	"github.com/google/uuid"
)

// ServiceType is one of the clinic's bookable services. Five of them are
// laboratory services; approving one of those spawns a laboratory result stub.
type ServiceType string

const (
	TypeConsultation                ServiceType = "consultation"
	TypeFamilyPlanningCounseling    ServiceType = "family_planning_counseling"
	TypeNaturalMethods              ServiceType = "natural_methods"
	TypeChelationTherapy            ServiceType = "chelation_therapy"
	TypeMagneticResonanceAnalysis   ServiceType = "magnetic_resonance_analysis"
	TypeMultifunctionalTherapeutic  ServiceType = "multifunctional_high_potential_therapeutic_services"
	TypeWeightLossManagement        ServiceType = "weight_loss_management"
	TypePsychosocialCounseling      ServiceType = "psychosocial_and_spiritual_counseling"
	TypePreNatalAndPostNatal        ServiceType = "pre_natal_and_post_natal"
	TypeNormalSpontaneousDelivery   ServiceType = "normal_spontaneous_delivery"
	TypeImmunization                ServiceType = "immunization"
	TypeEarPiercing                 ServiceType = "ear_pearcing"
	TypeNebulization                ServiceType = "nebulization"
	TypeFoleyCatheterInsertion      ServiceType = "foley_catheter_insertion"
	TypeSurgicalWoundDressing       ServiceType = "surgical_wound_dressing"
	TypeCordDressing                ServiceType = "cord_dressing"
	TypeSutureRemoval               ServiceType = "suture_removal"
	TypeIssuanceOfBCNewbornScreen   ServiceType = "issuance_of_bc_newborn_screening"
	TypeGeneralOPDConsultation      ServiceType = "general_opd_consultation"
	TypeMedicalOPDConsultation      ServiceType = "medical_opd_consultation"
	TypeMinorSurgicalProcedures     ServiceType = "minor_surgical_procedures"
	TypeIssuanceOfMedicalCert       ServiceType = "issuance_of_medical_certificate"
	TypePediaAdultVaccination       ServiceType = "pedia_adult_vaccination_services"
	TypePregnancyTest               ServiceType = "pregnancy_test"
	TypePapsmear                    ServiceType = "papsmear"
	TypeCBC                         ServiceType = "cbc"
	TypeUrinalysis                  ServiceType = "urinalysis"
	TypeFecalysis                   ServiceType = "fecalysis"
)

var serviceTypeLabels = map[ServiceType]string{
	TypeConsultation:               "Consultation",
	TypeFamilyPlanningCounseling:   "Family Planning Counseling",
	TypeNaturalMethods:             "Natural Methods (Rhythm), Pills, Depotrust",
	TypeChelationTherapy:           "Chelation Therapy",
	TypeMagneticResonanceAnalysis:  "Magnetic Resonance Analysis",
	TypeMultifunctionalTherapeutic: "Multifunctional High Potential Therapeutic Services",
	TypeWeightLossManagement:       "Weight Loss Management",
	TypePsychosocialCounseling:     "Psychosocial and Spiritual Counseling",
	TypePreNatalAndPostNatal:       "Pre-Natal and Post-Natal Check Up",
	TypeNormalSpontaneousDelivery:  "Normal Spontaneous Delivery",
	TypeImmunization:               "Immunization - BCG, HEP. B Vaccines, etc.",
	TypeEarPiercing:                "Ear Piercing With Hypoallergenic Earrings",
	TypeNebulization:               "Nebulization With and Without Medication",
	TypeFoleyCatheterInsertion:     "Foley Catheter Insertion",
	TypeSurgicalWoundDressing:      "Surgical Wound Dressing",
	TypeCordDressing:               "Cord Dressing",
	TypeSutureRemoval:              "Suture Removal",
	TypeIssuanceOfBCNewbornScreen:  "Issuance of Birth Certificate; Newborn Screening",
	TypeGeneralOPDConsultation:     "General OPD Consultation",
	TypeMedicalOPDConsultation:     "Medical / OPD / Pre-Employment Consultations",
	TypeMinorSurgicalProcedures:    "Minor Surgical Procedures",
	TypeIssuanceOfMedicalCert:      "Issuance of Medical Certificate",
	TypePediaAdultVaccination:      "Pedia / Adult Immunization / Vaccination Services",
	TypePregnancyTest:              "Pregnancy Test",
	TypePapsmear:                   "Papsmear",
	TypeCBC:                        "Complete Blood Count",
	TypeUrinalysis:                 "Urinalysis",
	TypeFecalysis:                  "Fecalysis",
}

func (t ServiceType) IsValid() bool {
	_, ok := serviceTypeLabels[t]
	return ok
}

func (t ServiceType) Label() string {
	if l, ok := serviceTypeLabels[t]; ok {
		return l
	}
	return string(t)
}

// IsLaboratory reports whether the service is handled by laboratory staff
// and produces a laboratory result record on approval.
func (t ServiceType) IsLaboratory() bool {
	switch t {
	case TypePregnancyTest, TypePapsmear, TypeCBC, TypeUrinalysis, TypeFecalysis:
		return true
	}
	return false
}

// ServiceTypes returns every bookable service code.
func ServiceTypes() []ServiceType {
	types := make([]ServiceType, 0, len(serviceTypeLabels))
	for t := range serviceTypeLabels {
		types = append(types, t)
	}
	return types
}

// State transition possibilities:
//
//	pending  → approved | rejected
//	approved → completed | cancelled | no_show
//
// rejected, cancelled, completed and no_show are terminal.
// Cancellation from pending is also allowed (patient withdraws before triage).
type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
	StatusNoShow    Status = "no_show"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusCancelled, StatusCompleted, StatusNoShow:
		return true
	}
	return false
}

func (s Status) Label() string {
	switch s {
	case StatusPending:
		return "Pending"
	case StatusApproved:
		return "Approved"
	case StatusRejected:
		return "Rejected"
	case StatusCancelled:
		return "Cancelled"
	case StatusCompleted:
		return "Completed"
	case StatusNoShow:
		return "No Show"
	}
	return string(s)
}

// IsTerminal reports whether no further work is pending for the appointment.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusRejected, StatusCancelled, StatusCompleted, StatusNoShow:
		return true
	}
	return false
}

// ActiveStatuses are the statuses that count against a slot's capacity.
func ActiveStatuses() []Status {
	return []Status{StatusPending, StatusApproved, StatusCompleted}
}

// TerminalStatuses are the statuses that release a patient's single
// outstanding-appointment hold.
func TerminalStatuses() []Status {
	return []Status{StatusRejected, StatusCancelled, StatusCompleted, StatusNoShow}
}

type Appointment struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time  `gorm:"autoCreateTime;index"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime"`
	DeletedAt *time.Time `gorm:"index"`

	PatientID uuid.UUID `gorm:"column:patient_id;type:uuid;not null;index"`

	// ScheduledAt is the slot bucket: capacity is counted per exact timestamp,
	// not per overlapping window. No duration is modeled.
	ScheduledAt time.Time   `gorm:"column:scheduled_at;not null;index"`
	Type        ServiceType `gorm:"column:type;type:varchar(60);not null;index"`
	Status      Status      `gorm:"column:status;type:varchar(20);not null;default:'pending';index"`

	Complaints string `gorm:"column:complaints;type:text"`
}

func (Appointment) TableName() string {
	return "clinical.appointments"
}

func (a *Appointment) CanTransitionTo(newStatus Status) bool {
	allowed := map[Status][]Status{
		StatusPending:   {StatusApproved, StatusRejected, StatusCancelled},
		StatusApproved:  {StatusCompleted, StatusCancelled, StatusNoShow},
		StatusRejected:  {},
		StatusCancelled: {},
		StatusCompleted: {},
		StatusNoShow:    {},
	}

	for _, s := range allowed[a.Status] {
		if s == newStatus {
			return true
		}
	}
	return false
}

// IsCancellable holds while the appointment is still pending or approved and
// its slot is at least a full day away.
func (a *Appointment) IsCancellable(now time.Time) bool {
	if a.Status != StatusPending && a.Status != StatusApproved {
		return false
	}
	return !a.ScheduledAt.Before(now.Add(24 * time.Hour))
}

// IsReschedulable shares the cancellation window.
func (a *Appointment) IsReschedulable(now time.Time) bool {
	return a.IsCancellable(now)
}

func (a *Appointment) Approve() error {
	if !a.CanTransitionTo(StatusApproved) {
		return ErrInvalidStatusTransition
	}
	a.Status = StatusApproved
	return nil
}

func (a *Appointment) Reject() error {
	if !a.CanTransitionTo(StatusRejected) {
		return ErrInvalidStatusTransition
	}
	a.Status = StatusRejected
	return nil
}

func (a *Appointment) Cancel(now time.Time) error {
	if !a.IsCancellable(now) {
		return ErrNotCancellable
	}
	a.Status = StatusCancelled
	return nil
}

func (a *Appointment) Complete() error {
	if !a.CanTransitionTo(StatusCompleted) {
		return ErrInvalidStatusTransition
	}
	a.Status = StatusCompleted
	return nil
}

func (a *Appointment) MarkNoShow() error {
	if !a.CanTransitionTo(StatusNoShow) {
		return ErrInvalidStatusTransition
	}
	a.Status = StatusNoShow
	return nil
}

type CreateAppointmentCommand struct {
	PatientID   uuid.UUID
	ScheduledAt time.Time
	Type        ServiceType
	Complaints  string
}

type RescheduleAppointmentCommand struct {
	ScheduledAt time.Time
	Complaints  *string
}

type ListAppointmentsQuery struct {
	PatientID *uuid.UUID
	Status    *Status
	Type      *ServiceType
	DateFrom  *time.Time
	DateTo    *time.Time
	Search    string // patient name keyword
	Archived  bool
	Page      int
	PageSize  int
}

type PagedAppointments struct {
	Appointments []*Appointment
	TotalCount   int64
	Page         int
	PageSize     int
	TotalPages   int
}
