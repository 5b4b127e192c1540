// Package policy holds the clinic's role/action authorization table.
// Ownership of patient-scoped resources is enforced in the services; this
// table only answers whether a role may attempt an action at all.
package policy

import "github.com/lawrencemontaril/noynay-app/internal/domain"

type Action string

const (
	AppointmentView        Action = "appointments.view"
	AppointmentCreate      Action = "appointments.create"
	AppointmentApprove     Action = "appointments.approve"
	AppointmentReject      Action = "appointments.reject"
	AppointmentReschedule  Action = "appointments.reschedule"
	AppointmentCancel      Action = "appointments.cancel"
	AppointmentNoShow      Action = "appointments.no_show"
	AppointmentArchive     Action = "appointments.archive"
	AppointmentRestore     Action = "appointments.restore"
	AppointmentForceDelete Action = "appointments.force_delete"

	PatientView        Action = "patients.view"
	PatientCreate      Action = "patients.create"
	PatientUpdate      Action = "patients.update"
	PatientArchive     Action = "patients.archive"
	PatientRestore     Action = "patients.restore"
	PatientForceDelete Action = "patients.force_delete"

	ConsultationView   Action = "consultations.view"
	ConsultationCreate Action = "consultations.create"
	ConsultationUpdate Action = "consultations.update"
	ConsultationDelete Action = "consultations.delete"

	ProcedureView   Action = "procedures.view"
	ProcedureCreate Action = "procedures.create"

	LabResultView   Action = "laboratory_results.view"
	LabResultCreate Action = "laboratory_results.create"
	LabResultUpdate Action = "laboratory_results.update"
	LabResultDelete Action = "laboratory_results.delete"

	InvoiceView   Action = "invoices.view"
	InvoiceCreate Action = "invoices.create"
	InvoiceUpdate Action = "invoices.update"
	InvoiceDelete Action = "invoices.delete"
	PaymentCreate Action = "payments.create"
	PaymentDelete Action = "payments.delete"

	UserManage    Action = "users.manage"
	SettingView   Action = "settings.view"
	SettingUpdate Action = "settings.update"
	ReportView    Action = "reports.view"
	AuditView     Action = "audit.view"
)

// grants lists what each role may do beyond what every authenticated user
// gets (own notifications, own password). Admin and system_admin share the
// clinic-wide surface; system_admin alone owns user management, restores
// and permanent deletes.
var grants = map[domain.Role][]Action{
	domain.RoleAdmin: {
		AppointmentView, AppointmentCreate, AppointmentApprove, AppointmentReject,
		AppointmentReschedule, AppointmentCancel, AppointmentNoShow, AppointmentArchive,
		PatientView, PatientCreate, PatientUpdate, PatientArchive,
		ConsultationView, ProcedureView, ProcedureCreate, LabResultView,
		InvoiceView, ReportView,
		SettingView, SettingUpdate,
	},
	domain.RoleSystemAdmin: {
		AppointmentView, AppointmentCreate, AppointmentApprove, AppointmentReject,
		AppointmentReschedule, AppointmentCancel, AppointmentNoShow, AppointmentArchive,
		AppointmentRestore, AppointmentForceDelete,
		PatientView, PatientCreate, PatientUpdate, PatientArchive,
		PatientRestore, PatientForceDelete,
		ConsultationView, ConsultationDelete,
		ProcedureView, ProcedureCreate,
		LabResultView, LabResultDelete,
		InvoiceView, InvoiceDelete, PaymentDelete,
		ReportView, AuditView,
		SettingView, SettingUpdate,
		UserManage,
	},
	domain.RoleDoctor: {
		AppointmentView,
		PatientView,
		ConsultationView, ConsultationCreate, ConsultationUpdate,
		ProcedureView, ProcedureCreate,
		LabResultView,
	},
	domain.RoleLaboratoryStaff: {
		AppointmentView,
		PatientView,
		LabResultView, LabResultCreate, LabResultUpdate,
	},
	domain.RoleCashier: {
		AppointmentView,
		PatientView,
		ProcedureView,
		InvoiceView, InvoiceCreate, InvoiceUpdate,
		PaymentCreate,
		ReportView,
	},
	domain.RolePatient: {
		// Ownership-checked in the services: a patient only ever reaches
		// their own records.
		AppointmentView, AppointmentCreate, AppointmentReschedule, AppointmentCancel,
		PatientView, PatientUpdate,
		ConsultationView, ProcedureView, LabResultView, InvoiceView,
	},
}

var table = buildTable()

func buildTable() map[domain.Role]map[Action]struct{} {
	t := make(map[domain.Role]map[Action]struct{}, len(grants))
	for role, actions := range grants {
		set := make(map[Action]struct{}, len(actions))
		for _, a := range actions {
			set[a] = struct{}{}
		}
		t[role] = set
	}
	return t
}

// Can reports whether the role is granted the action.
func Can(role domain.Role, action Action) bool {
	set, ok := table[role]
	if !ok {
		return false
	}
	_, ok = set[action]
	return ok
}

// AllowedRoles returns every role granted the action, for route guards that
// take a role list.
func AllowedRoles(action Action) []domain.Role {
	var roles []domain.Role
	for role, set := range table {
		if _, ok := set[action]; ok {
			roles = append(roles, role)
		}
	}
	return roles
}
