package policy

import (
	"testing"

	"github.com/lawrencemontaril/noynay-app/internal/domain"
)

func TestCan(t *testing.T) {
	tests := []struct {
		name   string
		role   domain.Role
		action Action
		want   bool
	}{
		{"admin approves appointments", domain.RoleAdmin, AppointmentApprove, true},
		{"admin cannot restore", domain.RoleAdmin, AppointmentRestore, false},
		{"admin cannot force delete patients", domain.RoleAdmin, PatientForceDelete, false},
		{"admin cannot manage users", domain.RoleAdmin, UserManage, false},
		{"admin cannot view audit log", domain.RoleAdmin, AuditView, false},
		{"system admin manages users", domain.RoleSystemAdmin, UserManage, true},
		{"system admin restores appointments", domain.RoleSystemAdmin, AppointmentRestore, true},
		{"system admin deletes payments", domain.RoleSystemAdmin, PaymentDelete, true},
		{"system admin views audit log", domain.RoleSystemAdmin, AuditView, true},
		{"doctor writes consultations", domain.RoleDoctor, ConsultationCreate, true},
		{"doctor cannot delete consultations", domain.RoleDoctor, ConsultationDelete, false},
		{"doctor cannot approve appointments", domain.RoleDoctor, AppointmentApprove, false},
		{"doctor cannot touch invoices", domain.RoleDoctor, InvoiceView, false},
		{"doctor records procedures", domain.RoleDoctor, ProcedureCreate, true},
		{"cashier views procedures", domain.RoleCashier, ProcedureView, true},
		{"cashier cannot record procedures", domain.RoleCashier, ProcedureCreate, false},
		{"patient cannot record procedures", domain.RolePatient, ProcedureCreate, false},
		{"lab staff uploads results", domain.RoleLaboratoryStaff, LabResultCreate, true},
		{"lab staff cannot delete results", domain.RoleLaboratoryStaff, LabResultDelete, false},
		{"cashier records payments", domain.RoleCashier, PaymentCreate, true},
		{"cashier cannot remove payments", domain.RoleCashier, PaymentDelete, false},
		{"cashier views reports", domain.RoleCashier, ReportView, true},
		{"cashier cannot update settings", domain.RoleCashier, SettingUpdate, false},
		{"patient books appointments", domain.RolePatient, AppointmentCreate, true},
		{"patient cancels appointments", domain.RolePatient, AppointmentCancel, true},
		{"patient cannot approve", domain.RolePatient, AppointmentApprove, false},
		{"patient views own invoices", domain.RolePatient, InvoiceView, true},
		{"patient cannot create invoices", domain.RolePatient, InvoiceCreate, false},
		{"unknown role denied", domain.Role("janitor"), AppointmentView, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Can(tt.role, tt.action); got != tt.want {
				t.Fatalf("Can(%s, %s) = %v, want %v", tt.role, tt.action, got, tt.want)
			}
		})
	}
}

func TestAllowedRoles(t *testing.T) {
	roles := AllowedRoles(UserManage)
	if len(roles) != 1 || roles[0] != domain.RoleSystemAdmin {
		t.Fatalf("AllowedRoles(UserManage) = %v, want [system_admin]", roles)
	}

	got := map[domain.Role]bool{}
	for _, r := range AllowedRoles(InvoiceCreate) {
		got[r] = true
	}
	if len(got) != 1 || !got[domain.RoleCashier] {
		t.Fatalf("AllowedRoles(InvoiceCreate) = %v, want [cashier]", got)
	}

	if len(AllowedRoles(AppointmentView)) != len(grants) {
		t.Fatalf("every role should view appointments, got %v", AllowedRoles(AppointmentView))
	}
}
