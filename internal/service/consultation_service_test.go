package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lawrencemontaril/noynay-app/internal/domain"
	"github.com/lawrencemontaril/noynay-app/internal/domain/appointment"
	"github.com/lawrencemontaril/noynay-app/internal/domain/consultation"
	"github.com/lawrencemontaril/noynay-app/internal/domain/labresult"
)

func newConsultationFixture(t *testing.T) (*ConsultationService, *fakeConsultRepo, *fakeAppointmentRepo, *fakePatientRepo, *fakeLabRepo, *fakeInvoiceRepo, *fakeNotifier) {
	t.Helper()
	repo := newFakeConsultRepo()
	appointments := newFakeAppointmentRepo()
	patients := newFakePatientRepo()
	labs := newFakeLabRepo()
	invoices := newFakeInvoiceRepo()
	notifier := &fakeNotifier{}

	svc := NewConsultationService(repo, appointments, patients, labs, invoices, notifier, newTestAudit(t), zap.NewNop())
	return svc, repo, appointments, patients, labs, invoices, notifier
}

func seedVisit(t *testing.T, appointments *fakeAppointmentRepo, patients *fakePatientRepo) *appointment.Appointment {
	t.Helper()
	p := mustCreatePatient(t, patients, "Ana", "Reyes")
	a := &appointment.Appointment{
		PatientID:   p.ID,
		ScheduledAt: time.Date(2026, 9, 14, 10, 0, 0, 0, time.UTC),
		Type:        appointment.TypeConsultation,
		Status:      appointment.StatusApproved,
	}
	if err := appointments.Create(context.Background(), a); err != nil {
		t.Fatal(err)
	}
	return a
}

func consultationCommand(appointmentID uuid.UUID) *consultation.CreateConsultationCommand {
	return &consultation.CreateConsultationCommand{
		AppointmentID:   appointmentID,
		ChiefComplaints: "Persistent cough for two weeks",
		Assessment:      "Acute bronchitis",
		Plan:            "Rest, fluids, follow up in one week",
	}
}

func TestFirstConsultationAlertsCashiers(t *testing.T) {
	svc, _, appointments, patients, _, _, notifier := newConsultationFixture(t)
	a := seedVisit(t, appointments, patients)

	c, err := svc.Create(context.Background(), consultationCommand(a.ID), uuid.New(), domain.RoleDoctor, "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if c.Type != appointment.TypeConsultation {
		t.Errorf("type = %s, want inherited from appointment", c.Type)
	}

	cashier := notifier.roleCalls(domain.RoleCashier)
	if len(cashier) != 1 {
		t.Fatalf("cashier notifications = %d, want 1", len(cashier))
	}
	if cashier[0].message != "Pending invoice for Ana Reyes." {
		t.Errorf("cashier message = %q", cashier[0].message)
	}

	pc := notifier.patientCalls()
	if len(pc) != 1 {
		t.Fatalf("patient notifications = %d, want 1", len(pc))
	}
	if pc[0].message != "A consultation record for your Consultation appointment is now available." {
		t.Errorf("patient message = %q", pc[0].message)
	}
}

func TestSecondConsultationDoesNotRepeatCashierAlert(t *testing.T) {
	svc, _, appointments, patients, _, _, notifier := newConsultationFixture(t)
	a := seedVisit(t, appointments, patients)

	for i := 0; i < 2; i++ {
		if _, err := svc.Create(context.Background(), consultationCommand(a.ID), uuid.New(), domain.RoleDoctor, ""); err != nil {
			t.Fatalf("Create %d: %v", i, err)
		}
	}

	if got := notifier.roleCalls(domain.RoleCashier); len(got) != 1 {
		t.Fatalf("cashier notifications = %d, want 1", len(got))
	}
	if got := notifier.patientCalls(); len(got) != 2 {
		t.Fatalf("patient notifications = %d, want 2", len(got))
	}
}

func TestConsultationAfterReleasedResultStaysQuiet(t *testing.T) {
	svc, _, appointments, patients, labs, _, notifier := newConsultationFixture(t)
	a := seedVisit(t, appointments, patients)

	r := &labresult.LaboratoryResult{
		AppointmentID:   a.ID,
		Type:            labresult.TypeCBC,
		ResultsFilePath: "laboratory_results/done.pdf",
	}
	r.SyncStatus()
	if err := labs.Create(context.Background(), r); err != nil {
		t.Fatal(err)
	}

	if _, err := svc.Create(context.Background(), consultationCommand(a.ID), uuid.New(), domain.RoleDoctor, ""); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if got := notifier.roleCalls(domain.RoleCashier); len(got) != 0 {
		t.Fatalf("cashier notifications = %d, want 0", len(got))
	}
}

func TestCreateConsultationRequiresClinicalFields(t *testing.T) {
	svc, _, appointments, patients, _, _, _ := newConsultationFixture(t)
	a := seedVisit(t, appointments, patients)

	tests := []struct {
		field  string
		mutate func(cmd *consultation.CreateConsultationCommand)
	}{
		{"chief_complaints", func(cmd *consultation.CreateConsultationCommand) { cmd.ChiefComplaints = "" }},
		{"assessment", func(cmd *consultation.CreateConsultationCommand) { cmd.Assessment = "" }},
		{"plan", func(cmd *consultation.CreateConsultationCommand) { cmd.Plan = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			cmd := consultationCommand(a.ID)
			tt.mutate(cmd)
			_, err := svc.Create(context.Background(), cmd, uuid.New(), domain.RoleDoctor, "")
			fieldError(t, err, tt.field)
		})
	}
}

func TestConsultationGetEnforcesOwnershipForPatients(t *testing.T) {
	svc, _, appointments, patients, _, _, _ := newConsultationFixture(t)
	a := seedVisit(t, appointments, patients)

	c, err := svc.Create(context.Background(), consultationCommand(a.ID), uuid.New(), domain.RoleDoctor, "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := svc.Get(context.Background(), c.ID, domain.RolePatient, &a.PatientID); err != nil {
		t.Fatalf("owner get: %v", err)
	}
	other := uuid.New()
	if _, err := svc.Get(context.Background(), c.ID, domain.RolePatient, &other); err != ErrForbidden {
		t.Fatalf("err = %v, want ErrForbidden", err)
	}
}
