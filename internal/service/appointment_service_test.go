package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lawrencemontaril/noynay-app/internal/domain"
	"github.com/lawrencemontaril/noynay-app/internal/domain/appointment"
	"github.com/lawrencemontaril/noynay-app/internal/domain/labresult"
	"github.com/lawrencemontaril/noynay-app/internal/domain/patient"
	"github.com/lawrencemontaril/noynay-app/internal/domain/setting"
)

func newAppointmentFixture(t *testing.T, maxPerSlot int) (*AppointmentService, *fakeAppointmentRepo, *fakePatientRepo, *fakeLabRepo, *fakeNotifier) {
	t.Helper()
	repo := newFakeAppointmentRepo()
	patients := newFakePatientRepo()
	labs := newFakeLabRepo()
	notifier := &fakeNotifier{}
	settings := &fakeSettings{cfg: setting.Setting{MaxAppointmentPerSlot: maxPerSlot, VATPercent: 12, SpecialDiscountPercent: 20}}

	svc := NewAppointmentService(repo, patients, labs, settings, notifier, newTestAudit(t), nil, zap.NewNop())
	return svc, repo, patients, labs, notifier
}

func mustCreatePatient(t *testing.T, repo *fakePatientRepo, first, last string) *patient.Patient {
	t.Helper()
	p := &patient.Patient{FirstName: first, LastName: last}
	if err := repo.Create(context.Background(), p); err != nil {
		t.Fatal(err)
	}
	return p
}

func fieldError(t *testing.T, err error, field string) string {
	t.Helper()
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("error = %v, want *ValidationError", err)
	}
	msg, ok := ve.Fields[field]
	if !ok {
		t.Fatalf("no error recorded for field %q: %v", field, ve.Fields)
	}
	return msg
}

func TestCreateAppointmentNotifiesAdmins(t *testing.T) {
	svc, _, patients, _, notifier := newAppointmentFixture(t, 1)
	p := mustCreatePatient(t, patients, "Maria", "Santos")
	slot := time.Date(2026, 9, 14, 10, 0, 0, 0, time.UTC)

	a, err := svc.Create(context.Background(), &appointment.CreateAppointmentCommand{
		PatientID:   p.ID,
		ScheduledAt: slot,
		Type:        appointment.TypeConsultation,
	}, uuid.New(), domain.RoleAdmin, nil, "127.0.0.1")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if a.Status != appointment.StatusPending {
		t.Errorf("Status = %s, want pending", a.Status)
	}

	admin := notifier.roleCalls(domain.RoleAdmin)
	if len(admin) != 1 {
		t.Fatalf("admin notifications = %d, want 1", len(admin))
	}
	want := "Maria Santos booked a new appointment on September 14, 2026 10:00 AM."
	if admin[0].message != want {
		t.Errorf("message = %q, want %q", admin[0].message, want)
	}
	if admin[0].link != "/admin/appointments?id="+a.ID.String() {
		t.Errorf("link = %q", admin[0].link)
	}
}

func TestCreateAppointmentSlotFull(t *testing.T) {
	svc, _, patients, _, _ := newAppointmentFixture(t, 1)
	first := mustCreatePatient(t, patients, "Ana", "Reyes")
	second := mustCreatePatient(t, patients, "Jose", "Cruz")
	slot := time.Date(2026, 9, 14, 10, 0, 0, 0, time.UTC)

	if _, err := svc.Create(context.Background(), &appointment.CreateAppointmentCommand{
		PatientID: first.ID, ScheduledAt: slot, Type: appointment.TypeConsultation,
	}, uuid.New(), domain.RoleAdmin, nil, ""); err != nil {
		t.Fatalf("first booking: %v", err)
	}

	_, err := svc.Create(context.Background(), &appointment.CreateAppointmentCommand{
		PatientID: second.ID, ScheduledAt: slot, Type: appointment.TypeConsultation,
	}, uuid.New(), domain.RoleAdmin, nil, "")

	msg := fieldError(t, err, "scheduled_at")
	if msg != "The selected date and time has reached the maximum number of appointments." {
		t.Errorf("message = %q", msg)
	}
}

func TestCreateAppointmentHigherCapacityAllowsSecondBooking(t *testing.T) {
	svc, _, patients, _, _ := newAppointmentFixture(t, 2)
	first := mustCreatePatient(t, patients, "Ana", "Reyes")
	second := mustCreatePatient(t, patients, "Jose", "Cruz")
	slot := time.Date(2026, 9, 14, 10, 0, 0, 0, time.UTC)

	for _, p := range []*patient.Patient{first, second} {
		if _, err := svc.Create(context.Background(), &appointment.CreateAppointmentCommand{
			PatientID: p.ID, ScheduledAt: slot, Type: appointment.TypeConsultation,
		}, uuid.New(), domain.RoleAdmin, nil, ""); err != nil {
			t.Fatalf("booking for %s: %v", p.FullName(), err)
		}
	}
}

func TestCreateAppointmentUnsettledPatientRejected(t *testing.T) {
	svc, _, patients, _, _ := newAppointmentFixture(t, 5)
	p := mustCreatePatient(t, patients, "Ana", "Reyes")

	if _, err := svc.Create(context.Background(), &appointment.CreateAppointmentCommand{
		PatientID:   p.ID,
		ScheduledAt: time.Date(2026, 9, 14, 10, 0, 0, 0, time.UTC),
		Type:        appointment.TypeConsultation,
	}, uuid.New(), domain.RoleAdmin, nil, ""); err != nil {
		t.Fatalf("first booking: %v", err)
	}

	_, err := svc.Create(context.Background(), &appointment.CreateAppointmentCommand{
		PatientID:   p.ID,
		ScheduledAt: time.Date(2026, 9, 15, 10, 0, 0, 0, time.UTC),
		Type:        appointment.TypeCBC,
	}, uuid.New(), domain.RoleAdmin, nil, "")

	msg := fieldError(t, err, "patient_id")
	if msg != "This patient already has an unsettled appointment." {
		t.Errorf("message = %q", msg)
	}
}

func TestCreateAppointmentPatientBooksForSelf(t *testing.T) {
	svc, repo, patients, _, _ := newAppointmentFixture(t, 1)
	own := mustCreatePatient(t, patients, "Ana", "Reyes")
	other := mustCreatePatient(t, patients, "Jose", "Cruz")

	a, err := svc.Create(context.Background(), &appointment.CreateAppointmentCommand{
		PatientID:   other.ID, // ignored: patients book for themselves
		ScheduledAt: time.Date(2026, 9, 14, 10, 0, 0, 0, time.UTC),
		Type:        appointment.TypeConsultation,
	}, uuid.New(), domain.RolePatient, &own.ID, "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if a.PatientID != own.ID {
		t.Errorf("PatientID = %s, want caller's own %s", a.PatientID, own.ID)
	}
	if stored, _ := repo.GetByID(context.Background(), a.ID); stored.PatientID != own.ID {
		t.Error("stored appointment not owned by the booking patient")
	}
}

func TestCreateAppointmentPatientWithoutRecordForbidden(t *testing.T) {
	svc, _, _, _, _ := newAppointmentFixture(t, 1)

	_, err := svc.Create(context.Background(), &appointment.CreateAppointmentCommand{
		ScheduledAt: time.Now().Add(48 * time.Hour),
		Type:        appointment.TypeConsultation,
	}, uuid.New(), domain.RolePatient, nil, "")
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("err = %v, want ErrForbidden", err)
	}
}

func TestApproveLaboratoryAppointment(t *testing.T) {
	svc, repo, patients, labs, notifier := newAppointmentFixture(t, 1)
	p := mustCreatePatient(t, patients, "Ana", "Reyes")

	a := &appointment.Appointment{
		PatientID:   p.ID,
		ScheduledAt: time.Date(2026, 9, 14, 10, 0, 0, 0, time.UTC),
		Type:        appointment.TypeCBC,
		Status:      appointment.StatusPending,
	}
	if err := repo.Create(context.Background(), a); err != nil {
		t.Fatal(err)
	}

	got, err := svc.Approve(context.Background(), a.ID, uuid.New(), domain.RoleAdmin, "")
	if err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if got.Status != appointment.StatusApproved {
		t.Errorf("Status = %s, want approved", got.Status)
	}

	// Exactly one pending laboratory result stub is spawned.
	if len(labs.results) != 1 {
		t.Fatalf("laboratory results = %d, want 1", len(labs.results))
	}
	for _, lr := range labs.results {
		if lr.AppointmentID != a.ID {
			t.Errorf("stub AppointmentID = %s, want %s", lr.AppointmentID, a.ID)
		}
		if lr.Status != labresult.StatusPending {
			t.Errorf("stub Status = %s, want pending", lr.Status)
		}
		if lr.Type != labresult.TestType(appointment.TypeCBC) {
			t.Errorf("stub Type = %s", lr.Type)
		}
	}

	lab := notifier.roleCalls(domain.RoleLaboratoryStaff)
	if len(lab) != 1 {
		t.Fatalf("laboratory staff notifications = %d, want 1", len(lab))
	}
	if lab[0].message != "New laboratory request for Ana Reyes (Complete Blood Count)." {
		t.Errorf("message = %q", lab[0].message)
	}
	if calls := notifier.roleCalls(domain.RoleDoctor); len(calls) != 0 {
		t.Errorf("doctors notified %d times for a laboratory approval", len(calls))
	}

	pc := notifier.patientCalls()
	if len(pc) != 1 || pc[0].patientID != p.ID {
		t.Fatalf("patient notifications = %v", pc)
	}
	if !strings.Contains(pc[0].message, "has been approved") {
		t.Errorf("patient message = %q", pc[0].message)
	}
}

func TestApproveConsultationAppointmentNotifiesDoctors(t *testing.T) {
	svc, repo, patients, labs, notifier := newAppointmentFixture(t, 1)
	p := mustCreatePatient(t, patients, "Ana", "Reyes")

	a := &appointment.Appointment{
		PatientID:   p.ID,
		ScheduledAt: time.Date(2026, 9, 14, 10, 0, 0, 0, time.UTC),
		Type:        appointment.TypeConsultation,
		Status:      appointment.StatusPending,
	}
	if err := repo.Create(context.Background(), a); err != nil {
		t.Fatal(err)
	}

	if _, err := svc.Approve(context.Background(), a.ID, uuid.New(), domain.RoleAdmin, ""); err != nil {
		t.Fatalf("Approve: %v", err)
	}

	if len(labs.results) != 0 {
		t.Errorf("laboratory stub created for a non-laboratory type")
	}
	docs := notifier.roleCalls(domain.RoleDoctor)
	if len(docs) != 1 {
		t.Fatalf("doctor notifications = %d, want 1", len(docs))
	}
	if docs[0].message != "New consultation request for Ana Reyes." {
		t.Errorf("message = %q", docs[0].message)
	}
}

func TestApproveTwiceFails(t *testing.T) {
	svc, repo, patients, _, _ := newAppointmentFixture(t, 1)
	p := mustCreatePatient(t, patients, "Ana", "Reyes")

	a := &appointment.Appointment{PatientID: p.ID, Type: appointment.TypeConsultation, Status: appointment.StatusPending}
	if err := repo.Create(context.Background(), a); err != nil {
		t.Fatal(err)
	}

	if _, err := svc.Approve(context.Background(), a.ID, uuid.New(), domain.RoleAdmin, ""); err != nil {
		t.Fatalf("first Approve: %v", err)
	}
	if _, err := svc.Approve(context.Background(), a.ID, uuid.New(), domain.RoleAdmin, ""); !errors.Is(err, appointment.ErrInvalidStatusTransition) {
		t.Fatalf("second Approve = %v, want ErrInvalidStatusTransition", err)
	}
}

func TestCancelWithinWindowRejected(t *testing.T) {
	svc, repo, patients, _, _ := newAppointmentFixture(t, 1)
	p := mustCreatePatient(t, patients, "Ana", "Reyes")

	a := &appointment.Appointment{
		PatientID:   p.ID,
		ScheduledAt: time.Now().Add(3 * time.Hour),
		Type:        appointment.TypeConsultation,
		Status:      appointment.StatusApproved,
	}
	if err := repo.Create(context.Background(), a); err != nil {
		t.Fatal(err)
	}

	_, err := svc.Cancel(context.Background(), a.ID, uuid.New(), domain.RoleAdmin, nil, "")
	if !errors.Is(err, appointment.ErrNotCancellable) {
		t.Fatalf("Cancel = %v, want ErrNotCancellable", err)
	}
	if stored, _ := repo.GetByID(context.Background(), a.ID); stored.Status != appointment.StatusApproved {
		t.Errorf("status mutated to %s on rejected cancel", stored.Status)
	}
}

func TestCancelOwnershipEnforcedForPatients(t *testing.T) {
	svc, repo, patients, _, _ := newAppointmentFixture(t, 1)
	owner := mustCreatePatient(t, patients, "Ana", "Reyes")
	intruder := mustCreatePatient(t, patients, "Jose", "Cruz")

	a := &appointment.Appointment{
		PatientID:   owner.ID,
		ScheduledAt: time.Now().Add(72 * time.Hour),
		Type:        appointment.TypeConsultation,
		Status:      appointment.StatusApproved,
	}
	if err := repo.Create(context.Background(), a); err != nil {
		t.Fatal(err)
	}

	_, err := svc.Cancel(context.Background(), a.ID, uuid.New(), domain.RolePatient, &intruder.ID, "")
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("Cancel by non-owner = %v, want ErrForbidden", err)
	}
}

func TestRescheduleExcludesSelfFromSlotCount(t *testing.T) {
	svc, repo, patients, _, _ := newAppointmentFixture(t, 1)
	p := mustCreatePatient(t, patients, "Ana", "Reyes")
	slot := time.Now().Add(96 * time.Hour).Truncate(time.Hour)

	a := &appointment.Appointment{
		PatientID:   p.ID,
		ScheduledAt: slot,
		Type:        appointment.TypeConsultation,
		Status:      appointment.StatusPending,
	}
	if err := repo.Create(context.Background(), a); err != nil {
		t.Fatal(err)
	}

	// Moving to the same slot must not trip over the appointment itself.
	got, err := svc.Reschedule(context.Background(), a.ID, &appointment.RescheduleAppointmentCommand{
		ScheduledAt: slot,
	}, uuid.New(), domain.RoleAdmin, nil, "")
	if err != nil {
		t.Fatalf("Reschedule: %v", err)
	}
	if !got.ScheduledAt.Equal(slot) {
		t.Errorf("ScheduledAt = %v, want %v", got.ScheduledAt, slot)
	}
}

func TestListScopesPatientsToOwnAppointments(t *testing.T) {
	svc, _, patients, _, _ := newAppointmentFixture(t, 1)
	p := mustCreatePatient(t, patients, "Ana", "Reyes")

	q := &appointment.ListAppointmentsQuery{Archived: true}
	if _, err := svc.List(context.Background(), q, domain.RolePatient, &p.ID); err != nil {
		t.Fatalf("List: %v", err)
	}
	if q.PatientID == nil || *q.PatientID != p.ID {
		t.Error("patient listing not scoped to own patient id")
	}
	if q.Archived {
		t.Error("patients must not see archived appointments")
	}
}
