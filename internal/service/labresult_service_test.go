package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lawrencemontaril/noynay-app/internal/domain"
	"github.com/lawrencemontaril/noynay-app/internal/domain/appointment"
	"github.com/lawrencemontaril/noynay-app/internal/domain/labresult"
)

func newLabResultFixture(t *testing.T) (*LaboratoryResultService, *fakeLabRepo, *fakeAppointmentRepo, *fakePatientRepo, *fakeFileStore, *fakeNotifier) {
	t.Helper()
	repo := newFakeLabRepo()
	appointments := newFakeAppointmentRepo()
	patients := newFakePatientRepo()
	consults := newFakeConsultRepo()
	invoices := newFakeInvoiceRepo()
	files := newFakeFileStore()
	notifier := &fakeNotifier{}

	svc := NewLaboratoryResultService(repo, appointments, patients, consults, invoices, files, notifier, newTestAudit(t), nil, zap.NewNop())
	return svc, repo, appointments, patients, files, notifier
}

func seedLabVisit(t *testing.T, appointments *fakeAppointmentRepo, patients *fakePatientRepo) *appointment.Appointment {
	t.Helper()
	p := mustCreatePatient(t, patients, "Ana", "Reyes")
	a := &appointment.Appointment{
		PatientID:   p.ID,
		ScheduledAt: time.Date(2026, 9, 14, 10, 0, 0, 0, time.UTC),
		Type:        appointment.TypeCBC,
		Status:      appointment.StatusApproved,
	}
	if err := appointments.Create(context.Background(), a); err != nil {
		t.Fatal(err)
	}
	return a
}

func pdfUpload() *ResultsUpload {
	return &ResultsUpload{Filename: "results.pdf", Content: strings.NewReader("%PDF-1.4")}
}

func TestCreateWithoutFileStaysPending(t *testing.T) {
	svc, _, appointments, patients, _, notifier := newLabResultFixture(t)
	a := seedLabVisit(t, appointments, patients)

	r, err := svc.Create(context.Background(), &labresult.CreateLaboratoryResultCommand{
		AppointmentID: a.ID,
		Type:          labresult.TypeCBC,
	}, nil, uuid.New(), domain.RoleLaboratoryStaff, "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if r.Status != labresult.StatusPending || r.IsReleased() {
		t.Errorf("status = %s, want pending", r.Status)
	}
	if len(notifier.calls) != 0 {
		t.Fatalf("notifications = %d, want none before release", len(notifier.calls))
	}
}

func TestAttachingFileReleasesResultAndNotifies(t *testing.T) {
	svc, _, appointments, patients, files, notifier := newLabResultFixture(t)
	a := seedLabVisit(t, appointments, patients)

	r, err := svc.Create(context.Background(), &labresult.CreateLaboratoryResultCommand{
		AppointmentID: a.ID,
		Type:          labresult.TypeCBC,
	}, nil, uuid.New(), domain.RoleLaboratoryStaff, "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	r, err = svc.Update(context.Background(), r.ID, &labresult.UpdateLaboratoryResultCommand{}, pdfUpload(), uuid.New(), domain.RoleLaboratoryStaff, "")
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	if r.Status != labresult.StatusReleased || !r.IsReleased() {
		t.Errorf("status = %s, want released", r.Status)
	}
	if _, ok := files.files[r.ResultsFilePath]; !ok {
		t.Errorf("no stored blob at %q", r.ResultsFilePath)
	}

	pc := notifier.patientCalls()
	if len(pc) != 1 {
		t.Fatalf("patient notifications = %d, want 1", len(pc))
	}
	if pc[0].message != "Your laboratory result for Complete Blood Count is now available." {
		t.Errorf("patient message = %q", pc[0].message)
	}

	cashier := notifier.roleCalls(domain.RoleCashier)
	if len(cashier) != 1 {
		t.Fatalf("cashier notifications = %d, want 1", len(cashier))
	}
	if cashier[0].message != "Pending invoice for Ana Reyes." {
		t.Errorf("cashier message = %q", cashier[0].message)
	}
}

func TestReleaseIgnoresOwnPersistedRowWhenAlerting(t *testing.T) {
	svc, _, appointments, patients, _, notifier := newLabResultFixture(t)
	a := seedLabVisit(t, appointments, patients)

	// The result being released is already stored when the prior-service
	// check runs; it alone must not suppress the cashier alert.
	_, err := svc.Create(context.Background(), &labresult.CreateLaboratoryResultCommand{
		AppointmentID: a.ID,
		Type:          labresult.TypeCBC,
	}, pdfUpload(), uuid.New(), domain.RoleLaboratoryStaff, "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if got := notifier.roleCalls(domain.RoleCashier); len(got) != 1 {
		t.Fatalf("cashier notifications = %d, want 1", len(got))
	}
}

func TestSecondReleasedResultDoesNotRepeatCashierAlert(t *testing.T) {
	svc, _, appointments, patients, _, notifier := newLabResultFixture(t)
	a := seedLabVisit(t, appointments, patients)

	for i := 0; i < 2; i++ {
		_, err := svc.Create(context.Background(), &labresult.CreateLaboratoryResultCommand{
			AppointmentID: a.ID,
			Type:          labresult.TypeUrinalysis,
		}, pdfUpload(), uuid.New(), domain.RoleLaboratoryStaff, "")
		if err != nil {
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

func TestCreateRejectsUnknownTestType(t *testing.T) {
	svc, _, appointments, patients, _, _ := newLabResultFixture(t)
	a := seedLabVisit(t, appointments, patients)

	_, err := svc.Create(context.Background(), &labresult.CreateLaboratoryResultCommand{
		AppointmentID: a.ID,
		Type:          labresult.TestType("xray"),
	}, nil, uuid.New(), domain.RoleLaboratoryStaff, "")
	fieldError(t, err, "type")
}

func TestPatientsOnlySeeReleasedResults(t *testing.T) {
	svc, _, appointments, patients, _, _ := newLabResultFixture(t)
	a := seedLabVisit(t, appointments, patients)

	r, err := svc.Create(context.Background(), &labresult.CreateLaboratoryResultCommand{
		AppointmentID: a.ID,
		Type:          labresult.TypeCBC,
	}, nil, uuid.New(), domain.RoleLaboratoryStaff, "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := svc.Get(context.Background(), r.ID, domain.RolePatient, &a.PatientID); err != labresult.ErrResultNotFound {
		t.Fatalf("pending get err = %v, want ErrResultNotFound", err)
	}

	if _, err := svc.Update(context.Background(), r.ID, &labresult.UpdateLaboratoryResultCommand{}, pdfUpload(), uuid.New(), domain.RoleLaboratoryStaff, ""); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if _, err := svc.Get(context.Background(), r.ID, domain.RolePatient, &a.PatientID); err != nil {
		t.Fatalf("released get: %v", err)
	}
}
