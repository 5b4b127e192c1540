package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lawrencemontaril/noynay-app/internal/domain"
	"github.com/lawrencemontaril/noynay-app/internal/domain/appointment"
	"github.com/lawrencemontaril/noynay-app/internal/domain/consultation"
	"github.com/lawrencemontaril/noynay-app/internal/domain/invoice"
	"github.com/lawrencemontaril/noynay-app/internal/domain/labresult"
	"github.com/lawrencemontaril/noynay-app/internal/domain/notification"
	"github.com/lawrencemontaril/noynay-app/internal/domain/patient"
	"github.com/lawrencemontaril/noynay-app/internal/domain/procedure"
	"github.com/lawrencemontaril/noynay-app/internal/domain/setting"
	"github.com/lawrencemontaril/noynay-app/pkg/storage"
)

type notifyCall struct {
	kind      string // "user", "role" or "patient"
	role      domain.Role
	userID    uuid.UUID
	patientID uuid.UUID
	message   string
	link      string
}

type fakeNotifier struct {
	calls []notifyCall
}

func (f *fakeNotifier) NotifyUser(_ context.Context, userID uuid.UUID, message, link string) {
	f.calls = append(f.calls, notifyCall{kind: "user", userID: userID, message: message, link: link})
}

func (f *fakeNotifier) NotifyRole(_ context.Context, role domain.Role, message, link string) {
	f.calls = append(f.calls, notifyCall{kind: "role", role: role, message: message, link: link})
}

func (f *fakeNotifier) NotifyPatient(_ context.Context, patientID uuid.UUID, message, link string) {
	f.calls = append(f.calls, notifyCall{kind: "patient", patientID: patientID, message: message, link: link})
}

func (f *fakeNotifier) roleCalls(role domain.Role) []notifyCall {
	var out []notifyCall
	for _, c := range f.calls {
		if c.kind == "role" && c.role == role {
			out = append(out, c)
		}
	}
	return out
}

func (f *fakeNotifier) patientCalls() []notifyCall {
	var out []notifyCall
	for _, c := range f.calls {
		if c.kind == "patient" {
			out = append(out, c)
		}
	}
	return out
}

type fakeSettings struct {
	cfg setting.Setting
}

func (f *fakeSettings) Get(context.Context) (*setting.Setting, error) {
	cfg := f.cfg
	return &cfg, nil
}

type fakeAuditRepo struct{}

func (fakeAuditRepo) Create(context.Context, *domain.AuditLog) error { return nil }

func newTestAudit(t *testing.T) *AuditService {
	t.Helper()
	svc := NewAuditService(fakeAuditRepo{}, zap.NewNop())
	t.Cleanup(svc.Shutdown)
	return svc
}

type fakeAppointmentRepo struct {
	appointments map[uuid.UUID]*appointment.Appointment
	saved        int
}

func newFakeAppointmentRepo() *fakeAppointmentRepo {
	return &fakeAppointmentRepo{appointments: make(map[uuid.UUID]*appointment.Appointment)}
}

func (f *fakeAppointmentRepo) Create(_ context.Context, a *appointment.Appointment) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	f.appointments[a.ID] = a
	return nil
}

func (f *fakeAppointmentRepo) GetByID(_ context.Context, id uuid.UUID) (*appointment.Appointment, error) {
	a, ok := f.appointments[id]
	if !ok {
		return nil, appointment.ErrAppointmentNotFound
	}
	return a, nil
}

func (f *fakeAppointmentRepo) Save(_ context.Context, a *appointment.Appointment) error {
	f.appointments[a.ID] = a
	f.saved++
	return nil
}

func (f *fakeAppointmentRepo) List(_ context.Context, q *appointment.ListAppointmentsQuery) (*appointment.PagedAppointments, error) {
	page := &appointment.PagedAppointments{Page: q.Page, PageSize: q.PageSize}
	for _, a := range f.appointments {
		page.Appointments = append(page.Appointments, a)
	}
	page.TotalCount = int64(len(page.Appointments))
	return page, nil
}

func (f *fakeAppointmentRepo) CountAtSlot(_ context.Context, scheduledAt time.Time, excludeID *uuid.UUID) (int64, error) {
	var n int64
	for _, a := range f.appointments {
		if excludeID != nil && a.ID == *excludeID {
			continue
		}
		if !a.ScheduledAt.Equal(scheduledAt) {
			continue
		}
		for _, st := range appointment.ActiveStatuses() {
			if a.Status == st {
				n++
				break
			}
		}
	}
	return n, nil
}

func (f *fakeAppointmentRepo) HasNonTerminal(_ context.Context, patientID uuid.UUID, excludeID *uuid.UUID) (bool, error) {
	for _, a := range f.appointments {
		if a.PatientID != patientID {
			continue
		}
		if excludeID != nil && a.ID == *excludeID {
			continue
		}
		if !a.Status.IsTerminal() {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeAppointmentRepo) SoftDelete(_ context.Context, id uuid.UUID) error {
	delete(f.appointments, id)
	return nil
}

func (f *fakeAppointmentRepo) Restore(context.Context, uuid.UUID) error { return nil }

func (f *fakeAppointmentRepo) HardDelete(_ context.Context, id uuid.UUID) error {
	delete(f.appointments, id)
	return nil
}

type fakePatientRepo struct {
	patients map[uuid.UUID]*patient.Patient
}

func newFakePatientRepo(patients ...*patient.Patient) *fakePatientRepo {
	f := &fakePatientRepo{patients: make(map[uuid.UUID]*patient.Patient)}
	for _, p := range patients {
		if p.ID == uuid.Nil {
			p.ID = uuid.New()
		}
		f.patients[p.ID] = p
	}
	return f
}

func (f *fakePatientRepo) Create(_ context.Context, p *patient.Patient) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	f.patients[p.ID] = p
	return nil
}

func (f *fakePatientRepo) GetByID(_ context.Context, id uuid.UUID) (*patient.Patient, error) {
	p, ok := f.patients[id]
	if !ok {
		return nil, patient.ErrPatientNotFound
	}
	return p, nil
}

func (f *fakePatientRepo) GetByUserID(_ context.Context, userID uuid.UUID) (*patient.Patient, error) {
	for _, p := range f.patients {
		if p.UserID != nil && *p.UserID == userID {
			return p, nil
		}
	}
	return nil, patient.ErrPatientNotFound
}

func (f *fakePatientRepo) Update(_ context.Context, id uuid.UUID, _ *patient.UpdatePatientCommand) (*patient.Patient, error) {
	return f.GetByID(context.Background(), id)
}

func (f *fakePatientRepo) SoftDelete(context.Context, uuid.UUID) error { return nil }
func (f *fakePatientRepo) Restore(context.Context, uuid.UUID) error    { return nil }
func (f *fakePatientRepo) HardDelete(context.Context, uuid.UUID) error { return nil }

func (f *fakePatientRepo) List(_ context.Context, q *patient.ListPatientsQuery) (*patient.PagedPatients, error) {
	page := &patient.PagedPatients{Page: q.Page, PageSize: q.PageSize}
	for _, p := range f.patients {
		page.Patients = append(page.Patients, p)
	}
	page.TotalCount = int64(len(page.Patients))
	return page, nil
}

type fakeLabRepo struct {
	results map[uuid.UUID]*labresult.LaboratoryResult
}

func newFakeLabRepo() *fakeLabRepo {
	return &fakeLabRepo{results: make(map[uuid.UUID]*labresult.LaboratoryResult)}
}

func (f *fakeLabRepo) Create(_ context.Context, r *labresult.LaboratoryResult) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	f.results[r.ID] = r
	return nil
}

func (f *fakeLabRepo) GetByID(_ context.Context, id uuid.UUID) (*labresult.LaboratoryResult, error) {
	r, ok := f.results[id]
	if !ok {
		return nil, labresult.ErrResultNotFound
	}
	return r, nil
}

func (f *fakeLabRepo) Save(_ context.Context, r *labresult.LaboratoryResult) error {
	f.results[r.ID] = r
	return nil
}

func (f *fakeLabRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(f.results, id)
	return nil
}

func (f *fakeLabRepo) List(_ context.Context, q *labresult.ListLaboratoryResultsQuery) (*labresult.PagedLaboratoryResults, error) {
	page := &labresult.PagedLaboratoryResults{Page: q.Page, PageSize: q.PageSize}
	for _, r := range f.results {
		if q.AppointmentID != nil && r.AppointmentID != *q.AppointmentID {
			continue
		}
		if q.Status != nil && r.Status != *q.Status {
			continue
		}
		page.Results = append(page.Results, r)
	}
	page.TotalCount = int64(len(page.Results))
	return page, nil
}

func (f *fakeLabRepo) ExistsForAppointment(_ context.Context, appointmentID uuid.UUID) (bool, error) {
	for _, r := range f.results {
		if r.AppointmentID == appointmentID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeLabRepo) ExistsReleasedForAppointment(_ context.Context, appointmentID uuid.UUID) (bool, error) {
	for _, r := range f.results {
		if r.AppointmentID == appointmentID && r.IsReleased() {
			return true, nil
		}
	}
	return false, nil
}

type fakeInvoiceRepo struct {
	invoices map[uuid.UUID]*invoice.Invoice
	payments map[uuid.UUID]*invoice.Payment
	saved    int
}

func newFakeInvoiceRepo() *fakeInvoiceRepo {
	return &fakeInvoiceRepo{
		invoices: make(map[uuid.UUID]*invoice.Invoice),
		payments: make(map[uuid.UUID]*invoice.Payment),
	}
}

func (f *fakeInvoiceRepo) Create(_ context.Context, inv *invoice.Invoice) error {
	for _, existing := range f.invoices {
		if existing.AppointmentID == inv.AppointmentID {
			return invoice.ErrDuplicateInvoice
		}
	}
	if inv.ID == uuid.Nil {
		inv.ID = uuid.New()
	}
	f.invoices[inv.ID] = inv
	return nil
}

func (f *fakeInvoiceRepo) GetByID(_ context.Context, id uuid.UUID) (*invoice.Invoice, error) {
	inv, ok := f.invoices[id]
	if !ok {
		return nil, invoice.ErrInvoiceNotFound
	}
	return inv, nil
}

func (f *fakeInvoiceRepo) GetByAppointmentID(_ context.Context, appointmentID uuid.UUID) (*invoice.Invoice, error) {
	for _, inv := range f.invoices {
		if inv.AppointmentID == appointmentID {
			return inv, nil
		}
	}
	return nil, invoice.ErrInvoiceNotFound
}

func (f *fakeInvoiceRepo) Save(_ context.Context, inv *invoice.Invoice) error {
	f.invoices[inv.ID] = inv
	f.saved++
	return nil
}

func (f *fakeInvoiceRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(f.invoices, id)
	return nil
}

func (f *fakeInvoiceRepo) List(_ context.Context, q *invoice.ListInvoicesQuery) (*invoice.PagedInvoices, error) {
	page := &invoice.PagedInvoices{Page: q.Page, PageSize: q.PageSize}
	for _, inv := range f.invoices {
		page.Invoices = append(page.Invoices, inv)
	}
	page.TotalCount = int64(len(page.Invoices))
	return page, nil
}

func (f *fakeInvoiceRepo) ReplaceItems(_ context.Context, invoiceID uuid.UUID, items []invoice.ItemInput) error {
	inv, ok := f.invoices[invoiceID]
	if !ok {
		return invoice.ErrInvoiceNotFound
	}
	inv.Items = nil
	for _, it := range items {
		inv.Items = append(inv.Items, invoice.InvoiceItem{
			InvoiceID:   invoiceID,
			Description: it.Description,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
		})
	}
	return nil
}

func (f *fakeInvoiceRepo) ExistsForAppointment(_ context.Context, appointmentID uuid.UUID) (bool, error) {
	for _, inv := range f.invoices {
		if inv.AppointmentID == appointmentID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeInvoiceRepo) CreatePayment(_ context.Context, p *invoice.Payment) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	f.payments[p.ID] = p
	return nil
}

func (f *fakeInvoiceRepo) DeletePayment(_ context.Context, id uuid.UUID) error {
	p, ok := f.payments[id]
	if !ok {
		return invoice.ErrPaymentNotFound
	}
	delete(f.payments, id)
	if inv, ok := f.invoices[p.InvoiceID]; ok {
		kept := inv.Payments[:0]
		for _, existing := range inv.Payments {
			if existing.ID != id {
				kept = append(kept, existing)
			}
		}
		inv.Payments = kept
	}
	return nil
}

func (f *fakeInvoiceRepo) GetPayment(_ context.Context, id uuid.UUID) (*invoice.Payment, error) {
	p, ok := f.payments[id]
	if !ok {
		return nil, invoice.ErrPaymentNotFound
	}
	return p, nil
}

func (f *fakeInvoiceRepo) UpdatePaymentAmount(_ context.Context, id uuid.UUID, amount float64) error {
	p, ok := f.payments[id]
	if !ok {
		return invoice.ErrPaymentNotFound
	}
	p.Amount = amount
	if inv, ok := f.invoices[p.InvoiceID]; ok {
		for i := range inv.Payments {
			if inv.Payments[i].ID == id {
				inv.Payments[i].Amount = amount
			}
		}
	}
	return nil
}

type fakeNotificationRepo struct {
	notifications map[uuid.UUID]*notification.Notification
}

func newFakeNotificationRepo() *fakeNotificationRepo {
	return &fakeNotificationRepo{notifications: make(map[uuid.UUID]*notification.Notification)}
}

func (f *fakeNotificationRepo) Create(_ context.Context, n *notification.Notification) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	f.notifications[n.ID] = n
	return nil
}

func (f *fakeNotificationRepo) GetByID(_ context.Context, id uuid.UUID) (*notification.Notification, error) {
	n, ok := f.notifications[id]
	if !ok {
		return nil, notification.ErrNotificationNotFound
	}
	return n, nil
}

func (f *fakeNotificationRepo) List(_ context.Context, q *notification.ListNotificationsQuery) (*notification.PagedNotifications, error) {
	page := &notification.PagedNotifications{Page: q.Page, PageSize: q.PageSize}
	for _, n := range f.notifications {
		if n.UserID != q.UserID {
			continue
		}
		page.Notifications = append(page.Notifications, n)
	}
	page.TotalCount = int64(len(page.Notifications))
	return page, nil
}

func (f *fakeNotificationRepo) MarkRead(_ context.Context, id uuid.UUID) error {
	n, ok := f.notifications[id]
	if !ok {
		return notification.ErrNotificationNotFound
	}
	now := time.Now()
	n.ReadAt = &now
	return nil
}

func (f *fakeNotificationRepo) MarkAllRead(_ context.Context, userID uuid.UUID) error {
	now := time.Now()
	for _, n := range f.notifications {
		if n.UserID == userID && n.ReadAt == nil {
			n.ReadAt = &now
		}
	}
	return nil
}

type fakeUserDirectory struct {
	byRole    map[domain.Role][]*domain.User
	byPatient map[uuid.UUID]*domain.User
}

func newFakeUserDirectory() *fakeUserDirectory {
	return &fakeUserDirectory{
		byRole:    make(map[domain.Role][]*domain.User),
		byPatient: make(map[uuid.UUID]*domain.User),
	}
}

func (f *fakeUserDirectory) add(u *domain.User) *domain.User {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	f.byRole[u.Role] = append(f.byRole[u.Role], u)
	if u.PatientID != nil {
		f.byPatient[*u.PatientID] = u
	}
	return u
}

func (f *fakeUserDirectory) ListByRole(_ context.Context, role domain.Role) ([]*domain.User, error) {
	return f.byRole[role], nil
}

func (f *fakeUserDirectory) GetByPatientID(_ context.Context, patientID uuid.UUID) (*domain.User, error) {
	u, ok := f.byPatient[patientID]
	if !ok {
		return nil, errNoAccount
	}
	return u, nil
}

var errNoAccount = errors.New("no account for patient")

type fakeConsultRepo struct {
	consultations map[uuid.UUID]*consultation.Consultation
}

func newFakeConsultRepo() *fakeConsultRepo {
	return &fakeConsultRepo{consultations: make(map[uuid.UUID]*consultation.Consultation)}
}

func (f *fakeConsultRepo) Create(_ context.Context, c *consultation.Consultation) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	f.consultations[c.ID] = c
	return nil
}

func (f *fakeConsultRepo) GetByID(_ context.Context, id uuid.UUID) (*consultation.Consultation, error) {
	c, ok := f.consultations[id]
	if !ok {
		return nil, consultation.ErrConsultationNotFound
	}
	return c, nil
}

func (f *fakeConsultRepo) Update(ctx context.Context, id uuid.UUID, cmd *consultation.UpdateConsultationCommand) (*consultation.Consultation, error) {
	c, err := f.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if cmd.ChiefComplaints != nil {
		c.ChiefComplaints = *cmd.ChiefComplaints
	}
	if cmd.Assessment != nil {
		c.Assessment = *cmd.Assessment
	}
	if cmd.Plan != nil {
		c.Plan = *cmd.Plan
	}
	if cmd.Vitals != nil {
		c.Vitals = *cmd.Vitals
	}
	return c, nil
}

func (f *fakeConsultRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := f.consultations[id]; !ok {
		return consultation.ErrConsultationNotFound
	}
	delete(f.consultations, id)
	return nil
}

func (f *fakeConsultRepo) List(_ context.Context, q *consultation.ListConsultationsQuery) (*consultation.PagedConsultations, error) {
	page := &consultation.PagedConsultations{Page: q.Page, PageSize: q.PageSize}
	for _, c := range f.consultations {
		if q.AppointmentID != nil && c.AppointmentID != *q.AppointmentID {
			continue
		}
		page.Consultations = append(page.Consultations, c)
	}
	page.TotalCount = int64(len(page.Consultations))
	return page, nil
}

func (f *fakeConsultRepo) ExistsForAppointment(_ context.Context, appointmentID uuid.UUID) (bool, error) {
	for _, c := range f.consultations {
		if c.AppointmentID == appointmentID {
			return true, nil
		}
	}
	return false, nil
}

type fakeProcedureRepo struct {
	procedures []*procedure.Procedure
}

func (f *fakeProcedureRepo) Create(_ context.Context, p *procedure.Procedure) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	f.procedures = append(f.procedures, p)
	return nil
}

func (f *fakeProcedureRepo) ListByAppointment(_ context.Context, appointmentID uuid.UUID) ([]*procedure.Procedure, error) {
	var out []*procedure.Procedure
	for _, p := range f.procedures {
		if p.AppointmentID == appointmentID {
			out = append(out, p)
		}
	}
	return out, nil
}

type fakeFileStore struct {
	files map[string][]byte
}

func newFakeFileStore() *fakeFileStore {
	return &fakeFileStore{files: make(map[string][]byte)}
}

func (f *fakeFileStore) Save(filename string, content io.Reader) (string, error) {
	if !strings.HasSuffix(strings.ToLower(filename), ".pdf") {
		return "", storage.ErrNotPDF
	}
	data, err := io.ReadAll(content)
	if err != nil {
		return "", err
	}
	path := "laboratory_results/" + uuid.NewString() + ".pdf"
	f.files[path] = data
	return path, nil
}

func (f *fakeFileStore) Replace(oldPath, filename string, content io.Reader) (string, error) {
	path, err := f.Save(filename, content)
	if err != nil {
		return "", err
	}
	delete(f.files, oldPath)
	return path, nil
}

func (f *fakeFileStore) Delete(path string) error {
	if _, ok := f.files[path]; !ok {
		return storage.ErrFileNotFound
	}
	delete(f.files, path)
	return nil
}

func (f *fakeFileStore) AbsolutePath(path string) string { return path }
