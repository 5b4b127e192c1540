package appointment

import (
	"errors"
	"testing"
	"time"
)

func TestCanTransitionTo(t *testing.T) {
	tests := []struct {
		from Status
		to   Status
		want bool
	}{
		{StatusPending, StatusApproved, true},
		{StatusPending, StatusRejected, true},
		{StatusPending, StatusCancelled, true},
		{StatusPending, StatusCompleted, false},
		{StatusPending, StatusNoShow, false},
		{StatusApproved, StatusCompleted, true},
		{StatusApproved, StatusCancelled, true},
		{StatusApproved, StatusNoShow, true},
		{StatusApproved, StatusRejected, false},
		{StatusRejected, StatusApproved, false},
		{StatusCancelled, StatusPending, false},
		{StatusCompleted, StatusCancelled, false},
		{StatusNoShow, StatusCompleted, false},
	}
	for _, tt := range tests {
		a := &Appointment{Status: tt.from}
		if got := a.CanTransitionTo(tt.to); got != tt.want {
			t.Errorf("%s -> %s = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestIsCancellableRequiresFullDayNotice(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	a := &Appointment{Status: StatusApproved, ScheduledAt: now.Add(25 * time.Hour)}
	if !a.IsCancellable(now) {
		t.Error("25h out should be cancellable")
	}

	a.ScheduledAt = now.Add(23 * time.Hour)
	if a.IsCancellable(now) {
		t.Error("23h out should not be cancellable")
	}

	// Exactly at the boundary still qualifies.
	a.ScheduledAt = now.Add(24 * time.Hour)
	if !a.IsCancellable(now) {
		t.Error("exactly 24h out should be cancellable")
	}
}

func TestIsCancellableTerminalStatuses(t *testing.T) {
	now := time.Now()
	for _, st := range TerminalStatuses() {
		a := &Appointment{Status: st, ScheduledAt: now.Add(48 * time.Hour)}
		if a.IsCancellable(now) {
			t.Errorf("status %s should not be cancellable", st)
		}
	}
}

func TestCancelEnforcesWindow(t *testing.T) {
	now := time.Now()
	a := &Appointment{Status: StatusPending, ScheduledAt: now.Add(2 * time.Hour)}

	err := a.Cancel(now)
	if !errors.Is(err, ErrNotCancellable) {
		t.Fatalf("Cancel = %v, want ErrNotCancellable", err)
	}
	if a.Status != StatusPending {
		t.Errorf("failed cancel mutated status to %s", a.Status)
	}
}

func TestApproveFromTerminal(t *testing.T) {
	a := &Appointment{Status: StatusRejected}
	if err := a.Approve(); !errors.Is(err, ErrInvalidStatusTransition) {
		t.Fatalf("Approve = %v, want ErrInvalidStatusTransition", err)
	}
}

func TestStatusIsTerminal(t *testing.T) {
	for _, st := range []Status{StatusPending, StatusApproved} {
		if st.IsTerminal() {
			t.Errorf("%s reported terminal", st)
		}
	}
	for _, st := range TerminalStatuses() {
		if !st.IsTerminal() {
			t.Errorf("%s not reported terminal", st)
		}
	}
}

func TestServiceTypeValidity(t *testing.T) {
	if !TypeConsultation.IsValid() {
		t.Error("consultation should be a valid service type")
	}
	if ServiceType("astrology").IsValid() {
		t.Error("unknown service type reported valid")
	}
}

func TestLaboratoryServiceTypes(t *testing.T) {
	labTypes := map[ServiceType]bool{
		TypePregnancyTest: true,
		TypePapsmear:      true,
		TypeCBC:           true,
		TypeUrinalysis:    true,
		TypeFecalysis:     true,
	}
	for _, st := range ServiceTypes() {
		if got := st.IsLaboratory(); got != labTypes[st] {
			t.Errorf("%s IsLaboratory = %v, want %v", st, got, labTypes[st])
		}
	}
}
