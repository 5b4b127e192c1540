package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lawrencemontaril/noynay-app/internal/domain"
	"github.com/lawrencemontaril/noynay-app/internal/domain/setting"
)

type fakeSettingRepo struct {
	stored   setting.Setting
	getCalls int
}

func (f *fakeSettingRepo) Get(context.Context) (*setting.Setting, error) {
	f.getCalls++
	cfg := f.stored
	return &cfg, nil
}

func (f *fakeSettingRepo) Update(_ context.Context, cmd *setting.UpdateSettingCommand) (*setting.Setting, error) {
	if cmd.MaxAppointmentPerSlot != nil {
		f.stored.MaxAppointmentPerSlot = *cmd.MaxAppointmentPerSlot
	}
	if cmd.VATPercent != nil {
		f.stored.VATPercent = *cmd.VATPercent
	}
	if cmd.SpecialDiscountPercent != nil {
		f.stored.SpecialDiscountPercent = *cmd.SpecialDiscountPercent
	}
	cfg := f.stored
	return &cfg, nil
}

func TestSettingGetServesFromCache(t *testing.T) {
	repo := &fakeSettingRepo{stored: *setting.Defaults()}
	svc := NewSettingService(repo, newTestAudit(t), zap.NewNop())

	for i := 0; i < 5; i++ {
		if _, err := svc.Get(context.Background()); err != nil {
			t.Fatalf("Get: %v", err)
		}
	}
	if repo.getCalls != 1 {
		t.Errorf("repository Get calls = %d, want 1 (cached reads)", repo.getCalls)
	}
}

func TestSettingGetReturnsCopies(t *testing.T) {
	repo := &fakeSettingRepo{stored: *setting.Defaults()}
	svc := NewSettingService(repo, newTestAudit(t), zap.NewNop())

	first, err := svc.Get(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	first.VATPercent = 99

	second, err := svc.Get(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if second.VATPercent == 99 {
		t.Error("caller mutation leaked into the cache")
	}
}

func TestSettingUpdateInvalidatesCache(t *testing.T) {
	repo := &fakeSettingRepo{stored: *setting.Defaults()}
	svc := NewSettingService(repo, newTestAudit(t), zap.NewNop())

	if _, err := svc.Get(context.Background()); err != nil {
		t.Fatal(err)
	}

	slot := 3
	if _, err := svc.Update(context.Background(), &setting.UpdateSettingCommand{
		MaxAppointmentPerSlot: &slot,
	}, uuid.New(), domain.RoleSystemAdmin, ""); err != nil {
		t.Fatalf("Update: %v", err)
	}

	cfg, err := svc.Get(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if cfg.MaxAppointmentPerSlot != 3 {
		t.Errorf("MaxAppointmentPerSlot = %d, want 3 after update", cfg.MaxAppointmentPerSlot)
	}
	if repo.getCalls != 2 {
		t.Errorf("repository Get calls = %d, want 2 (cache invalidated once)", repo.getCalls)
	}
}

func TestSettingUpdateValidatesRanges(t *testing.T) {
	repo := &fakeSettingRepo{stored: *setting.Defaults()}
	svc := NewSettingService(repo, newTestAudit(t), zap.NewNop())

	zero := 0
	if _, err := svc.Update(context.Background(), &setting.UpdateSettingCommand{
		MaxAppointmentPerSlot: &zero,
	}, uuid.New(), domain.RoleSystemAdmin, ""); err == nil {
		t.Error("slot capacity 0 accepted")
	}

	over := 101.0
	if _, err := svc.Update(context.Background(), &setting.UpdateSettingCommand{
		VATPercent: &over,
	}, uuid.New(), domain.RoleSystemAdmin, ""); err == nil {
		t.Error("VAT percent over 100 accepted")
	}

	negative := -1.0
	if _, err := svc.Update(context.Background(), &setting.UpdateSettingCommand{
		SpecialDiscountPercent: &negative,
	}, uuid.New(), domain.RoleSystemAdmin, ""); err == nil {
		t.Error("negative discount percent accepted")
	}
}
