package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lawrencemontaril/noynay-app/internal/domain"
	"github.com/lawrencemontaril/noynay-app/internal/domain/setting"
)

// settingCacheTTL bounds staleness on the read path used by every booking
// and billing request.
const settingCacheTTL = 30 * time.Second

// settingReader is the read-only settings surface the other services use.
type settingReader interface {
	Get(ctx context.Context) (*setting.Setting, error)
}

// SettingService fronts the singleton settings row with a short-lived cache.
// Updates invalidate the cache immediately on this instance; other instances
// converge within the TTL.
type SettingService struct {
	repo     setting.Repository
	auditSvc *AuditService
	log      *zap.Logger

	mu        sync.Mutex
	cached    *setting.Setting
	fetchedAt time.Time
}

func NewSettingService(repo setting.Repository, auditSvc *AuditService, log *zap.Logger) *SettingService {
	return &SettingService{repo: repo, auditSvc: auditSvc, log: log}
}

func (s *SettingService) Get(ctx context.Context) (*setting.Setting, error) {
	s.mu.Lock()
	if s.cached != nil && time.Since(s.fetchedAt) < settingCacheTTL {
		cached := *s.cached
		s.mu.Unlock()
		return &cached, nil
	}
	s.mu.Unlock()

	cfg, err := s.repo.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading settings: %w", err)
	}

	s.mu.Lock()
	s.cached = cfg
	s.fetchedAt = time.Now()
	s.mu.Unlock()

	copied := *cfg
	return &copied, nil
}

func (s *SettingService) Update(ctx context.Context, cmd *setting.UpdateSettingCommand, callerID uuid.UUID, callerRole domain.Role, ip string) (*setting.Setting, error) {
	if cmd.MaxAppointmentPerSlot != nil && *cmd.MaxAppointmentPerSlot < 1 {
		return nil, NewValidationError("max_appointment_per_slot", "The slot capacity must be at least 1.")
	}
	if cmd.VATPercent != nil && (*cmd.VATPercent < 0 || *cmd.VATPercent > 100) {
		return nil, NewValidationError("vat_percent", "The VAT percent must be between 0 and 100.")
	}
	if cmd.SpecialDiscountPercent != nil && (*cmd.SpecialDiscountPercent < 0 || *cmd.SpecialDiscountPercent > 100) {
		return nil, NewValidationError("special_discount_percent", "The discount percent must be between 0 and 100.")
	}

	cfg, err := s.repo.Update(ctx, cmd)
	if err != nil {
		return nil, fmt.Errorf("updating settings: %w", err)
	}

	s.mu.Lock()
	s.cached = nil
	s.mu.Unlock()

	s.log.Info("settings updated", zap.String("updated_by", callerID.String()))
	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID: callerID, UserRole: string(callerRole),
		Action: "update", ResourceType: "setting", ResourceID: cfg.ID.String(), IPAddress: ip,
	})

	copied := *cfg
	return &copied, nil
}
