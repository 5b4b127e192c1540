package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/lawrencemontaril/noynay-app/internal/domain/setting"
)

type SettingRepository struct {
	db *gorm.DB
}

func NewSettingRepository(db *gorm.DB) *SettingRepository {
	return &SettingRepository{db: db}
}

func (r *SettingRepository) Get(ctx context.Context) (*setting.Setting, error) {
	var s setting.Setting
	err := r.db.WithContext(ctx).Order("created_at ASC").First(&s).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return setting.Defaults(), nil
		}
		return nil, fmt.Errorf("fetching settings: %w", err)
	}
	return &s, nil
}

func (r *SettingRepository) Update(ctx context.Context, cmd *setting.UpdateSettingCommand) (*setting.Setting, error) {
	var s setting.Setting
	err := r.db.WithContext(ctx).Order("created_at ASC").First(&s).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("fetching settings: %w", err)
		}
		s = *setting.Defaults()
	}

	if cmd.MaxAppointmentPerSlot != nil {
		s.MaxAppointmentPerSlot = *cmd.MaxAppointmentPerSlot
	}
	if cmd.VATPercent != nil {
		s.VATPercent = *cmd.VATPercent
	}
	if cmd.SpecialDiscountPercent != nil {
		s.SpecialDiscountPercent = *cmd.SpecialDiscountPercent
	}

	if err := r.db.WithContext(ctx).Save(&s).Error; err != nil {
		return nil, fmt.Errorf("saving settings: %w", err)
	}
	return &s, nil
}
