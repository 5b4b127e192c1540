package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lawrencemontaril/noynay-app/internal/domain"
	"github.com/lawrencemontaril/noynay-app/internal/domain/patient"
)

var ErrUserNotFound = errors.New("user not found")

const (
	maxFailedAttempts = 5
	lockDuration      = 15 * time.Minute
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, u *domain.User) error {
	return r.db.WithContext(ctx).Create(u).Error
}

// CreateWithPatient registers a patient account: the user row, its patient
// record, and the back-link are written in one transaction so a failure
// leaves nothing behind.
func (r *UserRepository) CreateWithPatient(ctx context.Context, u *domain.User, p *patient.Patient) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(u).Error; err != nil {
			return fmt.Errorf("creating user: %w", err)
		}
		p.UserID = &u.ID
		if err := tx.Create(p).Error; err != nil {
			return fmt.Errorf("creating patient record: %w", err)
		}
		u.PatientID = &p.ID
		if err := tx.Model(u).Update("patient_id", p.ID).Error; err != nil {
			return fmt.Errorf("linking patient record: %w", err)
		}
		return nil
	})
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	var u domain.User
	err := r.db.WithContext(ctx).First(&u, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("fetching user: %w", err)
	}
	return &u, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	var u domain.User
	err := r.db.WithContext(ctx).First(&u, "email = ?", strings.ToLower(email)).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("fetching user by email: %w", err)
	}
	return &u, nil
}

// GetByPatientID finds the login account linked to a patient record, if any.
func (r *UserRepository) GetByPatientID(ctx context.Context, patientID uuid.UUID) (*domain.User, error) {
	var u domain.User
	err := r.db.WithContext(ctx).First(&u, "patient_id = ?", patientID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("fetching user by patient: %w", err)
	}
	return &u, nil
}

// ListByRole returns every active user holding the given role. Used for
// role-targeted notification fan-out.
func (r *UserRepository) ListByRole(ctx context.Context, role domain.Role) ([]*domain.User, error) {
	var users []*domain.User
	err := r.db.WithContext(ctx).
		Where("role = ? AND is_active = true AND deleted_at IS NULL", role).
		Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("listing users by role: %w", err)
	}
	return users, nil
}

func (r *UserRepository) Save(ctx context.Context, u *domain.User) error {
	return r.db.WithContext(ctx).Save(u).Error
}

func (r *UserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Model(&domain.User{}).
		Where("id = ? AND deleted_at IS NULL", id).
		Update("deleted_at", time.Now())
	if res.Error != nil {
		return fmt.Errorf("deleting user: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// UpdateLoginAttempt records a login outcome. Failures increment the counter
// and lock the account past the threshold; success resets it.
func (r *UserRepository) UpdateLoginAttempt(ctx context.Context, id uuid.UUID, success bool) error {
	if success {
		now := time.Now()
		return r.db.WithContext(ctx).
			Model(&domain.User{}).
			Where("id = ?", id).
			Updates(map[string]any{
				"failed_login_count": 0,
				"locked_until":       nil,
				"last_login_at":      now,
			}).Error
	}

	u, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}

	updates := map[string]any{"failed_login_count": u.FailedLoginCount + 1}
	if u.FailedLoginCount+1 >= maxFailedAttempts {
		updates["locked_until"] = time.Now().Add(lockDuration)
	}
	return r.db.WithContext(ctx).
		Model(&domain.User{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error {
	return r.db.WithContext(ctx).
		Model(&domain.User{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"password_hash":       hash,
			"password_changed_at": time.Now(),
		}).Error
}

func (r *UserRepository) List(ctx context.Context, search string, role *domain.Role, page, pageSize int) ([]*domain.User, int64, error) {
	page, pageSize = normalizePage(page, pageSize)

	db := r.db.WithContext(ctx).
		Model(&domain.User{}).
		Where("deleted_at IS NULL")
	if role != nil {
		db = db.Where("role = ?", *role)
	}
	if search != "" {
		kw := "%" + search + "%"
		db = db.Where(
			"first_name ILIKE ? OR middle_name ILIKE ? OR last_name ILIKE ? OR email ILIKE ?",
			kw, kw, kw, kw,
		)
	}

	var count int64
	if err := db.Count(&count).Error; err != nil {
		return nil, 0, fmt.Errorf("counting users: %w", err)
	}

	var users []*domain.User
	err := db.Order("last_name ASC, first_name ASC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&users).Error
	if err != nil {
		return nil, 0, fmt.Errorf("listing users: %w", err)
	}
	return users, count, nil
}
