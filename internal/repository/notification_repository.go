package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lawrencemontaril/noynay-app/internal/domain/notification"
)

type NotificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) Create(ctx context.Context, n *notification.Notification) error {
	return r.db.WithContext(ctx).Create(n).Error
}

func (r *NotificationRepository) GetByID(ctx context.Context, id uuid.UUID) (*notification.Notification, error) {
	var n notification.Notification
	err := r.db.WithContext(ctx).First(&n, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notification.ErrNotificationNotFound
		}
		return nil, fmt.Errorf("fetching notification: %w", err)
	}
	return &n, nil
}

func (r *NotificationRepository) List(ctx context.Context, q *notification.ListNotificationsQuery) (*notification.PagedNotifications, error) {
	page, pageSize := normalizePage(q.Page, q.PageSize)

	db := r.db.WithContext(ctx).
		Model(&notification.Notification{}).
		Where("user_id = ?", q.UserID)
	if q.UnreadOnly {
		db = db.Where("read_at IS NULL")
	}

	var count int64
	if err := db.Count(&count).Error; err != nil {
		return nil, fmt.Errorf("counting notifications: %w", err)
	}

	var unread int64
	err := r.db.WithContext(ctx).
		Model(&notification.Notification{}).
		Where("user_id = ? AND read_at IS NULL", q.UserID).
		Count(&unread).Error
	if err != nil {
		return nil, fmt.Errorf("counting unread notifications: %w", err)
	}

	var items []*notification.Notification
	err = db.Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("listing notifications: %w", err)
	}

	return &notification.PagedNotifications{
		Notifications: items,
		TotalCount:    count,
		UnreadCount:   unread,
		Page:          page,
		PageSize:      pageSize,
		TotalPages:    totalPages(count, pageSize),
	}, nil
}

func (r *NotificationRepository) MarkRead(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Model(&notification.Notification{}).
		Where("id = ? AND read_at IS NULL", id).
		Update("read_at", time.Now())
	if res.Error != nil {
		return fmt.Errorf("marking notification read: %w", res.Error)
	}
	return nil
}

func (r *NotificationRepository) MarkAllRead(ctx context.Context, userID uuid.UUID) error {
	err := r.db.WithContext(ctx).
		Model(&notification.Notification{}).
		Where("user_id = ? AND read_at IS NULL", userID).
		Update("read_at", time.Now()).Error
	if err != nil {
		return fmt.Errorf("marking notifications read: %w", err)
	}
	return nil
}
