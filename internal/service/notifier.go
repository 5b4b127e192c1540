package service

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lawrencemontaril/noynay-app/internal/domain"
	"github.com/lawrencemontaril/noynay-app/internal/domain/notification"
	"github.com/lawrencemontaril/noynay-app/pkg/metrics"
)

// Notifier dispatches in-app notifications. Delivery is synchronous and
// best-effort: a missing recipient is skipped and a persistence failure is
// logged, never surfaced to the caller.
type Notifier interface {
	NotifyUser(ctx context.Context, userID uuid.UUID, message, link string)
	NotifyRole(ctx context.Context, role domain.Role, message, link string)

	// NotifyPatient resolves the patient's login account; patients without
	// one are skipped silently.
	NotifyPatient(ctx context.Context, patientID uuid.UUID, message, link string)
}

type recipientDirectory interface {
	ListByRole(ctx context.Context, role domain.Role) ([]*domain.User, error)
	GetByPatientID(ctx context.Context, patientID uuid.UUID) (*domain.User, error)
}

type NotificationService struct {
	repo    notification.Repository
	users   recipientDirectory
	metrics *metrics.Collector
	log     *zap.Logger
}

func NewNotificationService(
	repo notification.Repository,
	users recipientDirectory,
	m *metrics.Collector,
	log *zap.Logger,
) *NotificationService {
	return &NotificationService{repo: repo, users: users, metrics: m, log: log}
}

func (s *NotificationService) NotifyUser(ctx context.Context, userID uuid.UUID, message, link string) {
	n := &notification.Notification{
		UserID:  userID,
		Message: message,
		Link:    link,
	}
	if err := s.repo.Create(ctx, n); err != nil {
		s.log.Error("failed to persist notification",
			zap.String("user_id", userID.String()),
			zap.Error(err),
		)
		return
	}
	if s.metrics != nil {
		s.metrics.NotificationsSent.Inc()
	}
}

// NotifyRole fans one message out to every active user holding the role.
func (s *NotificationService) NotifyRole(ctx context.Context, role domain.Role, message, link string) {
	users, err := s.users.ListByRole(ctx, role)
	if err != nil {
		s.log.Error("failed to resolve notification recipients",
			zap.String("role", string(role)),
			zap.Error(err),
		)
		return
	}
	for _, u := range users {
		s.NotifyUser(ctx, u.ID, message, link)
	}
}

func (s *NotificationService) NotifyPatient(ctx context.Context, patientID uuid.UUID, message, link string) {
	u, err := s.users.GetByPatientID(ctx, patientID)
	if err != nil {
		// Walk-in patients have no login account.
		return
	}
	s.NotifyUser(ctx, u.ID, message, link)
}

func (s *NotificationService) List(ctx context.Context, q *notification.ListNotificationsQuery) (*notification.PagedNotifications, error) {
	return s.repo.List(ctx, q)
}

// MarkRead marks one notification read, enforcing ownership.
func (s *NotificationService) MarkRead(ctx context.Context, id, callerID uuid.UUID) error {
	n, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if n.UserID != callerID {
		return ErrForbidden
	}
	return s.repo.MarkRead(ctx, id)
}

func (s *NotificationService) MarkAllRead(ctx context.Context, callerID uuid.UUID) error {
	return s.repo.MarkAllRead(ctx, callerID)
}
