package notification

import (
	"time"

	"github.com/google/uuid"
)

// Notification is a persisted, readable in-app message tied to a user.
// Delivery is synchronous and best-effort; there is no retry machinery.
type Notification struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time `gorm:"autoCreateTime;index"`

	UserID uuid.UUID `gorm:"column:user_id;type:uuid;not null;index"`

	Message string     `gorm:"column:message;type:text;not null"`
	Link    string     `gorm:"column:link;type:varchar(255)"`
	ReadAt  *time.Time `gorm:"column:read_at"`
}

func (Notification) TableName() string {
	return "clinical.notifications"
}

func (n *Notification) IsRead() bool {
	return n.ReadAt != nil
}

type ListNotificationsQuery struct {
	UserID     uuid.UUID
	UnreadOnly bool
	Page       int
	PageSize   int
}

type PagedNotifications struct {
	Notifications []*Notification
	TotalCount    int64
	UnreadCount   int64
	Page          int
	PageSize      int
	TotalPages    int
}
