package notification

import (
	"context"
	"time"
)

type Repository interface {
	Create(ctx context.Context, n *Notification) error
	ListByUser(ctx context.Context, userID string, unreadOnly bool, limit, offset int) ([]*Notification, int, error)
	CountUnread(ctx context.Context, userID string) (int, error)
	MarkAllRead(ctx context.Context, userID string) (int, error)
	DeleteRead(ctx context.Context, userID string) (int, error)
	// DeleteReadBefore removes the user's read notifications created before
	// cutoff.
	DeleteReadBefore(ctx context.Context, userID string, cutoff time.Time) (int, error)
	// DeleteOlderThan removes every notification created before cutoff.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error)
}
