package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/23f2004399/hms-tool/internal/platform/apperr"
)

// DefaultRetention is how long notifications are kept before Cleanup
// removes them.
const DefaultRetention = 30 * 24 * time.Hour

// ReadRetention is how long a read notification stays in the user's list.
const ReadRetention = 7 * 24 * time.Hour

type Service struct {
	repo      Repository
	templates *Templates
	logger    zerolog.Logger
	now       func() time.Time
}

func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{
		repo:      repo,
		templates: NewTemplates(),
		logger:    logger.With().Str("component", "notifications").Logger(),
		now:       time.Now,
	}
}

// Notify renders the message for typ and stores it for the user. link is
// optional.
func (s *Service) Notify(ctx context.Context, userID string, typ Type, data map[string]string, link string) error {
	if userID == "" {
		return apperr.Validation("user_id is required")
	}
	msg, err := s.templates.Render(typ, data)
	if err != nil {
		return apperr.Validation(err.Error())
	}

	n := &Notification{
		UserID:    userID,
		Type:      typ,
		Message:   msg,
		CreatedAt: s.now().UTC(),
	}
	if link != "" {
		n.Link = &link
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return err
	}
	s.logger.Debug().Str("user_id", userID).Str("type", string(typ)).Msg("notification created")
	return nil
}

// List returns the user's notifications, newest first. Read notifications
// older than ReadRetention are pruned before the page is read.
func (s *Service) List(ctx context.Context, userID string, unreadOnly bool, limit, offset int) ([]*Notification, int, error) {
	n, err := s.repo.DeleteReadBefore(ctx, userID, s.now().UTC().Add(-ReadRetention))
	if err != nil {
		s.logger.Warn().Err(err).Str("user_id", userID).Msg("prune read notifications failed")
	} else if n > 0 {
		s.logger.Debug().Str("user_id", userID).Int("deleted", n).Msg("read notifications pruned")
	}
	return s.repo.ListByUser(ctx, userID, unreadOnly, limit, offset)
}

func (s *Service) UnreadCount(ctx context.Context, userID string) (int, error) {
	return s.repo.CountUnread(ctx, userID)
}

func (s *Service) MarkAllRead(ctx context.Context, userID string) (int, error) {
	return s.repo.MarkAllRead(ctx, userID)
}

func (s *Service) DeleteRead(ctx context.Context, userID string) (int, error) {
	return s.repo.DeleteRead(ctx, userID)
}

// Cleanup deletes notifications older than retention, read or not.
func (s *Service) Cleanup(ctx context.Context, retention time.Duration) (int, error) {
	if retention <= 0 {
		return 0, fmt.Errorf("cleanup notifications: retention must be positive, got %s", retention)
	}
	n, err := s.repo.DeleteOlderThan(ctx, s.now().UTC().Add(-retention))
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.logger.Info().Int("deleted", n).Dur("retention", retention).Msg("old notifications removed")
	}
	return n, nil
}
