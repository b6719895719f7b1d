// Package dashboard assembles the landing view of each role from the other
// domains. The reads are independent and run concurrently.
package dashboard

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/23f2004399/hms-tool/internal/domain/identity"
	"github.com/23f2004399/hms-tool/internal/domain/upload"
	"github.com/23f2004399/hms-tool/internal/platform/apperr"
	"github.com/23f2004399/hms-tool/internal/platform/auth"
	"github.com/23f2004399/hms-tool/internal/platform/db"
)

// RecentUploads is how many uploads the patient dashboard shows.
const RecentUploads = 5

type Users interface {
	GetByID(ctx context.Context, id string) (*identity.User, error)
}

type Uploads interface {
	List(ctx context.Context, userID string, kind upload.Kind, limit, offset int) ([]*upload.View, int, error)
}

type Notifications interface {
	UnreadCount(ctx context.Context, userID string) (int, error)
}

type Service struct {
	repo          Repository
	users         Users
	uploads       Uploads
	notifications Notifications
	logger        zerolog.Logger
	now           func() time.Time
}

func NewService(repo Repository, users Users, uploads Uploads, notifications Notifications, logger zerolog.Logger) *Service {
	return &Service{
		repo:          repo,
		users:         users,
		uploads:       uploads,
		notifications: notifications,
		logger:        logger.With().Str("component", "dashboard").Logger(),
		now:           time.Now,
	}
}

// Get returns a *PatientDashboard or *DoctorDashboard depending on role.
func (s *Service) Get(ctx context.Context, userID string, role auth.Role) (interface{}, error) {
	switch role {
	case auth.RolePatient:
		return s.Patient(ctx, userID)
	case auth.RoleDoctor:
		return s.Doctor(ctx, userID)
	}
	return nil, apperr.ErrForbidden
}

func (s *Service) Patient(ctx context.Context, userID string) (*PatientDashboard, error) {
	d := &PatientDashboard{}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		greeting, err := s.greeting(gctx, userID)
		if err != nil {
			return err
		}
		d.Greeting = *greeting
		return nil
	})
	g.Go(func() error {
		items, total, err := s.uploads.List(gctx, userID, "", RecentUploads, 0)
		if err != nil {
			return err
		}
		d.RecentUploads, d.UploadCount = items, total
		return nil
	})
	g.Go(func() error {
		n, err := s.notifications.UnreadCount(gctx, userID)
		d.UnreadNotifications = n
		return err
	})
	g.Go(func() error {
		n, err := s.repo.UpcomingForPatient(gctx, userID, s.now())
		d.UpcomingAppointments = n
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *Service) Doctor(ctx context.Context, userID string) (*DoctorDashboard, error) {
	d := &DoctorDashboard{}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		greeting, err := s.greeting(gctx, userID)
		if err != nil {
			return err
		}
		d.Greeting = *greeting
		return nil
	})
	g.Go(func() error {
		stats, err := s.repo.DoctorStats(gctx, userID, s.now())
		if err != nil {
			return err
		}
		d.Stats = *stats
		return nil
	})
	g.Go(func() error {
		n, err := s.notifications.UnreadCount(gctx, userID)
		d.UnreadNotifications = n
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *Service) greeting(ctx context.Context, userID string) (*Greeting, error) {
	u, err := s.users.GetByID(ctx, userID)
	if errors.Is(err, db.ErrNotFound) {
		return nil, apperr.New(apperr.ErrNotFound, "user not found")
	}
	if err != nil {
		return nil, err
	}
	return &Greeting{UserID: u.ID, FullName: u.FullName, Role: u.Role}, nil
}
