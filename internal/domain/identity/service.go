package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/23f2004399/hms-tool/internal/domain/notification"
	"github.com/23f2004399/hms-tool/internal/platform/apperr"
	"github.com/23f2004399/hms-tool/internal/platform/auth"
	"github.com/23f2004399/hms-tool/internal/platform/db"
	"github.com/23f2004399/hms-tool/internal/platform/validate"
)

// Sessions is the part of auth.SessionManager the service needs.
type Sessions interface {
	Issue(ctx context.Context, userID string, role auth.Role) (*auth.Session, string, error)
	RevokeToken(ctx context.Context, token string) error
	RevokeUser(ctx context.Context, userID, keepID string) (int, error)
}

// Notifier delivers in-app notifications.
type Notifier interface {
	Notify(ctx context.Context, userID string, typ notification.Type, data map[string]string, link string) error
}

type Service struct {
	repo       Repository
	sessions   Sessions
	notifier   Notifier
	validator  *validate.Validator
	bcryptCost int
	logger     zerolog.Logger
	now        func() time.Time
}

func NewService(repo Repository, sessions Sessions, notifier Notifier, bcryptCost int, logger zerolog.Logger) *Service {
	return &Service{
		repo:       repo,
		sessions:   sessions,
		notifier:   notifier,
		validator:  validate.New(),
		bcryptCost: bcryptCost,
		logger:     logger.With().Str("component", "identity").Logger(),
		now:        time.Now,
	}
}

// Register creates a user with the details row of its role. The caller must
// log in afterwards; no session is issued.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*User, error) {
	req.Email = NormalizeEmail(req.Email)
	req.FullName = strings.TrimSpace(req.FullName)
	req.Gender = strings.ToUpper(strings.TrimSpace(req.Gender))
	req.BloodGroup = strings.ToUpper(strings.TrimSpace(req.BloodGroup))
	req.Specialization = strings.TrimSpace(req.Specialization)
	req.ConsultationModes = NormalizeModes(req.ConsultationModes)

	if err := s.validator.Validate(&req); err != nil {
		return nil, err
	}
	if len(req.Password) > auth.MaxPasswordBytes {
		return nil, passwordTooLong("password")
	}
	role, err := auth.ParseRole(req.Role)
	if err != nil {
		return nil, apperr.Validation("role must be one of: patient, doctor")
	}
	now := s.now().UTC()
	if req.DOB != "" && !ValidDOB(req.DOB, now) {
		return nil, apperr.Validation("dob must not be in the future")
	}
	if role == auth.RoleDoctor && req.Specialization == "" {
		return nil, apperr.Validation("specialization is required for doctors")
	}

	if _, err := s.repo.GetByEmail(ctx, req.Email); err == nil {
		return nil, apperr.ErrDuplicateEmail
	} else if !errors.Is(err, db.ErrNotFound) {
		return nil, fmt.Errorf("look up email: %w", err)
	}

	hash, err := auth.HashPassword(req.Password, s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &User{
		ID:           uuid.NewString(),
		FullName:     req.FullName,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         role,
		Phone:        optional(req.Phone),
		Gender:       optional(req.Gender),
		DOB:          optional(req.DOB),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	var (
		patient *PatientDetails
		doctor  *DoctorDetails
	)
	switch role {
	case auth.RolePatient:
		patient = &PatientDetails{
			UserID:            u.ID,
			BloodGroup:        optional(req.BloodGroup),
			Allergies:         optional(req.Allergies),
			ChronicConditions: optional(req.ChronicConditions),
			MedicalHistory:    optional(req.MedicalHistory),
			EmergencyContact:  optional(req.EmergencyContact),
			UpdatedAt:         now,
		}
	case auth.RoleDoctor:
		modes := ConsultationModes(req.ConsultationModes)
		if len(modes) == 0 {
			modes = ConsultationModes{ModePhysical}
		}
		doctor = &DoctorDetails{
			UserID:            u.ID,
			Specialization:    req.Specialization,
			Qualification:     optional(req.Qualification),
			LicenseID:         optional(req.LicenseID),
			ExperienceYears:   req.ExperienceYears,
			ConsultationFee:   req.ConsultationFee,
			ClinicAddress:     optional(req.ClinicAddress),
			ConsultationModes: modes,
			UpdatedAt:         now,
		}
	}

	if err := s.repo.Create(ctx, u, patient, doctor); err != nil {
		if errors.Is(err, apperr.ErrDuplicateEmail) {
			return nil, apperr.ErrDuplicateEmail
		}
		return nil, err
	}
	s.logger.Info().Str("user_id", u.ID).Str("role", role.String()).Msg("user registered")

	if s.notifier != nil {
		if err := s.notifier.Notify(ctx, u.ID, notification.TypeWelcome, map[string]string{"name": u.FullName}, "/profile"); err != nil {
			s.logger.Warn().Err(err).Str("user_id", u.ID).Msg("welcome notification failed")
		}
	}
	return u, nil
}

// Login verifies the credentials and issues a session. Unknown emails and
// wrong passwords fail the same way and take the same time.
func (s *Service) Login(ctx context.Context, email, password string) (*User, *auth.Session, string, error) {
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, nil, "", apperr.Validation("email and password are required")
	}

	u, err := s.repo.GetByEmail(ctx, email)
	if errors.Is(err, db.ErrNotFound) {
		auth.BurnPasswordCheck(password)
		return nil, nil, "", apperr.ErrInvalidCredentials
	}
	if err != nil {
		return nil, nil, "", fmt.Errorf("look up user: %w", err)
	}

	if err := auth.CheckPassword(u.PasswordHash, password); err != nil {
		if !errors.Is(err, auth.ErrPasswordMismatch) {
			s.logger.Error().Err(err).Str("user_id", u.ID).Msg("stored password hash is unusable")
		}
		return nil, nil, "", apperr.ErrInvalidCredentials
	}

	sess, token, err := s.sessions.Issue(ctx, u.ID, u.Role)
	if err != nil {
		return nil, nil, "", err
	}
	s.logger.Info().Str("user_id", u.ID).Msg("user logged in")
	return u, sess, token, nil
}

// Logout ends the session named by token.
func (s *Service) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.sessions.RevokeToken(ctx, token)
}

// ChangePassword replaces the password after checking the current one and
// ends every other session of the user.
func (s *Service) ChangePassword(ctx context.Context, userID, sessionID string, req ChangePasswordRequest) error {
	if err := s.validator.Validate(&req); err != nil {
		return err
	}
	if len(req.NewPassword) > auth.MaxPasswordBytes {
		return passwordTooLong("new_password")
	}
	if req.CurrentPassword == req.NewPassword {
		return apperr.Validation("new_password must differ from the current password")
	}

	u, err := s.repo.GetByID(ctx, userID)
	if errors.Is(err, db.ErrNotFound) {
		return apperr.ErrUnauthorized
	}
	if err != nil {
		return fmt.Errorf("look up user: %w", err)
	}
	if err := auth.CheckPassword(u.PasswordHash, req.CurrentPassword); err != nil {
		return apperr.New(apperr.ErrInvalidCredentials, "current password is incorrect")
	}

	hash, err := auth.HashPassword(req.NewPassword, s.bcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.repo.UpdatePassword(ctx, userID, hash, s.now().UTC()); err != nil {
		return err
	}

	n, err := s.sessions.RevokeUser(ctx, userID, sessionID)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("failed to revoke sessions after password change")
		return nil
	}
	s.logger.Info().Str("user_id", userID).Int("revoked_sessions", n).Msg("password changed")
	return nil
}

func (s *Service) GetUser(ctx context.Context, id string) (*User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, db.ErrNotFound) {
		return nil, apperr.New(apperr.ErrNotFound, "user not found")
	}
	return u, err
}

func (s *Service) ListDoctors(ctx context.Context, specialization string, limit, offset int) ([]*DoctorView, int, error) {
	return s.repo.ListDoctors(ctx, specialization, limit, offset)
}

func (s *Service) GetDoctor(ctx context.Context, id string) (*DoctorView, error) {
	d, err := s.repo.GetDoctor(ctx, id)
	if errors.Is(err, db.ErrNotFound) {
		return nil, apperr.New(apperr.ErrNotFound, "doctor not found")
	}
	return d, err
}

// passwordTooLong reports a password over bcrypt's byte limit. The validator's
// max tag counts characters, so multi-byte passwords can pass it.
func passwordTooLong(field string) error {
	return apperr.Validation(fmt.Sprintf("%s must be at most %d bytes", field, auth.MaxPasswordBytes))
}
