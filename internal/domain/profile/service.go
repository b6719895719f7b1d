package profile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/23f2004399/hms-tool/internal/domain/identity"
	"github.com/23f2004399/hms-tool/internal/platform/apperr"
	"github.com/23f2004399/hms-tool/internal/platform/auth"
	"github.com/23f2004399/hms-tool/internal/platform/db"
	"github.com/23f2004399/hms-tool/internal/platform/validate"
)

type Service struct {
	repo      Repository
	validator *validate.Validator
	logger    zerolog.Logger
	now       func() time.Time
}

func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{
		repo:      repo,
		validator: validate.New(),
		logger:    logger.With().Str("component", "profile").Logger(),
		now:       time.Now,
	}
}

// Get returns the user merged with the details row of its role.
func (s *Service) Get(ctx context.Context, userID string) (*View, error) {
	u, err := s.repo.GetUser(ctx, userID)
	if errors.Is(err, db.ErrNotFound) {
		return nil, apperr.New(apperr.ErrNotFound, "user not found")
	}
	if err != nil {
		return nil, err
	}

	view := &View{User: u}
	switch u.Role {
	case auth.RolePatient:
		view.Patient, err = s.repo.GetPatientDetails(ctx, userID)
	case auth.RoleDoctor:
		view.Doctor, err = s.repo.GetDoctorDetails(ctx, userID)
	}
	if err != nil && !errors.Is(err, db.ErrNotFound) {
		return nil, err
	}
	return view, nil
}

// Update applies fields for a caller holding role. Every field is checked
// against the role's allow-list and validated before anything is written;
// the write itself is a single transaction.
func (s *Service) Update(ctx context.Context, userID string, role auth.Role, fields map[string]json.RawMessage) (*View, error) {
	if !role.Valid() {
		return nil, apperr.ErrForbidden
	}
	if len(fields) == 0 {
		return nil, apperr.Validation("no fields to update")
	}

	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if _, _, foreign := lookup(role, name); foreign {
			return nil, apperr.New(apperr.ErrForbidden, fmt.Sprintf("%s cannot be changed by a %s", name, role))
		}
	}

	changes := Changes{User: map[string]interface{}{}, Details: map[string]interface{}{}}
	for _, name := range names {
		f, allowed, _ := lookup(role, name)
		if !allowed {
			return nil, apperr.Validation("unknown field " + name)
		}
		value, err := s.decode(name, f, fields[name])
		if err != nil {
			return nil, err
		}
		if f.details {
			changes.Details[name] = value
		} else {
			changes.User[name] = value
		}
	}

	if err := s.repo.Update(ctx, userID, role, changes, s.now().UTC()); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, apperr.New(apperr.ErrNotFound, "user not found")
		}
		return nil, err
	}
	s.logger.Info().Str("user_id", userID).Strs("fields", names).Msg("profile updated")
	return s.Get(ctx, userID)
}

// decode turns raw JSON into the value stored for field name. Empty optional
// text becomes NULL.
func (s *Service) decode(name string, f field, raw json.RawMessage) (interface{}, error) {
	switch f.kind {
	case kindText, kindRequiredText, kindEnum, kindDate:
		var v *string
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, apperr.Validation(name + " must be a string")
		}
		text := ""
		if v != nil {
			text = strings.TrimSpace(*v)
		}
		if f.kind == kindEnum {
			text = strings.ToUpper(text)
		}
		if text == "" {
			if f.kind == kindRequiredText {
				return nil, apperr.Validation(name + " is required")
			}
			return nil, nil
		}
		if f.kind == kindDate {
			if err := s.validator.Var(name, text, "datetime="+identity.DateLayout); err != nil {
				return nil, err
			}
			if !identity.ValidDOB(text, s.now()) {
				return nil, apperr.Validation(name + " must not be in the future")
			}
			return text, nil
		}
		if err := s.validator.Var(name, text, f.tag); err != nil {
			return nil, err
		}
		return text, nil

	case kindInt:
		var v int
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, apperr.Validation(name + " must be a whole number")
		}
		if err := s.validator.Var(name, v, f.tag); err != nil {
			return nil, err
		}
		return v, nil

	case kindFloat:
		var v float64
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, apperr.Validation(name + " must be a number")
		}
		if err := s.validator.Var(name, v, f.tag); err != nil {
			return nil, err
		}
		return v, nil

	case kindModes:
		var v []string
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, apperr.Validation(name + " must be a list of strings")
		}
		modes := identity.NormalizeModes(v)
		if len(modes) == 0 {
			return nil, apperr.Validation(name + " must contain at least one mode")
		}
		if err := s.validator.Var(name, modes, "dive,oneof=PHYSICAL ONLINE"); err != nil {
			return nil, err
		}
		return identity.ConsultationModes(modes), nil
	}
	return nil, fmt.Errorf("profile field %s has no decoder", name)
}
