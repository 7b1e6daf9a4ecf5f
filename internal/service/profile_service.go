package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"storefront-service/internal/entity"
	"storefront-service/internal/otp"
	"storefront-service/internal/repository"
)

// ProfileService keeps user, staff and admin profiles in the identity store.
type ProfileService struct {
	profiles ProfileStore
	codes    otp.Store
	sender   otp.Sender
	codeTTL  time.Duration
}

func NewProfileService(profiles ProfileStore, codes otp.Store, sender otp.Sender, codeTTL time.Duration) *ProfileService {
	return &ProfileService{profiles: profiles, codes: codes, sender: sender, codeTTL: codeTTL}
}

type RegisterRequest struct {
	Subject          string
	Role             entity.Role
	Name             string
	Email            string
	Phone            string
	VerificationCode string
}

// RequestVerification issues a fresh code for email and hands it to the
// sender. A previous pending code for the same email is replaced.
func (s *ProfileService) RequestVerification(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if email == "" {
		return validationError("email is required")
	}
	code, err := otp.GenerateCode(6)
	if err != nil {
		return err
	}
	if err := s.codes.Put(ctx, email, code, s.codeTTL); err != nil {
		logger.Error().Err(err).Msg("Error storing verification code")
		return err
	}
	if err := s.sender.SendCode(ctx, email, code); err != nil {
		logger.Error().Err(err).Msg("Error sending verification code")
		return err
	}
	return nil
}

// Register creates the profile of an authenticated subject. The email must
// be proven with a code from RequestVerification. Only one admin may exist
// and new staff start active.
func (s *ProfileService) Register(ctx context.Context, req RegisterRequest) (*entity.Profile, error) {
	if strings.TrimSpace(req.Subject) == "" {
		return nil, ErrMissingUser
	}
	if !req.Role.Valid() {
		return nil, ErrInvalidRole
	}
	email := normalizeEmail(req.Email)
	if email == "" {
		return nil, validationError("email is required")
	}
	if strings.TrimSpace(req.VerificationCode) == "" {
		return nil, ErrVerificationCodeRequired
	}

	if req.Role == entity.RoleAdmin {
		count, err := s.profiles.CountByRole(ctx, entity.RoleAdmin)
		if err != nil {
			logger.Error().Err(err).Msg("Error counting admin profiles")
			return nil, err
		}
		if count > 0 {
			return nil, ErrAdminExists
		}
	}

	if err := s.codes.Verify(ctx, email, req.VerificationCode); err != nil {
		if errors.Is(err, otp.ErrCodeNotFound) || errors.Is(err, otp.ErrCodeMismatch) || errors.Is(err, otp.ErrTooManyAttempts) {
			return nil, ErrInvalidVerificationCode
		}
		return nil, err
	}

	profile, err := s.profiles.Create(ctx, &entity.Profile{
		Subject: req.Subject,
		Role:    req.Role,
		Active:  true,
		Name:    strings.TrimSpace(req.Name),
		Email:   email,
		Phone:   strings.TrimSpace(req.Phone),
	})
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			if req.Role == entity.RoleAdmin {
				return nil, ErrAdminExists
			}
			return nil, ErrProfileExists
		}
		logger.Error().Err(err).Msgf("Error creating profile for %s", req.Subject)
		return nil, err
	}
	return profile, nil
}

func (s *ProfileService) GetProfile(ctx context.Context, subject string) (*entity.Profile, error) {
	profile, err := s.profiles.GetBySubject(ctx, subject)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProfileNotFound
		}
		logger.Error().Err(err).Msgf("Error getting profile %s", subject)
		return nil, err
	}
	return profile, nil
}

func (s *ProfileService) ListStaff(ctx context.Context) ([]*entity.Profile, error) {
	staff, err := s.profiles.ListByRole(ctx, entity.RoleStaff)
	if err != nil {
		logger.Error().Err(err).Msg("Error listing staff")
		return nil, err
	}
	return staff, nil
}

// SetStaffActive activates or deactivates a staff member.
func (s *ProfileService) SetStaffActive(ctx context.Context, subject string, active bool) (*entity.Profile, error) {
	profile, err := s.profiles.SetActive(ctx, subject, active)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProfileNotFound
		}
		logger.Error().Err(err).Msgf("Error updating staff %s", subject)
		return nil, err
	}
	return profile, nil
}

// IsActiveStaff reports whether subject may use the staff dashboard.
func (s *ProfileService) IsActiveStaff(ctx context.Context, subject string) (bool, error) {
	profile, err := s.GetProfile(ctx, subject)
	if err != nil {
		if errors.Is(err, ErrProfileNotFound) {
			return false, nil
		}
		return false, err
	}
	return profile.Role == entity.RoleStaff && profile.Active, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
