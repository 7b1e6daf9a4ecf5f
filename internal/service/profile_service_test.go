package service

import (
	"context"
	"testing"
	"time"

	"storefront-service/internal/entity"
	"storefront-service/internal/otp"
	"storefront-service/internal/repository/memstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturedCodes map[string]string

func (c capturedCodes) SendCode(_ context.Context, email, code string) error {
	c[email] = code
	return nil
}

func newProfileService() (*ProfileService, capturedCodes) {
	sent := capturedCodes{}
	return NewProfileService(memstore.NewProfileStore(nil), otp.NewMemoryStore(), sent, 10*time.Minute), sent
}

func register(t *testing.T, svc *ProfileService, sent capturedCodes, subject string, role entity.Role, email string) (*entity.Profile, error) {
	t.Helper()
	require.NoError(t, svc.RequestVerification(context.Background(), email))
	return svc.Register(context.Background(), RegisterRequest{
		Subject:          subject,
		Role:             role,
		Name:             subject,
		Email:            email,
		VerificationCode: sent[normalizeEmail(email)],
	})
}

func TestRegisterWithVerificationCode(t *testing.T) {
	svc, sent := newProfileService()

	profile, err := register(t, svc, sent, "sub-1", entity.RoleUser, " Ana@Example.com ")
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", profile.Email)
	assert.True(t, profile.Active)

	got, err := svc.GetProfile(context.Background(), "sub-1")
	require.NoError(t, err)
	assert.Equal(t, entity.RoleUser, got.Role)

	_, err = register(t, svc, sent, "sub-1", entity.RoleUser, "ana@example.com")
	assert.ErrorIs(t, err, ErrProfileExists)
}

func TestRegisterRejectsBadCode(t *testing.T) {
	ctx := context.Background()
	svc, _ := newProfileService()
	require.NoError(t, svc.RequestVerification(ctx, "b@example.com"))

	_, err := svc.Register(ctx, RegisterRequest{Subject: "sub-2", Role: entity.RoleUser, Email: "b@example.com", VerificationCode: "not-it"})
	assert.ErrorIs(t, err, ErrInvalidVerificationCode)

	_, err = svc.Register(ctx, RegisterRequest{Subject: "sub-2", Role: entity.RoleUser, Email: "b@example.com"})
	assert.ErrorIs(t, err, ErrVerificationCodeRequired)

	_, err = svc.Register(ctx, RegisterRequest{Subject: "sub-2", Role: "owner", Email: "b@example.com", VerificationCode: "1"})
	assert.ErrorIs(t, err, ErrInvalidRole)
}

func TestSecondAdminRejected(t *testing.T) {
	svc, sent := newProfileService()

	_, err := register(t, svc, sent, "admin-1", entity.RoleAdmin, "root@example.com")
	require.NoError(t, err)

	_, err = register(t, svc, sent, "admin-2", entity.RoleAdmin, "other@example.com")
	assert.ErrorIs(t, err, ErrAdminExists)
}

func TestStaffActivation(t *testing.T) {
	ctx := context.Background()
	svc, sent := newProfileService()

	_, err := register(t, svc, sent, "staff-1", entity.RoleStaff, "s1@example.com")
	require.NoError(t, err)
	_, err = register(t, svc, sent, "user-1", entity.RoleUser, "u1@example.com")
	require.NoError(t, err)

	active, err := svc.IsActiveStaff(ctx, "staff-1")
	require.NoError(t, err)
	assert.True(t, active)

	_, err = svc.SetStaffActive(ctx, "staff-1", false)
	require.NoError(t, err)
	active, err = svc.IsActiveStaff(ctx, "staff-1")
	require.NoError(t, err)
	assert.False(t, active)

	_, err = svc.SetStaffActive(ctx, "user-1", false)
	assert.ErrorIs(t, err, ErrProfileNotFound)

	active, err = svc.IsActiveStaff(ctx, "nobody")
	require.NoError(t, err)
	assert.False(t, active)

	staff, err := svc.ListStaff(ctx)
	require.NoError(t, err)
	require.Len(t, staff, 1)
	assert.Equal(t, "staff-1", staff[0].Subject)
}
