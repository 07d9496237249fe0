package admin_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bloodlink/blood-api/internal/model"
	"github.com/bloodlink/blood-api/internal/repository/memory"
	"github.com/bloodlink/blood-api/internal/service/admin"
	"github.com/bloodlink/blood-api/pkg/errors"
)

var adminPrincipal = &model.Principal{AccountID: uuid.New(), Role: model.RoleAdmin}

func seedHospital(t *testing.T, accounts *memory.AccountRepository) *model.Account {
	t.Helper()
	account := &model.Account{
		Email:      "hospital-" + uuid.NewString() + "@example.com",
		Name:       "Hospital",
		Role:       model.RoleHospital,
		IsVerified: true,
		IsActive:   true,
		Hospital:   &model.HospitalProfile{HospitalName: "Hospital", LicenseNumber: "LIC-1"},
	}
	require.NoError(t, accounts.Create(context.Background(), account))
	return account
}

func seedDonor(t *testing.T, accounts *memory.AccountRepository) *model.Account {
	t.Helper()
	account := &model.Account{
		Email:      "donor-" + uuid.NewString() + "@example.com",
		Name:       "Donor",
		Role:       model.RoleDonor,
		IsVerified: true,
		IsActive:   true,
		Donor:      &model.DonorProfile{BloodGroup: model.BloodGroupONeg, IsAvailable: true},
	}
	require.NoError(t, accounts.Create(context.Background(), account))
	return account
}

func TestAdminOnly(t *testing.T) {
	accounts := memory.NewAccountRepository()
	svc := admin.NewService(accounts)
	hospital := seedHospital(t, accounts)

	intruder := &model.Principal{AccountID: hospital.ID, Role: model.RoleHospital}

	_, _, err := svc.ListAccounts(context.Background(), intruder, &model.AccountFilters{})
	assert.True(t, errors.Is(err, errors.ErrForbidden))

	_, err = svc.SetAccountStatus(context.Background(), intruder, hospital.ID, false)
	assert.True(t, errors.Is(err, errors.ErrForbidden))

	_, err = svc.ApproveHospital(context.Background(), intruder, hospital.ID, true)
	assert.True(t, errors.Is(err, errors.ErrForbidden))
}

func TestApproveHospital(t *testing.T) {
	accounts := memory.NewAccountRepository()
	svc := admin.NewService(accounts)
	ctx := context.Background()

	hospital := seedHospital(t, accounts)
	assert.False(t, hospital.IsApprovedHospital())

	approved, err := svc.ApproveHospital(ctx, adminPrincipal, hospital.ID, true)
	require.NoError(t, err)
	assert.True(t, approved.IsApprovedHospital())

	revoked, err := svc.ApproveHospital(ctx, adminPrincipal, hospital.ID, false)
	require.NoError(t, err)
	assert.False(t, revoked.IsApprovedHospital())

	donor := seedDonor(t, accounts)
	_, err = svc.ApproveHospital(ctx, adminPrincipal, donor.ID, true)
	assert.True(t, errors.Is(err, errors.ErrInvalidProfile))
}

func TestSetAccountStatus(t *testing.T) {
	accounts := memory.NewAccountRepository()
	svc := admin.NewService(accounts)
	ctx := context.Background()

	donor := seedDonor(t, accounts)

	deactivated, err := svc.SetAccountStatus(ctx, adminPrincipal, donor.ID, false)
	require.NoError(t, err)
	assert.False(t, deactivated.IsActive)

	reactivated, err := svc.SetAccountStatus(ctx, adminPrincipal, donor.ID, true)
	require.NoError(t, err)
	assert.True(t, reactivated.IsActive)

	_, err = svc.SetAccountStatus(ctx, adminPrincipal, uuid.New(), false)
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestListAccountsFilters(t *testing.T) {
	accounts := memory.NewAccountRepository()
	svc := admin.NewService(accounts)
	ctx := context.Background()

	seedHospital(t, accounts)
	seedDonor(t, accounts)
	seedDonor(t, accounts)

	all, total, err := svc.ListAccounts(ctx, adminPrincipal, &model.AccountFilters{})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Len(t, all, 3)

	donors, total, err := svc.ListAccounts(ctx, adminPrincipal, &model.AccountFilters{Role: model.RoleDonor})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	for _, a := range donors {
		assert.Equal(t, model.RoleDonor, a.Role)
	}
}

func TestDeleteAccount(t *testing.T) {
	accounts := memory.NewAccountRepository()
	svc := admin.NewService(accounts)
	ctx := context.Background()

	donor := seedDonor(t, accounts)
	require.NoError(t, svc.DeleteAccount(ctx, adminPrincipal, donor.ID))

	err := svc.DeleteAccount(ctx, adminPrincipal, donor.ID)
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}
