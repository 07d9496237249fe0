package matching_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bloodlink/blood-api/internal/model"
	"github.com/bloodlink/blood-api/internal/repository/memory"
	"github.com/bloodlink/blood-api/internal/service/matching"
	"github.com/bloodlink/blood-api/pkg/errors"
)

type fixture struct {
	accounts *memory.AccountRepository
	requests *memory.RequestRepository
	svc      *matching.Service
}

func newFixture() *fixture {
	accounts := memory.NewAccountRepository()
	requests := memory.NewRequestRepository()
	return &fixture{
		accounts: accounts,
		requests: requests,
		svc:      matching.NewService(accounts, requests),
	}
}

func (f *fixture) addHospital(t *testing.T, location *model.Coordinate) *model.Account {
	t.Helper()
	account := &model.Account{
		Email:      "hospital-" + uuid.NewString() + "@example.com",
		Name:       "General Hospital",
		Role:       model.RoleHospital,
		IsVerified: true,
		IsActive:   true,
		Hospital: &model.HospitalProfile{
			HospitalName:  "General Hospital",
			LicenseNumber: "LIC-1",
			IsApproved:    true,
			Location:      location,
		},
	}
	require.NoError(t, f.accounts.Create(context.Background(), account))
	return account
}

type donorSeed struct {
	group     model.BloodGroup
	location  *model.Coordinate
	donations int
	available bool
	verified  bool
}

func (f *fixture) addDonor(t *testing.T, seed donorSeed) *model.Account {
	t.Helper()
	account := &model.Account{
		Email:      "donor-" + uuid.NewString() + "@example.com",
		Name:       "Donor",
		Role:       model.RoleDonor,
		IsVerified: seed.verified,
		IsActive:   true,
		Donor: &model.DonorProfile{
			BloodGroup:    seed.group,
			Location:      seed.location,
			IsAvailable:   seed.available,
			DonationCount: seed.donations,
		},
	}
	require.NoError(t, f.accounts.Create(context.Background(), account))
	return account
}

func (f *fixture) addRequest(t *testing.T, hospitalID uuid.UUID, group model.BloodGroup) *model.BloodRequest {
	t.Helper()
	request := &model.BloodRequest{
		HospitalID:  hospitalID,
		PatientName: "Patient",
		BloodGroup:  group,
		UnitsNeeded: 1,
		Urgency:     model.UrgencyHigh,
		Status:      model.RequestStatusPending,
	}
	require.NoError(t, f.requests.Create(context.Background(), request))
	return request
}

func coord(lat, lng float64) *model.Coordinate {
	return &model.Coordinate{Latitude: lat, Longitude: lng}
}

func TestEligibleDonorsFiltersAndRanksByDistance(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	// hospital in central Delhi
	hospital := f.addHospital(t, coord(28.65, 77.23))
	request := f.addRequest(t, hospital.ID, model.BloodGroupAPos)
	principal := &model.Principal{AccountID: hospital.ID, Role: model.RoleHospital}

	near := f.addDonor(t, donorSeed{group: model.BloodGroupONeg, location: coord(28.66, 77.24), available: true, verified: true})
	far := f.addDonor(t, donorSeed{group: model.BloodGroupAPos, location: coord(19.08, 72.88), available: true, verified: true})
	noCoord := f.addDonor(t, donorSeed{group: model.BloodGroupOPos, available: true, verified: true})

	// filtered out: incompatible, unavailable, unverified
	f.addDonor(t, donorSeed{group: model.BloodGroupBPos, location: coord(28.66, 77.24), available: true, verified: true})
	f.addDonor(t, donorSeed{group: model.BloodGroupONeg, location: coord(28.66, 77.24), available: false, verified: true})
	f.addDonor(t, donorSeed{group: model.BloodGroupONeg, location: coord(28.66, 77.24), available: true, verified: false})

	ranked, err := f.svc.EligibleDonors(ctx, principal, request.ID)
	require.NoError(t, err)
	require.Len(t, ranked, 3)

	assert.Equal(t, near.ID, ranked[0].Account.ID)
	assert.Equal(t, far.ID, ranked[1].Account.ID)
	assert.Equal(t, noCoord.ID, ranked[2].Account.ID)

	require.NotNil(t, ranked[0].DistanceKm)
	require.NotNil(t, ranked[1].DistanceKm)
	assert.Nil(t, ranked[2].DistanceKm)
	assert.Less(t, *ranked[0].DistanceKm, *ranked[1].DistanceKm)

	// Delhi to Mumbai is roughly 1150 km
	assert.InDelta(t, 1150, *ranked[1].DistanceKm, 50)
}

func TestEligibleDonorsTieBreaks(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	hospital := f.addHospital(t, coord(28.65, 77.23))
	request := f.addRequest(t, hospital.ID, model.BloodGroupABPos)
	principal := &model.Principal{AccountID: hospital.ID, Role: model.RoleHospital}

	same := coord(28.66, 77.24)
	veteran := f.addDonor(t, donorSeed{group: model.BloodGroupONeg, location: same, donations: 5, available: true, verified: true})
	fresh := f.addDonor(t, donorSeed{group: model.BloodGroupAPos, location: same, donations: 0, available: true, verified: true})

	ranked, err := f.svc.EligibleDonors(ctx, principal, request.ID)
	require.NoError(t, err)
	require.Len(t, ranked, 2)

	// equal distance, fewer donations first
	assert.Equal(t, fresh.ID, ranked[0].Account.ID)
	assert.Equal(t, veteran.ID, ranked[1].Account.ID)
}

func TestEligibleDonorsOwnershipEnforced(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	owner := f.addHospital(t, nil)
	other := f.addHospital(t, nil)
	request := f.addRequest(t, owner.ID, model.BloodGroupAPos)

	_, err := f.svc.EligibleDonors(ctx, &model.Principal{AccountID: other.ID, Role: model.RoleHospital}, request.ID)
	assert.True(t, errors.Is(err, errors.ErrForbidden))

	_, err = f.svc.EligibleDonors(ctx, &model.Principal{Role: model.RoleAdmin}, request.ID)
	assert.NoError(t, err)
}

func TestRegisterDirectDonor(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	hospital := f.addHospital(t, nil)
	principal := &model.Principal{AccountID: hospital.ID, Role: model.RoleHospital}

	donatedAt := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	account, err := f.svc.RegisterDirectDonor(ctx, principal, &model.DirectDonorRequest{
		Name:       "Walk-in Donor",
		Phone:      "+1111111111",
		BloodGroup: model.BloodGroupBNeg,
		DonatedAt:  &donatedAt,
	})
	require.NoError(t, err)
	assert.True(t, account.IsVerified)
	assert.Equal(t, 1, account.Donor.DonationCount)
	require.NotNil(t, account.Donor.LastDonation)
	assert.Equal(t, donatedAt, *account.Donor.LastDonation)

	_, err = f.svc.RegisterDirectDonor(ctx, principal, &model.DirectDonorRequest{
		Name:       "Bad Group",
		Phone:      "+1111111112",
		BloodGroup: "Q+",
	})
	assert.True(t, errors.Is(err, errors.ErrInvalidBloodGroup))

	_, err = f.svc.RegisterDirectDonor(ctx, &model.Principal{Role: model.RoleDonor}, &model.DirectDonorRequest{
		Name:       "Donor",
		Phone:      "+1111111113",
		BloodGroup: model.BloodGroupAPos,
	})
	assert.True(t, errors.Is(err, errors.ErrForbidden))
}

func TestSetAvailability(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	donor := f.addDonor(t, donorSeed{group: model.BloodGroupONeg, available: true, verified: true})
	principal := &model.Principal{AccountID: donor.ID, Role: model.RoleDonor}

	updated, err := f.svc.SetAvailability(ctx, principal, false)
	require.NoError(t, err)
	assert.False(t, updated.Donor.IsAvailable)

	// unavailable donors disappear from matching
	hospital := f.addHospital(t, nil)
	request := f.addRequest(t, hospital.ID, model.BloodGroupABPos)
	ranked, err := f.svc.EligibleDonors(ctx, &model.Principal{AccountID: hospital.ID, Role: model.RoleHospital}, request.ID)
	require.NoError(t, err)
	assert.Empty(t, ranked)
}
