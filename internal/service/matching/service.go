// Package matching computes the ranked set of eligible donors for a blood
// request and manages the hospital-facing donor roster.
package matching

import (
	"context"
	stderrors "errors"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/bloodlink/blood-api/internal/model"
	"github.com/bloodlink/blood-api/internal/repository"
	"github.com/bloodlink/blood-api/pkg/errors"
)

const earthRadiusKm = 6371.0

// RankedDonor is an eligible donor with its distance from the hospital.
// DistanceKm is nil when the donor has no stored coordinate; such donors
// rank last rather than erroring out.
type RankedDonor struct {
	Account    *model.Account `json:"account"`
	DistanceKm *float64       `json:"distance_km,omitempty"`
}

// Service implements donor matching and the donor roster
type Service struct {
	accounts repository.AccountRepository
	requests repository.RequestRepository
}

// NewService creates the matching service
func NewService(accounts repository.AccountRepository, requests repository.RequestRepository) *Service {
	return &Service{accounts: accounts, requests: requests}
}

// EligibleDonors returns the ranked eligible donors for one of the calling
// hospital's requests: compatible groups only, nearest first, ties broken by
// fewer prior donations then earliest account creation.
func (s *Service) EligibleDonors(ctx context.Context, principal *model.Principal, requestID uuid.UUID) ([]*RankedDonor, error) {
	request, err := s.requests.Get(ctx, requestID)
	if err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return nil, errors.NotFound("blood request")
		}
		return nil, errors.Internal(err)
	}

	switch principal.Role {
	case model.RoleAdmin:
	case model.RoleHospital:
		if request.HospitalID != principal.AccountID {
			return nil, errors.Forbidden("request belongs to another hospital")
		}
	default:
		return nil, errors.Forbidden("only hospitals may match donors")
	}

	hospital, err := s.accounts.Get(ctx, request.HospitalID)
	if err != nil {
		return nil, errors.Internal(err)
	}
	var origin *model.Coordinate
	if hospital.Hospital != nil {
		origin = hospital.Hospital.Location
	}

	donors, err := s.accounts.ListEligibleDonors(ctx, model.CompatibleDonors(request.BloodGroup))
	if err != nil {
		return nil, errors.Internal(err)
	}

	ranked := make([]*RankedDonor, 0, len(donors))
	for _, donor := range donors {
		entry := &RankedDonor{Account: donor}
		if origin != nil && donor.Donor != nil && donor.Donor.Location != nil {
			d := haversineKm(*origin, *donor.Donor.Location)
			entry.DistanceKm = &d
		}
		ranked = append(ranked, entry)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return lessRanked(ranked[i], ranked[j])
	})
	return ranked, nil
}

func lessRanked(a, b *RankedDonor) bool {
	switch {
	case a.DistanceKm != nil && b.DistanceKm == nil:
		return true
	case a.DistanceKm == nil && b.DistanceKm != nil:
		return false
	case a.DistanceKm != nil && b.DistanceKm != nil && *a.DistanceKm != *b.DistanceKm:
		return *a.DistanceKm < *b.DistanceKm
	}

	if a.Account.Donor.DonationCount != b.Account.Donor.DonationCount {
		return a.Account.Donor.DonationCount < b.Account.Donor.DonationCount
	}
	return a.Account.CreatedAt.Before(b.Account.CreatedAt)
}

// haversineKm is the straight-line distance over the stored coordinates
func haversineKm(a, b model.Coordinate) float64 {
	lat1 := a.Latitude * math.Pi / 180
	lat2 := b.Latitude * math.Pi / 180
	dLat := (b.Latitude - a.Latitude) * math.Pi / 180
	dLng := (b.Longitude - a.Longitude) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusKm * math.Asin(math.Sqrt(h))
}

// RegisterDirectDonor records a donor who donated out of band, bypassing the
// request/accept flow. The blood group is still validated against the eight
// recognized types.
func (s *Service) RegisterDirectDonor(ctx context.Context, principal *model.Principal, req *model.DirectDonorRequest) (*model.Account, error) {
	if principal.Role != model.RoleHospital {
		return nil, errors.Forbidden("only hospitals may register direct donors")
	}
	if !req.BloodGroup.Valid() {
		return nil, errors.Newf(errors.ErrInvalidBloodGroup, "unrecognized blood group %q", req.BloodGroup)
	}

	donatedAt := time.Now()
	if req.DonatedAt != nil {
		donatedAt = *req.DonatedAt
	}

	account := &model.Account{
		// Direct donors have no login; a synthetic per-hospital address
		// keeps the (email, role) uniqueness invariant intact.
		Email:      "direct+" + uuid.NewString() + "@" + principal.AccountID.String() + ".local",
		Name:       req.Name,
		Phone:      req.Phone,
		Role:       model.RoleDonor,
		IsVerified: true,
		IsActive:   true,
		Donor: &model.DonorProfile{
			BloodGroup:    req.BloodGroup,
			DonationCount: 1,
			LastDonation:  &donatedAt,
		},
	}

	if err := s.accounts.Create(ctx, account); err != nil {
		return nil, errors.Internal(err)
	}
	return account, nil
}

// HospitalRoster returns the accepted-donor roster and donation history for
// the calling hospital's requests.
func (s *Service) HospitalRoster(ctx context.Context, principal *model.Principal) ([]*model.DonationRecord, error) {
	if principal.Role != model.RoleHospital {
		return nil, errors.Forbidden("only hospitals may list their donors")
	}

	records, err := s.requests.ListDonationsByHospital(ctx, principal.AccountID)
	if err != nil {
		return nil, errors.Internal(err)
	}
	return records, nil
}

// DonorHistory returns the calling donor's donation records
func (s *Service) DonorHistory(ctx context.Context, principal *model.Principal) ([]*model.DonationRecord, error) {
	if principal.Role != model.RoleDonor {
		return nil, errors.Forbidden("only donors may list their donations")
	}

	records, err := s.requests.ListDonationsByDonor(ctx, principal.AccountID)
	if err != nil {
		return nil, errors.Internal(err)
	}
	return records, nil
}

// SetAvailability toggles the calling donor's availability flag
func (s *Service) SetAvailability(ctx context.Context, principal *model.Principal, available bool) (*model.Account, error) {
	if principal.Role != model.RoleDonor {
		return nil, errors.Forbidden("only donors may change availability")
	}

	account, err := s.accounts.Get(ctx, principal.AccountID)
	if err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return nil, errors.NotFound("account")
		}
		return nil, errors.Internal(err)
	}
	if account.Donor == nil {
		return nil, errors.Internal(stderrors.New("donor account has no donor profile"))
	}

	account.Donor.IsAvailable = available
	if err := s.accounts.Update(ctx, account); err != nil {
		return nil, errors.Internal(err)
	}
	return account, nil
}
