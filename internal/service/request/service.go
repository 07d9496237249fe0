// Package request implements the blood request lifecycle engine. Every
// status mutation is an atomic check-and-set against the current status, so
// concurrent callers can never drive a request through a transition the graph
// forbids.
package request

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/google/uuid"

	"github.com/bloodlink/blood-api/internal/model"
	"github.com/bloodlink/blood-api/internal/repository"
	"github.com/bloodlink/blood-api/pkg/errors"
)

// Service owns the BloodRequest state machine
type Service struct {
	requests repository.RequestRepository
	accounts repository.AccountRepository
}

// NewService creates the lifecycle engine
func NewService(requests repository.RequestRepository, accounts repository.AccountRepository) *Service {
	return &Service{requests: requests, accounts: accounts}
}

// Create opens a new pending request. Only a verified, admin-approved,
// active hospital may create one.
func (s *Service) Create(ctx context.Context, principal *model.Principal, req *model.CreateRequestRequest) (*model.BloodRequest, error) {
	hospital, err := s.requireHospital(ctx, principal)
	if err != nil {
		return nil, err
	}

	if !req.BloodGroup.Valid() {
		return nil, errors.Newf(errors.ErrInvalidBloodGroup, "unrecognized blood group %q", req.BloodGroup)
	}
	if req.UnitsNeeded < 1 {
		return nil, errors.New(errors.ErrInvalidProfile, "units needed must be at least 1")
	}

	request := &model.BloodRequest{
		HospitalID:  hospital.ID,
		PatientName: req.PatientName,
		BloodGroup:  req.BloodGroup,
		UnitsNeeded: req.UnitsNeeded,
		Urgency:     req.Urgency,
		Notes:       req.Notes,
		RequiredBy:  req.RequiredBy,
		Status:      model.RequestStatusPending,
	}

	if err := s.requests.Create(ctx, request); err != nil {
		return nil, errors.Internal(err)
	}
	return request, nil
}

// Get returns a single request; hospitals see only their own, admins see any
func (s *Service) Get(ctx context.Context, principal *model.Principal, id uuid.UUID) (*model.BloodRequest, error) {
	request, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	switch principal.Role {
	case model.RoleAdmin:
	case model.RoleHospital:
		if request.HospitalID != principal.AccountID {
			return nil, errors.Forbidden("request belongs to another hospital")
		}
	case model.RoleDonor:
		// Donors may inspect any non-terminal request they could accept,
		// or one they already accepted.
		if request.Status.Terminal() && !request.HasDonor(principal.AccountID) {
			return nil, errors.Forbidden("request is no longer visible")
		}
	default:
		return nil, errors.Forbidden("unknown role")
	}
	return request, nil
}

// ListForHospital returns the caller's own requests
func (s *Service) ListForHospital(ctx context.Context, principal *model.Principal, filters *model.RequestFilters) ([]*model.BloodRequest, int, error) {
	if principal.Role != model.RoleHospital {
		return nil, 0, errors.Forbidden("only hospitals may list their requests")
	}

	filters.HospitalID = principal.AccountID
	filters.Normalize()

	requests, total, err := s.requests.List(ctx, filters)
	if err != nil {
		return nil, 0, errors.Internal(err)
	}
	return requests, total, nil
}

// ListOpenForDonor returns open requests the calling donor is compatible with
func (s *Service) ListOpenForDonor(ctx context.Context, principal *model.Principal, page model.Pagination) ([]*model.BloodRequest, int, error) {
	donor, err := s.requireDonor(ctx, principal)
	if err != nil {
		return nil, 0, err
	}

	var recipients []model.BloodGroup
	for _, g := range model.BloodGroups {
		if donor.Donor.BloodGroup.CanDonateTo(g) {
			recipients = append(recipients, g)
		}
	}

	filters := &model.RequestFilters{
		OpenOnly:        true,
		RecipientGroups: recipients,
		Pagination:      page,
	}
	filters.Normalize()

	requests, total, err := s.requests.List(ctx, filters)
	if err != nil {
		return nil, 0, errors.Internal(err)
	}
	return requests, total, nil
}

// ListAll returns any requests; admin only
func (s *Service) ListAll(ctx context.Context, principal *model.Principal, filters *model.RequestFilters) ([]*model.BloodRequest, int, error) {
	if principal.Role != model.RoleAdmin {
		return nil, 0, errors.Forbidden("only admins may list all requests")
	}

	filters.Normalize()
	requests, total, err := s.requests.List(ctx, filters)
	if err != nil {
		return nil, 0, errors.Internal(err)
	}
	return requests, total, nil
}

// Accept records a donor's commitment to the request. Acceptance is
// append-only and additive: the first acceptance moves a pending request to
// accepted, later ones only extend the donor list while the hospital has not
// confirmed.
func (s *Service) Accept(ctx context.Context, principal *model.Principal, requestID uuid.UUID) (*model.BloodRequest, error) {
	donor, err := s.requireDonor(ctx, principal)
	if err != nil {
		return nil, err
	}
	if !donor.Donor.IsAvailable {
		return nil, errors.Forbidden("donor is not available to donate")
	}

	request, err := s.get(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if request.Status.Terminal() {
		return nil, errors.AlreadyFinalized(string(request.Status))
	}
	if !donor.Donor.BloodGroup.CanDonateTo(request.BloodGroup) {
		return nil, errors.Newf(errors.ErrInvalidBloodGroup,
			"donor group %s is not compatible with %s", donor.Donor.BloodGroup, request.BloodGroup)
	}

	acceptance := &model.AcceptedDonor{
		RequestID:  requestID,
		DonorID:    donor.ID,
		Name:       donor.Name,
		BloodGroup: donor.Donor.BloodGroup,
		Phone:      donor.Phone,
		AcceptedAt: time.Now(),
	}

	if err := s.requests.AppendDonor(ctx, acceptance); err != nil {
		switch {
		case stderrors.Is(err, repository.ErrDuplicate):
			return nil, errors.Forbidden("donor already accepted this request")
		case stderrors.Is(err, repository.ErrRequestClosed):
			// The request moved out of the open set after our read; report
			// its current status, not the stale one.
			current, getErr := s.get(ctx, requestID)
			if getErr != nil {
				return nil, getErr
			}
			if current.Status.Terminal() {
				return nil, errors.AlreadyFinalized(string(current.Status))
			}
			return nil, errors.InvalidTransition(string(current.Status), string(model.RequestStatusAccepted))
		case stderrors.Is(err, repository.ErrNotFound):
			return nil, errors.NotFound("blood request")
		default:
			return nil, errors.Internal(err)
		}
	}

	// First acceptance advances pending → accepted. Losing this race to
	// another donor is fine; the acceptance itself is already recorded.
	if request.Status == model.RequestStatusPending {
		if err := s.requests.UpdateStatus(ctx, requestID, model.RequestStatusPending, model.RequestStatusAccepted); err != nil &&
			!stderrors.Is(err, repository.ErrStatusConflict) {
			return nil, errors.Internal(err)
		}
	}

	return s.get(ctx, requestID)
}

// MarkOnTheWay reports the donor en route. The accepting donor or the owning
// hospital may drive this.
func (s *Service) MarkOnTheWay(ctx context.Context, principal *model.Principal, requestID uuid.UUID) (*model.BloodRequest, error) {
	request, err := s.get(ctx, requestID)
	if err != nil {
		return nil, err
	}

	switch principal.Role {
	case model.RoleDonor:
		if !request.HasDonor(principal.AccountID) {
			return nil, errors.Forbidden("only an accepting donor may report en route")
		}
	case model.RoleHospital:
		if request.HospitalID != principal.AccountID {
			return nil, errors.Forbidden("request belongs to another hospital")
		}
	case model.RoleAdmin:
	default:
		return nil, errors.Forbidden("unknown role")
	}

	return s.transition(ctx, requestID, request.Status, model.RequestStatusOnTheWay)
}

// Confirm is hospital-exclusive; the en-route report is optional so confirm
// is legal from accepted as well as on_the_way.
func (s *Service) Confirm(ctx context.Context, principal *model.Principal, requestID uuid.UUID) (*model.BloodRequest, error) {
	request, err := s.requireOwnedRequest(ctx, principal, requestID)
	if err != nil {
		return nil, err
	}
	return s.transition(ctx, requestID, request.Status, model.RequestStatusConfirmed)
}

// Complete finalizes a confirmed request and credits every accepted donor's
// donation history.
func (s *Service) Complete(ctx context.Context, principal *model.Principal, requestID uuid.UUID) (*model.BloodRequest, error) {
	request, err := s.requireOwnedRequest(ctx, principal, requestID)
	if err != nil {
		return nil, err
	}

	completed, err := s.transition(ctx, requestID, request.Status, model.RequestStatusCompleted)
	if err != nil {
		return nil, err
	}

	s.creditDonations(ctx, completed)
	return completed, nil
}

// Cancel moves a non-terminal, unconfirmed request to cancelled. The owning
// hospital or any accepted donor may cancel.
func (s *Service) Cancel(ctx context.Context, principal *model.Principal, requestID uuid.UUID) (*model.BloodRequest, error) {
	request, err := s.get(ctx, requestID)
	if err != nil {
		return nil, err
	}

	switch principal.Role {
	case model.RoleHospital:
		if request.HospitalID != principal.AccountID {
			return nil, errors.Forbidden("request belongs to another hospital")
		}
	case model.RoleDonor:
		if !request.HasDonor(principal.AccountID) {
			return nil, errors.Forbidden("only an accepted donor may cancel")
		}
	case model.RoleAdmin:
	default:
		return nil, errors.Forbidden("unknown role")
	}

	return s.transition(ctx, requestID, request.Status, model.RequestStatusCancelled)
}

// SetStatus drives an arbitrary transition through the same guarded graph;
// admin only. Admins bypass ownership, never the graph.
func (s *Service) SetStatus(ctx context.Context, principal *model.Principal, requestID uuid.UUID, status model.RequestStatus) (*model.BloodRequest, error) {
	if principal.Role != model.RoleAdmin {
		return nil, errors.Forbidden("only admins may override request status")
	}
	if !status.Valid() {
		return nil, errors.Newf(errors.ErrInvalidTransition, "unknown status %q", status)
	}

	request, err := s.get(ctx, requestID)
	if err != nil {
		return nil, err
	}

	updated, err := s.transition(ctx, requestID, request.Status, status)
	if err != nil {
		return nil, err
	}

	if status == model.RequestStatusCompleted {
		s.creditDonations(ctx, updated)
	}
	return updated, nil
}

// transition applies one guarded check-and-set. When the store reports a
// conflict the guard is re-evaluated against the fresh status so the caller
// sees the true reason.
func (s *Service) transition(ctx context.Context, requestID uuid.UUID, from, to model.RequestStatus) (*model.BloodRequest, error) {
	if from.Terminal() {
		return nil, errors.AlreadyFinalized(string(from))
	}
	if !from.CanTransition(to) {
		return nil, errors.InvalidTransition(string(from), string(to))
	}

	if err := s.requests.UpdateStatus(ctx, requestID, from, to); err != nil {
		if stderrors.Is(err, repository.ErrStatusConflict) {
			current, getErr := s.get(ctx, requestID)
			if getErr != nil {
				return nil, getErr
			}
			if current.Status.Terminal() {
				return nil, errors.AlreadyFinalized(string(current.Status))
			}
			return nil, errors.InvalidTransition(string(current.Status), string(to))
		}
		if stderrors.Is(err, repository.ErrNotFound) {
			return nil, errors.NotFound("blood request")
		}
		return nil, errors.Internal(err)
	}

	return s.get(ctx, requestID)
}

func (s *Service) creditDonations(ctx context.Context, request *model.BloodRequest) {
	if len(request.AcceptedDonors) == 0 {
		return
	}
	ids := make([]uuid.UUID, 0, len(request.AcceptedDonors))
	for _, donor := range request.AcceptedDonors {
		ids = append(ids, donor.DonorID)
	}
	// Donation history is a projection; failing to bump the counters must
	// not undo a completed request.
	_ = s.accounts.RecordDonations(ctx, ids, time.Now())
}

func (s *Service) get(ctx context.Context, id uuid.UUID) (*model.BloodRequest, error) {
	request, err := s.requests.Get(ctx, id)
	if err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return nil, errors.NotFound("blood request")
		}
		return nil, errors.Internal(err)
	}
	return request, nil
}

func (s *Service) requireOwnedRequest(ctx context.Context, principal *model.Principal, requestID uuid.UUID) (*model.BloodRequest, error) {
	if principal.Role != model.RoleHospital {
		return nil, errors.Forbidden("only the owning hospital may drive this transition")
	}
	request, err := s.get(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if request.HospitalID != principal.AccountID {
		return nil, errors.Forbidden("request belongs to another hospital")
	}
	return request, nil
}

func (s *Service) requireHospital(ctx context.Context, principal *model.Principal) (*model.Account, error) {
	if principal.Role != model.RoleHospital {
		return nil, errors.Forbidden("only hospitals may create requests")
	}
	account, err := s.accounts.Get(ctx, principal.AccountID)
	if err != nil {
		return nil, errors.Internal(err)
	}
	if !account.IsVerified {
		return nil, errors.New(errors.ErrNotVerified, "hospital account is not verified")
	}
	if !account.IsActive {
		return nil, errors.New(errors.ErrAccountInactive, "hospital account has been deactivated")
	}
	if !account.IsApprovedHospital() {
		return nil, errors.Forbidden("hospital has not been approved by an admin")
	}
	return account, nil
}

func (s *Service) requireDonor(ctx context.Context, principal *model.Principal) (*model.Account, error) {
	if principal.Role != model.RoleDonor {
		return nil, errors.Forbidden("only donors may perform this operation")
	}
	account, err := s.accounts.Get(ctx, principal.AccountID)
	if err != nil {
		return nil, errors.Internal(err)
	}
	if !account.IsVerified {
		return nil, errors.New(errors.ErrNotVerified, "donor account is not verified")
	}
	if !account.IsActive {
		return nil, errors.New(errors.ErrAccountInactive, "donor account has been deactivated")
	}
	if account.Donor == nil {
		return nil, errors.Internal(stderrors.New("donor account has no donor profile"))
	}
	return account, nil
}
