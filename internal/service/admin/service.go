// Package admin implements the platform-operator surface: account
// inspection, activation, and hospital approval.
package admin

import (
	"context"
	stderrors "errors"

	"github.com/google/uuid"

	"github.com/bloodlink/blood-api/internal/model"
	"github.com/bloodlink/blood-api/internal/repository"
	"github.com/bloodlink/blood-api/pkg/errors"
)

// Service implements admin account operations
type Service struct {
	accounts repository.AccountRepository
}

// NewService creates the admin service
func NewService(accounts repository.AccountRepository) *Service {
	return &Service{accounts: accounts}
}

func requireAdmin(principal *model.Principal) error {
	if principal.Role != model.RoleAdmin {
		return errors.Forbidden("admin access required")
	}
	return nil
}

// ListAccounts returns accounts of any role, paginated
func (s *Service) ListAccounts(ctx context.Context, principal *model.Principal, filters *model.AccountFilters) ([]*model.Account, int, error) {
	if err := requireAdmin(principal); err != nil {
		return nil, 0, err
	}

	filters.Normalize()
	accounts, total, err := s.accounts.List(ctx, filters)
	if err != nil {
		return nil, 0, errors.Internal(err)
	}
	return accounts, total, nil
}

// GetAccount returns any single account
func (s *Service) GetAccount(ctx context.Context, principal *model.Principal, id uuid.UUID) (*model.Account, error) {
	if err := requireAdmin(principal); err != nil {
		return nil, err
	}
	return s.get(ctx, id)
}

// SetAccountStatus activates or deactivates an account. Deactivation takes
// effect on the target's next authenticated call.
func (s *Service) SetAccountStatus(ctx context.Context, principal *model.Principal, id uuid.UUID, active bool) (*model.Account, error) {
	if err := requireAdmin(principal); err != nil {
		return nil, err
	}

	account, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	account.IsActive = active
	if err := s.accounts.Update(ctx, account); err != nil {
		return nil, errors.Internal(err)
	}
	return account, nil
}

// ApproveHospital grants a hospital the right to create requests. Approval
// is admin-exclusive and separate from OTP verification.
func (s *Service) ApproveHospital(ctx context.Context, principal *model.Principal, id uuid.UUID, approved bool) (*model.Account, error) {
	if err := requireAdmin(principal); err != nil {
		return nil, err
	}

	account, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if account.Role != model.RoleHospital || account.Hospital == nil {
		return nil, errors.New(errors.ErrInvalidProfile, "account is not a hospital")
	}

	account.Hospital.IsApproved = approved
	if err := s.accounts.Update(ctx, account); err != nil {
		return nil, errors.Internal(err)
	}
	return account, nil
}

// DeleteAccount removes an account entirely
func (s *Service) DeleteAccount(ctx context.Context, principal *model.Principal, id uuid.UUID) error {
	if err := requireAdmin(principal); err != nil {
		return err
	}

	if err := s.accounts.Delete(ctx, id); err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return errors.NotFound("account")
		}
		return errors.Internal(err)
	}
	return nil
}

func (s *Service) get(ctx context.Context, id uuid.UUID) (*model.Account, error) {
	account, err := s.accounts.Get(ctx, id)
	if err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return nil, errors.NotFound("account")
		}
		return nil, errors.Internal(err)
	}
	return account, nil
}
