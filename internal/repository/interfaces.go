package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/bloodlink/blood-api/internal/model"
)

// Sentinel errors shared by every storage adapter. Services translate these
// into the caller-facing taxonomy.
var (
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a uniqueness constraint is violated:
	// an (email, role) pair at registration, or a repeated acceptance of
	// the same request by the same donor.
	ErrDuplicate = errors.New("record already exists")
	// ErrStatusConflict is returned when a check-and-set status update
	// finds the request no longer in the expected state.
	ErrStatusConflict = errors.New("request status changed concurrently")
	// ErrRequestClosed is returned when an acceptance is appended to a
	// request that no longer accepts donors.
	ErrRequestClosed = errors.New("request no longer accepts donors")
)

// AccountRepository persists accounts of every role
type AccountRepository interface {
	Create(ctx context.Context, account *model.Account) error
	Get(ctx context.Context, id uuid.UUID) (*model.Account, error)
	GetByEmail(ctx context.Context, email string, role model.Role) (*model.Account, error)
	Update(ctx context.Context, account *model.Account) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filters *model.AccountFilters) ([]*model.Account, int, error)

	// ListEligibleDonors returns verified, active, available donor accounts
	// whose blood group is one of the given compatible groups. Ranking is
	// the matching service's concern.
	ListEligibleDonors(ctx context.Context, groups []model.BloodGroup) ([]*model.Account, error)

	// RecordDonations increments each donor's donation count and stamps
	// the last-donation date.
	RecordDonations(ctx context.Context, donorIDs []uuid.UUID, at time.Time) error
}

// OTPRepository persists one-time verification codes
type OTPRepository interface {
	// Replace stores a fresh code for (email, role), invalidating any
	// outstanding one.
	Replace(ctx context.Context, code *model.OneTimeCode) error
	// GetActive returns the single unconsumed code for (email, role),
	// expired or not; expiry is judged by the caller against wall-clock
	// time.
	GetActive(ctx context.Context, email string, role model.Role) (*model.OneTimeCode, error)
	Consume(ctx context.Context, id uuid.UUID) error
}

// RequestRepository persists blood requests and their acceptance rows
type RequestRepository interface {
	Create(ctx context.Context, request *model.BloodRequest) error
	Get(ctx context.Context, id uuid.UUID) (*model.BloodRequest, error)
	List(ctx context.Context, filters *model.RequestFilters) ([]*model.BloodRequest, int, error)

	// UpdateStatus applies a transition as an atomic check-and-set: the
	// row moves from exactly `from` to `to` or not at all, returning
	// ErrStatusConflict when the current status is no longer `from`.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to model.RequestStatus) error

	// AppendDonor atomically appends an acceptance, enforcing that the
	// request still accepts donors (ErrRequestClosed) and that this donor
	// has not already accepted (ErrDuplicate).
	AppendDonor(ctx context.Context, donor *model.AcceptedDonor) error

	ListDonationsByDonor(ctx context.Context, donorID uuid.UUID) ([]*model.DonationRecord, error)
	ListDonationsByHospital(ctx context.Context, hospitalID uuid.UUID) ([]*model.DonationRecord, error)
}
