// Package memory provides in-process implementations of the repository
// interfaces. They back the test suite and single-node deployments that run
// without postgres; the concurrency contract is the same as the postgres
// adapter's: status transitions are check-and-set and acceptance appends are
// guarded atomically.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bloodlink/blood-api/internal/model"
	"github.com/bloodlink/blood-api/internal/repository"
)

type emailKey struct {
	email string
	role  model.Role
}

// AccountRepository is an in-memory account store
type AccountRepository struct {
	mu       sync.RWMutex
	accounts map[uuid.UUID]*model.Account
	byEmail  map[emailKey]uuid.UUID
}

// NewAccountRepository creates an empty in-memory account store
func NewAccountRepository() *AccountRepository {
	return &AccountRepository{
		accounts: make(map[uuid.UUID]*model.Account),
		byEmail:  make(map[emailKey]uuid.UUID),
	}
}

func cloneAccount(a *model.Account) *model.Account {
	c := *a
	if a.Donor != nil {
		donor := *a.Donor
		if a.Donor.Location != nil {
			loc := *a.Donor.Location
			donor.Location = &loc
		}
		c.Donor = &donor
	}
	if a.Hospital != nil {
		hospital := *a.Hospital
		if a.Hospital.Location != nil {
			loc := *a.Hospital.Location
			hospital.Location = &loc
		}
		c.Hospital = &hospital
	}
	return &c
}

func (r *AccountRepository) Create(_ context.Context, account *model.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := emailKey{email: account.Email, role: account.Role}
	if _, exists := r.byEmail[key]; exists {
		return repository.ErrDuplicate
	}

	account.ID = uuid.New()
	account.CreatedAt = time.Now()
	account.UpdatedAt = account.CreatedAt

	r.accounts[account.ID] = cloneAccount(account)
	r.byEmail[key] = account.ID
	return nil
}

func (r *AccountRepository) Get(_ context.Context, id uuid.UUID) (*model.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	account, ok := r.accounts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneAccount(account), nil
}

func (r *AccountRepository) GetByEmail(_ context.Context, email string, role model.Role) (*model.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[emailKey{email: email, role: role}]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneAccount(r.accounts[id]), nil
}

func (r *AccountRepository) Update(_ context.Context, account *model.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.accounts[account.ID]; !ok {
		return repository.ErrNotFound
	}
	account.UpdatedAt = time.Now()
	r.accounts[account.ID] = cloneAccount(account)
	return nil
}

func (r *AccountRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	account, ok := r.accounts[id]
	if !ok {
		return repository.ErrNotFound
	}
	delete(r.byEmail, emailKey{email: account.Email, role: account.Role})
	delete(r.accounts, id)
	return nil
}

func (r *AccountRepository) List(_ context.Context, filters *model.AccountFilters) ([]*model.Account, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []*model.Account
	for _, account := range r.accounts {
		if filters.Role != "" && account.Role != filters.Role {
			continue
		}
		if filters.Status == "active" && !account.IsActive {
			continue
		}
		if filters.Status == "inactive" && account.IsActive {
			continue
		}
		matched = append(matched, cloneAccount(account))
	}

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := len(matched)
	start := filters.Offset()
	if start > total {
		start = total
	}
	end := start + filters.Limit
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

func (r *AccountRepository) ListEligibleDonors(_ context.Context, groups []model.BloodGroup) ([]*model.Account, error) {
	compatible := make(map[model.BloodGroup]bool, len(groups))
	for _, g := range groups {
		compatible[g] = true
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var donors []*model.Account
	for _, account := range r.accounts {
		if account.Role != model.RoleDonor || account.Donor == nil {
			continue
		}
		if !account.IsVerified || !account.IsActive || !account.Donor.IsAvailable {
			continue
		}
		if !compatible[account.Donor.BloodGroup] {
			continue
		}
		donors = append(donors, cloneAccount(account))
	}

	sort.Slice(donors, func(i, j int) bool {
		return donors[i].CreatedAt.Before(donors[j].CreatedAt)
	})
	return donors, nil
}

func (r *AccountRepository) RecordDonations(_ context.Context, donorIDs []uuid.UUID, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, id := range donorIDs {
		account, ok := r.accounts[id]
		if !ok || account.Donor == nil {
			continue
		}
		account.Donor.DonationCount++
		donated := at
		account.Donor.LastDonation = &donated
		account.UpdatedAt = time.Now()
	}
	return nil
}

// OTPRepository is an in-memory one-time-code store
type OTPRepository struct {
	mu    sync.Mutex
	codes map[emailKey]*model.OneTimeCode
}

// NewOTPRepository creates an empty in-memory code store
func NewOTPRepository() *OTPRepository {
	return &OTPRepository{codes: make(map[emailKey]*model.OneTimeCode)}
}

func (r *OTPRepository) Replace(_ context.Context, code *model.OneTimeCode) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *code
	r.codes[emailKey{email: code.Email, role: code.Role}] = &stored
	return nil
}

func (r *OTPRepository) GetActive(_ context.Context, email string, role model.Role) (*model.OneTimeCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	code, ok := r.codes[emailKey{email: email, role: role}]
	if !ok || code.Consumed {
		return nil, repository.ErrNotFound
	}
	copied := *code
	return &copied, nil
}

func (r *OTPRepository) Consume(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, code := range r.codes {
		if code.ID == id && !code.Consumed {
			code.Consumed = true
			return nil
		}
	}
	return repository.ErrNotFound
}

// RequestRepository is an in-memory blood request store. A single mutex
// serializes status updates and acceptance appends, which gives the same
// atomic check-and-set semantics as the SQL adapter.
type RequestRepository struct {
	mu       sync.RWMutex
	requests map[uuid.UUID]*model.BloodRequest
}

// NewRequestRepository creates an empty in-memory request store
func NewRequestRepository() *RequestRepository {
	return &RequestRepository{requests: make(map[uuid.UUID]*model.BloodRequest)}
}

func cloneRequest(r *model.BloodRequest) *model.BloodRequest {
	c := *r
	c.AcceptedDonors = append([]model.AcceptedDonor(nil), r.AcceptedDonors...)
	if r.RequiredBy != nil {
		requiredBy := *r.RequiredBy
		c.RequiredBy = &requiredBy
	}
	return &c
}

func (r *RequestRepository) Create(_ context.Context, request *model.BloodRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	request.ID = uuid.New()
	request.CreatedAt = time.Now()
	request.UpdatedAt = request.CreatedAt

	r.requests[request.ID] = cloneRequest(request)
	return nil
}

func (r *RequestRepository) Get(_ context.Context, id uuid.UUID) (*model.BloodRequest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	request, ok := r.requests[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneRequest(request), nil
}

func (r *RequestRepository) List(_ context.Context, filters *model.RequestFilters) ([]*model.BloodRequest, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []*model.BloodRequest
	for _, request := range r.requests {
		if filters.HospitalID != uuid.Nil && request.HospitalID != filters.HospitalID {
			continue
		}
		if filters.Status != "" && request.Status != filters.Status {
			continue
		}
		if filters.BloodGroup != "" && request.BloodGroup != filters.BloodGroup {
			continue
		}
		if filters.OpenOnly && !request.Status.AcceptsDonors() {
			continue
		}
		if len(filters.RecipientGroups) > 0 && !containsGroup(filters.RecipientGroups, request.BloodGroup) {
			continue
		}
		matched = append(matched, cloneRequest(request))
	}

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := len(matched)
	start := filters.Offset()
	if start > total {
		start = total
	}
	end := start + filters.Limit
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

func (r *RequestRepository) UpdateStatus(_ context.Context, id uuid.UUID, from, to model.RequestStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	request, ok := r.requests[id]
	if !ok {
		return repository.ErrNotFound
	}
	if request.Status != from {
		return repository.ErrStatusConflict
	}
	request.Status = to
	request.UpdatedAt = time.Now()
	return nil
}

func (r *RequestRepository) AppendDonor(_ context.Context, donor *model.AcceptedDonor) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	request, ok := r.requests[donor.RequestID]
	if !ok {
		return repository.ErrNotFound
	}
	if !request.Status.AcceptsDonors() {
		return repository.ErrRequestClosed
	}
	if request.HasDonor(donor.DonorID) {
		return repository.ErrDuplicate
	}
	request.AcceptedDonors = append(request.AcceptedDonors, *donor)
	return nil
}

func (r *RequestRepository) ListDonationsByDonor(_ context.Context, donorID uuid.UUID) ([]*model.DonationRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var records []*model.DonationRecord
	for _, request := range r.requests {
		for _, donor := range request.AcceptedDonors {
			if donor.DonorID == donorID {
				records = append(records, donationRecord(request, donor))
			}
		}
	}
	sortDonations(records)
	return records, nil
}

func (r *RequestRepository) ListDonationsByHospital(_ context.Context, hospitalID uuid.UUID) ([]*model.DonationRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var records []*model.DonationRecord
	for _, request := range r.requests {
		if request.HospitalID != hospitalID {
			continue
		}
		for _, donor := range request.AcceptedDonors {
			records = append(records, donationRecord(request, donor))
		}
	}
	sortDonations(records)
	return records, nil
}

func donationRecord(request *model.BloodRequest, donor model.AcceptedDonor) *model.DonationRecord {
	return &model.DonationRecord{
		RequestID:   request.ID,
		DonorID:     donor.DonorID,
		DonorName:   donor.Name,
		BloodGroup:  donor.BloodGroup,
		Phone:       donor.Phone,
		PatientName: request.PatientName,
		HospitalID:  request.HospitalID,
		Status:      request.Status,
		AcceptedAt:  donor.AcceptedAt,
	}
}

func containsGroup(groups []model.BloodGroup, g model.BloodGroup) bool {
	for _, candidate := range groups {
		if candidate == g {
			return true
		}
	}
	return false
}

func sortDonations(records []*model.DonationRecord) {
	sort.Slice(records, func(i, j int) bool {
		return records[i].AcceptedAt.After(records[j].AcceptedAt)
	})
}
