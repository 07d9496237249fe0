package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/bloodlink/blood-api/internal/model"
	"github.com/bloodlink/blood-api/internal/repository"
)

type requestRepository struct {
	BaseRepository
}

// NewRequestRepository creates the postgres blood request adapter.
//
// Schema:
//
//	CREATE TABLE blood_requests (
//	    id UUID PRIMARY KEY,
//	    hospital_id UUID NOT NULL REFERENCES accounts(id),
//	    patient_name TEXT NOT NULL,
//	    blood_group TEXT NOT NULL,
//	    units_needed INT NOT NULL CHECK (units_needed >= 1),
//	    urgency TEXT NOT NULL,
//	    notes TEXT NOT NULL DEFAULT '',
//	    required_by TIMESTAMPTZ,
//	    status TEXT NOT NULL,
//	    created_at TIMESTAMPTZ NOT NULL,
//	    updated_at TIMESTAMPTZ NOT NULL
//	);
//
//	CREATE TABLE request_donors (
//	    request_id UUID NOT NULL REFERENCES blood_requests(id),
//	    donor_id UUID NOT NULL REFERENCES accounts(id),
//	    name TEXT NOT NULL,
//	    blood_group TEXT NOT NULL,
//	    phone TEXT NOT NULL DEFAULT '',
//	    accepted_at TIMESTAMPTZ NOT NULL,
//	    PRIMARY KEY (request_id, donor_id)
//	);
func NewRequestRepository(base BaseRepository) repository.RequestRepository {
	return &requestRepository{base}
}

func (r *requestRepository) Create(ctx context.Context, request *model.BloodRequest) error {
	query := `
		INSERT INTO blood_requests (
			id, hospital_id, patient_name, blood_group, units_needed,
			urgency, notes, required_by, status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	request.ID = uuid.New()
	request.CreatedAt = time.Now()
	request.UpdatedAt = request.CreatedAt

	_, err := r.db.ExecContext(ctx, query,
		request.ID, request.HospitalID, request.PatientName,
		request.BloodGroup, request.UnitsNeeded, request.Urgency,
		request.Notes, request.RequiredBy, request.Status,
		request.CreatedAt, request.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create blood request: %w", err)
	}
	return nil
}

func (r *requestRepository) Get(ctx context.Context, id uuid.UUID) (*model.BloodRequest, error) {
	query := `SELECT * FROM blood_requests WHERE id = $1`

	var request model.BloodRequest
	if err := r.db.GetContext(ctx, &request, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get blood request: %w", err)
	}

	if err := r.loadDonors(ctx, &request); err != nil {
		return nil, err
	}
	return &request, nil
}

func (r *requestRepository) loadDonors(ctx context.Context, request *model.BloodRequest) error {
	query := `
		SELECT * FROM request_donors
		WHERE request_id = $1
		ORDER BY accepted_at
	`

	var donors []model.AcceptedDonor
	if err := r.db.SelectContext(ctx, &donors, query, request.ID); err != nil {
		return fmt.Errorf("failed to load accepted donors: %w", err)
	}
	request.AcceptedDonors = donors
	return nil
}

func (r *requestRepository) List(ctx context.Context, filters *model.RequestFilters) ([]*model.BloodRequest, int, error) {
	where := " WHERE 1=1"
	args := []interface{}{}

	if filters.HospitalID != uuid.Nil {
		where += fmt.Sprintf(" AND hospital_id = $%d", len(args)+1)
		args = append(args, filters.HospitalID)
	}
	if filters.Status != "" {
		where += fmt.Sprintf(" AND status = $%d", len(args)+1)
		args = append(args, filters.Status)
	}
	if filters.BloodGroup != "" {
		where += fmt.Sprintf(" AND blood_group = $%d", len(args)+1)
		args = append(args, filters.BloodGroup)
	}
	if filters.OpenOnly {
		where += " AND status IN ('pending', 'accepted', 'on_the_way')"
	}
	if len(filters.RecipientGroups) > 0 {
		names := make([]string, 0, len(filters.RecipientGroups))
		for _, g := range filters.RecipientGroups {
			names = append(names, string(g))
		}
		where += fmt.Sprintf(" AND blood_group = ANY($%d)", len(args)+1)
		args = append(args, pq.Array(names))
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM blood_requests"+where, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count blood requests: %w", err)
	}

	query := "SELECT * FROM blood_requests" + where +
		fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, filters.Limit, filters.Offset())

	var requests []*model.BloodRequest
	if err := r.db.SelectContext(ctx, &requests, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list blood requests: %w", err)
	}

	for _, request := range requests {
		if err := r.loadDonors(ctx, request); err != nil {
			return nil, 0, err
		}
	}
	return requests, total, nil
}

// UpdateStatus moves a request from exactly `from` to `to` in a single
// statement; the guard cannot be evaluated against stale state.
func (r *requestRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to model.RequestStatus) error {
	query := `
		UPDATE blood_requests
		SET status = $1, updated_at = NOW()
		WHERE id = $2 AND status = $3
	`

	result, err := r.db.ExecContext(ctx, query, to, id, from)
	if err != nil {
		return fmt.Errorf("failed to update request status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return repository.ErrStatusConflict
	}
	return nil
}

// AppendDonor inserts the acceptance only if the request still accepts
// donors, in one statement, so a concurrent cancel cannot slip in between
// guard and insert.
func (r *requestRepository) AppendDonor(ctx context.Context, donor *model.AcceptedDonor) error {
	query := `
		INSERT INTO request_donors (request_id, donor_id, name, blood_group, phone, accepted_at)
		SELECT $1, $2, $3, $4, $5, $6
		WHERE EXISTS (
			SELECT 1 FROM blood_requests
			WHERE id = $1 AND status IN ('pending', 'accepted', 'on_the_way')
		)
	`

	result, err := r.db.ExecContext(ctx, query,
		donor.RequestID, donor.DonorID, donor.Name,
		donor.BloodGroup, donor.Phone, donor.AcceptedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrDuplicate
		}
		return fmt.Errorf("failed to append accepted donor: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return repository.ErrRequestClosed
	}
	return nil
}

func (r *requestRepository) ListDonationsByDonor(ctx context.Context, donorID uuid.UUID) ([]*model.DonationRecord, error) {
	query := `
		SELECT rd.request_id, rd.donor_id, rd.name AS donor_name, rd.blood_group,
		       rd.phone, rd.accepted_at, br.patient_name, br.hospital_id, br.status
		FROM request_donors rd
		JOIN blood_requests br ON br.id = rd.request_id
		WHERE rd.donor_id = $1
		ORDER BY rd.accepted_at DESC
	`

	var records []*model.DonationRecord
	if err := r.db.SelectContext(ctx, &records, query, donorID); err != nil {
		return nil, fmt.Errorf("failed to list donations by donor: %w", err)
	}
	return records, nil
}

func (r *requestRepository) ListDonationsByHospital(ctx context.Context, hospitalID uuid.UUID) ([]*model.DonationRecord, error) {
	query := `
		SELECT rd.request_id, rd.donor_id, rd.name AS donor_name, rd.blood_group,
		       rd.phone, rd.accepted_at, br.patient_name, br.hospital_id, br.status
		FROM request_donors rd
		JOIN blood_requests br ON br.id = rd.request_id
		WHERE br.hospital_id = $1
		ORDER BY rd.accepted_at DESC
	`

	var records []*model.DonationRecord
	if err := r.db.SelectContext(ctx, &records, query, hospitalID); err != nil {
		return nil, fmt.Errorf("failed to list donations by hospital: %w", err)
	}
	return records, nil
}
