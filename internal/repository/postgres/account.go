package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/bloodlink/blood-api/internal/model"
	"github.com/bloodlink/blood-api/internal/repository"
)

type accountRepository struct {
	BaseRepository
}

// NewAccountRepository creates the postgres account adapter.
//
// Schema:
//
//	CREATE TABLE accounts (
//	    id UUID PRIMARY KEY,
//	    email TEXT NOT NULL,
//	    name TEXT NOT NULL,
//	    password_hash TEXT NOT NULL,
//	    phone TEXT NOT NULL DEFAULT '',
//	    role TEXT NOT NULL,
//	    is_verified BOOLEAN NOT NULL DEFAULT FALSE,
//	    is_active BOOLEAN NOT NULL DEFAULT TRUE,
//	    login_attempts INT NOT NULL DEFAULT 0,
//	    last_login_attempt TIMESTAMPTZ NOT NULL DEFAULT 'epoch',
//	    blood_group TEXT,
//	    latitude DOUBLE PRECISION,
//	    longitude DOUBLE PRECISION,
//	    is_available BOOLEAN NOT NULL DEFAULT FALSE,
//	    donation_count INT NOT NULL DEFAULT 0,
//	    last_donation TIMESTAMPTZ,
//	    hospital_name TEXT,
//	    license_number TEXT,
//	    address TEXT,
//	    is_approved BOOLEAN NOT NULL DEFAULT FALSE,
//	    created_at TIMESTAMPTZ NOT NULL,
//	    updated_at TIMESTAMPTZ NOT NULL,
//	    UNIQUE (email, role)
//	);
func NewAccountRepository(base BaseRepository) repository.AccountRepository {
	return &accountRepository{base}
}

// accountRow is the flat scan target for the accounts table
type accountRow struct {
	ID               uuid.UUID       `db:"id"`
	Email            string          `db:"email"`
	Name             string          `db:"name"`
	PasswordHash     string          `db:"password_hash"`
	Phone            string          `db:"phone"`
	Role             model.Role      `db:"role"`
	IsVerified       bool            `db:"is_verified"`
	IsActive         bool            `db:"is_active"`
	LoginAttempts    int             `db:"login_attempts"`
	LastLoginAttempt time.Time       `db:"last_login_attempt"`
	BloodGroup       sql.NullString  `db:"blood_group"`
	Latitude         sql.NullFloat64 `db:"latitude"`
	Longitude        sql.NullFloat64 `db:"longitude"`
	IsAvailable      bool            `db:"is_available"`
	DonationCount    int             `db:"donation_count"`
	LastDonation     *time.Time      `db:"last_donation"`
	HospitalName     sql.NullString  `db:"hospital_name"`
	LicenseNumber    sql.NullString  `db:"license_number"`
	Address          sql.NullString  `db:"address"`
	IsApproved       bool            `db:"is_approved"`
	CreatedAt        time.Time       `db:"created_at"`
	UpdatedAt        time.Time       `db:"updated_at"`
}

func (row *accountRow) toModel() *model.Account {
	a := &model.Account{
		Base: model.Base{
			ID:        row.ID,
			CreatedAt: row.CreatedAt,
			UpdatedAt: row.UpdatedAt,
		},
		Email:            row.Email,
		Name:             row.Name,
		PasswordHash:     row.PasswordHash,
		Phone:            row.Phone,
		Role:             row.Role,
		IsVerified:       row.IsVerified,
		IsActive:         row.IsActive,
		LoginAttempts:    row.LoginAttempts,
		LastLoginAttempt: row.LastLoginAttempt,
	}

	switch row.Role {
	case model.RoleDonor:
		a.Donor = &model.DonorProfile{
			BloodGroup:    model.BloodGroup(row.BloodGroup.String),
			IsAvailable:   row.IsAvailable,
			DonationCount: row.DonationCount,
			LastDonation:  row.LastDonation,
		}
		if row.Latitude.Valid && row.Longitude.Valid {
			a.Donor.Location = &model.Coordinate{
				Latitude:  row.Latitude.Float64,
				Longitude: row.Longitude.Float64,
			}
		}
	case model.RoleHospital:
		a.Hospital = &model.HospitalProfile{
			HospitalName:  row.HospitalName.String,
			LicenseNumber: row.LicenseNumber.String,
			Address:       row.Address.String,
			IsApproved:    row.IsApproved,
		}
		if row.Latitude.Valid && row.Longitude.Valid {
			a.Hospital.Location = &model.Coordinate{
				Latitude:  row.Latitude.Float64,
				Longitude: row.Longitude.Float64,
			}
		}
	}

	return a
}

func rowFields(a *model.Account) (bloodGroup, hospitalName, licenseNumber, address sql.NullString,
	lat, lng sql.NullFloat64, isAvailable bool, donationCount int, lastDonation *time.Time, isApproved bool) {

	var loc *model.Coordinate
	switch {
	case a.Donor != nil:
		bloodGroup = sql.NullString{String: string(a.Donor.BloodGroup), Valid: true}
		isAvailable = a.Donor.IsAvailable
		donationCount = a.Donor.DonationCount
		lastDonation = a.Donor.LastDonation
		loc = a.Donor.Location
	case a.Hospital != nil:
		hospitalName = sql.NullString{String: a.Hospital.HospitalName, Valid: true}
		licenseNumber = sql.NullString{String: a.Hospital.LicenseNumber, Valid: true}
		address = sql.NullString{String: a.Hospital.Address, Valid: true}
		isApproved = a.Hospital.IsApproved
		loc = a.Hospital.Location
	}
	if loc != nil {
		lat = sql.NullFloat64{Float64: loc.Latitude, Valid: true}
		lng = sql.NullFloat64{Float64: loc.Longitude, Valid: true}
	}
	return
}

func (r *accountRepository) Create(ctx context.Context, account *model.Account) error {
	query := `
		INSERT INTO accounts (
			id, email, name, password_hash, phone, role, is_verified, is_active,
			login_attempts, last_login_attempt, blood_group, latitude, longitude,
			is_available, donation_count, last_donation, hospital_name,
			license_number, address, is_approved, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13,
			$14, $15, $16, $17, $18, $19, $20, $21, $22
		)
	`

	account.ID = uuid.New()
	account.CreatedAt = time.Now()
	account.UpdatedAt = account.CreatedAt

	bloodGroup, hospitalName, licenseNumber, address, lat, lng,
		isAvailable, donationCount, lastDonation, isApproved := rowFields(account)

	_, err := r.db.ExecContext(ctx, query,
		account.ID, account.Email, account.Name, account.PasswordHash,
		account.Phone, account.Role, account.IsVerified, account.IsActive,
		account.LoginAttempts, account.LastLoginAttempt,
		bloodGroup, lat, lng, isAvailable, donationCount, lastDonation,
		hospitalName, licenseNumber, address, isApproved,
		account.CreatedAt, account.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrDuplicate
		}
		return fmt.Errorf("failed to create account: %w", err)
	}
	return nil
}

func (r *accountRepository) Get(ctx context.Context, id uuid.UUID) (*model.Account, error) {
	query := `SELECT * FROM accounts WHERE id = $1`

	var row accountRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return row.toModel(), nil
}

func (r *accountRepository) GetByEmail(ctx context.Context, email string, role model.Role) (*model.Account, error) {
	query := `SELECT * FROM accounts WHERE email = $1 AND role = $2`

	var row accountRow
	if err := r.db.GetContext(ctx, &row, query, email, role); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get account by email: %w", err)
	}
	return row.toModel(), nil
}

func (r *accountRepository) Update(ctx context.Context, account *model.Account) error {
	query := `
		UPDATE accounts SET
			name = $1,
			password_hash = $2,
			phone = $3,
			is_verified = $4,
			is_active = $5,
			login_attempts = $6,
			last_login_attempt = $7,
			blood_group = $8,
			latitude = $9,
			longitude = $10,
			is_available = $11,
			donation_count = $12,
			last_donation = $13,
			hospital_name = $14,
			license_number = $15,
			address = $16,
			is_approved = $17,
			updated_at = $18
		WHERE id = $19
	`

	bloodGroup, hospitalName, licenseNumber, address, lat, lng,
		isAvailable, donationCount, lastDonation, isApproved := rowFields(account)

	result, err := r.db.ExecContext(ctx, query,
		account.Name, account.PasswordHash, account.Phone,
		account.IsVerified, account.IsActive,
		account.LoginAttempts, account.LastLoginAttempt,
		bloodGroup, lat, lng, isAvailable, donationCount, lastDonation,
		hospitalName, licenseNumber, address, isApproved,
		time.Now(), account.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update account: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *accountRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM accounts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *accountRepository) List(ctx context.Context, filters *model.AccountFilters) ([]*model.Account, int, error) {
	where := " WHERE 1=1"
	args := []interface{}{}

	if filters.Role != "" {
		where += fmt.Sprintf(" AND role = $%d", len(args)+1)
		args = append(args, filters.Role)
	}
	if filters.Status == "active" {
		where += " AND is_active = TRUE"
	} else if filters.Status == "inactive" {
		where += " AND is_active = FALSE"
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM accounts"+where, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count accounts: %w", err)
	}

	query := "SELECT * FROM accounts" + where +
		fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, filters.Limit, filters.Offset())

	var rows []accountRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list accounts: %w", err)
	}

	accounts := make([]*model.Account, 0, len(rows))
	for i := range rows {
		accounts = append(accounts, rows[i].toModel())
	}
	return accounts, total, nil
}

func (r *accountRepository) ListEligibleDonors(ctx context.Context, groups []model.BloodGroup) ([]*model.Account, error) {
	if len(groups) == 0 {
		return nil, nil
	}

	names := make([]string, 0, len(groups))
	for _, g := range groups {
		names = append(names, string(g))
	}

	query := `
		SELECT * FROM accounts
		WHERE role = $1
		AND is_verified = TRUE
		AND is_active = TRUE
		AND is_available = TRUE
		AND blood_group = ANY($2)
		ORDER BY created_at
	`

	var rows []accountRow
	if err := r.db.SelectContext(ctx, &rows, query, model.RoleDonor, pq.Array(names)); err != nil {
		return nil, fmt.Errorf("failed to list eligible donors: %w", err)
	}

	donors := make([]*model.Account, 0, len(rows))
	for i := range rows {
		donors = append(donors, rows[i].toModel())
	}
	return donors, nil
}

func (r *accountRepository) RecordDonations(ctx context.Context, donorIDs []uuid.UUID, at time.Time) error {
	if len(donorIDs) == 0 {
		return nil
	}

	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		query := `
			UPDATE accounts
			SET donation_count = donation_count + 1,
			    last_donation = $1,
			    updated_at = NOW()
			WHERE id = ANY($2) AND role = $3
		`
		_, err := tx.ExecContext(ctx, query, at, pq.Array(donorIDs), model.RoleDonor)
		return err
	})
}
