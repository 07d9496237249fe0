package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/bloodlink/blood-api/internal/model"
	"github.com/bloodlink/blood-api/internal/repository"
)

type otpRepository struct {
	BaseRepository
}

// NewOTPRepository creates the postgres one-time-code adapter.
//
// Schema:
//
//	CREATE TABLE otp_codes (
//	    id UUID PRIMARY KEY,
//	    email TEXT NOT NULL,
//	    role TEXT NOT NULL,
//	    code TEXT NOT NULL,
//	    issued_at TIMESTAMPTZ NOT NULL,
//	    expires_at TIMESTAMPTZ NOT NULL,
//	    consumed BOOLEAN NOT NULL DEFAULT FALSE,
//	    UNIQUE (email, role)
//	);
func NewOTPRepository(base BaseRepository) repository.OTPRepository {
	return &otpRepository{base}
}

func (r *otpRepository) Replace(ctx context.Context, code *model.OneTimeCode) error {
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		query := `
			INSERT INTO otp_codes (id, email, role, code, issued_at, expires_at, consumed)
			VALUES ($1, $2, $3, $4, $5, $6, FALSE)
			ON CONFLICT (email, role) DO UPDATE
			SET id = $1, code = $4, issued_at = $5, expires_at = $6, consumed = FALSE
		`
		_, err := tx.ExecContext(ctx, query,
			code.ID, code.Email, code.Role, code.Code, code.IssuedAt, code.ExpiresAt)
		return err
	})
}

func (r *otpRepository) GetActive(ctx context.Context, email string, role model.Role) (*model.OneTimeCode, error) {
	query := `
		SELECT * FROM otp_codes
		WHERE email = $1 AND role = $2 AND consumed = FALSE
	`

	var code model.OneTimeCode
	if err := r.db.GetContext(ctx, &code, query, email, role); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get one-time code: %w", err)
	}
	return &code, nil
}

func (r *otpRepository) Consume(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE otp_codes SET consumed = TRUE
		WHERE id = $1 AND consumed = FALSE
	`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to consume one-time code: %w", err)
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
