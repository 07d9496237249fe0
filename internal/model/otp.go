package model

import (
	"time"

	"github.com/google/uuid"
)

// OTPExpiry is the fixed validity window of a one-time code
const OTPExpiry = 10 * time.Minute

// OneTimeCode gates account verification. At most one unconsumed, unexpired
// code exists per (email, role); issuing a new one replaces the previous.
type OneTimeCode struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Email     string    `json:"email" db:"email"`
	Role      Role      `json:"role" db:"role"`
	Code      string    `json:"-" db:"code"`
	IssuedAt  time.Time `json:"issued_at" db:"issued_at"`
	ExpiresAt time.Time `json:"expires_at" db:"expires_at"`
	Consumed  bool      `json:"consumed" db:"consumed"`
}

// Expired reports whether the code is past its validity window at time now
func (c *OneTimeCode) Expired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}
