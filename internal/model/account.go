package model

import (
	"time"

	"github.com/google/uuid"
)

// Role identifies the namespace an account lives in. Emails are unique per
// role, not globally; the same address may hold a donor account and a
// hospital account.
type Role string

const (
	RoleDonor    Role = "donor_patient"
	RoleHospital Role = "hospital"
	RoleAdmin    Role = "admin"
)

// Roles lists every namespace in the order clients try them at login
var Roles = []Role{RoleDonor, RoleHospital, RoleAdmin}

// Valid reports whether r is a recognized role
func (r Role) Valid() bool {
	for _, known := range Roles {
		if r == known {
			return true
		}
	}
	return false
}

// Account represents a registered principal of any role. Role-specific
// attributes are carried on the embedded profile structs and are nil for
// other roles.
type Account struct {
	Base
	Email        string `json:"email" db:"email"`
	Name         string `json:"name" db:"name"`
	Password     string `json:"password,omitempty" db:"-"`
	PasswordHash string `json:"-" db:"password_hash"`
	Phone        string `json:"phone" db:"phone"`
	Role         Role   `json:"role" db:"role"`
	IsVerified   bool   `json:"is_verified" db:"is_verified"`
	IsActive     bool   `json:"is_active" db:"is_active"`

	LoginAttempts    int       `json:"-" db:"login_attempts"`
	LastLoginAttempt time.Time `json:"-" db:"last_login_attempt"`

	Donor    *DonorProfile    `json:"donor,omitempty" db:"-"`
	Hospital *HospitalProfile `json:"hospital,omitempty" db:"-"`
}

// DonorProfile carries donor/patient-only attributes
type DonorProfile struct {
	BloodGroup    BloodGroup  `json:"blood_group" db:"blood_group"`
	Location      *Coordinate `json:"location,omitempty"`
	IsAvailable   bool        `json:"is_available" db:"is_available"`
	DonationCount int         `json:"donation_count" db:"donation_count"`
	LastDonation  *time.Time  `json:"last_donation,omitempty" db:"last_donation"`
}

// HospitalProfile carries hospital-only attributes. IsApproved is granted by
// an admin, separately from OTP verification, and gates request creation.
type HospitalProfile struct {
	HospitalName  string      `json:"hospital_name" db:"hospital_name"`
	LicenseNumber string      `json:"license_number" db:"license_number"`
	Address       string      `json:"address" db:"address"`
	Location      *Coordinate `json:"location,omitempty"`
	IsApproved    bool        `json:"is_approved" db:"is_approved"`
}

// CanAuthenticate reports why an account may not log in, if anything
func (a *Account) CanAuthenticate() (verified, active bool) {
	return a.IsVerified, a.IsActive
}

// IsApprovedHospital reports whether the account is a hospital cleared to
// create requests.
func (a *Account) IsApprovedHospital() bool {
	return a.Role == RoleHospital && a.Hospital != nil && a.Hospital.IsApproved
}

// AccountFilters represents admin account search parameters
type AccountFilters struct {
	Role   Role   `json:"role" form:"role"`
	Status string `json:"status" form:"status"`
	Pagination
}

// Principal is an authenticated caller resolved from an access token
type Principal struct {
	AccountID uuid.UUID `json:"account_id"`
	Role      Role      `json:"role"`
	Email     string    `json:"email"`
	TokenID   string    `json:"-"`
	ExpiresAt time.Time `json:"-"`
}
