package model

import "time"

// RegisterRequest carries registration input for any role. Role-specific
// fields are validated by the identity service, not by binding tags, so that
// a missing blood group surfaces as InvalidProfile rather than a bare 400.
type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Phone    string `json:"phone"`

	// Donor/patient fields
	BloodGroup  BloodGroup  `json:"blood_group,omitempty" binding:"omitempty,bloodgroup"`
	Location    *Coordinate `json:"location,omitempty"`
	IsAvailable *bool       `json:"is_available,omitempty"`

	// Hospital fields
	HospitalName  string `json:"hospital_name,omitempty"`
	LicenseNumber string `json:"license_number,omitempty"`
	Address       string `json:"address,omitempty"`
}

// LoginRequest carries per-namespace login input
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// VerifyOTPRequest consumes a pending one-time code
type VerifyOTPRequest struct {
	Email string `json:"email" binding:"required,email"`
	Role  Role   `json:"role" binding:"required,role"`
	Code  string `json:"code" binding:"required,len=6"`
}

// ResendOTPRequest reissues a one-time code
type ResendOTPRequest struct {
	Email string `json:"email" binding:"required,email"`
	Role  Role   `json:"role" binding:"required,role"`
}

// VerificationHandle is the opaque reference returned by registration; the
// client presents it back together with the emailed code.
type VerificationHandle struct {
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	ExpiresAt time.Time `json:"expires_at"`
}

// TokenResponse is returned on successful authentication
type TokenResponse struct {
	AccessToken string   `json:"access_token"`
	Account     *Account `json:"account"`
}

// CreateRequestRequest carries hospital request creation input
type CreateRequestRequest struct {
	PatientName string     `json:"patient_name" binding:"required"`
	BloodGroup  BloodGroup `json:"blood_group" binding:"required"`
	UnitsNeeded int        `json:"units_needed" binding:"required,min=1"`
	Urgency     Urgency    `json:"urgency" binding:"required,oneof=low medium high critical"`
	Notes       string     `json:"notes"`
	RequiredBy  *time.Time `json:"required_by,omitempty"`
}

// DirectDonorRequest registers an out-of-band donor who donated without
// going through the request/accept flow.
type DirectDonorRequest struct {
	Name       string     `json:"name" binding:"required"`
	Phone      string     `json:"phone" binding:"required"`
	BloodGroup BloodGroup `json:"blood_group" binding:"required"`
	DonatedAt  *time.Time `json:"donated_at,omitempty"`
}

// UpdateAccountStatusRequest activates or deactivates an account
type UpdateAccountStatusRequest struct {
	IsActive bool `json:"is_active"`
}

// UpdateRequestStatusRequest drives an admin status override through the
// same transition graph as the hospital surface.
type UpdateRequestStatusRequest struct {
	Status RequestStatus `json:"status" binding:"required"`
}

// UpdateAvailabilityRequest toggles a donor's availability flag
type UpdateAvailabilityRequest struct {
	IsAvailable bool `json:"is_available"`
}
