package model

import (
	"time"

	"github.com/google/uuid"
)

// RequestStatus is the canonical lifecycle state of a blood request. The
// same vocabulary is used by hospital, donor and admin surfaces.
type RequestStatus string

const (
	RequestStatusPending   RequestStatus = "pending"
	RequestStatusAccepted  RequestStatus = "accepted"
	RequestStatusOnTheWay  RequestStatus = "on_the_way"
	RequestStatusConfirmed RequestStatus = "confirmed"
	RequestStatusCompleted RequestStatus = "completed"
	RequestStatusCancelled RequestStatus = "cancelled"
)

// Valid reports whether s is a recognized status
func (s RequestStatus) Valid() bool {
	switch s {
	case RequestStatusPending, RequestStatusAccepted, RequestStatusOnTheWay,
		RequestStatusConfirmed, RequestStatusCompleted, RequestStatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further transition is permitted from s
func (s RequestStatus) Terminal() bool {
	return s == RequestStatusCompleted || s == RequestStatusCancelled
}

// transitions is the full status graph. Confirm is legal from accepted as
// well as on_the_way: the en-route report is optional and a hospital must be
// able to confirm a donor who simply showed up.
var transitions = map[RequestStatus][]RequestStatus{
	RequestStatusPending:   {RequestStatusAccepted, RequestStatusCancelled},
	RequestStatusAccepted:  {RequestStatusOnTheWay, RequestStatusConfirmed, RequestStatusCancelled},
	RequestStatusOnTheWay:  {RequestStatusConfirmed, RequestStatusCancelled},
	RequestStatusConfirmed: {RequestStatusCompleted},
}

// CanTransition reports whether the graph permits moving from s to next
func (s RequestStatus) CanTransition(next RequestStatus) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// AcceptsDonors reports whether a donor may still accept a request in
// status s. Acceptance is additive while the hospital has not yet confirmed;
// units needed may require several donors.
func (s RequestStatus) AcceptsDonors() bool {
	switch s {
	case RequestStatusPending, RequestStatusAccepted, RequestStatusOnTheWay:
		return true
	}
	return false
}

// Urgency of a blood request
type Urgency string

const (
	UrgencyLow      Urgency = "low"
	UrgencyMedium   Urgency = "medium"
	UrgencyHigh     Urgency = "high"
	UrgencyCritical Urgency = "critical"
)

// BloodRequest is owned by the creating hospital and drives the donation
// lifecycle. Status moves only along the transition graph and never leaves a
// terminal state.
type BloodRequest struct {
	Base
	HospitalID  uuid.UUID     `json:"hospital_id" db:"hospital_id"`
	PatientName string        `json:"patient_name" db:"patient_name"`
	BloodGroup  BloodGroup    `json:"blood_group" db:"blood_group"`
	UnitsNeeded int           `json:"units_needed" db:"units_needed"`
	Urgency     Urgency       `json:"urgency" db:"urgency"`
	Notes       string        `json:"notes" db:"notes"`
	RequiredBy  *time.Time    `json:"required_by,omitempty" db:"required_by"`
	Status      RequestStatus `json:"status" db:"status"`

	AcceptedDonors []AcceptedDonor `json:"accepted_donors" db:"-"`
}

// AcceptedDonor is an append-only acceptance row carrying a snapshot of the
// donor at acceptance time.
type AcceptedDonor struct {
	RequestID  uuid.UUID  `json:"request_id" db:"request_id"`
	DonorID    uuid.UUID  `json:"donor_id" db:"donor_id"`
	Name       string     `json:"name" db:"name"`
	BloodGroup BloodGroup `json:"blood_group" db:"blood_group"`
	Phone      string     `json:"phone" db:"phone"`
	AcceptedAt time.Time  `json:"accepted_at" db:"accepted_at"`
}

// HasDonor reports whether the given donor already accepted this request
func (r *BloodRequest) HasDonor(donorID uuid.UUID) bool {
	for _, d := range r.AcceptedDonors {
		if d.DonorID == donorID {
			return true
		}
	}
	return false
}

// RequestFilters represents request search parameters. OpenOnly narrows to
// statuses that still accept donors; RecipientGroups narrows to requests
// whose required group is one of the given values.
type RequestFilters struct {
	HospitalID      uuid.UUID     `json:"hospital_id" form:"-"`
	Status          RequestStatus `json:"status" form:"status"`
	BloodGroup      BloodGroup    `json:"blood_group" form:"blood_group"`
	OpenOnly        bool          `json:"open_only" form:"-"`
	RecipientGroups []BloodGroup  `json:"-" form:"-"`
	Pagination
}

// DonationRecord is a projection of one acceptance joined with its request's
// current status; it is never mutated directly.
type DonationRecord struct {
	RequestID   uuid.UUID     `json:"request_id" db:"request_id"`
	DonorID     uuid.UUID     `json:"donor_id" db:"donor_id"`
	DonorName   string        `json:"donor_name" db:"donor_name"`
	BloodGroup  BloodGroup    `json:"blood_group" db:"blood_group"`
	Phone       string        `json:"phone" db:"phone"`
	PatientName string        `json:"patient_name" db:"patient_name"`
	HospitalID  uuid.UUID     `json:"hospital_id" db:"hospital_id"`
	Status      RequestStatus `json:"status" db:"status"`
	AcceptedAt  time.Time     `json:"accepted_at" db:"accepted_at"`
}
