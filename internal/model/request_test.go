package model

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestStatusTransitions(t *testing.T) {
	assert.True(t, RequestStatusPending.CanTransition(RequestStatusAccepted))
	assert.True(t, RequestStatusPending.CanTransition(RequestStatusCancelled))
	assert.False(t, RequestStatusPending.CanTransition(RequestStatusConfirmed))
	assert.False(t, RequestStatusPending.CanTransition(RequestStatusCompleted))

	assert.True(t, RequestStatusAccepted.CanTransition(RequestStatusOnTheWay))
	assert.True(t, RequestStatusAccepted.CanTransition(RequestStatusConfirmed))
	assert.True(t, RequestStatusAccepted.CanTransition(RequestStatusCancelled))
	assert.False(t, RequestStatusAccepted.CanTransition(RequestStatusCompleted))
	assert.False(t, RequestStatusAccepted.CanTransition(RequestStatusPending))

	assert.True(t, RequestStatusOnTheWay.CanTransition(RequestStatusConfirmed))
	assert.True(t, RequestStatusOnTheWay.CanTransition(RequestStatusCancelled))
	assert.False(t, RequestStatusOnTheWay.CanTransition(RequestStatusAccepted))

	assert.True(t, RequestStatusConfirmed.CanTransition(RequestStatusCompleted))
	assert.False(t, RequestStatusConfirmed.CanTransition(RequestStatusCancelled))
}

func TestTerminalStatesAllowNothing(t *testing.T) {
	all := []RequestStatus{
		RequestStatusPending, RequestStatusAccepted, RequestStatusOnTheWay,
		RequestStatusConfirmed, RequestStatusCompleted, RequestStatusCancelled,
	}
	for _, terminal := range []RequestStatus{RequestStatusCompleted, RequestStatusCancelled} {
		assert.True(t, terminal.Terminal())
		for _, next := range all {
			assert.False(t, terminal.CanTransition(next), "%s should not transition to %s", terminal, next)
		}
	}
}

func TestAcceptsDonors(t *testing.T) {
	assert.True(t, RequestStatusPending.AcceptsDonors())
	assert.True(t, RequestStatusAccepted.AcceptsDonors())
	assert.True(t, RequestStatusOnTheWay.AcceptsDonors())
	assert.False(t, RequestStatusConfirmed.AcceptsDonors())
	assert.False(t, RequestStatusCompleted.AcceptsDonors())
	assert.False(t, RequestStatusCancelled.AcceptsDonors())
}

func TestHasDonor(t *testing.T) {
	donorID := uuid.New()
	request := &BloodRequest{
		AcceptedDonors: []AcceptedDonor{{DonorID: donorID}},
	}
	assert.True(t, request.HasDonor(donorID))
	assert.False(t, request.HasDonor(uuid.New()))
}

func TestPaginationNormalize(t *testing.T) {
	p := Pagination{}
	p.Normalize()
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 20, p.Limit)
	assert.Equal(t, 0, p.Offset())

	p = Pagination{Page: 3, Limit: 500}
	p.Normalize()
	assert.Equal(t, 100, p.Limit)
	assert.Equal(t, 200, p.Offset())
}
