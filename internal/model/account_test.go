package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoleValid(t *testing.T) {
	for _, r := range Roles {
		assert.True(t, r.Valid(), "expected %s to be valid", r)
	}
	assert.False(t, Role("nurse").Valid())
	assert.False(t, Role("").Valid())
	assert.False(t, Role("Donor_Patient").Valid())
}

func TestCanAuthenticate(t *testing.T) {
	account := &Account{IsVerified: true, IsActive: true}
	verified, active := account.CanAuthenticate()
	assert.True(t, verified)
	assert.True(t, active)

	account.IsVerified = false
	verified, _ = account.CanAuthenticate()
	assert.False(t, verified)

	account.IsActive = false
	_, active = account.CanAuthenticate()
	assert.False(t, active)
}
