package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBloodGroupValid(t *testing.T) {
	for _, g := range BloodGroups {
		assert.True(t, g.Valid(), "expected %s to be valid", g)
	}
	assert.False(t, BloodGroup("C+").Valid())
	assert.False(t, BloodGroup("").Valid())
	assert.False(t, BloodGroup("a+").Valid())
}

func TestUniversalDonorAndRecipient(t *testing.T) {
	// O- donates to everyone
	for _, recipient := range BloodGroups {
		assert.True(t, BloodGroupONeg.CanDonateTo(recipient), "O- should donate to %s", recipient)
	}

	// AB+ receives from everyone
	for _, donor := range BloodGroups {
		assert.True(t, donor.CanDonateTo(BloodGroupABPos), "%s should donate to AB+", donor)
	}

	// AB+ donates only to AB+
	for _, recipient := range BloodGroups {
		if recipient == BloodGroupABPos {
			continue
		}
		assert.False(t, BloodGroupABPos.CanDonateTo(recipient), "AB+ should not donate to %s", recipient)
	}

	// O- receives only from O-
	for _, donor := range BloodGroups {
		if donor == BloodGroupONeg {
			continue
		}
		assert.False(t, donor.CanDonateTo(BloodGroupONeg), "%s should not donate to O-", donor)
	}
}

func TestRhNegativeNeverReceivesPositive(t *testing.T) {
	positives := []BloodGroup{BloodGroupAPos, BloodGroupBPos, BloodGroupABPos, BloodGroupOPos}
	negatives := []BloodGroup{BloodGroupANeg, BloodGroupBNeg, BloodGroupABNeg, BloodGroupONeg}

	for _, donor := range positives {
		for _, recipient := range negatives {
			assert.False(t, donor.CanDonateTo(recipient), "%s should not donate to %s", donor, recipient)
		}
	}
}

func TestCompatibleDonors(t *testing.T) {
	assert.ElementsMatch(t,
		[]BloodGroup{BloodGroupAPos, BloodGroupANeg, BloodGroupOPos, BloodGroupONeg},
		CompatibleDonors(BloodGroupAPos))

	assert.ElementsMatch(t,
		[]BloodGroup{BloodGroupONeg},
		CompatibleDonors(BloodGroupONeg))

	assert.ElementsMatch(t, BloodGroups, CompatibleDonors(BloodGroupABPos))

	assert.Empty(t, CompatibleDonors(BloodGroup("X+")))
}

func TestCanDonateToUnknownGroup(t *testing.T) {
	assert.False(t, BloodGroup("X+").CanDonateTo(BloodGroupABPos))
	assert.False(t, BloodGroupONeg.CanDonateTo(BloodGroup("X+")))
}
