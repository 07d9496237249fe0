package model

// BloodGroup is one of the eight ABO/Rh types
type BloodGroup string

const (
	BloodGroupAPos  BloodGroup = "A+"
	BloodGroupANeg  BloodGroup = "A-"
	BloodGroupBPos  BloodGroup = "B+"
	BloodGroupBNeg  BloodGroup = "B-"
	BloodGroupABPos BloodGroup = "AB+"
	BloodGroupABNeg BloodGroup = "AB-"
	BloodGroupOPos  BloodGroup = "O+"
	BloodGroupONeg  BloodGroup = "O-"
)

// BloodGroups lists every recognized group
var BloodGroups = []BloodGroup{
	BloodGroupAPos, BloodGroupANeg,
	BloodGroupBPos, BloodGroupBNeg,
	BloodGroupABPos, BloodGroupABNeg,
	BloodGroupOPos, BloodGroupONeg,
}

// Valid reports whether g is one of the eight recognized types
func (g BloodGroup) Valid() bool {
	switch g {
	case BloodGroupAPos, BloodGroupANeg,
		BloodGroupBPos, BloodGroupBNeg,
		BloodGroupABPos, BloodGroupABNeg,
		BloodGroupOPos, BloodGroupONeg:
		return true
	}
	return false
}

// donorCompatibility is the exhaustive donor→recipient compatibility matrix.
// Rows are donor groups, columns are recipient groups.
var donorCompatibility = map[BloodGroup]map[BloodGroup]bool{
	BloodGroupONeg: {
		BloodGroupAPos: true, BloodGroupANeg: true,
		BloodGroupBPos: true, BloodGroupBNeg: true,
		BloodGroupABPos: true, BloodGroupABNeg: true,
		BloodGroupOPos: true, BloodGroupONeg: true,
	},
	BloodGroupOPos: {
		BloodGroupAPos: true, BloodGroupANeg: false,
		BloodGroupBPos: true, BloodGroupBNeg: false,
		BloodGroupABPos: true, BloodGroupABNeg: false,
		BloodGroupOPos: true, BloodGroupONeg: false,
	},
	BloodGroupANeg: {
		BloodGroupAPos: true, BloodGroupANeg: true,
		BloodGroupBPos: false, BloodGroupBNeg: false,
		BloodGroupABPos: true, BloodGroupABNeg: true,
		BloodGroupOPos: false, BloodGroupONeg: false,
	},
	BloodGroupAPos: {
		BloodGroupAPos: true, BloodGroupANeg: false,
		BloodGroupBPos: false, BloodGroupBNeg: false,
		BloodGroupABPos: true, BloodGroupABNeg: false,
		BloodGroupOPos: false, BloodGroupONeg: false,
	},
	BloodGroupBNeg: {
		BloodGroupAPos: false, BloodGroupANeg: false,
		BloodGroupBPos: true, BloodGroupBNeg: true,
		BloodGroupABPos: true, BloodGroupABNeg: true,
		BloodGroupOPos: false, BloodGroupONeg: false,
	},
	BloodGroupBPos: {
		BloodGroupAPos: false, BloodGroupANeg: false,
		BloodGroupBPos: true, BloodGroupBNeg: false,
		BloodGroupABPos: true, BloodGroupABNeg: false,
		BloodGroupOPos: false, BloodGroupONeg: false,
	},
	BloodGroupABNeg: {
		BloodGroupAPos: false, BloodGroupANeg: false,
		BloodGroupBPos: false, BloodGroupBNeg: false,
		BloodGroupABPos: true, BloodGroupABNeg: true,
		BloodGroupOPos: false, BloodGroupONeg: false,
	},
	BloodGroupABPos: {
		BloodGroupAPos: false, BloodGroupANeg: false,
		BloodGroupBPos: false, BloodGroupBNeg: false,
		BloodGroupABPos: true, BloodGroupABNeg: false,
		BloodGroupOPos: false, BloodGroupONeg: false,
	},
}

// CanDonateTo reports whether a donor of group g may donate to a recipient
// of group recipient.
func (g BloodGroup) CanDonateTo(recipient BloodGroup) bool {
	row, ok := donorCompatibility[g]
	if !ok {
		return false
	}
	return row[recipient]
}

// CompatibleDonors returns every donor group that may donate to a recipient
// of the given group.
func CompatibleDonors(recipient BloodGroup) []BloodGroup {
	var donors []BloodGroup
	for _, donor := range BloodGroups {
		if donor.CanDonateTo(recipient) {
			donors = append(donors, donor)
		}
	}
	return donors
}
