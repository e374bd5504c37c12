package enums

import "fmt"

// AssignmentStatus records how an equipment assignment ended, if it has.
type AssignmentStatus string

const (
	AssignmentStatusAssigned AssignmentStatus = "assigned"
	AssignmentStatusReturned AssignmentStatus = "returned"
	AssignmentStatusDamaged  AssignmentStatus = "damaged"
	AssignmentStatusLost     AssignmentStatus = "lost"
)

var validAssignmentStatuses = []AssignmentStatus{
	AssignmentStatusAssigned,
	AssignmentStatusReturned,
	AssignmentStatusDamaged,
	AssignmentStatusLost,
}

// String implements fmt.Stringer.
func (a AssignmentStatus) String() string {
	return string(a)
}

// IsValid reports whether the value is a known AssignmentStatus.
func (a AssignmentStatus) IsValid() bool {
	for _, candidate := range validAssignmentStatuses {
		if candidate == a {
			return true
		}
	}
	return false
}

// EquipmentStatusAfterReturn maps a return outcome to the unit status it
// leaves behind. A clean return frees the unit; damaged/lost keep that mark.
func (a AssignmentStatus) EquipmentStatusAfterReturn() EquipmentStatus {
	switch a {
	case AssignmentStatusDamaged:
		return EquipmentStatusDamaged
	case AssignmentStatusLost:
		return EquipmentStatusRetired
	default:
		return EquipmentStatusAvailable
	}
}

// ParseAssignmentStatus converts raw input into an AssignmentStatus.
func ParseAssignmentStatus(value string) (AssignmentStatus, error) {
	for _, candidate := range validAssignmentStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid assignment status %q", value)
}
