package enums

import "fmt"

// EquipmentType identifies the discrete equipment pools.
type EquipmentType string

const (
	EquipmentTypeLaptop         EquipmentType = "laptop"
	EquipmentTypeVideoProcessor EquipmentType = "video_processor"
	EquipmentTypeCable          EquipmentType = "cable"
)

var validEquipmentTypes = []EquipmentType{
	EquipmentTypeLaptop,
	EquipmentTypeVideoProcessor,
	EquipmentTypeCable,
}

// String implements fmt.Stringer.
func (e EquipmentType) String() string {
	return string(e)
}

// IsValid reports whether the value is a known EquipmentType.
func (e EquipmentType) IsValid() bool {
	for _, candidate := range validEquipmentTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// EquipmentTypes returns every known equipment type.
func EquipmentTypes() []EquipmentType {
	return append([]EquipmentType(nil), validEquipmentTypes...)
}

// ParseEquipmentType converts raw input into an EquipmentType.
func ParseEquipmentType(value string) (EquipmentType, error) {
	for _, candidate := range validEquipmentTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid equipment type %q", value)
}
