package enums

import "fmt"

// DevelopmentField is the area of technical specialization a user picks at
// registration.
type DevelopmentField string

const (
	DevelopmentFieldFrontend  DevelopmentField = "frontend"
	DevelopmentFieldBackend   DevelopmentField = "backend"
	DevelopmentFieldFullstack DevelopmentField = "fullstack"
	DevelopmentFieldMobile    DevelopmentField = "mobile"
	DevelopmentFieldGame      DevelopmentField = "game"
	DevelopmentFieldData      DevelopmentField = "data"
	DevelopmentFieldAI        DevelopmentField = "ai"
	DevelopmentFieldDevOps    DevelopmentField = "devops"
	DevelopmentFieldSecurity  DevelopmentField = "security"
	DevelopmentFieldEmbedded  DevelopmentField = "embedded"
	DevelopmentFieldOther     DevelopmentField = "other"
)

var validDevelopmentFields = []DevelopmentField{
	DevelopmentFieldFrontend,
	DevelopmentFieldBackend,
	DevelopmentFieldFullstack,
	DevelopmentFieldMobile,
	DevelopmentFieldGame,
	DevelopmentFieldData,
	DevelopmentFieldAI,
	DevelopmentFieldDevOps,
	DevelopmentFieldSecurity,
	DevelopmentFieldEmbedded,
	DevelopmentFieldOther,
}

// DevelopmentFields returns the selectable values in display order.
func DevelopmentFields() []DevelopmentField {
	out := make([]DevelopmentField, len(validDevelopmentFields))
	copy(out, validDevelopmentFields)
	return out
}

// IsValid checks whether the given field matches the canonical enum.
func (d DevelopmentField) IsValid() bool {
	for _, candidate := range validDevelopmentFields {
		if candidate == d {
			return true
		}
	}
	return false
}

// ParseDevelopmentField converts raw strings into DevelopmentField.
func ParseDevelopmentField(value string) (DevelopmentField, error) {
	for _, candidate := range validDevelopmentFields {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid development field %q", value)
}
