package enums

import "fmt"

// AlertCategory classifies in-app alerts.
type AlertCategory string

const (
	AlertCategoryDevmate  AlertCategory = "alert_devmate"
	AlertCategoryChat     AlertCategory = "alert_chat"
	AlertCategoryTodo     AlertCategory = "alert_todo"
	AlertCategorySchedule AlertCategory = "alert_schedule"
	AlertCategoryOther    AlertCategory = "alert_other"
)

var validAlertCategories = []AlertCategory{
	AlertCategoryDevmate,
	AlertCategoryChat,
	AlertCategoryTodo,
	AlertCategorySchedule,
	AlertCategoryOther,
}

// IsValid checks whether the given category matches the canonical enum.
func (c AlertCategory) IsValid() bool {
	for _, candidate := range validAlertCategories {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseAlertCategory converts raw strings into AlertCategory.
func ParseAlertCategory(value string) (AlertCategory, error) {
	for _, candidate := range validAlertCategories {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid alert category %q", value)
}
