package v7

// DefaultBreadcrumbType is used for breadcrumbs that do not name a type.
const DefaultBreadcrumbType = "default"

// Breadcrumb is an event that happened before the one being reported.
type Breadcrumb struct {
	Timestamp *Timestamp `json:"timestamp,omitempty"`
	Type      string     `json:"type,omitempty"`
	Category  string     `json:"category,omitempty"`
	Level     Level      `json:"level,omitempty"`
	Message   string     `json:"message,omitempty"`
	Data      Map        `json:"data,omitempty"`
}

// NewBreadcrumb returns a default breadcrumb stamped with the current time.
func NewBreadcrumb(category, message string) Breadcrumb {
	return Breadcrumb{
		Timestamp: Now(),
		Type:      DefaultBreadcrumbType,
		Category:  category,
		Level:     LevelInfo,
		Message:   message,
	}
}
