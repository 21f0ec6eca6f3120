// Package status holds the lifecycle values shared by users and teams.
package status

const (
	Active   = "active"
	Disabled = "disabled"
)

// IsValid reports whether s is a known status.
func IsValid(s string) bool {
	return s == Active || s == Disabled
}
