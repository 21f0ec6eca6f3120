// internal/app/features/auditlog/types.go
package auditlog

import (
	"slices"
	"time"

	"github.com/dalemusser/activityteams/internal/app/store/audit"
	"github.com/dalemusser/activityteams/internal/app/system/paging"
)

// listItem is one audit event with user and team names resolved.
type listItem struct {
	ID         string            `json:"id"`
	Timestamp  time.Time         `json:"timestamp"`
	Category   string            `json:"category"`
	EventType  string            `json:"event_type"`
	ActorName  string            `json:"actor,omitempty"`
	TargetName string            `json:"user,omitempty"`
	TeamName   string            `json:"team,omitempty"`
	ActivityID string            `json:"activity_id,omitempty"`
	IP         string            `json:"ip,omitempty"`
	Success    bool              `json:"success"`
	Reason     string            `json:"failure_reason,omitempty"`
	Details    map[string]string `json:"details,omitempty"`
}

type listResponse struct {
	Items []listItem `json:"items"`
	Total int64      `json:"total"`
	paging.Range
	paging.Result
}

var (
	authEvents = []string{
		audit.EventLoginSuccess,
		audit.EventLoginFailedUserNotFound,
		audit.EventLoginFailedWrongPassword,
		audit.EventLoginFailedUserDisabled,
		audit.EventLoginRateLimited,
		audit.EventLogout,
	}
	activityEvents = []string{
		audit.EventActivityCreated,
		audit.EventActivityReassigned,
		audit.EventActivityDone,
		audit.EventTeamCreated,
		audit.EventTeamUpdated,
		audit.EventTeamDeleted,
		audit.EventTeamMemberAdded,
		audit.EventTeamMemberRemoved,
	}
	securityEvents = []string{
		audit.EventPrivilegeElevated,
		audit.EventAssignationDenied,
		audit.EventConsistencyRejected,
	}
)

// eventTypesForCategory returns the event types of category, or all of them
// when category is empty. Unknown categories give nil.
func eventTypesForCategory(category string) []string {
	switch category {
	case audit.CategoryAuth:
		return authEvents
	case audit.CategoryActivity:
		return activityEvents
	case audit.CategorySecurity:
		return securityEvents
	case "":
		return slices.Concat(authEvents, activityEvents, securityEvents)
	default:
		return nil
	}
}
