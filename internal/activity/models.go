package activity

import (
	"time"

	"github.com/mssola/useragent"

	id "medboard/pkg/domain"
)

// Action names the admin operation an activity entry records.
type Action string

const (
	// Candidate review
	ActionCreateCandidate  Action = "CREATE_CANDIDATE"
	ActionApproveDoctor    Action = "APPROVE_DOCTOR"
	ActionRejectCandidate  Action = "REJECT_CANDIDATE"
	ActionViewCandidates   Action = "VIEW_CANDIDATES"

	// Doctor lifecycle
	ActionCreateDoctor     Action = "CREATE_DOCTOR"
	ActionUpdateDoctor     Action = "UPDATE_DOCTOR"
	ActionSuspendDoctor    Action = "SUSPEND_DOCTOR"
	ActionUnsuspendDoctor  Action = "UNSUSPEND_DOCTOR"
	ActionDeleteDoctor     Action = "DELETE_DOCTOR"
	ActionRevokeSuspension Action = "REVOKE_SUSPENSION"
	ActionViewDoctors      Action = "VIEW_DOCTORS"

	// Blacklist management
	ActionBlacklistAdd        Action = "BLACKLIST_ADD"
	ActionBlacklistUpdate     Action = "BLACKLIST_UPDATE"
	ActionBlacklistDeactivate Action = "BLACKLIST_DEACTIVATE"
	ActionBlacklistRemove     Action = "BLACKLIST_REMOVE"
	ActionViewBlacklist       Action = "VIEW_BLACKLIST"

	// Admin accounts
	ActionAdminLogin  Action = "ADMIN_LOGIN"
	ActionCreateAdmin Action = "CREATE_ADMIN"

	// Audit access
	ActionViewActivities Action = "VIEW_ACTIVITIES"
)

// Entry is one append-only audit record. Every mutating operation in the
// system emits exactly one entry; entries are never updated or deleted.
type Entry struct {
	ID        id.ActivityID `json:"id"`
	AdminID   id.AdminID    `json:"admin_id"`
	Action    Action        `json:"action"`
	Details   string        `json:"details"`
	IPAddress string        `json:"ip_address"`
	UserAgent string        `json:"user_agent"`
	Timestamp time.Time     `json:"timestamp"`
}

// SummarizeUserAgent condenses a raw User-Agent header into "Browser x.y on OS"
// so the activity screen doesn't render full UA strings. Unparseable agents
// pass through untouched.
func SummarizeUserAgent(raw string) string {
	if raw == "" {
		return ""
	}
	ua := useragent.New(raw)
	name, version := ua.Browser()
	if name == "" {
		return raw
	}
	summary := name
	if version != "" {
		summary += " " + version
	}
	if os := ua.OS(); os != "" {
		summary += " on " + os
	}
	return summary
}
