package models

import (
	"strings"
	"time"

	id "medboard/pkg/domain"
	dErrors "medboard/pkg/domain-errors"
)

// SuspensionRecord is one entry in the append-only suspension ledger.
// Records are never deleted while their doctor exists; an unsuspend leaves
// them counting toward the strike limit, and only an explicit revocation
// flags one inert.
type SuspensionRecord struct {
	ID        id.SuspensionID `json:"id"`
	DoctorID  id.DoctorID     `json:"doctor_id"`
	Reason    string          `json:"reason"`
	Detail    string          `json:"detail"`
	Revoked   bool            `json:"revoked"`
	CreatedAt time.Time       `json:"created_at"`
}

// NewSuspensionRecord validates and constructs a ledger entry.
func NewSuspensionRecord(suspensionID id.SuspensionID, doctorID id.DoctorID, reason, detail string, now time.Time) (*SuspensionRecord, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "suspension reason is required")
	}
	return &SuspensionRecord{
		ID:        suspensionID,
		DoctorID:  doctorID,
		Reason:    reason,
		Detail:    strings.TrimSpace(detail),
		CreatedAt: now,
	}, nil
}
