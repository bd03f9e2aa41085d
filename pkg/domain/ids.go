// Package domain holds typed identifiers shared across modules.
//
// Each aggregate gets its own UUID-backed type so the compiler rejects
// cross-aggregate mixups (a SuspensionID can never be passed where a
// DoctorID is expected). Parse functions enforce validity at trust
// boundaries: IDs must be valid, non-nil UUIDs.
package domain

import (
	"github.com/google/uuid"

	dErrors "medboard/pkg/domain-errors"
)

// Typed identifiers for every aggregate in the system.
type (
	DoctorID         uuid.UUID
	CandidateID      uuid.UUID
	SuspensionID     uuid.UUID
	BlacklistEntryID uuid.UUID
	AdminID          uuid.UUID
	ActivityID       uuid.UUID
)

func parseUUID(s, what string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.Newf(dErrors.CodeBadRequest, "%s is required", what)
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.Newf(dErrors.CodeBadRequest, "invalid %s", what)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.Newf(dErrors.CodeBadRequest, "%s cannot be nil", what)
	}
	return u, nil
}

// ParseDoctorID validates and returns a DoctorID.
func ParseDoctorID(s string) (DoctorID, error) {
	u, err := parseUUID(s, "doctor id")
	return DoctorID(u), err
}

// ParseCandidateID validates and returns a CandidateID.
func ParseCandidateID(s string) (CandidateID, error) {
	u, err := parseUUID(s, "candidate id")
	return CandidateID(u), err
}

// ParseSuspensionID validates and returns a SuspensionID.
func ParseSuspensionID(s string) (SuspensionID, error) {
	u, err := parseUUID(s, "suspension id")
	return SuspensionID(u), err
}

// ParseBlacklistEntryID validates and returns a BlacklistEntryID.
func ParseBlacklistEntryID(s string) (BlacklistEntryID, error) {
	u, err := parseUUID(s, "blacklist entry id")
	return BlacklistEntryID(u), err
}

// ParseAdminID validates and returns an AdminID.
func ParseAdminID(s string) (AdminID, error) {
	u, err := parseUUID(s, "admin id")
	return AdminID(u), err
}

func (id DoctorID) String() string         { return uuid.UUID(id).String() }
func (id CandidateID) String() string      { return uuid.UUID(id).String() }
func (id SuspensionID) String() string     { return uuid.UUID(id).String() }
func (id BlacklistEntryID) String() string { return uuid.UUID(id).String() }
func (id AdminID) String() string          { return uuid.UUID(id).String() }
func (id ActivityID) String() string       { return uuid.UUID(id).String() }

func (id DoctorID) IsNil() bool         { return uuid.UUID(id) == uuid.Nil }
func (id CandidateID) IsNil() bool      { return uuid.UUID(id) == uuid.Nil }
func (id SuspensionID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }
func (id BlacklistEntryID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id AdminID) IsNil() bool          { return uuid.UUID(id) == uuid.Nil }
func (id ActivityID) IsNil() bool       { return uuid.UUID(id) == uuid.Nil }

// MarshalText implementations keep JSON output as plain UUID strings.
func (id DoctorID) MarshalText() ([]byte, error)         { return []byte(id.String()), nil }
func (id CandidateID) MarshalText() ([]byte, error)      { return []byte(id.String()), nil }
func (id SuspensionID) MarshalText() ([]byte, error)     { return []byte(id.String()), nil }
func (id BlacklistEntryID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }
func (id AdminID) MarshalText() ([]byte, error)          { return []byte(id.String()), nil }
func (id ActivityID) MarshalText() ([]byte, error)       { return []byte(id.String()), nil }

func (id *DoctorID) UnmarshalText(b []byte) error {
	parsed, err := ParseDoctorID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *CandidateID) UnmarshalText(b []byte) error {
	parsed, err := ParseCandidateID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *SuspensionID) UnmarshalText(b []byte) error {
	parsed, err := ParseSuspensionID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *BlacklistEntryID) UnmarshalText(b []byte) error {
	parsed, err := ParseBlacklistEntryID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *AdminID) UnmarshalText(b []byte) error {
	parsed, err := ParseAdminID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}
