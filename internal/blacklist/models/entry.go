package models

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	id "medboard/pkg/domain"
	dErrors "medboard/pkg/domain-errors"
	pstrings "medboard/pkg/platform/strings"
)

// Reason classifies why a contact was blacklisted.
type Reason string

const (
	ReasonDoctorDeleted             Reason = "doctor_deleted"
	ReasonCandidateRejectedMultiple Reason = "candidate_rejected_multiple"
	ReasonLicenseConflict           Reason = "license_conflict"
	ReasonManual                    Reason = "manual"
)

// ParseReason validates a reason string at the API boundary.
func ParseReason(s string) (Reason, error) {
	switch Reason(s) {
	case ReasonDoctorDeleted, ReasonCandidateRejectedMultiple, ReasonLicenseConflict, ReasonManual:
		return Reason(s), nil
	}
	return "", dErrors.Newf(dErrors.CodeBadRequest, "unknown blacklist reason %q", s)
}

// Entry bars a contact/license fingerprint from re-onboarding. It snapshots
// the contact fields at blacklisting time and is keyed by fingerprint, not by
// doctor ID, so it outlives the doctor record it was created for.
type Entry struct {
	ID            id.BlacklistEntryID `json:"id"`
	Reason        Reason              `json:"reason"`
	Name          string              `json:"name"`
	Email         string              `json:"email"`
	Phone         string              `json:"phone"`
	Licenses      []string            `json:"licenses"`
	Fingerprints  []string            `json:"-"`
	IsActive      bool                `json:"is_active"`
	BlacklistedAt time.Time           `json:"blacklisted_at"`
}

// Fingerprint hashes a contact value (email, phone, license number) into the
// lookup key used for matching. Values are lowercased and trimmed first so
// matching is case-insensitive.
func Fingerprint(value string) string {
	normalized := strings.ToLower(strings.TrimSpace(value))
	if normalized == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}

// FingerprintsFor computes the fingerprint set for a contact snapshot.
func FingerprintsFor(email, phone string, licenses []string) []string {
	values := append([]string{email, phone}, licenses...)
	fingerprints := make([]string, 0, len(values))
	for _, v := range values {
		if fp := Fingerprint(v); fp != "" {
			fingerprints = append(fingerprints, fp)
		}
	}
	return pstrings.DedupeAndTrim(fingerprints)
}

// NewEntry constructs an active blacklist entry snapshotting the given contact.
func NewEntry(entryID id.BlacklistEntryID, reason Reason, name, email, phone string, licenses []string, now time.Time) (*Entry, error) {
	switch reason {
	case ReasonDoctorDeleted, ReasonCandidateRejectedMultiple, ReasonLicenseConflict, ReasonManual:
	default:
		return nil, dErrors.Newf(dErrors.CodeValidation, "unknown blacklist reason %q", reason)
	}
	email = strings.TrimSpace(email)
	phone = strings.TrimSpace(phone)
	licenses = pstrings.DedupeAndTrim(licenses)
	fingerprints := FingerprintsFor(email, phone, licenses)
	if len(fingerprints) == 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "blacklist entry needs at least one contact field")
	}
	return &Entry{
		ID:            entryID,
		Reason:        reason,
		Name:          strings.TrimSpace(name),
		Email:         email,
		Phone:         phone,
		Licenses:      licenses,
		Fingerprints:  fingerprints,
		IsActive:      true,
		BlacklistedAt: now,
	}, nil
}

// Matches reports whether the entry covers any substring of the search term
// across email, phone, name and licenses, case-insensitively.
func (e *Entry) Matches(term string) bool {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return false
	}
	for _, field := range []string{e.Email, e.Phone, e.Name} {
		if strings.Contains(strings.ToLower(field), term) {
			return true
		}
	}
	for _, license := range e.Licenses {
		if strings.Contains(strings.ToLower(license), term) {
			return true
		}
	}
	return false
}
