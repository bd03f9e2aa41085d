package models

import (
	"strings"
	"time"

	id "medboard/pkg/domain"
	dErrors "medboard/pkg/domain-errors"
	pstrings "medboard/pkg/platform/strings"
)

// Status is the doctor lifecycle state.
//
// Transitions: pending → approved (candidate approval or direct creation),
// approved ⇄ suspended, approved|suspended → deleted (terminal, record
// removed). No other value is ever persisted.
type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusSuspended Status = "suspended"
)

// ParseStatus validates a status string at the API boundary.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusPending, StatusApproved, StatusRejected, StatusSuspended:
		return Status(s), nil
	}
	return "", dErrors.Newf(dErrors.CodeBadRequest, "unknown status %q", s)
}

// Sentiment is the bucketed review classification derived from SentimentScore.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
)

// Bucket boundaries: score ≤ 0.3 is negative, ≤ 0.6 neutral, else positive.
const (
	negativeCeiling = 0.3
	neutralCeiling  = 0.6
	positiveCeiling = 1.0
)

// SentimentForScore returns the bucket a score falls into.
func SentimentForScore(score float64) Sentiment {
	switch {
	case score <= negativeCeiling:
		return SentimentNegative
	case score <= neutralCeiling:
		return SentimentNeutral
	default:
		return SentimentPositive
	}
}

// CeilingScore returns the canonical score for a sentiment bucket, used when
// the label was edited last and the score must be forced to match.
func (s Sentiment) CeilingScore() float64 {
	switch s {
	case SentimentNegative:
		return negativeCeiling
	case SentimentNeutral:
		return neutralCeiling
	default:
		return positiveCeiling
	}
}

// ParseSentiment validates a sentiment string at the API boundary.
func ParseSentiment(s string) (Sentiment, error) {
	switch Sentiment(s) {
	case SentimentPositive, SentimentNeutral, SentimentNegative:
		return Sentiment(s), nil
	}
	return "", dErrors.Newf(dErrors.CodeBadRequest, "unknown sentiment %q", s)
}

// Credentials are the array-valued credential fields of a doctor. Each is an
// ordered set of free-text strings; order is preserved, duplicates and empty
// entries are dropped by Normalize.
type Credentials struct {
	Specializations      []string `json:"specializations"`
	Licenses             []string `json:"licenses"`
	Degrees              []string `json:"degrees"`
	Residencies          []string `json:"residencies"`
	Fellowships          []string `json:"fellowships"`
	BoardCertifications  []string `json:"board_certifications"`
	HospitalAffiliations []string `json:"hospital_affiliations"`
	Memberships          []string `json:"memberships"`
}

// Normalize cleans every credential list in place.
func (c *Credentials) Normalize() {
	c.Specializations = pstrings.DedupeAndTrim(c.Specializations)
	c.Licenses = pstrings.DedupeAndTrim(c.Licenses)
	c.Degrees = pstrings.DedupeAndTrim(c.Degrees)
	c.Residencies = pstrings.DedupeAndTrim(c.Residencies)
	c.Fellowships = pstrings.DedupeAndTrim(c.Fellowships)
	c.BoardCertifications = pstrings.DedupeAndTrim(c.BoardCertifications)
	c.HospitalAffiliations = pstrings.DedupeAndTrim(c.HospitalAffiliations)
	c.Memberships = pstrings.DedupeAndTrim(c.Memberships)
}

// Doctor is the aggregate root for a practicing doctor.
//
// Invariants:
//   - Status is always one of pending/approved/rejected/suspended
//   - SentimentScore is in [0,1] and Sentiment always matches its bucket
//   - Credential lists contain no empty strings or duplicates
//
// The suspension ledger is owned by the doctor: records cascade-delete with
// it. The blacklist entry written on terminal deletion is keyed by contact
// fingerprint, not by doctor ID, so it survives the deletion by design.
type Doctor struct {
	ID    id.DoctorID `json:"id"`
	Name  string      `json:"name"`
	Email string      `json:"email"`
	Phone string      `json:"phone"`
	Credentials
	Status         Status    `json:"status"`
	Verified       bool      `json:"verified"`
	Sentiment      Sentiment `json:"sentiment"`
	SentimentScore float64   `json:"sentiment_score"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// NewDoctor constructs an approved doctor from validated fields.
// Sentiment starts neutral at its canonical ceiling until reviews arrive.
func NewDoctor(doctorID id.DoctorID, name, email, phone string, creds Credentials, now time.Time) (*Doctor, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if name == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "doctor name is required")
	}
	if email == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "doctor email is required")
	}
	creds.Normalize()
	return &Doctor{
		ID:             doctorID,
		Name:           name,
		Email:          email,
		Phone:          strings.TrimSpace(phone),
		Credentials:    creds,
		Status:         StatusApproved,
		Sentiment:      SentimentNeutral,
		SentimentScore: SentimentNeutral.CeilingScore(),
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// CanSuspend checks whether a suspension may be applied.
func (d *Doctor) CanSuspend() error {
	if d.Status == StatusSuspended {
		return dErrors.New(dErrors.CodeInvalidState, "doctor is already suspended")
	}
	return nil
}

// ApplySuspension transitions the doctor to suspended status.
// Call CanSuspend first to validate the transition.
func (d *Doctor) ApplySuspension(now time.Time) {
	d.Status = StatusSuspended
	d.UpdatedAt = now
}

// CanUnsuspend checks whether the doctor can return to approved status.
func (d *Doctor) CanUnsuspend() error {
	if d.Status != StatusSuspended {
		return dErrors.New(dErrors.CodeInvalidState, "doctor is not suspended")
	}
	return nil
}

// ApplyUnsuspension transitions the doctor back to approved status.
// Call CanUnsuspend first to validate the transition.
func (d *Doctor) ApplyUnsuspension(now time.Time) {
	d.Status = StatusApproved
	d.UpdatedAt = now
}

// ApplySentimentScore records an edit to the numeric score. The score wins:
// the label is re-derived from its bucket.
func (d *Doctor) ApplySentimentScore(score float64, now time.Time) error {
	if score < 0 || score > 1 {
		return dErrors.New(dErrors.CodeValidation, "sentiment score must be between 0 and 1")
	}
	d.SentimentScore = score
	d.Sentiment = SentimentForScore(score)
	d.UpdatedAt = now
	return nil
}

// ApplySentiment records an edit to the label. The label wins: the score is
// forced to the bucket's canonical ceiling.
func (d *Doctor) ApplySentiment(sentiment Sentiment, now time.Time) error {
	switch sentiment {
	case SentimentPositive, SentimentNeutral, SentimentNegative:
	default:
		return dErrors.Newf(dErrors.CodeValidation, "unknown sentiment %q", sentiment)
	}
	d.Sentiment = sentiment
	d.SentimentScore = sentiment.CeilingScore()
	d.UpdatedAt = now
	return nil
}
