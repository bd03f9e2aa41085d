package models

import (
	"strings"
	"time"

	doctormodels "medboard/internal/doctor/models"
	id "medboard/pkg/domain"
	dErrors "medboard/pkg/domain-errors"
)

// Status is the candidate review state. A candidate is either awaiting review
// or rejected; approval removes the record and creates a Doctor instead.
type Status string

const (
	StatusPending  Status = "pending"
	StatusRejected Status = "rejected"
)

// ParseStatus validates a candidate status string at the API boundary.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusPending, StatusRejected:
		return Status(s), nil
	}
	return "", dErrors.Newf(dErrors.CodeBadRequest, "unknown candidate status %q", s)
}

// Candidate is a prospective doctor awaiting admin review. Same shape as a
// Doctor minus lifecycle fields. Rejected candidates are retained, never
// deleted, so repeat applications by the same contact can be detected.
type Candidate struct {
	ID    id.CandidateID `json:"id"`
	Name  string         `json:"name"`
	Email string         `json:"email"`
	Phone string         `json:"phone"`
	doctormodels.Credentials
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewCandidate validates and constructs a pending candidate.
func NewCandidate(candidateID id.CandidateID, name, email, phone string, creds doctormodels.Credentials, now time.Time) (*Candidate, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if name == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "candidate name is required")
	}
	if email == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "candidate email is required")
	}
	creds.Normalize()
	return &Candidate{
		ID:          candidateID,
		Name:        name,
		Email:       email,
		Phone:       strings.TrimSpace(phone),
		Credentials: creds,
		Status:      StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// CanReview checks the candidate is still awaiting review; both approval and
// rejection require pending status.
func (c *Candidate) CanReview() error {
	if c.Status != StatusPending {
		return dErrors.Newf(dErrors.CodeInvalidState, "candidate is %s, not pending", c.Status)
	}
	return nil
}

// ApplyRejection marks the candidate rejected. The record is kept for
// repeat-offender tracking.
func (c *Candidate) ApplyRejection(now time.Time) {
	c.Status = StatusRejected
	c.UpdatedAt = now
}

// Promote copies the candidate into a new approved, verified Doctor.
// Credential arrays are re-normalized so empty entries never carry over.
func (c *Candidate) Promote(doctorID id.DoctorID, now time.Time) (*doctormodels.Doctor, error) {
	doctor, err := doctormodels.NewDoctor(doctorID, c.Name, c.Email, c.Phone, c.Credentials, now)
	if err != nil {
		return nil, err
	}
	doctor.Verified = true
	return doctor, nil
}
