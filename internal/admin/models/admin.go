package models

import (
	"strings"
	"time"

	id "medboard/pkg/domain"
	dErrors "medboard/pkg/domain-errors"
)

// Admin is a back-office operator account. The password is stored only as a
// bcrypt hash and never leaves the service layer.
type Admin struct {
	ID           id.AdminID `json:"id"`
	Email        string     `json:"email"`
	Name         string     `json:"name"`
	PasswordHash string     `json:"-"`
	CreatedAt    time.Time  `json:"created_at"`
}

// NewAdmin validates and constructs an admin account.
func NewAdmin(adminID id.AdminID, name, email, passwordHash string, now time.Time) (*Admin, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if name == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "name is required")
	}
	if email == "" || !strings.Contains(email, "@") {
		return nil, dErrors.New(dErrors.CodeValidation, "a valid email is required")
	}
	if passwordHash == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "password hash is required")
	}
	return &Admin{
		ID:           adminID,
		Email:        email,
		Name:         name,
		PasswordHash: passwordHash,
		CreatedAt:    now,
	}, nil
}
