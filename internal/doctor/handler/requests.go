package handler

import (
	"medboard/internal/doctor/models"
	"medboard/internal/doctor/service"
	"medboard/pkg/platform/httputil"
)

// StringList lets credential fields accept both a string and a list.
type StringList = httputil.StringList

type credentialFields struct {
	Specializations      StringList `json:"specializations"`
	Licenses             StringList `json:"licenses"`
	Degrees              StringList `json:"degrees"`
	Residencies          StringList `json:"residencies"`
	Fellowships          StringList `json:"fellowships"`
	BoardCertifications  StringList `json:"board_certifications"`
	HospitalAffiliations StringList `json:"hospital_affiliations"`
	Memberships          StringList `json:"memberships"`
}

func (c credentialFields) toCredentials() models.Credentials {
	return models.Credentials{
		Specializations:      c.Specializations,
		Licenses:             c.Licenses,
		Degrees:              c.Degrees,
		Residencies:          c.Residencies,
		Fellowships:          c.Fellowships,
		BoardCertifications:  c.BoardCertifications,
		HospitalAffiliations: c.HospitalAffiliations,
		Memberships:          c.Memberships,
	}
}

// CreateDoctorRequest is the payload for POST /api/doctors.
type CreateDoctorRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
	credentialFields
}

func (r CreateDoctorRequest) toService() service.CreateRequest {
	return service.CreateRequest{
		Name:        r.Name,
		Email:       r.Email,
		Phone:       r.Phone,
		Credentials: r.toCredentials(),
	}
}

// UpdateDoctorRequest is the payload for PUT /api/doctors/{id}. Absent fields
// are left untouched; credential fields are all-or-nothing.
type UpdateDoctorRequest struct {
	Name           *string  `json:"name"`
	Email          *string  `json:"email"`
	Phone          *string  `json:"phone"`
	Sentiment      *string  `json:"sentiment"`
	SentimentScore *float64 `json:"sentiment_score"`

	Specializations      *StringList `json:"specializations"`
	Licenses             *StringList `json:"licenses"`
	Degrees              *StringList `json:"degrees"`
	Residencies          *StringList `json:"residencies"`
	Fellowships          *StringList `json:"fellowships"`
	BoardCertifications  *StringList `json:"board_certifications"`
	HospitalAffiliations *StringList `json:"hospital_affiliations"`
	Memberships          *StringList `json:"memberships"`
}

func (r UpdateDoctorRequest) hasCredentialEdits() bool {
	return r.Specializations != nil || r.Licenses != nil || r.Degrees != nil ||
		r.Residencies != nil || r.Fellowships != nil || r.BoardCertifications != nil ||
		r.HospitalAffiliations != nil || r.Memberships != nil
}

func (r UpdateDoctorRequest) toService() (service.UpdateRequest, error) {
	req := service.UpdateRequest{
		Name:           r.Name,
		Email:          r.Email,
		Phone:          r.Phone,
		SentimentScore: r.SentimentScore,
	}
	if r.Sentiment != nil {
		sentiment, err := models.ParseSentiment(*r.Sentiment)
		if err != nil {
			return service.UpdateRequest{}, err
		}
		req.Sentiment = &sentiment
	}
	if r.hasCredentialEdits() {
		lift := func(l *StringList) *[]string {
			if l == nil {
				return nil
			}
			values := []string(*l)
			return &values
		}
		req.Credentials = &service.CredentialEdits{
			Specializations:      lift(r.Specializations),
			Licenses:             lift(r.Licenses),
			Degrees:              lift(r.Degrees),
			Residencies:          lift(r.Residencies),
			Fellowships:          lift(r.Fellowships),
			BoardCertifications:  lift(r.BoardCertifications),
			HospitalAffiliations: lift(r.HospitalAffiliations),
			Memberships:          lift(r.Memberships),
		}
	}
	return req, nil
}

// SuspendDoctorRequest is the payload for POST /api/doctors/{id}/suspend.
type SuspendDoctorRequest struct {
	Reason string `json:"reason"`
	Detail string `json:"detail"`
}
