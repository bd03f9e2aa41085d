package jwttoken

import (
	"medboard/internal/platform/middleware"
)

// MiddlewareAdapter adapts JWTService to the middleware.JWTValidator interface.
type MiddlewareAdapter struct {
	service *JWTService
}

func NewMiddlewareAdapter(service *JWTService) *MiddlewareAdapter {
	return &MiddlewareAdapter{service: service}
}

func (a *MiddlewareAdapter) ValidateToken(tokenString string) (*middleware.JWTClaims, error) {
	claims, err := a.service.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	return &middleware.JWTClaims{
		AdminID: claims.AdminID,
		Email:   claims.Email,
	}, nil
}
