package services

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/setsvm/novi/internal/models"
)

// accessClaims are the custom claims the auth service adds to its access tokens.
type accessClaims struct {
	UserID    models.ID `json:"user_id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	jwt.RegisteredClaims
}

// parseClaims decodes an access token without verifying its signature.
// The gateway verifies tokens; the front end only reads them for display.
func parseClaims(access string) (*accessClaims, bool) {
	claims := &accessClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(access, claims); err != nil {
		return nil, false
	}
	return claims, true
}

// ProfileFromToken builds a profile from access-token claims.
// Returns nil when the token is not a JWT or carries no identity claims.
func ProfileFromToken(access string) *models.Profile {
	claims, ok := parseClaims(access)
	if !ok {
		return nil
	}
	if claims.Email == "" && claims.Username == "" && claims.FirstName == "" {
		return nil
	}

	profile := &models.Profile{
		Username:  claims.Username,
		Email:     claims.Email,
		FirstName: claims.FirstName,
		LastName:  claims.LastName,
	}
	profile.ID = claims.UserID
	if profile.ID == "" && claims.Subject != "" {
		profile.ID = models.ID(claims.Subject)
	}
	return profile
}

// TokenExpiry returns the access token's exp claim.
//
// It is informational: requests are never blocked on it.
func TokenExpiry(access string) (time.Time, bool) {
	claims, ok := parseClaims(access)
	if !ok || claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}
