package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"p9e.in/siteops/models"
)

// GetClaims pulls the *Claims out of the request context (or nil)
func GetClaims(r *http.Request) *Claims {
	if c, ok := r.Context().Value(userClaimsKey).(*Claims); ok {
		return c
	}
	return nil
}

// GetUserID returns the caller's user ID, or uuid.Nil when unauthenticated.
func GetUserID(r *http.Request) uuid.UUID {
	if c := GetClaims(r); c != nil {
		if id, err := uuid.Parse(c.UserID); err == nil {
			return id
		}
	}
	return uuid.Nil
}

// GetRole returns the caller's role tag.
func GetRole(r *http.Request) models.Role {
	if c := GetClaims(r); c != nil {
		return models.Role(c.Role)
	}
	return ""
}
