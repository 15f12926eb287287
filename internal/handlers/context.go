package handlers

import (
	"github.com/chamadopro/backend/internal/models"
	"github.com/labstack/echo/v4"
)

// getUserClaims pulls the authenticated claims stored by the JWT middleware
func getUserClaims(c echo.Context) *models.JwtCustomClaims {
	claims, ok := c.Get("user").(*models.JwtCustomClaims)
	if !ok {
		return nil
	}
	return claims
}

// getUserIDFromContext returns the authenticated user ID, or 0 when absent
func getUserIDFromContext(c echo.Context) uint {
	claims := getUserClaims(c)
	if claims == nil {
		return 0
	}
	return claims.UserID
}
