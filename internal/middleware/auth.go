// internal/middleware/auth.go
package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/javajoker/collab-backend/internal/i18n"
	"github.com/javajoker/collab-backend/internal/models"
	"github.com/javajoker/collab-backend/internal/utils"
)

const PartyContextKey = "party"

// PartyResolver maps an authenticated user to its creator or hotel profile.
type PartyResolver interface {
	ResolveParty(ctx context.Context, userID uuid.UUID, userType string) (models.Party, error)
}

func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		lang := utils.GetLangFromContext(c)

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			utils.UnauthorizedResponse(c, i18n.T(lang, i18n.KeyAuthRequired))
			c.Abort()
			return
		}

		// Extract token from "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			utils.UnauthorizedResponse(c, i18n.T(lang, i18n.KeyAuthInvalidToken))
			c.Abort()
			return
		}

		claims, err := utils.ValidateJWT(parts[1])
		if err != nil {
			utils.UnauthorizedResponse(c, i18n.T(lang, i18n.KeyAuthInvalidToken))
			c.Abort()
			return
		}

		// Set user info in context
		c.Set("user_id", claims.UserID)
		c.Set("user_type", claims.UserType)
		c.Next()
	}
}

// PartyRequired resolves the authenticated user to a collaboration party.
// It must run after AuthRequired.
func PartyRequired(resolver PartyResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		lang := utils.GetLangFromContext(c)

		userIDStr, _ := utils.GetUserIDFromContext(c)
		userType, _ := utils.GetUserTypeFromContext(c)
		userID, err := uuid.Parse(userIDStr)
		if err != nil {
			utils.UnauthorizedResponse(c, i18n.T(lang, i18n.KeyAuthInvalidToken))
			c.Abort()
			return
		}

		party, err := resolver.ResolveParty(c.Request.Context(), userID, userType)
		if err != nil {
			utils.AppErrorResponse(c, err)
			c.Abort()
			return
		}

		c.Set(PartyContextKey, party)
		c.Next()
	}
}

// GetParty returns the party set by PartyRequired.
func GetParty(c *gin.Context) (models.Party, bool) {
	if v, exists := c.Get(PartyContextKey); exists {
		if party, ok := v.(models.Party); ok {
			return party, true
		}
	}
	return models.Party{}, false
}
