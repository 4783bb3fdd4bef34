// internal/middleware/auth.go
package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/truckzone/truckzone-backend/internal/models"
	"github.com/truckzone/truckzone-backend/internal/services"
	"github.com/truckzone/truckzone-backend/internal/utils"
)

// UserLookup resolves a verified uid to its stored user.
type UserLookup interface {
	GetUserByUID(ctx context.Context, uid string) (*models.User, error)
}

// AuthRequired rejects requests without an Authorization header with 401 and
// requests whose bearer token does not verify with 403.
func AuthRequired(jwtManager *utils.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			utils.UnauthorizedResponse(c, "")
			c.Abort()
			return
		}

		// Extract token from "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			utils.ForbiddenResponse(c, "")
			c.Abort()
			return
		}

		claims, err := jwtManager.ValidateJWT(strings.TrimSpace(parts[1]))
		if err != nil {
			utils.ForbiddenResponse(c, "")
			c.Abort()
			return
		}

		c.Set(utils.ContextKeyUID, claims.UID)
		c.Set(utils.ContextKeyEmail, claims.Email)
		c.Next()
	}
}

// AdminRequired must run after AuthRequired. The role is read from the store on
// every request, so a demotion takes effect immediately.
func AdminRequired(users UserLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid, ok := utils.GetUIDFromContext(c)
		if !ok {
			utils.ForbiddenResponse(c, "")
			c.Abort()
			return
		}

		user, err := users.GetUserByUID(c.Request.Context(), uid)
		if err != nil {
			if errors.Is(err, services.ErrUserNotFound) {
				utils.ForbiddenResponse(c, "")
			} else {
				logrus.WithError(err).WithField("uid", uid).Error("Failed to load user for admin check")
				utils.InternalErrorResponse(c, "")
			}
			c.Abort()
			return
		}

		if !user.IsAdmin() {
			utils.ForbiddenResponse(c, "")
			c.Abort()
			return
		}
		c.Next()
	}
}

// OwnerRequired must run after AuthRequired. The uid query parameter has to
// name the verified caller.
func OwnerRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		uid, ok := utils.GetUIDFromContext(c)
		if !ok || c.Query("uid") != uid {
			utils.ForbiddenResponse(c, "")
			c.Abort()
			return
		}
		c.Next()
	}
}
