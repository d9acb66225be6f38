package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/rossmikee121/schoolrepr/internal/models"
	appErrors "github.com/rossmikee121/schoolrepr/pkg/errors"
	"github.com/rossmikee121/schoolrepr/pkg/response"
)

// RequireRoles allows the request through only for the listed roles.
// SUPERADMIN is always allowed.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	allowed := make(map[models.UserRole]struct{}, len(roles)+1)
	allowed[models.RoleSuperAdmin] = struct{}{}
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *gin.Context) {
		claims, ok := Claims(c)
		if !ok {
			response.Error(c, appErrors.ErrUnauthorized)
			return
		}
		if _, ok := allowed[claims.Role]; !ok {
			response.Error(c, appErrors.ErrForbidden)
			return
		}
		c.Next()
	}
}
