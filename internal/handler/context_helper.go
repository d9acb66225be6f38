package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/rossmikee121/schoolrepr/internal/middleware"
	"github.com/rossmikee121/schoolrepr/internal/models"
	appErrors "github.com/rossmikee121/schoolrepr/pkg/errors"
	"github.com/rossmikee121/schoolrepr/pkg/response"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	claims, ok := middleware.Claims(c)
	if !ok {
		return nil
	}
	return claims
}

// principalOrAbort resolves the caller, answering 401 when the request carries no claims.
func principalOrAbort(c *gin.Context) (models.Principal, bool) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return models.Principal{}, false
	}
	return claims.Principal(), true
}

func bindJSON(c *gin.Context, dest interface{}) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return false
	}
	return true
}

func bindQuery(c *gin.Context, dest interface{}) bool {
	if err := c.ShouldBindQuery(dest); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid query parameters"))
		return false
	}
	return true
}
