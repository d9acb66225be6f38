package service

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rossmikee121/schoolrepr/internal/models"
	appErrors "github.com/rossmikee121/schoolrepr/pkg/errors"
)

func TestTokenRoundTrip(t *testing.T) {
	svc := NewTokenService(TokenConfig{Secret: "secret", Issuer: "school-erp"})
	token, err := svc.Issue(models.Principal{UserID: "admin-1", Role: models.RoleAdmin}, time.Hour)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "admin-1", claims.UserID)
	assert.Equal(t, models.RoleAdmin, claims.Role)
	assert.Equal(t, models.Principal{UserID: "admin-1", Role: models.RoleAdmin}, claims.Principal())
}

func TestTokenRejections(t *testing.T) {
	svc := NewTokenService(TokenConfig{Secret: "secret", Issuer: "school-erp"})
	principal := models.Principal{UserID: "admin-1", Role: models.RoleAdmin}

	otherIssuer, err := NewTokenService(TokenConfig{Secret: "secret", Issuer: "elsewhere"}).Issue(principal, time.Hour)
	require.NoError(t, err)
	otherSecret, err := NewTokenService(TokenConfig{Secret: "other", Issuer: "school-erp"}).Issue(principal, time.Hour)
	require.NoError(t, err)
	expired, err := svc.Issue(principal, -time.Minute)
	require.NoError(t, err)
	anonymous, err := svc.Issue(models.Principal{Role: models.RoleAdmin}, time.Hour)
	require.NoError(t, err)
	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, &models.JWTClaims{UserID: "admin-1"}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	for name, token := range map[string]string{
		"issuer":    otherIssuer,
		"secret":    otherSecret,
		"expired":   expired,
		"no user":   anonymous,
		"alg none":  none,
		"malformed": "not.a.token",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := svc.ValidateToken(token)
			assert.True(t, errors.Is(err, appErrors.ErrUnauthorized))
		})
	}
}
