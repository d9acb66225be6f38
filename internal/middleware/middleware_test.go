package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/rossmikee121/schoolrepr/internal/models"
	appErrors "github.com/rossmikee121/schoolrepr/pkg/errors"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubValidator map[string]*models.JWTClaims

func (s stubValidator) ValidateToken(token string) (*models.JWTClaims, error) {
	if claims, ok := s[token]; ok {
		return claims, nil
	}
	return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token")
}

var testTokens = stubValidator{
	"admin":   {UserID: "u-admin", Role: models.RoleAdmin},
	"teacher": {UserID: "u-teacher", Role: models.RoleTeacher},
	"root":    {UserID: "u-root", Role: models.RoleSuperAdmin},
	"student": {UserID: "u-student", Role: models.RoleStudent},
}

func perform(r http.Handler, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Error.Code
}

func TestJWTAndRoles(t *testing.T) {
	r := gin.New()
	r.GET("/admin", JWT(testTokens), RequireRoles(models.RoleAdmin), func(c *gin.Context) {
		claims, ok := Claims(c)
		require.True(t, ok)
		c.String(http.StatusOK, claims.UserID)
	})

	cases := []struct {
		name   string
		header string
		status int
		code   string
	}{
		{"missing header", "", http.StatusUnauthorized, "UNAUTHORIZED"},
		{"wrong scheme", "Basic admin", http.StatusUnauthorized, "UNAUTHORIZED"},
		{"empty token", "Bearer  ", http.StatusUnauthorized, "UNAUTHORIZED"},
		{"unknown token", "Bearer nope", http.StatusUnauthorized, "UNAUTHORIZED"},
		{"teacher forbidden", "Bearer teacher", http.StatusForbidden, "FORBIDDEN"},
		{"student forbidden", "Bearer student", http.StatusForbidden, "FORBIDDEN"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := perform(r, http.MethodGet, "/admin", tc.header)
			assert.Equal(t, tc.status, w.Code)
			assert.Equal(t, tc.code, errorCode(t, w))
		})
	}

	w := perform(r, http.MethodGet, "/admin", "Bearer admin")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "u-admin", w.Body.String())

	w = perform(r, http.MethodGet, "/admin", "bearer root")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireRolesWithoutClaims(t *testing.T) {
	r := gin.New()
	r.GET("/x", RequireRoles(models.RoleAdmin), func(c *gin.Context) { c.Status(http.StatusOK) })
	assert.Equal(t, http.StatusUnauthorized, perform(r, http.MethodGet, "/x", "").Code)
}

type observation struct {
	method, path string
	status       int
}

type recordingObserver struct {
	mu   sync.Mutex
	seen []observation
}

func (o *recordingObserver) ObserveHTTPRequest(method, path string, status int, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.seen = append(o.seen, observation{method, path, status})
}

func TestMetricsLabelsByRouteTemplate(t *testing.T) {
	obs := &recordingObserver{}
	r := gin.New()
	r.Use(Metrics(obs))
	r.GET("/reports/exports/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	perform(r, http.MethodGet, "/reports/exports/abc", "")
	perform(r, http.MethodGet, "/random/junk/1", "")

	require.Len(t, obs.seen, 2)
	assert.Equal(t, observation{http.MethodGet, "/reports/exports/:id", http.StatusOK}, obs.seen[0])
	assert.Equal(t, observation{http.MethodGet, "unmatched", http.StatusNotFound}, obs.seen[1])

	plain := gin.New()
	plain.Use(Metrics(nil))
	plain.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	assert.Equal(t, http.StatusOK, perform(plain, http.MethodGet, "/ok", "").Code)
}

func TestAuditLogsSuccessfulMutations(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	r := gin.New()
	r.POST("/templates/:id", JWT(testTokens), Audit(zap.New(core), "update", "report_template"), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	r.POST("/fail/:id", JWT(testTokens), Audit(zap.New(core), "update", "report_template"), func(c *gin.Context) {
		_ = c.Error(errors.New("boom"))
		c.Status(http.StatusBadRequest)
	})

	perform(r, http.MethodPost, "/templates/tpl-1", "Bearer teacher")
	perform(r, http.MethodPost, "/fail/tpl-2", "Bearer teacher")

	entries := logs.FilterMessage("audit").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "update", fields["action"])
	assert.Equal(t, "report_template", fields["resource"])
	assert.Equal(t, "tpl-1", fields["resource_id"])
	assert.Equal(t, "u-teacher", fields["user_id"])
	assert.Equal(t, "/templates/:id", fields["path"])
}

func TestResponseMeta(t *testing.T) {
	var meta map[string]interface{}
	r := gin.New()
	r.Use(WithResponseMeta())
	r.GET("/x", func(c *gin.Context) {
		SetCacheHit(c, true)
		meta = ExtractMeta(c)
		c.Status(http.StatusOK)
	})

	perform(r, http.MethodGet, "/x", "")
	require.NotNil(t, meta)
	assert.Equal(t, true, meta["cache_hit"])
	assert.Contains(t, meta, "processing_time_ms")

	assert.Nil(t, ExtractMeta(nil))
}
