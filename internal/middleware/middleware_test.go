package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-events-api/internal/service"
	"github.com/noah-isme/campus-events-api/pkg/middleware/requestid"
)

func TestActorMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Actor())
	var seen string
	r.GET("/ping", func(c *gin.Context) {
		seen = ActorFromContext(c)
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("X-Actor", "  reviewer@campus.edu ")
	r.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "reviewer@campus.edu", seen)

	req = httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("X-Actor", strings.Repeat("a", 500))
	r.ServeHTTP(httptest.NewRecorder(), req)
	assert.Len(t, seen, maxActorLength)

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Empty(t, seen)
}

func TestResponseMetaRecordsCacheHit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(requestid.Middleware(), WithResponseMeta())
	var meta map[string]interface{}
	r.GET("/summary", func(c *gin.Context) {
		SetCacheHit(c, true)
		meta = MetaSince(c, time.Now())
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/summary", nil)
	req.Header.Set("X-Request-ID", "req-42")
	r.ServeHTTP(httptest.NewRecorder(), req)
	require.NotNil(t, meta)
	assert.Equal(t, true, meta["cache_hit"])
	assert.Equal(t, "req-42", meta["request_id"])
	assert.Contains(t, meta, "processing_time_ms")
}

func TestEnsureMetaWithoutMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	assert.Nil(t, ExtractMeta(c))
	SetCacheHit(c, false)
	assert.Equal(t, false, ExtractMeta(c)["cache_hit"])
}

func TestMetricsMiddlewareLabelsUnmatchedRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	metrics := service.NewMetricsService()
	r := gin.New()
	r.Use(Metrics(metrics))
	r.GET("/proposals/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/proposals/7", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nope", nil))

	assert.Equal(t, uint64(2), metrics.Snapshot().RequestsTotal)
}
