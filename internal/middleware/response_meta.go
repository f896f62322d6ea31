package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/campus-events-api/pkg/middleware/requestid"
)

const (
	responseMetaKey   = "response_meta"
	cacheHitKey       = "cache_hit"
	processingTimeKey = "processing_time_ms"
	requestIDMetaKey  = "request_id"
)

// WithResponseMeta seeds a per-request metadata map that handlers merge into
// the response envelope. Must run after the request id middleware.
func WithResponseMeta() gin.HandlerFunc {
	return func(c *gin.Context) {
		meta := map[string]interface{}{}
		if id := requestid.Value(c); id != "" {
			meta[requestIDMetaKey] = id
		}
		c.Set(responseMetaKey, meta)
		c.Next()
	}
}

// SetCacheHit records whether the response payload was served from cache.
func SetCacheHit(c *gin.Context, hit bool) {
	ensureMeta(c)[cacheHitKey] = hit
}

// MetaSince stamps the elapsed time since start and returns the metadata map.
func MetaSince(c *gin.Context, start time.Time) map[string]interface{} {
	meta := ensureMeta(c)
	meta[processingTimeKey] = time.Since(start).Milliseconds()
	return meta
}

// ExtractMeta returns the metadata map stored on the context, if any.
func ExtractMeta(c *gin.Context) map[string]interface{} {
	if c == nil {
		return nil
	}
	if value, exists := c.Get(responseMetaKey); exists {
		if meta, ok := value.(map[string]interface{}); ok {
			return meta
		}
	}
	return nil
}

func ensureMeta(c *gin.Context) map[string]interface{} {
	if meta := ExtractMeta(c); meta != nil {
		return meta
	}
	meta := map[string]interface{}{}
	if c != nil {
		c.Set(responseMetaKey, meta)
	}
	return meta
}
