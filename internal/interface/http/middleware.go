package http

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yanqian/meeting-summarizer/internal/ratelimit"
)

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestID := uuid.NewString()
		c.Set("request_id", requestID)
		c.Writer.Header().Set("X-Request-ID", requestID)
		c.Next()
		latency := time.Since(start)
		logger.Info("http request",
			"request_id", requestID,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency_ms", latency.Milliseconds(),
		)
	}
}

func errorHandlingMiddleware(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		httpErr := asHTTPError(c.Errors.Last().Err)
		message := httpErr.Message
		if message == "" {
			message = httpErr.Error()
		}

		if httpErr.Status >= http.StatusInternalServerError {
			logger.Error("request failed", "code", httpErr.Code, "status", httpErr.Status, "path", c.Request.URL.Path, "error", httpErr.Err)
		} else {
			logger.Warn("request failed", "code", httpErr.Code, "status", httpErr.Status, "path", c.Request.URL.Path, "error", httpErr.Err)
		}

		c.JSON(httpErr.Status, gin.H{
			"error": gin.H{
				"code":    httpErr.Code,
				"message": message,
			},
		})
	}
}

// generalRateLimit enforces the blanket per-client policy in front of every
// /api route. The pipeline-specific policies are consumed inside the
// pipelines themselves.
func generalRateLimit(limiter *ratelimit.Limiter, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := clientKey(c)
		res := limiter.Consume(key)
		if res.Allowed {
			c.Next()
			return
		}
		logger.Warn("general rate limit exceeded", "client", key, "path", c.Request.URL.Path)
		writeRateLimitHeaders(c, limiter.Policy().Budget, res.Remaining, res.RetryAfter)
		abortWithError(c, NewHTTPError(http.StatusTooManyRequests, "rate_limited", "too many requests", nil))
	}
}

// clientKey resolves the rate limit bucket for a request. Address-less
// callers share the "unknown" bucket.
func clientKey(c *gin.Context) string {
	if ip := c.ClientIP(); ip != "" {
		return ip
	}
	return ratelimit.UnknownClientKey
}

func writeRateLimitHeaders(c *gin.Context, budget, remaining int, retryAfter time.Duration) {
	headers := c.Writer.Header()
	retrySeconds := int64((retryAfter + time.Second - 1) / time.Second)
	headers.Set("Retry-After", strconv.FormatInt(retrySeconds, 10))
	headers.Set("X-RateLimit-Limit", strconv.Itoa(budget))
	headers.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
	headers.Set("X-RateLimit-Reset", strconv.FormatInt(retrySeconds, 10))
}
