package middleware

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// WebhookAuth verifies gateway signatures on the SMS inbox webhook.
//
// The gateway signs hex(HMAC-SHA256(secret, timestamp + method + ":" + path +
// body)) into X-Signature and puts the unix-seconds timestamp into
// X-Timestamp. Timestamps outside the tolerance window are rejected with 408
// so the gateway retries with a fresh signature; anything else invalid is a
// plain 401.
func WebhookAuth(secret string, tolerance time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secret == "" {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "webhook secret not configured"})
			return
		}

		signature := c.GetHeader("X-Signature")
		timestamp := c.GetHeader("X-Timestamp")
		if signature == "" || timestamp == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing signature headers"})
			return
		}

		unix, err := strconv.ParseInt(timestamp, 10, 64)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid timestamp"})
			return
		}
		age := time.Since(time.Unix(unix, 0))
		if age > tolerance || age < -tolerance {
			c.AbortWithStatusJSON(http.StatusRequestTimeout, gin.H{"error": "signature timestamp outside tolerance"})
			return
		}

		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "unreadable body"})
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))

		mac := hmac.New(sha256.New, []byte(secret))
		mac.Write([]byte(timestamp))
		mac.Write([]byte(c.Request.Method + ":" + c.Request.URL.Path))
		mac.Write(body)
		expected := hex.EncodeToString(mac.Sum(nil))

		if !hmac.Equal([]byte(expected), []byte(signature)) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid signature"})
			return
		}

		c.Next()
	}
}
