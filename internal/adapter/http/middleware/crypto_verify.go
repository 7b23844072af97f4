package middleware

import (
	"bytes"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/maua/florist-api/internal/logging"
	"github.com/maua/florist-api/internal/security"
)

const (
	SignatureHeader = "X-Pawapay-Signature"
	webhookBodyMax  = 1 << 20 // 1MB
)

type CryptoVerify struct {
	cs security.CryptoService // nil => verification disabled
}

func NewCryptoVerify(cs security.CryptoService) *CryptoVerify {
	if cs == nil {
		logging.New("http").Warn("pawapay webhook signature verification disabled: no webhook secret configured")
	}
	return &CryptoVerify{cs: cs}
}

// CryptoVerify checks the HMAC-SHA256 signature of the raw webhook body and
// restores the body for the next handler.
func (cv *CryptoVerify) CryptoVerify() gin.HandlerFunc {
	return func(c *gin.Context) {
		if cv.cs == nil || c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}

		// --- Read raw body ---
		rawBody, err := io.ReadAll(io.LimitReader(c.Request.Body, webhookBodyMax))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "failed to read request body"})
			return
		}
		_ = c.Request.Body.Close()

		sig := c.GetHeader(SignatureHeader)
		if sig == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing signature"})
			return
		}
		if err := cv.cs.Verify(rawBody, sig); err != nil {
			logging.From(c).Warn("webhook signature rejected", "err", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "signature verification failed"})
			return
		}

		c.Request.Body = io.NopCloser(bytes.NewReader(rawBody))
		c.Request.ContentLength = int64(len(rawBody))
		c.Next()
	}
}
