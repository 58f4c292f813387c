package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	billingdomain "github.com/scsaalabs/memberhub/internal/billing/domain"
	"go.uber.org/zap"
)

// HandleStripeWebhook ingests a provider delivery. The raw body is read
// before anything touches it: signature verification covers the exact bytes
// Stripe sent, not a re-serialization.
func (s *Server) HandleStripeWebhook(c *gin.Context) {
	payload, err := c.GetRawData()
	if err != nil {
		s.log.Warn("failed to read webhook body", zap.Error(err))
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	if err := s.processor.Ingest(c.Request.Context(), payload, c.Request.Header); err != nil {
		if errors.Is(err, billingdomain.ErrInvalidSignature) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"error": gin.H{"code": "invalid_signature", "message": "webhook signature verification failed"},
			})
			return
		}
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}
