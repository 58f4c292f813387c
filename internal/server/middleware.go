package server

import (
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	accountdomain "github.com/scsaalabs/memberhub/internal/account/domain"
	"go.uber.org/zap"
)

const (
	headerRequestID = "X-Request-ID"
	headerAccountID = "X-Account-ID"

	contextAccountKey = "account"
)

func (s *Server) RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(headerRequestID))
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(headerRequestID, id)
		c.Header(headerRequestID, id)
		c.Next()
	}
}

func (s *Server) RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		s.log.Info("request",
			zap.String("request_id", c.GetString(headerRequestID)),
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)))
	}
}

// IdentityRequired resolves the caller from the X-Account-ID header set by
// the authenticating proxy in front of this service. The header carries a
// snowflake id that must match a registered account.
func (s *Server) IdentityRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader(headerAccountID))
		if raw == "" {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		id, err := snowflake.ParseString(raw)
		if err != nil || id == 0 {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		account, err := s.accounts.FindByID(c.Request.Context(), s.db, id)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		if account == nil {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		c.Set(contextAccountKey, account)
		c.Next()
	}
}

func (s *Server) AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		account := currentAccount(c)
		if account == nil || !account.IsAdmin {
			AbortWithError(c, ErrForbidden)
			return
		}
		c.Next()
	}
}

func currentAccount(c *gin.Context) *accountdomain.Account {
	v, ok := c.Get(contextAccountKey)
	if !ok {
		return nil
	}
	account, ok := v.(*accountdomain.Account)
	if !ok {
		return nil
	}
	return account
}
