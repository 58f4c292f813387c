package server

import (
	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
)

func (s *Server) ListAccounts(c *gin.Context) {
	items, err := s.accounts.List(c.Request.Context(), s.db)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	respondData(c, items)
}

func (s *Server) GetAccount(c *gin.Context) {
	id, err := snowflake.ParseString(c.Param("accountID"))
	if err != nil || id == 0 {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	account, err := s.accounts.FindByID(c.Request.Context(), s.db, id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if account == nil {
		AbortWithError(c, ErrNotFound)
		return
	}

	respondData(c, account)
}

func (s *Server) GetDashboardStats(c *gin.Context) {
	stats, err := s.dashboard.Stats(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	respondData(c, stats)
}
