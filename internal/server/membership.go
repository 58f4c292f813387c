package server

import (
	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	membershipdomain "github.com/scsaalabs/memberhub/internal/membership/domain"
)

type membershipResponse struct {
	AccountID string                  `json:"account_id"`
	Status    membershipdomain.Status `json:"status"`
	PeriodEnd *string                 `json:"period_end"`
	PaidAt    *string                 `json:"paid_at"`
	Year      int                     `json:"year"`
}

type membershipStatusResponse struct {
	Status    membershipdomain.Status `json:"status"`
	IsCurrent bool                    `json:"is_current"`
}

func toMembershipResponse(m *membershipdomain.Membership) membershipResponse {
	resp := membershipResponse{
		AccountID: m.AccountID.String(),
		Status:    m.Status,
		Year:      m.Year,
	}
	if m.PeriodEnd != nil {
		v := m.PeriodEnd.UTC().Format("2006-01-02T15:04:05Z07:00")
		resp.PeriodEnd = &v
	}
	if m.PaidAt != nil {
		v := m.PaidAt.UTC().Format("2006-01-02T15:04:05Z07:00")
		resp.PaidAt = &v
	}
	return resp
}

func (s *Server) GetOwnMembership(c *gin.Context) {
	account := currentAccount(c)

	m, err := s.memberships.FindByAccountID(c.Request.Context(), s.db, account.ID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if m == nil {
		AbortWithError(c, ErrNotFound)
		return
	}

	respondData(c, toMembershipResponse(m))
}

// GetOwnMembershipStatus reports whether the caller currently has paid
// access. pending_cancellation still counts: the member is paid through the
// period even though renewal is off.
func (s *Server) GetOwnMembershipStatus(c *gin.Context) {
	account := currentAccount(c)

	m, err := s.memberships.FindByAccountID(c.Request.Context(), s.db, account.ID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp := membershipStatusResponse{Status: "none"}
	if m != nil {
		resp.Status = m.Status
		resp.IsCurrent = m.Status == membershipdomain.StatusActive ||
			m.Status == membershipdomain.StatusPendingCancellation
	}

	respondData(c, resp)
}

func (s *Server) GetAccountMembership(c *gin.Context) {
	accountID, err := snowflake.ParseString(c.Param("accountID"))
	if err != nil || accountID == 0 {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	m, err := s.memberships.FindByAccountID(c.Request.Context(), s.db, accountID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if m == nil {
		AbortWithError(c, ErrNotFound)
		return
	}

	respondData(c, toMembershipResponse(m))
}
