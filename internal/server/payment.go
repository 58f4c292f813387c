package server

import (
	"net/http"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	paymentdomain "github.com/scsaalabs/memberhub/internal/payment/domain"
)

type paymentResponse struct {
	ID                string `json:"id"`
	AmountCents       int64  `json:"amount_cents"`
	Amount            string `json:"amount"`
	ProviderPaymentID string `json:"provider_payment_id"`
	Status            string `json:"status"`
	RecordedAt        string `json:"recorded_at"`
}

func toPaymentResponses(items []paymentdomain.Payment) []paymentResponse {
	resp := make([]paymentResponse, 0, len(items))
	for _, p := range items {
		resp = append(resp, paymentResponse{
			ID:                p.ID.String(),
			AmountCents:       p.AmountCents,
			Amount:            p.AmountDollars(),
			ProviderPaymentID: p.ProviderPaymentID,
			Status:            p.Status,
			RecordedAt:        p.RecordedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
		})
	}
	return resp
}

func (s *Server) ListOwnPayments(c *gin.Context) {
	account := currentAccount(c)

	items, err := s.payments.ListByAccountID(c.Request.Context(), s.db, account.ID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respondData(c, toPaymentResponses(items))
}

func (s *Server) ListAccountPayments(c *gin.Context) {
	accountID, err := snowflake.ParseString(c.Param("accountID"))
	if err != nil || accountID == 0 {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	items, err := s.payments.ListByAccountID(c.Request.Context(), s.db, accountID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respondData(c, toPaymentResponses(items))
}

// GetPaymentReceipt renders a PDF receipt. Members can only fetch receipts
// for their own payments.
func (s *Server) GetPaymentReceipt(c *gin.Context) {
	account := currentAccount(c)

	paymentID, err := snowflake.ParseString(c.Param("id"))
	if err != nil || paymentID == 0 {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	payment, err := s.payments.FindByID(c.Request.Context(), s.db, paymentID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if payment == nil || (payment.AccountID != account.ID && !account.IsAdmin) {
		AbortWithError(c, ErrNotFound)
		return
	}

	pdf, err := s.receipts.Render(c.Request.Context(), paymentID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="receipt-`+paymentID.String()+`.pdf"`)
	c.Data(http.StatusOK, "application/pdf", pdf)
}
