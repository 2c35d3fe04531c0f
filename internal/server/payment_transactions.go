package server

import (
	"net/http"
	"strings"

	paymentdomain "github.com/dormhub/dormhub/internal/payment/domain"
	"github.com/gin-gonic/gin"
)

type initiatePaymentRequest struct {
	BillID        string `json:"bill_id"`
	PaymentMethod string `json:"payment_method"`
	BankCode      string `json:"bank_code,omitempty"`
}

func (s *Server) InitiatePayment(c *gin.Context) {
	act, ok := currentActor(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req initiatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	resp, err := s.paymentSvc.Initiate(c.Request.Context(), act, paymentdomain.InitiateRequest{
		BillID:   strings.TrimSpace(req.BillID),
		Method:   strings.TrimSpace(req.PaymentMethod),
		BankCode: strings.TrimSpace(req.BankCode),
		ClientIP: c.ClientIP(),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": gin.H{
		"transaction_id": resp.TransactionID,
		"payment_url":    resp.PayURL,
		"expires_at":     resp.ExpiresAt,
	}})
}

// PaymentCallback is the gateway's return URL. It is public; the
// payment service authenticates it by signature.
func (s *Server) PaymentCallback(c *gin.Context) {
	params := map[string]string{}
	for key, values := range c.Request.URL.Query() {
		if len(values) > 0 {
			params[key] = values[0]
		}
	}

	result, err := s.paymentSvc.HandleCallback(c.Request.Context(), params)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if result.RedirectURL != "" {
		c.Redirect(http.StatusFound, result.RedirectURL)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": result})
}

func (s *Server) GetTransaction(c *gin.Context) {
	act, ok := currentActor(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	resp, err := s.paymentSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if !act.IsAdmin() && resp.UserID != act.ID.String() {
		AbortWithError(c, ErrForbidden)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) MyTransactions(c *gin.Context) {
	act, ok := currentActor(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	resp, err := s.paymentSvc.MyTransactions(c.Request.Context(), act)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListBillTransactions(c *gin.Context) {
	resp, err := s.paymentSvc.ListByBill(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
