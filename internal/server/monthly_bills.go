package server

import (
	"errors"
	"net/http"
	"strings"

	billdomain "github.com/dormhub/dormhub/internal/bill/domain"
	"github.com/gin-gonic/gin"
)

type generateBillsRequest struct {
	BillMonth string   `json:"bill_month"`
	RoomIDs   []string `json:"room_ids,omitempty"`
}

type updateBillRequest struct {
	Status *string `json:"payment_status,omitempty"`
}

// GenerateBills is partial-success: 201 when any bill was created, 400
// with the per-room errors otherwise.
func (s *Server) GenerateBills(c *gin.Context) {
	var req generateBillsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	resp, err := s.billSvc.Generate(c.Request.Context(), billdomain.GenerateRequest{
		BillMonth: strings.TrimSpace(req.BillMonth),
		RoomIDs:   req.RoomIDs,
	})
	if err != nil {
		if errors.Is(err, billdomain.ErrNoBillsCreated) && resp != nil {
			c.JSON(http.StatusBadRequest, gin.H{"data": resp})
			return
		}
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) ListBills(c *gin.Context) {
	var query struct {
		Month     string `form:"month"`
		RoomID    string `form:"room_id"`
		UserID    string `form:"user_id"`
		Status    string `form:"status"`
		PageToken string `form:"page_token"`
		PageSize  int    `form:"page_size,default=20"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	resp, err := s.billSvc.List(c.Request.Context(), billdomain.ListRequest{
		Month:     strings.TrimSpace(query.Month),
		RoomID:    strings.TrimSpace(query.RoomID),
		UserID:    strings.TrimSpace(query.UserID),
		Status:    strings.TrimSpace(query.Status),
		PageToken: strings.TrimSpace(query.PageToken),
		PageSize:  query.PageSize,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp.Bills, "page_info": resp.PageInfo})
}

func (s *Server) MyBills(c *gin.Context) {
	act, ok := currentActor(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	resp, err := s.billSvc.MyBills(c.Request.Context(), act)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetBill(c *gin.Context) {
	resp, err := s.billSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateBill(c *gin.Context) {
	var req updateBillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	resp, err := s.billSvc.Update(c.Request.Context(), billdomain.UpdateRequest{
		ID:     c.Param("id"),
		Status: req.Status,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteBill(c *gin.Context) {
	if err := s.billSvc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"deleted": true}})
}
