package server

import (
	"net/http"
	"strings"

	contractdomain "github.com/dormhub/dormhub/internal/contract/domain"
	"github.com/gin-gonic/gin"
)

type createContractRequest struct {
	UserID       string `json:"user_id"`
	RoomID       string `json:"room_id"`
	ContractType string `json:"contract_type"`
	StartDate    string `json:"start_date"`
	EndDate      string `json:"end_date"`
}

type updateContractRequest struct {
	UserID       *string `json:"user_id,omitempty"`
	RoomID       *string `json:"room_id,omitempty"`
	ContractType *string `json:"contract_type,omitempty"`
	StartDate    *string `json:"start_date,omitempty"`
	EndDate      *string `json:"end_date,omitempty"`
	Status       *string `json:"status,omitempty"`
}

func (s *Server) CreateContract(c *gin.Context) {
	var req createContractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	resp, err := s.contractSvc.Create(c.Request.Context(), contractdomain.CreateRequest{
		UserID:       strings.TrimSpace(req.UserID),
		RoomID:       strings.TrimSpace(req.RoomID),
		ContractType: strings.TrimSpace(req.ContractType),
		StartDate:    strings.TrimSpace(req.StartDate),
		EndDate:      strings.TrimSpace(req.EndDate),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) ListContracts(c *gin.Context) {
	var query struct {
		RoomID string `form:"room_id"`
		UserID string `form:"user_id"`
		Status string `form:"status"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	resp, err := s.contractSvc.List(c.Request.Context(), contractdomain.ListRequest{
		RoomID: strings.TrimSpace(query.RoomID),
		UserID: strings.TrimSpace(query.UserID),
		Status: strings.TrimSpace(query.Status),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetContract(c *gin.Context) {
	resp, err := s.contractSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateContract(c *gin.Context) {
	var req updateContractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	resp, err := s.contractSvc.Update(c.Request.Context(), contractdomain.UpdateRequest{
		ID:           c.Param("id"),
		UserID:       req.UserID,
		RoomID:       req.RoomID,
		ContractType: req.ContractType,
		StartDate:    req.StartDate,
		EndDate:      req.EndDate,
		ForceStatus:  req.Status,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteContract(c *gin.Context) {
	if err := s.contractSvc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"deleted": true}})
}

// SweepContracts runs the status sweep on demand.
func (s *Server) SweepContracts(c *gin.Context) {
	result, err := s.contractSvc.Sweep(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}
