package server

import (
	"net/http"
	"strings"

	readingdomain "github.com/dormhub/dormhub/internal/reading/domain"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type submitReadingsRequest struct {
	BillMonth string                        `json:"bill_month"`
	Readings  map[string]submitReadingEntry `json:"readings"`
}

type submitReadingEntry struct {
	Current decimal.Decimal `json:"current"`
}

type updateReadingRequest struct {
	Current  *decimal.Decimal `json:"current_reading,omitempty"`
	Previous *decimal.Decimal `json:"previous_reading,omitempty"`
}

func (s *Server) SubmitReadings(c *gin.Context) {
	act, ok := currentActor(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req submitReadingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	readings := make(map[string]readingdomain.ReadingInput, len(req.Readings))
	for id, entry := range req.Readings {
		readings[id] = readingdomain.ReadingInput{Current: entry.Current}
	}

	resp, err := s.readingSvc.Submit(c.Request.Context(), act, readingdomain.SubmitRequest{
		BillMonth: strings.TrimSpace(req.BillMonth),
		Readings:  readings,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) ReadingMatrix(c *gin.Context) {
	month := strings.TrimSpace(c.Query("month"))
	if month == "" {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	resp, err := s.readingSvc.Matrix(c.Request.Context(), month)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetReading(c *gin.Context) {
	resp, err := s.readingSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateReading(c *gin.Context) {
	var req updateReadingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	resp, err := s.readingSvc.Update(c.Request.Context(), readingdomain.UpdateRequest{
		ID:       c.Param("id"),
		Current:  req.Current,
		Previous: req.Previous,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteReading(c *gin.Context) {
	if err := s.readingSvc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"deleted": true}})
}
