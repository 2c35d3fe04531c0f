package server

import (
	"net/http"
	"strings"

	tariffdomain "github.com/dormhub/dormhub/internal/tariff/domain"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type createServiceRequest struct {
	Name      string `json:"name"`
	Unit      string `json:"unit"`
	IsMetered bool   `json:"is_metered"`
}

type addTariffRequest struct {
	ServiceID     string          `json:"service_id"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	EffectiveDate string          `json:"effective_date"`
}

func (s *Server) CreateUtilityService(c *gin.Context) {
	var req createServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	resp, err := s.tariffSvc.CreateService(c.Request.Context(), tariffdomain.CreateServiceRequest{
		Name:      strings.TrimSpace(req.Name),
		Unit:      strings.TrimSpace(req.Unit),
		IsMetered: req.IsMetered,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) ListUtilityServices(c *gin.Context) {
	resp, err := s.tariffSvc.ListServices(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) AddTariff(c *gin.Context) {
	var req addTariffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	resp, err := s.tariffSvc.AddTariff(c.Request.Context(), tariffdomain.AddTariffRequest{
		ServiceID:     strings.TrimSpace(req.ServiceID),
		UnitPrice:     req.UnitPrice,
		EffectiveDate: strings.TrimSpace(req.EffectiveDate),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) ListTariffs(c *gin.Context) {
	serviceID := strings.TrimSpace(c.Query("service_id"))
	if serviceID == "" {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	resp, err := s.tariffSvc.ListTariffs(c.Request.Context(), serviceID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
