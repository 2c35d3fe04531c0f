package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/dormhub/dormhub/internal/auth"
	"github.com/dormhub/dormhub/internal/bill"
	billdomain "github.com/dormhub/dormhub/internal/bill/domain"
	"github.com/dormhub/dormhub/internal/clock"
	"github.com/dormhub/dormhub/internal/config"
	"github.com/dormhub/dormhub/internal/contract"
	contractdomain "github.com/dormhub/dormhub/internal/contract/domain"
	"github.com/dormhub/dormhub/internal/logger"
	"github.com/dormhub/dormhub/internal/metrics"
	"github.com/dormhub/dormhub/internal/migration"
	"github.com/dormhub/dormhub/internal/notification"
	"github.com/dormhub/dormhub/internal/payment"
	paymentdomain "github.com/dormhub/dormhub/internal/payment/domain"
	"github.com/dormhub/dormhub/internal/reading"
	readingdomain "github.com/dormhub/dormhub/internal/reading/domain"
	"github.com/dormhub/dormhub/internal/room"
	roomdomain "github.com/dormhub/dormhub/internal/room/domain"
	"github.com/dormhub/dormhub/internal/scheduler"
	"github.com/dormhub/dormhub/internal/snapshot"
	"github.com/dormhub/dormhub/internal/tariff"
	tariffdomain "github.com/dormhub/dormhub/internal/tariff/domain"
	"github.com/dormhub/dormhub/pkg/db"
	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// RegisterSnowflake provides the process-wide id generator.
func RegisterSnowflake() (*snowflake.Node, error) {
	return snowflake.NewNode(1)
}

var Module = fx.Options(
	config.Module,
	logger.Module,
	clock.Module,
	db.Module,
	migration.Module,
	notification.Module,
	auth.Module,
	metrics.Module,
	fx.Provide(RegisterSnowflake),

	tariff.Module,
	room.Module,
	contract.Module,
	snapshot.Module,
	reading.Module,
	bill.Module,
	payment.Module,
	scheduler.Module,

	fx.Provide(NewEngine),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(log *zap.Logger, httpMetrics *metrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLogger(log))
	r.Use(metrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", httpMetrics.Handler())

	return r
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal("http server", zap.Error(err))
				}
			}()
			log.Info("http server listening", zap.String("addr", srv.Addr))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine      *gin.Engine
	cfg         config.Config
	db          *gorm.DB
	tokens      *auth.TokenManager
	tariffSvc   tariffdomain.Service
	readingSvc  readingdomain.Service
	contractSvc contractdomain.Service
	billSvc     billdomain.Service
	paymentSvc  paymentdomain.Service
	roomRepo    roomdomain.Repository
}

type ServerParams struct {
	fx.In

	Gin         *gin.Engine
	Cfg         config.Config
	DB          *gorm.DB
	Tokens      *auth.TokenManager
	TariffSvc   tariffdomain.Service
	ReadingSvc  readingdomain.Service
	ContractSvc contractdomain.Service
	BillSvc     billdomain.Service
	PaymentSvc  paymentdomain.Service
	RoomRepo    roomdomain.Repository
}

func NewServer(p ServerParams) *Server {
	s := &Server{
		engine:      p.Gin,
		cfg:         p.Cfg,
		db:          p.DB,
		tokens:      p.Tokens,
		tariffSvc:   p.TariffSvc,
		readingSvc:  p.ReadingSvc,
		contractSvc: p.ContractSvc,
		billSvc:     p.BillSvc,
		paymentSvc:  p.PaymentSvc,
		roomRepo:    p.RoomRepo,
	}

	s.registerResidentRoutes()
	s.registerAdminRoutes()
	s.registerPublicRoutes()

	return s
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerResidentRoutes() {
	api := s.engine.Group("/api", s.AuthRequired())

	api.POST("/bill-details", s.SubmitReadings)
	api.GET("/my-bills", s.MyBills)
	api.GET("/my-transactions", s.MyTransactions)
	api.GET("/my-transactions/:id", s.GetTransaction)
	api.POST("/payment-transactions", s.InitiatePayment)
}

func (s *Server) registerAdminRoutes() {
	admin := s.engine.Group("/api/admin", s.AuthRequired(), s.RequireAdmin())

	// -------- Services & tariffs --------
	admin.GET("/services", s.ListUtilityServices)
	admin.POST("/services", s.CreateUtilityService)
	admin.GET("/tariffs", s.ListTariffs)
	admin.POST("/tariffs", s.AddTariff)

	// -------- Meter readings --------
	admin.GET("/bill-details", s.ReadingMatrix)
	admin.GET("/bill-details/:id", s.GetReading)
	admin.PUT("/bill-details/:id", s.UpdateReading)
	admin.DELETE("/bill-details/:id", s.DeleteReading)

	// -------- Monthly bills --------
	admin.POST("/monthly-bills/bulk", s.GenerateBills)
	admin.GET("/monthly-bills", s.ListBills)
	admin.GET("/monthly-bills/:id", s.GetBill)
	admin.PUT("/monthly-bills/:id", s.UpdateBill)
	admin.DELETE("/monthly-bills/:id", s.DeleteBill)
	admin.GET("/monthly-bills/:id/transactions", s.ListBillTransactions)

	// -------- Rooms (read-only) --------
	admin.GET("/rooms", s.ListRooms)
	admin.GET("/rooms/:id", s.GetRoom)

	// -------- Contracts --------
	admin.POST("/contracts", s.CreateContract)
	admin.GET("/contracts", s.ListContracts)
	admin.GET("/contracts/:id", s.GetContract)
	admin.PUT("/contracts/:id", s.UpdateContract)
	admin.DELETE("/contracts/:id", s.DeleteContract)
	admin.POST("/update-contract-status", s.SweepContracts)
}

func (s *Server) registerPublicRoutes() {
	// Signature-checked by the payment service, not by auth middleware.
	s.engine.GET("/api/payment-transactions/callback", s.PaymentCallback)
}
