package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/dormhub/dormhub/internal/clock"
	tariffdomain "github.com/dormhub/dormhub/internal/tariff/domain"
	"github.com/dormhub/dormhub/pkg/billmonth"
	"github.com/dormhub/dormhub/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const effectiveDateLayout = "2006-01-02"

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  tariffdomain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  tariffdomain.Repository
}

func New(p Params) tariffdomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("tariff.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) CreateService(ctx context.Context, req tariffdomain.CreateServiceRequest) (*tariffdomain.ServiceResponse, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, tariffdomain.ErrInvalidServiceName
	}
	unit := strings.TrimSpace(req.Unit)
	if unit == "" {
		return nil, tariffdomain.ErrInvalidUnit
	}

	now := s.clock.Now().UTC()
	svc := &tariffdomain.UtilityService{
		ID:        s.genID.Generate(),
		Name:      name,
		Unit:      unit,
		IsMetered: req.IsMetered,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.InsertService(ctx, s.db, svc); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, tariffdomain.ErrDuplicateService
		}
		return nil, err
	}

	return serviceResponse(svc), nil
}

func (s *Service) ListServices(ctx context.Context) ([]tariffdomain.ServiceResponse, error) {
	items, err := s.repo.ListServices(ctx, s.db)
	if err != nil {
		return nil, err
	}
	resp := make([]tariffdomain.ServiceResponse, 0, len(items))
	for i := range items {
		resp = append(resp, *serviceResponse(&items[i]))
	}
	return resp, nil
}

func (s *Service) GetService(ctx context.Context, id snowflake.ID) (*tariffdomain.UtilityService, error) {
	svc, err := s.repo.FindServiceByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if svc == nil {
		return nil, tariffdomain.ErrUnknownService
	}
	return svc, nil
}

// AddTariff appends a tariff row. The effective date must be the first of
// a month and lie strictly after the first of next month, so prices in
// the current billing window can never change under an open month.
func (s *Service) AddTariff(ctx context.Context, req tariffdomain.AddTariffRequest) (*tariffdomain.TariffResponse, error) {
	serviceID, err := tariffdomain.ParseID(strings.TrimSpace(req.ServiceID))
	if err != nil {
		return nil, tariffdomain.ErrInvalidID
	}

	if req.UnitPrice.IsNegative() || req.UnitPrice.IsZero() {
		return nil, tariffdomain.ErrInvalidUnitPrice
	}

	effective, err := time.Parse(effectiveDateLayout, strings.TrimSpace(req.EffectiveDate))
	if err != nil {
		return nil, tariffdomain.ErrInvalidEffectiveDate
	}
	if !billmonth.IsFirstOfMonth(effective) {
		return nil, tariffdomain.ErrInvalidEffectiveDate
	}
	nextMonth := billmonth.Next(clock.Today(s.clock))
	if !effective.After(nextMonth) {
		return nil, tariffdomain.ErrInvalidEffectiveDate
	}

	svc, err := s.repo.FindServiceByID(ctx, s.db, serviceID)
	if err != nil {
		return nil, err
	}
	if svc == nil {
		return nil, tariffdomain.ErrUnknownService
	}

	tariff := &tariffdomain.Tariff{
		ID:            s.genID.Generate(),
		ServiceID:     serviceID,
		UnitPrice:     req.UnitPrice,
		EffectiveDate: effective,
		CreatedAt:     s.clock.Now().UTC(),
	}

	if err := s.repo.InsertTariff(ctx, s.db, tariff); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, tariffdomain.ErrDuplicateTariff
		}
		return nil, err
	}

	s.log.Info("tariff added",
		zap.String("service_id", serviceID.String()),
		zap.String("effective_date", effective.Format(effectiveDateLayout)),
	)

	return tariffResponse(tariff), nil
}

func (s *Service) ListTariffs(ctx context.Context, serviceID string) ([]tariffdomain.TariffResponse, error) {
	var id snowflake.ID
	if trimmed := strings.TrimSpace(serviceID); trimmed != "" {
		parsed, err := tariffdomain.ParseID(trimmed)
		if err != nil {
			return nil, tariffdomain.ErrInvalidID
		}
		id = parsed
	}

	items, err := s.repo.ListTariffs(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	resp := make([]tariffdomain.TariffResponse, 0, len(items))
	for i := range items {
		resp = append(resp, *tariffResponse(&items[i]))
	}
	return resp, nil
}

func (s *Service) LookupTariff(ctx context.Context, serviceID snowflake.ID, asOf time.Time) (*tariffdomain.Tariff, error) {
	tariff, err := s.repo.FindTariffAsOf(ctx, s.db, serviceID, asOf)
	if err != nil {
		return nil, err
	}
	if tariff == nil {
		return nil, tariffdomain.ErrNoTariff
	}
	return tariff, nil
}

func (s *Service) CurrentTariff(ctx context.Context, serviceID snowflake.ID) (*tariffdomain.Tariff, error) {
	return s.LookupTariff(ctx, serviceID, clock.Today(s.clock))
}

func (s *Service) GetTariff(ctx context.Context, id snowflake.ID) (*tariffdomain.Tariff, error) {
	tariff, err := s.repo.FindTariffByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if tariff == nil {
		return nil, tariffdomain.ErrNoTariff
	}
	return tariff, nil
}

func serviceResponse(svc *tariffdomain.UtilityService) *tariffdomain.ServiceResponse {
	return &tariffdomain.ServiceResponse{
		ID:        svc.ID.String(),
		Name:      svc.Name,
		Unit:      svc.Unit,
		IsMetered: svc.IsMetered,
		CreatedAt: svc.CreatedAt,
	}
}

func tariffResponse(t *tariffdomain.Tariff) *tariffdomain.TariffResponse {
	return &tariffdomain.TariffResponse{
		ID:            t.ID.String(),
		ServiceID:     t.ServiceID.String(),
		UnitPrice:     t.UnitPrice,
		EffectiveDate: t.EffectiveDate.Format(effectiveDateLayout),
		CreatedAt:     t.CreatedAt,
	}
}
