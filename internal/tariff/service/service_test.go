package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/dormhub/dormhub/internal/clock"
	tariffdomain "github.com/dormhub/dormhub/internal/tariff/domain"
	"github.com/dormhub/dormhub/internal/tariff/repository"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupTariffService(t *testing.T, fake *clock.FakeClock) (*Service, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:tariff_"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&tariffdomain.UtilityService{}, &tariffdomain.Tariff{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	svc := &Service{
		db:    db,
		log:   zap.NewNop(),
		genID: node,
		clock: fake,
		repo:  repository.Provide(),
	}
	return svc, db
}

func TestCreateService(t *testing.T) {
	fake := clock.NewFakeClock(time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC))
	svc, _ := setupTariffService(t, fake)
	ctx := context.Background()

	resp, err := svc.CreateService(ctx, tariffdomain.CreateServiceRequest{
		Name:      "electricity",
		Unit:      "kWh",
		IsMetered: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "electricity", resp.Name)
	assert.True(t, resp.IsMetered)

	t.Run("duplicate name", func(t *testing.T) {
		_, err := svc.CreateService(ctx, tariffdomain.CreateServiceRequest{
			Name: "electricity",
			Unit: "kWh",
		})
		assert.ErrorIs(t, err, tariffdomain.ErrDuplicateService)
	})

	t.Run("blank name", func(t *testing.T) {
		_, err := svc.CreateService(ctx, tariffdomain.CreateServiceRequest{Name: "  ", Unit: "kWh"})
		assert.ErrorIs(t, err, tariffdomain.ErrInvalidServiceName)
	})
}

func TestAddTariffValidation(t *testing.T) {
	fake := clock.NewFakeClock(time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC))
	svc, _ := setupTariffService(t, fake)
	ctx := context.Background()

	created, err := svc.CreateService(ctx, tariffdomain.CreateServiceRequest{
		Name:      "water",
		Unit:      "m3",
		IsMetered: true,
	})
	require.NoError(t, err)

	t.Run("mid-month effective date rejected", func(t *testing.T) {
		_, err := svc.AddTariff(ctx, tariffdomain.AddTariffRequest{
			ServiceID:     created.ID,
			UnitPrice:     decimal.NewFromInt(3500),
			EffectiveDate: "2026-06-15",
		})
		assert.ErrorIs(t, err, tariffdomain.ErrInvalidEffectiveDate)
	})

	t.Run("first of next month rejected", func(t *testing.T) {
		// Today is 2026-03-10, so 2026-04-01 is not strictly after
		// the first of next month.
		_, err := svc.AddTariff(ctx, tariffdomain.AddTariffRequest{
			ServiceID:     created.ID,
			UnitPrice:     decimal.NewFromInt(3500),
			EffectiveDate: "2026-04-01",
		})
		assert.ErrorIs(t, err, tariffdomain.ErrInvalidEffectiveDate)
	})

	t.Run("zero price rejected", func(t *testing.T) {
		_, err := svc.AddTariff(ctx, tariffdomain.AddTariffRequest{
			ServiceID:     created.ID,
			UnitPrice:     decimal.Zero,
			EffectiveDate: "2026-05-01",
		})
		assert.ErrorIs(t, err, tariffdomain.ErrInvalidUnitPrice)
	})

	t.Run("unknown service", func(t *testing.T) {
		_, err := svc.AddTariff(ctx, tariffdomain.AddTariffRequest{
			ServiceID:     "123456789",
			UnitPrice:     decimal.NewFromInt(3500),
			EffectiveDate: "2026-05-01",
		})
		assert.ErrorIs(t, err, tariffdomain.ErrUnknownService)
	})

	t.Run("accepted and duplicate rejected", func(t *testing.T) {
		resp, err := svc.AddTariff(ctx, tariffdomain.AddTariffRequest{
			ServiceID:     created.ID,
			UnitPrice:     decimal.NewFromInt(3500),
			EffectiveDate: "2026-05-01",
		})
		require.NoError(t, err)
		assert.Equal(t, "2026-05-01", resp.EffectiveDate)

		_, err = svc.AddTariff(ctx, tariffdomain.AddTariffRequest{
			ServiceID:     created.ID,
			UnitPrice:     decimal.NewFromInt(4000),
			EffectiveDate: "2026-05-01",
		})
		assert.ErrorIs(t, err, tariffdomain.ErrDuplicateTariff)
	})
}

func TestLookupTariffAsOf(t *testing.T) {
	fake := clock.NewFakeClock(time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC))
	svc, db := setupTariffService(t, fake)
	ctx := context.Background()

	created, err := svc.CreateService(ctx, tariffdomain.CreateServiceRequest{
		Name:      "electricity",
		Unit:      "kWh",
		IsMetered: true,
	})
	require.NoError(t, err)
	serviceID, err := tariffdomain.ParseID(created.ID)
	require.NoError(t, err)

	// Seed a tariff history directly; AddTariff forbids past dates.
	repo := repository.Provide()
	jan := &tariffdomain.Tariff{
		ID:            svc.genID.Generate(),
		ServiceID:     serviceID,
		UnitPrice:     decimal.NewFromInt(3000),
		EffectiveDate: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		CreatedAt:     fake.Now(),
	}
	mar := &tariffdomain.Tariff{
		ID:            svc.genID.Generate(),
		ServiceID:     serviceID,
		UnitPrice:     decimal.NewFromInt(3500),
		EffectiveDate: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		CreatedAt:     fake.Now(),
	}
	require.NoError(t, repo.InsertTariff(ctx, db, jan))
	require.NoError(t, repo.InsertTariff(ctx, db, mar))

	t.Run("between effective dates picks earlier", func(t *testing.T) {
		tariff, err := svc.LookupTariff(ctx, serviceID, time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC))
		require.NoError(t, err)
		assert.Equal(t, jan.ID, tariff.ID)
		assert.True(t, tariff.UnitPrice.Equal(decimal.NewFromInt(3000)))
	})

	t.Run("on effective date picks it", func(t *testing.T) {
		tariff, err := svc.LookupTariff(ctx, serviceID, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
		require.NoError(t, err)
		assert.Equal(t, mar.ID, tariff.ID)
	})

	t.Run("before any tariff fails", func(t *testing.T) {
		_, err := svc.LookupTariff(ctx, serviceID, time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC))
		assert.ErrorIs(t, err, tariffdomain.ErrNoTariff)
	})

	t.Run("current tariff uses today", func(t *testing.T) {
		tariff, err := svc.CurrentTariff(ctx, serviceID)
		require.NoError(t, err)
		assert.Equal(t, mar.ID, tariff.ID)
	})
}
