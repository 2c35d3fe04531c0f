package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	InsertService(ctx context.Context, db *gorm.DB, svc *UtilityService) error
	FindServiceByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*UtilityService, error)
	ListServices(ctx context.Context, db *gorm.DB) ([]UtilityService, error)

	InsertTariff(ctx context.Context, db *gorm.DB, t *Tariff) error
	FindTariffAsOf(ctx context.Context, db *gorm.DB, serviceID snowflake.ID, asOf time.Time) (*Tariff, error)
	FindTariffByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Tariff, error)
	ListTariffs(ctx context.Context, db *gorm.DB, serviceID snowflake.ID) ([]Tariff, error)
}
