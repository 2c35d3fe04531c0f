package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	tariffdomain "github.com/dormhub/dormhub/internal/tariff/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() tariffdomain.Repository {
	return &repo{}
}

func (r *repo) InsertService(ctx context.Context, db *gorm.DB, svc *tariffdomain.UtilityService) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO services (id, name, unit, is_metered, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		svc.ID,
		svc.Name,
		svc.Unit,
		svc.IsMetered,
		svc.CreatedAt,
		svc.UpdatedAt,
	).Error
}

func (r *repo) FindServiceByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*tariffdomain.UtilityService, error) {
	var svc tariffdomain.UtilityService
	err := db.WithContext(ctx).Raw(
		`SELECT id, name, unit, is_metered, created_at, updated_at
		 FROM services WHERE id = ?`,
		id,
	).Scan(&svc).Error
	if err != nil {
		return nil, err
	}
	if svc.ID == 0 {
		return nil, nil
	}
	return &svc, nil
}

func (r *repo) ListServices(ctx context.Context, db *gorm.DB) ([]tariffdomain.UtilityService, error) {
	var services []tariffdomain.UtilityService
	err := db.WithContext(ctx).Raw(
		`SELECT id, name, unit, is_metered, created_at, updated_at
		 FROM services ORDER BY created_at ASC`,
	).Scan(&services).Error
	if err != nil {
		return nil, err
	}
	return services, nil
}

func (r *repo) InsertTariff(ctx context.Context, db *gorm.DB, t *tariffdomain.Tariff) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO tariffs (id, service_id, unit_price, effective_date, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		t.ID,
		t.ServiceID,
		t.UnitPrice,
		t.EffectiveDate,
		t.CreatedAt,
	).Error
}

func (r *repo) FindTariffAsOf(ctx context.Context, db *gorm.DB, serviceID snowflake.ID, asOf time.Time) (*tariffdomain.Tariff, error) {
	var tariff tariffdomain.Tariff
	err := db.WithContext(ctx).Raw(
		`SELECT id, service_id, unit_price, effective_date, created_at
		 FROM tariffs
		 WHERE service_id = ? AND effective_date <= ?
		 ORDER BY effective_date DESC
		 LIMIT 1`,
		serviceID,
		asOf,
	).Scan(&tariff).Error
	if err != nil {
		return nil, err
	}
	if tariff.ID == 0 {
		return nil, nil
	}
	return &tariff, nil
}

func (r *repo) FindTariffByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*tariffdomain.Tariff, error) {
	var tariff tariffdomain.Tariff
	err := db.WithContext(ctx).Raw(
		`SELECT id, service_id, unit_price, effective_date, created_at
		 FROM tariffs WHERE id = ?`,
		id,
	).Scan(&tariff).Error
	if err != nil {
		return nil, err
	}
	if tariff.ID == 0 {
		return nil, nil
	}
	return &tariff, nil
}

func (r *repo) ListTariffs(ctx context.Context, db *gorm.DB, serviceID snowflake.ID) ([]tariffdomain.Tariff, error) {
	query := `SELECT id, service_id, unit_price, effective_date, created_at FROM tariffs`
	args := []any{}
	if serviceID != 0 {
		query += ` WHERE service_id = ?`
		args = append(args, serviceID)
	}
	query += ` ORDER BY effective_date DESC`

	var tariffs []tariffdomain.Tariff
	err := db.WithContext(ctx).Raw(query, args...).Scan(&tariffs).Error
	if err != nil {
		return nil, err
	}
	return tariffs, nil
}
