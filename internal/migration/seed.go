package migration

import (
	"time"

	"github.com/bwmarrin/snowflake"
	tariffdomain "github.com/dormhub/dormhub/internal/tariff/domain"
	"gorm.io/gorm"
)

type seedService struct {
	name      string
	unit      string
	isMetered bool
}

var defaultServices = []seedService{
	{name: "electricity", unit: "kWh", isMetered: true},
	{name: "water", unit: "m3", isMetered: true},
	{name: "monthly fee", unit: "month", isMetered: false},
}

// EnsureDefaultServices inserts the built-in utility services when they
// are missing. Tariffs stay empty; pricing is an admin decision.
func EnsureDefaultServices(conn *gorm.DB, genID *snowflake.Node) error {
	for _, s := range defaultServices {
		var existing tariffdomain.UtilityService
		err := conn.Raw(`SELECT id, name FROM services WHERE name = ?`, s.name).Scan(&existing).Error
		if err != nil {
			return err
		}
		if existing.ID != 0 {
			continue
		}

		now := time.Now().UTC()
		err = conn.Exec(
			`INSERT INTO services (id, name, unit, is_metered, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
			genID.Generate(),
			s.name,
			s.unit,
			s.isMetered,
			now,
			now,
		).Error
		if err != nil {
			return err
		}
	}
	return nil
}
