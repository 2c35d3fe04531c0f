package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/dormhub/dormhub/internal/clock"
	contractdomain "github.com/dormhub/dormhub/internal/contract/domain"
	contractrepository "github.com/dormhub/dormhub/internal/contract/repository"
	roomdomain "github.com/dormhub/dormhub/internal/room/domain"
	roomrepository "github.com/dormhub/dormhub/internal/room/repository"
	snapshotdomain "github.com/dormhub/dormhub/internal/snapshot/domain"
	"github.com/dormhub/dormhub/internal/snapshot/repository"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupSnapshotService(t *testing.T, fake *clock.FakeClock) (*Service, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:snapshot_"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&roomdomain.Room{},
		&contractdomain.Contract{},
		&snapshotdomain.RoomStatusHistory{},
		&snapshotdomain.UserRoomHistory{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	svc := &Service{
		db:           db,
		log:          zap.NewNop(),
		genID:        node,
		clock:        fake,
		repo:         repository.Provide(),
		roomRepo:     roomrepository.Provide(),
		contractRepo: contractrepository.Provide(),
	}
	return svc, db
}

func seedOccupiedRoom(t *testing.T, svc *Service, db *gorm.DB, name string, tenants int) *roomdomain.Room {
	t.Helper()

	ctx := context.Background()
	now := svc.clock.Now().UTC()
	room := &roomdomain.Room{
		ID:                  svc.genID.Generate(),
		AreaID:              svc.genID.Generate(),
		Name:                name,
		Capacity:            4,
		Price:               decimal.NewFromInt(1200000),
		Status:              roomdomain.StatusAvailable,
		CurrentPersonNumber: tenants,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	require.NoError(t, svc.roomRepo.Insert(ctx, db, room))

	for i := 0; i < tenants; i++ {
		require.NoError(t, svc.contractRepo.Insert(ctx, db, &contractdomain.Contract{
			ID:           svc.genID.Generate(),
			RoomID:       room.ID,
			UserID:       svc.genID.Generate(),
			ContractType: contractdomain.TypeLongTerm,
			StartDate:    time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
			EndDate:      time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC),
			Status:       contractdomain.StatusActive,
			CreatedAt:    now,
			UpdatedAt:    now,
		}))
	}
	return room
}

func TestCaptureUpsertsInPlace(t *testing.T) {
	fake := clock.NewFakeClock(time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC))
	svc, db := setupSnapshotService(t, fake)
	ctx := context.Background()

	room := seedOccupiedRoom(t, svc, db, "A-101", 2)
	require.NoError(t, svc.Capture(ctx, room.ID, 2026, 3))

	var counts []snapshotdomain.UserRoomHistory
	require.NoError(t, db.Where("room_id = ?", room.ID).Find(&counts).Error)
	require.Len(t, counts, 1)
	assert.Equal(t, 2, counts[0].PersonCount)

	// One tenant leaves; the same month's row is rewritten, not doubled.
	require.NoError(t, db.Exec(
		"UPDATE contracts SET status = 'TERMINATED' WHERE id = (SELECT id FROM contracts WHERE room_id = ? LIMIT 1)",
		room.ID,
	).Error)
	require.NoError(t, svc.Capture(ctx, room.ID, 2026, 3))

	require.NoError(t, db.Where("room_id = ?", room.ID).Find(&counts).Error)
	require.Len(t, counts, 1)
	assert.Equal(t, 1, counts[0].PersonCount)

	var statuses []snapshotdomain.RoomStatusHistory
	require.NoError(t, db.Where("room_id = ?", room.ID).Find(&statuses).Error)
	require.Len(t, statuses, 1)
	assert.Equal(t, roomdomain.StatusAvailable, statuses[0].Status)

	t.Run("unknown room", func(t *testing.T) {
		err := svc.Capture(ctx, svc.genID.Generate(), 2026, 3)
		assert.ErrorIs(t, err, roomdomain.ErrNotFound)
	})
}

func TestCaptureAll(t *testing.T) {
	fake := clock.NewFakeClock(time.Date(2026, 4, 1, 0, 30, 0, 0, time.UTC))
	svc, db := setupSnapshotService(t, fake)
	ctx := context.Background()

	seedOccupiedRoom(t, svc, db, "A-101", 1)
	seedOccupiedRoom(t, svc, db, "A-102", 3)

	require.NoError(t, svc.CaptureAll(ctx, 2026, 3))

	var statuses []snapshotdomain.RoomStatusHistory
	require.NoError(t, db.Where("year = ? AND month = ?", 2026, 3).Find(&statuses).Error)
	assert.Len(t, statuses, 2)

	var counts []snapshotdomain.UserRoomHistory
	require.NoError(t, db.Where("year = ? AND month = ?", 2026, 3).Find(&counts).Error)
	assert.Len(t, counts, 2)
}
