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
	snapshotrepository "github.com/dormhub/dormhub/internal/snapshot/repository"
	snapshotservice "github.com/dormhub/dormhub/internal/snapshot/service"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupContractService(t *testing.T, fake *clock.FakeClock) (*Service, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:contract_"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{
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

	contractRepo := contractrepository.Provide()
	roomRepo := roomrepository.Provide()
	snapshotSvc := snapshotservice.New(snapshotservice.Params{
		DB:           db,
		Log:          zap.NewNop(),
		GenID:        node,
		Clock:        fake,
		Repo:         snapshotrepository.Provide(),
		RoomRepo:     roomRepo,
		ContractRepo: contractRepo,
	})

	svc := &Service{
		db:          db,
		log:         zap.NewNop(),
		genID:       node,
		clock:       fake,
		repo:        contractRepo,
		roomRepo:    roomRepo,
		snapshotSvc: snapshotSvc,
	}
	return svc, db
}

func seedRoom(t *testing.T, svc *Service, db *gorm.DB, name string, capacity int) *roomdomain.Room {
	t.Helper()

	now := svc.clock.Now().UTC()
	room := &roomdomain.Room{
		ID:        svc.genID.Generate(),
		AreaID:    svc.genID.Generate(),
		Name:      name,
		Capacity:  capacity,
		Price:     decimal.NewFromInt(1200000),
		Status:    roomdomain.StatusAvailable,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, svc.roomRepo.Insert(context.Background(), db, room))
	return room
}

func TestCreateContract(t *testing.T) {
	fake := clock.NewFakeClock(time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC))
	svc, db := setupContractService(t, fake)
	ctx := context.Background()

	room := seedRoom(t, svc, db, "A-101", 1)
	userA := svc.genID.Generate()

	resp, err := svc.Create(ctx, contractdomain.CreateRequest{
		UserID:       userA.String(),
		RoomID:       room.ID.String(),
		ContractType: "LONG_TERM",
		StartDate:    "2026-03-10",
		EndDate:      "2026-12-31",
	})
	require.NoError(t, err)
	assert.Equal(t, contractdomain.StatusActive, resp.Status)

	// The active contract consumes the only slot and flips the room.
	got, err := svc.roomRepo.FindByID(ctx, db, room.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.CurrentPersonNumber)
	assert.Equal(t, roomdomain.StatusOccupied, got.Status)
	// The occupancy write is stamped from the service clock.
	assert.True(t, got.UpdatedAt.Equal(fake.Now().UTC()))

	var history snapshotdomain.UserRoomHistory
	require.NoError(t, db.Where("room_id = ?", room.ID).First(&history).Error)
	assert.Equal(t, 2026, history.Year)
	assert.Equal(t, 3, history.Month)
	assert.Equal(t, 1, history.PersonCount)

	t.Run("user already bound", func(t *testing.T) {
		other := seedRoom(t, svc, db, "A-102", 2)
		_, err := svc.Create(ctx, contractdomain.CreateRequest{
			UserID:       userA.String(),
			RoomID:       other.ID.String(),
			ContractType: "LONG_TERM",
			StartDate:    "2026-03-10",
			EndDate:      "2026-12-31",
		})
		assert.ErrorIs(t, err, contractdomain.ErrUserHasContract)
	})

	t.Run("room full", func(t *testing.T) {
		_, err := svc.Create(ctx, contractdomain.CreateRequest{
			UserID:       svc.genID.Generate().String(),
			RoomID:       room.ID.String(),
			ContractType: "SHORT_TERM",
			StartDate:    "2026-03-10",
			EndDate:      "2026-06-30",
		})
		assert.ErrorIs(t, err, roomdomain.ErrRoomFull)
	})

	t.Run("start in past", func(t *testing.T) {
		_, err := svc.Create(ctx, contractdomain.CreateRequest{
			UserID:       svc.genID.Generate().String(),
			RoomID:       room.ID.String(),
			ContractType: "LONG_TERM",
			StartDate:    "2026-03-09",
			EndDate:      "2026-12-31",
		})
		assert.ErrorIs(t, err, contractdomain.ErrStartInPast)
	})

	t.Run("start not before end", func(t *testing.T) {
		_, err := svc.Create(ctx, contractdomain.CreateRequest{
			UserID:       svc.genID.Generate().String(),
			RoomID:       room.ID.String(),
			ContractType: "LONG_TERM",
			StartDate:    "2026-06-30",
			EndDate:      "2026-06-30",
		})
		assert.ErrorIs(t, err, contractdomain.ErrInvalidPeriod)
	})

	t.Run("unknown contract type", func(t *testing.T) {
		_, err := svc.Create(ctx, contractdomain.CreateRequest{
			UserID:       svc.genID.Generate().String(),
			RoomID:       room.ID.String(),
			ContractType: "WEEKEND",
			StartDate:    "2026-04-01",
			EndDate:      "2026-06-30",
		})
		assert.ErrorIs(t, err, contractdomain.ErrInvalidType)
	})
}

func TestCreatePendingContract(t *testing.T) {
	fake := clock.NewFakeClock(time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC))
	svc, db := setupContractService(t, fake)
	ctx := context.Background()

	room := seedRoom(t, svc, db, "B-201", 2)

	resp, err := svc.Create(ctx, contractdomain.CreateRequest{
		UserID:       svc.genID.Generate().String(),
		RoomID:       room.ID.String(),
		ContractType: "LONG_TERM",
		StartDate:    "2026-04-01",
		EndDate:      "2026-12-31",
	})
	require.NoError(t, err)
	assert.Equal(t, contractdomain.StatusPending, resp.Status)

	// A future start reserves nothing yet.
	got, err := svc.roomRepo.FindByID(ctx, db, room.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.CurrentPersonNumber)
}

func TestSweepActivatesAndExpires(t *testing.T) {
	fake := clock.NewFakeClock(time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC))
	svc, db := setupContractService(t, fake)
	ctx := context.Background()

	room := seedRoom(t, svc, db, "C-301", 2)
	user := svc.genID.Generate()

	resp, err := svc.Create(ctx, contractdomain.CreateRequest{
		UserID:       user.String(),
		RoomID:       room.ID.String(),
		ContractType: "SHORT_TERM",
		StartDate:    "2026-03-11",
		EndDate:      "2026-03-15",
	})
	require.NoError(t, err)
	assert.Equal(t, contractdomain.StatusPending, resp.Status)

	fake.Set(time.Date(2026, 3, 11, 8, 0, 0, 0, time.UTC))
	result, err := svc.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Activated)
	assert.Equal(t, 0, result.Expired)

	got, err := svc.Get(ctx, resp.ID)
	require.NoError(t, err)
	assert.Equal(t, contractdomain.StatusActive, got.Status)

	occupied, err := svc.roomRepo.FindByID(ctx, db, room.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, occupied.CurrentPersonNumber)

	// A second run with no time passed changes nothing.
	result, err = svc.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Activated)
	assert.Equal(t, 0, result.Expired)
	assert.Equal(t, 0, result.Skipped)

	fake.Set(time.Date(2026, 3, 16, 8, 0, 0, 0, time.UTC))
	result, err = svc.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Expired)

	released, err := svc.roomRepo.FindByID(ctx, db, room.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, released.CurrentPersonNumber)
	assert.Equal(t, roomdomain.StatusAvailable, released.Status)
}

func TestSweepFullRoomBlocksActivation(t *testing.T) {
	fake := clock.NewFakeClock(time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC))
	svc, db := setupContractService(t, fake)
	ctx := context.Background()

	room := seedRoom(t, svc, db, "D-401", 1)

	_, err := svc.Create(ctx, contractdomain.CreateRequest{
		UserID:       svc.genID.Generate().String(),
		RoomID:       room.ID.String(),
		ContractType: "LONG_TERM",
		StartDate:    "2026-03-10",
		EndDate:      "2026-12-31",
	})
	require.NoError(t, err)

	// The second contract was created while the room still had the
	// slot; it stays PENDING because activation would exceed capacity.
	pending := &contractdomain.Contract{
		ID:           svc.genID.Generate(),
		RoomID:       room.ID,
		UserID:       svc.genID.Generate(),
		ContractType: contractdomain.TypeShortTerm,
		StartDate:    time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC),
		EndDate:      time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC),
		Status:       contractdomain.StatusPending,
		CreatedAt:    fake.Now(),
		UpdatedAt:    fake.Now(),
	}
	require.NoError(t, svc.repo.Insert(ctx, db, pending))

	fake.Set(time.Date(2026, 3, 11, 8, 0, 0, 0, time.UTC))
	result, err := svc.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Activated)
	assert.Equal(t, 1, result.Skipped)

	stuck, err := svc.repo.FindByID(ctx, db, pending.ID)
	require.NoError(t, err)
	assert.Equal(t, contractdomain.StatusPending, stuck.Status)
}

func TestUpdateForceTerminate(t *testing.T) {
	fake := clock.NewFakeClock(time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC))
	svc, db := setupContractService(t, fake)
	ctx := context.Background()

	room := seedRoom(t, svc, db, "E-501", 1)
	resp, err := svc.Create(ctx, contractdomain.CreateRequest{
		UserID:       svc.genID.Generate().String(),
		RoomID:       room.ID.String(),
		ContractType: "LONG_TERM",
		StartDate:    "2026-03-10",
		EndDate:      "2026-12-31",
	})
	require.NoError(t, err)

	terminated := "TERMINATED"
	updated, err := svc.Update(ctx, contractdomain.UpdateRequest{
		ID:          resp.ID,
		ForceStatus: &terminated,
	})
	require.NoError(t, err)
	assert.Equal(t, contractdomain.StatusTerminated, updated.Status)

	// Termination releases the slot immediately.
	got, err := svc.roomRepo.FindByID(ctx, db, room.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.CurrentPersonNumber)
	assert.Equal(t, roomdomain.StatusAvailable, got.Status)

	t.Run("terminated is sticky", func(t *testing.T) {
		active := "ACTIVE"
		_, err := svc.Update(ctx, contractdomain.UpdateRequest{
			ID:          resp.ID,
			ForceStatus: &active,
		})
		assert.ErrorIs(t, err, contractdomain.ErrStatusTransition)
	})
}

func TestDeleteContract(t *testing.T) {
	fake := clock.NewFakeClock(time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC))
	svc, db := setupContractService(t, fake)
	ctx := context.Background()

	room := seedRoom(t, svc, db, "F-601", 2)

	active, err := svc.Create(ctx, contractdomain.CreateRequest{
		UserID:       svc.genID.Generate().String(),
		RoomID:       room.ID.String(),
		ContractType: "LONG_TERM",
		StartDate:    "2026-03-10",
		EndDate:      "2026-12-31",
	})
	require.NoError(t, err)
	assert.ErrorIs(t, svc.Delete(ctx, active.ID), contractdomain.ErrDeleteActive)

	pending, err := svc.Create(ctx, contractdomain.CreateRequest{
		UserID:       svc.genID.Generate().String(),
		RoomID:       room.ID.String(),
		ContractType: "SHORT_TERM",
		StartDate:    "2026-05-01",
		EndDate:      "2026-06-30",
	})
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, pending.ID))

	_, err = svc.Get(ctx, pending.ID)
	assert.ErrorIs(t, err, contractdomain.ErrNotFound)
}

func TestStatusAt(t *testing.T) {
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		name       string
		today      time.Time
		terminated bool
		want       contractdomain.Status
	}{
		{"before start", time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC), false, contractdomain.StatusPending},
		{"on start", start, false, contractdomain.StatusActive},
		{"mid period", time.Date(2026, 5, 15, 0, 0, 0, 0, time.UTC), false, contractdomain.StatusActive},
		{"on end", end, false, contractdomain.StatusActive},
		{"after end", time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC), false, contractdomain.StatusExpired},
		{"terminated wins", time.Date(2026, 5, 15, 0, 0, 0, 0, time.UTC), true, contractdomain.StatusTerminated},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, contractdomain.StatusAt(start, end, tc.today, tc.terminated))
		})
	}
}
