package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/dormhub/dormhub/internal/clock"
	contractdomain "github.com/dormhub/dormhub/internal/contract/domain"
	roomdomain "github.com/dormhub/dormhub/internal/room/domain"
	snapshotdomain "github.com/dormhub/dormhub/internal/snapshot/domain"
	"github.com/dormhub/dormhub/internal/uow"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB           *gorm.DB
	Log          *zap.Logger
	GenID        *snowflake.Node
	Clock        clock.Clock
	Repo         snapshotdomain.Repository
	RoomRepo     roomdomain.Repository
	ContractRepo contractdomain.Repository
}

type Service struct {
	db           *gorm.DB
	log          *zap.Logger
	genID        *snowflake.Node
	clock        clock.Clock
	repo         snapshotdomain.Repository
	roomRepo     roomdomain.Repository
	contractRepo contractdomain.Repository
}

func New(p Params) snapshotdomain.Service {
	return &Service{
		db:           p.DB,
		log:          p.Log.Named("snapshot.service"),
		genID:        p.GenID,
		clock:        p.Clock,
		repo:         p.Repo,
		roomRepo:     p.RoomRepo,
		contractRepo: p.ContractRepo,
	}
}

func (s *Service) Capture(ctx context.Context, roomID snowflake.ID, year, month int) error {
	return uow.Run(ctx, s.db, func(ctx context.Context, u *uow.UnitOfWork) error {
		room, err := s.roomRepo.FindByID(ctx, u.Tx(), roomID)
		if err != nil {
			return err
		}
		if room == nil {
			return roomdomain.ErrNotFound
		}
		return s.captureRoom(ctx, u.Tx(), room, year, month)
	})
}

func (s *Service) CaptureAll(ctx context.Context, year, month int) error {
	rooms, err := s.roomRepo.List(ctx, s.db)
	if err != nil {
		return err
	}

	captured := 0
	for i := range rooms {
		room := rooms[i]
		err := uow.Run(ctx, s.db, func(ctx context.Context, u *uow.UnitOfWork) error {
			return s.captureRoom(ctx, u.Tx(), &room, year, month)
		})
		if err != nil {
			s.log.Warn("room snapshot failed",
				zap.String("room_id", room.ID.String()),
				zap.Error(err),
			)
			continue
		}
		captured++
	}

	s.log.Info("occupancy snapshot completed",
		zap.Int("year", year),
		zap.Int("month", month),
		zap.Int("rooms", captured),
	)
	return nil
}

func (s *Service) captureRoom(ctx context.Context, tx *gorm.DB, room *roomdomain.Room, year, month int) error {
	active, err := s.contractRepo.CountActiveByRoom(ctx, tx, room.ID)
	if err != nil {
		return err
	}

	now := s.clock.Now().UTC()
	if err := s.repo.UpsertRoomStatus(ctx, tx, &snapshotdomain.RoomStatusHistory{
		ID:        s.genID.Generate(),
		RoomID:    room.ID,
		Year:      year,
		Month:     month,
		Status:    room.Status,
		UpdatedAt: now,
	}); err != nil {
		return err
	}

	return s.repo.UpsertUserRoom(ctx, tx, &snapshotdomain.UserRoomHistory{
		ID:          s.genID.Generate(),
		RoomID:      room.ID,
		Year:        year,
		Month:       month,
		PersonCount: active,
		UpdatedAt:   now,
	})
}
