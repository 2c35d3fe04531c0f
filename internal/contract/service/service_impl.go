package service

import (
	"context"
	"strings"
	"time"

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

const dateLayout = "2006-01-02"

// sweepWindowDays bounds the date range scanned for contracts whose
// start or end is about to cross today.
const sweepWindowDays = 7

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Clock       clock.Clock
	Repo        contractdomain.Repository
	RoomRepo    roomdomain.Repository
	SnapshotSvc snapshotdomain.Service
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	clock       clock.Clock
	repo        contractdomain.Repository
	roomRepo    roomdomain.Repository
	snapshotSvc snapshotdomain.Service
}

func New(p Params) contractdomain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("contract.service"),
		genID:       p.GenID,
		clock:       p.Clock,
		repo:        p.Repo,
		roomRepo:    p.RoomRepo,
		snapshotSvc: p.SnapshotSvc,
	}
}

func (s *Service) Create(ctx context.Context, req contractdomain.CreateRequest) (*contractdomain.Response, error) {
	userID, err := contractdomain.ParseID(strings.TrimSpace(req.UserID))
	if err != nil {
		return nil, contractdomain.ErrInvalidUser
	}
	roomID, err := contractdomain.ParseID(strings.TrimSpace(req.RoomID))
	if err != nil {
		return nil, contractdomain.ErrUnknownRoom
	}
	contractType, err := parseContractType(req.ContractType)
	if err != nil {
		return nil, err
	}
	start, err := time.Parse(dateLayout, strings.TrimSpace(req.StartDate))
	if err != nil {
		return nil, contractdomain.ErrInvalidPeriod
	}
	end, err := time.Parse(dateLayout, strings.TrimSpace(req.EndDate))
	if err != nil {
		return nil, contractdomain.ErrInvalidPeriod
	}

	today := clock.Today(s.clock)
	if start.Before(today) {
		return nil, contractdomain.ErrStartInPast
	}
	if !start.Before(end) {
		return nil, contractdomain.ErrInvalidPeriod
	}

	now := s.clock.Now().UTC()
	contract := &contractdomain.Contract{
		ID:           s.genID.Generate(),
		RoomID:       roomID,
		UserID:       userID,
		ContractType: contractType,
		StartDate:    start,
		EndDate:      end,
		Status:       contractdomain.StatusAt(start, end, today, false),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err = uow.Run(ctx, s.db, func(ctx context.Context, u *uow.UnitOfWork) error {
		existing, err := s.repo.FindNonTerminalByUser(ctx, u.Tx(), userID)
		if err != nil {
			return err
		}
		if existing != nil {
			return contractdomain.ErrUserHasContract
		}

		// The room row lock serializes capacity checks: two concurrent
		// creates against one free slot resolve to one success and one
		// ErrRoomFull.
		room, err := s.roomRepo.FindByIDForUpdate(ctx, u.Tx(), roomID)
		if err != nil {
			return err
		}
		if room == nil {
			return contractdomain.ErrUnknownRoom
		}

		if contract.Status == contractdomain.StatusActive {
			if err := room.ApplyOccupancyDelta(1); err != nil {
				return err
			}
			room.UpdatedAt = s.clock.Now().UTC()
			if err := s.roomRepo.UpdateOccupancy(ctx, u.Tx(), room); err != nil {
				return err
			}
		} else if room.CurrentPersonNumber >= room.Capacity {
			return roomdomain.ErrRoomFull
		}

		return s.repo.Insert(ctx, u.Tx(), contract)
	})
	if err != nil {
		return nil, err
	}

	s.captureSnapshot(ctx, roomID)
	return toResponse(contract), nil
}

func (s *Service) Update(ctx context.Context, req contractdomain.UpdateRequest) (*contractdomain.Response, error) {
	id, err := contractdomain.ParseID(strings.TrimSpace(req.ID))
	if err != nil {
		return nil, contractdomain.ErrInvalidID
	}

	today := clock.Today(s.clock)
	var updated *contractdomain.Contract
	var touchedRooms []snowflake.ID

	err = uow.Run(ctx, s.db, func(ctx context.Context, u *uow.UnitOfWork) error {
		contract, err := s.repo.FindByIDForUpdate(ctx, u.Tx(), id)
		if err != nil {
			return err
		}
		if contract == nil {
			return contractdomain.ErrNotFound
		}

		oldRoomID := contract.RoomID
		oldActive := contract.EffectiveStatus(today) == contractdomain.StatusActive
		wasTerminated := contract.Status.Terminal()

		if req.UserID != nil {
			newUser, err := contractdomain.ParseID(strings.TrimSpace(*req.UserID))
			if err != nil {
				return contractdomain.ErrInvalidUser
			}
			if newUser != contract.UserID {
				other, err := s.repo.FindNonTerminalByUser(ctx, u.Tx(), newUser)
				if err != nil {
					return err
				}
				if other != nil && other.ID != contract.ID {
					return contractdomain.ErrUserHasContract
				}
				contract.UserID = newUser
			}
		}
		if req.RoomID != nil {
			newRoom, err := contractdomain.ParseID(strings.TrimSpace(*req.RoomID))
			if err != nil {
				return contractdomain.ErrUnknownRoom
			}
			contract.RoomID = newRoom
		}
		if req.ContractType != nil {
			contractType, err := parseContractType(*req.ContractType)
			if err != nil {
				return err
			}
			contract.ContractType = contractType
		}
		if req.StartDate != nil {
			start, err := time.Parse(dateLayout, strings.TrimSpace(*req.StartDate))
			if err != nil {
				return contractdomain.ErrInvalidPeriod
			}
			contract.StartDate = start
		}
		if req.EndDate != nil {
			end, err := time.Parse(dateLayout, strings.TrimSpace(*req.EndDate))
			if err != nil {
				return contractdomain.ErrInvalidPeriod
			}
			contract.EndDate = end
		}
		if !contract.StartDate.Before(contract.EndDate) {
			return contractdomain.ErrInvalidPeriod
		}

		terminated := wasTerminated
		if req.ForceStatus != nil {
			forced := contractdomain.Status(strings.ToUpper(strings.TrimSpace(*req.ForceStatus)))
			switch forced {
			case contractdomain.StatusTerminated:
				terminated = true
			case contractdomain.StatusPending, contractdomain.StatusActive, contractdomain.StatusExpired:
				if wasTerminated {
					return contractdomain.ErrStatusTransition
				}
				terminated = false
			default:
				return contractdomain.ErrInvalidStatus
			}
		}

		contract.Status = contractdomain.StatusAt(contract.StartDate, contract.EndDate, today, terminated)
		newActive := contract.Status == contractdomain.StatusActive
		contract.UpdatedAt = s.clock.Now().UTC()

		// Adjust occupancy for every ACTIVE boundary crossed, locking
		// rooms in a stable order so concurrent updates cannot deadlock.
		deltas := map[snowflake.ID]int{}
		if oldActive && (!newActive || contract.RoomID != oldRoomID) {
			deltas[oldRoomID]--
		}
		if newActive && (!oldActive || contract.RoomID != oldRoomID) {
			deltas[contract.RoomID]++
		}
		for _, roomID := range lockOrder(oldRoomID, contract.RoomID) {
			delta := deltas[roomID]
			if delta == 0 {
				continue
			}
			room, err := s.roomRepo.FindByIDForUpdate(ctx, u.Tx(), roomID)
			if err != nil {
				return err
			}
			if room == nil {
				return contractdomain.ErrUnknownRoom
			}
			if err := room.ApplyOccupancyDelta(delta); err != nil {
				return err
			}
			room.UpdatedAt = s.clock.Now().UTC()
			if err := s.roomRepo.UpdateOccupancy(ctx, u.Tx(), room); err != nil {
				return err
			}
			touchedRooms = append(touchedRooms, roomID)
		}

		updated = contract
		return s.repo.Update(ctx, u.Tx(), contract)
	})
	if err != nil {
		return nil, err
	}

	for _, roomID := range touchedRooms {
		s.captureSnapshot(ctx, roomID)
	}
	return toResponse(updated), nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	contractID, err := contractdomain.ParseID(strings.TrimSpace(id))
	if err != nil {
		return contractdomain.ErrInvalidID
	}

	today := clock.Today(s.clock)
	return uow.Run(ctx, s.db, func(ctx context.Context, u *uow.UnitOfWork) error {
		contract, err := s.repo.FindByIDForUpdate(ctx, u.Tx(), contractID)
		if err != nil {
			return err
		}
		if contract == nil {
			return contractdomain.ErrNotFound
		}
		if contract.EffectiveStatus(today) == contractdomain.StatusActive {
			return contractdomain.ErrDeleteActive
		}
		return s.repo.Delete(ctx, u.Tx(), contractID)
	})
}

func (s *Service) Get(ctx context.Context, id string) (*contractdomain.Response, error) {
	contractID, err := contractdomain.ParseID(strings.TrimSpace(id))
	if err != nil {
		return nil, contractdomain.ErrInvalidID
	}
	contract, err := s.repo.FindByID(ctx, s.db, contractID)
	if err != nil {
		return nil, err
	}
	if contract == nil {
		return nil, contractdomain.ErrNotFound
	}
	return toResponse(contract), nil
}

func (s *Service) List(ctx context.Context, req contractdomain.ListRequest) ([]contractdomain.Response, error) {
	var roomID, userID snowflake.ID
	if trimmed := strings.TrimSpace(req.RoomID); trimmed != "" {
		parsed, err := contractdomain.ParseID(trimmed)
		if err != nil {
			return nil, contractdomain.ErrInvalidID
		}
		roomID = parsed
	}
	if trimmed := strings.TrimSpace(req.UserID); trimmed != "" {
		parsed, err := contractdomain.ParseID(trimmed)
		if err != nil {
			return nil, contractdomain.ErrInvalidID
		}
		userID = parsed
	}

	items, err := s.repo.List(ctx, s.db, roomID, userID, contractdomain.Status(strings.ToUpper(strings.TrimSpace(req.Status))))
	if err != nil {
		return nil, err
	}
	resp := make([]contractdomain.Response, 0, len(items))
	for i := range items {
		resp = append(resp, *toResponse(&items[i]))
	}
	return resp, nil
}

// Sweep is the periodic status recomputation. A second run with no time
// passed finds every candidate already in its computed state and changes
// nothing.
func (s *Service) Sweep(ctx context.Context) (*contractdomain.SweepResult, error) {
	today := clock.Today(s.clock)
	windowStart := today.AddDate(0, 0, -sweepWindowDays)
	windowEnd := today.AddDate(0, 0, sweepWindowDays)

	candidates, err := s.repo.FindSweepCandidates(ctx, s.db, windowStart, windowEnd)
	if err != nil {
		return nil, err
	}

	result := &contractdomain.SweepResult{}
	touched := map[snowflake.ID]struct{}{}

	for i := range candidates {
		candidate := candidates[i]
		next := candidate.EffectiveStatus(today)
		if next == candidate.Status {
			continue
		}

		err := uow.Run(ctx, s.db, func(ctx context.Context, u *uow.UnitOfWork) error {
			contract, err := s.repo.FindByIDForUpdate(ctx, u.Tx(), candidate.ID)
			if err != nil {
				return err
			}
			if contract == nil {
				return nil
			}
			next := contract.EffectiveStatus(today)
			if next == contract.Status {
				return nil
			}

			wasActive := contract.Status == contractdomain.StatusActive
			becomesActive := next == contractdomain.StatusActive
			if wasActive != becomesActive {
				room, err := s.roomRepo.FindByIDForUpdate(ctx, u.Tx(), contract.RoomID)
				if err != nil {
					return err
				}
				if room != nil {
					delta := -1
					if becomesActive {
						delta = 1
					}
					if err := room.ApplyOccupancyDelta(delta); err != nil {
						// A full room blocks the activation; the contract
						// stays PENDING until a slot frees up.
						return err
					}
					room.UpdatedAt = s.clock.Now().UTC()
					if err := s.roomRepo.UpdateOccupancy(ctx, u.Tx(), room); err != nil {
						return err
					}
				}
			}

			contract.Status = next
			contract.UpdatedAt = s.clock.Now().UTC()
			if err := s.repo.Update(ctx, u.Tx(), contract); err != nil {
				return err
			}

			if becomesActive {
				result.Activated++
			} else if next == contractdomain.StatusExpired {
				result.Expired++
			}
			touched[contract.RoomID] = struct{}{}
			return nil
		})
		if err != nil {
			result.Skipped++
			s.log.Warn("contract sweep transition failed",
				zap.String("contract_id", candidate.ID.String()),
				zap.Error(err),
			)
		}
	}

	for roomID := range touched {
		s.captureSnapshot(ctx, roomID)
	}
	return result, nil
}

func (s *Service) ActiveForUser(ctx context.Context, userID snowflake.ID) (*contractdomain.Contract, error) {
	contract, err := s.repo.FindNonTerminalByUser(ctx, s.db, userID)
	if err != nil {
		return nil, err
	}
	if contract == nil {
		return nil, nil
	}
	if contract.EffectiveStatus(clock.Today(s.clock)) != contractdomain.StatusActive {
		return nil, nil
	}
	return contract, nil
}

func (s *Service) ActiveForRoom(ctx context.Context, roomID snowflake.ID) ([]contractdomain.Contract, error) {
	contracts, err := s.repo.FindByRoom(ctx, s.db, roomID)
	if err != nil {
		return nil, err
	}
	today := clock.Today(s.clock)
	active := contracts[:0:0]
	for _, c := range contracts {
		if c.EffectiveStatus(today) == contractdomain.StatusActive {
			active = append(active, c)
		}
	}
	return active, nil
}

func (s *Service) captureSnapshot(ctx context.Context, roomID snowflake.ID) {
	now := s.clock.Now()
	if err := s.snapshotSvc.Capture(ctx, roomID, now.Year(), int(now.Month())); err != nil {
		s.log.Warn("occupancy snapshot failed",
			zap.String("room_id", roomID.String()),
			zap.Error(err),
		)
	}
}

func parseContractType(value string) (contractdomain.ContractType, error) {
	switch contractdomain.ContractType(strings.ToUpper(strings.TrimSpace(value))) {
	case contractdomain.TypeShortTerm:
		return contractdomain.TypeShortTerm, nil
	case contractdomain.TypeLongTerm:
		return contractdomain.TypeLongTerm, nil
	default:
		return "", contractdomain.ErrInvalidType
	}
}

func lockOrder(a, b snowflake.ID) []snowflake.ID {
	if a == b {
		return []snowflake.ID{a}
	}
	if a < b {
		return []snowflake.ID{a, b}
	}
	return []snowflake.ID{b, a}
}

func toResponse(c *contractdomain.Contract) *contractdomain.Response {
	return &contractdomain.Response{
		ID:           c.ID.String(),
		RoomID:       c.RoomID.String(),
		UserID:       c.UserID.String(),
		ContractType: c.ContractType,
		StartDate:    c.StartDate.Format(dateLayout),
		EndDate:      c.EndDate.Format(dateLayout),
		Status:       c.Status,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}
}
