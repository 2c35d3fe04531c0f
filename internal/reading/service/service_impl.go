package service

import (
	"context"
	"sort"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/dormhub/dormhub/internal/actor"
	billdomain "github.com/dormhub/dormhub/internal/bill/domain"
	"github.com/dormhub/dormhub/internal/clock"
	contractdomain "github.com/dormhub/dormhub/internal/contract/domain"
	readingdomain "github.com/dormhub/dormhub/internal/reading/domain"
	roomdomain "github.com/dormhub/dormhub/internal/room/domain"
	tariffdomain "github.com/dormhub/dormhub/internal/tariff/domain"
	"github.com/dormhub/dormhub/internal/uow"
	"github.com/dormhub/dormhub/pkg/billmonth"
	"github.com/dormhub/dormhub/pkg/db"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Clock       clock.Clock
	Repo        readingdomain.Repository
	RoomRepo    roomdomain.Repository
	BillRepo    billdomain.Repository
	TariffSvc   tariffdomain.Service
	ContractSvc contractdomain.Service
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	clock       clock.Clock
	repo        readingdomain.Repository
	roomRepo    roomdomain.Repository
	billRepo    billdomain.Repository
	tariffSvc   tariffdomain.Service
	contractSvc contractdomain.Service
}

func New(p Params) readingdomain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("reading.service"),
		genID:       p.GenID,
		clock:       p.Clock,
		repo:        p.Repo,
		roomRepo:    p.RoomRepo,
		billRepo:    p.BillRepo,
		tariffSvc:   p.TariffSvc,
		contractSvc: p.ContractSvc,
	}
}

func (s *Service) Submit(ctx context.Context, act actor.Actor, req readingdomain.SubmitRequest) ([]readingdomain.Response, error) {
	if len(req.Readings) == 0 {
		return nil, readingdomain.ErrEmptySubmission
	}

	month, err := billmonth.Parse(strings.TrimSpace(req.BillMonth))
	if err != nil {
		return nil, err
	}

	contract, err := s.contractSvc.ActiveForUser(ctx, act.ID)
	if err != nil {
		return nil, err
	}
	if contract == nil {
		return nil, readingdomain.ErrNoActiveContract
	}
	roomID := contract.RoomID

	// Readings are accepted for the current month, or for earlier
	// months until the current one opens. Months ahead of the clock
	// never take readings.
	currentMonth := billmonth.Truncate(clock.Today(s.clock))
	if month.After(currentMonth) {
		return nil, readingdomain.ErrFutureMonth
	}
	if month.Before(currentMonth) {
		opened, err := s.repo.ExistsForRoomMonth(ctx, s.db, roomID, currentMonth)
		if err != nil {
			return nil, err
		}
		if opened {
			return nil, readingdomain.ErrMonthClosed
		}
	}

	// Deterministic service order keeps validation errors stable.
	serviceIDs := make([]string, 0, len(req.Readings))
	for id := range req.Readings {
		serviceIDs = append(serviceIDs, id)
	}
	sort.Strings(serviceIDs)

	asOf := billmonth.LastDay(month)
	now := s.clock.Now().UTC()
	var created []readingdomain.Response

	err = uow.Run(ctx, s.db, func(ctx context.Context, u *uow.UnitOfWork) error {
		for _, rawID := range serviceIDs {
			serviceID, err := readingdomain.ParseID(strings.TrimSpace(rawID))
			if err != nil {
				return readingdomain.ErrInvalidID
			}
			input := req.Readings[rawID]

			svc, err := s.tariffSvc.GetService(ctx, serviceID)
			if err != nil {
				return err
			}
			tariff, err := s.tariffSvc.LookupTariff(ctx, serviceID, asOf)
			if err != nil {
				return err
			}

			existing, err := s.repo.FindByRoomMonthTariff(ctx, u.Tx(), roomID, month, tariff.ID)
			if err != nil {
				return err
			}
			if existing != nil {
				return readingdomain.ErrDuplicateReading
			}

			previous := decimal.Zero
			if prev, err := s.repo.FindLatestBefore(ctx, u.Tx(), roomID, serviceID, month); err != nil {
				return err
			} else if prev != nil {
				previous = prev.CurrentReading
			}

			if input.Current.IsNegative() {
				return readingdomain.ErrNegativeReading
			}
			if input.Current.LessThan(previous) {
				return readingdomain.ErrNonMonotonicReading
			}

			reading := &readingdomain.Reading{
				ID:              s.genID.Generate(),
				RoomID:          roomID,
				BillMonth:       month,
				TariffID:        tariff.ID,
				ServiceID:       serviceID,
				PreviousReading: previous,
				CurrentReading:  input.Current,
				Price:           computePrice(svc.IsMetered, previous, input.Current, tariff.UnitPrice),
				SubmittedBy:     act.ID,
				SubmittedAt:     now,
				CreatedAt:       now,
				UpdatedAt:       now,
			}

			if err := s.repo.Insert(ctx, u.Tx(), reading); err != nil {
				if db.IsDuplicateKeyErr(err) {
					return readingdomain.ErrDuplicateReading
				}
				return err
			}
			created = append(created, *toResponse(reading))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("readings submitted",
		zap.String("room_id", roomID.String()),
		zap.String("bill_month", billmonth.Format(month)),
		zap.Int("count", len(created)),
	)
	return created, nil
}

// computePrice charges consumption for metered services and the flat
// unit price otherwise.
func computePrice(metered bool, previous, current, unitPrice decimal.Decimal) decimal.Decimal {
	if metered {
		return current.Sub(previous).Mul(unitPrice)
	}
	return unitPrice
}

func (s *Service) Matrix(ctx context.Context, month string) ([]readingdomain.MatrixRow, error) {
	billMonth, err := billmonth.Parse(strings.TrimSpace(month))
	if err != nil {
		return nil, err
	}

	rooms, err := s.roomRepo.List(ctx, s.db)
	if err != nil {
		return nil, err
	}
	services, err := s.tariffSvc.ListServices(ctx)
	if err != nil {
		return nil, err
	}
	readings, err := s.repo.ListByMonth(ctx, s.db, billMonth)
	if err != nil {
		return nil, err
	}
	bills, err := s.billRepo.ListByMonth(ctx, s.db, billMonth)
	if err != nil {
		return nil, err
	}

	type key struct {
		room    snowflake.ID
		service snowflake.ID
	}
	readingByCell := make(map[key]*readingdomain.Reading, len(readings))
	for i := range readings {
		r := &readings[i]
		readingByCell[key{r.RoomID, r.ServiceID}] = r
	}
	billByReading := make(map[snowflake.ID]billdomain.PaymentStatus, len(bills))
	for i := range bills {
		billByReading[bills[i].ReadingID] = bills[i].PaymentStatus
	}

	rows := make([]readingdomain.MatrixRow, 0, len(rooms))
	for i := range rooms {
		room := rooms[i]
		row := readingdomain.MatrixRow{
			RoomID:   room.ID.String(),
			RoomName: room.Name,
			Cells:    make([]readingdomain.MatrixCell, 0, len(services)),
		}
		for _, svc := range services {
			serviceID, err := readingdomain.ParseID(svc.ID)
			if err != nil {
				continue
			}
			cell := readingdomain.MatrixCell{
				ServiceID:   svc.ID,
				ServiceName: svc.Name,
			}
			if reading, ok := readingByCell[key{room.ID, serviceID}]; ok {
				cell.Submitted = true
				cell.ReadingID = reading.ID.String()
				if status, ok := billByReading[reading.ID]; ok {
					cell.BillStatus = string(status)
				}
			}
			row.Cells = append(row.Cells, cell)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// Update recomputes the price against the tariff already bound to the
// reading and patches a linked bill's total in the same transaction.
func (s *Service) Update(ctx context.Context, req readingdomain.UpdateRequest) (*readingdomain.Response, error) {
	id, err := readingdomain.ParseID(strings.TrimSpace(req.ID))
	if err != nil {
		return nil, readingdomain.ErrInvalidID
	}

	var updated *readingdomain.Reading
	err = uow.Run(ctx, s.db, func(ctx context.Context, u *uow.UnitOfWork) error {
		reading, err := s.repo.FindByID(ctx, u.Tx(), id)
		if err != nil {
			return err
		}
		if reading == nil {
			return readingdomain.ErrNotFound
		}

		if req.Previous != nil {
			reading.PreviousReading = *req.Previous
		}
		if req.Current != nil {
			reading.CurrentReading = *req.Current
		}
		if reading.PreviousReading.IsNegative() || reading.CurrentReading.IsNegative() {
			return readingdomain.ErrNegativeReading
		}
		if reading.CurrentReading.LessThan(reading.PreviousReading) {
			return readingdomain.ErrNonMonotonicReading
		}

		svc, err := s.tariffSvc.GetService(ctx, reading.ServiceID)
		if err != nil {
			return err
		}
		// The tariff bound at submission stays authoritative; Update
		// never rebinds to a newer one.
		tariff, err := s.tariffSvc.GetTariff(ctx, reading.TariffID)
		if err != nil {
			return err
		}

		reading.Price = computePrice(svc.IsMetered, reading.PreviousReading, reading.CurrentReading, tariff.UnitPrice)
		reading.UpdatedAt = s.clock.Now().UTC()
		if err := s.repo.Update(ctx, u.Tx(), reading); err != nil {
			return err
		}

		bill, err := s.billRepo.FindByReadingID(ctx, u.Tx(), reading.ID)
		if err != nil {
			return err
		}
		if bill != nil {
			if err := s.billRepo.UpdateTotal(ctx, u.Tx(), bill.ID, reading.Price, reading.UpdatedAt); err != nil {
				return err
			}
		}

		updated = reading
		return nil
	})
	if err != nil {
		return nil, err
	}
	return toResponse(updated), nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	readingID, err := readingdomain.ParseID(strings.TrimSpace(id))
	if err != nil {
		return readingdomain.ErrInvalidID
	}

	return uow.Run(ctx, s.db, func(ctx context.Context, u *uow.UnitOfWork) error {
		reading, err := s.repo.FindByID(ctx, u.Tx(), readingID)
		if err != nil {
			return err
		}
		if reading == nil {
			return readingdomain.ErrNotFound
		}
		bill, err := s.billRepo.FindByReadingID(ctx, u.Tx(), readingID)
		if err != nil {
			return err
		}
		if bill != nil {
			return readingdomain.ErrLinkedBill
		}
		return s.repo.Delete(ctx, u.Tx(), readingID)
	})
}

func (s *Service) Get(ctx context.Context, id string) (*readingdomain.Response, error) {
	readingID, err := readingdomain.ParseID(strings.TrimSpace(id))
	if err != nil {
		return nil, readingdomain.ErrInvalidID
	}
	reading, err := s.repo.FindByID(ctx, s.db, readingID)
	if err != nil {
		return nil, err
	}
	if reading == nil {
		return nil, readingdomain.ErrNotFound
	}
	return toResponse(reading), nil
}

func toResponse(r *readingdomain.Reading) *readingdomain.Response {
	return &readingdomain.Response{
		ID:              r.ID.String(),
		RoomID:          r.RoomID.String(),
		BillMonth:       billmonth.Format(r.BillMonth),
		ServiceID:       r.ServiceID.String(),
		TariffID:        r.TariffID.String(),
		PreviousReading: r.PreviousReading,
		CurrentReading:  r.CurrentReading,
		Price:           r.Price,
		SubmittedBy:     r.SubmittedBy.String(),
		SubmittedAt:     r.SubmittedAt,
	}
}
