package service

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/dormhub/dormhub/internal/actor"
	billdomain "github.com/dormhub/dormhub/internal/bill/domain"
	"github.com/dormhub/dormhub/internal/clock"
	contractdomain "github.com/dormhub/dormhub/internal/contract/domain"
	paymentdomain "github.com/dormhub/dormhub/internal/payment/domain"
	roomdomain "github.com/dormhub/dormhub/internal/room/domain"
	"github.com/dormhub/dormhub/internal/uow"
	"github.com/dormhub/dormhub/pkg/billmonth"
	"github.com/dormhub/dormhub/pkg/db"
	"github.com/dormhub/dormhub/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Clock       clock.Clock
	Repo        billdomain.Repository
	RoomRepo    roomdomain.Repository
	PaymentRepo paymentdomain.Repository
	ContractSvc contractdomain.Service
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	clock       clock.Clock
	repo        billdomain.Repository
	roomRepo    roomdomain.Repository
	paymentRepo paymentdomain.Repository
	contractSvc contractdomain.Service
}

func New(p Params) billdomain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("bill.service"),
		genID:       p.GenID,
		clock:       p.Clock,
		repo:        p.Repo,
		roomRepo:    p.RoomRepo,
		paymentRepo: p.PaymentRepo,
		contractSvc: p.ContractSvc,
	}
}

func (s *Service) Generate(ctx context.Context, req billdomain.GenerateRequest) (*billdomain.BulkResult, error) {
	month, err := billmonth.Parse(strings.TrimSpace(req.BillMonth))
	if err != nil {
		return nil, err
	}

	rooms, err := s.targetRooms(ctx, req.RoomIDs)
	if err != nil {
		return nil, err
	}

	result := &billdomain.BulkResult{
		Created: []billdomain.Response{},
		Errors:  []billdomain.RoomError{},
	}

	for _, room := range rooms {
		created, err := s.generateForRoom(ctx, room.ID, month)
		if err != nil {
			s.log.Warn("bill generation skipped room",
				zap.String("room_id", room.ID.String()),
				zap.String("bill_month", billmonth.Format(month)),
				zap.Error(err),
			)
			result.Errors = append(result.Errors, billdomain.RoomError{
				RoomID: room.ID.String(),
				Reason: err.Error(),
			})
			continue
		}
		result.Created = append(result.Created, created...)
	}

	if len(result.Created) == 0 {
		return result, billdomain.ErrNoBillsCreated
	}
	return result, nil
}

func (s *Service) targetRooms(ctx context.Context, roomIDs []string) ([]roomdomain.Room, error) {
	if len(roomIDs) == 0 {
		return s.roomRepo.List(ctx, s.db)
	}

	rooms := make([]roomdomain.Room, 0, len(roomIDs))
	for _, raw := range roomIDs {
		id, err := billdomain.ParseID(strings.TrimSpace(raw))
		if err != nil {
			return nil, billdomain.ErrInvalidID
		}
		room, err := s.roomRepo.FindByID(ctx, s.db, id)
		if err != nil {
			return nil, err
		}
		if room == nil {
			return nil, roomdomain.ErrNotFound
		}
		rooms = append(rooms, *room)
	}
	return rooms, nil
}

// generateForRoom creates the room's bills for the month in one
// transaction. The unique index on detail_id makes a rerun skip
// already-billed readings instead of duplicating them.
func (s *Service) generateForRoom(ctx context.Context, roomID snowflake.ID, month time.Time) ([]billdomain.Response, error) {
	contracts, err := s.contractSvc.ActiveForRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if len(contracts) == 0 {
		return nil, billdomain.ErrNoActiveTenancy
	}
	sort.Slice(contracts, func(i, j int) bool {
		return contracts[i].StartDate.Before(contracts[j].StartDate)
	})
	billTo := contracts[0].UserID

	methods, err := json.Marshal([]billdomain.PaymentMethod{billdomain.MethodVNPay})
	if err != nil {
		return nil, err
	}

	now := s.clock.Now().UTC()
	var created []billdomain.Response

	err = uow.Run(ctx, s.db, func(ctx context.Context, u *uow.UnitOfWork) error {
		readings, err := s.repo.FindUnlinkedReadings(ctx, u.Tx(), roomID, month)
		if err != nil {
			return err
		}
		if len(readings) == 0 {
			return billdomain.ErrNoUnlinked
		}

		for _, reading := range readings {
			bill := &billdomain.MonthlyBill{
				ID:             s.genID.Generate(),
				UserID:         billTo,
				RoomID:         roomID,
				ReadingID:      reading.ID,
				BillMonth:      month,
				TotalAmount:    reading.Price,
				PaymentStatus:  billdomain.PaymentStatusPending,
				AllowedMethods: datatypes.JSON(methods),
				CreatedAt:      now,
				UpdatedAt:      now,
			}
			if err := s.repo.Insert(ctx, u.Tx(), bill); err != nil {
				if db.IsDuplicateKeyErr(err) {
					// Another generation linked this reading first.
					continue
				}
				return err
			}
			created = append(created, toResponse(bill))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *Service) List(ctx context.Context, req billdomain.ListRequest) (*billdomain.ListResult, error) {
	filter := billdomain.ListFilter{Limit: req.PageSize}
	if filter.Limit <= 0 {
		filter.Limit = 20
	}

	if req.Month != "" {
		month, err := billmonth.Parse(req.Month)
		if err != nil {
			return nil, err
		}
		filter.Month = &month
	}
	if req.RoomID != "" {
		id, err := billdomain.ParseID(req.RoomID)
		if err != nil {
			return nil, billdomain.ErrInvalidID
		}
		filter.RoomID = id
	}
	if req.UserID != "" {
		id, err := billdomain.ParseID(req.UserID)
		if err != nil {
			return nil, billdomain.ErrInvalidID
		}
		filter.UserID = id
	}
	if req.Status != "" {
		status := billdomain.PaymentStatus(strings.ToUpper(req.Status))
		switch status {
		case billdomain.PaymentStatusPending, billdomain.PaymentStatusPaid,
			billdomain.PaymentStatusFailed, billdomain.PaymentStatusOverdue:
		default:
			return nil, billdomain.ErrInvalidStatus
		}
		filter.Status = status
	}
	if req.PageToken != "" {
		cursor, err := pagination.DecodeCursor(req.PageToken)
		if err != nil {
			return nil, billdomain.ErrInvalidID
		}
		afterID, err := billdomain.ParseID(cursor.ID)
		if err != nil {
			return nil, billdomain.ErrInvalidID
		}
		filter.AfterID = afterID
	}

	bills, err := s.repo.List(ctx, s.db, filter)
	if err != nil {
		return nil, err
	}

	bills, pageInfo := pagination.Build(bills, filter.Limit, func(b billdomain.MonthlyBill) string {
		return b.ID.String()
	})

	responses := make([]billdomain.Response, 0, len(bills))
	for i := range bills {
		responses = append(responses, toResponse(&bills[i]))
	}
	return &billdomain.ListResult{Bills: responses, PageInfo: pageInfo}, nil
}

func (s *Service) MyBills(ctx context.Context, act actor.Actor) ([]billdomain.Response, error) {
	bills, err := s.repo.List(ctx, s.db, billdomain.ListFilter{UserID: act.ID})
	if err != nil {
		return nil, err
	}
	responses := make([]billdomain.Response, 0, len(bills))
	for i := range bills {
		responses = append(responses, toResponse(&bills[i]))
	}
	return responses, nil
}

func (s *Service) Get(ctx context.Context, id string) (*billdomain.Response, error) {
	billID, err := billdomain.ParseID(strings.TrimSpace(id))
	if err != nil {
		return nil, billdomain.ErrInvalidID
	}
	bill, err := s.repo.FindByID(ctx, s.db, billID)
	if err != nil {
		return nil, err
	}
	if bill == nil {
		return nil, billdomain.ErrNotFound
	}
	resp := toResponse(bill)
	return &resp, nil
}

func (s *Service) Update(ctx context.Context, req billdomain.UpdateRequest) (*billdomain.Response, error) {
	billID, err := billdomain.ParseID(strings.TrimSpace(req.ID))
	if err != nil {
		return nil, billdomain.ErrInvalidID
	}
	if req.Status == nil {
		return s.Get(ctx, req.ID)
	}

	next := billdomain.PaymentStatus(strings.ToUpper(*req.Status))
	switch next {
	case billdomain.PaymentStatusPending, billdomain.PaymentStatusPaid,
		billdomain.PaymentStatusFailed, billdomain.PaymentStatusOverdue:
	default:
		return nil, billdomain.ErrInvalidStatus
	}

	var resp billdomain.Response
	err = uow.Run(ctx, s.db, func(ctx context.Context, u *uow.UnitOfWork) error {
		bill, err := s.repo.FindByIDForUpdate(ctx, u.Tx(), billID)
		if err != nil {
			return err
		}
		if bill == nil {
			return billdomain.ErrNotFound
		}
		if !bill.PaymentStatus.CanTransitionTo(next) {
			return billdomain.ErrBadTransition
		}

		now := s.clock.Now().UTC()
		bill.PaymentStatus = next
		bill.UpdatedAt = now
		if next == billdomain.PaymentStatusPaid {
			bill.PaidAt = &now
		} else {
			bill.PaidAt = nil
		}
		if err := s.repo.UpdatePayment(ctx, u.Tx(), bill); err != nil {
			return err
		}
		resp = toResponse(bill)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	billID, err := billdomain.ParseID(strings.TrimSpace(id))
	if err != nil {
		return billdomain.ErrInvalidID
	}

	return uow.Run(ctx, s.db, func(ctx context.Context, u *uow.UnitOfWork) error {
		bill, err := s.repo.FindByIDForUpdate(ctx, u.Tx(), billID)
		if err != nil {
			return err
		}
		if bill == nil {
			return billdomain.ErrNotFound
		}
		if bill.PaymentStatus == billdomain.PaymentStatusPaid {
			return billdomain.ErrDeletePaid
		}

		cancelled, err := s.paymentRepo.CancelOpenByBill(ctx, u.Tx(), billID, s.clock.Now().UTC())
		if err != nil {
			return err
		}
		if cancelled > 0 {
			s.log.Info("cancelled open transactions for deleted bill",
				zap.String("bill_id", billID.String()),
				zap.Int64("cancelled", cancelled),
			)
		}
		return s.repo.Delete(ctx, u.Tx(), billID)
	})
}

func (s *Service) MarkOverdue(ctx context.Context, monthBefore time.Time) (int64, error) {
	return s.repo.MarkOverdue(ctx, s.db, monthBefore, s.clock.Now().UTC())
}

func toResponse(bill *billdomain.MonthlyBill) billdomain.Response {
	methods := []billdomain.PaymentMethod{}
	if len(bill.AllowedMethods) > 0 {
		// Bad stored JSON degrades to an empty method list.
		_ = json.Unmarshal(bill.AllowedMethods, &methods)
	}
	return billdomain.Response{
		ID:                   bill.ID.String(),
		UserID:               bill.UserID.String(),
		RoomID:               bill.RoomID.String(),
		ReadingID:            bill.ReadingID.String(),
		BillMonth:            billmonth.Format(bill.BillMonth),
		TotalAmount:          bill.TotalAmount,
		PaymentStatus:        bill.PaymentStatus,
		PaidAt:               bill.PaidAt,
		TransactionReference: bill.TransactionReference,
		AllowedMethods:       methods,
		CreatedAt:            bill.CreatedAt,
	}
}
