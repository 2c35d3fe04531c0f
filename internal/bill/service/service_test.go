package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	billdomain "github.com/dormhub/dormhub/internal/bill/domain"
	billrepository "github.com/dormhub/dormhub/internal/bill/repository"
	"github.com/dormhub/dormhub/internal/clock"
	contractdomain "github.com/dormhub/dormhub/internal/contract/domain"
	contractrepository "github.com/dormhub/dormhub/internal/contract/repository"
	contractservice "github.com/dormhub/dormhub/internal/contract/service"
	paymentdomain "github.com/dormhub/dormhub/internal/payment/domain"
	paymentrepository "github.com/dormhub/dormhub/internal/payment/repository"
	readingdomain "github.com/dormhub/dormhub/internal/reading/domain"
	readingrepository "github.com/dormhub/dormhub/internal/reading/repository"
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

type billFixture struct {
	svc         *Service
	db          *gorm.DB
	readingRepo readingdomain.Repository
	tenantID    snowflake.ID
	tenantRoom  snowflake.ID
	emptyRoom   snowflake.ID
}

func setupBillService(t *testing.T, fake *clock.FakeClock) *billFixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:bill_"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&roomdomain.Room{},
		&contractdomain.Contract{},
		&readingdomain.Reading{},
		&billdomain.MonthlyBill{},
		&paymentdomain.Transaction{},
		&snapshotdomain.RoomStatusHistory{},
		&snapshotdomain.UserRoomHistory{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	log := zap.NewNop()
	ctx := context.Background()

	roomRepo := roomrepository.Provide()
	contractRepo := contractrepository.Provide()
	snapshotSvc := snapshotservice.New(snapshotservice.Params{
		DB:           db,
		Log:          log,
		GenID:        node,
		Clock:        fake,
		Repo:         snapshotrepository.Provide(),
		RoomRepo:     roomRepo,
		ContractRepo: contractRepo,
	})
	contractSvc := contractservice.New(contractservice.Params{
		DB:          db,
		Log:         log,
		GenID:       node,
		Clock:       fake,
		Repo:        contractRepo,
		RoomRepo:    roomRepo,
		SnapshotSvc: snapshotSvc,
	})

	now := fake.Now()
	tenantRoom := &roomdomain.Room{
		ID:        node.Generate(),
		AreaID:    node.Generate(),
		Name:      "A-101",
		Capacity:  2,
		Price:     decimal.NewFromInt(1200000),
		Status:    roomdomain.StatusAvailable,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, roomRepo.Insert(ctx, db, tenantRoom))
	emptyRoom := &roomdomain.Room{
		ID:        node.Generate(),
		AreaID:    tenantRoom.AreaID,
		Name:      "A-102",
		Capacity:  2,
		Price:     decimal.NewFromInt(1200000),
		Status:    roomdomain.StatusAvailable,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, roomRepo.Insert(ctx, db, emptyRoom))

	tenant := node.Generate()
	require.NoError(t, contractRepo.Insert(ctx, db, &contractdomain.Contract{
		ID:           node.Generate(),
		RoomID:       tenantRoom.ID,
		UserID:       tenant,
		ContractType: contractdomain.TypeLongTerm,
		StartDate:    time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:      time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC),
		Status:       contractdomain.StatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}))

	svc := &Service{
		db:          db,
		log:         log,
		genID:       node,
		clock:       fake,
		repo:        billrepository.Provide(),
		roomRepo:    roomRepo,
		paymentRepo: paymentrepository.Provide(),
		contractSvc: contractSvc,
	}
	return &billFixture{
		svc:         svc,
		db:          db,
		readingRepo: readingrepository.Provide(),
		tenantID:    tenant,
		tenantRoom:  tenantRoom.ID,
		emptyRoom:   emptyRoom.ID,
	}
}

func (f *billFixture) seedReading(t *testing.T, roomID snowflake.ID, month time.Time, price int64) *readingdomain.Reading {
	t.Helper()

	now := f.svc.clock.Now().UTC()
	reading := &readingdomain.Reading{
		ID:              f.svc.genID.Generate(),
		RoomID:          roomID,
		BillMonth:       month,
		TariffID:        f.svc.genID.Generate(),
		ServiceID:       f.svc.genID.Generate(),
		PreviousReading: decimal.Zero,
		CurrentReading:  decimal.NewFromInt(100),
		Price:           decimal.NewFromInt(price),
		SubmittedBy:     f.tenantID,
		SubmittedAt:     now,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	require.NoError(t, f.readingRepo.Insert(context.Background(), f.db, reading))
	return reading
}

func TestGenerateBills(t *testing.T) {
	fake := clock.NewFakeClock(time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC))
	fx := setupBillService(t, fake)
	ctx := context.Background()
	march := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	fx.seedReading(t, fx.tenantRoom, march, 420000)
	fx.seedReading(t, fx.tenantRoom, march, 250000)

	result, err := fx.svc.Generate(ctx, billdomain.GenerateRequest{BillMonth: "2026-03"})
	require.NoError(t, err)
	assert.Len(t, result.Created, 2)
	for _, bill := range result.Created {
		assert.Equal(t, fx.tenantID.String(), bill.UserID)
		assert.Equal(t, billdomain.PaymentStatusPending, bill.PaymentStatus)
		assert.Equal(t, []billdomain.PaymentMethod{billdomain.MethodVNPay}, bill.AllowedMethods)
	}

	// The empty room has no active tenancy to bill to.
	require.Len(t, result.Errors, 1)
	assert.Equal(t, fx.emptyRoom.String(), result.Errors[0].RoomID)
	assert.Equal(t, billdomain.ErrNoActiveTenancy.Error(), result.Errors[0].Reason)

	t.Run("rerun creates nothing", func(t *testing.T) {
		rerun, err := fx.svc.Generate(ctx, billdomain.GenerateRequest{BillMonth: "2026-03"})
		assert.ErrorIs(t, err, billdomain.ErrNoBillsCreated)
		require.NotNil(t, rerun)
		assert.Empty(t, rerun.Created)

		var count int64
		require.NoError(t, fx.db.Model(&billdomain.MonthlyBill{}).Count(&count).Error)
		assert.EqualValues(t, 2, count)
	})
}

func TestGenerateTargetedRooms(t *testing.T) {
	fake := clock.NewFakeClock(time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC))
	fx := setupBillService(t, fake)
	march := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	fx.seedReading(t, fx.tenantRoom, march, 420000)

	result, err := fx.svc.Generate(context.Background(), billdomain.GenerateRequest{
		BillMonth: "2026-03",
		RoomIDs:   []string{fx.tenantRoom.String()},
	})
	require.NoError(t, err)
	assert.Len(t, result.Created, 1)
	assert.Empty(t, result.Errors)

	t.Run("unknown room is fatal", func(t *testing.T) {
		_, err := fx.svc.Generate(context.Background(), billdomain.GenerateRequest{
			BillMonth: "2026-03",
			RoomIDs:   []string{fx.svc.genID.Generate().String()},
		})
		assert.ErrorIs(t, err, roomdomain.ErrNotFound)
	})
}

func generateOne(t *testing.T, fx *billFixture, month time.Time) billdomain.Response {
	t.Helper()

	fx.seedReading(t, fx.tenantRoom, month, 420000)
	result, err := fx.svc.Generate(context.Background(), billdomain.GenerateRequest{
		BillMonth: month.Format("2006-01"),
		RoomIDs:   []string{fx.tenantRoom.String()},
	})
	require.NoError(t, err)
	require.Len(t, result.Created, 1)
	return result.Created[0]
}

func TestUpdatePaymentStatus(t *testing.T) {
	fake := clock.NewFakeClock(time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC))
	fx := setupBillService(t, fake)
	ctx := context.Background()

	bill := generateOne(t, fx, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))

	paid := "PAID"
	updated, err := fx.svc.Update(ctx, billdomain.UpdateRequest{ID: bill.ID, Status: &paid})
	require.NoError(t, err)
	assert.Equal(t, billdomain.PaymentStatusPaid, updated.PaymentStatus)
	require.NotNil(t, updated.PaidAt)

	t.Run("paid is terminal", func(t *testing.T) {
		pending := "PENDING"
		_, err := fx.svc.Update(ctx, billdomain.UpdateRequest{ID: bill.ID, Status: &pending})
		assert.ErrorIs(t, err, billdomain.ErrBadTransition)
	})

	t.Run("unknown status", func(t *testing.T) {
		bogus := "SETTLED"
		_, err := fx.svc.Update(ctx, billdomain.UpdateRequest{ID: bill.ID, Status: &bogus})
		assert.ErrorIs(t, err, billdomain.ErrInvalidStatus)
	})

	t.Run("failed can be retried", func(t *testing.T) {
		other := generateOne(t, fx, time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC))
		failed := "FAILED"
		_, err := fx.svc.Update(ctx, billdomain.UpdateRequest{ID: other.ID, Status: &failed})
		require.NoError(t, err)
		pending := "PENDING"
		back, err := fx.svc.Update(ctx, billdomain.UpdateRequest{ID: other.ID, Status: &pending})
		require.NoError(t, err)
		assert.Equal(t, billdomain.PaymentStatusPending, back.PaymentStatus)
		assert.Nil(t, back.PaidAt)
	})
}

func TestDeleteBill(t *testing.T) {
	fake := clock.NewFakeClock(time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC))
	fx := setupBillService(t, fake)
	ctx := context.Background()

	bill := generateOne(t, fx, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
	billID, err := billdomain.ParseID(bill.ID)
	require.NoError(t, err)

	txn := &paymentdomain.Transaction{
		ID:        fx.svc.genID.Generate(),
		BillID:    billID,
		UserID:    fx.tenantID,
		Method:    billdomain.MethodVNPay,
		Amount:    bill.TotalAmount,
		Status:    paymentdomain.StatusPending,
		TxnRef:    fx.svc.genID.Generate().String(),
		ExpiresAt: fake.Now().Add(15 * time.Minute),
		CreatedAt: fake.Now(),
		UpdatedAt: fake.Now(),
	}
	require.NoError(t, fx.svc.paymentRepo.Insert(ctx, fx.db, txn))

	require.NoError(t, fx.svc.Delete(ctx, bill.ID))

	_, err = fx.svc.Get(ctx, bill.ID)
	assert.ErrorIs(t, err, billdomain.ErrNotFound)

	// Deleting the bill closed its open transaction.
	stored, err := fx.svc.paymentRepo.FindByID(ctx, fx.db, txn.ID)
	require.NoError(t, err)
	assert.Equal(t, paymentdomain.StatusCancelled, stored.Status)

	t.Run("paid bill is kept", func(t *testing.T) {
		other := generateOne(t, fx, time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC))
		paid := "PAID"
		_, err := fx.svc.Update(ctx, billdomain.UpdateRequest{ID: other.ID, Status: &paid})
		require.NoError(t, err)
		assert.ErrorIs(t, fx.svc.Delete(ctx, other.ID), billdomain.ErrDeletePaid)
	})
}

func TestMarkOverdue(t *testing.T) {
	fake := clock.NewFakeClock(time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC))
	fx := setupBillService(t, fake)
	ctx := context.Background()

	paidBill := generateOne(t, fx, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	paid := "PAID"
	_, err := fx.svc.Update(ctx, billdomain.UpdateRequest{ID: paidBill.ID, Status: &paid})
	require.NoError(t, err)
	stale := generateOne(t, fx, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC))
	current := generateOne(t, fx, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))

	// Months strictly before March are past their due window.
	cutoff := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	changed, err := fx.svc.MarkOverdue(ctx, cutoff)
	require.NoError(t, err)
	assert.EqualValues(t, 1, changed)

	got, err := fx.svc.Get(ctx, stale.ID)
	require.NoError(t, err)
	assert.Equal(t, billdomain.PaymentStatusOverdue, got.PaymentStatus)

	// Bills still inside their window and paid bills are untouched.
	got, err = fx.svc.Get(ctx, current.ID)
	require.NoError(t, err)
	assert.Equal(t, billdomain.PaymentStatusPending, got.PaymentStatus)
	got, err = fx.svc.Get(ctx, paidBill.ID)
	require.NoError(t, err)
	assert.Equal(t, billdomain.PaymentStatusPaid, got.PaymentStatus)

	// A rerun finds nothing left.
	again, err := fx.svc.MarkOverdue(ctx, cutoff)
	require.NoError(t, err)
	assert.Zero(t, again)
}

func TestListAndMyBills(t *testing.T) {
	fake := clock.NewFakeClock(time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC))
	fx := setupBillService(t, fake)
	ctx := context.Background()

	generateOne(t, fx, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
	generateOne(t, fx, time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC))

	result, err := fx.svc.List(ctx, billdomain.ListRequest{Month: "2026-03"})
	require.NoError(t, err)
	assert.Len(t, result.Bills, 1)

	t.Run("paged", func(t *testing.T) {
		first, err := fx.svc.List(ctx, billdomain.ListRequest{PageSize: 1})
		require.NoError(t, err)
		require.Len(t, first.Bills, 1)
		require.NotNil(t, first.PageInfo)
		require.True(t, first.PageInfo.HasMore)

		second, err := fx.svc.List(ctx, billdomain.ListRequest{PageSize: 1, PageToken: first.PageInfo.NextPageToken})
		require.NoError(t, err)
		require.Len(t, second.Bills, 1)
		assert.NotEqual(t, first.Bills[0].ID, second.Bills[0].ID)
	})
}
