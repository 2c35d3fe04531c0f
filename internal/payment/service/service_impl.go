package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/dormhub/dormhub/internal/actor"
	billdomain "github.com/dormhub/dormhub/internal/bill/domain"
	"github.com/dormhub/dormhub/internal/clock"
	contractdomain "github.com/dormhub/dormhub/internal/contract/domain"
	"github.com/dormhub/dormhub/internal/notification"
	paymentdomain "github.com/dormhub/dormhub/internal/payment/domain"
	"github.com/dormhub/dormhub/internal/payment/vnpay"
	"github.com/dormhub/dormhub/internal/uow"
	"github.com/dormhub/dormhub/pkg/billmonth"
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
	Gateway     *vnpay.Gateway
	Repo        paymentdomain.Repository
	BillRepo    billdomain.Repository
	ContractSvc contractdomain.Service
	Sink        notification.Sink
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	clock       clock.Clock
	gateway     *vnpay.Gateway
	repo        paymentdomain.Repository
	billRepo    billdomain.Repository
	contractSvc contractdomain.Service
	sink        notification.Sink
}

func New(p Params) paymentdomain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("payment.service"),
		genID:       p.GenID,
		clock:       p.Clock,
		gateway:     p.Gateway,
		repo:        p.Repo,
		billRepo:    p.BillRepo,
		contractSvc: p.ContractSvc,
		sink:        p.Sink,
	}
}

func (s *Service) Initiate(ctx context.Context, act actor.Actor, req paymentdomain.InitiateRequest) (*paymentdomain.InitiateResponse, error) {
	billID, err := paymentdomain.ParseID(strings.TrimSpace(req.BillID))
	if err != nil {
		return nil, paymentdomain.ErrInvalidID
	}

	method := billdomain.PaymentMethod(strings.ToUpper(strings.TrimSpace(req.Method)))
	if method == "" {
		method = billdomain.MethodVNPay
	}

	var resp *paymentdomain.InitiateResponse
	err = uow.Run(ctx, s.db, func(ctx context.Context, u *uow.UnitOfWork) error {
		bill, err := s.billRepo.FindByIDForUpdate(ctx, u.Tx(), billID)
		if err != nil {
			return err
		}
		if bill == nil {
			return billdomain.ErrNotFound
		}
		if !methodAllowed(bill, method) {
			return paymentdomain.ErrMethodNotAllowed
		}
		if bill.PaymentStatus != billdomain.PaymentStatusPending {
			return paymentdomain.ErrBillNotPayable
		}
		if err := s.checkOwnership(ctx, act, bill); err != nil {
			return err
		}
		if !bill.TotalAmount.IsPositive() || bill.TotalAmount.GreaterThan(s.gateway.MaxAmount()) {
			return paymentdomain.ErrAmountOutOfRange
		}

		now := s.clock.Now()

		// At most one open attempt per bill.
		cancelled, err := s.repo.CancelOpenByBill(ctx, u.Tx(), bill.ID, now.UTC())
		if err != nil {
			return err
		}
		if cancelled > 0 {
			s.log.Info("superseded open transaction",
				zap.String("bill_id", bill.ID.String()),
				zap.Int64("cancelled", cancelled),
			)
		}

		txn := &paymentdomain.Transaction{
			ID:        s.genID.Generate(),
			BillID:    bill.ID,
			UserID:    bill.UserID,
			Method:    method,
			Amount:    bill.TotalAmount,
			Status:    paymentdomain.StatusPending,
			BankCode:  strings.TrimSpace(req.BankCode),
			OrderInfo: fmt.Sprintf("Dorm bill %s for %s", bill.ID, billmonth.Format(bill.BillMonth)),
			CreatedAt: now.UTC(),
			UpdatedAt: now.UTC(),
		}
		txn.TxnRef = txn.ID.String()

		payURL, expiresAt, err := s.gateway.BuildPaymentURL(vnpay.PaymentRequest{
			TxnRef:    txn.TxnRef,
			OrderInfo: txn.OrderInfo,
			Amount:    txn.Amount,
			BankCode:  txn.BankCode,
			ClientIP:  req.ClientIP,
			CreatedAt: now,
		})
		if err != nil {
			return err
		}
		txn.ExpiresAt = expiresAt.UTC()

		if err := s.repo.Insert(ctx, u.Tx(), txn); err != nil {
			return err
		}
		resp = &paymentdomain.InitiateResponse{
			TransactionID: txn.ID.String(),
			PayURL:        payURL,
			ExpiresAt:     txn.ExpiresAt,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// checkOwnership lets admins act on any bill; a resident must hold the
// bill's room through an active contract.
func (s *Service) checkOwnership(ctx context.Context, act actor.Actor, bill *billdomain.MonthlyBill) error {
	if act.IsAdmin() {
		return nil
	}
	contract, err := s.contractSvc.ActiveForUser(ctx, act.ID)
	if err != nil {
		return err
	}
	if contract == nil || contract.RoomID != bill.RoomID {
		return paymentdomain.ErrNotBillOwner
	}
	return nil
}

func methodAllowed(bill *billdomain.MonthlyBill, method billdomain.PaymentMethod) bool {
	if len(bill.AllowedMethods) == 0 {
		return false
	}
	var methods []billdomain.PaymentMethod
	if err := json.Unmarshal(bill.AllowedMethods, &methods); err != nil {
		return false
	}
	for _, m := range methods {
		if m == method {
			return true
		}
	}
	return false
}

func (s *Service) HandleCallback(ctx context.Context, params map[string]string) (*paymentdomain.CallbackResult, error) {
	if err := s.gateway.VerifyCallback(params); err != nil {
		return nil, paymentdomain.ErrInvalidSignature
	}

	txnRef := strings.TrimSpace(params["vnp_TxnRef"])
	if txnRef == "" {
		return nil, paymentdomain.ErrUnknownTxnRef
	}
	responseCode := params["vnp_ResponseCode"]
	gatewayTxnNo := params["vnp_TransactionNo"]
	bankCode := params["vnp_BankCode"]

	var result *paymentdomain.CallbackResult
	err := uow.Run(ctx, s.db, func(ctx context.Context, u *uow.UnitOfWork) error {
		txn, err := s.repo.FindByTxnRefForUpdate(ctx, u.Tx(), txnRef)
		if err != nil {
			return err
		}
		if txn == nil {
			return paymentdomain.ErrUnknownTxnRef
		}

		// Replayed callbacks against a settled transaction change
		// nothing and answer from the stored outcome.
		if txn.Status.Terminal() {
			result = s.callbackResult(txn)
			return nil
		}

		now := s.clock.Now().UTC()
		txn.ResponseCode = responseCode
		txn.GatewayTxnNo = gatewayTxnNo
		if bankCode != "" {
			txn.BankCode = bankCode
		}
		txn.CompletedAt = &now
		txn.UpdatedAt = now

		if vnpay.IsSuccess(responseCode) {
			txn.Status = paymentdomain.StatusSuccess
			if err := s.settleBill(ctx, u, txn, billdomain.PaymentStatusPaid, now); err != nil {
				return err
			}
		} else {
			txn.Status = paymentdomain.StatusFailed
			if err := s.settleBill(ctx, u, txn, billdomain.PaymentStatusFailed, now); err != nil {
				return err
			}
		}

		if err := s.repo.Update(ctx, u.Tx(), txn); err != nil {
			return err
		}

		result = s.callbackResult(txn)
		s.queueNotification(u, txn)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Service) settleBill(ctx context.Context, u *uow.UnitOfWork, txn *paymentdomain.Transaction, next billdomain.PaymentStatus, now time.Time) error {
	bill, err := s.billRepo.FindByIDForUpdate(ctx, u.Tx(), txn.BillID)
	if err != nil {
		return err
	}
	if bill == nil {
		return billdomain.ErrNotFound
	}
	if !bill.PaymentStatus.CanTransitionTo(next) {
		return billdomain.ErrBadTransition
	}

	bill.PaymentStatus = next
	bill.UpdatedAt = now
	if next == billdomain.PaymentStatusPaid {
		bill.PaidAt = &now
		bill.TransactionReference = txn.GatewayTxnNo
	}
	return s.billRepo.UpdatePayment(ctx, u.Tx(), bill)
}

func (s *Service) queueNotification(u *uow.UnitOfWork, txn *paymentdomain.Transaction) {
	n := notification.Notification{
		TargetType:    notification.TargetUser,
		TargetID:      txn.UserID.String(),
		RelatedEntity: "monthly_bill:" + txn.BillID.String(),
	}
	if txn.Status == paymentdomain.StatusSuccess {
		n.Title = "Payment succeeded"
		n.Body = fmt.Sprintf("Your payment of %s VND was received.", txn.Amount.StringFixed(0))
	} else {
		n.Title = "Payment failed"
		n.Body = fmt.Sprintf("Your payment attempt failed (code %s). You can retry from your bills page.", txn.ResponseCode)
	}
	u.AfterCommit(func(ctx context.Context) {
		s.sink.Publish(ctx, n)
	})
}

func (s *Service) callbackResult(txn *paymentdomain.Transaction) *paymentdomain.CallbackResult {
	return &paymentdomain.CallbackResult{
		TransactionID: txn.ID.String(),
		BillID:        txn.BillID.String(),
		Status:        txn.Status,
		ResponseCode:  txn.ResponseCode,
		RedirectURL:   s.redirectURL(txn),
	}
}

func (s *Service) redirectURL(txn *paymentdomain.Transaction) string {
	base := s.gateway.ClientReturnURL()
	if base == "" {
		return ""
	}
	q := url.Values{}
	q.Set("txn_ref", txn.TxnRef)
	q.Set("status", string(txn.Status))
	q.Set("code", txn.ResponseCode)
	return base + "?" + q.Encode()
}

func (s *Service) ListByBill(ctx context.Context, billID string) ([]paymentdomain.Response, error) {
	id, err := paymentdomain.ParseID(strings.TrimSpace(billID))
	if err != nil {
		return nil, paymentdomain.ErrInvalidID
	}
	txns, err := s.repo.ListByBill(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	return toResponses(txns), nil
}

func (s *Service) MyTransactions(ctx context.Context, act actor.Actor) ([]paymentdomain.Response, error) {
	txns, err := s.repo.ListByUser(ctx, s.db, act.ID)
	if err != nil {
		return nil, err
	}
	return toResponses(txns), nil
}

func (s *Service) Get(ctx context.Context, id string) (*paymentdomain.Response, error) {
	txnID, err := paymentdomain.ParseID(strings.TrimSpace(id))
	if err != nil {
		return nil, paymentdomain.ErrInvalidID
	}
	txn, err := s.repo.FindByID(ctx, s.db, txnID)
	if err != nil {
		return nil, err
	}
	if txn == nil {
		return nil, paymentdomain.ErrNotFound
	}
	resp := toResponse(txn)
	return &resp, nil
}

func toResponses(txns []paymentdomain.Transaction) []paymentdomain.Response {
	responses := make([]paymentdomain.Response, 0, len(txns))
	for i := range txns {
		responses = append(responses, toResponse(&txns[i]))
	}
	return responses
}

func toResponse(txn *paymentdomain.Transaction) paymentdomain.Response {
	return paymentdomain.Response{
		ID:           txn.ID.String(),
		BillID:       txn.BillID.String(),
		UserID:       txn.UserID.String(),
		Method:       txn.Method,
		Amount:       txn.Amount,
		Status:       txn.Status,
		TxnRef:       txn.TxnRef,
		GatewayTxnNo: txn.GatewayTxnNo,
		ResponseCode: txn.ResponseCode,
		ExpiresAt:    txn.ExpiresAt,
		CompletedAt:  txn.CompletedAt,
		CreatedAt:    txn.CreatedAt,
	}
}
