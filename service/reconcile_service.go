package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"storefront/constants"
	"storefront/events"
	"storefront/gateway"
	"storefront/helper"
	"storefront/locker"
	"storefront/model"
	"storefront/repository"

	"golang.org/x/sync/singleflight"
)

var (
	ackSuccess          = model.IPNResponse{RspCode: gateway.RspConfirmSuccess, Message: "Confirm Success"}
	ackOrderNotFound    = model.IPNResponse{RspCode: gateway.RspOrderNotFound, Message: "Order not found"}
	ackInvalidAmount    = model.IPNResponse{RspCode: gateway.RspInvalidAmount, Message: "Invalid amount"}
	ackInvalidSignature = model.IPNResponse{RspCode: gateway.RspInvalidSignature, Message: "Invalid signature"}
	ackUnknownError     = model.IPNResponse{RspCode: gateway.RspUnknownError, Message: "Unknown error"}
)

// outcome là kết quả đã commit của một IPN, dùng cho event và thông báo
type outcome int

const (
	outcomeNone outcome = iota
	outcomeDuplicate
	outcomeAlreadyPaid
	outcomePaid
	outcomeFailed
)

// ReturnResult là thông tin hiển thị cho trang kết quả, không phải nguồn sự thật
type ReturnResult struct {
	Valid         bool   `json:"valid"`
	Link          string `json:"link"`
	ResponseCode  string `json:"responseCode"`
	Status        string `json:"status"`
	PaymentStatus string `json:"paymentStatus"`
}

// ReconcileService đối soát callback của cổng thanh toán với đơn hàng.
// Chỉ IPN được phép thay đổi trạng thái thanh toán.
type ReconcileService struct {
	store    repository.Store
	gateway  PaymentGateway
	locks    locker.Locker
	events   events.Publisher
	notifier Notifier
	timeout  time.Duration
	inflight singleflight.Group
	now      func() time.Time
}

func NewReconcileService(store repository.Store, gw PaymentGateway, locks locker.Locker, publisher events.Publisher, notifier Notifier, timeout time.Duration) *ReconcileService {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &ReconcileService{
		store:    store,
		gateway:  gw,
		locks:    locks,
		events:   publisher,
		notifier: notifier,
		timeout:  timeout,
		now:      time.Now,
	}
}

// HandleIPN luôn trả về mã phản hồi VNPay, không bao giờ trả lỗi nội bộ ra ngoài
func (s *ReconcileService) HandleIPN(ctx context.Context, values url.Values) model.IPNResponse {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	log := helper.Logger(ctx)

	cb, err := s.gateway.ParseCallback(values)
	if err != nil {
		rej := rejectCallback(err)
		log.Warnw("ipn rejected", "txn_ref", values.Get("vnp_TxnRef"), "code", rej.Code, "error", rej)
		return rejectionAck(rej)
	}

	// Các lần gửi trùng đến cùng lúc chỉ xử lý một lần
	key := fmt.Sprintf("%s|%s|%s|%d", cb.TxnRef, cb.GatewayTransactionRef, cb.ResponseCode, cb.Amount)
	ch := s.inflight.DoChan(key, func() (interface{}, error) {
		return s.reconcile(ctx, cb), nil
	})

	select {
	case res := <-ch:
		return res.Val.(model.IPNResponse)
	case <-ctx.Done():
		log.Errorw("ipn timed out", "txn_ref", cb.TxnRef, "error", ctx.Err())
		return ackUnknownError
	}
}

func (s *ReconcileService) reconcile(ctx context.Context, cb gateway.Callback) model.IPNResponse {
	log := helper.Logger(ctx)

	order, err := s.store.Orders().FindByID(ctx, cb.OrderID)
	if errors.Is(err, repository.ErrNotFound) {
		log.Warnw("ipn for unknown order", "order_id", cb.OrderID, "txn_ref", cb.TxnRef)
		return ackOrderNotFound
	}
	if err != nil {
		log.Errorw("ipn order lookup failed", "order_id", cb.OrderID, "error", err)
		return ackUnknownError
	}

	if cb.Amount != order.FinalAmount {
		reason := fmt.Sprintf("IPN %s báo số tiền %d, đơn hàng %d", cb.TxnRef, cb.Amount, order.FinalAmount)
		rej := &Error{Kind: KindUntrusted, Code: constants.ERR_AMOUNT_MISMATCH, Message: reason}
		log.Warnw("ipn rejected", "order_id", order.ID, "txn_ref", cb.TxnRef, "code", rej.Code, "amount", cb.Amount, "expected", order.FinalAmount)
		if err := s.store.Orders().FlagReview(ctx, order.ID, reason); err != nil {
			log.Errorw("flag review failed", "order_id", order.ID, "error", err)
			return ackUnknownError
		}
		order.NeedsReview, order.ReviewReason = true, reason
		publish(ctx, s.events, events.PaymentReviewRoutingKey, order, s.now())
		s.notifyReview(ctx, order, reason)
		return rejectionAck(rej)
	}

	unlock, err := s.locks.Lock(ctx, locker.OrderKey(order.ID))
	if err != nil {
		log.Errorw("ipn lock failed", "order_id", order.ID, "error", err)
		return ackUnknownError
	}
	defer unlock()

	now := s.now()
	result := outcomeNone
	reviewReason := ""
	err = s.store.WithinTx(ctx, func(r repository.TxRepos) error {
		o, err := r.Orders().FindByIDForUpdate(ctx, order.ID)
		if err != nil {
			return err
		}

		// Cổng gửi lại IPN đã xử lý. Giao dịch huỷ/lỗi có TransactionNo "0"
		// nên chỉ dựa vào processed_at của TxnRef.
		if cb.HasGatewayRef() {
			processed, err := r.PaymentTransactions().IsGatewayRefProcessed(ctx, o.ID, cb.GatewayTransactionRef)
			if err != nil {
				return err
			}
			if processed {
				result = outcomeDuplicate
				return nil
			}
		}

		txn, err := r.PaymentTransactions().FindByTxnRef(ctx, cb.TxnRef)
		switch {
		case errors.Is(err, repository.ErrNotFound):
			txn = model.PaymentTransaction{OrderID: o.ID, TxnRef: cb.TxnRef, Amount: cb.Amount, Status: constants.TXN_PENDING}
			if err := r.PaymentTransactions().Create(ctx, &txn); err != nil {
				return err
			}
		case err != nil:
			return err
		case txn.ProcessedAt != nil:
			result = outcomeDuplicate
			return nil
		}

		if o.PaymentStatus == constants.PAYMENT_PAID {
			result = outcomeAlreadyPaid
			return nil
		}

		status := constants.TXN_FAILED
		if cb.IsSuccess() {
			status = constants.TXN_SUCCESS
		}
		marked, err := r.PaymentTransactions().MarkProcessed(ctx, txn.ID, repository.TxnResult{
			Status:                status,
			ResultCode:            cb.ResponseCode,
			GatewayTransactionRef: cb.GatewayTransactionRef,
			RawCallbackPayload:    cb.Raw,
			ProcessedAt:           now,
		})
		if err != nil {
			return err
		}
		if !marked {
			result = outcomeDuplicate
			return nil
		}

		if !cb.IsSuccess() {
			if _, err := r.Orders().MarkPaymentFailed(ctx, o.ID); err != nil {
				return err
			}
			result = outcomeFailed
			return nil
		}

		if _, err := r.Orders().MarkPaid(ctx, o.ID, cb.Amount, now); err != nil {
			return err
		}
		// Tiền đã vào nhưng đơn đã huỷ: giữ nguyên trạng thái huỷ, chờ hoàn tiền
		if o.Status == constants.ORDER_CANCELLED {
			reviewReason = "Nhận thanh toán cho đơn đã huỷ, cần hoàn tiền"
			if err := r.Orders().FlagReview(ctx, o.ID, reviewReason); err != nil {
				return err
			}
		}
		result = outcomePaid
		return nil
	})
	if err != nil {
		log.Errorw("ipn reconcile failed", "order_id", order.ID, "txn_ref", cb.TxnRef, "error", err)
		return ackUnknownError
	}

	switch result {
	case outcomeDuplicate, outcomeAlreadyPaid:
		log.Infow("ipn already applied", "order_id", order.ID, "txn_ref", cb.TxnRef, "gateway_ref", cb.GatewayTransactionRef)
	case outcomePaid, outcomeFailed:
		s.afterCommit(ctx, order.ID, result, reviewReason, now)
	}
	return ackSuccess
}

func (s *ReconcileService) afterCommit(ctx context.Context, orderID uint, result outcome, reviewReason string, at time.Time) {
	log := helper.Logger(ctx)
	order, err := s.store.Orders().FindByID(ctx, orderID)
	if err != nil {
		log.Warnw("reload order after ipn failed", "order_id", orderID, "error", err)
		return
	}

	if result == outcomeFailed {
		log.Infow("payment failed", "order_id", order.ID, "link", order.Link)
		publish(ctx, s.events, events.PaymentFailedRoutingKey, order, at)
		return
	}

	log.Infow("payment confirmed", "order_id", order.ID, "link", order.Link, "paid_amount", order.PaidAmount)
	publish(ctx, s.events, events.PaymentConfirmedRoutingKey, order, at)
	if reviewReason != "" {
		s.notifyReview(ctx, order, reviewReason)
		return
	}
	if err := s.notifier.OrderPaid(ctx, order); err != nil {
		log.Warnw("order paid mail failed", "order_id", order.ID, "error", err)
	}
}

// HandleReturn chỉ xác thực chữ ký và đọc trạng thái hiện tại của đơn, không ghi gì
func (s *ReconcileService) HandleReturn(ctx context.Context, values url.Values) ReturnResult {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	cb, err := s.gateway.ParseCallback(values)
	if err != nil {
		rej := rejectCallback(err)
		helper.Logger(ctx).Warnw("return callback rejected", "txn_ref", values.Get("vnp_TxnRef"), "code", rej.Code, "error", rej)
		return ReturnResult{}
	}

	res := ReturnResult{Valid: true, ResponseCode: cb.ResponseCode}
	order, err := s.store.Orders().FindByID(ctx, cb.OrderID)
	if err != nil {
		return res
	}
	res.Link = order.Link
	res.Status = order.Status
	res.PaymentStatus = order.PaymentStatus
	return res
}

// rejectionAck: mã VNPay cho callback bị từ chối. Callback hỏng không xác định
// được đơn nên trả 01.
func rejectionAck(rej *Error) model.IPNResponse {
	switch rej.Code {
	case constants.ERR_INVALID_SIGNATURE:
		return ackInvalidSignature
	case constants.ERR_AMOUNT_MISMATCH:
		return ackInvalidAmount
	}
	return ackOrderNotFound
}

func (s *ReconcileService) notifyReview(ctx context.Context, o model.Order, reason string) {
	if err := s.notifier.ReviewRequired(ctx, o, reason); err != nil {
		helper.Logger(ctx).Warnw("review alert failed", "order_id", o.ID, "error", err)
	}
}
