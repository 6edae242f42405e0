package service

import (
	"context"
	"errors"

	"storefront/constants"
	"storefront/gateway"
	"storefront/helper"
	"storefront/model"
	"storefront/repository"
)

type PaymentService struct {
	store   repository.Store
	gateway PaymentGateway
}

func NewPaymentService(store repository.Store, gw PaymentGateway) *PaymentService {
	return &PaymentService{store: store, gateway: gw}
}

// CreatePaymentURL tạo một lần thanh toán mới (TxnRef mới) cho đơn chuyển khoản
func (s *PaymentService) CreatePaymentURL(ctx context.Context, userID, orderID uint, ipAddr string) (string, error) {
	order, err := s.store.Orders().FindByID(ctx, orderID)
	if errors.Is(err, repository.ErrNotFound) {
		return "", errOrderNotFound()
	}
	if err != nil {
		return "", err
	}
	if order.UserID != userID {
		return "", errOrderNotFound()
	}

	switch {
	case order.PaymentMethod != constants.METHOD_BANKING:
		return "", newError(KindConflict, constants.ERR_ORDER_NOT_PAYABLE, "Đơn hàng không dùng phương thức chuyển khoản")
	case order.PaymentStatus == constants.PAYMENT_PAID:
		return "", newError(KindConflict, constants.ERR_ORDER_NOT_PAYABLE, "Đơn hàng đã được thanh toán")
	case order.Status != constants.ORDER_PENDING:
		return "", newError(KindConflict, constants.ERR_ORDER_NOT_PAYABLE, "Đơn hàng không ở trạng thái chờ thanh toán")
	}

	req := model.PaymentRequest{
		Amount:    order.FinalAmount,
		OrderInfo: "Thanh toan don hang " + order.Link,
		TxnRef:    gateway.NewTxnRef(order.ID, helper.NewTxnSuffix()),
		IPAddr:    ipAddr,
	}

	paymentURL, err := s.gateway.BuildPaymentUrl(req)
	if err != nil {
		return "", transient("Không tạo được link thanh toán", err)
	}

	txn := model.PaymentTransaction{
		OrderID: order.ID,
		TxnRef:  req.TxnRef,
		Amount:  req.Amount,
		Status:  constants.TXN_PENDING,
	}
	if err := s.store.PaymentTransactions().Create(ctx, &txn); err != nil {
		return "", transient("Không tạo được giao dịch thanh toán", err)
	}

	helper.Logger(ctx).Infow("payment url created", "order_id", order.ID, "txn_ref", txn.TxnRef, "amount", txn.Amount)
	return paymentURL, nil
}
