package memstore

import (
	"context"

	"storefront/constants"
	"storefront/model"
	"storefront/repository"
)

type txnRepo struct{ *repos }

func (r txnRepo) Create(ctx context.Context, txn *model.PaymentTransaction) error {
	defer r.acquire()()
	for _, t := range r.d().txns {
		if t.TxnRef == txn.TxnRef {
			return repository.ErrDuplicate
		}
	}
	if txn.Status == "" {
		txn.Status = constants.TXN_PENDING
	}
	txn.ID = r.d().nextID()
	txn.CreatedAt, txn.UpdatedAt = r.s.now(), r.s.now()
	stored := *txn
	stored.Order = model.Order{}
	r.d().txns[txn.ID] = stored
	return nil
}

func (r txnRepo) FindByTxnRef(ctx context.Context, txnRef string) (model.PaymentTransaction, error) {
	defer r.acquire()()
	for _, t := range r.d().txns {
		if t.TxnRef == txnRef {
			return t, nil
		}
	}
	return model.PaymentTransaction{}, repository.ErrNotFound
}

func (r txnRepo) IsGatewayRefProcessed(ctx context.Context, orderID uint, gatewayRef string) (bool, error) {
	defer r.acquire()()
	if gatewayRef == "" {
		return false, nil
	}
	for _, t := range r.d().txns {
		if t.OrderID == orderID && t.GatewayTransactionRef == gatewayRef && t.ProcessedAt != nil {
			return true, nil
		}
	}
	return false, nil
}

func (r txnRepo) MarkProcessed(ctx context.Context, id uint, res repository.TxnResult) (bool, error) {
	defer r.acquire()()
	t, ok := r.d().txns[id]
	if !ok || t.ProcessedAt != nil {
		return false, nil
	}
	at := res.ProcessedAt
	t.Status = res.Status
	t.ResultCode = res.ResultCode
	t.GatewayTransactionRef = res.GatewayTransactionRef
	t.RawCallbackPayload = res.RawCallbackPayload
	t.ProcessedAt = &at
	t.UpdatedAt = r.s.now()
	r.d().txns[id] = t
	return true, nil
}
