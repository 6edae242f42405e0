package repository

import (
	"context"
	"errors"

	"storefront/model"

	"gorm.io/gorm"
)

type PaymentTransactionGormRepository struct {
	db *gorm.DB
}

func NewPaymentTransactionGormRepository(db *gorm.DB) *PaymentTransactionGormRepository {
	return &PaymentTransactionGormRepository{db: db}
}

func (r *PaymentTransactionGormRepository) Create(ctx context.Context, txn *model.PaymentTransaction) error {
	err := r.db.WithContext(ctx).Omit("Order").Create(txn).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicate
	}
	return err
}

func (r *PaymentTransactionGormRepository) FindByTxnRef(ctx context.Context, txnRef string) (model.PaymentTransaction, error) {
	var txn model.PaymentTransaction
	err := r.db.WithContext(ctx).Where("txn_ref = ?", txnRef).First(&txn).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.PaymentTransaction{}, ErrNotFound
	}
	if err != nil {
		return model.PaymentTransaction{}, err
	}
	return txn, nil
}

func (r *PaymentTransactionGormRepository) IsGatewayRefProcessed(ctx context.Context, orderID uint, gatewayRef string) (bool, error) {
	if gatewayRef == "" {
		return false, nil
	}
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.PaymentTransaction{}).
		Where("order_id = ? AND gateway_transaction_ref = ? AND processed_at IS NOT NULL", orderID, gatewayRef).
		Count(&count).Error
	return count > 0, err
}

func (r *PaymentTransactionGormRepository) MarkProcessed(ctx context.Context, id uint, res TxnResult) (bool, error) {
	out := r.db.WithContext(ctx).
		Model(&model.PaymentTransaction{}).
		Where("id = ? AND processed_at IS NULL", id).
		Updates(map[string]interface{}{
			"status":                  res.Status,
			"result_code":             res.ResultCode,
			"gateway_transaction_ref": res.GatewayTransactionRef,
			"raw_callback_payload":    res.RawCallbackPayload,
			"processed_at":            res.ProcessedAt,
		})
	if out.Error != nil {
		return false, out.Error
	}
	return out.RowsAffected == 1, nil
}
