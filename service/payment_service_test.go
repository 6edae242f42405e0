package service

import (
	"net/url"
	"strconv"
	"testing"

	"storefront/constants"
	"storefront/gateway"
	"storefront/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreatePaymentURL(t *testing.T) {
	f := newFixture(t)
	order := f.checkout(1, constants.METHOD_BANKING, model.DirectItemInput{ProductId: f.shirt.ID, Quantity: 2})

	raw, err := f.payments.CreatePaymentURL(f.ctx, 1, order.ID, "10.0.0.7")
	require.NoError(t, err)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	q := u.Query()
	assert.Equal(t, strconv.FormatInt(order.FinalAmount*100, 10), q.Get("vnp_Amount"))
	assert.Equal(t, "10.0.0.7", q.Get("vnp_IpAddr"))
	assert.True(t, f.gw.Verify(q))

	orderID, err := gateway.OrderIDFromTxnRef(q.Get("vnp_TxnRef"))
	require.NoError(t, err)
	assert.Equal(t, order.ID, orderID)

	txn, err := f.store.PaymentTransactions().FindByTxnRef(f.ctx, q.Get("vnp_TxnRef"))
	require.NoError(t, err)
	assert.Equal(t, constants.TXN_PENDING, txn.Status)
	assert.Equal(t, order.FinalAmount, txn.Amount)
	assert.Nil(t, txn.ProcessedAt)
}

func TestCreatePaymentURL_NewTxnRefPerAttempt(t *testing.T) {
	f := newFixture(t)
	order, first := f.bankingOrder(1)

	raw, err := f.payments.CreatePaymentURL(f.ctx, 1, order.ID, "127.0.0.1")
	require.NoError(t, err)
	u, _ := url.Parse(raw)
	assert.NotEqual(t, first, u.Query().Get("vnp_TxnRef"))
}

func TestCreatePaymentURL_Rejections(t *testing.T) {
	f := newFixture(t)
	cod := f.checkout(1, constants.METHOD_COD, model.DirectItemInput{ProductId: f.shirt.ID, Quantity: 1})
	banking, txnRef := f.bankingOrder(1)

	_, err := f.payments.CreatePaymentURL(f.ctx, 1, cod.ID, "127.0.0.1")
	assert.True(t, IsCode(err, constants.ERR_ORDER_NOT_PAYABLE))

	_, err = f.payments.CreatePaymentURL(f.ctx, 2, banking.ID, "127.0.0.1")
	assert.True(t, IsCode(err, constants.ERR_ORDER_NOT_FOUND))

	_, err = f.payments.CreatePaymentURL(f.ctx, 1, 424242, "127.0.0.1")
	assert.True(t, IsCode(err, constants.ERR_ORDER_NOT_FOUND))

	f.reconcile.HandleIPN(f.ctx, f.ipn(txnRef, banking.FinalAmount, "00", "7001"))
	_, err = f.payments.CreatePaymentURL(f.ctx, 1, banking.ID, "127.0.0.1")
	assert.True(t, IsCode(err, constants.ERR_ORDER_NOT_PAYABLE))
}
