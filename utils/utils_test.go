package utils

import (
	"bytes"
	"context"
	"encoding/base64"
	"image/png"
	"strings"
	"testing"

	"storefront/config"
	"storefront/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQRCodeDataURL(t *testing.T) {
	url, err := QRCodeDataURL("http://localhost:5173/orders/ORD-0123456789", 128)
	require.NoError(t, err)

	const prefix = "data:image/png;base64,"
	require.True(t, strings.HasPrefix(url, prefix))

	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(url, prefix))
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, 128, img.Bounds().Dx())
}

func TestMailer_DisabledWithoutSMTPHost(t *testing.T) {
	m := NewMailer(config.Settings{AlertEmail: "ops@example.com"})
	m.async = false

	order := model.Order{Link: "ORD-0123456789", Email: "khach@example.com"}
	assert.NoError(t, m.OrderPaid(context.Background(), order))
	assert.NoError(t, m.ReviewRequired(context.Background(), order, "amount mismatch"))
}

func TestMailer_RenderOrderPaid(t *testing.T) {
	var body bytes.Buffer
	err := orderPaidTmpl.Execute(&body, OrderPaidData{
		Order: model.Order{
			FullName:   "Nguyễn Văn An",
			Link:       "ORD-0123456789",
			PaidAmount: 580000,
			Items:      []model.OrderItem{{ProductName: "Áo thun", Quantity: 2, Subtotal: 600000}},
		},
		DetailLink: "http://localhost:5173/orders/ORD-0123456789",
	})
	require.NoError(t, err)
	assert.Contains(t, body.String(), "ORD-0123456789")
	assert.Contains(t, body.String(), "580000 VND")
	assert.Contains(t, body.String(), "x2")
}
