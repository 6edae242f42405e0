package utils

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/smtp"
	"strconv"

	"storefront/config"
	"storefront/model"

	"github.com/gofiber/fiber/v2/log"
	"github.com/jordan-wright/email"
	"gopkg.in/gomail.v2"
)

var orderPaidTmpl = template.Must(template.New("order_paid").Parse(`<p>Xin chào {{.FullName}},</p>
<p>Đơn hàng <b>{{.Link}}</b> đã được thanh toán thành công.</p>
<table>
{{range .Items}}<tr><td>{{.ProductName}}{{if .Variant}} ({{.Variant}}){{end}}</td><td>x{{.Quantity}}</td><td>{{.Subtotal}} VND</td></tr>
{{end}}</table>
<p>Tạm tính: {{.TotalAmount}} VND<br>Giảm giá: {{.Discount}} VND<br>Phí vận chuyển: {{.ShippingFee}} VND<br>
<b>Đã thanh toán: {{.PaidAmount}} VND</b></p>
<p><a href="{{.DetailLink}}">Xem chi tiết đơn hàng</a></p>`))

// OrderPaidData dữ liệu cho template email
type OrderPaidData struct {
	model.Order
	DetailLink string
}

// Mailer gửi mail xác nhận cho khách (gomail) và mail cảnh báo cho vận hành (email)
type Mailer struct {
	smtp        config.SMTPSettings
	alertTo     string
	frontendURL string
	async       bool
}

func NewMailer(s config.Settings) *Mailer {
	return &Mailer{smtp: s.SMTP, alertTo: s.AlertEmail, frontendURL: s.FrontendURL, async: true}
}

func (m *Mailer) enabled() bool {
	return m.smtp.Host != ""
}

// OrderPaid gửi email xác nhận thanh toán (async để không giữ IPN)
func (m *Mailer) OrderPaid(ctx context.Context, order model.Order) error {
	if !m.enabled() || order.Email == "" {
		return nil
	}

	var body bytes.Buffer
	data := OrderPaidData{Order: order, DetailLink: m.frontendURL + "/orders/" + order.Link}
	if err := orderPaidTmpl.Execute(&body, data); err != nil {
		return fmt.Errorf("render order paid mail: %w", err)
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.smtp.From)
	msg.SetHeader("To", order.Email)
	msg.SetHeader("Subject", "Xác nhận thanh toán đơn hàng #"+order.Link)
	msg.SetBody("text/html", body.String())

	d := gomail.NewDialer(m.smtp.Host, m.smtp.Port, m.smtp.Username, m.smtp.Password)
	return m.run(func() error { return d.DialAndSend(msg) }, "order_link", order.Link)
}

// ReviewRequired báo cho vận hành một đơn cần kiểm tra tay
func (m *Mailer) ReviewRequired(ctx context.Context, order model.Order, reason string) error {
	if !m.enabled() || m.alertTo == "" {
		return nil
	}

	e := email.NewEmail()
	e.From = m.smtp.From
	e.To = []string{m.alertTo}
	e.Subject = "[Cần kiểm tra] Đơn hàng " + order.Link
	e.Text = []byte(fmt.Sprintf(
		"Đơn hàng: %s (id %d)\nTrạng thái: %s / %s\nSố tiền: %d VND, đã thu %d VND\nLý do: %s\n",
		order.Link, order.ID, order.Status, order.PaymentStatus, order.FinalAmount, order.PaidAmount, reason,
	))

	addr := m.smtp.Host + ":" + strconv.Itoa(m.smtp.Port)
	auth := smtp.PlainAuth("", m.smtp.Username, m.smtp.Password, m.smtp.Host)
	return m.run(func() error { return e.Send(addr, auth) }, "order_link", order.Link)
}

func (m *Mailer) run(send func() error, keysAndValues ...interface{}) error {
	if !m.async {
		return send()
	}
	go func() {
		if err := send(); err != nil {
			log.Warnw("send mail failed", append(keysAndValues, "error", err)...)
		}
	}()
	return nil
}
