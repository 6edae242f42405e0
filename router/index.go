package router

import (
	"storefront/handler"
	"storefront/middleware"
	"storefront/validate"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
)

func SetupRoutes(app *fiber.App, h *handler.Handler, jwtSecret []byte) {
	protected := middleware.Protected(jwtSecret)

	app.Get("/healthz", handler.Healthz)

	api := app.Group("/", logger.New())

	cart := api.Group("/cart", protected)
	cart.Get("/", h.GetCart)
	cart.Delete("/", h.AbandonCart)
	cart.Post("/add", validate.AddCartItem(), h.AddCartItem)
	cart.Put("/item/:itemId", validate.GetById("itemId"), validate.UpdateCartItem(), h.UpdateCartItem)
	cart.Delete("/item/:itemId", validate.GetById("itemId"), h.RemoveCartItem)
	cart.Post("/apply-voucher", validate.ApplyVoucher(), h.ApplyVoucher)
	cart.Delete("/remove-voucher", h.RemoveVoucher)

	orders := api.Group("/orders", protected)
	orders.Get("/", validate.Pagination(), h.GetMyOrders)
	orders.Post("/create", validate.CreateOrder(), h.CreateOrder)
	orders.Get("/:link", validate.OrderLink("link"), h.GetOrderDetail)
	orders.Post("/:link/cancel", validate.OrderLink("link"), h.CancelOrderByUser)

	admin := api.Group("/admin", protected, middleware.AdminOnly())
	admin.Patch("/orders/:link/status", validate.OrderLink("link"), validate.UpdateOrderStatus(), h.UpdateOrderStatus)

	payment := api.Group("/payment")
	payment.Post("/create_payment_url", protected, validate.CreatePayment(), h.CreatePaymentURL)
	// Callback từ VNPay
	payment.Get("/return", h.VNPayReturn)
	// Server-to-Server
	payment.Get("/ipn", h.VNPayIPN)
	payment.Post("/ipn", h.VNPayIPN)

	app.Get("/ws/orders/:link", protected, handler.UpgradeWebsocket, websocket.New(h.OrderStatusSocket))
}
