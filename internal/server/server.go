package server

import (
	"context"

	"marketbay-backend/internal/handler"
	appmw "marketbay-backend/internal/middleware"
	"marketbay-backend/internal/service"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

type Server struct {
	echo             *echo.Echo
	checkoutHandler  *handler.CheckoutHandler
	couponHandler    *handler.CouponHandler
	orderHandler     *handler.OrderHandler
	customerHandler  *handler.CustomerHandler
	adminHandler     *handler.AdminOrderHandler
	inventoryHandler *handler.InventoryHandler
}

func NewServer(
	checkoutService service.CheckoutService,
	couponService service.CouponService,
	orderService service.OrderService,
	customerService service.CustomerService,
	inventoryService service.InventoryService,
) *Server {
	e := echo.New()

	e.Use(middleware.RequestLogger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(appmw.CustomerContext())

	s := &Server{
		echo:             e,
		checkoutHandler:  handler.NewCheckoutHandler(checkoutService),
		couponHandler:    handler.NewCouponHandler(couponService),
		orderHandler:     handler.NewOrderHandler(orderService),
		customerHandler:  handler.NewCustomerHandler(customerService),
		adminHandler:     handler.NewAdminOrderHandler(orderService),
		inventoryHandler: handler.NewInventoryHandler(inventoryService),
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.echo.Group("/api")

	api.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{"status": "ok"})
	})

	api.POST("/checkout", s.checkoutHandler.PlaceOrder)
	api.POST("/coupons/apply", s.couponHandler.Apply)
	api.POST("/orders/track", s.orderHandler.Track)

	// -------- customer orders --------
	orders := api.Group("/orders", appmw.RequireCustomer())
	orders.GET("", s.orderHandler.ListMine)
	orders.GET("/:number", s.orderHandler.GetByNumber)
	orders.POST("/:number/cancel", s.orderHandler.Cancel)

	// -------- address book --------
	me := api.Group("/me", appmw.RequireCustomer())
	me.GET("/addresses", s.customerHandler.ListAddresses)
	me.POST("/addresses", s.customerHandler.AddAddress)

	// -------- admin --------
	admin := api.Group("/admin")
	admin.GET("/orders", s.adminHandler.List)
	admin.GET("/orders/:id", s.adminHandler.Get)
	admin.PUT("/orders/:id/status", s.adminHandler.UpdateStatus)
	admin.PUT("/orders/:id/tracking", s.adminHandler.UpdateTracking)
	admin.PUT("/orders/:id/note", s.adminHandler.UpdateNote)
	admin.PUT("/orders/:id/mark-paid", s.adminHandler.MarkPaid)

	admin.GET("/inventory", s.inventoryHandler.List)
	admin.PUT("/inventory/:id/adjust", s.inventoryHandler.Adjust)
	admin.GET("/inventory/:id/ledger", s.inventoryHandler.Ledger)
}

func (s *Server) Start(address string) error {
	return s.echo.Start(address)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
