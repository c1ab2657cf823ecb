package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"marketbay-backend/internal/client"
	"marketbay-backend/internal/config"
	"marketbay-backend/internal/notify"
	"marketbay-backend/internal/repository"
	"marketbay-backend/internal/server"
	"marketbay-backend/internal/service"
	"marketbay-backend/pkg/logging"
	"marketbay-backend/pkg/shutdown"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

func main() {
	// load .env into os.Environ
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found (ok in prod)")
	}

	cfg := &config.Config{}
	if err := env.Parse(cfg); err != nil {
		fmt.Printf("Failed to parse config: %v\n", err)
		os.Exit(1)
	}

	log := logging.New(cfg.Log.Level, cfg.Log.Format)

	db := client.InitMysqlClient(cfg.DatabaseURL)

	productRepo := repository.NewProductRepository(db)
	variantRepo := repository.NewVariantRepository(db)
	couponRepo := repository.NewCouponRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	customerRepo := repository.NewCustomerRepository(db)

	notifier := notify.New(log, &notify.LogSender{Log: log})
	defer notifier.Close()

	couponService := service.NewCouponService(couponRepo)
	checkoutService := service.NewCheckoutService(
		db, log,
		service.Pricing{
			FreeShippingThreshold: decimal.NewFromFloat(cfg.Shipping.FreeThreshold),
			FlatShippingRate:      decimal.NewFromFloat(cfg.Shipping.FlatRate),
		},
		cfg.Order.NumberPrefix,
		productRepo, variantRepo, orderRepo, customerRepo,
		couponService, notifier,
	)
	orderService := service.NewOrderService(db, log, orderRepo, variantRepo, customerRepo, notifier)
	customerService := service.NewCustomerService(customerRepo)
	inventoryService := service.NewInventoryService(db, log, variantRepo, productRepo)

	srv := server.NewServer(checkoutService, couponService, orderService, customerService, inventoryService)

	serverAddr := cfg.HTTP.Host + ":" + cfg.HTTP.Port
	log.Info("starting HTTP server", "addr", serverAddr, "env", cfg.Environment.Name)

	go func() {
		if err := srv.Start(serverAddr); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error", "err", err)
			os.Exit(1)
		}
	}()

	ctx, cancel := shutdown.WithSignals(context.Background())
	defer cancel()
	<-ctx.Done()

	log.Info("signal received, starting graceful shutdown")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", "err", err)
	}
}
