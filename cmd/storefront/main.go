package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/rebika14/eyee-wear-store/internal/auth"
	"github.com/rebika14/eyee-wear-store/internal/config"
	"github.com/rebika14/eyee-wear-store/internal/controllers"
	"github.com/rebika14/eyee-wear-store/internal/database"
	"github.com/rebika14/eyee-wear-store/internal/httperr"
	"github.com/rebika14/eyee-wear-store/internal/kafka"
	"github.com/rebika14/eyee-wear-store/internal/logger"
	"github.com/rebika14/eyee-wear-store/internal/models"
	"github.com/rebika14/eyee-wear-store/internal/realtime"
	"github.com/rebika14/eyee-wear-store/internal/repository"
	"github.com/rebika14/eyee-wear-store/internal/routes"
	"github.com/rebika14/eyee-wear-store/internal/services"
)

func main() {

	// Load environment configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.Initialize(cfg.Environment)
	defer logger.Log.Sync()

	// Connect Postgres and run migrations
	db, err := database.ConnectPostgres(cfg,
		&models.Product{},
		&models.Customer{},
		&models.Order{},
		&models.OrderItem{},
		&models.Account{},
		&models.PaymentReconciliation{},
	)
	if err != nil {
		logger.Log.Fatal("Failed to connect to Postgres", zap.Error(err))
	}

	// Connect Redis (carts, pending transactions, change feed)
	redisClient, err := database.NewRedisClient(cfg.RedisURL)
	if err != nil {
		logger.Log.Fatal("Failed to connect to Redis", zap.Error(err))
	}

	feed := realtime.NewHub(redisClient, logger.Log)

	// Repositories
	productRepo := repository.NewGormProductRepository(db, feed, logger.Log)
	customerRepo := repository.NewGormCustomerRepository(db, feed, logger.Log)
	orderRepo := repository.NewGormOrderRepository(db, feed, logger.Log)
	accountRepo := repository.NewGormAccountRepository(db)
	cartRepo := repository.NewCartRepository(redisClient, cfg.CartTTL)
	pendingRepo := repository.NewPendingRepository(redisClient, cfg.PendingTTL)

	// Order event fan-out is optional; without brokers the services simply
	// skip publishing.
	var events services.EventPublisher
	if cfg.KafkaBrokers != "" {
		producer := kafka.NewProducer(strings.Split(cfg.KafkaBrokers, ","), cfg.OrderEventTopic)
		defer producer.Close()
		events = producer
	}

	// Services
	tokens := auth.NewTokenService(cfg.JWTSecret, 24*time.Hour)
	khalti := services.NewKhaltiService(cfg.KhaltiBaseURL, cfg.KhaltiSecretKey, cfg.ReturnURL, cfg.WebsiteURL)
	orderSvc := services.NewOrderService(orderRepo, customerRepo, events, logger.Log)
	checkoutSvc := services.NewCheckoutService(cartRepo, pendingRepo, khalti, orderSvc, orderRepo, cfg.ShippingFee, logger.Log)
	authSvc := services.NewAuthService(accountRepo, customerRepo, tokens, logger.Log)

	// Live views over the change feed
	ctx := context.Background()
	productView := realtime.NewProductView(productRepo, feed, logger.Log)
	if err := productView.Start(ctx); err != nil {
		logger.Log.Fatal("Failed to start product view", zap.Error(err))
	}
	defer productView.Stop()

	orderView := realtime.NewOrderView(orderRepo, feed, logger.Log)
	if err := orderView.Start(ctx); err != nil {
		logger.Log.Fatal("Failed to start order view", zap.Error(err))
	}
	defer orderView.Stop()

	customerView := realtime.NewCustomerView(customerRepo, feed, logger.Log)
	if err := customerView.Start(ctx); err != nil {
		logger.Log.Fatal("Failed to start customer view", zap.Error(err))
	}
	defer customerView.Stop()

	// Controllers
	authCtrl := controllers.NewAuthController(authSvc, logger.Log)
	cartCtrl := controllers.NewCartController(cartRepo, productRepo, logger.Log)
	checkoutCtrl := controllers.NewCheckoutController(checkoutSvc, logger.Log)
	productCtrl := controllers.NewProductController(productRepo, productView, logger.Log)
	orderCtrl := controllers.NewOrderController(orderSvc, orderView, customerView, logger.Log)

	// HTTP server
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(logger.RequestLogger())
	router.Use(httperr.ErrorMiddleware())

	routes.Register(router, tokens, authCtrl, cartCtrl, checkoutCtrl, productCtrl, orderCtrl)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Log.Info("Storefront is running", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal("Server failed", zap.Error(err))
		}
	}()

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Log.Info("Shutting down gracefully...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Fatal("Shutdown error", zap.Error(err))
	}
	logger.Log.Info("Server shutdown complete")
}
