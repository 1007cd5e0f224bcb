// File: masu/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"masu/config"
	"masu/cron"
	"masu/database"
	catalogRepoPkg "masu/database/repository/catalog"
	guestRepoPkg "masu/database/repository/guest"
	orderRepoPkg "masu/database/repository/order"
	redemptionRepoPkg "masu/database/repository/redemption"
	"masu/handlers"
	"masu/routes"
	availabilitySvc "masu/services/availability"
	catalogSvc "masu/services/catalog"
	"masu/services/notification"
	orderSvc "masu/services/order"
	"masu/services/payment"
	pricingSvc "masu/services/pricing"
	redemptionSvc "masu/services/redemption"
	"masu/services/session"
	"masu/services/wizard"
	"masu/utils"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v76"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()

	database.InitDB()
	utils.InitRedis()
	utils.FirebaseInit()

	// Create the Gin router.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())
	stripe.Key = config.AppConfig.StripeKey

	// repositories.
	guestRepo := guestRepoPkg.NewMongoGuestRepo()
	catalogRepo := catalogRepoPkg.NewMongoCatalogRepo()
	redemptionRepo := redemptionRepoPkg.NewMongoRedemptionRepo()
	orderRepo := orderRepoPkg.NewMongoOrderRepo()

	// stores.
	snapshotStore := session.NewRedisSnapshotStore()
	handleStore := session.NewRedisHandleStore()

	// services.
	catalogService := catalogSvc.NewDefaultCatalogService(catalogRepo)
	priceService := pricingSvc.NewDefaultPriceService(catalogRepo, redemptionRepo)
	availabilityService := availabilitySvc.NewDefaultAvailabilityService(orderRepo)
	redemptionService := redemptionSvc.NewDefaultRedemptionService(redemptionRepo)
	orderService := orderSvc.NewDefaultOrderService(orderRepo, redemptionRepo)
	paymentGateway := payment.NewStripePaymentGateway()
	guestManager := wizard.NewGuestIdentityManager(guestRepo, handleStore)

	notificationService, err := notification.NewDefaultNotificationService(guestRepo)
	if err != nil {
		logger.Sugar().Fatalf("main: failed to initialize notification service: %v", err)
	}

	// Abandoned-session reminders.
	reminderScheduler := cron.NewAsynqReminderScheduler()
	defer reminderScheduler.Close()
	cron.InitReminderWorker(notificationService, snapshotStore)

	// Live session registry.
	registry := wizard.NewRegistry(time.Duration(config.AppConfig.SessionIdleMinutes) * time.Minute)
	defer registry.Close()

	wizardHandler := &handlers.WizardHandler{
		Registry:     registry,
		Catalog:      catalogService,
		Pricing:      priceService,
		Availability: availabilityService,
		Redemptions:  redemptionService,
		Guests:       guestManager,
		Orders:       orderService,
		Payments:     paymentGateway,
		Notifier:     notificationService,
		Snapshots:    snapshotStore,
		Reminders:    reminderScheduler,
	}

	routes.RegisterRoutes(router, wizardHandler)

	// Start the HTTP server.
	port := config.AppConfig.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Sugar().Fatalf("main: server forced to shutdown: %v", err)
	}

	logger.Sugar().Info("main: server stopped gracefully")
}
