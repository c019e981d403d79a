package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/smarttransit/carrier-reservations/internal/config"
	"github.com/smarttransit/carrier-reservations/internal/database"
	"github.com/smarttransit/carrier-reservations/internal/handlers"
	"github.com/smarttransit/carrier-reservations/internal/middleware"
	"github.com/smarttransit/carrier-reservations/internal/services"
	"github.com/smarttransit/carrier-reservations/pkg/jwt"
	"github.com/smarttransit/carrier-reservations/pkg/validator"
)

var (
	version   = "1.0.0"
	buildTime = "unknown"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	logger.Info("Starting carrier reservations back office")
	logger.Infof("Version: %s, Build Time: %s", version, buildTime)

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	logLevel, err := logrus.ParseLevel(cfg.Server.LogLevel)
	if err != nil {
		logger.Warn("Invalid log level, using INFO")
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	logger.Info("Connecting to database...")
	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Fatalf("Failed to ping database: %v", err)
	}

	schemaCtx, cancelSchema := context.WithTimeout(context.Background(), 30*time.Second)
	if err := database.EnsureSchema(schemaCtx, db); err != nil {
		cancelSchema()
		logger.Fatalf("Failed to apply schema: %v", err)
	}
	cancelSchema()
	logger.Info("Database connection established")

	// Repositories
	stopRepository := database.NewStopRepository(db, logger)
	routeRepository := database.NewRouteRepository(db, stopRepository, logger)
	flightRepository := database.NewFlightRepository(db, routeRepository, logger)
	passengerRepository := database.NewPassengerRepository(db, logger)
	ticketRepository := database.NewTicketRepository(db, flightRepository, passengerRepository, logger)

	// Services
	jwtService := jwt.NewService(
		cfg.JWT.Secret,
		cfg.JWT.RefreshSecret,
		cfg.JWT.AccessTokenExpiry,
		cfg.JWT.RefreshTokenExpiry,
	)
	phoneValidator := validator.NewPhoneValidator()
	bookingService := services.NewBookingService(
		flightRepository,
		passengerRepository,
		ticketRepository,
		cfg.Booking.HoldDuration,
		logger,
	)
	reportService := services.NewReportService(flightRepository, ticketRepository)
	expirationService := services.NewBookingExpirationService(ticketRepository, logger)

	cronService := services.NewCronService(expirationService, cfg.Booking.ExpirySweepSchedule, logger)
	if err := cronService.Start(); err != nil {
		logger.Fatalf("Failed to start cron service: %v", err)
	}
	logger.WithField("schedule", cfg.Booking.ExpirySweepSchedule).Info("Cron service started - expired holds are released automatically")

	// Handlers
	stopHandler := handlers.NewStopHandler(stopRepository, logger)
	routeHandler := handlers.NewRouteHandler(routeRepository, stopRepository, logger)
	flightHandler := handlers.NewFlightHandler(flightRepository, routeRepository, ticketRepository, bookingService, reportService, logger)
	passengerHandler := handlers.NewPassengerHandler(passengerRepository, ticketRepository, phoneValidator, logger)
	ticketHandler := handlers.NewTicketHandler(ticketRepository, bookingService, phoneValidator, logger)
	reportHandler := handlers.NewReportHandler(reportService, logger)
	maintenanceHandler := handlers.NewMaintenanceHandler(cronService, logger)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.RequestLogger(logger))
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     cfg.CORS.AllowedMethods,
		AllowHeaders:     cfg.CORS.AllowedHeaders,
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/health", healthCheckHandler(db))

	planners := middleware.RequireRole(jwt.RoleAdmin, jwt.RoleDispatcher)
	cashiers := middleware.RequireRole(jwt.RoleAdmin, jwt.RoleCashier)
	admins := middleware.RequireRole(jwt.RoleAdmin)

	v1 := router.Group("/api/v1")
	v1.Use(middleware.AuthMiddleware(jwtService, logger))
	{
		stops := v1.Group("/stops")
		{
			stops.GET("", stopHandler.ListStops)
			stops.GET("/:id", stopHandler.GetStop)
			stops.POST("", planners, stopHandler.CreateStop)
		}

		routes := v1.Group("/routes")
		{
			routes.GET("", routeHandler.ListRoutes)
			routes.GET("/:id", routeHandler.GetRoute)
			routes.POST("", planners, routeHandler.CreateRoute)
		}

		flights := v1.Group("/flights")
		{
			flights.GET("", flightHandler.ListFlights)
			flights.GET("/:id", flightHandler.GetFlight)
			flights.GET("/:id/seats", flightHandler.GetSeatMap)
			flights.GET("/:id/load", flightHandler.GetFlightLoad)
			flights.GET("/:id/tickets", flightHandler.GetFlightTickets)
			flights.POST("", planners, flightHandler.CreateFlight)
			flights.PUT("/:id", planners, flightHandler.UpdateFlight)
			flights.PATCH("/:id/status", planners, flightHandler.UpdateFlightStatus)
		}

		passengers := v1.Group("/passengers")
		{
			passengers.GET("", passengerHandler.ListPassengers)
			passengers.GET("/lookup", passengerHandler.LookupPassenger)
			passengers.GET("/:id", passengerHandler.GetPassenger)
			passengers.GET("/:id/tickets", passengerHandler.GetPassengerTickets)
			passengers.PUT("/:id", cashiers, passengerHandler.UpdatePassenger)
		}

		tickets := v1.Group("/tickets")
		{
			tickets.GET("", ticketHandler.ListTickets)
			tickets.GET("/:id", ticketHandler.GetTicket)
			tickets.POST("", cashiers, ticketHandler.BookTicket)
			tickets.POST("/:id/sell", cashiers, ticketHandler.SellTicket)
			tickets.POST("/:id/cancel", cashiers, ticketHandler.CancelTicket)
		}

		reports := v1.Group("/reports", planners)
		{
			reports.GET("/sales", reportHandler.GetSalesByRoute)
			reports.GET("/ticket-counts", reportHandler.GetTicketCounts)
			reports.GET("/daily-load", reportHandler.GetDailyLoad)
		}

		admin := v1.Group("/admin", admins)
		{
			admin.GET("/jobs", maintenanceHandler.GetJobStatus)
			admin.POST("/jobs/release-expired-holds", maintenanceHandler.ReleaseExpiredHolds)
		}
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Infof("Server starting on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	logger.Info("Stopping cron service...")
	cronService.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited successfully")
}

// healthCheckHandler returns a health check endpoint
func healthCheckHandler(db database.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"database": "unhealthy",
				"error":    err.Error(),
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"database":  "healthy",
			"version":   version,
			"timestamp": time.Now().Unix(),
		})
	}
}
