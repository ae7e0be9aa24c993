package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"booking-service/internal/appointments"
	"booking-service/internal/assignment"
	"booking-service/internal/auth"
	"booking-service/internal/blocks"
	"booking-service/internal/bookings"
	"booking-service/internal/clients"
	"booking-service/internal/drivers"
	"booking-service/internal/notify"
	"booking-service/internal/pricing"
	"booking-service/internal/reservations"
	"booking-service/internal/respond"
	"booking-service/internal/schedule"
	"booking-service/internal/tracking"
	"booking-service/internal/vehicles"
	"booking-service/migrations"
	"booking-service/pkg/config"
	"booking-service/pkg/db"
	"booking-service/pkg/jwt"
	"booking-service/pkg/kafka"
	"booking-service/pkg/logger"
	rredis "booking-service/pkg/redis"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(config.Load())
		},
	}
}

func serve(cfg config.Config) error {
	log := logger.New(cfg.ServiceName, cfg.LoggerLevel)
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ── 1. Signing + scheduling ──
	signer, err := jwt.NewSigner(cfg.JWTSecret, cfg.JWTTTL)
	if err != nil {
		return err
	}
	clock, err := schedule.New(cfg.OperatingTimezone)
	if err != nil {
		return err
	}

	// ── 2. PostgreSQL ──
	database, err := db.Connect(ctx, cfg.DatabaseURL, log)
	if err != nil {
		return err
	}
	defer database.Close()

	if err := database.RunMigrations(migrations.FS); err != nil {
		return err
	}

	// ── 3. Redis ──
	redisClient, err := rredis.NewClient(ctx, cfg.RedisAddr, cfg.RedisPassword, log)
	if err != nil {
		return err
	}
	defer redisClient.Close()

	// ── 4. Kafka ──
	var (
		pub         bookings.Publisher
		kafkaClient *kafka.Client
	)
	if cfg.EventsEnabled {
		kafkaClient = kafka.NewClient(cfg.KafkaBrokers, log)
		defer kafkaClient.Close()
		if err := kafkaClient.EnsureTopics(ctx, kafka.Topics...); err != nil {
			return err
		}
		pub = kafkaClient
	}

	// ── 5. Services ──
	hub := tracking.NewHub(log)

	driverRepo := drivers.NewRepo(database.Pool)
	reservationRepo := reservations.NewRepo(database.Pool)

	notifier := notify.NewNotifier(driverRepo, reservationRepo, notify.NewLogSender(log), clock, log)

	quoteSvc := pricing.NewService(
		pricing.NewCalculator(clock, cfg.OpenTime, cfg.CloseTime, cfg.MinLeadHours),
		redisClient, cfg.QuoteTTL, log)
	bookingSvc := bookings.NewService(
		bookings.NewPGTransactor(database), bookings.NewRepo(database.Pool),
		assignment.NewEngine(clock), clock, pub, log, cfg.MinLeadHours)
	reservationSvc := reservations.NewService(
		reservations.NewPGStore(database), reservationRepo, pub, hub, clock, log)
	driverSvc := drivers.NewService(driverRepo, signer)
	vehicleSvc := vehicles.NewService(vehicles.NewRepo(database.Pool), redisClient, hub, log)

	// ── 6. Background consumers ──
	if kafkaClient != nil {
		kafkaClient.Subscribe(ctx, kafka.TopicDriverAssigned, cfg.ServiceName+"-notify", notifier.HandleDriverAssigned)
	}

	// ── 7. HTTP router ──
	cookies := auth.NewCookieSession(cfg.CookieHashKey, cfg.CookieBlockKey, cfg.JWTTTL)

	bookingH := bookings.NewHandler(bookingSvc, log)
	reservationH := reservations.NewHandler(reservationSvc, log)
	driverH := drivers.NewHandler(driverSvc, notifier, log)
	vehicleH := vehicles.NewHandler(vehicleSvc, log)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(respond.RequestLogger(log))
	r.Use(chimw.Recoverer)
	r.Use(auth.Gate(log, auth.NewAdminKey(cfg.AdminAPIKey), auth.NewSignedSession(signer), cookies))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		respond.OK(w, http.StatusOK, map[string]any{"service": cfg.ServiceName})
	})

	r.Mount("/quotes", pricing.NewHandler(quoteSvc, log).Routes())
	r.Mount("/bookings", bookingH.Routes())
	r.Mount("/auth/driver", driverH.LoginRoutes())
	r.Mount("/auth/admin", auth.NewSessionHandler(cfg.AdminAPIKey, cookies, log).Routes())
	r.Mount("/ws", hub.Routes())
	r.Mount("/telemetry", vehicleH.TelemetryRoutes())

	r.Route("/driver", func(r chi.Router) {
		r.Use(auth.Require(log, auth.RoleDriver))
		r.Mount("/reservations", reservationH.DriverRoutes())
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(auth.Require(log, auth.RoleAdmin))
		r.Mount("/clients", clients.NewHandler(clients.NewService(clients.NewRepo(database.Pool)), log).Routes())
		r.Mount("/vehicles", vehicleH.AdminRoutes())
		r.Mount("/drivers", driverH.AdminRoutes())
		r.Mount("/blocks", blocks.NewHandler(blocks.NewService(blocks.NewRepo(database.Pool)), log).Routes())
		r.Mount("/reservations", reservationH.AdminRoutes())
		r.Mount("/appointments", appointments.NewHandler(
			appointments.NewRepo(database.Pool), assignment.NewRepo(database.Pool), log).Routes())
		r.Mount("/bookings", bookingH.AdminRoutes())
	})

	// ── 8. Start server ──
	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.HTTPPort),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", logger.String("addr", srv.Addr), logger.Bool("events", cfg.EventsEnabled))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// ── 9. Graceful shutdown ──
	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}
	log.Info("shutting down")

	shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutCtx)
}
