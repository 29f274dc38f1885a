package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	"ms-flights/internal/auth"
	"ms-flights/internal/booking"
	bookingapi "ms-flights/internal/booking/api"
	bookingdb "ms-flights/internal/booking/db"
	bookingredis "ms-flights/internal/booking/redis"
	"ms-flights/internal/catalog"
	catalogapi "ms-flights/internal/catalog/api"
	catalogdb "ms-flights/internal/catalog/db"
	"ms-flights/internal/config"
	"ms-flights/internal/database/migrations"
	"ms-flights/internal/geo"
	"ms-flights/internal/kafka"
	"ms-flights/internal/ledger"
	"ms-flights/internal/logger"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	log := logger.NewLogger()
	defer log.Close()

	ctx := context.Background()

	// --- PostgreSQL Setup ---
	connector := pgdriver.NewConnector(pgdriver.WithDSN(cfg.Database.DSN))
	sqldb := sql.OpenDB(connector)
	sqldb.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqldb.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqldb.SetConnMaxLifetime(cfg.Database.MaxLifetime)
	defer sqldb.Close()

	if err := sqldb.Ping(); err != nil {
		log.Fatal("DATABASE", "Failed to connect to Postgres: "+err.Error())
	}

	bunDB := bun.NewDB(sqldb, pgdialect.New())

	runner := migrations.NewRunner(bunDB, migrations.DefaultOptions())
	if err := runner.RunMigrations(); err != nil {
		log.Fatal("DATABASE", "Migrations failed: "+err.Error())
	}

	// --- Redis Setup ---
	redisClient := redis.NewClient(&redis.Options{
		Addr: cfg.Redis.Addr,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatal("REDIS", "Failed to connect to Redis: "+err.Error())
	}

	// --- Kafka Setup ---
	var producer *kafka.Producer
	if cfg.Kafka.Enabled {
		topics := []string{cfg.Kafka.Topics.OrderEvents, cfg.Kafka.Topics.FlightEvents}
		if err := kafka.EnsureTopicsExist(cfg.Kafka.Brokers, topics); err != nil {
			log.Warn("KAFKA", "Topic setup failed: "+err.Error())
		}
		producer = kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topics.OrderEvents, cfg.Kafka.Topics.FlightEvents)
		defer producer.Close()
	}

	// --- Geo Resolver ---
	resolver := geo.NewCached(
		geo.NewClient(cfg.Geo.BaseURL, &http.Client{Timeout: cfg.Geo.Timeout}),
		cfg.Geo.CacheSize,
	)

	// Typed-nil interfaces would defeat the services' nil checks.
	var catalogKafka catalog.KafkaPublisher
	var orderKafka booking.KafkaPublisher
	if producer != nil {
		catalogKafka = producer
		orderKafka = producer
	}

	// --- Services ---
	seatLedger := ledger.New(bunDB)

	catalogService := catalog.NewCatalogService(
		&catalogdb.DB{Bun: bunDB},
		seatLedger,
		resolver,
		catalogKafka,
		log,
	)

	bookingLock := bookingredis.NewRedis(redisClient)
	bookingLock.TTL = cfg.Redis.BookingLockTTL

	orderService := booking.NewOrderService(
		&bookingdb.DB{Bun: bunDB},
		seatLedger,
		catalogService,
		bookingLock,
		orderKafka,
		booking.NewStripeProvider(cfg.Stripe.SecretKey, cfg.Stripe.Currency),
		log,
	)

	catalogHandler := &catalogapi.Handler{Catalog: catalogService}
	orderHandler := &bookingapi.Handler{OrderService: orderService}

	// --- Setup Router ---
	r := chi.NewRouter()

	r.Route("/api/v1/flights", func(r chi.Router) {
		r.Get("/", catalogHandler.ListFlights)
		r.Post("/", catalogHandler.CreateFlight)
		r.Get("/{flightId}", catalogHandler.GetFlight)
		r.Put("/{flightId}", catalogHandler.UpdateFlight)
		r.Delete("/{flightId}", catalogHandler.DeleteFlight)
	})

	r.Route("/api/v1/flight/orders", func(r chi.Router) {
		r.Use(auth.Middleware())
		r.Post("/", orderHandler.CreateOrder)
		r.Get("/user", orderHandler.ListUserOrders)
		r.Get("/{orderId}", orderHandler.GetOrder)
		r.Post("/{orderId}/cancel", orderHandler.CancelOrder)
		r.Post("/{orderId}/pay", orderHandler.PayOrder)
		r.Post("/{orderId}/complete", orderHandler.CompleteOrder)
		r.Get("/{orderId}/qr", orderHandler.ConfirmationQR)
	})

	// --- Start HTTP Server ---
	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("SERVER", "Flight engine running on "+cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("SERVER", "HTTP server error: "+err.Error())
		}
	}()

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("SERVER", "Shutdown signal received, cleaning up...")

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Fatal("SERVER", "Server forced to shutdown: "+err.Error())
	}

	log.Info("SERVER", "Server exited gracefully")
}
