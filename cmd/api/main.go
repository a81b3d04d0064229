package main

import (
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/serviohq/servio-backend/internal/events"
	"github.com/serviohq/servio-backend/internal/modules/auth"
	"github.com/serviohq/servio-backend/internal/modules/menu"
	"github.com/serviohq/servio-backend/internal/modules/order"
	"github.com/serviohq/servio-backend/internal/modules/payment"
	"github.com/serviohq/servio-backend/internal/modules/venue"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using process environment")
	}

	db, err := sql.Open("postgres", os.Getenv("DATABASE_URL"))
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatal(err)
	}
	fmt.Println("Successfully connected to the database!")

	jwtSecret := []byte(os.Getenv("JWT_SECRET"))
	if len(jwtSecret) == 0 {
		log.Fatal("JWT_SECRET is required")
	}

	// ── Optional infrastructure ─────────────────────────────
	var producer *events.Producer
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		producer, err = events.NewProducer(strings.Split(brokers, ","))
		if err != nil {
			log.Fatal(err)
		}
		defer producer.Close()
	}

	var redisClient *redis.Client
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		redisClient = redis.NewClient(&redis.Options{Addr: addr})
	}

	// ── Router ──────────────────────────────────────────────
	router := chi.NewRouter()
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.RequestID)

	// ── Identity ────────────────────────────────────────────
	staffRepo := auth.NewPostgresStaffRepository(db)
	authService := auth.NewService(staffRepo, jwtSecret)
	auth.NewHandler(authService).RegisterRoutes(router)

	// ── Collaborators (read-only lookups) ───────────────────
	menuRepo := menu.NewPostgresRepository(db)
	venueRepo := venue.NewPostgresRepository(db)

	// ── Transaction engine ──────────────────────────────────
	var orderRepo order.Repository = order.NewPostgresRepository(db)
	if redisClient != nil {
		orderRepo = order.NewCachedRepository(orderRepo, redisClient, 30*time.Second)
	}
	orderService := order.NewService(orderRepo, menuRepo, venueRepo, producer)

	processor := payment.NewStubProcessor(0.029)
	paymentRepo := payment.NewPostgresRepository(db)
	paymentService := payment.NewService(paymentRepo, orderService, processor, producer)

	router.Group(func(r chi.Router) {
		r.Use(auth.Middleware(jwtSecret))
		order.NewHandler(orderService).RegisterRoutes(r)
		payment.NewHandler(paymentService).RegisterRoutes(r)
	})

	// ── Start Server ────────────────────────────────────────
	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}
	fmt.Printf("Servio API server starting on :%s\n", port)
	log.Fatal(http.ListenAndServe(":"+port, router))
}
