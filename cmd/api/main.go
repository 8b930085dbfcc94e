package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	httpSwagger "github.com/swaggo/http-swagger"
	"google.golang.org/genai"

	_ "github.com/KaivDev4434/FairShare/docs"
	"github.com/KaivDev4434/FairShare/internal/balance"
	"github.com/KaivDev4434/FairShare/internal/bill"
	"github.com/KaivDev4434/FairShare/internal/config"
	"github.com/KaivDev4434/FairShare/internal/database"
	"github.com/KaivDev4434/FairShare/internal/document"
	"github.com/KaivDev4434/FairShare/internal/events"
	"github.com/KaivDev4434/FairShare/internal/metrics"
	"github.com/KaivDev4434/FairShare/internal/notification"
	"github.com/KaivDev4434/FairShare/pkg/logging"
	mw "github.com/KaivDev4434/FairShare/pkg/middleware"
)

// Bill links circulate in group chats for a while, so tokens live long.
const tokenLifetime = 30 * 24 * time.Hour

// @title        FairShare API
// @version      1.0
// @description  Self-serve bill splitting: shared bills, per-item claims, computed splits and receipt extraction.
// @host         localhost:8080
// @BasePath     /api/v1
func main() {
	envErr := godotenv.Load()

	cfg := config.Load()
	logging.Setup(cfg.LogLevel)

	if envErr != nil {
		slog.Debug("no .env file found, using environment variables")
	}

	// Initialize database connection
	db, err := database.NewPostgresConnection(cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	slog.Info("connected to database")

	tokens := mw.NewTokenManager(cfg.TokenSecret, tokenLifetime)

	// Event publishing is optional; without brokers events are dropped.
	var publisher events.Publisher = events.NoopPublisher{}
	var brokers []string
	if cfg.KafkaBrokers != "" {
		brokers = strings.Split(cfg.KafkaBrokers, ",")
		kafkaPublisher := events.NewKafkaPublisher(brokers, cfg.KafkaTopic)
		defer kafkaPublisher.Close()
		publisher = kafkaPublisher
		slog.Info("event publishing enabled", "topic", cfg.KafkaTopic)
	}

	// Bill feature
	billRepo := bill.NewRepository(db)
	billService := bill.NewService(billRepo, publisher)
	billHandler := bill.NewHandler(billService, tokens, cfg.TokenRequired)

	// Balance feature
	balanceService := balance.NewService(billService)
	balanceHandler := balance.NewHandler(balanceService)

	// Document extraction feature. Ollama runs first because it is local and
	// free; Gemini joins the chain when an API key is present.
	var extractors []document.Extractor
	if cfg.OllamaURL != "" {
		extractors = append(extractors, document.NewOllamaExtractor(cfg.OllamaURL, cfg.OllamaModel))
	}
	if os.Getenv("GEMINI_API_KEY") != "" {
		geminiClient, err := genai.NewClient(context.Background(), nil)
		if err != nil {
			slog.Warn("gemini client unavailable", "error", err)
		} else {
			extractors = append(extractors, document.NewGeminiExtractor(geminiClient, cfg.GeminiModel))
		}
	}

	var cache *document.Cache
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		cache = document.NewCache(redisClient, 0)
		slog.Info("extraction cache enabled", "addr", cfg.RedisAddr)
	}

	parserClient := document.NewParserClient(cfg.ParserURL)
	documentService := document.NewService(parserClient, document.NewChain(extractors...), cache, billService, publisher)
	documentHandler := document.NewHandler(documentService)

	// Notification feature
	notificationRepo := notification.NewRepository(db)
	notificationService := notification.NewService(notificationRepo)
	notificationHandler := notification.NewHandler(notificationService)

	// The consumer turns bill.locked events into notifications.
	if cfg.KafkaBrokers != "" {
		consumer := events.NewConsumer(brokers, cfg.KafkaTopic, cfg.KafkaGroupID, notificationService)
		defer consumer.Stop()
		go func() {
			if err := consumer.Start(context.Background()); err != nil {
				slog.Error("event consumer exited", "error", err)
			}
		}()
	}

	r := chi.NewRouter()

	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(metrics.Middleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})
	r.Handle("/metrics", metrics.Handler())
	r.Get("/swagger/*", httpSwagger.Handler())

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Mount("/bills", billHandler.Routes())
		r.Mount("/balances", balanceHandler.Routes())
		r.Mount("/documents", documentHandler.Routes())
		r.Mount("/notifications", notificationHandler.Routes())
	})

	// Start server
	port := cfg.Port
	if port == "" {
		port = "8080"
	}

	slog.Info("server starting", "port", port)
	if err := http.ListenAndServe(":"+port, r); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}
