package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mongochat/ai"
	"mongochat/audit"
	"mongochat/chat"
	"mongochat/config"
	"mongochat/db"
	_ "mongochat/docs" // Swagger docs
	"mongochat/handlers"
	"mongochat/logger"
	"mongochat/service"
	"mongochat/vectorstore"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// the logger depends on config, so report on stderr
		os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}

	log, err := logger.New(cfg.LogLevel, cfg.LogJSON)
	if err != nil {
		os.Stderr.WriteString("logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer log.Sync()

	// Session store
	sessions, err := db.New(cfg.SessionDBPath, cfg.SessionTTL)
	if err != nil {
		log.Fatal("failed to initialize session store", zap.Error(err))
	}
	defer sessions.Close()

	// Vector store
	embed, err := vectorstore.NewEmbeddingFunc(cfg.Embedding)
	if err != nil {
		log.Fatal("failed to configure embeddings", zap.Error(err))
	}
	store, err := vectorstore.New(cfg.VectorDBPath, embed, cfg.VectorTimeout, log)
	if err != nil {
		log.Fatal("failed to initialize vector store", zap.Error(err))
	}

	// Language model
	aiService, err := ai.New(cfg.LLM, log)
	if err != nil {
		log.Fatal("failed to initialize language model client", zap.Error(err))
	}

	// MongoDB client pool
	pool := service.NewPool(cfg.MongoPoolTTL, cfg.MongoTimeout, log)
	defer pool.Close()

	// Audit log (optional)
	var (
		auditor chat.Auditor
		history handlers.HistoryLookup
	)
	if cfg.LogsURI != "" {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.MongoTimeout)
		auditLog, err := audit.Connect(ctx, cfg.LogsURI, cfg.MongoTimeout, log)
		cancel()
		if err != nil {
			log.Warn("audit logging disabled", zap.Error(err))
		} else {
			auditor, history = auditLog, auditLog
			defer auditLog.Close(context.Background())
		}
	} else {
		log.Warn("MONGO_LOGS_URI not set, audit logging disabled")
	}

	chatService := chat.NewService(pool, store, aiService, auditor, chat.Options{
		SchemaResults:  cfg.SchemaResults,
		HistoryResults: cfg.HistoryResults,
		IndexTTL:       cfg.MongoPoolTTL,
	}, log)

	h := handlers.New(sessions, pool, chatService, history, handlers.Options{
		CookieSecure: cfg.CookieSecure,
		SessionTTL:   cfg.SessionTTL,
	}, log)

	gin.SetMode(cfg.GinMode)
	r := gin.New()
	r.Use(gin.Recovery(), logger.Middleware(log))
	r.Use(cors.New(corsConfig(cfg.AllowedOrigins)))

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	h.RegisterRoutes(r)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info("server starting", zap.String("port", cfg.Port), zap.String("model", aiService.Model()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", zap.Error(err))
	}
}

// corsConfig sends credentials, and with them the session cookie, only to the
// listed origins. Without a list any origin may call the API but cross-origin
// requests carry no cookie.
func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With"},
		MaxAge:       24 * time.Hour,
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
		cfg.AllowCredentials = true
	}
	return cfg
}
