package server

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/coursebuddy/coursebuddy/config"
	"github.com/coursebuddy/coursebuddy/internal/canvas"
	"github.com/coursebuddy/coursebuddy/internal/chat"
	"github.com/coursebuddy/coursebuddy/internal/ingest"
	redis_memory "github.com/coursebuddy/coursebuddy/internal/memory/redis"
	"github.com/coursebuddy/coursebuddy/internal/store"
	"github.com/coursebuddy/coursebuddy/internal/vector/pinecone"
	"github.com/coursebuddy/coursebuddy/provider"
)

// Run wires every dependency from config and serves until the listener
// fails. All construction happens here; handlers receive interfaces.
func Run(cfg *config.Config) error {
	if err := cfg.Canvas.Validate(); err != nil {
		return err
	}
	if err := cfg.Providers.OpenAI.Validate(); err != nil {
		return err
	}
	if err := cfg.Pinecone.Validate(); err != nil {
		return err
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	// Unified HTTP error handler with structured JSON and logging
	baseLogger := log.New(log.Writer(), "[HTTP] ", log.LstdFlags)
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		msg := err.Error()
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			if he.Message != nil {
				msg = fmt.Sprint(he.Message)
			}
		}
		req := c.Request()
		baseLogger.Printf("%d %s %s from %s: %v", code, req.Method, req.URL.Path, c.RealIP(), err)
		if !c.Response().Committed {
			_ = c.JSON(code, map[string]interface{}{"error": msg})
		}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Cookie"},
		AllowCredentials: true,
	}))

	e.GET("/healthz", func(c echo.Context) error { return c.String(200, "ok") })
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	ctx := context.Background()

	canvasClient := canvas.NewClient(cfg.Canvas.BaseURL, cfg.Canvas.AccessToken, cfg.Canvas.PageCap, cfg.Canvas.Timeout)

	llm, err := provider.NewProvider(provider.OpenAI, provider.Options{
		APIKey:          cfg.Providers.OpenAI.APIKey,
		BaseURL:         cfg.Providers.OpenAI.BaseURL,
		CompletionModel: cfg.Providers.OpenAI.CompletionModel,
		EmbeddingModel:  cfg.Providers.OpenAI.EmbeddingModel,
		Temperature:     cfg.Providers.OpenAI.Temperature,
		MaxTokens:       cfg.Providers.OpenAI.MaxTokens,
		Timeout:         cfg.Providers.OpenAI.Timeout,
	})
	if err != nil {
		return err
	}

	index := pinecone.New(cfg.Pinecone.APIKey, cfg.Pinecone.IndexHost, cfg.Pinecone.UpsertBatch, cfg.Pinecone.Timeout)

	mem := redis_memory.NewRedisMemoryStore(
		fmt.Sprintf("%s:%s", cfg.Memory.Redis.Host, cfg.Memory.Redis.Port),
		cfg.Memory.Redis.Password,
		cfg.Memory.Redis.DB,
	)
	if err := mem.Ping(ctx); err != nil {
		return fmt.Errorf("redis connection failed (%s:%s): %w", cfg.Memory.Redis.Host, cfg.Memory.Redis.Port, err)
	}

	// The audit log is optional; only the status endpoint depends on it.
	var audit *store.Store
	if cfg.Storage.Postgres.Enabled() {
		if err := Migrate("file://migrations", cfg.Storage.Postgres.DSN(), "up", 0); err != nil {
			log.Printf("migrations: %v", err)
		}
		audit, err = store.NewWithDSN(ctx, cfg.Storage.Postgres.DSN())
		if err != nil {
			return fmt.Errorf("postgres connection failed: %w", err)
		}
	}

	builder := ingest.NewBuilder(cfg.Ingest.MaxChars, cfg.Ingest.Overlap)
	ingestor := ingest.NewIngestor(canvasClient, llm, index, builder, cfg.Providers.OpenAI.EmbedBatchSize, cfg.Pinecone.Dimension)
	orch := chat.NewOrchestrator(llm, index, mem, cfg.Pinecone.TopK, cfg.Memory.HistoryWindow, cfg.Memory.TTL)

	auth := &AuthHandler{Canvas: cfg.Canvas, Secret: []byte(cfg.General.JWTSecret)}
	auth.Register(e.Group("/auth"))

	protect := func(g *echo.Group) {
		if cfg.General.JWTSecret == "" {
			return
		}
		secret := []byte(cfg.General.JWTSecret)
		g.Use(func(next echo.HandlerFunc) echo.HandlerFunc { return withAuth(next, secret) })
	}

	ih := &IngestHandler{
		Ingestor: ingestor,
		Audit:    audit,
		Logger:   log.New(log.Writer(), "[INGEST] ", log.LstdFlags),
	}
	ingestGroup := e.Group("/ingest")
	protect(ingestGroup)
	ih.Register(ingestGroup)

	ch := &ChatHandler{Chat: orch}
	chatGroup := e.Group("/chat")
	protect(chatGroup)
	ch.Register(chatGroup)

	crs := &CoursesHandler{Canvas: canvasClient}
	crsGroup := e.Group("")
	protect(crsGroup)
	crs.Register(crsGroup)

	addr := cfg.General.Listen
	if addr == "" {
		addr = ":8000"
	}
	log.Printf("listening on %s", addr)
	return e.Start(addr)
}
