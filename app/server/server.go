package server

import (
	"context"
	"log/slog"

	"datarag/app/api"
	"datarag/app/middleware"
	"datarag/config"
	"datarag/model"
	"datarag/rag"
	"datarag/store"

	"github.com/gofiber/fiber/v2"
)

type Server struct {
	cfg    *config.Config
	logger *slog.Logger
	app    *fiber.App
	store  *store.PostgresStore
}

func NewServer(cfg *config.Config) *Server {
	return &Server{
		cfg:    cfg,
		logger: slog.Default(),
	}
}

// Run wires the store, embedder and engine, then serves until Stop. Startup
// fails hard on any configuration problem, including an embedding dimension
// that disagrees with the vector column.
func (s *Server) Run() error {
	ctx := context.Background()

	storer, err := store.NewPostgresStore(ctx, s.cfg.PostgresDSN, s.cfg.EmbeddingDim)
	if err != nil {
		return err
	}
	s.store = storer

	if err := storer.Init(ctx); err != nil {
		return err
	}

	embedder, err := model.New(s.cfg)
	if err != nil {
		return err
	}

	probeCtx, cancel := context.WithTimeout(ctx, s.cfg.RequestTimeout)
	err = model.VerifyDimension(probeCtx, embedder)
	cancel()
	if err != nil {
		return err
	}

	engine := rag.NewEngine(s.cfg, embedder, storer)

	var (
		app = fiber.New(fiber.Config{
			ErrorHandler: api.ErrorHandler,
		})
		checkHandler   = api.NewCheckHandler(storer, s.cfg.ModelVersion)
		predictHandler = api.NewPredictHandler(engine, s.cfg.ModelVersion)
		check          = app.Group("/check")
		apiv1          = app.Group("/api/v1")
	)
	s.app = app

	app.Use(middleware.RequestLogger())
	check.Get("/healthy", checkHandler.HandleHealthy)
	apiv1.Post("/predict", predictHandler.HandlePredict)

	s.logger.Info("server listening", "addr", s.cfg.ServerAddr, "embedder", s.cfg.EmbedderType)
	return app.Listen(s.cfg.ServerAddr)
}

func (s *Server) Stop() {
	if s.app != nil {
		if err := s.app.Shutdown(); err != nil {
			s.logger.Error("error shutting down server", "error", err)
		}
	}
	if s.store != nil {
		s.store.Close()
	}
	s.logger.Info("server stopped")
}
