package api

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/papercomputeco/ragline/api/mcp"
)

// Server is the API server for managing and querying the ragline index
type Server struct {
	config   Config
	logger   *zap.Logger
	app      *fiber.App
	validate *validator.Validate
}

// NewServer creates a new API server over the configured retriever and indexer.
func NewServer(config Config) (*Server, error) {
	if config.Retriever == nil {
		return nil, errors.New("retriever is required")
	}
	if config.Indexer == nil {
		return nil, errors.New("indexer is required")
	}

	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	s := &Server{
		config:   config,
		logger:   logger,
		app:      app,
		validate: validator.New(),
	}

	app.Get("/ping", s.handlePing)

	v1 := app.Group("/v1")
	v1.Post("/documents", s.handleIndexDocument)
	v1.Delete("/documents/:id", s.handleDeleteDocument)
	v1.Get("/retrieve", s.handleRetrieve)
	v1.Post("/ask", s.handleAsk)

	if !config.DisableMCP {
		mcpServer, err := mcp.NewServer(mcp.Config{
			Retriever: config.Retriever,
			Options:   config.Options,
			Logger:    logger,
		})
		if err != nil {
			return nil, err
		}
		app.All("/mcp", adaptor.HTTPHandler(mcpServer.Handler()))
	}

	return s, nil
}

// Run starts the API server on the configured address.
func (s *Server) Run() error {
	s.logger.Info("starting API server",
		zap.String("listen", s.config.ListenAddr),
	)
	return s.app.Listen(s.config.ListenAddr)
}

// Shutdown gracefully shuts down the API server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
