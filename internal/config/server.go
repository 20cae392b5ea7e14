package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"FocusGolang/database/postgres"
	"FocusGolang/internal/api/attention"
	attentionHandler "FocusGolang/internal/api/attention/handler"
	attentionRepository "FocusGolang/internal/api/attention/repository"
	attentionService "FocusGolang/internal/api/attention/service"
	"FocusGolang/internal/middleware"
	"FocusGolang/pkg/broadcast"
	"FocusGolang/pkg/landmark"
	"FocusGolang/pkg/redis"
	"FocusGolang/pkg/utils"
)

type ServerOption func(*Server) error

type Server struct {
	engine           *fiber.App
	db               *sqlx.DB
	log              *logrus.Logger
	middleware       middleware.Middleware
	validator        *validator.Validate
	utils            utils.IUtils
	handlers         []handler
	redisServer      redis.IRedis
	landmarkDetector landmark.IDetector
	broadcaster      broadcast.IBroadcaster
	pipelineConfig   attention.PipelineConfig
	attention        attentionService.IAttentionService
}

type handler interface {
	Start(srv fiber.Router)
}

func NewServer(options ...ServerOption) (*Server, error) {
	server := &Server{}

	for _, option := range options {
		if err := option(server); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	if server.engine == nil {
		return nil, fmt.Errorf("fiber app is required")
	}
	if server.log == nil {
		return nil, fmt.Errorf("logger is required")
	}

	return server, nil
}

func WithFiber(fiberApp *fiber.App) ServerOption {
	return func(s *Server) error {
		s.engine = fiberApp
		return nil
	}
}

func WithLogger(logger *logrus.Logger) ServerOption {
	return func(s *Server) error {
		s.log = logger
		return nil
	}
}

func WithValidator(validator *validator.Validate) ServerOption {
	return func(s *Server) error {
		s.validator = validator
		return nil
	}
}

func WithDatabase() ServerOption {
	return func(s *Server) error {
		db, err := postgres.New()
		if err != nil {
			if s.log != nil {
				s.log.Errorf("Failed to connect to database: %v", err)
			}
			return fmt.Errorf("failed to create database connection: %w", err)
		}
		s.db = db
		return nil
	}
}

func WithRedisServer(redisServer redis.IRedis) ServerOption {
	return func(s *Server) error {
		s.redisServer = redisServer
		return nil
	}
}

func WithLandmarkDetector(detector landmark.IDetector) ServerOption {
	return func(s *Server) error {
		s.landmarkDetector = detector
		return nil
	}
}

func WithBroadcaster() ServerOption {
	return func(s *Server) error {
		if s.log == nil {
			return fmt.Errorf("logger must be initialized before broadcaster")
		}
		s.broadcaster = broadcast.NewHub(s.log)
		return nil
	}
}

func WithPipelineConfig() ServerOption {
	return func(s *Server) error {
		cfg, err := attention.LoadPipelineConfig()
		if err != nil {
			return fmt.Errorf("invalid pipeline configuration: %w", err)
		}
		s.pipelineConfig = cfg
		return nil
	}
}

func WithMiddleware() ServerOption {
	return func(s *Server) error {
		if s.log == nil {
			return fmt.Errorf("logger must be initialized before middleware")
		}
		s.middleware = middleware.New(s.log)
		return nil
	}
}

func WithUtils() ServerOption {
	return func(s *Server) error {
		s.utils = utils.New()
		return nil
	}
}

func (s *Server) RegisterHandler() {
	// Attention Domain
	attentionRepo := attentionRepository.New(s.db, s.log)
	attentionServices := attentionService.New(s.log, attentionRepo, s.landmarkDetector, s.redisServer, s.broadcaster, s.utils, s.pipelineConfig)
	attentionHandlers := attentionHandler.New(s.log, s.validator, s.middleware, attentionServices, s.broadcaster, s.utils)

	s.attention = attentionServices

	s.setupHealthCheck()
	s.handlers = append(s.handlers, attentionHandlers)
}

func (s *Server) Run() error {
	router := s.engine.Group("/api/v1")
	s.engine.Use(s.middleware.NewRequestIDMiddleware())
	s.engine.Use(middleware.LoggerConfig())

	for _, h := range s.handlers {
		h.Start(router)
	}

	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "3000"
	}

	if err := s.engine.Listen(fmt.Sprintf(":%s", port)); err != nil {
		s.Shutdown()
		return err
	}

	return nil
}

// Shutdown drains the session lanes and closes the landmark link.
func (s *Server) Shutdown() {
	if s.attention != nil {
		s.attention.Shutdown()
	}
}

func (s *Server) setupHealthCheck() {
	s.engine.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.JSON(fiber.Map{
			"message":            "Server is Healthy!",
			"landmark_connected": s.landmarkDetector != nil && s.landmarkDetector.IsConnected(),
		})
	})
}
