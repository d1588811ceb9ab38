package config

import (
	"JoyverseEmotion/database/postgres"
	emotionHandler "JoyverseEmotion/internal/api/emotion/handler"
	emotionRepository "JoyverseEmotion/internal/api/emotion/repository"
	emotionService "JoyverseEmotion/internal/api/emotion/service"
	"JoyverseEmotion/internal/middleware"
	"JoyverseEmotion/pkg/redis"
	"JoyverseEmotion/pkg/utils"
	"fmt"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
	"strings"
)

type ServerOption func(*Server) error

type Server struct {
	engine      *fiber.App
	db          *sqlx.DB
	log         *logrus.Logger
	middleware  middleware.Middleware
	validator   *validator.Validate
	utils       utils.IUtils
	redisServer redis.IRedis
	model       *LoadedModel
	handlers    []handler
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
	if server.model == nil {
		return nil, fmt.Errorf("model is required")
	}
	if server.middleware == nil {
		server.middleware = middleware.New(server.log, middleware.DefaultConfig())
	}
	if server.validator == nil {
		server.validator = NewValidator()
	}
	if server.utils == nil {
		server.utils = utils.New()
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

// WithDatabase connects to Postgres when DB_HOST is set. Without it the
// sample routes answer 503 and detection keeps working.
func WithDatabase() ServerOption {
	return func(s *Server) error {
		if !postgres.Enabled() {
			if s.log != nil {
				s.log.Warn("DB_HOST not set, sample storage disabled")
			}
			return nil
		}

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

func WithModel(model *LoadedModel) ServerOption {
	return func(s *Server) error {
		s.model = model
		return nil
	}
}

func WithMiddleware(cfg middleware.Config) ServerOption {
	return func(s *Server) error {
		if s.log == nil {
			return fmt.Errorf("logger must be initialized before middleware")
		}
		s.middleware = middleware.New(s.log, cfg)
		return nil
	}
}

func WithUtils() ServerOption {
	return func(s *Server) error {
		s.utils = utils.NewWithMaxFileSize(int64(getEnvInt("MAX_UPLOAD_BYTES", int(utils.DefaultMaxUpload))))
		return nil
	}
}

// MiddlewareConfigFromEnv reads RATE_LIMIT_RPS and RATE_LIMIT_BURST.
func MiddlewareConfigFromEnv() middleware.Config {
	defaults := middleware.DefaultConfig()
	return middleware.Config{
		RateLimitRPS:   getEnvFloat("RATE_LIMIT_RPS", defaults.RateLimitRPS),
		RateLimitBurst: getEnvInt("RATE_LIMIT_BURST", defaults.RateLimitBurst),
	}
}

func (s *Server) RegisterHandler() {
	var repo emotionRepository.Repository
	if s.db != nil {
		repo = emotionRepository.New(s.db, s.log)
	}

	var detector emotionService.LandmarkDetector
	if s.model.FaceMesh != nil {
		detector = s.model.FaceMesh
	}

	emotionServices := emotionService.NewEmotionService(s.log, s.model.Pipeline, detector, s.model.Info, repo, s.redisServer, s.utils)
	emotionHandlers := emotionHandler.New(s.log, s.validator, s.middleware, emotionServices, s.utils)

	s.handlers = append(s.handlers, emotionHandlers)
}

func (s *Server) Run() error {
	s.engine.Use(recover.New())
	s.engine.Use(s.corsMiddleware())
	s.engine.Use(s.middleware.NewRequestIDMiddleware())
	s.engine.Use(s.middleware.NewLoggingMiddleware())

	for _, h := range s.handlers {
		h.Start(s.engine)
	}

	port := getEnv("APP_PORT", "7860")

	if err := s.engine.Listen(fmt.Sprintf(":%s", port)); err != nil {
		return err
	}

	return nil
}

func (s *Server) corsMiddleware() fiber.Handler {
	origins := getEnvList("CORS_ALLOWED_ORIGINS")
	if len(origins) == 0 {
		return cors.New()
	}

	return cors.New(cors.Config{
		AllowOrigins:     strings.Join(origins, ","),
		AllowCredentials: true,
	})
}

// Shutdown stops accepting requests and releases the model, database and
// cache in that order.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.engine.ShutdownWithContext(ctx); err != nil {
		s.log.WithError(err).Error("Failed to shut down http server")
	}

	if err := s.model.Close(); err != nil {
		s.log.WithError(err).Warn("Failed to release model")
	}

	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.log.WithError(err).Warn("Failed to close database")
		}
	}

	if s.redisServer != nil {
		if err := s.redisServer.Close(); err != nil {
			s.log.WithError(err).Warn("Failed to close redis")
		}
	}

	return nil
}
