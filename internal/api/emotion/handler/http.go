package emotionHandler

import (
	emotionService "JoyverseEmotion/internal/api/emotion/service"
	"JoyverseEmotion/internal/middleware"
	"JoyverseEmotion/pkg/utils"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/sirupsen/logrus"
	"time"
)

const requestTimeout = 10 * time.Second

type EmotionHandler struct {
	log            *logrus.Logger
	validator      *validator.Validate
	middleware     middleware.Middleware
	emotionService emotionService.IEmotionService
	utils          utils.IUtils
}

func New(
	log *logrus.Logger,
	validator *validator.Validate,
	middleware middleware.Middleware,
	es emotionService.IEmotionService,
	utils utils.IUtils,
) *EmotionHandler {
	return &EmotionHandler{
		log:            log,
		validator:      validator,
		middleware:     middleware,
		emotionService: es,
		utils:          utils,
	}
}

// Start mounts the detection routes at the root, where game clients expect
// them, and the sample routes under /api/v1/emotion.
func (h *EmotionHandler) Start(srv fiber.Router) {
	wsMiddleware := func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	}

	srv.Get("/", h.Home)
	srv.Get("/health", h.Health)

	srv.Post("/detect_emotion", h.middleware.NewRateLimiter, h.DetectEmotion)
	srv.Post("/predict", h.middleware.NewRateLimiter, h.DetectEmotion)
	srv.Post("/detect_emotion/image", h.middleware.NewRateLimiter, h.DetectEmotionFromImage)
	srv.Use("/detect_emotion/ws", wsMiddleware)
	srv.Get("/detect_emotion/ws", websocket.New(h.handleWebSocket))

	api := srv.Group("/api/v1/emotion")
	api.Post("/samples", h.middleware.NewRateLimiter, h.RecordSample)
	api.Post("/difficulty", h.middleware.NewRateLimiter, h.SuggestDifficulty)
	api.Get("/sessions/:session_id/samples", h.middleware.NewTokenMiddleware, h.GetSessionSamples)
	api.Get("/sessions/:session_id/summary", h.middleware.NewTokenMiddleware, h.GetSessionSummary)
	api.Get("/sessions/:session_id/latest", h.GetLatestEmotion)
}
