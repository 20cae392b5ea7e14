package attentionHandler

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/sirupsen/logrus"

	attentionService "FocusGolang/internal/api/attention/service"
	"FocusGolang/internal/middleware"
	"FocusGolang/pkg/broadcast"
	"FocusGolang/pkg/utils"
)

type AttentionHandler struct {
	log              *logrus.Logger
	validator        *validator.Validate
	middleware       middleware.Middleware
	attentionService attentionService.IAttentionService
	broadcaster      broadcast.IBroadcaster
	utils            utils.IUtils
}

func New(
	log *logrus.Logger,
	validator *validator.Validate,
	middleware middleware.Middleware,
	as attentionService.IAttentionService,
	broadcaster broadcast.IBroadcaster,
	utils utils.IUtils,
) *AttentionHandler {
	return &AttentionHandler{
		attentionService: as,
		log:              log,
		validator:        validator,
		middleware:       middleware,
		broadcaster:      broadcaster,
		utils:            utils,
	}
}

func (h *AttentionHandler) Start(srv fiber.Router) {
	wsMiddleware := func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	}

	attention := srv.Group("/attention")

	sessions := attention.Group("/sessions")
	sessions.Post("/", h.StartSession)
	sessions.Delete("/:sessionId", h.EndSession)
	sessions.Post("/:sessionId/frames", h.middleware.NewRateLimiter, h.ProcessFrame)
	sessions.Get("/:sessionId/metrics", h.GetRecentMetrics)
	sessions.Get("/:sessionId/timeseries", h.GetTimeSeries)
	sessions.Get("/:sessionId/aggregate", h.GetAggregate)
	sessions.Get("/:sessionId/events", h.GetEvents)

	sessions.Use("/:sessionId/ws", wsMiddleware)
	sessions.Get("/:sessionId/ws", websocket.New(h.handleFrameWebSocket))

	sessions.Use("/:sessionId/events/ws", wsMiddleware)
	sessions.Get("/:sessionId/events/ws", websocket.New(h.handleEventsWebSocket))
}
