package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"hidden-quest/internal/api/ws"
	"hidden-quest/internal/config"
	"hidden-quest/internal/room"
)

func NewRouter(rm *room.Manager, hub *ws.Hub, cfg config.Config, log *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(requestLogger(log), recovery(log))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// WebSocket for live play
	r.GET("/ws", hub.HandleWS)

	api := r.Group("/api")

	// --- ROOM ENDPOINTS ---
	api.POST("/rooms", CreateRoomHandler(rm, log))
	api.POST("/rooms/join", JoinRoomHandler(rm, log))
	api.GET("/rooms/:code", GetRoomHandler(rm, log))
	api.POST("/rooms/:code/leave", LeaveHandler(rm, log))
	api.POST("/rooms/:code/ready", ReadyHandler(rm, log))
	api.POST("/rooms/:code/bots", AddBotHandler(rm, log))
	api.POST("/rooms/:code/start", StartHandler(rm, log))
	api.POST("/rooms/:code/reconnect", ReconnectHandler(rm, log))

	// --- GAME ENDPOINTS ---
	api.POST("/rooms/:code/quest", QuestHandler(rm, log))
	api.POST("/rooms/:code/draw", DrawHandler(rm, log))
	api.POST("/rooms/:code/play", PlayHandler(rm, log))
	api.POST("/rooms/:code/discard", DiscardHandler(rm, log))
	api.POST("/rooms/:code/end-turn", EndTurnHandler(rm, log))
	api.POST("/rooms/:code/transmute", TransmuteHandler(rm, log))
	api.GET("/rooms/:code/state", StateHandler(rm, log))
	api.GET("/rooms/:code/players/:playerId/private", PrivateHandler(rm, log))

	// --- CONFIG ENDPOINTS ---
	ch := NewConfigHandler(cfg)
	api.GET("/config/rules", ch.GetRulesHandler)
	api.GET("/config/weights", ch.GetBotWeightsHandler)

	return r
}

func requestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}

func recovery(log *zap.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, err any) {
		log.Error("panic recovered", zap.Any("error", err), zap.String("path", c.Request.URL.Path))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"success": false, "code": "internal", "message": "internal error"})
	})
}
