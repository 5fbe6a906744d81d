package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"hidden-quest/internal/config"
)

type ConfigHandler struct {
	cfg config.Config
}

func NewConfigHandler(cfg config.Config) *ConfigHandler {
	return &ConfigHandler{cfg: cfg}
}

// GetRulesHandler returns the game constants this server runs with.
// @Summary Get game rules
// @Description Returns the hand limit, player bounds and other constants plus the room retention
// @Tags Config
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/config/rules [get]
func (h *ConfigHandler) GetRulesHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"rules":     h.cfg.Game.Rules(),
		"retention": h.cfg.Store.Retention.String(),
	})
}

// GetBotWeightsHandler returns the weights computer seats play with.
// @Summary Get bot heuristic weights
// @Tags Config
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/config/weights [get]
func (h *ConfigHandler) GetBotWeightsHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"weights": h.cfg.Bot})
}
