package floureon

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/joshp123/gohome-floureon/internal/core"
)

const httpPrefix = "/plugins/floureon/"

var _ core.HTTPRegistrant = (*Plugin)(nil)

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type temperatureRequest struct {
	Temperature *float64 `json:"temperature" binding:"required"`
}

type hvacModeRequest struct {
	HVACMode string `json:"hvac_mode" binding:"required"`
}

func (p Plugin) RegisterHTTP(mux *http.ServeMux) {
	mux.Handle(httpPrefix, newRouter(p.thermostat))
}

func newRouter(thermostat *Thermostat) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(requestLogger())
	engine.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept"},
		MaxAge:       12 * time.Hour,
	}))

	h := &handler{thermostat: thermostat}
	group := engine.Group(httpPrefix)
	group.Use(h.requireThermostat)
	group.GET("state", h.getState)
	group.POST("refresh", h.refresh)
	group.PUT("temperature", h.setTemperature)
	group.PUT("hvac_mode", h.setHVACMode)
	return engine
}

type handler struct {
	thermostat *Thermostat
}

func (h *handler) requireThermostat(c *gin.Context) {
	if h.thermostat == nil {
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, errorResponse{
			Error:   "unavailable",
			Message: "floureon thermostat not configured",
		})
		return
	}
	c.Next()
}

func (h *handler) getState(c *gin.Context) {
	c.JSON(http.StatusOK, stateMap(h.thermostat))
}

func (h *handler) refresh(c *gin.Context) {
	if err := h.thermostat.Update(c.Request.Context()); err != nil {
		c.JSON(http.StatusBadGateway, errorResponse{Error: "refresh_failed", Message: err.Error()})
		return
	}
	c.JSON(http.StatusOK, stateMap(h.thermostat))
}

func (h *handler) setTemperature(c *gin.Context) {
	var req temperatureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid_request", Message: err.Error()})
		return
	}
	if err := h.thermostat.validateTemperature(*req.Temperature); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "validation_error", Message: err.Error()})
		return
	}
	h.respondCommand(c, h.thermostat.ApplyTemperature(c.Request.Context(), *req.Temperature))
}

func (h *handler) setHVACMode(c *gin.Context) {
	var req hvacModeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid_request", Message: err.Error()})
		return
	}
	mode, err := parseHVACMode(req.HVACMode)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "validation_error", Message: err.Error()})
		return
	}
	h.respondCommand(c, h.thermostat.ApplyHVACMode(c.Request.Context(), mode))
}

// Commands are applied asynchronously by the device, so success is 202.
func (h *handler) respondCommand(c *gin.Context, accepted bool) {
	if !accepted {
		c.JSON(http.StatusBadGateway, errorResponse{Error: "command_rejected", Message: "vendor cloud did not accept the command"})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"accepted": true})
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		event := log.Info()
		if status >= 400 {
			event = log.Warn()
		}
		if status >= 500 {
			event = log.Error()
		}
		event.
			Str("plugin", "floureon").
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Msg("request")
	}
}
