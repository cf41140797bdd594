// Package http exposes the read-only admin surface: health and a snapshot
// of live rooms. It never mutates registry state.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/z6wdc/online-chat-messenger/internal/app"
	"github.com/z6wdc/online-chat-messenger/internal/config"
)

func SetupRouter(cfg *config.Config, reg *app.Registry) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	api.GET("/rooms", func(c *gin.Context) {
		c.JSON(http.StatusOK, reg.Rooms())
	})

	log.Info().Str("module", "adapters.http").Msg("admin router setup")
	return r
}
