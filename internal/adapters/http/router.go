// Package http wires the gin router: the realtime chat endpoint and the
// thin REST boundary the realtime client needs (health, room history).
package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/teamflow/realtime/internal/adapters/chat"
	"github.com/teamflow/realtime/internal/config"
)

func SetupRouter(ctx context.Context, cfg *config.Config, ctl *chat.Controller, api *API) *gin.Engine {
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

	r.GET("/realtime/chat/:room", func(c *gin.Context) {
		ctl.HandleChat(ctx, c)
	})

	authed := r.Group("/api")
	authed.Use(TokenMiddleware(api.tokens))
	authed.GET("/rooms/:room/messages", api.RoomMessages)

	log.Info().Str("module", "adapters.http").Msg("router setup")
	return r
}

// TokenMiddleware accepts the credential either as a bearer header or as
// the same `token` query parameter the websocket handshake uses.
func TokenMiddleware(tokens chat.CredentialResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.Query("token")
		if h := c.GetHeader("Authorization"); raw == "" && strings.HasPrefix(h, "Bearer ") {
			raw = strings.TrimPrefix(h, "Bearer ")
		}
		principal := tokens.Resolve(raw)
		if principal == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid credential"})
			return
		}
		c.Set("principal", principal)
		c.Next()
	}
}
