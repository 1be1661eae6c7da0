package http

import (
	"context"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/pointdeck/pointdeck/internal/adapters/hub"
	"github.com/pointdeck/pointdeck/internal/app"
	"github.com/pointdeck/pointdeck/internal/config"
	"github.com/pointdeck/pointdeck/internal/domain"
)

func genClientToken() string {
	return uuid.NewString()
}

// ClientTokenMiddleware mints a stable per-browser token. It is the
// opaque connection identity the engine resolves room and user from.
func ClientTokenMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _ := c.Cookie("ct")
		if token == "" {
			token = genClientToken()
			c.SetCookie("ct", token, 3600*24*7, "/", "", false, true)
		}
		c.Set("client_token", token)
		c.Next()
	}
}

func SetupRouter(ctx context.Context, cfg *config.Config, engine *app.Engine, roomHub *hub.RoomHub) (*gin.Engine, error) {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	store := cookie.NewStore([]byte(cfg.Secret))
	r.Use(sessions.Sessions("PointDeckSessions", store))
	r.Use(ClientTokenMiddleware())

	codes, err := NewRoomCodeGenerator(cfg.RoomCodeSalt)
	if err != nil {
		return nil, err
	}

	log.Info().Str("module", "adapters.http").Msg("router setup")

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")

	api.GET("/room/generate", func(c *gin.Context) {
		c.String(http.StatusOK, codes.Generate())
	})

	api.GET("/room/presets", func(c *gin.Context) {
		c.JSON(http.StatusOK, domain.VotingPresets())
	})

	// Joining clients ask here which role to pre-select before sending
	// the actual join over the websocket.
	api.GET("/room/:roomId/role", func(c *gin.Context) {
		role := engine.NewUserRole(c.Param("roomId"))
		c.JSON(http.StatusOK, role)
	})

	api.GET("/ws/room", func(c *gin.Context) {
		log.Info().Str("module", "adapters.http").Str("sid", c.GetString("client_token")).Msg("ws room endpoint hit")
		roomHub.Handle(ctx, c)
	})

	return r, nil
}
