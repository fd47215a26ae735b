package http

import (
	"context"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/medilink/signaling/internal/adapters/sse"
	"github.com/medilink/signaling/internal/adapters/ws"
	"github.com/medilink/signaling/internal/call"
	"github.com/medilink/signaling/internal/config"
	"github.com/medilink/signaling/internal/core"
	"github.com/medilink/signaling/internal/directory"
)

func genClientToken() string {
	return uuid.NewString()
}

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

// Deps bundles the injected stores and controllers. Nothing here is a
// package-level singleton; tests wire their own set.
type Deps struct {
	Registry  *core.Registry
	Rooms     *core.RoomSet
	Router    *core.Router
	Calls     *call.Store
	Directory *directory.Memory
	WS        *ws.Controller
	SSE       *sse.Controller
}

func SetupRouter(ctx context.Context, cfg *config.Config, deps Deps) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	store := cookie.NewStore([]byte(cfg.Secret))
	r.Use(sessions.Sessions("MedilinkSessions", store))
	r.Use(ClientTokenMiddleware())

	r.Static("/static", cfg.StaticPath)
	r.GET("/", func(c *gin.Context) {
		c.File(cfg.StaticPath + "/index.html")
	})

	log.Info().Str("module", "adapters.http").Str("static", cfg.StaticPath).Msg("router setup")

	api := r.Group("/api")

	api.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "connections": deps.Registry.Count()})
	})

	// Bidirectional transport.
	api.GET("/ws/signal", func(c *gin.Context) {
		log.Info().Str("module", "adapters.http").Str("sid", c.GetString("client_token")).Msg("ws signal endpoint hit")
		deps.WS.HandleSignal(ctx, c)
	})

	// Unidirectional push transport and its send channel.
	api.GET("/events", deps.SSE.Stream)
	api.POST("/send", deps.SSE.Send)

	h := &callHandlers{calls: deps.Calls}
	api.POST("/calls", h.initiate)
	api.POST("/calls/:id/ring", h.ring)
	api.POST("/calls/:id/accept", h.accept)
	api.POST("/calls/:id/decline", h.decline)
	api.POST("/calls/:id/end", h.end)
	api.GET("/calls/pending", h.pendingFor)
	api.GET("/calls/:id", h.get)
	api.GET("/calls", h.sessionsFor)

	rm := &roomHandlers{rooms: deps.Rooms}
	api.GET("/rooms/:id/members", rm.members)
	api.POST("/rooms/:id/members", rm.join)
	api.DELETE("/rooms/:id/members/:userId", rm.leave)

	d := &directoryHandlers{dir: deps.Directory}
	api.GET("/doctors", d.listDoctors)
	api.POST("/doctors", d.addDoctor)
	api.PUT("/doctors/:name/availability", d.setAvailability)
	api.GET("/patients", d.listPatients)
	api.POST("/patients", d.addPatient)

	return r
}
