package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ngochdusi/chat/internal/auth"
	"github.com/ngochdusi/chat/internal/config"
	"github.com/ngochdusi/chat/internal/db"
	"github.com/ngochdusi/chat/internal/metrics"
	"github.com/ngochdusi/chat/internal/mw"
	"github.com/ngochdusi/chat/internal/service"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// SetupRouter 统一初始化 Gin 中间件、表单动作以及需要会话的读取接口。
func SetupRouter(cfg config.Config, gdb *gorm.DB) *gin.Engine {
	sessions := auth.NewSessionManager(gdb, cfg.SessionTTL(), cfg.CookieSecure)
	roomSvc := service.NewRoomService(gdb)
	userSvc := service.NewUserService(gdb, sessions, roomSvc)
	msgSvc := service.NewMessageService(gdb)
	h := NewHandler(sessions, userSvc, roomSvc, msgSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(metrics.GinMiddleware())
	r.Use(mw.RequestLogger())
	r.Use(mw.CORS(cfg.Env, cfg.AllowedOrigins))

	r.GET("/healthz", func(c *gin.Context) {
		if err := db.Ping(gdb); err != nil {
			log.Error().Err(err).Msg("healthz ping")
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.POST("/register", h.Register)
	r.POST("/login", h.Login)
	r.POST("/logout", h.Logout)

	r.GET("/chat", sessions.RequireUserOrRedirect("/login"), h.Chat)

	// 需要会话 cookie 的接口。
	authed := r.Group("")
	authed.Use(sessions.RequireUser())
	authed.GET("/me", h.Me)
	authed.GET("/rooms", h.ListRooms)
	authed.POST("/rooms", h.CreateRoom)
	authed.POST("/rooms/:id/join", h.JoinRoom)
	authed.GET("/messages", h.ListMessages)
	authed.POST("/messages", h.SendMessage)

	return r
}
