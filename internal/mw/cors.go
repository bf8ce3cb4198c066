package mw

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// CORS 返回跨域中间件。dev 环境且未配置来源时允许所有来源，否则只放行 origins 列表。
// 会话依赖 cookie，所以始终开启 AllowCredentials。
func CORS(env string, origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           24 * time.Hour,
	}
	switch {
	case len(origins) > 0:
		cfg.AllowOrigins = origins
	case env == "dev":
		cfg.AllowOriginFunc = func(string) bool { return true }
	default:
		// 只允许同源请求，同源请求不经过跨域检查。
		cfg.AllowOriginFunc = func(string) bool { return false }
	}
	return cors.New(cfg)
}
