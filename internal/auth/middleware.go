package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const ctxUserKey = "currentUser"

// RequireUser 用于 JSON 接口：没有有效会话时返回 401。
func (m *SessionManager) RequireUser() gin.HandlerFunc {
	return m.gate(func(c *gin.Context) {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
	})
}

// RequireUserOrRedirect 用于页面入口：没有有效会话时跳转到登录页。
func (m *SessionManager) RequireUserOrRedirect(loginPath string) gin.HandlerFunc {
	return m.gate(func(c *gin.Context) {
		c.Redirect(http.StatusSeeOther, loginPath)
		c.Abort()
	})
}

func (m *SessionManager) gate(onMissing gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := m.Resolve(c.Request.Context(), TokenFromRequest(c.Request))
		if err != nil {
			log.Error().Err(err).Msg("resolve current user")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong. Please try again."})
			return
		}
		if user == nil {
			onMissing(c)
			return
		}
		c.Set(ctxUserKey, user)
		c.Next()
	}
}

// GetCurrentUser 返回鉴权中间件放入上下文的用户，未经鉴权的路由返回 nil。
func GetCurrentUser(c *gin.Context) *CurrentUser {
	if v, ok := c.Get(ctxUserKey); ok {
		if u, ok2 := v.(*CurrentUser); ok2 {
			return u
		}
	}
	return nil
}

func GetUserID(c *gin.Context) string {
	if u := GetCurrentUser(c); u != nil {
		return u.ID
	}
	return ""
}
