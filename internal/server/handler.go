package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ngochdusi/chat/internal/apperr"
	"github.com/ngochdusi/chat/internal/auth"
	"github.com/ngochdusi/chat/internal/service"
	"github.com/rs/zerolog/log"
)

// PollInterval 是前端轮询新消息的固定间隔。
const PollInterval = 3000

// Handler 聚合所有 HTTP handler，依赖注入 service 层。
type Handler struct {
	sessions *auth.SessionManager
	userSvc  *service.UserService
	roomSvc  *service.RoomService
	msgSvc   *service.MessageService
}

func NewHandler(sessions *auth.SessionManager, userSvc *service.UserService, roomSvc *service.RoomService, msgSvc *service.MessageService) *Handler {
	return &Handler{sessions: sessions, userSvc: userSvc, roomSvc: roomSvc, msgSvc: msgSvc}
}

func statusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindValidation:
		return http.StatusBadRequest
	case apperr.KindAuthentication:
		return http.StatusUnauthorized
	case apperr.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// fail 把业务错误转换为统一的 {error} 响应。基础设施错误只记日志，对外返回 fallback。
func (h *Handler) fail(c *gin.Context, op, fallback string, err error) {
	kind := apperr.KindOf(err)
	if kind == apperr.KindInfrastructure {
		ev := log.Error().Err(err).Str("op", op).Str("user_id", auth.GetUserID(c))
		if roomID := roomIDOf(c); roomID != "" {
			ev = ev.Str("room_id", roomID)
		}
		ev.Msg("request failed")
	}
	c.JSON(statusFor(kind), gin.H{"error": apperr.MessageOf(err, fallback)})
}

func roomIDOf(c *gin.Context) string {
	if id := c.Param("id"); id != "" {
		return id
	}
	if id := c.Query("roomId"); id != "" {
		return id
	}
	return c.PostForm("roomId")
}

// Register 处理注册表单，成功后写入会话 cookie 并跳转到聊天页。
func (h *Handler) Register(c *gin.Context) {
	var req struct {
		Username string `form:"username" json:"username"`
		Email    string `form:"email" json:"email"`
		Password string `form:"password" json:"password"`
	}
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "All fields are required"})
		return
	}
	session, err := h.userSvc.Register(c.Request.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		h.fail(c, "register", "Failed to register. Please try again.", err)
		return
	}
	h.sessions.SetCookie(c.Writer, session)
	c.Redirect(http.StatusSeeOther, "/chat")
}

// Login 处理登录表单。
func (h *Handler) Login(c *gin.Context) {
	var req struct {
		Email    string `form:"email" json:"email"`
		Password string `form:"password" json:"password"`
	}
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email and password are required"})
		return
	}
	session, err := h.userSvc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(c, "login", "Failed to login. Please try again.", err)
		return
	}
	h.sessions.SetCookie(c.Writer, session)
	c.Redirect(http.StatusSeeOther, "/chat")
}

// Logout 删除会话并清除 cookie，无论删除是否成功都跳转到登录页。
func (h *Handler) Logout(c *gin.Context) {
	h.userSvc.Logout(c.Request.Context(), auth.TokenFromRequest(c.Request))
	h.sessions.ClearCookie(c.Writer)
	c.Redirect(http.StatusSeeOther, "/login")
}

// Me 返回当前用户。
func (h *Handler) Me(c *gin.Context) {
	c.JSON(http.StatusOK, auth.GetCurrentUser(c))
}

// Chat 是聊天页的数据入口：没有房间时引导去创建房间，否则默认进入第一个房间。
func (h *Handler) Chat(c *gin.Context) {
	rooms, err := h.roomSvc.List(c.Request.Context())
	if err != nil {
		h.fail(c, "chat", "Failed to load chat rooms", err)
		return
	}
	if len(rooms) == 0 {
		c.Redirect(http.StatusSeeOther, "/chat/create-room")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"user":           auth.GetCurrentUser(c),
		"rooms":          rooms,
		"defaultRoomId":  rooms[0].ID,
		"pollIntervalMs": PollInterval,
	})
}

// CreateRoom 处理创建房间请求。
func (h *Handler) CreateRoom(c *gin.Context) {
	var req struct {
		Name        string `form:"name" json:"name"`
		Description string `form:"description" json:"description"`
	}
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Room name is required"})
		return
	}
	roomID, err := h.roomSvc.Create(c.Request.Context(), req.Name, req.Description, auth.GetUserID(c))
	if err != nil {
		h.fail(c, "create room", "Failed to create chat room", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "roomId": roomID})
}

// ListRooms 处理获取房间列表请求。
func (h *Handler) ListRooms(c *gin.Context) {
	rooms, err := h.roomSvc.List(c.Request.Context())
	if err != nil {
		h.fail(c, "list rooms", "Failed to load chat rooms", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rooms": rooms})
}

// JoinRoom 处理加入房间请求，重复加入不报错。
func (h *Handler) JoinRoom(c *gin.Context) {
	if err := h.roomSvc.Join(c.Request.Context(), auth.GetUserID(c), c.Param("id")); err != nil {
		h.fail(c, "join room", "Failed to join chat room", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// SendMessage 处理发送消息表单。
func (h *Handler) SendMessage(c *gin.Context) {
	var req struct {
		Message string `form:"message" json:"message"`
		RoomID  string `form:"roomId" json:"roomId"`
	}
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Message cannot be empty"})
		return
	}
	id, err := h.msgSvc.Post(c.Request.Context(), auth.GetUserID(c), req.RoomID, req.Message)
	if err != nil {
		h.fail(c, "send message", "Failed to send message", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "id": id})
}

// ListMessages 是前端轮询的读取接口，返回房间全部消息。
func (h *Handler) ListMessages(c *gin.Context) {
	roomID := c.Query("roomId")
	if roomID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Room ID is required"})
		return
	}
	msgs, err := h.msgSvc.List(c.Request.Context(), roomID)
	if err != nil {
		h.fail(c, "list messages", "Failed to load messages", err)
		return
	}
	c.JSON(http.StatusOK, msgs)
}
