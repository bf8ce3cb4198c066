package service

import "github.com/ngochdusi/chat/internal/apperr"

// 业务层通用错误，Message 直接展示给用户，handler 按 Kind 映射 HTTP 状态码。
var (
	ErrRegisterFieldsRequired = apperr.Validation("All fields are required")
	ErrLoginFieldsRequired    = apperr.Validation("Email and password are required")
	ErrUserExists             = apperr.Conflict("User already exists")
	ErrInvalidCredentials     = apperr.Unauthenticated("Invalid email or password")
	ErrRoomNameRequired       = apperr.Validation("Room name is required")
	ErrRoomIDRequired         = apperr.Validation("Room ID is required")
	ErrEmptyMessage           = apperr.Validation("Message cannot be empty")
)
