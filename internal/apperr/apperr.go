// Package apperr 定义会话、service 与 HTTP 层共用的错误分类。
package apperr

import (
	"fmt"

	"github.com/pkg/errors"
)

type Kind string

const (
	KindValidation     Kind = "VALIDATION"
	KindAuthentication Kind = "AUTHENTICATION"
	KindConflict       Kind = "CONFLICT"
	KindInfrastructure Kind = "INFRASTRUCTURE"
)

// Error 的 Message 可以直接展示给用户，Cause 只用于日志。
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Cause }

func New(kind Kind, message string) error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, cause error) error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

func Validation(msg string) error {
	return New(KindValidation, msg)
}

func Unauthenticated(msg string) error {
	return New(KindAuthentication, msg)
}

func Conflict(msg string) error {
	return New(KindConflict, msg)
}

func Infrastructure(msg string, cause error) error {
	return Wrap(KindInfrastructure, msg, cause)
}

// KindOf 返回 err 的分类，非 *Error 的错误一律视为基础设施错误。
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindInfrastructure
}

// MessageOf 返回面向用户的错误信息。未分类或基础设施错误返回 fallback，不泄露内部细节。
func MessageOf(err error, fallback string) string {
	var ae *Error
	if errors.As(err, &ae) && ae.Kind != KindInfrastructure && ae.Message != "" {
		return ae.Message
	}
	return fallback
}
