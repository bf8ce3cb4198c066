package auth

import (
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
)

// PasswordCost 是固定的 bcrypt 工作因子。
const PasswordCost = 10

// HashPassword 生成带随机盐的 bcrypt 哈希，同一明文每次结果不同。
func HashPassword(pw string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(pw), PasswordCost)
	if err != nil {
		return "", errors.Wrap(err, "auth.HashPassword")
	}
	return string(b), nil
}

// VerifyPassword 用哈希中自带的盐重新计算并比较；任何错误（包括哈希格式非法）都视为不匹配。
func VerifyPassword(hash, pw string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)) == nil
}
