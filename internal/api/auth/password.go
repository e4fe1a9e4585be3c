package auth

import (
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// ErrEmptyPassword 表示密码去除空白后为空。
var ErrEmptyPassword = errors.New("password is required")

// bcrypt 工作因子固定为 10。
const bcryptCost = 10

// HashPassword 生成密码的 bcrypt 哈希。
//
// 密码先去除首尾空白，为空则返回 ErrEmptyPassword。
func HashPassword(password string) (string, error) {
	trimmed := strings.TrimSpace(password)
	if trimmed == "" {
		return "", ErrEmptyPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(trimmed), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword 校验密码与哈希是否匹配。
//
// 不匹配只返回 false，不返回错误。
func VerifyPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
