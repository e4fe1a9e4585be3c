package auth

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenTTL 是令牌的有效期。
const TokenTTL = 7 * 24 * time.Hour

// ErrInvalidToken 表示令牌缺失、格式错误、签名无效、已过期或缺少必要声明。
var ErrInvalidToken = errors.New("invalid token")

// AuthenticatedUser 是从已验证令牌中还原出来的请求者身份。
//
// 它只在单次请求内存在，不落库。
type AuthenticatedUser struct {
	ID    uint
	Email string
	Role  string
}

type customClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
	Role  string `json:"role,omitempty"`
}

// IssueToken 用进程级密钥签发 HS256 令牌。
//
// 声明包含 sub（用户 ID）、email，有效期 7 天。
func IssueToken(secret []byte, user AuthenticatedUser) (string, error) {
	now := time.Now()
	claims := customClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(user.ID), 10),
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		Email: user.Email,
		Role:  user.Role,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// VerifyToken 校验令牌并还原身份。
//
// sub 与 email 声明缺一不可，sub 必须能解析为整数。
func VerifyToken(secret []byte, tokenStr string) (AuthenticatedUser, error) {
	claims := &customClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	})
	if err != nil || !token.Valid {
		return AuthenticatedUser{}, ErrInvalidToken
	}
	if claims.Subject == "" || claims.Email == "" {
		return AuthenticatedUser{}, ErrInvalidToken
	}
	uid, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil {
		return AuthenticatedUser{}, ErrInvalidToken
	}

	role := strings.TrimSpace(strings.ToLower(claims.Role))
	if role == "" {
		role = "user"
	}
	return AuthenticatedUser{ID: uint(uid), Email: claims.Email, Role: role}, nil
}
