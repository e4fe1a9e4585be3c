package auth

import (
	"context"
	"crypto/rand"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"donelist/internal/model"
	"donelist/internal/pkg/metrics"
	"donelist/internal/pkg/notify"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// DemoEmail 是演示账号的固定邮箱。
const DemoEmail = "demo@donelist.app"

// UserStore 定义注册登录所需的用户存取操作。
type UserStore interface {
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	CreateUser(ctx context.Context, user *model.User) error
}

type dbUserStore struct {
	db *gorm.DB
}

func (s dbUserStore) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (s dbUserStore) CreateUser(ctx context.Context, user *model.User) error {
	return s.db.WithContext(ctx).Create(user).Error
}

// Handler 提供注册与登录接口。
type Handler struct {
	store     UserStore
	jwtSecret []byte
	mailer    *notify.EmailNotifier
	logger    *slog.Logger
}

// NewHandler 创建 Auth Handler。
func NewHandler(db *gorm.DB, jwtSecret string, mailer *notify.EmailNotifier, logger *slog.Logger) *Handler {
	return &Handler{
		store:     dbUserStore{db: db},
		jwtSecret: []byte(jwtSecret),
		mailer:    mailer,
		logger:    logger,
	}
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userPayload struct {
	ID    uint   `json:"id"`
	Email string `json:"email"`
}

type authResponse struct {
	Token string      `json:"token"`
	User  userPayload `json:"user"`
}

// Register 创建新用户并签发令牌。
func (h *Handler) Register(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email and password are required"})
		return
	}
	email := strings.TrimSpace(strings.ToLower(req.Email))
	if email == "" || strings.TrimSpace(req.Password) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email and password are required"})
		return
	}

	_, err := h.store.FindByEmail(c.Request.Context(), email)
	if err == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Email already registered"})
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		h.logger.Error("query user failed", slog.String("email", email), slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query user failed"})
		return
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		if errors.Is(err, ErrEmptyPassword) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Email and password are required"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "hash password failed"})
		return
	}

	user := model.User{
		Email:    email,
		Password: hash,
		Role:     "user",
	}
	if err := h.store.CreateUser(c.Request.Context(), &user); err != nil {
		h.logger.Error("create user failed", slog.String("email", email), slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create user failed"})
		return
	}

	token, err := h.issueToken(&user)
	if err != nil {
		h.logger.Error("sign token failed", slog.String("email", email), slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "sign token failed"})
		return
	}

	// 欢迎邮件只做尽力而为，失败不影响注册结果。
	if h.mailer != nil {
		if err := h.mailer.SendWelcome(user.Email); err != nil {
			h.logger.Warn("send welcome email failed", slog.String("email", email), slog.String("error", err.Error()))
		}
	}

	h.logger.Info("user registered", slog.String("email", email))
	c.JSON(http.StatusCreated, authResponse{
		Token: token,
		User:  userPayload{ID: user.ID, Email: user.Email},
	})
}

// Login 校验用户并返回 JWT。
//
// 邮箱不存在与密码错误返回完全一致的响应，避免泄露邮箱是否已注册。
func (h *Handler) Login(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email and password are required"})
		return
	}
	email := strings.TrimSpace(strings.ToLower(req.Email))
	if email == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email and password are required"})
		return
	}

	user, err := h.store.FindByEmail(c.Request.Context(), email)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			h.logger.Error("query user failed", slog.String("email", email), slog.String("error", err.Error()))
		}
		metrics.AuthFailuresTotal.Inc()
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	if !VerifyPassword(req.Password, user.Password) {
		metrics.AuthFailuresTotal.Inc()
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	token, err := h.issueToken(user)
	if err != nil {
		h.logger.Error("sign token failed", slog.String("email", email), slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "sign token failed"})
		return
	}

	h.logger.Info("user logged in", slog.String("email", email))
	c.JSON(http.StatusOK, authResponse{
		Token: token,
		User:  userPayload{ID: user.ID, Email: user.Email},
	})
}

// Logout 处理注销请求（无状态令牌，直接返回成功）。
func (h *Handler) Logout(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

// GuestLogin 以演示身份登录并签发 JWT。
//
// 演示账号不存在时随机生成密码创建一个，前端拿到的令牌与普通用户无异。
func (h *Handler) GuestLogin(c *gin.Context) {
	user, err := h.store.FindByEmail(c.Request.Context(), DemoEmail)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		hash, hashErr := HashPassword(randomString(12))
		if hashErr != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "hash password failed"})
			return
		}
		user = &model.User{
			Email:    DemoEmail,
			Password: hash,
			Role:     "demo",
		}
		if err := h.store.CreateUser(c.Request.Context(), user); err != nil {
			h.logger.Error("create demo user failed", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "create demo user failed"})
			return
		}
	} else if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query demo user failed"})
		return
	}

	token, err := h.issueToken(user)
	if err != nil {
		h.logger.Error("sign token failed", slog.String("email", DemoEmail), slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "sign token failed"})
		return
	}

	h.logger.Info("demo user logged in")
	c.JSON(http.StatusOK, authResponse{
		Token: token,
		User:  userPayload{ID: user.ID, Email: user.Email},
	})
}

func (h *Handler) issueToken(user *model.User) (string, error) {
	return IssueToken(h.jwtSecret, AuthenticatedUser{
		ID:    user.ID,
		Email: user.Email,
		Role:  user.Role,
	})
}

func randomString(n int) string {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "demo"
	}
	const letters = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	for i := range b {
		b[i] = letters[int(b[i])%len(letters)]
	}
	return string(b)
}
