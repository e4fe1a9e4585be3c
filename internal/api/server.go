package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"donelist/internal/api/auth"
	"donelist/internal/api/middleware"
	"donelist/internal/config"
	"donelist/internal/model"
	"donelist/internal/pkg/metrics"
	"donelist/internal/pkg/notify"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

// Server 封装了 API 服务所需的依赖和路由处理。
//
// 它持有数据库连接、Redis 客户端以及 Gin 路由引擎。
// 请求之间不共享任何可变状态，所有持久化都交给数据库。
type Server struct {
	cfg       *config.Config
	logger    *slog.Logger
	db        *gorm.DB
	rdb       *redis.Client
	router    *gin.Engine
	auth      *auth.Handler
	todoStore TodoStore
}

// TodoStore 定义待办的存取操作。
//
// 修改与删除把归属谓词并入单条语句（WHERE id = ? AND user_id = ?），
// 行数为 0 统一按未找到处理，归属不符与记录不存在对调用方不可区分。
type TodoStore interface {
	ListTodos(ctx context.Context, userID uint) ([]model.Todo, error)
	CreateTodo(ctx context.Context, todo *model.Todo) error
	SetCompleted(ctx context.Context, id, userID uint, completed bool) (*model.Todo, error)
	DeleteTodo(ctx context.Context, id, userID uint) error
}

type dbTodoStore struct {
	db *gorm.DB
}

func (s dbTodoStore) ListTodos(ctx context.Context, userID uint) ([]model.Todo, error) {
	todos := []model.Todo{}
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&todos).Error
	if err != nil {
		return nil, err
	}
	return todos, nil
}

func (s dbTodoStore) CreateTodo(ctx context.Context, todo *model.Todo) error {
	return s.db.WithContext(ctx).Create(todo).Error
}

func (s dbTodoStore) SetCompleted(ctx context.Context, id, userID uint, completed bool) (*model.Todo, error) {
	res := s.db.WithContext(ctx).Model(&model.Todo{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("completed", completed)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}

	var todo model.Todo
	if err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&todo).Error; err != nil {
		return nil, err
	}
	return &todo, nil
}

func (s dbTodoStore) DeleteTodo(ctx context.Context, id, userID uint) error {
	res := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&model.Todo{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// NewServer 初始化 API 服务器。
//
// 它负责：
// 1. 连接 MySQL 数据库并执行自动迁移
// 2. 连接 Redis
// 3. 初始化 Gin 路由引擎
func NewServer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Server, error) {
	db, err := gorm.Open(mysql.Open(cfg.MySQL.DSN), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
	})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&model.User{}, &model.Todo{}); err != nil {
		return nil, err
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       0,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	mailer := notify.NewEmailNotifier(&cfg.Email, logger)

	metrics.InitMetrics()

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(logger))
	r.HandleMethodNotAllowed = true

	s := &Server{
		cfg:       cfg,
		logger:    logger,
		db:        db,
		rdb:       rdb,
		router:    r,
		auth:      auth.NewHandler(db, cfg.Security.JWTSecret, mailer, logger),
		todoStore: dbTodoStore{db: db},
	}
	s.registerRoutes()
	return s, nil
}

// Router 返回 HTTP 路由处理器。
func (s *Server) Router() http.Handler {
	return s.router
}

// Close 关闭数据库与缓存连接。
func (s *Server) Close() error {
	var firstErr error
	if s.rdb != nil {
		if err := s.rdb.Close(); err != nil {
			firstErr = err
		}
	}
	if s.db != nil {
		sqlDB, err := s.db.DB()
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
		} else {
			if closeErr := sqlDB.Close(); closeErr != nil {
				if firstErr == nil {
					firstErr = closeErr
				}
			}
		}
	}
	return firstErr
}

// registerRoutes 注册所有的 API 路由。
func (s *Server) registerRoutes() {
	s.router.StaticFile("/", "./web/index.html")
	s.router.Static("/assets", "./web/assets")

	// Prometheus metrics 端点
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	s.router.GET("/healthz", s.handleHealthz)

	s.router.POST("/register", s.auth.Register)
	s.router.POST("/login", s.auth.Login)
	s.router.POST("/login/guest", s.auth.GuestLogin)

	authed := s.router.Group("/")
	authed.Use(middleware.AuthMiddleware(s.cfg.Security.JWTSecret))
	authed.Use(middleware.DemoActivityMiddleware(s.rdb, s.cfg.App.DemoIdleTimeout))
	authed.POST("/logout", s.auth.Logout)
	authed.GET("/todos", s.handleListTodos)
	authed.POST("/todos", s.handleCreateTodo)
	authed.PUT("/todos", s.handleUpdateTodo)
	authed.DELETE("/todos", s.handleDeleteTodo)
}

func (s *Server) handleHealthz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if s.db == nil || s.rdb == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "error"})
		return
	}

	var one int
	if err := s.db.WithContext(ctx).Raw("SELECT 1").Scan(&one).Error; err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "error"})
		return
	}
	if err := s.rdb.Ping(ctx).Err(); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func getUserID(c *gin.Context) uint {
	return uint(c.GetInt("userID"))
}

func getUserRole(c *gin.Context) string {
	role, ok := c.Get("role")
	if !ok {
		return "user"
	}
	if s, ok := role.(string); ok && s != "" {
		return s
	}
	return "user"
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
