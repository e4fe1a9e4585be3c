package api

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"donelist/internal/model"
	"donelist/internal/pkg/metrics"

	"github.com/gin-gonic/gin"
)

// createTodoRequest 创建待办的请求参数。
type createTodoRequest struct {
	Text string `json:"text"`
}

// updateTodoRequest 更新待办的请求参数。
//
// id 绑定为整数指针：缺失、字符串或带小数的 JSON 值都会在
// 反序列化阶段被拒绝，不会到达存储层。completed 缺省按 false 处理。
type updateTodoRequest struct {
	ID        *int64 `json:"id"`
	Completed bool   `json:"completed"`
}

type deleteTodoRequest struct {
	ID *int64 `json:"id"`
}

type todoResponse struct {
	ID        uint      `json:"id"`
	Text      string    `json:"text"`
	Completed bool      `json:"completed"`
	UserID    uint      `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
}

func toTodoResponse(t *model.Todo) todoResponse {
	return todoResponse{
		ID:        t.ID,
		Text:      t.Text,
		Completed: t.Completed,
		UserID:    t.UserID,
		CreatedAt: t.CreatedAt,
	}
}

// handleListTodos 返回当前用户的全部待办，按创建时间倒序。
//
// GET /todos
func (s *Server) handleListTodos(c *gin.Context) {
	userID := getUserID(c)

	todos, err := s.todoStore.ListTodos(c.Request.Context(), userID)
	if err != nil {
		s.logger.Error("list todos failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list todos failed"})
		return
	}

	metrics.TodoOpsTotal.WithLabelValues("list").Inc()

	out := make([]todoResponse, 0, len(todos)) // 空列表序列化为 [] 而不是 null
	for i := range todos {
		out = append(out, toTodoResponse(&todos[i]))
	}
	c.JSON(http.StatusOK, gin.H{"todos": out})
}

// handleCreateTodo 处理创建待办的请求。
//
// POST /todos
func (s *Server) handleCreateTodo(c *gin.Context) {
	var req createTodoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Text is required"})
		return
	}

	text := strings.TrimSpace(req.Text)
	if text == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Text is required"})
		return
	}

	todo := model.Todo{
		UserID:    getUserID(c),
		Text:      text,
		Completed: false,
	}
	if err := s.todoStore.CreateTodo(c.Request.Context(), &todo); err != nil {
		s.logger.Error("create todo failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create todo failed"})
		return
	}

	metrics.TodoOpsTotal.WithLabelValues("create").Inc()
	c.JSON(http.StatusCreated, gin.H{"todo": toTodoResponse(&todo)})
}

// handleUpdateTodo 切换待办的完成状态。
//
// PUT /todos，body 携带 {id, completed}。
// 待办不存在与归属其他用户返回完全相同的 404。
func (s *Server) handleUpdateTodo(c *gin.Context) {
	var req updateTodoRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.ID == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Valid id is required"})
		return
	}
	userID := getUserID(c)
	if *req.ID <= 0 {
		// 非正整数是合法整数，按查找落空处理
		c.JSON(http.StatusNotFound, gin.H{"error": "Todo not found"})
		return
	}

	todo, err := s.todoStore.SetCompleted(c.Request.Context(), uint(*req.ID), userID, req.Completed)
	if err != nil {
		if isNotFound(err) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Todo not found"})
			return
		}
		s.logger.Error("update todo failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update todo failed"})
		return
	}

	metrics.TodoOpsTotal.WithLabelValues("update").Inc()
	c.JSON(http.StatusOK, gin.H{"todo": toTodoResponse(todo)})
}

// handleDeleteTodo 删除待办。
//
// DELETE /todos，body 携带 {id}。重复删除返回 404。
// 演示账号只能浏览和勾选，不允许删除。
func (s *Server) handleDeleteTodo(c *gin.Context) {
	if getUserRole(c) == "demo" {
		c.JSON(http.StatusForbidden, gin.H{"error": "演示模式下禁止删除待办"})
		return
	}
	var req deleteTodoRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.ID == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Valid id is required"})
		return
	}
	userID := getUserID(c)
	if *req.ID <= 0 {
		// 非正整数是合法整数，按查找落空处理
		c.JSON(http.StatusNotFound, gin.H{"error": "Todo not found"})
		return
	}

	if err := s.todoStore.DeleteTodo(c.Request.Context(), uint(*req.ID), userID); err != nil {
		if isNotFound(err) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Todo not found"})
			return
		}
		s.logger.Error("delete todo failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete todo failed"})
		return
	}

	metrics.TodoOpsTotal.WithLabelValues("delete").Inc()
	c.JSON(http.StatusOK, gin.H{"message": "Todo deleted", "id": *req.ID})
}
