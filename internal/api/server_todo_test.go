package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"donelist/internal/config"
	"donelist/internal/model"
	"donelist/internal/pkg/metrics"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type mockTodoStore struct {
	listFunc     func(ctx context.Context, userID uint) ([]model.Todo, error)
	createFunc   func(ctx context.Context, todo *model.Todo) error
	setFunc      func(ctx context.Context, id, userID uint, completed bool) (*model.Todo, error)
	deleteFunc   func(ctx context.Context, id, userID uint) error
	listCalls    int
	createCalls  int
	setCalls     int
	deleteCalls  int
}

func (m *mockTodoStore) ListTodos(ctx context.Context, userID uint) ([]model.Todo, error) {
	m.listCalls++
	return m.listFunc(ctx, userID)
}

func (m *mockTodoStore) CreateTodo(ctx context.Context, todo *model.Todo) error {
	m.createCalls++
	return m.createFunc(ctx, todo)
}

func (m *mockTodoStore) SetCompleted(ctx context.Context, id, userID uint, completed bool) (*model.Todo, error) {
	m.setCalls++
	return m.setFunc(ctx, id, userID, completed)
}

func (m *mockTodoStore) DeleteTodo(ctx context.Context, id, userID uint) error {
	m.deleteCalls++
	return m.deleteFunc(ctx, id, userID)
}

func newTestServer(store TodoStore) (*Server, *gin.Engine) {
	return newTestServerAs(store, "user")
}

func newTestServerAs(store TodoStore, role string) (*Server, *gin.Engine) {
	gin.SetMode(gin.TestMode)
	metrics.InitMetrics()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	s := &Server{
		cfg:       &config.Config{},
		logger:    logger,
		todoStore: store,
	}

	r := gin.New()
	asUser := func(h gin.HandlerFunc) gin.HandlerFunc {
		return func(c *gin.Context) {
			c.Set("userID", 1)
			c.Set("email", "a@b.com")
			c.Set("role", role)
			h(c)
		}
	}
	r.GET("/todos", asUser(s.handleListTodos))
	r.POST("/todos", asUser(s.handleCreateTodo))
	r.PUT("/todos", asUser(s.handleUpdateTodo))
	r.DELETE("/todos", asUser(s.handleDeleteTodo))
	return s, r
}

func doJSON(r *gin.Engine, method, path string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCreateTodo_Normal(t *testing.T) {
	store := &mockTodoStore{
		createFunc: func(ctx context.Context, todo *model.Todo) error {
			todo.ID = 1
			return nil
		},
	}
	_, r := newTestServer(store)

	w := doJSON(r, http.MethodPost, "/todos", []byte(`{"text":"buy milk"}`))
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", w.Code)
	}
	if store.createCalls != 1 {
		t.Fatalf("expected create todo to be called")
	}

	var resp struct {
		Todo struct {
			ID        uint   `json:"id"`
			Text      string `json:"text"`
			Completed bool   `json:"completed"`
			UserID    uint   `json:"userId"`
		} `json:"todo"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp.Todo.Text != "buy milk" || resp.Todo.Completed || resp.Todo.UserID != 1 {
		t.Fatalf("unexpected todo: %+v", resp.Todo)
	}
}

func TestCreateTodo_BlankText(t *testing.T) {
	store := &mockTodoStore{
		createFunc: func(ctx context.Context, todo *model.Todo) error { return nil },
	}
	_, r := newTestServer(store)

	w := doJSON(r, http.MethodPost, "/todos", []byte(`{"text":"   "}`))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if !bytes.Contains(w.Body.Bytes(), []byte("Text is required")) {
		t.Fatalf("expected Text is required in body, got %s", w.Body.String())
	}
	if store.createCalls != 0 {
		t.Fatalf("expected store to be untouched")
	}
}

func TestCreateTodo_InvalidBody(t *testing.T) {
	store := &mockTodoStore{
		createFunc: func(ctx context.Context, todo *model.Todo) error { return nil },
	}
	_, r := newTestServer(store)

	w := doJSON(r, http.MethodPost, "/todos", []byte(`{`))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestListTodos_Empty(t *testing.T) {
	store := &mockTodoStore{
		listFunc: func(ctx context.Context, userID uint) ([]model.Todo, error) {
			return []model.Todo{}, nil
		},
	}
	_, r := newTestServer(store)

	w := doJSON(r, http.MethodGet, "/todos", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !bytes.Contains(w.Body.Bytes(), []byte(`"todos":[]`)) {
		t.Fatalf("expected empty array, got %s", w.Body.String())
	}
}

func TestUpdateTodo_Normal(t *testing.T) {
	store := &mockTodoStore{
		setFunc: func(ctx context.Context, id, userID uint, completed bool) (*model.Todo, error) {
			if id != 5 || userID != 1 || !completed {
				t.Fatalf("unexpected args id=%d userID=%d completed=%v", id, userID, completed)
			}
			return &model.Todo{ID: id, UserID: userID, Text: "buy milk", Completed: completed}, nil
		},
	}
	_, r := newTestServer(store)

	w := doJSON(r, http.MethodPut, "/todos", []byte(`{"id":5,"completed":true}`))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !bytes.Contains(w.Body.Bytes(), []byte(`"completed":true`)) {
		t.Fatalf("expected completed true, got %s", w.Body.String())
	}
}

func TestUpdateTodo_NotFound(t *testing.T) {
	store := &mockTodoStore{
		setFunc: func(ctx context.Context, id, userID uint, completed bool) (*model.Todo, error) {
			return nil, gorm.ErrRecordNotFound
		},
	}
	_, r := newTestServer(store)

	w := doJSON(r, http.MethodPut, "/todos", []byte(`{"id":99,"completed":true}`))
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
	if !bytes.Contains(w.Body.Bytes(), []byte("Todo not found")) {
		t.Fatalf("expected Todo not found, got %s", w.Body.String())
	}
}

func TestUpdateTodo_NonIntegerID(t *testing.T) {
	store := &mockTodoStore{
		setFunc: func(ctx context.Context, id, userID uint, completed bool) (*model.Todo, error) {
			return nil, nil
		},
	}
	_, r := newTestServer(store)

	for _, body := range []string{`{"id":"abc","completed":true}`, `{"id":1.5,"completed":true}`, `{"completed":true}`} {
		w := doJSON(r, http.MethodPut, "/todos", []byte(body))
		if w.Code != http.StatusBadRequest {
			t.Fatalf("body %s: expected 400, got %d", body, w.Code)
		}
	}
	if store.setCalls != 0 {
		t.Fatalf("expected store to be untouched")
	}
}

func TestDeleteTodo_Normal(t *testing.T) {
	store := &mockTodoStore{
		deleteFunc: func(ctx context.Context, id, userID uint) error { return nil },
	}
	_, r := newTestServer(store)

	w := doJSON(r, http.MethodDelete, "/todos", []byte(`{"id":5}`))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !bytes.Contains(w.Body.Bytes(), []byte(`"id":5`)) {
		t.Fatalf("expected deleted id in body, got %s", w.Body.String())
	}
}

func TestUpdateTodo_NonPositiveID(t *testing.T) {
	store := &mockTodoStore{
		setFunc: func(ctx context.Context, id, userID uint, completed bool) (*model.Todo, error) {
			return nil, nil
		},
	}
	_, r := newTestServer(store)

	// 负数和零都是合法整数，按查找落空返回 404 而不是 400
	for _, body := range []string{`{"id":-5,"completed":true}`, `{"id":0,"completed":true}`} {
		w := doJSON(r, http.MethodPut, "/todos", []byte(body))
		if w.Code != http.StatusNotFound {
			t.Fatalf("body %s: expected 404, got %d", body, w.Code)
		}
	}
	if store.setCalls != 0 {
		t.Fatalf("expected store to be untouched")
	}
}

func TestDeleteTodo_DemoForbidden(t *testing.T) {
	store := &mockTodoStore{
		deleteFunc: func(ctx context.Context, id, userID uint) error { return nil },
	}
	_, r := newTestServerAs(store, "demo")

	w := doJSON(r, http.MethodDelete, "/todos", []byte(`{"id":1}`))
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for demo delete, got %d", w.Code)
	}
	if store.deleteCalls != 0 {
		t.Fatalf("expected delete to never reach the store")
	}
}

func TestUpdateTodo_DemoAllowed(t *testing.T) {
	store := &mockTodoStore{
		setFunc: func(ctx context.Context, id, userID uint, completed bool) (*model.Todo, error) {
			return &model.Todo{ID: id, UserID: userID, Text: "试试勾选这条待办", Completed: completed}, nil
		},
	}
	_, r := newTestServerAs(store, "demo")

	w := doJSON(r, http.MethodPut, "/todos", []byte(`{"id":1,"completed":true}`))
	if w.Code != http.StatusOK {
		t.Fatalf("expected demo toggle to succeed, got %d", w.Code)
	}
	if store.setCalls != 1 {
		t.Fatalf("expected store to be called once")
	}
}

func TestDeleteTodo_AlreadyDeleted(t *testing.T) {
	calls := 0
	store := &mockTodoStore{
		deleteFunc: func(ctx context.Context, id, userID uint) error {
			calls++
			if calls == 1 {
				return nil
			}
			return gorm.ErrRecordNotFound
		},
	}
	_, r := newTestServer(store)

	if w := doJSON(r, http.MethodDelete, "/todos", []byte(`{"id":5}`)); w.Code != http.StatusOK {
		t.Fatalf("first delete: expected 200, got %d", w.Code)
	}
	if w := doJSON(r, http.MethodDelete, "/todos", []byte(`{"id":5}`)); w.Code != http.StatusNotFound {
		t.Fatalf("second delete: expected 404, got %d", w.Code)
	}
}
