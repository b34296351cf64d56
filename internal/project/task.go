package project

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	trackerdb "github.com/nao1215/tracker/internal/store/db"
	"github.com/nao1215/tracker/pkg/apperror"
	"github.com/nao1215/tracker/pkg/middleware"
	"github.com/nao1215/tracker/pkg/validation"
)

// タスクの状態。
const (
	StatusTodo       = "Todo"
	StatusInProgress = "In Progress"
	StatusDone       = "Done"
)

// errTaskNotFound はタスクが存在しないことを表す。
var errTaskNotFound = apperror.New(apperror.ErrNotFound, "タスクが見つかりません")

// createTaskRequest はタスク作成リクエストのJSON構造。
type createTaskRequest struct {
	// Title はタスクの件名。
	Title string `json:"title" binding:"required,notblank,max=200"`
	// Description はタスクの説明。省略時はnull。
	Description *string `json:"description"`
	// Status はタスクの状態。省略時はTodo。
	Status string `json:"status" binding:"omitempty,oneof=Todo 'In Progress' Done"`
}

// updateTaskRequest はタスク更新リクエストのJSON構造。
type updateTaskRequest struct {
	Title       string  `json:"title" binding:"omitempty,notblank,max=200"`
	Description *string `json:"description"`
	Status      string  `json:"status" binding:"omitempty,oneof=Todo 'In Progress' Done"`
}

// taskResponse はタスクのJSONレスポンス構造。
type taskResponse struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description *string `json:"description"`
	Status      string  `json:"status"`
	// Project は親プロジェクトのID。
	Project   string `json:"project"`
	CreatedAt string `json:"created_at"`
}

// toTaskResponse はDB行をJSONレスポンスに変換する。
func toTaskResponse(t trackerdb.Task) taskResponse {
	return taskResponse{
		ID:          t.ID,
		Title:       t.Title,
		Description: fromNullString(t.Description),
		Status:      t.Status,
		Project:     t.ProjectID,
		CreatedAt:   t.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// handleListTasks はプロジェクト配下のタスク一覧を返すハンドラを返す。
// statusクエリパラメータを指定すると、その状態と完全一致するタスクだけを返す。
func (h *Handler) handleListTasks() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		p, err := h.loadProject(ctx, middleware.GetUserID(c), c.Param("id"))
		if err != nil {
			apperror.Respond(c, err)
			return
		}

		var tasks []trackerdb.Task
		if status := c.Query("status"); status != "" {
			tasks, err = h.queries.ListTasksByProjectIDAndStatus(ctx, trackerdb.ListTasksByProjectIDAndStatusParams{
				ProjectID: p.ID,
				Status:    status,
			})
		} else {
			tasks, err = h.queries.ListTasksByProjectID(ctx, p.ID)
		}
		if err != nil {
			apperror.Respond(c, fmt.Errorf("タスク一覧の取得に失敗: %w", err))
			return
		}

		results := make([]taskResponse, 0, len(tasks))
		for _, t := range tasks {
			results = append(results, toTaskResponse(t))
		}
		c.JSON(http.StatusOK, gin.H{"results": results})
	}
}

// handleCreateTask はタスク作成のハンドラを返す。親プロジェクトはURLで指定する。
func (h *Handler) handleCreateTask() gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := h.loadProject(c.Request.Context(), middleware.GetUserID(c), c.Param("id"))
		if err != nil {
			apperror.Respond(c, err)
			return
		}

		var req createTaskRequest
		if err := validation.BindJSON(c, &req); err != nil {
			apperror.Respond(c, err)
			return
		}
		if req.Status == "" {
			req.Status = StatusTodo
		}

		t := trackerdb.Task{
			ID:          uuid.New().String(),
			ProjectID:   p.ID,
			Title:       req.Title,
			Description: toNullString(req.Description),
			Status:      req.Status,
			CreatedAt:   h.now().UTC(),
		}
		if err := h.queries.CreateTask(c.Request.Context(), trackerdb.CreateTaskParams{
			ID:          t.ID,
			ProjectID:   t.ProjectID,
			Title:       t.Title,
			Description: t.Description,
			Status:      t.Status,
			CreatedAt:   t.CreatedAt,
		}); err != nil {
			apperror.Respond(c, fmt.Errorf("タスクの作成に失敗: %w", err))
			return
		}

		c.JSON(http.StatusCreated, gin.H{
			"task":    toTaskResponse(t),
			"message": "タスクを作成しました",
		})
	}
}

// handleGetTask はタスク詳細のハンドラを返す。
func (h *Handler) handleGetTask() gin.HandlerFunc {
	return func(c *gin.Context) {
		t, err := h.loadTask(c.Request.Context(), middleware.GetUserID(c), c.Param("id"))
		if err != nil {
			apperror.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, toTaskResponse(t))
	}
}

// handleUpdateTask はタスク更新のハンドラを返す。
// 空でないtitleとstatus、nullでないdescriptionだけを反映する。
func (h *Handler) handleUpdateTask() gin.HandlerFunc {
	return func(c *gin.Context) {
		t, err := h.loadTask(c.Request.Context(), middleware.GetUserID(c), c.Param("id"))
		if err != nil {
			apperror.Respond(c, err)
			return
		}

		var req updateTaskRequest
		if err := validation.BindJSON(c, &req); err != nil {
			apperror.Respond(c, err)
			return
		}

		if req.Title != "" {
			t.Title = req.Title
		}
		if req.Description != nil {
			t.Description = toNullString(req.Description)
		}
		if req.Status != "" {
			t.Status = req.Status
		}

		if err := h.queries.UpdateTask(c.Request.Context(), trackerdb.UpdateTaskParams{
			Title:       t.Title,
			Description: t.Description,
			Status:      t.Status,
			ID:          t.ID,
		}); err != nil {
			apperror.Respond(c, fmt.Errorf("タスクの更新に失敗: %w", err))
			return
		}

		c.JSON(http.StatusOK, toTaskResponse(t))
	}
}

// handleDeleteTask はタスク削除のハンドラを返す。
func (h *Handler) handleDeleteTask() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		t, err := h.loadTask(ctx, middleware.GetUserID(c), c.Param("id"))
		if err != nil {
			apperror.Respond(c, err)
			return
		}

		if _, err := h.queries.DeleteTask(ctx, t.ID); err != nil {
			apperror.Respond(c, fmt.Errorf("タスクの削除に失敗: %w", err))
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// loadTask はタスクを取得し、親プロジェクトを通じてアクセス可否を確認する。
// 親プロジェクトが既に存在しないタスクは見つからないものとして扱う。
func (h *Handler) loadTask(ctx context.Context, userID, taskID string) (trackerdb.Task, error) {
	if userID == "" {
		return trackerdb.Task{}, errUnauthenticated
	}

	t, err := h.queries.GetTaskByID(ctx, taskID)
	if errors.Is(err, sql.ErrNoRows) {
		return trackerdb.Task{}, errTaskNotFound
	}
	if err != nil {
		return trackerdb.Task{}, fmt.Errorf("タスクの取得に失敗: %w", err)
	}

	if _, err := h.loadProject(ctx, userID, t.ProjectID); err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return trackerdb.Task{}, errTaskNotFound
		}
		return trackerdb.Task{}, err
	}
	return t, nil
}
