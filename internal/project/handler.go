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

var (
	// errProjectNotFound はプロジェクトが存在しないことを表す。
	errProjectNotFound = apperror.New(apperror.ErrNotFound, "プロジェクトが見つかりません")
	// errProjectForbidden は他人のプロジェクトへのアクセスを表す。
	errProjectForbidden = apperror.New(apperror.ErrForbidden, "このプロジェクトへのアクセス権がありません")
	// errUnauthenticated は認証済みユーザーIDが取得できないことを表す。
	errUnauthenticated = apperror.New(apperror.ErrAuthenticationFailed, "ユーザーIDが取得できません")
)

// Options はHandlerの動作設定。
type Options struct {
	// CascadeDeleteTasks がtrueの場合、プロジェクト削除時に配下のタスクも削除する。
	CascadeDeleteTasks bool
}

// Handler はプロジェクト・タスクAPIのHTTPハンドラ群。
type Handler struct {
	// db はトランザクション開始に使うデータベース接続。
	db *sql.DB
	// queries はsqlcが生成したクエリ実行オブジェクト。
	queries *trackerdb.Queries
	// cascadeDeleteTasks はプロジェクト削除時にタスクも削除するかどうか。
	cascadeDeleteTasks bool
	// now は現在時刻を返す。
	now func() time.Time
}

// NewHandler は新しいHandlerを生成する。
func NewHandler(db *sql.DB, opts Options) *Handler {
	return &Handler{
		db:                 db,
		queries:            trackerdb.New(db),
		cascadeDeleteTasks: opts.CascadeDeleteTasks,
		now:                time.Now,
	}
}

// RegisterRoutes はプロジェクト・タスクAPIのルーティングを設定する。
// rgには認証ミドルウェアが適用済みであること。
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	projects := rg.Group("/projects")
	{
		projects.GET("", h.handleListProjects())
		projects.POST("", h.handleCreateProject())
		projects.GET("/:id", h.handleGetProject())
		projects.PUT("/:id", h.handleUpdateProject())
		projects.DELETE("/:id", h.handleDeleteProject())
		projects.GET("/:id/tasks", h.handleListTasks())
		projects.POST("/:id/tasks", h.handleCreateTask())
	}

	tasks := rg.Group("/tasks")
	{
		tasks.GET("/:id", h.handleGetTask())
		tasks.PUT("/:id", h.handleUpdateTask())
		tasks.DELETE("/:id", h.handleDeleteTask())
	}
}

// canAccess は利用者がプロジェクト（とその配下のタスク）を操作できるかを返す。
func canAccess(userID string, p trackerdb.Project) bool {
	return userID != "" && p.OwnerID == userID
}

// createProjectRequest はプロジェクト作成リクエストのJSON構造。
type createProjectRequest struct {
	// Name はプロジェクト名。
	Name string `json:"name" binding:"required,notblank,max=200"`
	// Description はプロジェクトの説明。省略時はnull。
	Description *string `json:"description"`
}

// updateProjectRequest はプロジェクト更新リクエストのJSON構造。
// 空でないnameと、nullでないdescriptionだけを反映する。
type updateProjectRequest struct {
	Name        string  `json:"name" binding:"omitempty,notblank,max=200"`
	Description *string `json:"description"`
}

// projectResponse はプロジェクトのJSONレスポンス構造。
type projectResponse struct {
	// ID はプロジェクトの一意識別子。
	ID string `json:"id"`
	// Name はプロジェクト名。
	Name string `json:"name"`
	// Description はプロジェクトの説明。未設定の場合はnull。
	Description *string `json:"description"`
	// Owner は所有者のユーザーID。
	Owner string `json:"owner"`
	// CreatedAt は作成日時。
	CreatedAt string `json:"created_at"`
}

// toProjectResponse はDB行をJSONレスポンスに変換する。
func toProjectResponse(p trackerdb.Project) projectResponse {
	return projectResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: fromNullString(p.Description),
		Owner:       p.OwnerID,
		CreatedAt:   p.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// handleListProjects は自分のプロジェクト一覧を返すハンドラを返す。
func (h *Handler) handleListProjects() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := middleware.GetUserID(c)
		if userID == "" {
			apperror.Respond(c, errUnauthenticated)
			return
		}

		projects, err := h.queries.ListProjectsByOwnerID(c.Request.Context(), userID)
		if err != nil {
			apperror.Respond(c, fmt.Errorf("プロジェクト一覧の取得に失敗: %w", err))
			return
		}

		results := make([]projectResponse, 0, len(projects))
		for _, p := range projects {
			results = append(results, toProjectResponse(p))
		}
		c.JSON(http.StatusOK, gin.H{"results": results})
	}
}

// handleCreateProject はプロジェクト作成のハンドラを返す。所有者は常にリクエスト者になる。
func (h *Handler) handleCreateProject() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := middleware.GetUserID(c)
		if userID == "" {
			apperror.Respond(c, errUnauthenticated)
			return
		}

		var req createProjectRequest
		if err := validation.BindJSON(c, &req); err != nil {
			apperror.Respond(c, err)
			return
		}

		p := trackerdb.Project{
			ID:          uuid.New().String(),
			OwnerID:     userID,
			Name:        req.Name,
			Description: toNullString(req.Description),
			CreatedAt:   h.now().UTC(),
		}
		if err := h.queries.CreateProject(c.Request.Context(), trackerdb.CreateProjectParams{
			ID:          p.ID,
			OwnerID:     p.OwnerID,
			Name:        p.Name,
			Description: p.Description,
			CreatedAt:   p.CreatedAt,
		}); err != nil {
			apperror.Respond(c, fmt.Errorf("プロジェクトの作成に失敗: %w", err))
			return
		}

		c.JSON(http.StatusCreated, gin.H{
			"project": toProjectResponse(p),
			"message": "プロジェクトを作成しました",
		})
	}
}

// handleGetProject はプロジェクト詳細のハンドラを返す。
func (h *Handler) handleGetProject() gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := h.loadProject(c.Request.Context(), middleware.GetUserID(c), c.Param("id"))
		if err != nil {
			apperror.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, toProjectResponse(p))
	}
}

// handleUpdateProject はプロジェクト更新のハンドラを返す。
func (h *Handler) handleUpdateProject() gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := h.loadProject(c.Request.Context(), middleware.GetUserID(c), c.Param("id"))
		if err != nil {
			apperror.Respond(c, err)
			return
		}

		var req updateProjectRequest
		if err := validation.BindJSON(c, &req); err != nil {
			apperror.Respond(c, err)
			return
		}

		if req.Name != "" {
			p.Name = req.Name
		}
		if req.Description != nil {
			p.Description = toNullString(req.Description)
		}

		if err := h.queries.UpdateProject(c.Request.Context(), trackerdb.UpdateProjectParams{
			Name:        p.Name,
			Description: p.Description,
			ID:          p.ID,
		}); err != nil {
			apperror.Respond(c, fmt.Errorf("プロジェクトの更新に失敗: %w", err))
			return
		}

		c.JSON(http.StatusOK, toProjectResponse(p))
	}
}

// handleDeleteProject はプロジェクト削除のハンドラを返す。
func (h *Handler) handleDeleteProject() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		p, err := h.loadProject(ctx, middleware.GetUserID(c), c.Param("id"))
		if err != nil {
			apperror.Respond(c, err)
			return
		}

		if err := h.deleteProject(ctx, p.ID); err != nil {
			apperror.Respond(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// deleteProject はプロジェクトを削除する。
// cascadeDeleteTasksが有効な場合は配下のタスクも同じトランザクションで削除する。
func (h *Handler) deleteProject(ctx context.Context, projectID string) error {
	if !h.cascadeDeleteTasks {
		if _, err := h.queries.DeleteProject(ctx, projectID); err != nil {
			return fmt.Errorf("プロジェクトの削除に失敗: %w", err)
		}
		return nil
	}

	tx, err := h.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("トランザクションの開始に失敗: %w", err)
	}
	// コミット後のRollbackはsql.ErrTxDoneを返すだけなので無視する
	defer func() { _ = tx.Rollback() }()

	qtx := h.queries.WithTx(tx)
	if _, err := qtx.DeleteTasksByProjectID(ctx, projectID); err != nil {
		return fmt.Errorf("タスクの削除に失敗: %w", err)
	}
	if _, err := qtx.DeleteProject(ctx, projectID); err != nil {
		return fmt.Errorf("プロジェクトの削除に失敗: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("トランザクションのコミットに失敗: %w", err)
	}
	return nil
}

// loadProject はプロジェクトを取得し、利用者がアクセスできるかを確認する。
// 存在しない場合はNotFound、所有者でない場合はForbiddenを返す。
func (h *Handler) loadProject(ctx context.Context, userID, projectID string) (trackerdb.Project, error) {
	if userID == "" {
		return trackerdb.Project{}, errUnauthenticated
	}

	p, err := h.queries.GetProjectByID(ctx, projectID)
	if errors.Is(err, sql.ErrNoRows) {
		return trackerdb.Project{}, errProjectNotFound
	}
	if err != nil {
		return trackerdb.Project{}, fmt.Errorf("プロジェクトの取得に失敗: %w", err)
	}

	if !canAccess(userID, p) {
		return trackerdb.Project{}, errProjectForbidden
	}
	return p, nil
}

// toNullString は*stringをsql.NullStringに変換する。nilはNULLになる。
func toNullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

// fromNullString はsql.NullStringを*stringに変換する。NULLはnilになる。
func fromNullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
