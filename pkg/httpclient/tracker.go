package httpclient

import (
	"context"
	"net/http"
	"net/url"
)

// User は利用者情報。
type User struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	CreatedAt string `json:"created_at"`
}

// Project はプロジェクト。
type Project struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description"`
	Owner       string  `json:"owner"`
	CreatedAt   string  `json:"created_at"`
}

// Task はタスク。
type Task struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description *string `json:"description"`
	Status      string  `json:"status"`
	Project     string  `json:"project"`
	CreatedAt   string  `json:"created_at"`
}

// AuthResult は登録・ログインの結果。
type AuthResult struct {
	User    User   `json:"user"`
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
	Message string `json:"message,omitempty"`
}

// RegisterRequest は利用者登録の入力。
type RegisterRequest struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm"`
}

// ProjectInput はプロジェクトの作成・更新の入力。
// 更新時は空のNameとnilのDescriptionは変更しない。
type ProjectInput struct {
	Name        string  `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
}

// TaskInput はタスクの作成・更新の入力。
// 更新時は空のTitle・Statusと、nilのDescriptionは変更しない。
type TaskInput struct {
	Title       string  `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Status      string  `json:"status,omitempty"`
}

// Register は利用者を登録する。
func (c *Client) Register(ctx context.Context, req RegisterRequest) (AuthResult, error) {
	var res AuthResult
	err := c.PostJSON(ctx, "/api/auth/register", req, &res)
	return res, err
}

// Login はメールアドレスまたはユーザー名でログインする。
func (c *Client) Login(ctx context.Context, credential, password string) (AuthResult, error) {
	var res AuthResult
	err := c.PostJSON(ctx, "/api/auth/login", map[string]string{
		"first_credential": credential,
		"password":         password,
	}, &res)
	return res, err
}

// RefreshToken はリフレッシュトークンから新しいアクセストークンを取得する。
func (c *Client) RefreshToken(ctx context.Context, refresh string) (string, error) {
	var res struct {
		Access string `json:"access"`
	}
	if err := c.PostJSON(ctx, "/api/auth/token/refresh", map[string]string{"refresh": refresh}, &res); err != nil {
		return "", err
	}
	return res.Access, nil
}

// VerifyToken はトークンが有効かどうかを返す。
// 無効なトークンはエラーではなくfalseとして返す。
func (c *Client) VerifyToken(ctx context.Context, token string) (bool, error) {
	err := c.PostJSON(ctx, "/api/auth/token/verify", map[string]string{"token": token}, nil)
	if StatusCode(err) == http.StatusUnauthorized {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Me はアクセストークンの持ち主の情報を返す。
func (c *Client) Me(ctx context.Context) (User, error) {
	var res struct {
		User User `json:"user"`
	}
	err := c.GetJSON(ctx, "/api/auth/me", &res)
	return res.User, err
}

// ListProjects は自分のプロジェクト一覧を返す。
func (c *Client) ListProjects(ctx context.Context) ([]Project, error) {
	var res struct {
		Results []Project `json:"results"`
	}
	err := c.GetJSON(ctx, "/api/projects", &res)
	return res.Results, err
}

// CreateProject はプロジェクトを作成する。
func (c *Client) CreateProject(ctx context.Context, in ProjectInput) (Project, error) {
	var res struct {
		Project Project `json:"project"`
	}
	err := c.PostJSON(ctx, "/api/projects", in, &res)
	return res.Project, err
}

// GetProject はプロジェクトを取得する。
func (c *Client) GetProject(ctx context.Context, id string) (Project, error) {
	var res Project
	err := c.GetJSON(ctx, "/api/projects/"+url.PathEscape(id), &res)
	return res, err
}

// UpdateProject はプロジェクトを部分更新する。
func (c *Client) UpdateProject(ctx context.Context, id string, in ProjectInput) (Project, error) {
	var res Project
	err := c.PutJSON(ctx, "/api/projects/"+url.PathEscape(id), in, &res)
	return res, err
}

// DeleteProject はプロジェクトを削除する。
func (c *Client) DeleteProject(ctx context.Context, id string) error {
	return c.Delete(ctx, "/api/projects/"+url.PathEscape(id))
}

// ListTasks はプロジェクト配下のタスク一覧を返す。statusが空でなければ状態で絞り込む。
func (c *Client) ListTasks(ctx context.Context, projectID, status string) ([]Task, error) {
	path := "/api/projects/" + url.PathEscape(projectID) + "/tasks"
	if status != "" {
		path += "?" + url.Values{"status": {status}}.Encode()
	}
	var res struct {
		Results []Task `json:"results"`
	}
	err := c.GetJSON(ctx, path, &res)
	return res.Results, err
}

// CreateTask はプロジェクトにタスクを作成する。
func (c *Client) CreateTask(ctx context.Context, projectID string, in TaskInput) (Task, error) {
	var res struct {
		Task Task `json:"task"`
	}
	err := c.PostJSON(ctx, "/api/projects/"+url.PathEscape(projectID)+"/tasks", in, &res)
	return res.Task, err
}

// GetTask はタスクを取得する。
func (c *Client) GetTask(ctx context.Context, id string) (Task, error) {
	var res Task
	err := c.GetJSON(ctx, "/api/tasks/"+url.PathEscape(id), &res)
	return res, err
}

// UpdateTask はタスクを部分更新する。
func (c *Client) UpdateTask(ctx context.Context, id string, in TaskInput) (Task, error) {
	var res Task
	err := c.PutJSON(ctx, "/api/tasks/"+url.PathEscape(id), in, &res)
	return res, err
}

// DeleteTask はタスクを削除する。
func (c *Client) DeleteTask(ctx context.Context, id string) error {
	return c.Delete(ctx, "/api/tasks/"+url.PathEscape(id))
}
