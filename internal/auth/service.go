package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nao1215/tracker/internal/store"
	trackerdb "github.com/nao1215/tracker/internal/store/db"
	"github.com/nao1215/tracker/internal/token"
	"github.com/nao1215/tracker/pkg/apperror"
	"github.com/nao1215/tracker/pkg/validation"
)

var (
	// errInvalidCredentials はログイン失敗を表す。利用者の有無は区別しない。
	errInvalidCredentials = apperror.New(apperror.ErrAuthenticationFailed, "認証情報が正しくありません")
	// errPasswordMismatch は確認用パスワードの不一致を表す。
	errPasswordMismatch = apperror.New(apperror.ErrValidation, "パスワードが一致しません")
	// errUsernameTaken はユーザー名の重複を表す。
	errUsernameTaken = apperror.New(apperror.ErrConflict, "このユーザー名は既に使用されています")
	// errEmailTaken はメールアドレスの重複を表す。
	errEmailTaken = apperror.New(apperror.ErrConflict, "このメールアドレスは既に登録されています")
)

// RegisterInput は利用者登録の入力。
type RegisterInput struct {
	// Username はログイン名。
	Username string
	// Email はメールアドレス。保存前に小文字へ正規化する。
	Email string
	// Password は平文のパスワード。
	Password string
	// PasswordConfirm は確認用パスワード。
	PasswordConfirm string
}

// Service は認証に関する業務処理を行う。
type Service struct {
	// queries はsqlcが生成したクエリ実行オブジェクト。
	queries *trackerdb.Queries
	// hasher はパスワードのハッシュ化を行う。
	hasher *PasswordHasher
	// tokens はトークンの発行と検証を行う。
	tokens *token.Manager
	// now は現在時刻を返す。
	now func() time.Time
}

// NewService は新しいServiceを生成する。
func NewService(queries *trackerdb.Queries, hasher *PasswordHasher, tokens *token.Manager) *Service {
	return &Service{
		queries: queries,
		hasher:  hasher,
		tokens:  tokens,
		now:     time.Now,
	}
}

// Register は利用者を作成し、トークンの組を発行する。
// ユーザー名は前後の空白を除き、メールアドレスは正規化してから形式を検証する。
// ユーザー名とメールアドレスが既に使われている場合はapperror.ErrConflictを返す。
func (s *Service) Register(ctx context.Context, in RegisterInput) (trackerdb.User, token.Pair, error) {
	username := strings.TrimSpace(in.Username)
	if username == "" {
		return trackerdb.User{}, token.Pair{}, apperror.Missing("username")
	}
	email := normalizeEmail(in.Email)
	if err := validation.Var("email", email, "required,email"); err != nil {
		return trackerdb.User{}, token.Pair{}, err
	}

	if in.Password != in.PasswordConfirm {
		return trackerdb.User{}, token.Pair{}, errPasswordMismatch
	}

	// 項目ごとのメッセージを返すために事前に確認する。最終的な一意性はUNIQUEインデックスが保証する。
	if _, err := s.queries.GetUserByUsername(ctx, username); err == nil {
		return trackerdb.User{}, token.Pair{}, errUsernameTaken
	} else if !errors.Is(err, sql.ErrNoRows) {
		return trackerdb.User{}, token.Pair{}, fmt.Errorf("ユーザー名の確認に失敗: %w", err)
	}
	if _, err := s.queries.GetUserByEmail(ctx, email); err == nil {
		return trackerdb.User{}, token.Pair{}, errEmailTaken
	} else if !errors.Is(err, sql.ErrNoRows) {
		return trackerdb.User{}, token.Pair{}, fmt.Errorf("メールアドレスの確認に失敗: %w", err)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return trackerdb.User{}, token.Pair{}, fmt.Errorf("パスワードのハッシュ化に失敗: %w", err)
	}

	user := trackerdb.User{
		ID:           uuid.New().String(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.queries.CreateUser(ctx, trackerdb.CreateUserParams{
		ID:           user.ID,
		Username:     user.Username,
		Email:        user.Email,
		PasswordHash: user.PasswordHash,
		CreatedAt:    user.CreatedAt,
	}); err != nil {
		switch {
		case store.IsUniqueViolation(err, "users.username"):
			return trackerdb.User{}, token.Pair{}, errUsernameTaken
		case store.IsUniqueViolation(err, "users.email"):
			return trackerdb.User{}, token.Pair{}, errEmailTaken
		}
		return trackerdb.User{}, token.Pair{}, fmt.Errorf("ユーザーの作成に失敗: %w", err)
	}

	pair, err := s.tokens.IssuePair(user.ID)
	if err != nil {
		return trackerdb.User{}, token.Pair{}, err
	}
	return user, pair, nil
}

// Login はメールアドレスまたはユーザー名とパスワードで認証し、トークンの組を発行する。
// credentialはまずメールアドレスとして、見つからなければユーザー名として照合する。
func (s *Service) Login(ctx context.Context, credential, password string) (trackerdb.User, token.Pair, error) {
	credential = strings.TrimSpace(credential)
	if credential == "" {
		return trackerdb.User{}, token.Pair{}, apperror.Missing("first_credential")
	}

	user, err := s.findByCredential(ctx, credential)
	if errors.Is(err, sql.ErrNoRows) {
		return trackerdb.User{}, token.Pair{}, errInvalidCredentials
	}
	if err != nil {
		return trackerdb.User{}, token.Pair{}, fmt.Errorf("ユーザーの取得に失敗: %w", err)
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		return trackerdb.User{}, token.Pair{}, errInvalidCredentials
	}

	pair, err := s.tokens.IssuePair(user.ID)
	if err != nil {
		return trackerdb.User{}, token.Pair{}, err
	}
	return user, pair, nil
}

// findByCredential はメールアドレス、ユーザー名の順に利用者を探す。
func (s *Service) findByCredential(ctx context.Context, credential string) (trackerdb.User, error) {
	user, err := s.queries.GetUserByEmail(ctx, normalizeEmail(credential))
	if !errors.Is(err, sql.ErrNoRows) {
		return user, err
	}

	user, err = s.queries.GetUserByUsername(ctx, credential)
	if !errors.Is(err, sql.ErrNoRows) {
		return user, err
	}

	// 小文字で入力されたユーザー名も受け付ける
	if lower := strings.ToLower(credential); lower != credential {
		return s.queries.GetUserByUsername(ctx, lower)
	}
	return trackerdb.User{}, sql.ErrNoRows
}

// Refresh はリフレッシュトークンから新しいアクセストークンを発行する。
func (s *Service) Refresh(refreshToken string) (string, error) {
	return s.tokens.Refresh(refreshToken)
}

// Verify はトークンが有効かどうかを返す。アクセストークンとリフレッシュトークンのどちらでもよい。
func (s *Service) Verify(tokenString string) bool {
	return s.tokens.Verify(tokenString)
}

// Authenticate はアクセストークンを検証し、対応する利用者のIDを返す。
// middleware.Authenticatorを実装する。
func (s *Service) Authenticate(ctx context.Context, accessToken string) (string, error) {
	claims, err := s.tokens.ParseAccess(accessToken)
	if err != nil {
		return "", apperror.New(err, "トークンが無効か有効期限が切れています")
	}
	if claims.UserID == "" {
		return "", apperror.New(apperror.ErrAuthenticationFailed, "トークンにユーザー識別情報が含まれていません")
	}

	user, err := s.queries.GetUserByID(ctx, claims.UserID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", apperror.New(apperror.ErrAuthenticationFailed, "トークンに対応するユーザーが存在しません")
	}
	if err != nil {
		return "", fmt.Errorf("ユーザーの取得に失敗: %w", err)
	}
	return user.ID, nil
}

// GetUser はIDで利用者を取得する。存在しない場合はapperror.ErrNotFoundを返す。
func (s *Service) GetUser(ctx context.Context, userID string) (trackerdb.User, error) {
	user, err := s.queries.GetUserByID(ctx, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return trackerdb.User{}, apperror.New(apperror.ErrNotFound, "ユーザーが見つかりません")
	}
	if err != nil {
		return trackerdb.User{}, fmt.Errorf("ユーザーの取得に失敗: %w", err)
	}
	return user, nil
}

// normalizeEmail はメールアドレスの前後の空白を除き小文字にする。
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
