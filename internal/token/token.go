// Package token はアクセストークンとリフレッシュトークンの発行・検証を提供する。
//
// どちらのトークンもHS256で署名したJWTで、user_idクレームで利用者を識別する。
// token_typeクレームで種別を区別し、リフレッシュトークンでAPIを呼ぶことはできない。
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/nao1215/tracker/pkg/apperror"
)

// Kind はトークンの種別。
type Kind string

const (
	// KindAccess はAPI呼び出しに使う短命なトークン。
	KindAccess Kind = "access"
	// KindRefresh はアクセストークンの再発行にのみ使う長命なトークン。
	KindRefresh Kind = "refresh"
)

const (
	// DefaultAccessTTL はアクセストークンの既定の有効期間。
	DefaultAccessTTL = 30 * time.Minute
	// DefaultRefreshTTL はリフレッシュトークンの既定の有効期間。
	DefaultRefreshTTL = 7 * 24 * time.Hour
	// issuer はトークンの発行者。
	issuer = "tracker"
)

// ErrExpired はトークンの有効期限切れを表す。apperror.ErrInvalidTokenとしても判定できる。
var ErrExpired = fmt.Errorf("%w: トークンの有効期限が切れています", apperror.ErrInvalidToken)

// Claims はトークンのクレーム（ペイロード）を表す。
type Claims struct {
	jwt.RegisteredClaims
	// UserID は認証済みユーザーの一意識別子。
	UserID string `json:"user_id"`
	// TokenType はトークン種別。
	TokenType Kind `json:"token_type"`
}

// Pair はログイン時に発行するトークンの組。
type Pair struct {
	// Access はアクセストークン。
	Access string
	// Refresh はリフレッシュトークン。
	Refresh string
}

// Config はManagerの設定。
type Config struct {
	// Secret は署名用の秘密鍵。
	Secret string
	// AccessTTL はアクセストークンの有効期間。0の場合はDefaultAccessTTL。
	AccessTTL time.Duration
	// RefreshTTL はリフレッシュトークンの有効期間。0の場合はDefaultRefreshTTL。
	RefreshTTL time.Duration
}

// Manager はトークンの発行と検証を行う。状態を持たないため並行に使用できる。
type Manager struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	// now は現在時刻を返す。テストで差し替える。
	now func() time.Time
}

// NewManager は新しいManagerを生成する。
func NewManager(cfg Config) *Manager {
	m := &Manager{
		secret:     []byte(cfg.Secret),
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
		now:        time.Now,
	}
	if m.accessTTL <= 0 {
		m.accessTTL = DefaultAccessTTL
	}
	if m.refreshTTL <= 0 {
		m.refreshTTL = DefaultRefreshTTL
	}
	return m
}

// AccessTTL はアクセストークンの有効期間を返す。
func (m *Manager) AccessTTL() time.Duration {
	return m.accessTTL
}

// IssuePair はユーザーのアクセストークンとリフレッシュトークンを発行する。
func (m *Manager) IssuePair(userID string) (Pair, error) {
	access, err := m.issue(userID, KindAccess, m.accessTTL)
	if err != nil {
		return Pair{}, err
	}
	refresh, err := m.issue(userID, KindRefresh, m.refreshTTL)
	if err != nil {
		return Pair{}, err
	}
	return Pair{Access: access, Refresh: refresh}, nil
}

// Refresh はリフレッシュトークンから新しいアクセストークンを発行する。
// リフレッシュトークン自体は失効させず、自身の有効期限まで使い続けられる。
func (m *Manager) Refresh(refreshToken string) (string, error) {
	claims, err := m.parse(refreshToken, KindRefresh)
	if err != nil {
		return "", err
	}
	return m.issue(claims.UserID, KindAccess, m.accessTTL)
}

// Verify はトークンが署名・有効期限ともに正しいかを返す。種別は問わない。
func (m *Manager) Verify(tokenString string) bool {
	if _, err := m.parse(tokenString, KindAccess); err == nil {
		return true
	}
	_, err := m.parse(tokenString, KindRefresh)
	return err == nil
}

// ParseAccess はアクセストークンを検証してクレームを返す。
// リフレッシュトークンはapperror.ErrInvalidTokenとして拒否する。
func (m *Manager) ParseAccess(tokenString string) (*Claims, error) {
	return m.parse(tokenString, KindAccess)
}

// issue は指定された種別のトークンを署名して返す。
func (m *Manager) issue(userID string, kind Kind, ttl time.Duration) (string, error) {
	now := m.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		UserID:    userID,
		TokenType: kind,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("JWTトークンの署名に失敗: %w", err)
	}
	return signed, nil
}

// parse はトークンを検証し、種別が一致する場合にクレームを返す。
func (m *Manager) parse(tokenString string, kind Kind) (*Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)

	claims := &Claims{}
	token, err := parser.ParseWithClaims(tokenString, claims, func(_ *jwt.Token) (any, error) {
		return m.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpired
		}
		return nil, fmt.Errorf("%w: %v", apperror.ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, apperror.ErrInvalidToken
	}
	if claims.TokenType != kind {
		return nil, fmt.Errorf("%w: トークン種別が %s ではありません", apperror.ErrInvalidToken, kind)
	}
	return claims, nil
}
