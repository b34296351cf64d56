package token

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/nao1215/tracker/pkg/apperror"
)

// testSecret はテスト用のJWTシークレット。
const testSecret = "test-secret-key-for-unit-tests"

// newTestManager は現在時刻を固定したManagerを生成する。
func newTestManager(now time.Time) *Manager {
	m := NewManager(Config{Secret: testSecret})
	m.now = func() time.Time { return now }
	return m
}

// TestNewManager は既定値の補完を検証する。
func TestNewManager(t *testing.T) {
	t.Parallel()

	m := NewManager(Config{Secret: testSecret})
	if m.accessTTL != 30*time.Minute {
		t.Errorf("accessTTL = %v, want 30m", m.accessTTL)
	}
	if m.refreshTTL != 7*24*time.Hour {
		t.Errorf("refreshTTL = %v, want 168h", m.refreshTTL)
	}

	custom := NewManager(Config{Secret: testSecret, AccessTTL: time.Minute, RefreshTTL: time.Hour})
	if custom.AccessTTL() != time.Minute || custom.refreshTTL != time.Hour {
		t.Errorf("TTL = %v/%v, want 1m/1h", custom.accessTTL, custom.refreshTTL)
	}
}

// TestIssuePair はトークンの組の発行を検証する。
func TestIssuePair(t *testing.T) {
	t.Parallel()

	t.Run("2種類のトークンに正しいクレームが入ること", func(t *testing.T) {
		t.Parallel()

		now := time.Now()
		m := newTestManager(now)
		pair, err := m.IssuePair("user-123")
		if err != nil {
			t.Fatalf("IssuePair()でエラーが発生: %v", err)
		}
		if pair.Access == "" || pair.Refresh == "" || pair.Access == pair.Refresh {
			t.Fatalf("pair = %+v", pair)
		}

		access, err := m.ParseAccess(pair.Access)
		if err != nil {
			t.Fatalf("ParseAccess()でエラーが発生: %v", err)
		}
		if access.UserID != "user-123" {
			t.Errorf("UserID = %q, want %q", access.UserID, "user-123")
		}
		if access.TokenType != KindAccess {
			t.Errorf("TokenType = %q, want %q", access.TokenType, KindAccess)
		}
		if access.ID == "" {
			t.Error("jtiが空")
		}
		wantExp := now.Add(30 * time.Minute).Unix()
		if access.ExpiresAt.Unix() != wantExp {
			t.Errorf("ExpiresAt = %d, want %d", access.ExpiresAt.Unix(), wantExp)
		}

		refresh, err := m.parse(pair.Refresh, KindRefresh)
		if err != nil {
			t.Fatalf("リフレッシュトークンのパースに失敗: %v", err)
		}
		if refresh.ExpiresAt.Unix() != now.Add(7*24*time.Hour).Unix() {
			t.Errorf("リフレッシュトークンの有効期限が7日後ではない: %v", refresh.ExpiresAt)
		}
	})

	t.Run("署名アルゴリズムがHS256であること", func(t *testing.T) {
		t.Parallel()

		pair, err := NewManager(Config{Secret: testSecret}).IssuePair("user-alg")
		if err != nil {
			t.Fatalf("IssuePair()でエラーが発生: %v", err)
		}
		token, _, err := new(jwt.Parser).ParseUnverified(pair.Access, &Claims{})
		if err != nil {
			t.Fatalf("ParseUnverified()でエラーが発生: %v", err)
		}
		if token.Method.Alg() != "HS256" {
			t.Errorf("alg = %q, want HS256", token.Method.Alg())
		}
	})

	t.Run("別ユーザーのトークンは別ユーザーに解決されること", func(t *testing.T) {
		t.Parallel()

		m := NewManager(Config{Secret: testSecret})
		a, _ := m.IssuePair("user-a")
		b, _ := m.IssuePair("user-b")

		ca, err := m.ParseAccess(a.Access)
		if err != nil {
			t.Fatalf("ParseAccess(a)でエラーが発生: %v", err)
		}
		cb, err := m.ParseAccess(b.Access)
		if err != nil {
			t.Fatalf("ParseAccess(b)でエラーが発生: %v", err)
		}
		if ca.UserID != "user-a" || cb.UserID != "user-b" {
			t.Errorf("UserID = %q/%q, want user-a/user-b", ca.UserID, cb.UserID)
		}
	})
}

// TestParseAccess は不正なトークンの拒否を検証する。
func TestParseAccess(t *testing.T) {
	t.Parallel()

	m := NewManager(Config{Secret: testSecret})
	pair, err := m.IssuePair("user-1")
	if err != nil {
		t.Fatalf("IssuePair()でエラーが発生: %v", err)
	}

	expired, err := newTestManager(time.Now().Add(-2 * time.Hour)).IssuePair("user-1")
	if err != nil {
		t.Fatalf("IssuePair()でエラーが発生: %v", err)
	}

	otherSecret, err := NewManager(Config{Secret: "other-secret"}).IssuePair("user-1")
	if err != nil {
		t.Fatalf("IssuePair()でエラーが発生: %v", err)
	}

	// ペイロード部分を書き換えて署名と一致しないようにする
	parts := strings.Split(pair.Access, ".")
	payload := []byte(parts[1])
	if payload[5] == 'A' {
		payload[5] = 'B'
	} else {
		payload[5] = 'A'
	}
	tampered := parts[0] + "." + string(payload) + "." + parts[2]

	none := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
		UserID:           "user-1",
		TokenType:        KindAccess,
	})
	noneToken, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("none署名トークンの生成に失敗: %v", err)
	}

	tests := []struct {
		name  string
		token string
	}{
		{"期限切れ", expired.Access},
		{"改ざん", tampered},
		{"別の秘密鍵で署名", otherSecret.Access},
		{"リフレッシュトークン", pair.Refresh},
		{"alg=none", noneToken},
		{"空文字列", ""},
		{"JWTではない", "not-a-jwt"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name+"のトークンは拒否されること", func(t *testing.T) {
			t.Parallel()

			_, err := m.ParseAccess(tt.token)
			if !errors.Is(err, apperror.ErrInvalidToken) {
				t.Errorf("err = %v, want ErrInvalidToken", err)
			}
		})
	}

	t.Run("期限切れはErrExpiredとして判定できること", func(t *testing.T) {
		t.Parallel()

		_, err := m.ParseAccess(expired.Access)
		if !errors.Is(err, ErrExpired) {
			t.Errorf("err = %v, want ErrExpired", err)
		}
	})
}

// TestRefresh はアクセストークンの再発行を検証する。
func TestRefresh(t *testing.T) {
	t.Parallel()

	t.Run("新しいアクセストークンが単独で検証できること", func(t *testing.T) {
		t.Parallel()

		m := NewManager(Config{Secret: testSecret})
		pair, _ := m.IssuePair("user-1")

		access, err := m.Refresh(pair.Refresh)
		if err != nil {
			t.Fatalf("Refresh()でエラーが発生: %v", err)
		}
		claims, err := m.ParseAccess(access)
		if err != nil {
			t.Fatalf("再発行したトークンの検証に失敗: %v", err)
		}
		if claims.UserID != "user-1" {
			t.Errorf("UserID = %q, want user-1", claims.UserID)
		}

		// リフレッシュトークンはローテーションされず再利用できる
		if _, err := m.Refresh(pair.Refresh); err != nil {
			t.Errorf("2回目のRefresh()でエラーが発生: %v", err)
		}
	})

	t.Run("アクセストークンでは再発行できないこと", func(t *testing.T) {
		t.Parallel()

		m := NewManager(Config{Secret: testSecret})
		pair, _ := m.IssuePair("user-1")
		if _, err := m.Refresh(pair.Access); !errors.Is(err, apperror.ErrInvalidToken) {
			t.Errorf("err = %v, want ErrInvalidToken", err)
		}
	})

	t.Run("期限切れのリフレッシュトークンは拒否されること", func(t *testing.T) {
		t.Parallel()

		old, _ := newTestManager(time.Now().Add(-8 * 24 * time.Hour)).IssuePair("user-1")
		m := NewManager(Config{Secret: testSecret})
		if _, err := m.Refresh(old.Refresh); !errors.Is(err, apperror.ErrInvalidToken) {
			t.Errorf("err = %v, want ErrInvalidToken", err)
		}
	})
}

// TestVerify はトークン種別を問わない検証を確認する。
func TestVerify(t *testing.T) {
	t.Parallel()

	m := NewManager(Config{Secret: testSecret})
	pair, _ := m.IssuePair("user-1")
	expired, _ := newTestManager(time.Now().Add(-8 * 24 * time.Hour)).IssuePair("user-1")

	tests := []struct {
		name  string
		token string
		want  bool
	}{
		{"アクセストークン", pair.Access, true},
		{"リフレッシュトークン", pair.Refresh, true},
		{"期限切れのリフレッシュトークン", expired.Refresh, false},
		{"不正な文字列", "abc.def.ghi", false},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := m.Verify(tt.token); got != tt.want {
				t.Errorf("Verify() = %v, want %v", got, tt.want)
			}
		})
	}
}
