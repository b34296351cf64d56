package auth

import (
	"errors"

	"github.com/nao1215/tracker/pkg/apperror"
	"golang.org/x/crypto/bcrypt"
)

// DefaultBcryptCost はbcryptの既定コスト。
const DefaultBcryptCost = 12

// PasswordHasher はパスワードのハッシュ化と照合を行う。
type PasswordHasher struct {
	cost int
}

// NewPasswordHasher は指定コストのPasswordHasherを生成する。
// bcryptの許容範囲外のコストは既定値に置き換える。
func NewPasswordHasher(cost int) *PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultBcryptCost
	}
	return &PasswordHasher{cost: cost}
}

// Hash はパスワードのbcryptハッシュを返す。ソルトはハッシュに含まれる。
func (h *PasswordHasher) Hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", apperror.New(apperror.ErrValidation, "password は72バイト以内で指定してください")
	}
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Verify はパスワードがハッシュと一致するかを返す。
func (h *PasswordHasher) Verify(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
