// Package validation はGinのリクエストバインディングで使う検証処理をまとめる。
//
// go-playground/validatorのエラーをapperrorの分類に変換し、
// 必須項目の欠落はJSONフィールド名の一覧としてクライアントに返す。
package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	"github.com/nao1215/tracker/pkg/apperror"
)

var setupOnce sync.Once

// oneofValuePattern はoneofタグの引数を値ごとに分割する。単一引用符で囲まれた値は空白を含められる。
var oneofValuePattern = regexp.MustCompile(`'[^']*'|\S+`)

// Setup はGinの検証エンジンがエラーにJSONフィールド名を使うよう設定し、
// 空白だけの文字列を拒否するnotblankタグを登録する。
// 複数回呼び出しても1度だけ適用される。
func Setup() {
	setupOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(jsonFieldName)
		if err := v.RegisterValidation("notblank", validators.NotBlank); err != nil {
			panic(fmt.Sprintf("notblankタグの登録に失敗: %v", err))
		}
	})
}

// jsonFieldName は構造体フィールドのjsonタグ名を返す。
func jsonFieldName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	if name == "-" {
		return ""
	}
	if name == "" {
		return f.Name
	}
	return name
}

// BindJSON はリクエストボディをobjにバインドして検証する。
// ボディが空の場合はゼロ値のobjを検証するため、必須項目の欠落として報告される。
// 返すエラーはapperror.ErrValidationに分類される。
func BindJSON(c *gin.Context, obj any) error {
	Setup()

	err := c.ShouldBindJSON(obj)
	if errors.Is(err, io.EOF) {
		err = binding.Validator.ValidateStruct(obj)
	}
	if err == nil {
		return nil
	}
	return Translate(err)
}

// Var は構造体に属さない単一の値をtagで検証する。
// 正規化した後の値を検証するときに使い、エラーはfieldの名前で報告する。
func Var(field string, value any, tag string) error {
	Setup()

	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}
	err := v.Var(value, tag)
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	if verrs[0].Tag() == "required" {
		return apperror.Missing(field)
	}
	return apperror.New(apperror.ErrValidation, describe(field, verrs[0]))
}

// Translate はバインディング・検証エラーをapperror.Errorに変換する。
func Translate(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		var missing []string
		for _, fe := range verrs {
			if fe.Tag() == "required" {
				missing = append(missing, fe.Field())
			}
		}
		if len(missing) > 0 {
			return apperror.Missing(missing...)
		}
		return apperror.New(apperror.ErrValidation, describe(verrs[0].Field(), verrs[0]))
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &syntaxErr), errors.Is(err, io.ErrUnexpectedEOF):
		return apperror.New(apperror.ErrValidation, "リクエストボディのJSONが不正です")
	case errors.As(err, &typeErr):
		return apperror.New(apperror.ErrValidation, fmt.Sprintf("%s の型が不正です", typeErr.Field))
	}
	return apperror.New(apperror.ErrValidation, fmt.Sprintf("リクエストが不正です: %v", err))
}

// describe は検証エラー1件をfieldについてのメッセージに変換する。
func describe(field string, fe validator.FieldError) string {
	switch fe.Tag() {
	case "email":
		return fmt.Sprintf("%s の形式が不正です", field)
	case "max":
		return fmt.Sprintf("%s は%s文字以内で指定してください", field, fe.Param())
	case "notblank":
		return fmt.Sprintf("%s は空白以外の文字を含めてください", field)
	case "oneof":
		return fmt.Sprintf("%s は次のいずれかを指定してください: %s", field, strings.Join(oneofValues(fe.Param()), ", "))
	default:
		return fmt.Sprintf("%s の値が不正です", field)
	}
}

// oneofValues はoneofタグの引数から許可された値の一覧を取り出す。
func oneofValues(param string) []string {
	values := oneofValuePattern.FindAllString(param, -1)
	for i, v := range values {
		values[i] = strings.Trim(v, "'")
	}
	return values
}
