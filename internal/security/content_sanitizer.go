// Package security はアプリケーションのセキュリティ機能を提供する。
//
// FieldSanitizerService はユーザー入力のフリーテキスト項目（アイテム名、
// メモ、表示名など）からHTMLタグを除去する。保存されるのはプレーンテキストであり、
// マークアップを許可する項目は存在しないため、bluemondayのStrictPolicy
// （全タグ除去）を使用する。
package security

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// FieldSanitizerService はフリーテキスト項目のサニタイズ機能のインターフェースを定義する。
type FieldSanitizerService interface {
	// Sanitize は入力からHTMLタグを全て除去し、前後の空白を取り除いた
	// プレーンテキストを返す。空文字列の入力には空文字列を返す。
	// 同一入力に対して常に同一出力を返す（冪等）。
	Sanitize(raw string) string
}

// fieldSanitizer はFieldSanitizerServiceの実装。
// bluemondayのポリシーを保持し、スレッドセーフにサニタイズ処理を行う。
type fieldSanitizer struct {
	policy *bluemonday.Policy
}

// NewFieldSanitizer はFieldSanitizerServiceの新しいインスタンスを生成する。
// StrictPolicyは許可タグを持たず、全てのHTMLタグを除去する。
func NewFieldSanitizer() *fieldSanitizer {
	return &fieldSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// Sanitize は入力からHTMLタグを除去したプレーンテキストを返す。
// bluemondayはタグ除去後に残るテキストをエンティティエスケープするため、
// プレーンテキストとして保存できるようアンエスケープして返す。
func (s *fieldSanitizer) Sanitize(raw string) string {
	if raw == "" {
		return ""
	}
	cleaned := s.policy.Sanitize(raw)
	return strings.TrimSpace(html.UnescapeString(cleaned))
}

// compile-time interface check
var _ FieldSanitizerService = (*fieldSanitizer)(nil)
