// Package security はアプリケーションのセキュリティ機能を提供する。
//
// TextSanitizer はニックネームなどユーザーが自由入力するテキストから
// HTMLを除去し、表示用のプレーンテキストに正規化する。
package security

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// TextSanitizer はプレーンテキスト化のインターフェース。
type TextSanitizer interface {
	// SanitizeText はHTMLタグを除去し、連続する空白を1つにまとめ、前後の空白を取り除く。
	// 同一入力に対して常に同一出力を返す。
	SanitizeText(raw string) string
}

// textSanitizer はbluemondayのStrictPolicyによるTextSanitizerの実装。
// ポリシーは並行利用できる。
type textSanitizer struct {
	policy *bluemonday.Policy
}

// NewTextSanitizer はTextSanitizerを生成する。
func NewTextSanitizer() TextSanitizer {
	return &textSanitizer{policy: bluemonday.StrictPolicy()}
}

// SanitizeText はHTMLを除去したプレーンテキストを返す。
// StrictPolicyがエスケープした文字実体は元に戻し、山括弧は残さない。
func (s *textSanitizer) SanitizeText(raw string) string {
	stripped := html.UnescapeString(s.policy.Sanitize(raw))
	stripped = strings.Map(func(r rune) rune {
		if r == '<' || r == '>' {
			return -1
		}
		return r
	}, stripped)
	return strings.Join(strings.Fields(stripped), " ")
}
