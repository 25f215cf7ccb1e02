// Package security はアプリケーションのセキュリティ機能を提供する。
//
// ContentSanitizer は利用者が投稿するテキスト（クラス説明、レビュー）を
// 保存前にサニタイズする。bluemondayの許可リストポリシーを使用する。
package security

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// ContentSanitizer は投稿テキストのサニタイズ機能のインターフェース。
type ContentSanitizer interface {
	// SanitizeRichText はクラス説明向けに簡易な書式タグのみを残す。
	// 許可タグ: p, br, ul, ol, li, strong, em, a(href, httpsのみ)
	SanitizeRichText(raw string) string

	// SanitizePlainText は全てのタグを除去し、前後の空白を取り除く。
	// レビュー本文や名前などのプレーンテキスト項目に使用する。
	SanitizePlainText(raw string) string
}

// contentSanitizer はContentSanitizerの実装。ポリシーはスレッドセーフ。
type contentSanitizer struct {
	rich  *bluemonday.Policy
	plain *bluemonday.Policy
}

// NewContentSanitizer はContentSanitizerを生成する。
func NewContentSanitizer() *contentSanitizer {
	rich := bluemonday.NewPolicy()
	rich.AllowElements("p", "br", "ul", "ol", "li", "strong", "em")

	// リンクはhttpsの絶対URLのみ。新しいタブで開き、リファラーを送らない
	rich.AllowAttrs("href").OnElements("a")
	rich.AllowURLSchemes("https")
	rich.AllowRelativeURLs(false)
	rich.AddTargetBlankToFullyQualifiedLinks(true)
	rich.RequireNoReferrerOnLinks(true)

	return &contentSanitizer{
		rich:  rich,
		plain: bluemonday.StrictPolicy(),
	}
}

// SanitizeRichText は簡易な書式タグのみを残してサニタイズする。
func (s *contentSanitizer) SanitizeRichText(raw string) string {
	return strings.TrimSpace(s.rich.Sanitize(raw))
}

// SanitizePlainText は全てのタグを除去する。
func (s *contentSanitizer) SanitizePlainText(raw string) string {
	return strings.TrimSpace(s.plain.Sanitize(raw))
}
