// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
// 内部エラーの詳細はログにのみ記録し、このメッセージには含めない。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, word, ai, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeUnauthorized        = "UNAUTHORIZED"
	ErrCodeUnknownProvider     = "UNKNOWN_PROVIDER"
	ErrCodeOAuthExchangeFailed = "OAUTH_EXCHANGE_FAILED"
	ErrCodeEmailNotAvailable   = "EMAIL_NOT_AVAILABLE"
	ErrCodeUserNotFound        = "USER_NOT_FOUND"
	ErrCodeWordNotFound        = "WORD_NOT_FOUND"
	ErrCodeSessionNotFound     = "SESSION_NOT_FOUND"
	ErrCodeValidationFailed    = "VALIDATION_FAILED"
	ErrCodeAIResponseInvalid   = "AI_RESPONSE_INVALID"
)

// NewUnauthorizedError は認証エラーを生成する。
// 期限切れ・署名不正・ヘッダー不正の区別は呼び出し側に返さない。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "認証が必要です。",
		Category: "auth",
		Action:   "ログインしてください。",
	}
}

// NewUnknownProviderError はサポート外のIdPが指定された場合のエラーを生成する。
func NewUnknownProviderError(provider string) *APIError {
	return &APIError{
		Code:     ErrCodeUnknownProvider,
		Message:  fmt.Sprintf("サポートされていない認証プロバイダーです: %s", provider),
		Category: "auth",
		Action:   "github または google を指定してください。",
	}
}

// NewOAuthExchangeFailedError は認可コード交換失敗のエラーを生成する。
// プロバイダー側のエラー詳細はログにのみ記録する。
func NewOAuthExchangeFailedError() *APIError {
	return &APIError{
		Code:     ErrCodeOAuthExchangeFailed,
		Message:  "認証プロバイダーとの連携に失敗しました。",
		Category: "auth",
		Action:   "もう一度ログインをやり直してください。",
	}
}

// NewEmailNotAvailableError はプロバイダーからメールアドレスを取得できなかった場合のエラーを生成する。
func NewEmailNotAvailableError() *APIError {
	return &APIError{
		Code:     ErrCodeEmailNotAvailable,
		Message:  "メールアドレスを取得できませんでした。",
		Category: "auth",
		Action:   "プロバイダーの設定でメールアドレスを公開するか、別のプロバイダーでログインしてください。",
	}
}

// NewUserNotFoundError はユーザーが見つからない場合のエラーを生成する。
func NewUserNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  "ユーザーが見つかりません。",
		Category: "auth",
		Action:   "ログインし直してください。",
	}
}

// NewWordNotFoundError は単語が見つからない場合のエラーを生成する。
func NewWordNotFoundError(wordID string) *APIError {
	return &APIError{
		Code:     ErrCodeWordNotFound,
		Message:  fmt.Sprintf("指定された単語が見つかりません: %s", wordID),
		Category: "word",
		Action:   "単語IDを確認してください。",
	}
}

// NewSessionNotFoundError は対話セッションが見つからない場合のエラーを生成する。
func NewSessionNotFoundError(sessionID string) *APIError {
	return &APIError{
		Code:     ErrCodeSessionNotFound,
		Message:  fmt.Sprintf("指定された対話セッションが見つかりません: %s", sessionID),
		Category: "ai",
		Action:   "セッションIDを確認してください。",
	}
}

// NewValidationError は入力値検証エラーを生成する。
func NewValidationError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeValidationFailed,
		Message:  fmt.Sprintf("入力値が不正です: %s", reason),
		Category: "validation",
		Action:   "入力内容を確認してください。",
	}
}

// NewAIResponseInvalidError はAI応答の解析失敗エラーを生成する。
func NewAIResponseInvalidError() *APIError {
	return &APIError{
		Code:     ErrCodeAIResponseInvalid,
		Message:  "AIからの応答を解析できませんでした。",
		Category: "ai",
		Action:   "しばらく待ってから再度お試しください。",
	}
}
