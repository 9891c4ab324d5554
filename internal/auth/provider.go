// Package auth はOAuth認証フローとアカウント解決を提供する。
package auth

import (
	"context"
	"errors"

	"github.com/lexiflow/lexiflow/internal/model"
)

// userAgent はIdPへのリクエストに付与するUser-Agentヘッダー。
// GitHub APIはUser-Agentなしのリクエストを拒否する。
const userAgent = "LexiFlow"

// ErrNoEmail はプロバイダーからメールアドレスを取得できなかったことを表す。
// GitHubの非公開メール設定でprimaryメールも見つからない場合に発生する。
var ErrNoEmail = errors.New("no email available from provider")

// ErrExchangeFailed は認可コード交換またはプロフィール取得の失敗を表す。
// ネットワークエラー・非成功ステータス・解析不能なレスポンスを包含する。
var ErrExchangeFailed = errors.New("provider exchange failed")

// ErrUnknownProvider はサポート外のプロバイダー名が指定されたことを表す。
var ErrUnknownProvider = errors.New("unknown provider")

// Provider はOAuth認証プロバイダーのインターフェース。
// 認可コードをアクセストークンに交換し、正規化済みプロフィールを返す。
type Provider interface {
	// Name はプロバイダー名（"github"、"google"等）を返す。
	Name() string
	// ExchangeCode は認可コードをトークンに交換し、ユーザー情報を取得する。
	// メールアドレスが取得できない場合はErrNoEmailを返す。
	ExchangeCode(ctx context.Context, code, redirectURI string) (*model.ProviderProfile, error)
}
