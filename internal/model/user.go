// Package model はドメインモデルを定義する。
package model

import (
	"time"

	"github.com/google/uuid"
)

// User はサービス利用ユーザーを表す。
// 初回のOAuthコールバック成功時に1回だけ作成され、
// 以降の同一プロバイダーIDでのログインではUpdatedAtのみが更新される。
// (provider, provider_id)の組は高々1人のユーザーを一意に識別する。
type User struct {
	ID         uuid.UUID
	Email      string
	Name       string
	Image      string
	Provider   string
	ProviderID string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// ProviderProfile は外部IdPから取得した正規化済みユーザー情報を表す。
// コールバックリクエストごとに構築され、アカウント解決後に破棄される。
type ProviderProfile struct {
	Provider       string // "github", "google"
	ProviderUserID string
	Email          string
	Name           string
	Image          string
}
