// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/lexiflow/lexiflow/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id uuid.UUID) (*model.User, error)

	// FindByProvider はproviderとprovider_idでユーザーを検索する。
	// 見つからない場合はnilを返す。
	FindByProvider(ctx context.Context, provider, providerID string) (*model.User, error)

	// Create はユーザーを作成する。(provider, provider_id)の一意制約に対する
	// 競合処理付きUPSERTであり、並行する初回ログインが同じ行に収束する。
	// 競合時は既存行のemail/name/imageを上書きせず、updated_atのみ更新して
	// 正準の行を返す。
	Create(ctx context.Context, user *model.User) (*model.User, error)

	// TouchLastLogin はupdated_atを更新する。再ログイン時に使用する。
	TouchLastLogin(ctx context.Context, id uuid.UUID, now time.Time) error
}

// WordRepository は単語データの永続化インターフェース。
// すべての操作は所有ユーザーにスコープされる。
type WordRepository interface {
	// FindByID は指定ユーザーの単語を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, userID, id uuid.UUID) (*model.Word, error)

	// ListByUserID はユーザーの単語一覧をcreated_at降順で返す。
	ListByUserID(ctx context.Context, userID uuid.UUID) ([]*model.Word, error)

	// Create は単語を作成する。
	Create(ctx context.Context, word *model.Word) error

	// UpdatePartial は存在するフィールドのみを更新する部分更新を行う。
	// (column, value)の組を入力に存在するフィールドだけ蓄積し、
	// 単一のパラメータ化されたUPDATE文として実行する。
	// 対象行がない場合はnilを返す。
	UpdatePartial(ctx context.Context, userID, id uuid.UUID, patch *model.WordPatch, now time.Time) (*model.Word, error)

	// Delete は単語を削除する。削除した場合はtrueを返す。
	Delete(ctx context.Context, userID, id uuid.UUID) (bool, error)

	// CountByUserID はユーザーの単語総数を返す。
	CountByUserID(ctx context.Context, userID uuid.UUID) (int, error)

	// CountByCategory はユーザーのカテゴリ別単語数を返す。
	CountByCategory(ctx context.Context, userID uuid.UUID) (map[string]int, error)
}

// ActivityRepository は学習活動記録の永続化インターフェース。
type ActivityRepository interface {
	// Create は学習活動を記録する。
	Create(ctx context.Context, activity *model.LearningActivity) error

	// ListSince は指定日以降の学習活動を日付降順で返す。
	ListSince(ctx context.Context, userID uuid.UUID, since time.Time) ([]*model.LearningActivity, error)
}

// ConversationRepository は対話セッションの永続化インターフェース。
type ConversationRepository interface {
	// Create は対話セッションを作成する。
	Create(ctx context.Context, session *model.ConversationSession) error

	// FindByID は指定ユーザーのセッションを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, userID, id uuid.UUID) (*model.ConversationSession, error)

	// ListByUserID はユーザーのセッション一覧を開始日時降順で返す。
	ListByUserID(ctx context.Context, userID uuid.UUID, limit int) ([]*model.ConversationSession, error)

	// End はセッションを終了状態にする。
	End(ctx context.Context, id uuid.UUID, endedAt time.Time, durationMinutes int) error
}
