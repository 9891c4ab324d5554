// Package conversation はAIチューターとの対話セッション管理のドメインロジックを提供する。
package conversation

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lexiflow/lexiflow/internal/model"
	"github.com/lexiflow/lexiflow/internal/repository"
)

// sessionListLimit はセッション一覧取得の最大件数。
const sessionListLimit = 20

// Service は対話セッション管理のサービス層。
type Service struct {
	convRepo repository.ConversationRepository
	now      func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(convRepo repository.ConversationRepository) *Service {
	return &Service{
		convRepo: convRepo,
		now:      time.Now,
	}
}

// StartSession は新しい対話セッションを開始する。
func (s *Service) StartSession(ctx context.Context, userID uuid.UUID) (*model.ConversationSession, error) {
	now := s.now()
	session := &model.ConversationSession{
		ID:        uuid.New(),
		UserID:    userID,
		StartedAt: now,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.convRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("対話セッションの作成に失敗しました: %w", err)
	}
	return session, nil
}

// ListSessions はユーザーの対話セッション一覧を開始日時降順で返す。
// 最大20件まで返す。
func (s *Service) ListSessions(ctx context.Context, userID uuid.UUID) ([]*model.ConversationSession, error) {
	sessions, err := s.convRepo.ListByUserID(ctx, userID, sessionListLimit)
	if err != nil {
		return nil, fmt.Errorf("対話セッション一覧の取得に失敗しました: %w", err)
	}
	return sessions, nil
}

// GetSession は指定IDのセッションを返す。
// 他ユーザーのセッションは存在しないものとして扱う。
func (s *Service) GetSession(ctx context.Context, userID, sessionID uuid.UUID) (*model.ConversationSession, error) {
	session, err := s.convRepo.FindByID(ctx, userID, sessionID)
	if err != nil {
		return nil, fmt.Errorf("対話セッションの取得に失敗しました: %w", err)
	}
	if session == nil {
		return nil, model.NewSessionNotFoundError(sessionID.String())
	}
	return session, nil
}

// EndSession はセッションを終了し、経過時間を分単位で記録する。
func (s *Service) EndSession(ctx context.Context, userID, sessionID uuid.UUID) (*model.ConversationSession, error) {
	session, err := s.GetSession(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	duration := int(now.Sub(session.StartedAt).Minutes())

	if err := s.convRepo.End(ctx, sessionID, now, duration); err != nil {
		return nil, fmt.Errorf("対話セッションの終了に失敗しました: %w", err)
	}

	session.EndedAt = &now
	session.DurationMinutes = &duration
	session.UpdatedAt = now
	return session, nil
}
