package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lexiflow/lexiflow/internal/model"
)

// PostgresConversationRepo はPostgreSQLを使用した対話セッションリポジトリ。
type PostgresConversationRepo struct {
	db *sql.DB
}

// NewPostgresConversationRepo はPostgresConversationRepoを生成する。
func NewPostgresConversationRepo(db *sql.DB) *PostgresConversationRepo {
	return &PostgresConversationRepo{db: db}
}

const sessionColumns = `id, user_id, started_at, ended_at, duration_minutes, created_at, updated_at`

func scanSession(row interface{ Scan(...any) error }) (*model.ConversationSession, error) {
	s := &model.ConversationSession{}
	var endedAt sql.NullTime
	var duration sql.NullInt64
	err := row.Scan(&s.ID, &s.UserID, &s.StartedAt, &endedAt, &duration, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if endedAt.Valid {
		s.EndedAt = &endedAt.Time
	}
	if duration.Valid {
		d := int(duration.Int64)
		s.DurationMinutes = &d
	}
	return s, nil
}

// Create は対話セッションを作成する。
func (r *PostgresConversationRepo) Create(ctx context.Context, session *model.ConversationSession) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO conversation_sessions (id, user_id, started_at, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		session.ID, session.UserID, session.StartedAt, session.CreatedAt, session.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert conversation session: %w", err)
	}
	return nil
}

// FindByID は指定ユーザーのセッションを取得する。見つからない場合はnilを返す。
func (r *PostgresConversationRepo) FindByID(ctx context.Context, userID, id uuid.UUID) (*model.ConversationSession, error) {
	session, err := scanSession(r.db.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM conversation_sessions WHERE id = $1 AND user_id = $2`,
		id, userID,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find conversation session: %w", err)
	}
	return session, nil
}

// ListByUserID はユーザーのセッション一覧を開始日時降順で返す。
func (r *PostgresConversationRepo) ListByUserID(ctx context.Context, userID uuid.UUID, limit int) ([]*model.ConversationSession, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+sessionColumns+` FROM conversation_sessions
		 WHERE user_id = $1 ORDER BY started_at DESC LIMIT $2`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversation sessions: %w", err)
	}
	defer rows.Close()

	sessions := []*model.ConversationSession{}
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan conversation session: %w", err)
		}
		sessions = append(sessions, session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate conversation sessions: %w", err)
	}
	return sessions, nil
}

// End はセッションを終了状態にする。
func (r *PostgresConversationRepo) End(ctx context.Context, id uuid.UUID, endedAt time.Time, durationMinutes int) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE conversation_sessions
		 SET ended_at = $1, duration_minutes = $2, updated_at = $3
		 WHERE id = $4`,
		endedAt, durationMinutes, endedAt, id,
	)
	if err != nil {
		return fmt.Errorf("failed to end conversation session: %w", err)
	}
	return nil
}

// compile-time interface check
var _ ConversationRepository = (*PostgresConversationRepo)(nil)
