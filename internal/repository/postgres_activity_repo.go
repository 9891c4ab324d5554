package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lexiflow/lexiflow/internal/model"
)

// PostgresActivityRepo はPostgreSQLを使用した学習活動リポジトリ。
type PostgresActivityRepo struct {
	db *sql.DB
}

// NewPostgresActivityRepo はPostgresActivityRepoを生成する。
func NewPostgresActivityRepo(db *sql.DB) *PostgresActivityRepo {
	return &PostgresActivityRepo{db: db}
}

// Create は学習活動を記録する。
func (r *PostgresActivityRepo) Create(ctx context.Context, activity *model.LearningActivity) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO learning_activities (id, user_id, activity_type, date, count, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		activity.ID, activity.UserID, activity.ActivityType,
		activity.Date, activity.Count, activity.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert learning activity: %w", err)
	}
	return nil
}

// ListSince は指定日以降の学習活動を日付降順で返す。
func (r *PostgresActivityRepo) ListSince(ctx context.Context, userID uuid.UUID, since time.Time) ([]*model.LearningActivity, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, activity_type, date, count, created_at
		 FROM learning_activities
		 WHERE user_id = $1 AND date >= $2
		 ORDER BY date DESC`,
		userID, since,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list learning activities: %w", err)
	}
	defer rows.Close()

	activities := []*model.LearningActivity{}
	for rows.Next() {
		a := &model.LearningActivity{}
		if err := rows.Scan(&a.ID, &a.UserID, &a.ActivityType, &a.Date, &a.Count, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan learning activity: %w", err)
		}
		activities = append(activities, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate learning activities: %w", err)
	}
	return activities, nil
}

// compile-time interface check
var _ ActivityRepository = (*PostgresActivityRepo)(nil)
