package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lexiflow/lexiflow/internal/model"
)

// PostgresWordRepo はPostgreSQLを使用した単語リポジトリ。
type PostgresWordRepo struct {
	db *sql.DB
}

// NewPostgresWordRepo はPostgresWordRepoを生成する。
func NewPostgresWordRepo(db *sql.DB) *PostgresWordRepo {
	return &PostgresWordRepo{db: db}
}

const wordColumns = `id, user_id, word, meaning, translation, part_of_speech, phonetic, example, category, created_at, updated_at`

func scanWord(row interface{ Scan(...any) error }) (*model.Word, error) {
	word := &model.Word{}
	var pos []byte
	err := row.Scan(
		&word.ID, &word.UserID, &word.Word, &word.Meaning, &word.Translation,
		&pos, &word.Phonetic, &word.Example, &word.Category,
		&word.CreatedAt, &word.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(pos) > 0 {
		if err := json.Unmarshal(pos, &word.PartOfSpeech); err != nil {
			return nil, fmt.Errorf("failed to decode part_of_speech: %w", err)
		}
	}
	return word, nil
}

// FindByID は指定ユーザーの単語を取得する。見つからない場合はnilを返す。
func (r *PostgresWordRepo) FindByID(ctx context.Context, userID, id uuid.UUID) (*model.Word, error) {
	word, err := scanWord(r.db.QueryRowContext(ctx,
		`SELECT `+wordColumns+` FROM words WHERE id = $1 AND user_id = $2`,
		id, userID,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find word by ID: %w", err)
	}
	return word, nil
}

// ListByUserID はユーザーの単語一覧をcreated_at降順で返す。
func (r *PostgresWordRepo) ListByUserID(ctx context.Context, userID uuid.UUID) ([]*model.Word, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+wordColumns+` FROM words WHERE user_id = $1 ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list words: %w", err)
	}
	defer rows.Close()

	words := []*model.Word{}
	for rows.Next() {
		word, err := scanWord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan word: %w", err)
		}
		words = append(words, word)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate words: %w", err)
	}
	return words, nil
}

// Create は単語を作成する。
func (r *PostgresWordRepo) Create(ctx context.Context, word *model.Word) error {
	pos, err := json.Marshal(word.PartOfSpeech)
	if err != nil {
		return fmt.Errorf("failed to encode part_of_speech: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO words (id, user_id, word, meaning, translation, part_of_speech, phonetic, example, category, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		word.ID, word.UserID, word.Word, word.Meaning, word.Translation,
		pos, word.Phonetic, word.Example, word.Category,
		word.CreatedAt, word.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert word: %w", err)
	}
	return nil
}

// UpdatePartial は入力に存在するフィールドのみを更新する。
// (column, value)の組を順序付きで蓄積し、単一のパラメータ化されたUPDATE文を組み立てる。
// カラム名は固定のリテラルであり、ユーザー入力は常にプレースホルダ経由で渡される。
// 対象行がない場合はnilを返す。
func (r *PostgresWordRepo) UpdatePartial(ctx context.Context, userID, id uuid.UUID, patch *model.WordPatch, now time.Time) (*model.Word, error) {
	setClauses := []string{}
	args := []any{id, userID}

	appendSet := func(column string, value any) {
		args = append(args, value)
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.Word != nil {
		appendSet("word", *patch.Word)
	}
	if patch.Meaning != nil {
		appendSet("meaning", *patch.Meaning)
	}
	if patch.Translation != nil {
		appendSet("translation", *patch.Translation)
	}
	if patch.PartOfSpeech != nil {
		pos, err := json.Marshal(patch.PartOfSpeech)
		if err != nil {
			return nil, fmt.Errorf("failed to encode part_of_speech: %w", err)
		}
		appendSet("part_of_speech", pos)
	}
	if patch.Phonetic != nil {
		appendSet("phonetic", *patch.Phonetic)
	}
	if patch.Example != nil {
		appendSet("example", *patch.Example)
	}
	if patch.Category != nil {
		appendSet("category", *patch.Category)
	}

	if len(setClauses) == 0 {
		return nil, fmt.Errorf("no fields to update")
	}
	appendSet("updated_at", now)

	query := fmt.Sprintf(
		`UPDATE words SET %s WHERE id = $1 AND user_id = $2 RETURNING %s`,
		strings.Join(setClauses, ", "), wordColumns,
	)

	word, err := scanWord(r.db.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update word: %w", err)
	}
	return word, nil
}

// Delete は単語を削除する。削除した場合はtrueを返す。
func (r *PostgresWordRepo) Delete(ctx context.Context, userID, id uuid.UUID) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM words WHERE id = $1 AND user_id = $2`,
		id, userID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to delete word: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// CountByUserID はユーザーの単語総数を返す。
func (r *PostgresWordRepo) CountByUserID(ctx context.Context, userID uuid.UUID) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM words WHERE user_id = $1`,
		userID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count words: %w", err)
	}
	return count, nil
}

// CountByCategory はユーザーのカテゴリ別単語数を返す。
func (r *PostgresWordRepo) CountByCategory(ctx context.Context, userID uuid.UUID) (map[string]int, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT category, COUNT(*) FROM words WHERE user_id = $1 GROUP BY category`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to count words by category: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var category string
		var count int
		if err := rows.Scan(&category, &count); err != nil {
			return nil, fmt.Errorf("failed to scan category count: %w", err)
		}
		counts[category] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate category counts: %w", err)
	}
	return counts, nil
}

// compile-time interface check
var _ WordRepository = (*PostgresWordRepo)(nil)
