// Package word は単語帳管理のドメインロジックを提供する。
package word

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/lexiflow/lexiflow/internal/model"
	"github.com/lexiflow/lexiflow/internal/repository"
)

// 各フィールドの文字数上限。文字数はルーン単位で数える。
const (
	maxWordLength        = 255
	maxMeaningLength     = 1000
	maxTranslationLength = 1000
	maxPhoneticLength    = 100
	maxExampleLength     = 2000
	maxCategoryLength    = 100
)

// TextSanitizer はテキストサニタイズのインターフェース。
// security.TextSanitizerServiceの部分集合として定義する。
type TextSanitizer interface {
	Sanitize(raw string) string
}

// MetricsRecorder は単語登録メトリクスの記録インターフェース。
type MetricsRecorder interface {
	RecordWordsCreated(count int)
}

// CreateWordInput は単語登録の入力。
type CreateWordInput struct {
	Word         string
	Meaning      string
	Translation  string
	PartOfSpeech []string
	Phonetic     string
	Example      string
	Category     string
}

// Service は単語帳管理のサービス層。
// 入力検証、サニタイズ、所有権スコープの適用を担当する。
type Service struct {
	wordRepo  repository.WordRepository
	sanitizer TextSanitizer
	metrics   MetricsRecorder
	now       func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
// metricsはnilを許容する（テスト用）。
func NewService(wordRepo repository.WordRepository, sanitizer TextSanitizer, metrics MetricsRecorder) *Service {
	return &Service{
		wordRepo:  wordRepo,
		sanitizer: sanitizer,
		metrics:   metrics,
		now:       time.Now,
	}
}

// ListWords はユーザーの単語一覧を登録日時降順で返す。
func (s *Service) ListWords(ctx context.Context, userID uuid.UUID) ([]*model.Word, error) {
	words, err := s.wordRepo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("単語一覧の取得に失敗しました: %w", err)
	}
	return words, nil
}

// GetWord は指定IDの単語を返す。
// 他ユーザーの単語は存在しないものとして扱う。
func (s *Service) GetWord(ctx context.Context, userID, id uuid.UUID) (*model.Word, error) {
	word, err := s.wordRepo.FindByID(ctx, userID, id)
	if err != nil {
		return nil, fmt.Errorf("単語の取得に失敗しました: %w", err)
	}
	if word == nil {
		return nil, model.NewWordNotFoundError(id.String())
	}
	return word, nil
}

// CreateWord は単語を検証・サニタイズして登録する。
func (s *Service) CreateWord(ctx context.Context, userID uuid.UUID, input CreateWordInput) (*model.Word, error) {
	now := s.now()
	word := &model.Word{
		ID:           uuid.New(),
		UserID:       userID,
		Word:         s.sanitizer.Sanitize(input.Word),
		Meaning:      s.sanitizer.Sanitize(input.Meaning),
		Translation:  s.sanitizer.Sanitize(input.Translation),
		PartOfSpeech: sanitizeList(s.sanitizer, input.PartOfSpeech),
		Phonetic:     s.sanitizer.Sanitize(input.Phonetic),
		Example:      s.sanitizer.Sanitize(input.Example),
		Category:     s.sanitizer.Sanitize(input.Category),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := validateWord(word); err != nil {
		return nil, err
	}

	if err := s.wordRepo.Create(ctx, word); err != nil {
		return nil, fmt.Errorf("単語の登録に失敗しました: %w", err)
	}

	if s.metrics != nil {
		s.metrics.RecordWordsCreated(1)
	}

	return word, nil
}

// UpdateWord は指定されたフィールドのみを検証・サニタイズして更新する。
// patchに含まれないフィールドは既存の値を維持する。
func (s *Service) UpdateWord(ctx context.Context, userID, id uuid.UUID, patch *model.WordPatch) (*model.Word, error) {
	if patch == nil || patch.IsEmpty() {
		return nil, model.NewValidationError("更新するフィールドがありません")
	}

	if err := s.sanitizePatch(patch); err != nil {
		return nil, err
	}

	word, err := s.wordRepo.UpdatePartial(ctx, userID, id, patch, s.now())
	if err != nil {
		return nil, fmt.Errorf("単語の更新に失敗しました: %w", err)
	}
	if word == nil {
		return nil, model.NewWordNotFoundError(id.String())
	}
	return word, nil
}

// DeleteWord は単語を削除する。
func (s *Service) DeleteWord(ctx context.Context, userID, id uuid.UUID) error {
	deleted, err := s.wordRepo.Delete(ctx, userID, id)
	if err != nil {
		return fmt.Errorf("単語の削除に失敗しました: %w", err)
	}
	if !deleted {
		return model.NewWordNotFoundError(id.String())
	}
	return nil
}

// sanitizePatch はpatchの各フィールドをサニタイズし、検証する。
func (s *Service) sanitizePatch(patch *model.WordPatch) error {
	if patch.Word != nil {
		v := s.sanitizer.Sanitize(*patch.Word)
		if err := validateLength("word", v, 1, maxWordLength); err != nil {
			return err
		}
		patch.Word = &v
	}
	if patch.Meaning != nil {
		v := s.sanitizer.Sanitize(*patch.Meaning)
		if err := validateLength("meaning", v, 1, maxMeaningLength); err != nil {
			return err
		}
		patch.Meaning = &v
	}
	if patch.Translation != nil {
		v := s.sanitizer.Sanitize(*patch.Translation)
		if err := validateLength("translation", v, 0, maxTranslationLength); err != nil {
			return err
		}
		patch.Translation = &v
	}
	if patch.PartOfSpeech != nil {
		patch.PartOfSpeech = sanitizeList(s.sanitizer, patch.PartOfSpeech)
	}
	if patch.Phonetic != nil {
		v := s.sanitizer.Sanitize(*patch.Phonetic)
		if err := validateLength("phonetic", v, 0, maxPhoneticLength); err != nil {
			return err
		}
		patch.Phonetic = &v
	}
	if patch.Example != nil {
		v := s.sanitizer.Sanitize(*patch.Example)
		if err := validateLength("example", v, 0, maxExampleLength); err != nil {
			return err
		}
		patch.Example = &v
	}
	if patch.Category != nil {
		v := s.sanitizer.Sanitize(*patch.Category)
		if err := validateLength("category", v, 0, maxCategoryLength); err != nil {
			return err
		}
		patch.Category = &v
	}
	return nil
}

// validateWord は単語全体の入力検証を行う。
func validateWord(w *model.Word) error {
	if err := validateLength("word", w.Word, 1, maxWordLength); err != nil {
		return err
	}
	if err := validateLength("meaning", w.Meaning, 1, maxMeaningLength); err != nil {
		return err
	}
	if err := validateLength("translation", w.Translation, 0, maxTranslationLength); err != nil {
		return err
	}
	if err := validateLength("phonetic", w.Phonetic, 0, maxPhoneticLength); err != nil {
		return err
	}
	if err := validateLength("example", w.Example, 0, maxExampleLength); err != nil {
		return err
	}
	if err := validateLength("category", w.Category, 0, maxCategoryLength); err != nil {
		return err
	}
	return nil
}

// validateLength はフィールドの文字数（ルーン単位）を検証する。
func validateLength(field, value string, min, max int) error {
	n := utf8.RuneCountInString(value)
	if n < min {
		return model.NewValidationError(fmt.Sprintf("%s は必須です", field))
	}
	if n > max {
		return model.NewValidationError(fmt.Sprintf("%s は%d文字以内で入力してください", field, max))
	}
	return nil
}

// sanitizeList は各要素をサニタイズし、空になった要素を除外する。
func sanitizeList(s TextSanitizer, values []string) []string {
	result := make([]string, 0, len(values))
	for _, v := range values {
		cleaned := s.Sanitize(v)
		if cleaned != "" {
			result = append(result, cleaned)
		}
	}
	return result
}
