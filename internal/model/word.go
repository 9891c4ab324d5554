package model

import (
	"time"

	"github.com/google/uuid"
)

// Word は学習対象の単語を表す。単語は登録ユーザーに紐付く。
type Word struct {
	ID           uuid.UUID
	UserID       uuid.UUID
	Word         string
	Meaning      string
	Translation  string
	PartOfSpeech []string
	Phonetic     string
	Example      string
	Category     string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// WordPatch は単語の部分更新を表す。
// nilのフィールドは変更せず、既存の値を維持する。
type WordPatch struct {
	Word         *string
	Meaning      *string
	Translation  *string
	PartOfSpeech []string
	Phonetic     *string
	Example      *string
	Category     *string
}

// IsEmpty は更新対象のフィールドが1つもないかどうかを返す。
func (p *WordPatch) IsEmpty() bool {
	return p.Word == nil && p.Meaning == nil && p.Translation == nil &&
		p.PartOfSpeech == nil && p.Phonetic == nil && p.Example == nil &&
		p.Category == nil
}
