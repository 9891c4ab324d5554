package model

import (
	"time"

	"github.com/google/uuid"
)

// ConversationSession はAIチューターとの対話セッションを表す。
// EndedAtがゼロ値の間は進行中を意味する。
type ConversationSession struct {
	ID              uuid.UUID
	UserID          uuid.UUID
	StartedAt       time.Time
	EndedAt         *time.Time
	DurationMinutes *int
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
