package model

import (
	"time"

	"github.com/google/uuid"
)

// LearningActivity は1日単位の学習行動の記録を表す。
type LearningActivity struct {
	ID           uuid.UUID
	UserID       uuid.UUID
	ActivityType string
	Date         time.Time // 日付のみ有効（時刻は00:00:00 UTC）
	Count        int
	CreatedAt    time.Time
}

// Statistics は学習統計のスナップショットを表す。
type Statistics struct {
	TotalWords      int
	WordsByCategory map[string]int
	DailyActivities []*LearningActivity
	LearningStreak  int
}
