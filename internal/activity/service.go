// Package activity は学習活動記録と統計のドメインロジックを提供する。
package activity

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/lexiflow/lexiflow/internal/model"
	"github.com/lexiflow/lexiflow/internal/repository"
)

// statisticsWindowDays は統計に含める学習活動の日数。
const statisticsWindowDays = 30

// maxActivityTypeLength はactivity_typeの最大文字数。
const maxActivityTypeLength = 50

// Service は学習活動記録と統計のサービス層。
type Service struct {
	activityRepo repository.ActivityRepository
	wordRepo     repository.WordRepository
	now          func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(activityRepo repository.ActivityRepository, wordRepo repository.WordRepository) *Service {
	return &Service{
		activityRepo: activityRepo,
		wordRepo:     wordRepo,
		now:          time.Now,
	}
}

// RecordActivity は学習活動を記録する。
// 日付は時刻を切り捨ててUTCの日付単位で保存する。
func (s *Service) RecordActivity(ctx context.Context, userID uuid.UUID, activityType string, date time.Time, count int) (*model.LearningActivity, error) {
	if activityType == "" {
		return nil, model.NewValidationError("activity_type は必須です")
	}
	if utf8.RuneCountInString(activityType) > maxActivityTypeLength {
		return nil, model.NewValidationError("activity_type は50文字以内で指定してください")
	}
	if count < 1 {
		return nil, model.NewValidationError("count は1以上で指定してください")
	}

	activity := &model.LearningActivity{
		ID:           uuid.New(),
		UserID:       userID,
		ActivityType: activityType,
		Date:         truncateToDay(date),
		Count:        count,
		CreatedAt:    s.now(),
	}

	if err := s.activityRepo.Create(ctx, activity); err != nil {
		return nil, fmt.Errorf("学習活動の記録に失敗しました: %w", err)
	}
	return activity, nil
}

// GetStatistics は学習統計を計算して返す。
// 単語総数、カテゴリ別単語数、直近30日の学習活動、連続学習日数を含む。
func (s *Service) GetStatistics(ctx context.Context, userID uuid.UUID) (*model.Statistics, error) {
	totalWords, err := s.wordRepo.CountByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("単語総数の取得に失敗しました: %w", err)
	}

	byCategory, err := s.wordRepo.CountByCategory(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("カテゴリ別単語数の取得に失敗しました: %w", err)
	}

	today := truncateToDay(s.now())
	since := today.AddDate(0, 0, -statisticsWindowDays)
	activities, err := s.activityRepo.ListSince(ctx, userID, since)
	if err != nil {
		return nil, fmt.Errorf("学習活動の取得に失敗しました: %w", err)
	}

	return &model.Statistics{
		TotalWords:      totalWords,
		WordsByCategory: byCategory,
		DailyActivities: activities,
		LearningStreak:  calculateLearningStreak(activities, today),
	}, nil
}

// calculateLearningStreak は今日から遡った連続学習日数を計算する。
// 当日にまだ活動がない場合はストリークを途切れさせず、前日から数え始める。
func calculateLearningStreak(activities []*model.LearningActivity, today time.Time) int {
	if len(activities) == 0 {
		return 0
	}

	activeDates := make(map[time.Time]bool, len(activities))
	for _, a := range activities {
		activeDates[truncateToDay(a.Date)] = true
	}

	streak := 0
	current := today
	for {
		if activeDates[current] {
			streak++
			current = current.AddDate(0, 0, -1)
		} else if current.Equal(today) {
			// 今日の活動がなくても昨日までの連続を数える
			current = current.AddDate(0, 0, -1)
		} else {
			break
		}
	}

	return streak
}

// truncateToDay は時刻を切り捨ててUTCの日付のみにする。
func truncateToDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
