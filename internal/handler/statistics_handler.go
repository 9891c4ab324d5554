package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/lexiflow/lexiflow/internal/model"
)

// activityDateFormat は学習活動の日付フォーマット。
const activityDateFormat = "2006-01-02"

// StatisticsServiceInterface は統計ハンドラーが必要とするサービスインターフェース。
type StatisticsServiceInterface interface {
	RecordActivity(ctx context.Context, userID uuid.UUID, activityType string, date time.Time, count int) (*model.LearningActivity, error)
	GetStatistics(ctx context.Context, userID uuid.UUID) (*model.Statistics, error)
}

// StatisticsHandler は学習統計のHTTPハンドラー。
type StatisticsHandler struct {
	service StatisticsServiceInterface
}

// NewStatisticsHandler はStatisticsHandlerを生成する。
func NewStatisticsHandler(service StatisticsServiceInterface) *StatisticsHandler {
	return &StatisticsHandler{
		service: service,
	}
}

// recordActivityRequest は学習活動記録リクエストのボディ。
type recordActivityRequest struct {
	ActivityType string `json:"activity_type"`
	Date         string `json:"date"` // "2006-01-02"形式。空の場合は当日
	Count        int    `json:"count"`
}

// activityResponse は学習活動のAPIレスポンス。
type activityResponse struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	ActivityType string    `json:"activity_type"`
	Date         string    `json:"date"`
	Count        int       `json:"count"`
	CreatedAt    time.Time `json:"created_at"`
}

// statisticsResponse は学習統計のAPIレスポンス。
type statisticsResponse struct {
	TotalWords      int                `json:"total_words"`
	WordsByCategory map[string]int     `json:"words_by_category"`
	DailyActivities []activityResponse `json:"daily_activities"`
	LearningStreak  int                `json:"learning_streak"`
}

// GetStatistics は学習統計を取得する。
// GET /api/statistics
func (h *StatisticsHandler) GetStatistics(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	stats, err := h.service.GetStatistics(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	activities := make([]activityResponse, len(stats.DailyActivities))
	for i, a := range stats.DailyActivities {
		activities[i] = toActivityResponse(a)
	}

	byCategory := stats.WordsByCategory
	if byCategory == nil {
		byCategory = map[string]int{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(statisticsResponse{
		TotalWords:      stats.TotalWords,
		WordsByCategory: byCategory,
		DailyActivities: activities,
		LearningStreak:  stats.LearningStreak,
	})
}

// RecordActivity は学習活動を記録する。
// POST /api/statistics
func (h *StatisticsHandler) RecordActivity(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req recordActivityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("リクエストボディの解析に失敗しました"))
		return
	}

	date := time.Now()
	if req.Date != "" {
		parsed, err := time.Parse(activityDateFormat, req.Date)
		if err != nil {
			writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("date は YYYY-MM-DD 形式で指定してください"))
			return
		}
		date = parsed
	}

	activity, err := h.service.RecordActivity(r.Context(), userID, req.ActivityType, date, req.Count)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(toActivityResponse(activity))
}

func toActivityResponse(a *model.LearningActivity) activityResponse {
	return activityResponse{
		ID:           a.ID.String(),
		UserID:       a.UserID.String(),
		ActivityType: a.ActivityType,
		Date:         a.Date.Format(activityDateFormat),
		Count:        a.Count,
		CreatedAt:    a.CreatedAt,
	}
}
