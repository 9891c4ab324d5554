package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lexiflow/lexiflow/internal/model"
)

type mockStatisticsService struct {
	recordActivityFn func(ctx context.Context, userID uuid.UUID, activityType string, date time.Time, count int) (*model.LearningActivity, error)
	getStatisticsFn  func(ctx context.Context, userID uuid.UUID) (*model.Statistics, error)
}

func (m *mockStatisticsService) RecordActivity(ctx context.Context, userID uuid.UUID, activityType string, date time.Time, count int) (*model.LearningActivity, error) {
	return m.recordActivityFn(ctx, userID, activityType, date, count)
}

func (m *mockStatisticsService) GetStatistics(ctx context.Context, userID uuid.UUID) (*model.Statistics, error) {
	return m.getStatisticsFn(ctx, userID)
}

var _ StatisticsServiceInterface = (*mockStatisticsService)(nil)

func TestGetStatistics_Success(t *testing.T) {
	userID := uuid.New()
	date := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)
	svc := &mockStatisticsService{
		getStatisticsFn: func(ctx context.Context, gotID uuid.UUID) (*model.Statistics, error) {
			if gotID != userID {
				t.Errorf("userID = %v, want %v", gotID, userID)
			}
			return &model.Statistics{
				TotalWords:      42,
				WordsByCategory: map[string]int{"business": 10, "daily": 32},
				DailyActivities: []*model.LearningActivity{
					{ID: uuid.New(), UserID: userID, ActivityType: "word_added", Date: date, Count: 3, CreatedAt: date},
				},
				LearningStreak: 5,
			}, nil
		},
	}
	h := NewStatisticsHandler(svc)

	req := newAuthedRequest(http.MethodGet, "/api/statistics", "", userID)
	w := httptest.NewRecorder()

	h.GetStatistics(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var resp statisticsResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.TotalWords != 42 {
		t.Errorf("TotalWords = %d, want 42", resp.TotalWords)
	}
	if resp.LearningStreak != 5 {
		t.Errorf("LearningStreak = %d, want 5", resp.LearningStreak)
	}
	if len(resp.DailyActivities) != 1 || resp.DailyActivities[0].Date != "2026-08-30" {
		t.Errorf("DailyActivities = %+v", resp.DailyActivities)
	}
}

func TestGetStatistics_NilCategoryMapBecomesEmptyObject(t *testing.T) {
	svc := &mockStatisticsService{
		getStatisticsFn: func(ctx context.Context, userID uuid.UUID) (*model.Statistics, error) {
			return &model.Statistics{TotalWords: 0, WordsByCategory: nil}, nil
		},
	}
	h := NewStatisticsHandler(svc)

	req := newAuthedRequest(http.MethodGet, "/api/statistics", "", uuid.New())
	w := httptest.NewRecorder()

	h.GetStatistics(w, req)

	var raw map[string]json.RawMessage
	if err := json.NewDecoder(w.Body).Decode(&raw); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if string(raw["words_by_category"]) != "{}" {
		t.Errorf("words_by_category = %s, want {}", raw["words_by_category"])
	}
}

func TestRecordActivity_Returns201(t *testing.T) {
	userID := uuid.New()
	svc := &mockStatisticsService{
		recordActivityFn: func(ctx context.Context, gotID uuid.UUID, activityType string, date time.Time, count int) (*model.LearningActivity, error) {
			if activityType != "word_added" {
				t.Errorf("activityType = %q", activityType)
			}
			if got := date.Format("2006-01-02"); got != "2026-08-15" {
				t.Errorf("date = %q, want 2026-08-15", got)
			}
			if count != 2 {
				t.Errorf("count = %d, want 2", count)
			}
			return &model.LearningActivity{
				ID: uuid.New(), UserID: gotID, ActivityType: activityType,
				Date: date, Count: count, CreatedAt: time.Now(),
			}, nil
		},
	}
	h := NewStatisticsHandler(svc)

	req := newAuthedRequest(http.MethodPost, "/api/statistics",
		`{"activity_type":"word_added","date":"2026-08-15","count":2}`, userID)
	w := httptest.NewRecorder()

	h.RecordActivity(w, req)

	if w.Code != http.StatusCreated {
		t.Errorf("status = %d, want %d", w.Code, http.StatusCreated)
	}
}

func TestRecordActivity_EmptyDateDefaultsToToday(t *testing.T) {
	svc := &mockStatisticsService{
		recordActivityFn: func(ctx context.Context, userID uuid.UUID, activityType string, date time.Time, count int) (*model.LearningActivity, error) {
			if time.Since(date) > time.Minute {
				t.Errorf("date = %v, want approximately now", date)
			}
			return &model.LearningActivity{ID: uuid.New(), UserID: userID, ActivityType: activityType, Date: date, Count: count}, nil
		},
	}
	h := NewStatisticsHandler(svc)

	req := newAuthedRequest(http.MethodPost, "/api/statistics",
		`{"activity_type":"review","count":1}`, uuid.New())
	w := httptest.NewRecorder()

	h.RecordActivity(w, req)

	if w.Code != http.StatusCreated {
		t.Errorf("status = %d, want %d", w.Code, http.StatusCreated)
	}
}

func TestRecordActivity_InvalidDate(t *testing.T) {
	called := false
	svc := &mockStatisticsService{
		recordActivityFn: func(ctx context.Context, userID uuid.UUID, activityType string, date time.Time, count int) (*model.LearningActivity, error) {
			called = true
			return nil, nil
		},
	}
	h := NewStatisticsHandler(svc)

	req := newAuthedRequest(http.MethodPost, "/api/statistics",
		`{"activity_type":"review","date":"15/08/2026","count":1}`, uuid.New())
	w := httptest.NewRecorder()

	h.RecordActivity(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
	if called {
		t.Error("service should not be called for invalid date")
	}
}

func TestRecordActivity_ValidationErrorFromService(t *testing.T) {
	svc := &mockStatisticsService{
		recordActivityFn: func(ctx context.Context, userID uuid.UUID, activityType string, date time.Time, count int) (*model.LearningActivity, error) {
			return nil, model.NewValidationError("activity_type は必須です")
		},
	}
	h := NewStatisticsHandler(svc)

	req := newAuthedRequest(http.MethodPost, "/api/statistics",
		`{"count":1}`, uuid.New())
	w := httptest.NewRecorder()

	h.RecordActivity(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}
