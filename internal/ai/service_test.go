package ai

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lexiflow/lexiflow/internal/model"
)

// --- モック定義 ---

type mockGenerator struct {
	generateFn func(ctx context.Context, prompt string) (string, error)
	prompts    []string
}

func (m *mockGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	m.prompts = append(m.prompts, prompt)
	return m.generateFn(ctx, prompt)
}

var _ Generator = (*mockGenerator)(nil)

type mockConversationRepo struct {
	findByIDFn func(ctx context.Context, userID, id uuid.UUID) (*model.ConversationSession, error)
}

func (m *mockConversationRepo) Create(ctx context.Context, session *model.ConversationSession) error {
	return nil
}

func (m *mockConversationRepo) FindByID(ctx context.Context, userID, id uuid.UUID) (*model.ConversationSession, error) {
	return m.findByIDFn(ctx, userID, id)
}

func (m *mockConversationRepo) ListByUserID(ctx context.Context, userID uuid.UUID, limit int) ([]*model.ConversationSession, error) {
	return nil, nil
}

func (m *mockConversationRepo) End(ctx context.Context, id uuid.UUID, endedAt time.Time, durationMinutes int) error {
	return nil
}

type passthroughSanitizer struct{}

func (passthroughSanitizer) Sanitize(raw string) string { return strings.TrimSpace(raw) }

type mockLatencyRecorder struct {
	observations int
}

func (m *mockLatencyRecorder) RecordAILatency(duration time.Duration) {
	m.observations++
}

// --- テスト ---

func TestAnalyzeConversation_ParsesResponse(t *testing.T) {
	gen := &mockGenerator{
		generateFn: func(ctx context.Context, prompt string) (string, error) {
			if !strings.Contains(prompt, "I goed to the store yesterday") {
				t.Error("prompt must contain the conversation text")
			}
			return `{
				"suggestions": [
					{"word": "purchase", "meaning": "to buy", "part_of_speech": "verb",
					 "example": "I purchased groceries.", "difficulty_level": "B2",
					 "relevance_reason": "more formal than buy"}
				],
				"conversation_summary": "shopping trip",
				"learning_points": ["past tense of go is went"]
			}`, nil
		},
	}
	metrics := &mockLatencyRecorder{}
	svc := NewService(gen, &mockConversationRepo{}, passthroughSanitizer{}, metrics)

	got, err := svc.AnalyzeConversation(context.Background(), "I goed to the store yesterday")
	if err != nil {
		t.Fatalf("AnalyzeConversation() error = %v", err)
	}

	if len(got.Suggestions) != 1 || got.Suggestions[0].Word != "purchase" {
		t.Errorf("Suggestions = %+v, want purchase", got.Suggestions)
	}
	if got.ConversationSummary != "shopping trip" {
		t.Errorf("ConversationSummary = %q, want %q", got.ConversationSummary, "shopping trip")
	}
	if metrics.observations != 1 {
		t.Errorf("latency observations = %d, want 1", metrics.observations)
	}
}

func TestAnalyzeConversation_EmptyText(t *testing.T) {
	svc := NewService(&mockGenerator{}, &mockConversationRepo{}, passthroughSanitizer{}, nil)

	_, err := svc.AnalyzeConversation(context.Background(), "   ")
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeValidationFailed {
		t.Errorf("expected ValidationFailed error, got %v", err)
	}
}

func TestAnalyzeConversation_InvalidJSON(t *testing.T) {
	gen := &mockGenerator{
		generateFn: func(ctx context.Context, prompt string) (string, error) {
			return "Sorry, I can't respond in JSON today.", nil
		},
	}
	svc := NewService(gen, &mockConversationRepo{}, passthroughSanitizer{}, nil)

	_, err := svc.AnalyzeConversation(context.Background(), "some conversation")
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeAIResponseInvalid {
		t.Errorf("expected AIResponseInvalid error, got %v", err)
	}
}

func TestGetVocabularyHelp_ParsesResponse(t *testing.T) {
	gen := &mockGenerator{
		generateFn: func(ctx context.Context, prompt string) (string, error) {
			return `{
				"explanation": "ephemeral means short-lived",
				"examples": ["Fame is ephemeral."],
				"usage_tips": "often used in formal writing",
				"suggested_word": {"word": "transient", "meaning": "temporary",
				 "part_of_speech": "adjective", "example": "a transient feeling",
				 "difficulty_level": "C1", "relevance_reason": "close synonym"}
			}`, nil
		},
	}
	svc := NewService(gen, &mockConversationRepo{}, passthroughSanitizer{}, nil)

	got, err := svc.GetVocabularyHelp(context.Background(), "talking about time", "what does ephemeral mean?")
	if err != nil {
		t.Fatalf("GetVocabularyHelp() error = %v", err)
	}

	if got.Explanation != "ephemeral means short-lived" {
		t.Errorf("Explanation = %q", got.Explanation)
	}
	if got.SuggestedWord == nil || got.SuggestedWord.Word != "transient" {
		t.Errorf("SuggestedWord = %+v, want transient", got.SuggestedWord)
	}
}

func TestSuggestWords_ExtractsSuggestionsArray(t *testing.T) {
	gen := &mockGenerator{
		generateFn: func(ctx context.Context, prompt string) (string, error) {
			if !strings.Contains(prompt, "No additional context") {
				t.Error("empty context should fall back to the default text")
			}
			return `{"suggestions": [
				{"word": "articulate", "meaning": "express clearly", "part_of_speech": "verb",
				 "example": "She articulated her ideas well.", "difficulty_level": "C1",
				 "relevance_reason": "precision"}
			]}`, nil
		},
	}
	svc := NewService(gen, &mockConversationRepo{}, passthroughSanitizer{}, nil)

	got, err := svc.SuggestWords(context.Background(), "I want to say things better", "")
	if err != nil {
		t.Fatalf("SuggestWords() error = %v", err)
	}
	if len(got) != 1 || got[0].Word != "articulate" {
		t.Errorf("suggestions = %+v, want articulate", got)
	}
}

func TestSuggestWords_MissingSuggestionsKey(t *testing.T) {
	gen := &mockGenerator{
		generateFn: func(ctx context.Context, prompt string) (string, error) {
			return `{"unexpected": true}`, nil
		},
	}
	svc := NewService(gen, &mockConversationRepo{}, passthroughSanitizer{}, nil)

	_, err := svc.SuggestWords(context.Background(), "input", "context")
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeAIResponseInvalid {
		t.Errorf("expected AIResponseInvalid error, got %v", err)
	}
}

func TestChat_BuildsHistoryPrompt(t *testing.T) {
	userID := uuid.New()
	sessionID := uuid.New()

	gen := &mockGenerator{
		generateFn: func(ctx context.Context, prompt string) (string, error) {
			if !strings.Contains(prompt, "User: Hello!") {
				t.Error("prompt must contain user history line")
			}
			if !strings.Contains(prompt, "AI: Hi there!") {
				t.Error("prompt must contain assistant history line")
			}
			if !strings.Contains(prompt, "How was your weekend?") {
				t.Error("prompt must contain the latest message")
			}
			return "  It was great, thanks for asking! What did you do?  ", nil
		},
	}
	convRepo := &mockConversationRepo{
		findByIDFn: func(ctx context.Context, gotUserID, gotID uuid.UUID) (*model.ConversationSession, error) {
			if gotUserID != userID || gotID != sessionID {
				t.Errorf("scope = (%v, %v), want (%v, %v)", gotUserID, gotID, userID, sessionID)
			}
			return &model.ConversationSession{ID: sessionID, UserID: userID}, nil
		},
	}
	svc := NewService(gen, convRepo, passthroughSanitizer{}, nil)

	history := []ChatMessage{
		{Role: "user", Content: "Hello!"},
		{Role: "assistant", Content: "Hi there!"},
	}
	got, err := svc.Chat(context.Background(), userID, sessionID, history, "How was your weekend?")
	if err != nil {
		t.Fatalf("Chat() error = %v", err)
	}
	if got != "It was great, thanks for asking! What did you do?" {
		t.Errorf("Chat() = %q, want sanitized response", got)
	}
}

func TestChat_SessionNotFound(t *testing.T) {
	gen := &mockGenerator{
		generateFn: func(ctx context.Context, prompt string) (string, error) {
			t.Error("Generate should not be called when session is missing")
			return "", nil
		},
	}
	convRepo := &mockConversationRepo{
		findByIDFn: func(ctx context.Context, userID, id uuid.UUID) (*model.ConversationSession, error) {
			return nil, nil
		},
	}
	svc := NewService(gen, convRepo, passthroughSanitizer{}, nil)

	_, err := svc.Chat(context.Background(), uuid.New(), uuid.New(), nil, "hi")
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeSessionNotFound {
		t.Errorf("expected SessionNotFound error, got %v", err)
	}
}

func TestChat_GeneratorError(t *testing.T) {
	genErr := errors.New("rate limited")
	gen := &mockGenerator{
		generateFn: func(ctx context.Context, prompt string) (string, error) {
			return "", genErr
		},
	}
	convRepo := &mockConversationRepo{
		findByIDFn: func(ctx context.Context, userID, id uuid.UUID) (*model.ConversationSession, error) {
			return &model.ConversationSession{ID: id, UserID: userID}, nil
		},
	}
	svc := NewService(gen, convRepo, passthroughSanitizer{}, nil)

	_, err := svc.Chat(context.Background(), uuid.New(), uuid.New(), nil, "hi")
	if !errors.Is(err, genErr) {
		t.Errorf("expected wrapped generator error, got %v", err)
	}
}
