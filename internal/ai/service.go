// Package ai はGeminiを利用した語彙提案・対話機能のドメインロジックを提供する。
// プロンプトの組み立てとAI応答JSONの解析を担当する。
package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lexiflow/lexiflow/internal/model"
	"github.com/lexiflow/lexiflow/internal/repository"
)

// Generator はテキスト生成のインターフェース。
// gemini.Clientの部分集合として定義する。
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// TextSanitizer はAI応答のサニタイズインターフェース。
type TextSanitizer interface {
	Sanitize(raw string) string
}

// LatencyRecorder はAIリクエストのレイテンシ記録インターフェース。
type LatencyRecorder interface {
	RecordAILatency(duration time.Duration)
}

// WordSuggestion はAIによる語彙提案1件を表す。
type WordSuggestion struct {
	Word            string `json:"word"`
	Meaning         string `json:"meaning"`
	PartOfSpeech    string `json:"part_of_speech"`
	Example         string `json:"example"`
	DifficultyLevel string `json:"difficulty_level"`
	RelevanceReason string `json:"relevance_reason"`
}

// ConversationAnalysis は対話分析の結果を表す。
type ConversationAnalysis struct {
	Suggestions         []WordSuggestion `json:"suggestions"`
	ConversationSummary string           `json:"conversation_summary"`
	LearningPoints      []string         `json:"learning_points"`
}

// VocabularyHelp は語彙ヘルプの結果を表す。
type VocabularyHelp struct {
	Explanation   string          `json:"explanation"`
	Examples      []string        `json:"examples"`
	UsageTips     string          `json:"usage_tips"`
	SuggestedWord *WordSuggestion `json:"suggested_word,omitempty"`
}

// ChatMessage は対話履歴の1メッセージを表す。
type ChatMessage struct {
	Role    string `json:"role"` // "user" または "assistant"
	Content string `json:"content"`
}

// Service はAI機能のサービス層。
// 対話セッションの所有権検証を経てGemini APIを呼び出す。
type Service struct {
	generator Generator
	convRepo  repository.ConversationRepository
	sanitizer TextSanitizer
	metrics   LatencyRecorder
}

// NewService はServiceの新しいインスタンスを生成する。
// metricsはnilを許容する（テスト用）。
func NewService(generator Generator, convRepo repository.ConversationRepository, sanitizer TextSanitizer, metrics LatencyRecorder) *Service {
	return &Service{
		generator: generator,
		convRepo:  convRepo,
		sanitizer: sanitizer,
		metrics:   metrics,
	}
}

// AnalyzeConversation は対話テキストを分析し、語彙提案と学習ポイントを返す。
func (s *Service) AnalyzeConversation(ctx context.Context, conversationText string) (*ConversationAnalysis, error) {
	if strings.TrimSpace(conversationText) == "" {
		return nil, model.NewValidationError("conversation_text は必須です")
	}

	prompt := fmt.Sprintf(`You are an AI tutor for English learners at B2 level. Analyze this conversation and suggest 3-5 vocabulary words that would help the user improve their English.

Conversation:
%s

Please provide a JSON response with the following structure:
{
  "suggestions": [
    {
      "word": "vocabulary_word",
      "meaning": "clear definition",
      "part_of_speech": "noun/verb/adjective/etc",
      "example": "example sentence using the word",
      "difficulty_level": "B2/C1",
      "relevance_reason": "why this word is relevant to the conversation"
    }
  ],
  "conversation_summary": "brief summary of the conversation topic",
  "learning_points": ["key learning point 1", "key learning point 2"]
}

Focus on words that:
1. Are appropriate for B2-C1 level
2. Would have been useful in this conversation
3. Fill vocabulary gaps shown by the user
4. Are practical and commonly used`, conversationText)

	raw, err := s.generate(ctx, prompt)
	if err != nil {
		return nil, err
	}

	var analysis ConversationAnalysis
	if err := json.Unmarshal([]byte(raw), &analysis); err != nil {
		return nil, model.NewAIResponseInvalidError()
	}
	return &analysis, nil
}

// GetVocabularyHelp は対話中の語彙に関する質問への説明を返す。
func (s *Service) GetVocabularyHelp(ctx context.Context, helpContext, question string) (*VocabularyHelp, error) {
	if strings.TrimSpace(question) == "" {
		return nil, model.NewValidationError("question は必須です")
	}

	prompt := fmt.Sprintf(`You are an English vocabulary tutor. The user is having a conversation and has asked for help with vocabulary.

Context: %s
User's question: %s

Please provide a helpful response in JSON format:
{
  "explanation": "clear explanation answering the user's question",
  "examples": ["example 1", "example 2", "example 3"],
  "usage_tips": "practical tips for using this vocabulary",
  "suggested_word": {
    "word": "suggested_word",
    "meaning": "clear definition",
    "part_of_speech": "noun/verb/adjective/etc",
    "example": "example sentence",
    "difficulty_level": "B2/C1",
    "relevance_reason": "why this word is helpful"
  }
}

If the user asked about a specific word, explain it thoroughly. If they're looking for better ways to express something, suggest appropriate alternatives.`, helpContext, question)

	raw, err := s.generate(ctx, prompt)
	if err != nil {
		return nil, err
	}

	var help VocabularyHelp
	if err := json.Unmarshal([]byte(raw), &help); err != nil {
		return nil, model.NewAIResponseInvalidError()
	}
	return &help, nil
}

// SuggestWords はユーザーの発話内容に基づいて語彙提案を返す。
func (s *Service) SuggestWords(ctx context.Context, userInput, conversationContext string) ([]WordSuggestion, error) {
	if strings.TrimSpace(userInput) == "" {
		return nil, model.NewValidationError("user_input は必須です")
	}
	if conversationContext == "" {
		conversationContext = "No additional context"
	}

	prompt := fmt.Sprintf(`Based on the user's input and conversation context, suggest vocabulary words that would help them express themselves better.

User input: %s
Context: %s

Provide 3-5 word suggestions in JSON format:
{
  "suggestions": [
    {
      "word": "vocabulary_word",
      "meaning": "clear definition",
      "part_of_speech": "noun/verb/adjective/etc",
      "example": "example sentence using the word",
      "difficulty_level": "B2/C1",
      "relevance_reason": "why this word would help the user"
    }
  ]
}

Focus on words that would help the user express their ideas more precisely or naturally.`, userInput, conversationContext)

	raw, err := s.generate(ctx, prompt)
	if err != nil {
		return nil, err
	}

	var result struct {
		Suggestions []WordSuggestion `json:"suggestions"`
	}
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return nil, model.NewAIResponseInvalidError()
	}
	if result.Suggestions == nil {
		return nil, model.NewAIResponseInvalidError()
	}
	return result.Suggestions, nil
}

// Chat は対話セッション内でのメッセージに対するAI応答を返す。
// セッションが存在しない、または他ユーザーのものである場合はエラーを返す。
func (s *Service) Chat(ctx context.Context, userID, sessionID uuid.UUID, history []ChatMessage, userMessage string) (string, error) {
	if strings.TrimSpace(userMessage) == "" {
		return "", model.NewValidationError("user_message は必須です")
	}

	session, err := s.convRepo.FindByID(ctx, userID, sessionID)
	if err != nil {
		return "", fmt.Errorf("対話セッションの取得に失敗しました: %w", err)
	}
	if session == nil {
		return "", model.NewSessionNotFoundError(sessionID.String())
	}

	var lines []string
	for _, msg := range history {
		role := "AI"
		if msg.Role == "user" {
			role = "User"
		}
		lines = append(lines, fmt.Sprintf("%s: %s", role, msg.Content))
	}

	prompt := fmt.Sprintf(`You are an English conversation partner helping a Japanese learner practice English at a B2 proficiency level.

Guidelines:
- Engage in natural, free-form conversation
- Use B2-level vocabulary and grammar
- Be encouraging and supportive
- Keep responses conversational (2-4 sentences usually)
- If the user asks about vocabulary or grammar, switch to tutor mode and provide detailed explanations
- Adapt your topics to the user's interests
- Ask follow-up questions to keep the conversation flowing

Conversation History:
%s

User's latest message: %s

Respond naturally in English:`, strings.Join(lines, "\n"), userMessage)

	raw, err := s.generate(ctx, prompt)
	if err != nil {
		return "", err
	}

	return s.sanitizer.Sanitize(raw), nil
}

// generate はGenerator呼び出しをレイテンシ計測付きで実行する。
func (s *Service) generate(ctx context.Context, prompt string) (string, error) {
	start := time.Now()
	raw, err := s.generator.Generate(ctx, prompt)
	if s.metrics != nil {
		s.metrics.RecordAILatency(time.Since(start))
	}
	if err != nil {
		return "", fmt.Errorf("AI応答の生成に失敗しました: %w", err)
	}
	return raw, nil
}
