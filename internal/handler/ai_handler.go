package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/lexiflow/lexiflow/internal/ai"
	"github.com/lexiflow/lexiflow/internal/model"
)

// AIServiceInterface はAIハンドラーが必要とするサービスインターフェース。
type AIServiceInterface interface {
	AnalyzeConversation(ctx context.Context, conversationText string) (*ai.ConversationAnalysis, error)
	GetVocabularyHelp(ctx context.Context, helpContext, question string) (*ai.VocabularyHelp, error)
	SuggestWords(ctx context.Context, userInput, conversationContext string) ([]ai.WordSuggestion, error)
}

// AIHandler はAI語彙支援のHTTPハンドラー。
type AIHandler struct {
	service AIServiceInterface
}

// NewAIHandler はAIHandlerを生成する。
func NewAIHandler(service AIServiceInterface) *AIHandler {
	return &AIHandler{
		service: service,
	}
}

// conversationAnalysisRequest は対話分析リクエストのボディ。
type conversationAnalysisRequest struct {
	ConversationText string `json:"conversation_text"`
	UserLevel        string `json:"user_level,omitempty"`
}

// vocabularyHelpRequest は語彙ヘルプリクエストのボディ。
type vocabularyHelpRequest struct {
	Context  string `json:"context"`
	Question string `json:"question"`
}

// wordSuggestionRequest は単語提案リクエストのボディ。
type wordSuggestionRequest struct {
	UserInput           string `json:"user_input"`
	ConversationContext string `json:"conversation_context,omitempty"`
}

// AnalyzeConversation は対話テキストを分析し、語彙提案を返す。
// POST /api/ai/conversation-analysis
func (h *AIHandler) AnalyzeConversation(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUserID(w, r); !ok {
		return
	}

	var req conversationAnalysisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("リクエストボディの解析に失敗しました"))
		return
	}

	analysis, err := h.service.AnalyzeConversation(r.Context(), req.ConversationText)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(analysis)
}

// VocabularyHelp は対話中の語彙に関する質問への説明を返す。
// POST /api/ai/vocabulary-help
func (h *AIHandler) VocabularyHelp(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUserID(w, r); !ok {
		return
	}

	var req vocabularyHelpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("リクエストボディの解析に失敗しました"))
		return
	}

	help, err := h.service.GetVocabularyHelp(r.Context(), req.Context, req.Question)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(help)
}

// SuggestWords はユーザーの発話に基づく語彙提案を返す。
// POST /api/ai/word-suggestions
func (h *AIHandler) SuggestWords(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUserID(w, r); !ok {
		return
	}

	var req wordSuggestionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("リクエストボディの解析に失敗しました"))
		return
	}

	suggestions, err := h.service.SuggestWords(r.Context(), req.UserInput, req.ConversationContext)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(suggestions)
}
