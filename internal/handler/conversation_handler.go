package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/lexiflow/lexiflow/internal/ai"
	"github.com/lexiflow/lexiflow/internal/model"
)

// ConversationServiceInterface は対話ハンドラーが必要とするセッション管理インターフェース。
type ConversationServiceInterface interface {
	StartSession(ctx context.Context, userID uuid.UUID) (*model.ConversationSession, error)
	ListSessions(ctx context.Context, userID uuid.UUID) ([]*model.ConversationSession, error)
	EndSession(ctx context.Context, userID, sessionID uuid.UUID) (*model.ConversationSession, error)
}

// ChatServiceInterface は対話ハンドラーが必要とするAI応答インターフェース。
type ChatServiceInterface interface {
	Chat(ctx context.Context, userID, sessionID uuid.UUID, history []ai.ChatMessage, userMessage string) (string, error)
}

// ConversationHandler は対話セッションのHTTPハンドラー。
type ConversationHandler struct {
	sessions ConversationServiceInterface
	chat     ChatServiceInterface
}

// NewConversationHandler はConversationHandlerを生成する。
func NewConversationHandler(sessions ConversationServiceInterface, chat ChatServiceInterface) *ConversationHandler {
	return &ConversationHandler{
		sessions: sessions,
		chat:     chat,
	}
}

// sessionResponse は対話セッションのAPIレスポンス。
type sessionResponse struct {
	ID              string     `json:"id"`
	UserID          string     `json:"user_id"`
	StartedAt       time.Time  `json:"started_at"`
	EndedAt         *time.Time `json:"ended_at,omitempty"`
	DurationMinutes *int       `json:"duration_minutes,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// createSessionResponse はセッション開始のAPIレスポンス。
type createSessionResponse struct {
	SessionID string    `json:"session_id"`
	StartedAt time.Time `json:"started_at"`
}

// endSessionResponse はセッション終了のAPIレスポンス。
type endSessionResponse struct {
	SessionID       string    `json:"session_id"`
	EndedAt         time.Time `json:"ended_at"`
	DurationMinutes int       `json:"duration_minutes"`
}

// chatRequest はAI対話リクエストのボディ。
type chatRequest struct {
	SessionID   string           `json:"session_id"`
	Messages    []chatMessageDTO `json:"messages"`
	UserMessage string           `json:"user_message"`
}

type chatMessageDTO struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatResponse はAI対話のAPIレスポンス。
type chatResponse struct {
	Response  string `json:"response"`
	SessionID string `json:"session_id"`
}

// CreateSession は新しい対話セッションを開始する。
// POST /api/conversation/session
func (h *ConversationHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	session, err := h.sessions.StartSession(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(createSessionResponse{
		SessionID: session.ID.String(),
		StartedAt: session.StartedAt,
	})
}

// ListSessions はユーザーの対話セッション一覧を取得する。
// GET /api/conversation/sessions
func (h *ConversationHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	sessions, err := h.sessions.ListSessions(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := make([]sessionResponse, len(sessions))
	for i, s := range sessions {
		resp[i] = toSessionResponse(s)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// EndSession は対話セッションを終了する。
// PUT /api/conversation/session/{id}/end
func (h *ConversationHandler) EndSession(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	sessionID, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	session, err := h.sessions.EndSession(r.Context(), userID, sessionID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(endSessionResponse{
		SessionID:       session.ID.String(),
		EndedAt:         *session.EndedAt,
		DurationMinutes: *session.DurationMinutes,
	})
}

// Chat はセッション内のメッセージに対するAI応答を返す。
// POST /api/conversation/chat
func (h *ConversationHandler) Chat(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("リクエストボディの解析に失敗しました"))
		return
	}

	sessionID, err := uuid.Parse(req.SessionID)
	if err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("session_id はUUID形式で指定してください"))
		return
	}

	history := make([]ai.ChatMessage, len(req.Messages))
	for i, m := range req.Messages {
		history[i] = ai.ChatMessage{Role: m.Role, Content: m.Content}
	}

	response, err := h.chat.Chat(r.Context(), userID, sessionID, history, req.UserMessage)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(chatResponse{
		Response:  response,
		SessionID: req.SessionID,
	})
}

func toSessionResponse(s *model.ConversationSession) sessionResponse {
	return sessionResponse{
		ID:              s.ID.String(),
		UserID:          s.UserID.String(),
		StartedAt:       s.StartedAt,
		EndedAt:         s.EndedAt,
		DurationMinutes: s.DurationMinutes,
		CreatedAt:       s.CreatedAt,
		UpdatedAt:       s.UpdatedAt,
	}
}
