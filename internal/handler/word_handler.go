package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/lexiflow/lexiflow/internal/middleware"
	"github.com/lexiflow/lexiflow/internal/model"
	"github.com/lexiflow/lexiflow/internal/word"
)

// WordServiceInterface は単語ハンドラーが必要とするサービスインターフェース。
type WordServiceInterface interface {
	ListWords(ctx context.Context, userID uuid.UUID) ([]*model.Word, error)
	GetWord(ctx context.Context, userID, id uuid.UUID) (*model.Word, error)
	CreateWord(ctx context.Context, userID uuid.UUID, input word.CreateWordInput) (*model.Word, error)
	UpdateWord(ctx context.Context, userID, id uuid.UUID, patch *model.WordPatch) (*model.Word, error)
	DeleteWord(ctx context.Context, userID, id uuid.UUID) error
}

// WordHandler は単語帳管理のHTTPハンドラー。
type WordHandler struct {
	service WordServiceInterface
}

// NewWordHandler はWordHandlerを生成する。
func NewWordHandler(service WordServiceInterface) *WordHandler {
	return &WordHandler{
		service: service,
	}
}

// wordResponse は単語のAPIレスポンス。
type wordResponse struct {
	ID           string    `json:"id"`
	Word         string    `json:"word"`
	Meaning      string    `json:"meaning"`
	Translation  string    `json:"translation,omitempty"`
	PartOfSpeech []string  `json:"part_of_speech"`
	Phonetic     string    `json:"phonetic,omitempty"`
	Example      string    `json:"example,omitempty"`
	Category     string    `json:"category,omitempty"`
	UserID       string    `json:"user_id"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// createWordRequest は単語登録リクエストのボディ。
type createWordRequest struct {
	Word         string   `json:"word"`
	Meaning      string   `json:"meaning"`
	Translation  string   `json:"translation"`
	PartOfSpeech []string `json:"part_of_speech"`
	Phonetic     string   `json:"phonetic"`
	Example      string   `json:"example"`
	Category     string   `json:"category"`
}

// updateWordRequest は単語更新リクエストのボディ。
// nilのフィールドは変更しない。
type updateWordRequest struct {
	Word         *string  `json:"word"`
	Meaning      *string  `json:"meaning"`
	Translation  *string  `json:"translation"`
	PartOfSpeech []string `json:"part_of_speech"`
	Phonetic     *string  `json:"phonetic"`
	Example      *string  `json:"example"`
	Category     *string  `json:"category"`
}

// ListWords はユーザーの単語一覧を取得する。
// GET /api/words
func (h *WordHandler) ListWords(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	words, err := h.service.ListWords(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := make([]wordResponse, len(words))
	for i, wd := range words {
		resp[i] = toWordResponse(wd)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// GetWord は単語の詳細を取得する。
// GET /api/words/{id}
func (h *WordHandler) GetWord(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	wordID, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	wd, err := h.service.GetWord(r.Context(), userID, wordID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toWordResponse(wd))
}

// CreateWord は単語を登録する。
// POST /api/words
func (h *WordHandler) CreateWord(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req createWordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("リクエストボディの解析に失敗しました"))
		return
	}

	wd, err := h.service.CreateWord(r.Context(), userID, word.CreateWordInput{
		Word:         req.Word,
		Meaning:      req.Meaning,
		Translation:  req.Translation,
		PartOfSpeech: req.PartOfSpeech,
		Phonetic:     req.Phonetic,
		Example:      req.Example,
		Category:     req.Category,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(toWordResponse(wd))
}

// UpdateWord は単語のフィールドを部分更新する。
// PUT /api/words/{id}
func (h *WordHandler) UpdateWord(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	wordID, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	var req updateWordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("リクエストボディの解析に失敗しました"))
		return
	}

	wd, err := h.service.UpdateWord(r.Context(), userID, wordID, &model.WordPatch{
		Word:         req.Word,
		Meaning:      req.Meaning,
		Translation:  req.Translation,
		PartOfSpeech: req.PartOfSpeech,
		Phonetic:     req.Phonetic,
		Example:      req.Example,
		Category:     req.Category,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toWordResponse(wd))
}

// DeleteWord は単語を削除する。
// DELETE /api/words/{id}
func (h *WordHandler) DeleteWord(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	wordID, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteWord(r.Context(), userID, wordID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func toWordResponse(wd *model.Word) wordResponse {
	pos := wd.PartOfSpeech
	if pos == nil {
		pos = []string{}
	}
	return wordResponse{
		ID:           wd.ID.String(),
		Word:         wd.Word,
		Meaning:      wd.Meaning,
		Translation:  wd.Translation,
		PartOfSpeech: pos,
		Phonetic:     wd.Phonetic,
		Example:      wd.Example,
		Category:     wd.Category,
		UserID:       wd.UserID.String(),
		CreatedAt:    wd.CreatedAt,
		UpdatedAt:    wd.UpdatedAt,
	}
}

// --- ハンドラー共通ヘルパー ---

// apiErrorResponse はAPIエラーのレスポンスボディ。
type apiErrorResponse struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Category string `json:"category"`
	Action   string `json:"action"`
}

// requireUserID はコンテキストから認証済みユーザーIDを取得する。
// 取得できない場合は401を書き込み、falseを返す。
func requireUserID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return uuid.Nil, false
	}
	return userID, true
}

// parseIDParam はURLパラメータ{id}をUUIDとして解析する。
// 解析できない場合は400を書き込み、falseを返す。
func parseIDParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("id はUUID形式で指定してください"))
		return uuid.Nil, false
	}
	return id, true
}

// writeAPIErrorResponse は統一エラーフォーマットでエラーレスポンスを書き込む。
func writeAPIErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(apiErrorResponse{
		Code:     apiErr.Code,
		Message:  apiErr.Message,
		Category: apiErr.Category,
		Action:   apiErr.Action,
	})
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		writeAPIErrorResponse(w, mapAPIErrorToHTTPStatus(apiErr), apiErr)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う
	slog.Error("internal server error", slog.String("error", err.Error()))
	writeAPIErrorResponse(w, http.StatusInternalServerError, &model.APIError{
		Code:     "INTERNAL_ERROR",
		Message:  "内部エラーが発生しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	})
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case model.ErrCodeUnknownProvider,
		model.ErrCodeOAuthExchangeFailed,
		model.ErrCodeEmailNotAvailable,
		model.ErrCodeValidationFailed:
		return http.StatusBadRequest
	case model.ErrCodeUserNotFound,
		model.ErrCodeWordNotFound,
		model.ErrCodeSessionNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
