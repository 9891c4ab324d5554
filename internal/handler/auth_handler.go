// Package handler はHTTP APIのハンドラーとルーティングを提供する。
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/lexiflow/lexiflow/internal/auth"
	"github.com/lexiflow/lexiflow/internal/middleware"
	"github.com/lexiflow/lexiflow/internal/model"
	"github.com/lexiflow/lexiflow/internal/token"
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	// HandleCallback はOAuthコールバックを処理し、ユーザーとセッショントークンを返す。
	HandleCallback(ctx context.Context, providerName, code, redirectURI string) (*model.User, string, error)
	// GetCurrentUser は認証済みユーザーIDからユーザーを取得する。見つからない場合はnilを返す。
	GetCurrentUser(ctx context.Context, userID uuid.UUID) (*model.User, error)
}

// AuthHandler は認証のHTTPハンドラー。
type AuthHandler struct {
	service AuthServiceInterface
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface) *AuthHandler {
	return &AuthHandler{
		service: service,
	}
}

// oauthCallbackRequest はOAuthコールバックリクエストのボディ。
type oauthCallbackRequest struct {
	Code        string `json:"code"`
	RedirectURI string `json:"redirect_uri"`
}

// userResponse はユーザー情報のAPIレスポンス。
type userResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Image string `json:"image"`
}

// oauthCallbackResponse はログイン成功時のAPIレスポンス。
type oauthCallbackResponse struct {
	User        userResponse `json:"user"`
	AccessToken string       `json:"access_token"`
	ExpiresIn   int          `json:"expires_in"`
}

// Callback はOAuth認可コードを受け取り、セッショントークンを発行する。
// POST /api/auth/oauth/{provider}
func (h *AuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	providerName := chi.URLParam(r, "provider")

	var req oauthCallbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("リクエストボディの解析に失敗しました"))
		return
	}
	if req.Code == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("code は必須です"))
		return
	}

	user, accessToken, err := h.service.HandleCallback(r.Context(), providerName, req.Code, req.RedirectURI)
	if err != nil {
		h.handleCallbackError(w, err, providerName)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(oauthCallbackResponse{
		User:        toUserResponse(user),
		AccessToken: accessToken,
		ExpiresIn:   token.MaxAge,
	})
}

// Me は現在のユーザー情報を返す。
// GET /api/auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	user, err := h.service.GetCurrentUser(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if user == nil {
		// トークンは有効だがユーザーが削除済みの場合
		writeAPIErrorResponse(w, http.StatusNotFound, model.NewUserNotFoundError())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toUserResponse(user))
}

// handleCallbackError はコールバック処理のエラーをHTTPレスポンスに変換する。
// リクエスト起因のエラー（サポート外プロバイダー・交換失敗・メールなし）は400、
// それ以外は500を返す。プロバイダー側のエラー詳細はクライアントに返さない。
func (h *AuthHandler) handleCallbackError(w http.ResponseWriter, err error, providerName string) {
	switch {
	case errors.Is(err, auth.ErrUnknownProvider):
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewUnknownProviderError(providerName))
	case errors.Is(err, auth.ErrExchangeFailed):
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewOAuthExchangeFailedError())
	case errors.Is(err, auth.ErrNoEmail):
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewEmailNotAvailableError())
	default:
		handleServiceError(w, err)
	}
}

func toUserResponse(user *model.User) userResponse {
	return userResponse{
		ID:    user.ID.String(),
		Email: user.Email,
		Name:  user.Name,
		Image: user.Image,
	}
}
