package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/lexiflow/lexiflow/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	TokenVerifier     middleware.TokenVerifier
	CORSAllowedOrigin string
	Logger            *slog.Logger
	Metrics           middleware.HTTPStatusRecorder
	AuthMetrics       middleware.TokenVerificationRecorder

	// サービス
	AuthService         AuthServiceInterface
	WordService         WordServiceInterface
	StatisticsService   StatisticsServiceInterface
	ConversationService ConversationServiceInterface
	ChatService         ChatServiceInterface
	AIService           AIServiceInterface
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	CORS → SecurityHeaders → Recovery → Logging → (認証ルートのみ) Auth
//
// OAuthコールバックとヘルスチェックは認証ゲートの外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	// CORS ミドルウェアを最上位に適用（全ルートに効く）
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewLoggingMiddleware(deps.Logger, deps.Metrics))

	authHandler := NewAuthHandler(deps.AuthService)
	wordHandler := NewWordHandler(deps.WordService)
	statsHandler := NewStatisticsHandler(deps.StatisticsService)
	convHandler := NewConversationHandler(deps.ConversationService, deps.ChatService)
	aiHandler := NewAIHandler(deps.AIService)

	// --- 認証不要のルート ---

	// ヘルスチェック
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	// OAuthコールバック（この時点ではセッショントークンを持っていない）
	r.Post("/api/auth/oauth/{provider}", authHandler.Callback)

	// --- 認証が必要なルート ---
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewAuthMiddleware(deps.TokenVerifier, deps.AuthMetrics))

		r.Get("/api/auth/me", authHandler.Me)

		// 単語帳管理
		r.Route("/api/words", func(r chi.Router) {
			r.Get("/", wordHandler.ListWords)
			r.Post("/", wordHandler.CreateWord)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", wordHandler.GetWord)
				r.Put("/", wordHandler.UpdateWord)
				r.Delete("/", wordHandler.DeleteWord)
			})
		})

		// 学習統計
		r.Route("/api/statistics", func(r chi.Router) {
			r.Get("/", statsHandler.GetStatistics)
			r.Post("/", statsHandler.RecordActivity)
		})

		// 対話セッション
		r.Route("/api/conversation", func(r chi.Router) {
			r.Post("/session", convHandler.CreateSession)
			r.Get("/sessions", convHandler.ListSessions)
			r.Put("/session/{id}/end", convHandler.EndSession)
			r.Post("/chat", convHandler.Chat)
		})

		// AI語彙支援
		r.Route("/api/ai", func(r chi.Router) {
			r.Post("/conversation-analysis", aiHandler.AnalyzeConversation)
			r.Post("/vocabulary-help", aiHandler.VocabularyHelp)
			r.Post("/word-suggestions", aiHandler.SuggestWords)
		})
	})

	return r
}
