package auth

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/lexiflow/lexiflow/internal/model"
	"github.com/lexiflow/lexiflow/internal/repository"
)

// TokenIssuer はセッショントークン発行のインターフェース。
// token.Codecの部分集合として定義する。
type TokenIssuer interface {
	Issue(userID uuid.UUID) (string, error)
}

// MetricsRecorder はログイン結果のメトリクス記録インターフェース。
type MetricsRecorder interface {
	RecordLoginAttempt(provider string, success bool)
}

// Service は認証に関するビジネスロジックを提供する。
// コールバックオーケストレーション（コード交換 → アカウント解決 → トークン発行）と
// 現在ユーザーの取得を担う。
type Service struct {
	providers map[string]Provider
	userRepo  repository.UserRepository
	issuer    TokenIssuer
	metrics   MetricsRecorder
}

// NewService はServiceを生成する。
// metricsはnil可（記録をスキップする）。
func NewService(providers []Provider, userRepo repository.UserRepository, issuer TokenIssuer, metrics MetricsRecorder) *Service {
	m := make(map[string]Provider, len(providers))
	for _, p := range providers {
		m[p.Name()] = p
	}
	return &Service{
		providers: m,
		userRepo:  userRepo,
		issuer:    issuer,
		metrics:   metrics,
	}
}

// HandleCallback はOAuthコールバックを処理し、ユーザーとセッショントークンを返す。
// 各ステップの失敗でフローを打ち切る。リトライは行わない:
// 認可コードはプロバイダー側で初回使用時に無効化されるため、再送信しても失敗するだけである。
// 失敗の種別はセンチネルエラーで判別できる:
// ErrUnknownProvider / ErrExchangeFailed / ErrNoEmail はリクエスト起因、それ以外は内部エラー。
func (s *Service) HandleCallback(ctx context.Context, providerName, code, redirectURI string) (*model.User, string, error) {
	provider, ok := s.providers[providerName]
	if !ok {
		return nil, "", fmt.Errorf("%w: %s", ErrUnknownProvider, providerName)
	}

	// 1. 認可コードをトークンに交換し、ユーザー情報を取得
	profile, err := provider.ExchangeCode(ctx, code, redirectURI)
	if err != nil {
		s.recordLogin(providerName, false)
		return nil, "", fmt.Errorf("failed to exchange oauth code: %w", err)
	}

	// 2. (provider, provider_id)でアカウントを解決または作成
	user, err := s.resolveUser(ctx, profile)
	if err != nil {
		s.recordLogin(providerName, false)
		return nil, "", err
	}

	// 3. セッショントークンを発行
	tokenStr, err := s.issuer.Issue(user.ID)
	if err != nil {
		s.recordLogin(providerName, false)
		return nil, "", fmt.Errorf("failed to issue session token: %w", err)
	}

	s.recordLogin(providerName, true)
	return user, tokenStr, nil
}

// resolveUser は正規化済みプロフィールをローカルのユーザーレコードに対応付ける。
// 既存ユーザーの場合はupdated_atのみを更新し、email/name/imageは意図的に
// 初回作成時の値のまま保持する（ユーザーがローカルで編集した情報を
// プロバイダー側のドリフトで上書きしないため）。
func (s *Service) resolveUser(ctx context.Context, profile *model.ProviderProfile) (*model.User, error) {
	existing, err := s.userRepo.FindByProvider(ctx, profile.Provider, profile.ProviderUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user by provider: %w", err)
	}

	if existing != nil {
		if err := s.userRepo.TouchLastLogin(ctx, existing.ID, time.Now()); err != nil {
			return nil, fmt.Errorf("failed to update last login: %w", err)
		}
		slog.Info("existing user logged in",
			slog.String("user_id", existing.ID.String()),
			slog.String("provider", profile.Provider),
		)
		return existing, nil
	}

	// プロバイダークライアント側で除外済みのはずだが、メールなしユーザーは作成しない
	if profile.Email == "" {
		return nil, fmt.Errorf("refusing to create user without email")
	}

	now := time.Now()
	newUser := &model.User{
		ID:         uuid.New(),
		Email:      profile.Email,
		Name:       profile.Name,
		Image:      profile.Image,
		Provider:   profile.Provider,
		ProviderID: profile.ProviderUserID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	// Createは(provider, provider_id)の一意制約に対する競合処理付きUPSERT。
	// 同一IDの初回ログインが並行した場合も正準の1行に収束する。
	created, err := s.userRepo.Create(ctx, newUser)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	slog.Info("new user created",
		slog.String("user_id", created.ID.String()),
		slog.String("email", created.Email),
		slog.String("provider", created.Provider),
	)
	return created, nil
}

// GetCurrentUser は認証済みユーザーIDからユーザーを取得する。
// トークンは署名のみで信頼されるため、ユーザーが削除済みの場合はここで初めて検出される。
// 見つからない場合はnilを返す。
func (s *Service) GetCurrentUser(ctx context.Context, userID uuid.UUID) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

func (s *Service) recordLogin(provider string, success bool) {
	if s.metrics != nil {
		s.metrics.RecordLoginAttempt(provider, success)
	}
}
