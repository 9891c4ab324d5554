// Package token はセッショントークンの発行と検証を提供する。
// トークンはHMAC-SHA256署名付きJWTで、サーバー側に状態を持たない。
// 有効期限切れ前の失効はできない。
package token

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// MaxAge はトークンの有効期間（秒）。発行から30日。
const MaxAge = 30 * 24 * 60 * 60

// ErrInvalidToken は検証に失敗したトークンを表す。
// 署名不正・期限切れ・クレーム欠落を区別せず、一様にこのエラーを返す
// （失敗理由を外部に漏らさないため）。
var ErrInvalidToken = fmt.Errorf("invalid token")

// claims はセッショントークンのクレーム。
// ユーザーIDはsubとidの両方に同じ値で格納する。検証器の実装によって
// どちらを読むかが異なるための互換シムであり、セキュリティ境界の緩和ではない。
type claims struct {
	jwt.RegisteredClaims
	ID string `json:"id,omitempty"`
}

// Codec はセッショントークンの発行・検証を行う。
// 署名鍵は起動時に1回注入され、以降読み取り専用として共有される。
type Codec struct {
	secret []byte
	now    func() time.Time // テスト用に差し替え可能
}

// NewCodec はCodecを生成する。
// 署名鍵が空の場合はエラーを返す（起動時の致命的エラーとして扱うこと）。
func NewCodec(secret string) (*Codec, error) {
	if secret == "" {
		return nil, fmt.Errorf("token signing secret is required")
	}
	return &Codec{
		secret: []byte(secret),
		now:    time.Now,
	}, nil
}

// Issue は指定ユーザーIDのセッショントークンを発行する。
// クレームは {sub, id, iat, exp}。subとidには同一のユーザーIDを格納する。
func (c *Codec) Issue(userID uuid.UUID) (string, error) {
	now := c.now()
	cl := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(MaxAge * time.Second)),
		},
		ID: userID.String(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, cl)
	signed, err := t.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify はトークンを検証し、ユーザーIDを返す。
// 次のいずれかの場合にErrInvalidTokenを返す:
// 署名が検証できない、アルゴリズムがHS256以外（アルゴリズム混同攻撃対策）、
// 期限切れ、id/subクレームが両方とも欠落、ユーザーIDがUUIDとして解釈できない。
// 検証成功時に副作用はない。
func (c *Codec) Verify(tokenStr string) (uuid.UUID, error) {
	var cl claims
	_, err := jwt.ParseWithClaims(tokenStr, &cl, func(t *jwt.Token) (any, error) {
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(c.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return uuid.Nil, ErrInvalidToken
	}

	// idクレームを優先し、なければsubにフォールバックする
	idStr := cl.ID
	if idStr == "" {
		idStr = cl.Subject
	}
	if idStr == "" {
		return uuid.Nil, ErrInvalidToken
	}

	userID, err := uuid.Parse(idStr)
	if err != nil {
		return uuid.Nil, ErrInvalidToken
	}

	return userID, nil
}
