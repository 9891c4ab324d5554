// Package gemini はGoogle Gemini APIとの連携機能を提供する。
// 英会話応答の生成と語彙提案のJSON生成に使用する。
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
)

const (
	// defaultEndpoint はGemini generateContent APIのエンドポイント。
	// モデル名を含む。
	defaultEndpoint = "https://generativelanguage.googleapis.com/v1beta/models/gemini-2.5-flash-lite:generateContent"
)

// ErrEmptyResponse はGemini APIが候補を返さなかった場合のエラー。
var ErrEmptyResponse = errors.New("gemini APIが応答候補を返しませんでした")

// generateRequest はgenerateContent APIのリクエストボディ。
type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

// generateResponse はgenerateContent APIのレスポンスボディ。
type generateResponse struct {
	Candidates []candidate `json:"candidates"`
}

type candidate struct {
	Content responseContent `json:"content"`
}

type responseContent struct {
	Parts []part `json:"parts"`
}

// Client はGemini APIのクライアント。
// generateContentエンドポイントを使用してテキスト生成を行う。
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	apiKey     string
	endpoint   string // テスト用にエンドポイントを差し替え可能
}

// NewClient はClientの新しいインスタンスを生成する。
func NewClient(httpClient *http.Client, logger *slog.Logger, apiKey string) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     logger,
		apiKey:     apiKey,
		endpoint:   defaultEndpoint,
	}
}

// Generate はプロンプトをGemini APIに送信し、最初の候補のテキストを返す。
// 応答がmarkdownコードブロック（```json ... ```）で囲まれている場合は中身のみ返す。
// APIキーはクエリパラメータで渡す。
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	reqBody := generateRequest{
		Contents: []content{
			{Parts: []part{{Text: prompt}}},
		},
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("リクエストボディのエンコードに失敗しました: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("HTTPリクエストの作成に失敗しました: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	q := req.URL.Query()
	q.Set("key", c.apiKey)
	req.URL.RawQuery = q.Encode()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("gemini APIの呼び出しに失敗しました",
			slog.String("error", err.Error()),
		)
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Error("gemini APIがエラーステータスを返しました",
			slog.Int("http_status", resp.StatusCode),
		)
		return "", fmt.Errorf("gemini APIがステータス %d を返しました", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("レスポンスボディの読み取りに失敗しました: %w", err)
	}

	var result generateResponse
	if err := json.Unmarshal(body, &result); err != nil {
		c.logger.Error("gemini APIのレスポンスのパースに失敗しました",
			slog.String("error", err.Error()),
		)
		return "", fmt.Errorf("レスポンスJSONのパースに失敗しました: %w", err)
	}

	if len(result.Candidates) == 0 || len(result.Candidates[0].Content.Parts) == 0 {
		return "", ErrEmptyResponse
	}

	return stripCodeFence(result.Candidates[0].Content.Parts[0].Text), nil
}

// stripCodeFence はmarkdownコードブロックの囲いを除去する。
// ```json と ``` の囲い、または言語指定なしの ``` の囲いに対応する。
// 囲いが完全でない場合は元のテキストをそのまま返す。
func stripCodeFence(text string) string {
	trimmed := strings.TrimSpace(text)
	for _, prefix := range []string{"```json", "```"} {
		if strings.HasPrefix(trimmed, prefix) && strings.HasSuffix(trimmed, "```") {
			inner, ok := strings.CutPrefix(trimmed, prefix)
			if !ok {
				continue
			}
			inner, ok = strings.CutSuffix(inner, "```")
			if !ok {
				continue
			}
			return strings.TrimSpace(inner)
		}
	}
	return text
}
