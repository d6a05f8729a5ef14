package server

import (
	"encoding/json"
	"time"

	"github.com/shouni/imagegen-kit/pkg/domain"
)

// Envelope は REST API の共通レスポンス形式です。
// 成功時は Data、失敗時は Error が設定され、Metadata は常に付きます。
type Envelope struct {
	Status   string       `json:"status"`
	Data     *Data        `json:"data,omitempty"`
	Metadata Metadata     `json:"metadata"`
	Error    *ErrorDetail `json:"error,omitempty"`
}

// Data は response_format に応じた本体です。
type Data struct {
	// Images は base64 エンコードされた画像バイト列のリストです。
	Images       []string        `json:"images,omitempty"`
	Markdown     string          `json:"markdown,omitempty"`
	AdaptiveCard json.RawMessage `json:"adaptive_card,omitempty"`
}

// Metadata はリクエストの要約と処理情報です。
type Metadata struct {
	Prompt           string `json:"prompt"`
	EnhancedPrompt   string `json:"enhanced_prompt,omitempty"`
	Model            string `json:"model,omitempty"`
	Size             string `json:"size"`
	Quality          string `json:"quality,omitempty"`
	ResponseFormat   string `json:"response_format"`
	User             string `json:"user,omitempty"`
	Timestamp        string `json:"timestamp"`
	ProcessingTimeMS int64  `json:"processing_time_ms"`
}

// ErrorDetail は失敗時のエラー情報です。
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// newMetadata は現在時刻付きのメタデータを構築します。タイムスタンプは UTC の RFC3339 です。
func newMetadata(prompt, enhanced, model, size, quality, responseFormat, user string, elapsed time.Duration) Metadata {
	return Metadata{
		Prompt:           prompt,
		EnhancedPrompt:   enhanced,
		Model:            model,
		Size:             size,
		Quality:          quality,
		ResponseFormat:   responseFormat,
		User:             user,
		Timestamp:        time.Now().UTC().Format(time.RFC3339),
		ProcessingTimeMS: elapsed.Milliseconds(),
	}
}

// errorEnvelope は domain.Error からエラーレスポンスを構築します。
func errorEnvelope(err *domain.Error, meta Metadata) Envelope {
	return Envelope{
		Status:   "error",
		Metadata: meta,
		Error: &ErrorDetail{
			Code:    err.Code(),
			Message: err.Message,
		},
	}
}
