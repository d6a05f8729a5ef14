// Package respond は生成結果の出力整形（バイナリ画像・Markdown・Adaptive Card）を
// 提供します。整形は画像 URL と元プロンプトだけから行い、生成処理には依存しません。
package respond

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/shouni/go-http-kit/pkg/httpkit"

	"github.com/shouni/imagegen-kit/pkg/domain"
)

// 出力形式の種別。domain.GenerateRequest.ResponseFormat と同じ値を使います。
const (
	FormatImage        = "image"
	FormatMarkdown     = "markdown"
	FormatAdaptiveCard = "adaptive_card"
)

// URLResolver は自サービスの公開 URL をローカルパスに逆引きするインターフェースです。
type URLResolver interface {
	Resolve(rawURL string) (string, bool)
}

// Response は整形済みの単一出力です。Kind に応じたフィールドだけが設定されます。
type Response struct {
	Kind string

	// FormatImage 用
	ImageData []byte
	MIMEType  string

	// FormatMarkdown 用
	Markdown string

	// FormatAdaptiveCard 用
	CardJSON string
}

// Formatter は出力整形を担うコンポーネントです。
type Formatter struct {
	resolver   URLResolver
	httpClient httpkit.ClientInterface
}

// New は依存関係を注入して Formatter を初期化します。
func New(resolver URLResolver, httpClient httpkit.ClientInterface) (*Formatter, error) {
	if resolver == nil {
		return nil, fmt.Errorf("resolver is required")
	}
	if httpClient == nil {
		return nil, fmt.Errorf("httpClient is required")
	}
	return &Formatter{resolver: resolver, httpClient: httpClient}, nil
}

// Build は画像 URL を要求された形式の Response に整形します。
func (f *Formatter) Build(ctx context.Context, imageURL, format, prompt, outputFormat string) (*Response, error) {
	switch format {
	case FormatImage:
		data, err := f.loadImage(ctx, imageURL)
		if err != nil {
			return nil, err
		}
		return &Response{
			Kind:      FormatImage,
			ImageData: data,
			MIMEType:  "image/" + outputFormat,
		}, nil

	case FormatMarkdown:
		return &Response{
			Kind:     FormatMarkdown,
			Markdown: fmt.Sprintf("# Generated Image\n\n![%s](%s)\n\n*%s*", prompt, imageURL, prompt),
		}, nil

	case FormatAdaptiveCard:
		card, err := imageCard(prompt, imageURL)
		if err != nil {
			return nil, err
		}
		return &Response{Kind: FormatAdaptiveCard, CardJSON: card}, nil

	default:
		return nil, domain.Invalid(fmt.Sprintf("response_format が不正です: %q", format))
	}
}

// loadImage は画像 URL の実体を取得します。自サービス配下の URL は
// ディスクから直接読み、それ以外は HTTP で取得します。
func (f *Formatter) loadImage(ctx context.Context, imageURL string) ([]byte, error) {
	if path, ok := f.resolver.Resolve(imageURL); ok {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, domain.WrapError(domain.KindStorage,
				fmt.Sprintf("保存済み画像の読み込みに失敗しました: %s", imageURL), err)
		}
		return data, nil
	}

	data, err := f.httpClient.FetchBytes(ctx, imageURL)
	if err != nil {
		return nil, domain.WrapError(domain.KindUpstream,
			fmt.Sprintf("画像のダウンロードに失敗しました: %s", imageURL), err)
	}
	return data, nil
}

// imageCard は Adaptive Card 1.5 のカード JSON を構築します。
// 互換クライアント（Teams 等）での描画を想定した固定レイアウトです。
func imageCard(prompt, imageURL string) (string, error) {
	card := map[string]any{
		"type":    "AdaptiveCard",
		"$schema": "https://adaptivecards.io/schemas/adaptive-card.json",
		"version": "1.5",
		"layouts": []any{
			map[string]any{
				"type": "Layout.AreaGrid",
				"areas": []any{
					map[string]any{"name": "imageArea"},
					map[string]any{"name": "labelArea", "row": 2},
					map[string]any{"name": "promptArea", "row": 3},
				},
			},
		},
		"body": []any{
			map[string]any{
				"type":      "Image",
				"url":       imageURL,
				"grid.area": "imageArea",
				"altText":   prompt,
				"spacing":   "None",
				"style":     "RoundedCorners",
			},
			map[string]any{
				"type":      "TextBlock",
				"text":      "Prompt",
				"weight":    "Bolder",
				"grid.area": "labelArea",
			},
			map[string]any{
				"type":      "TextBlock",
				"text":      prompt,
				"wrap":      true,
				"grid.area": "promptArea",
			},
		},
		"fallbackText": fmt.Sprintf("Generated Image: %s", prompt),
		"speak":        prompt,
		"selectAction": map[string]any{
			"type": "Action.OpenUrl",
			"url":  imageURL,
		},
	}

	data, err := json.MarshalIndent(card, "", "  ")
	if err != nil {
		return "", domain.WrapError(domain.KindInternal, "カード JSON の生成に失敗しました", err)
	}
	return string(data), nil
}
