// Package prompt はプロンプトの整形とベストエフォートの補正を提供します。
package prompt

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// enhanceSystemPrompt は補正モデルへ渡す固定のシステム指示です。
const enhanceSystemPrompt = "You are an image generation assistant specialized in optimizing user prompts. " +
	"Ensure content compliance rules are followed. " +
	"Do not ask followup questions, just generate the optimized prompt."

// TextCompleter はテキスト補完の実行を抽象化するインターフェースです。
// OpenAI のチャット補完と Gemini の GenerateContent の両方がこれを満たします。
type TextCompleter interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Cacher は補正結果のキャッシュ操作を抽象化するインターフェースです。
type Cacher interface {
	Get(key string) (interface{}, bool)
	Set(key string, value interface{}, d time.Duration)
}

// Format はプロンプトとネガティブプロンプトを単一のテキストに整形します。
// ネガティブプロンプトが空の場合は整形後のプロンプトをそのまま返します。
func Format(prompt, negative string) string {
	p := strings.TrimSpace(prompt)
	n := strings.TrimSpace(negative)
	if n == "" {
		return p
	}
	return fmt.Sprintf("## Image Prompt:\n%s\n\n## Negative Prompt (Avoid this in the image):\n%s", p, n)
}

// Enhancer はプロンプト補正を担うコンポーネントです。
// 補正はベストエフォートであり、どんな失敗でも元のプロンプトを返します。
type Enhancer struct {
	completer TextCompleter
	cache     Cacher
	cacheTTL  time.Duration
}

// NewEnhancer は依存関係を注入して Enhancer を初期化します。
func NewEnhancer(completer TextCompleter, cache Cacher, cacheTTL time.Duration) (*Enhancer, error) {
	if completer == nil {
		return nil, fmt.Errorf("completer is required")
	}
	// cache は nil を許容（キャッシュなし動作）
	return &Enhancer{
		completer: completer,
		cache:     cache,
		cacheTTL:  cacheTTL,
	}, nil
}

// Enhance はプロンプトを補正して返します。失敗時は元のプロンプトを返し、
// エラーは返しません。補正で画像生成が止まることはありません。
func (e *Enhancer) Enhance(ctx context.Context, prompt string) string {
	if e.cache != nil {
		if cached, found := e.cache.Get(cacheKey(prompt)); found {
			if enhanced, ok := cached.(string); ok {
				return enhanced
			}
		}
	}

	userPrompt := fmt.Sprintf("Enhance this prompt for image generation: %s", prompt)
	completion, err := e.completer.Complete(ctx, enhanceSystemPrompt, userPrompt)
	if err != nil {
		slog.WarnContext(ctx, "プロンプト補正に失敗したため元のプロンプトを使用します", "error", err)
		return prompt
	}

	enhanced := strings.TrimSpace(completion)
	if enhanced == "" {
		slog.WarnContext(ctx, "プロンプト補正が空の結果を返したため元のプロンプトを使用します")
		return prompt
	}

	if e.cache != nil {
		e.cache.Set(cacheKey(prompt), enhanced, e.cacheTTL)
	}
	return enhanced
}

func cacheKey(prompt string) string {
	return "enhance:" + prompt
}
