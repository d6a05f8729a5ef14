package generator

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"google.golang.org/genai"

	"github.com/shouni/imagegen-kit/pkg/domain"
	"github.com/shouni/imagegen-kit/pkg/prompt"
)

// googleImageAPI は genai.Models の画像生成を抽象化するインターフェースです。
type googleImageAPI interface {
	GenerateImages(ctx context.Context, model string, prompt string, config *genai.GenerateImagesConfig) (*genai.GenerateImagesResponse, error)
}

// googleTextAPI は genai.Models のテキスト生成を抽象化するインターフェースです。
type googleTextAPI interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GoogleGenerator は Google（Imagen 系）のジェネレーターです。
// 生成とプロンプト補正をサポートしますが、編集は非対応です。
type GoogleGenerator struct {
	models   googleImageAPI
	model    string
	store    ImageStore
	enhancer PromptEnhancer
}

// GoogleCompleter は Gemini の GenerateContent で prompt.TextCompleter を満たすアダプターです。
type GoogleCompleter struct {
	models googleTextAPI
	model  string
}

// NewGoogleCompleter は補正用のテキスト生成アダプターを生成します。
func NewGoogleCompleter(models googleTextAPI, model string) *GoogleCompleter {
	return &GoogleCompleter{models: models, model: model}
}

// Complete はシステム指示付きの単発テキスト生成を実行します。
func (c *GoogleCompleter) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
	}
	resp, err := c.models.GenerateContent(ctx, c.model,
		[]*genai.Content{genai.NewContentFromText(userPrompt, genai.RoleUser)}, config)
	if err != nil {
		return "", fmt.Errorf("テキスト生成に失敗しました: %w", err)
	}
	return firstCandidateText(resp), nil
}

// firstCandidateText は最初の候補のテキストパーツを連結して返すのだ。
func firstCandidateText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil && part.Text != "" {
			sb.WriteString(part.Text)
		}
	}
	return sb.String()
}

// NewGoogleGenerator は依存関係を注入して GoogleGenerator を初期化します。
func NewGoogleGenerator(models googleImageAPI, model string, store ImageStore, enhancer PromptEnhancer) (*GoogleGenerator, error) {
	if models == nil {
		return nil, fmt.Errorf("models (googleImageAPI) is required")
	}
	if model == "" {
		return nil, fmt.Errorf("model is required")
	}
	if store == nil {
		return nil, fmt.Errorf("store is required")
	}

	return &GoogleGenerator{
		models:   models,
		model:    model,
		store:    store,
		enhancer: enhancer,
	}, nil
}

func (g *GoogleGenerator) ID() string        { return g.model }
func (g *GoogleGenerator) Label() string     { return "Google" }
func (g *GoogleGenerator) ModelName() string { return g.model }

// Generate はテキストから画像を生成します。
func (g *GoogleGenerator) Generate(ctx context.Context, req domain.GenerateRequest) domain.Result {
	return run(ctx, "google.generate", func() ([]string, string, error) {
		finalPrompt := prompt.Format(req.Prompt, req.NegativePrompt)
		enhanced := ""
		if req.EnhancePrompt && g.enhancer != nil {
			finalPrompt = g.enhancer.Enhance(ctx, finalPrompt)
			enhanced = finalPrompt
		}

		config := &genai.GenerateImagesConfig{
			NumberOfImages: int32(req.N),
			AspectRatio:    sizeToAspectRatio(req.Size),
			Seed:           seedToPtrInt32(req.Seed),
		}

		resp, err := g.models.GenerateImages(ctx, g.model, finalPrompt, config)
		if err != nil {
			return nil, "", domain.WrapError(domain.KindUpstream, "画像生成APIの呼び出しに失敗しました", err)
		}

		images, err := collectGeneratedImages(ctx, resp)
		if err != nil {
			return nil, "", err
		}

		urls, err := saveAll(g.store, images, PrefixGenerated, req.OutputFormat)
		if err != nil {
			return nil, "", err
		}
		return urls, enhanced, nil
	})
}

// Edit は常に失敗結果を返します。Imagen 系 API はこのサービスの編集フローに
// 対応していないため、プロバイダー呼び出し自体を行いません。
func (g *GoogleGenerator) Edit(ctx context.Context, req domain.EditRequest) domain.Result {
	return domain.Failed(domain.NewError(domain.KindCapability,
		fmt.Sprintf("image editing is not supported by the %s generator", g.model)))
}

// sizeToAspectRatio はピクセルサイズ指定をアスペクト比バケットに変換するのだ。
func sizeToAspectRatio(size string) string {
	w, h, err := parseSize(size)
	if err != nil {
		// "auto" などの非ピクセル指定は正方形に倒す
		return "1:1"
	}
	return aspectRatio(w, h)
}

// collectGeneratedImages はレスポンスから画像バイト列を集めます。
// Google はバイト列を直接返すため base64 デコードは不要です。
func collectGeneratedImages(ctx context.Context, resp *genai.GenerateImagesResponse) ([][]byte, error) {
	if resp == nil {
		return nil, domain.NewError(domain.KindProcessing, "no images were generated")
	}

	images := make([][]byte, 0, len(resp.GeneratedImages))
	for i, img := range resp.GeneratedImages {
		if img == nil || img.Image == nil || len(img.Image.ImageBytes) == 0 {
			slog.WarnContext(ctx, "画像ペイロードのない項目をスキップします", "index", i)
			continue
		}
		images = append(images, img.Image.ImageBytes)
	}

	if len(images) == 0 {
		return nil, domain.NewError(domain.KindProcessing, "no images were generated")
	}
	return images, nil
}
