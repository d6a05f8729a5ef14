package generator

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/shouni/imagegen-kit/pkg/domain"
	"github.com/shouni/imagegen-kit/pkg/prompt"
)

// openAIImageAPI は openai.Client の Images サービスを抽象化するインターフェースです。
type openAIImageAPI interface {
	Generate(ctx context.Context, body openai.ImageGenerateParams, opts ...option.RequestOption) (*openai.ImagesResponse, error)
	Edit(ctx context.Context, body openai.ImageEditParams, opts ...option.RequestOption) (*openai.ImagesResponse, error)
}

// openAIChatAPI はチャット補完の実行を抽象化するインターフェースです。
type openAIChatAPI interface {
	New(ctx context.Context, body openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, error)
}

// OpenAIGenerator は OpenAI 互換 API（gpt-image-1 系）のジェネレーターです。
// 生成・編集・プロンプト補正のすべてをサポートします。
type OpenAIGenerator struct {
	images       openAIImageAPI
	imageModel   string
	enhanceModel string
	store        ImageStore
	loader       SourceLoader
	enhancer     PromptEnhancer
}

// OpenAICompleter は openai のチャット補完で prompt.TextCompleter を満たすアダプターです。
type OpenAICompleter struct {
	chat  openAIChatAPI
	model string
}

// NewOpenAICompleter は補正用のチャット補完アダプターを生成します。
func NewOpenAICompleter(chat openAIChatAPI, model string) *OpenAICompleter {
	return &OpenAICompleter{chat: chat, model: model}
}

// Complete はシステム指示付きの単発チャット補完を実行します。
func (c *OpenAICompleter) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	resp, err := c.chat.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(userPrompt),
		},
	})
	if err != nil {
		return "", fmt.Errorf("チャット補完に失敗しました: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}

// NewOpenAIClient は API キーとベース URL から openai.Client を構築します。
func NewOpenAIClient(apiKey, baseURL string) openai.Client {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return openai.NewClient(opts...)
}

// NewOpenAIGenerator は依存関係を注入して OpenAIGenerator を初期化します。
// enhancer は nil を許容します（補正リクエストは無視され元のプロンプトを使います）。
func NewOpenAIGenerator(images openAIImageAPI, imageModel, enhanceModel string, store ImageStore, loader SourceLoader, enhancer PromptEnhancer) (*OpenAIGenerator, error) {
	if images == nil {
		return nil, fmt.Errorf("images (openAIImageAPI) is required")
	}
	if imageModel == "" {
		return nil, fmt.Errorf("imageModel is required")
	}
	if store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if loader == nil {
		return nil, fmt.Errorf("loader is required")
	}

	return &OpenAIGenerator{
		images:       images,
		imageModel:   imageModel,
		enhanceModel: enhanceModel,
		store:        store,
		loader:       loader,
		enhancer:     enhancer,
	}, nil
}

func (g *OpenAIGenerator) ID() string        { return g.imageModel }
func (g *OpenAIGenerator) Label() string     { return "OpenAI" }
func (g *OpenAIGenerator) ModelName() string { return g.imageModel }

// Generate はテキストから画像を生成します。結果は常に domain.Result に畳み込まれます。
func (g *OpenAIGenerator) Generate(ctx context.Context, req domain.GenerateRequest) domain.Result {
	return run(ctx, "openai.generate", func() ([]string, string, error) {
		finalPrompt := prompt.Format(req.Prompt, req.NegativePrompt)
		enhanced := ""
		if req.EnhancePrompt && g.enhancer != nil {
			finalPrompt = g.enhancer.Enhance(ctx, finalPrompt)
			enhanced = finalPrompt
		}

		params := openai.ImageGenerateParams{
			Prompt:       finalPrompt,
			Model:        openai.ImageModel(g.imageModel),
			N:            openai.Int(int64(req.N)),
			Size:         openai.ImageGenerateParamsSize(req.Size),
			Quality:      openai.ImageGenerateParamsQuality(req.Quality),
			Background:   openai.ImageGenerateParamsBackground(req.Background),
			Moderation:   openai.ImageGenerateParamsModeration(req.Moderation),
			OutputFormat: openai.ImageGenerateParamsOutputFormat(req.OutputFormat),
		}
		if req.OutputFormat != "png" {
			params.OutputCompression = openai.Int(int64(req.OutputCompression))
		}
		if req.User != "" {
			params.User = openai.String(req.User)
		}

		resp, err := g.images.Generate(ctx, params)
		if err != nil {
			return nil, "", domain.WrapError(domain.KindUpstream, "画像生成APIの呼び出しに失敗しました", err)
		}

		images, err := decodeImagePayloads(ctx, resp)
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

// Edit は既存画像を編集します。マスクを渡すとインペインティングになります。
func (g *OpenAIGenerator) Edit(ctx context.Context, req domain.EditRequest) domain.Result {
	return run(ctx, "openai.edit", func() ([]string, string, error) {
		finalPrompt := prompt.Format(req.Prompt, req.NegativePrompt)
		mimeType := "image/" + req.OutputFormat

		sources := make([]io.Reader, 0, len(req.ImagePaths))
		for _, path := range req.ImagePaths {
			data, err := g.loader.Load(ctx, path)
			if err != nil {
				return nil, "", err
			}
			sources = append(sources, openai.File(bytes.NewReader(data), editFilename(path), mimeType))
		}

		params := openai.ImageEditParams{
			Image:        openai.ImageEditParamsImageUnion{OfFileArray: sources},
			Prompt:       finalPrompt,
			Model:        openai.ImageModel(g.imageModel),
			N:            openai.Int(int64(req.N)),
			Size:         openai.ImageEditParamsSize(req.Size),
			Quality:      openai.ImageEditParamsQuality(req.Quality),
			Background:   openai.ImageEditParamsBackground(req.Background),
			OutputFormat: openai.ImageEditParamsOutputFormat(req.OutputFormat),
		}
		if req.InputFidelity != "" {
			params.InputFidelity = openai.ImageEditParamsInputFidelity(req.InputFidelity)
		}
		if req.OutputFormat != "png" {
			params.OutputCompression = openai.Int(int64(req.OutputCompression))
		}
		if req.User != "" {
			params.User = openai.String(req.User)
		}
		if req.MaskPath != "" {
			maskData, err := g.loader.Load(ctx, req.MaskPath)
			if err != nil {
				return nil, "", err
			}
			params.Mask = openai.File(bytes.NewReader(maskData), editFilename(req.MaskPath), mimeType)
		}

		resp, err := g.images.Edit(ctx, params)
		if err != nil {
			return nil, "", domain.WrapError(domain.KindUpstream, "画像編集APIの呼び出しに失敗しました", err)
		}

		images, err := decodeImagePayloads(ctx, resp)
		if err != nil {
			return nil, "", err
		}

		urls, err := saveAll(g.store, images, PrefixEdited, req.OutputFormat)
		if err != nil {
			return nil, "", err
		}
		return urls, "", nil
	})
}

// editFilename はマルチパート送信時のファイル名を決めるのだ。
// 絶対パスはベース名を使い、それ以外（URL・data URL）は固定名になる。
func editFilename(path string) string {
	if strings.HasPrefix(path, "/") {
		return filepath.Base(path)
	}
	return "image.png"
}

// decodeImagePayloads はレスポンスの base64 ペイロードをバイト列に展開します。
// デコード失敗は該当インデックスを示して全体の失敗になり、ペイロードのない
// 項目は警告の上でスキップされます。
func decodeImagePayloads(ctx context.Context, resp *openai.ImagesResponse) ([][]byte, error) {
	if resp == nil {
		return nil, domain.NewError(domain.KindProcessing, "no images were generated")
	}

	images := make([][]byte, 0, len(resp.Data))
	for i, item := range resp.Data {
		if item.B64JSON == "" {
			slog.WarnContext(ctx, "画像ペイロードのない項目をスキップします", "index", i, "url", item.URL)
			continue
		}
		data, err := base64.StdEncoding.DecodeString(item.B64JSON)
		if err != nil {
			return nil, domain.WrapError(domain.KindProcessing,
				fmt.Sprintf("画像 %d 件目の base64 デコードに失敗しました", i), err)
		}
		images = append(images, data)
	}

	if len(images) == 0 {
		return nil, domain.NewError(domain.KindProcessing, "no images were generated")
	}
	return images, nil
}
