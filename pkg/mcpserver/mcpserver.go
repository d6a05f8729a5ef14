// Package mcpserver は MCP ツール generate_image / edit_image を提供します。
// REST と同じレジストリ・整形コンポーネントを共有し、検証規則も共通です。
package mcpserver

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/shouni/imagegen-kit/pkg/domain"
	"github.com/shouni/imagegen-kit/pkg/generator"
	"github.com/shouni/imagegen-kit/pkg/respond"
)

// Server は MCP ツールの実装を保持するコンポーネントです。
type Server struct {
	registry  *generator.Registry
	formatter *respond.Formatter
	mcpServer *mcp.Server
}

// New は依存関係を注入して MCP サーバーを構築し、ツールを登録します。
func New(registry *generator.Registry, formatter *respond.Formatter, name, version string) (*Server, error) {
	if registry == nil {
		return nil, fmt.Errorf("registry is required")
	}
	if formatter == nil {
		return nil, fmt.Errorf("formatter is required")
	}

	s := &Server{
		registry:  registry,
		formatter: formatter,
	}

	s.mcpServer = mcp.NewServer(&mcp.Implementation{
		Name:    name,
		Version: version,
	}, nil)
	s.registerTools()

	return s, nil
}

// RunStdio は stdio トランスポートでサーバーを起動します。呼び出しはブロックします。
func (s *Server) RunStdio(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcp.StdioTransport{})
}

// HTTPHandler は REST と同じリスナーにマウントできる streamable HTTP ハンドラーを返します。
func (s *Server) HTTPHandler() http.Handler {
	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return s.mcpServer
	}, nil)
}

func (s *Server) registerTools() {
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name: "generate_image",
		Description: "Generate images from a text prompt. Supports negative prompts, " +
			"prompt enhancement, multiple output formats and up to 10 images per call. " +
			"Returns the image content or a markdown / Adaptive Card representation.",
	}, s.handleGenerateImage)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name: "edit_image",
		Description: "Edit existing images with a text prompt. Accepts up to 16 source " +
			"images given as URLs, local paths or base64 data URLs, plus an optional mask " +
			"for inpainting (transparent areas are replaced).",
	}, s.handleEditImage)
}

// generateImageInput は generate_image ツールの入力です。
type generateImageInput struct {
	Prompt         string `json:"prompt" jsonschema:"description:Text prompt describing the image to generate. Be specific about style, composition, colors and mood."`
	NegativePrompt string `json:"negative_prompt,omitempty" jsonschema:"description:Description of what should NOT appear in the image."`
	Model          string `json:"model,omitempty" jsonschema:"description:Generator model to use. Defaults to the first configured generator."`
	Size           string `json:"size,omitempty" jsonschema:"description:Image size: '1024x1024' (square), '1536x1024' (landscape), '1024x1536' (portrait) or 'auto'.,default:1024x1024"`
	Quality        string `json:"quality,omitempty" jsonschema:"description:Image quality: 'low', 'medium', 'high' or 'auto'.,default:auto"`
	OutputFormat   string `json:"output_format,omitempty" jsonschema:"description:Output image format: 'png', 'jpeg' or 'webp'.,default:jpeg"`
	Background     string `json:"background,omitempty" jsonschema:"description:Background style: 'transparent', 'opaque' or 'auto'.,default:auto"`
	N              int    `json:"n,omitempty" jsonschema:"description:Number of images to generate (1-10).,default:1"`
	Seed           int64  `json:"seed,omitempty" jsonschema:"description:Optional seed for reproducibility. Only honored by the Google generator."`
	EnhancePrompt  bool   `json:"enhance_prompt,omitempty" jsonschema:"description:Whether to refine the prompt with a language model before generation.,default:false"`
	ResponseFormat string `json:"response_format,omitempty" jsonschema:"description:Response format: 'image' for binary image content, 'markdown' for a markdown string, 'adaptive_card' for Adaptive Card JSON.,default:image"`
}

// generateImageOutput は generate_image ツールの構造化出力です。
type generateImageOutput struct {
	Images         []string `json:"images,omitempty" jsonschema:"description:Public URLs of the generated images"`
	EnhancedPrompt string   `json:"enhanced_prompt,omitempty" jsonschema:"description:Final prompt after enhancement, when requested"`
}

// editImageInput は edit_image ツールの入力です。
type editImageInput struct {
	Prompt         string   `json:"prompt" jsonschema:"description:Text prompt describing how to edit the images."`
	NegativePrompt string   `json:"negative_prompt,omitempty" jsonschema:"description:Description of what should NOT appear in the edited image."`
	ImagePaths     []string `json:"image_paths" jsonschema:"description:Source images as URLs, local file paths or base64 data URLs (1-16 items)."`
	MaskPath       string   `json:"mask_path,omitempty" jsonschema:"description:Optional mask image; transparent areas indicate where the image should be edited."`
	Model          string   `json:"model,omitempty" jsonschema:"description:Generator model to use. Defaults to the first configured generator."`
	Size           string   `json:"size,omitempty" jsonschema:"description:Image size: '1024x1024', '1536x1024', '1024x1536' or 'auto'.,default:1024x1024"`
	Quality        string   `json:"quality,omitempty" jsonschema:"description:Image quality: 'low', 'medium', 'high' or 'auto'.,default:auto"`
	OutputFormat   string   `json:"output_format,omitempty" jsonschema:"description:Output image format: 'png', 'jpeg' or 'webp'.,default:jpeg"`
	Background     string   `json:"background,omitempty" jsonschema:"description:Background style: 'transparent', 'opaque' or 'auto'.,default:auto"`
	N              int      `json:"n,omitempty" jsonschema:"description:Number of edited variants to generate (1-10).,default:1"`
	InputFidelity  string   `json:"input_fidelity,omitempty" jsonschema:"description:How closely to preserve the source images: 'high' or 'low'.,default:low"`
	ResponseFormat string   `json:"response_format,omitempty" jsonschema:"description:Response format: 'image', 'markdown' or 'adaptive_card'.,default:image"`
}

// editImageOutput は edit_image ツールの構造化出力です。
type editImageOutput struct {
	Images []string `json:"images,omitempty" jsonschema:"description:Public URLs of the edited images"`
}

func (s *Server) handleGenerateImage(ctx context.Context, req *mcp.CallToolRequest, input generateImageInput) (*mcp.CallToolResult, generateImageOutput, error) {
	genReq := domain.GenerateRequest{
		Prompt:         input.Prompt,
		NegativePrompt: input.NegativePrompt,
		Size:           input.Size,
		Quality:        input.Quality,
		OutputFormat:   input.OutputFormat,
		Background:     input.Background,
		ResponseFormat: input.ResponseFormat,
		N:              input.N,
		Seed:           input.Seed,
		EnhancePrompt:  input.EnhancePrompt,
	}
	if err := genReq.Validate(); err != nil {
		return nil, generateImageOutput{}, err
	}

	gen, ok := s.registry.Get(input.Model)
	if !ok {
		return nil, generateImageOutput{}, domain.NewError(domain.KindService, "image generator not initialized")
	}

	slog.InfoContext(ctx, "MCP: 画像生成ツールを実行します",
		"model", gen.ModelName(), "format", genReq.ResponseFormat, "n", genReq.N)

	result := gen.Generate(ctx, genReq)
	if !result.OK() {
		return nil, generateImageOutput{}, resultError(result)
	}

	content, err := s.buildContent(ctx, result.Images[0], genReq.ResponseFormat, genReq.Prompt, genReq.OutputFormat)
	if err != nil {
		return nil, generateImageOutput{}, err
	}

	return &mcp.CallToolResult{Content: content}, generateImageOutput{
		Images:         result.Images,
		EnhancedPrompt: result.EnhancedPrompt,
	}, nil
}

func (s *Server) handleEditImage(ctx context.Context, req *mcp.CallToolRequest, input editImageInput) (*mcp.CallToolResult, editImageOutput, error) {
	editReq := domain.EditRequest{
		Prompt:         input.Prompt,
		NegativePrompt: input.NegativePrompt,
		Size:           input.Size,
		Quality:        input.Quality,
		OutputFormat:   input.OutputFormat,
		Background:     input.Background,
		ResponseFormat: input.ResponseFormat,
		N:              input.N,
		ImagePaths:     input.ImagePaths,
		MaskPath:       input.MaskPath,
		InputFidelity:  input.InputFidelity,
	}
	if err := editReq.Validate(); err != nil {
		return nil, editImageOutput{}, err
	}

	gen, ok := s.registry.Get(input.Model)
	if !ok {
		return nil, editImageOutput{}, domain.NewError(domain.KindService, "image generator not initialized")
	}

	slog.InfoContext(ctx, "MCP: 画像編集ツールを実行します",
		"model", gen.ModelName(), "format", editReq.ResponseFormat, "sources", len(editReq.ImagePaths))

	result := gen.Edit(ctx, editReq)
	if !result.OK() {
		return nil, editImageOutput{}, resultError(result)
	}

	content, err := s.buildContent(ctx, result.Images[0], editReq.ResponseFormat, editReq.Prompt, editReq.OutputFormat)
	if err != nil {
		return nil, editImageOutput{}, err
	}

	return &mcp.CallToolResult{Content: content}, editImageOutput{Images: result.Images}, nil
}

// buildContent は response_format に応じた MCP コンテンツを組み立てます。
func (s *Server) buildContent(ctx context.Context, imageURL, format, prompt, outputFormat string) ([]mcp.Content, error) {
	resp, err := s.formatter.Build(ctx, imageURL, format, prompt, outputFormat)
	if err != nil {
		return nil, err
	}

	switch resp.Kind {
	case respond.FormatImage:
		return []mcp.Content{&mcp.ImageContent{
			Data:     resp.ImageData,
			MIMEType: resp.MIMEType,
		}}, nil
	case respond.FormatMarkdown:
		return []mcp.Content{&mcp.TextContent{Text: resp.Markdown}}, nil
	default:
		return []mcp.Content{&mcp.TextContent{Text: resp.CardJSON}}, nil
	}
}

// resultError は失敗結果をツールエラーに変換します。
func resultError(result domain.Result) error {
	if result.Err != nil {
		return result.Err
	}
	return domain.NewError(domain.KindProcessing, "no images were generated")
}
