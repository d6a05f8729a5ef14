package generator

import (
	"context"
	"fmt"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"google.golang.org/genai"

	"github.com/shouni/imagegen-kit/pkg/domain"
)

// stubGenerator はレジストリテスト用の最小実装なのだ。
type stubGenerator struct {
	id string
}

func (s *stubGenerator) ID() string        { return s.id }
func (s *stubGenerator) Label() string     { return "stub" }
func (s *stubGenerator) ModelName() string { return s.id }
func (s *stubGenerator) Generate(ctx context.Context, req domain.GenerateRequest) domain.Result {
	return domain.Succeeded([]string{"http://localhost/_upload/stub.png"}, "")
}
func (s *stubGenerator) Edit(ctx context.Context, req domain.EditRequest) domain.Result {
	return domain.Succeeded([]string{"http://localhost/_upload/stub.png"}, "")
}

// mockStore は ImageStore のテスト用モックなのだ。
type mockStore struct {
	saveFunc  func(data []byte, prefix, ext string) (string, error)
	pruneFunc func(prefix string) error

	saved       [][]byte
	prunedWith  []string
	saveCounter int
}

func (m *mockStore) Save(data []byte, prefix, ext string) (string, error) {
	m.saved = append(m.saved, data)
	m.saveCounter++
	if m.saveFunc != nil {
		return m.saveFunc(data, prefix, ext)
	}
	return fmt.Sprintf("http://localhost:8000/_upload/%s-%d.%s", prefix, m.saveCounter, ext), nil
}

func (m *mockStore) Prune(prefix string) error {
	m.prunedWith = append(m.prunedWith, prefix)
	if m.pruneFunc != nil {
		return m.pruneFunc(prefix)
	}
	return nil
}

// mockLoader は SourceLoader のテスト用モックなのだ。
type mockLoader struct {
	loadFunc func(ctx context.Context, source string) ([]byte, error)
	loaded   []string
}

func (m *mockLoader) Load(ctx context.Context, source string) ([]byte, error) {
	m.loaded = append(m.loaded, source)
	if m.loadFunc != nil {
		return m.loadFunc(ctx, source)
	}
	return []byte("source-bytes"), nil
}

// mockEnhancer は PromptEnhancer のテスト用モックなのだ。
type mockEnhancer struct {
	enhanceFunc func(ctx context.Context, prompt string) string
}

func (m *mockEnhancer) Enhance(ctx context.Context, prompt string) string {
	if m.enhanceFunc != nil {
		return m.enhanceFunc(ctx, prompt)
	}
	return prompt
}

// mockOpenAIImages は openAIImageAPI のテスト用モックなのだ。
type mockOpenAIImages struct {
	generateFunc func(ctx context.Context, body openai.ImageGenerateParams) (*openai.ImagesResponse, error)
	editFunc     func(ctx context.Context, body openai.ImageEditParams) (*openai.ImagesResponse, error)
}

func (m *mockOpenAIImages) Generate(ctx context.Context, body openai.ImageGenerateParams, opts ...option.RequestOption) (*openai.ImagesResponse, error) {
	if m.generateFunc != nil {
		return m.generateFunc(ctx, body)
	}
	return &openai.ImagesResponse{}, nil
}

func (m *mockOpenAIImages) Edit(ctx context.Context, body openai.ImageEditParams, opts ...option.RequestOption) (*openai.ImagesResponse, error) {
	if m.editFunc != nil {
		return m.editFunc(ctx, body)
	}
	return &openai.ImagesResponse{}, nil
}

// mockOpenAIChat は openAIChatAPI のテスト用モックなのだ。
type mockOpenAIChat struct {
	newFunc func(ctx context.Context, body openai.ChatCompletionNewParams) (*openai.ChatCompletion, error)
}

func (m *mockOpenAIChat) New(ctx context.Context, body openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, error) {
	if m.newFunc != nil {
		return m.newFunc(ctx, body)
	}
	return &openai.ChatCompletion{}, nil
}

// mockGoogleModels は googleImageAPI と googleTextAPI の両方を満たすモックなのだ。
type mockGoogleModels struct {
	generateImagesFunc  func(ctx context.Context, model, prompt string, config *genai.GenerateImagesConfig) (*genai.GenerateImagesResponse, error)
	generateContentFunc func(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

func (m *mockGoogleModels) GenerateImages(ctx context.Context, model string, prompt string, config *genai.GenerateImagesConfig) (*genai.GenerateImagesResponse, error) {
	if m.generateImagesFunc != nil {
		return m.generateImagesFunc(ctx, model, prompt, config)
	}
	return &genai.GenerateImagesResponse{}, nil
}

func (m *mockGoogleModels) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	if m.generateContentFunc != nil {
		return m.generateContentFunc(ctx, model, contents, config)
	}
	return &genai.GenerateContentResponse{}, nil
}
