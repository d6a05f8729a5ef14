package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/shouni/imagegen-kit/pkg/domain"
)

// stubGenerator は Generator インターフェースのテスト用モックなのだ。
type stubGenerator struct {
	id           string
	generateFunc func(ctx context.Context, req domain.GenerateRequest) domain.Result
	editFunc     func(ctx context.Context, req domain.EditRequest) domain.Result
}

func (s *stubGenerator) ID() string        { return s.id }
func (s *stubGenerator) Label() string     { return "stub" }
func (s *stubGenerator) ModelName() string { return s.id }

func (s *stubGenerator) Generate(ctx context.Context, req domain.GenerateRequest) domain.Result {
	if s.generateFunc != nil {
		return s.generateFunc(ctx, req)
	}
	return domain.Succeeded([]string{"http://localhost:8000/_upload/generated-abc.png"}, "")
}

func (s *stubGenerator) Edit(ctx context.Context, req domain.EditRequest) domain.Result {
	if s.editFunc != nil {
		return s.editFunc(ctx, req)
	}
	return domain.Succeeded([]string{"http://localhost:8000/_upload/edited-abc.png"}, "")
}

// stubResolver は自サービス URL をテスト用の固定パスに解決するのだ。
type stubResolver struct {
	path string
	ok   bool
}

func (s *stubResolver) Resolve(rawURL string) (string, bool) {
	return s.path, s.ok
}

// mockHTTPClient は httpkit.ClientInterface のテスト用モックなのだ。
type mockHTTPClient struct {
	fetchFunc func(ctx context.Context, url string) ([]byte, error)
}

func (m *mockHTTPClient) FetchBytes(ctx context.Context, url string) ([]byte, error) {
	if m.fetchFunc != nil {
		return m.fetchFunc(ctx, url)
	}
	return []byte("image-bytes"), nil
}

// 以下は httpkit.ClientInterface を満たすための未使用スタブなのだ。
func (m *mockHTTPClient) Do(req *http.Request) (*http.Response, error) {
	return nil, errors.New("not implemented")
}

func (m *mockHTTPClient) DoRequest(req *http.Request) ([]byte, error) {
	return nil, errors.New("not implemented")
}

func (m *mockHTTPClient) FetchAndDecodeJSON(ctx context.Context, url string, v any) error {
	return errors.New("not implemented")
}

func (m *mockHTTPClient) PostJSONAndFetchBytes(ctx context.Context, url string, data any) ([]byte, error) {
	return nil, errors.New("not implemented")
}

func (m *mockHTTPClient) PostRawBodyAndFetchBytes(ctx context.Context, url string, body []byte, contentType string) ([]byte, error) {
	return nil, errors.New("not implemented")
}

func (m *mockHTTPClient) IsSafeURL(urlStr string) (bool, error) {
	return true, nil
}

func (m *mockHTTPClient) IsSecureServiceURL(serviceURL string) bool {
	return true
}
