package loader

import (
	"context"
	"errors"
	"net/http"
	"time"
)

// mockHTTPClient は httpkit.ClientInterface のテスト用モックなのだ。
type mockHTTPClient struct {
	fetchFunc func(ctx context.Context, url string) ([]byte, error)
	calls     int
}

func (m *mockHTTPClient) FetchBytes(ctx context.Context, url string) ([]byte, error) {
	m.calls++
	if m.fetchFunc != nil {
		return m.fetchFunc(ctx, url)
	}
	return nil, nil
}

// mockCache は ImageCacher のテスト用モックなのだ。
type mockCache struct {
	store map[string]interface{}
}

func newMockCache() *mockCache {
	return &mockCache{store: map[string]interface{}{}}
}

func (m *mockCache) Get(key string) (interface{}, bool) {
	v, ok := m.store[key]
	return v, ok
}

func (m *mockCache) Set(key string, value interface{}, d time.Duration) {
	m.store[key] = value
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
