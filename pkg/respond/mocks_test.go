package respond

import (
	"context"
	"errors"
	"net/http"
)

// mockResolver は URLResolver のテスト用モックなのだ。
type mockResolver struct {
	path string
	ok   bool
}

func (m *mockResolver) Resolve(rawURL string) (string, bool) {
	return m.path, m.ok
}

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
