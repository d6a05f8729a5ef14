package prompt

import (
	"context"
	"time"
)

// mockCompleter は TextCompleter のテスト用モックなのだ。
type mockCompleter struct {
	completeFunc func(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

func (m *mockCompleter) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if m.completeFunc != nil {
		return m.completeFunc(ctx, systemPrompt, userPrompt)
	}
	return "", nil
}

// mockCache は Cacher のテスト用モックなのだ。
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
