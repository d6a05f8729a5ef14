// Package loader は画像ソース指定（data URL・HTTP(S) URL・ローカルパス）を
// バイト列に解決します。判定は先頭一致で行い、最初に一致した方式だけを試します。
package loader

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/shouni/go-http-kit/pkg/httpkit"

	"github.com/shouni/imagegen-kit/pkg/domain"
)

const dataURLPrefix = "data:image"

// ImageCacher は画像データのキャッシュ操作を抽象化するインターフェースです。
type ImageCacher interface {
	Get(key string) (interface{}, bool)
	Set(key string, value interface{}, d time.Duration)
}

// Loader は画像ソースの解決を担うコンポーネントです。
type Loader struct {
	httpClient httpkit.ClientInterface
	cache      ImageCacher
	cacheTTL   time.Duration
}

// New は依存関係を注入して Loader を初期化します。
func New(httpClient httpkit.ClientInterface, cache ImageCacher, cacheTTL time.Duration) (*Loader, error) {
	if httpClient == nil {
		return nil, fmt.Errorf("httpClient is required")
	}
	// cache は nil を許容（キャッシュなし動作）
	return &Loader{
		httpClient: httpClient,
		cache:      cache,
		cacheTTL:   cacheTTL,
	}, nil
}

// Load は単一の画像ソース指定をバイト列に解決します。
// フォールバックは行わず、選ばれた方式の失敗はそのまま失敗になります。
func (l *Loader) Load(ctx context.Context, source string) ([]byte, error) {
	switch {
	case strings.HasPrefix(source, dataURLPrefix):
		return decodeDataURL(source)
	case strings.HasPrefix(source, "http://"), strings.HasPrefix(source, "https://"):
		return l.fetchRemote(ctx, source)
	default:
		data, err := os.ReadFile(source)
		if err != nil {
			return nil, domain.WrapError(domain.KindStorage,
				fmt.Sprintf("ローカル画像の読み込みに失敗しました: %s", source), err)
		}
		return data, nil
	}
}

// LoadAll は複数ソースを順に解決します。1 件でも失敗すると全体が失敗します。
func (l *Loader) LoadAll(ctx context.Context, sources []string) ([][]byte, error) {
	results := make([][]byte, 0, len(sources))
	for i, src := range sources {
		data, err := l.Load(ctx, src)
		if err != nil {
			return nil, fmt.Errorf("image_paths[%d]: %w", i, err)
		}
		results = append(results, data)
	}
	return results, nil
}

// decodeDataURL は data URL の最初のカンマ以降を base64 としてデコードします。
func decodeDataURL(source string) ([]byte, error) {
	_, payload, found := strings.Cut(source, ",")
	if !found {
		return nil, domain.NewError(domain.KindProcessing, "data URL にカンマ区切りの本体がありません")
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, domain.WrapError(domain.KindProcessing, "data URL の base64 デコードに失敗しました", err)
	}
	return data, nil
}

func (l *Loader) fetchRemote(ctx context.Context, rawURL string) ([]byte, error) {
	// キャッシュの確認
	if l.cache != nil {
		if cached, found := l.cache.Get(rawURL); found {
			if data, ok := cached.([]byte); ok {
				return data, nil
			}
			slog.WarnContext(ctx, "キャッシュデータが不正な型です", "url", rawURL, "type", fmt.Sprintf("%T", cached))
		}
	}

	// SSRF対策のバリデーション
	if safe, err := isSafeURL(rawURL); !safe || err != nil {
		return nil, domain.WrapError(domain.KindUpstream,
			fmt.Sprintf("安全でない URL をブロックしました: %s", rawURL), err)
	}

	data, err := l.httpClient.FetchBytes(ctx, rawURL)
	if err != nil {
		return nil, domain.WrapError(domain.KindUpstream,
			fmt.Sprintf("画像のダウンロードに失敗しました: %s", rawURL), err)
	}

	if l.cache != nil {
		l.cache.Set(rawURL, data, l.cacheTTL)
	}
	return data, nil
}

// isSafeURL は SSRF 対策として URL を検証します。
// 名前解決されたすべての IP アドレスに対してプライベート IP チェックを行います。
func isSafeURL(rawURL string) (bool, error) {
	parsedURL, err := url.ParseRequestURI(rawURL)
	if err != nil {
		return false, fmt.Errorf("URLパース失敗: %w", err)
	}

	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return false, fmt.Errorf("不許可スキーム: %s", parsedURL.Scheme)
	}

	host := parsedURL.Hostname()
	var ips []net.IP

	if ip := net.ParseIP(host); ip != nil {
		ips = []net.IP{ip}
	} else {
		resolvedIPs, err := net.LookupIP(host)
		if err != nil {
			return false, fmt.Errorf("名前解決失敗: %w", err)
		}
		ips = resolvedIPs
	}

	if len(ips) == 0 {
		return false, fmt.Errorf("IPが見つかりません")
	}

	// すべての解決された IP を検証する
	for _, ip := range ips {
		if ip.IsPrivate() || ip.IsLoopback() || ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() {
			return false, fmt.Errorf("制限されたネットワークへのアクセスを検知: %s", ip.String())
		}
	}

	return true, nil
}
