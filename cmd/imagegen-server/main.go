// Command imagegen-server は画像生成サービスを REST API と MCP ツールの
// 両方で公開します。設定は環境変数（と .env）から読み込みます。
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/shouni/go-http-kit/pkg/httpkit"
	"google.golang.org/genai"

	"github.com/shouni/imagegen-kit/pkg/config"
	"github.com/shouni/imagegen-kit/pkg/generator"
	"github.com/shouni/imagegen-kit/pkg/loader"
	"github.com/shouni/imagegen-kit/pkg/mcpserver"
	"github.com/shouni/imagegen-kit/pkg/prompt"
	"github.com/shouni/imagegen-kit/pkg/respond"
	"github.com/shouni/imagegen-kit/pkg/server"
	"github.com/shouni/imagegen-kit/pkg/storage"
)

const (
	serverName    = "imagegen-kit"
	serverVersion = "1.0.0"

	cacheTTL        = 30 * time.Minute
	fetchTimeout    = 60 * time.Second
	shutdownTimeout = 10 * time.Second
)

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	if err := run(); err != nil {
		slog.Error("サーバーの起動に失敗しました", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	memCache := gocache.New(cacheTTL, time.Hour)
	httpClient := httpkit.New(fetchTimeout)

	store, err := storage.New(cfg.TmpPath, cfg.BackendServer, cfg.MaxImagesToKeep)
	if err != nil {
		return err
	}

	sourceLoader, err := loader.New(httpClient, memCache, cacheTTL)
	if err != nil {
		return err
	}

	gens, err := buildGenerators(ctx, cfg, store, sourceLoader, memCache)
	if err != nil {
		return err
	}
	registry := generator.NewRegistry(gens...)

	formatter, err := respond.New(store, httpClient)
	if err != nil {
		return err
	}

	handler, err := server.New(registry, formatter, store.Dir())
	if err != nil {
		return err
	}

	mcpSrv, err := mcpserver.New(registry, formatter, serverName, serverVersion)
	if err != nil {
		return err
	}

	mux := http.NewServeMux()
	handler.Register(mux)
	if cfg.MCPTransport == "http" {
		mux.Handle("/mcp", mcpSrv.HTTPHandler())
	}

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: mux,
	}

	errCh := make(chan error, 2)
	go func() {
		slog.Info("HTTP サーバーを起動します",
			"addr", httpServer.Addr,
			"mcp_transport", cfg.MCPTransport,
			"generators", registry.IDs())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	if cfg.MCPTransport == "stdio" {
		go func() {
			slog.Info("MCP サーバーを stdio で起動します")
			errCh <- mcpSrv.RunStdio(ctx)
		}()
	}

	select {
	case <-ctx.Done():
		slog.Info("シグナルを受信したためシャットダウンします")
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

// buildGenerators は API キーが設定されたプロバイダーのジェネレーターを構築します。
// 最初に登録されたものがデフォルトになります。
func buildGenerators(ctx context.Context, cfg *config.Config, store *storage.Store, sourceLoader *loader.Loader, memCache *gocache.Cache) ([]generator.Generator, error) {
	var gens []generator.Generator

	if cfg.OpenAIAPIKey != "" {
		client := generator.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL)

		completer := generator.NewOpenAICompleter(&client.Chat.Completions, cfg.OpenAIEnhanceModel)
		enhancer, err := prompt.NewEnhancer(completer, memCache, cacheTTL)
		if err != nil {
			return nil, err
		}

		g, err := generator.NewOpenAIGenerator(&client.Images, cfg.OpenAIImageModel, cfg.OpenAIEnhanceModel, store, sourceLoader, enhancer)
		if err != nil {
			return nil, err
		}
		gens = append(gens, g)
	}

	if cfg.GoogleAPIKey != "" {
		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  cfg.GoogleAPIKey,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			return nil, fmt.Errorf("genai クライアントの構築に失敗しました: %w", err)
		}

		completer := generator.NewGoogleCompleter(client.Models, cfg.GoogleEnhanceModel)
		enhancer, err := prompt.NewEnhancer(completer, memCache, cacheTTL)
		if err != nil {
			return nil, err
		}

		g, err := generator.NewGoogleGenerator(client.Models, cfg.GoogleImageModel, store, enhancer)
		if err != nil {
			return nil, err
		}
		gens = append(gens, g)
	}

	return gens, nil
}

// httpFetcher は net/http ベースの最小フェッチャーです。
// リモート画像の取得に使うバイト列取得インターフェースを満たします。
type httpFetcher struct {
	client *http.Client
}

func (f *httpFetcher) FetchBytes(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("リクエストの構築に失敗しました: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("リクエストの送信に失敗しました: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("予期しないステータスコードです: %d (%s)", resp.StatusCode, url)
	}
	return io.ReadAll(resp.Body)
}
