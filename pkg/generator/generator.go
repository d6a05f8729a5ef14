// Package generator は画像生成プロバイダーの共通契約と各実装を提供します。
// 生成・編集はエラーを返さず、必ず domain.Result に畳み込んで返します。
package generator

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shouni/imagegen-kit/pkg/domain"
)

// 保存ファイル名のプレフィックス。刈り込みはプレフィックス単位で行われます。
const (
	PrefixGenerated = "generated"
	PrefixEdited    = "edited"
)

// Generator は 1 つの画像生成バックエンドを表すインターフェースです。
type Generator interface {
	// ID はレジストリのキーになる識別子です（モデル ID を使います）。
	ID() string
	// Label は人間向けのプロバイダー名です。
	Label() string
	// ModelName は実際に呼び出されるモデル名です。
	ModelName() string

	Generate(ctx context.Context, req domain.GenerateRequest) domain.Result
	Edit(ctx context.Context, req domain.EditRequest) domain.Result
}

// ImageStore は生成画像の保存と刈り込みを抽象化するインターフェースです。
type ImageStore interface {
	Save(data []byte, prefix, ext string) (string, error)
	Prune(prefix string) error
}

// SourceLoader は編集ソース画像の解決を抽象化するインターフェースです。
type SourceLoader interface {
	Load(ctx context.Context, source string) ([]byte, error)
}

// PromptEnhancer はベストエフォートのプロンプト補正を抽象化するインターフェースです。
type PromptEnhancer interface {
	Enhance(ctx context.Context, prompt string) string
}

// run は生成処理を実行し、エラーとパニックの両方を失敗結果に畳み込みます。
// トランスポート層に error や panic が漏れることはありません。
func run(ctx context.Context, op string, fn func() ([]string, string, error)) (res domain.Result) {
	defer func() {
		if r := recover(); r != nil {
			slog.ErrorContext(ctx, "生成処理でパニックが発生しました", "op", op, "panic", r)
			res = domain.Failed(domain.NewError(domain.KindInternal,
				fmt.Sprintf("unexpected panic in %s: %v", op, r)))
		}
	}()

	images, enhanced, err := fn()
	if err != nil {
		slog.WarnContext(ctx, "生成処理が失敗しました", "op", op, "error", err)
		return domain.Failed(err)
	}
	return domain.Succeeded(images, enhanced)
}

// saveAll は画像バイト列を順に保存し、公開 URL のリストを返します。
// 保存前にプレフィックス単位の刈り込みを行います。
func saveAll(store ImageStore, images [][]byte, prefix, ext string) ([]string, error) {
	if err := store.Prune(prefix); err != nil {
		return nil, err
	}
	urls := make([]string, 0, len(images))
	for i, data := range images {
		url, err := store.Save(data, prefix, ext)
		if err != nil {
			return nil, fmt.Errorf("images[%d] の保存に失敗しました: %w", i, err)
		}
		urls = append(urls, url)
	}
	return urls, nil
}
