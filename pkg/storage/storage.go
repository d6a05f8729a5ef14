// Package storage は生成画像の一時保存と公開 URL の構築を提供します。
// 保存先は保持件数で刈り込まれる使い捨てディレクトリであり、永続ストアではありません。
package storage

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/shouni/imagegen-kit/pkg/domain"
)

// uploadPathPrefix は公開 URL 上の画像配信パスです。
const uploadPathPrefix = "/_upload/"

// Store は一時ディレクトリへの保存・刈り込み・URL 構築を担うコンポーネントです。
type Store struct {
	dir     string
	baseURL string
	keep    int
}

// New は依存関係を検証して Store を初期化します。
// baseURL が空の場合、保存した画像へ到達できる URL を作れないためエラーになります。
func New(dir, baseURL string, keep int) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("dir is required")
	}
	if baseURL == "" {
		return nil, domain.NewError(domain.KindConfig, "BACKEND_SERVER（公開ベース URL）が設定されていません")
	}
	if keep < 1 {
		return nil, fmt.Errorf("keep must be at least 1, got %d", keep)
	}
	return &Store{
		dir:     dir,
		baseURL: strings.TrimRight(baseURL, "/"),
		keep:    keep,
	}, nil
}

// Save は画像バイト列をディスクに書き込み、公開 URL を返します。
// ファイル名は {prefix}-{ランダム ID}.{ext} で衝突しません。
func (s *Store) Save(data []byte, prefix, ext string) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", domain.WrapError(domain.KindStorage, "一時ディレクトリの作成に失敗しました", err)
	}

	filename := fmt.Sprintf("%s-%s.%s", prefix, strings.ReplaceAll(uuid.New().String(), "-", ""), ext)
	path := filepath.Join(s.dir, filename)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", domain.WrapError(domain.KindStorage,
			fmt.Sprintf("画像の書き込みに失敗しました: %s", filename), err)
	}

	return s.baseURL + uploadPathPrefix + filename, nil
}

// Prune は prefix で始まるファイルを新しい順に keep 件だけ残して削除します。
// ディレクトリが存在しない場合は作成し、パスがディレクトリ以外の場合はエラーを返します。
func (s *Store) Prune(prefix string) error {
	info, err := os.Stat(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return os.MkdirAll(s.dir, 0o755)
		}
		return domain.WrapError(domain.KindStorage, "一時ディレクトリの確認に失敗しました", err)
	}
	if !info.IsDir() {
		return domain.NewError(domain.KindStorage,
			fmt.Sprintf("一時保存パスがディレクトリではありません: %s", s.dir))
	}

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return domain.WrapError(domain.KindStorage, "一時ディレクトリの走査に失敗しました", err)
	}

	type candidate struct {
		path    string
		modTime int64
	}
	var candidates []candidate
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), prefix+"-") {
			continue
		}
		fi, err := entry.Info()
		if err != nil {
			continue
		}
		candidates = append(candidates, candidate{
			path:    filepath.Join(s.dir, entry.Name()),
			modTime: fi.ModTime().UnixNano(),
		})
	}

	// 新しい順に並べ、keep 件目以降を削除する
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].modTime > candidates[j].modTime
	})
	for _, c := range candidates[min(s.keep, len(candidates)):] {
		if err := os.Remove(c.path); err != nil && !os.IsNotExist(err) {
			// 並行する刈り込みとの競合は削除済み扱いで無視する
			slog.Warn("古い画像の削除に失敗しました", "path", c.path, "error", err)
		}
	}
	return nil
}

// Resolve は自サービスの公開 URL をローカルファイルパスに逆引きします。
// 自サービス配下の URL でない場合は ok=false を返します。
func (s *Store) Resolve(rawURL string) (string, bool) {
	if !strings.HasPrefix(rawURL, s.baseURL+uploadPathPrefix) {
		return "", false
	}
	filename := strings.TrimPrefix(rawURL, s.baseURL+uploadPathPrefix)
	if filename == "" || strings.Contains(filename, "/") {
		return "", false
	}
	// URL エンコードされた名前も受け付ける
	if decoded, err := url.PathUnescape(filename); err == nil {
		filename = decoded
	}
	return filepath.Join(s.dir, filepath.Base(filename)), true
}

// Dir は保存先ディレクトリを返します。静的配信のマウントに使います。
func (s *Store) Dir() string { return s.dir }
