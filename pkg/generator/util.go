package generator

import (
	"fmt"
	"strconv"
	"strings"
)

// parseSize は "1024x1536" 形式のサイズ指定を幅と高さに分解するのだ。
func parseSize(size string) (width, height int, err error) {
	w, h, found := strings.Cut(size, "x")
	if !found {
		return 0, 0, fmt.Errorf("サイズ指定の形式が不正です: %q", size)
	}
	width, err = strconv.Atoi(w)
	if err != nil {
		return 0, 0, fmt.Errorf("幅の解析に失敗しました: %w", err)
	}
	height, err = strconv.Atoi(h)
	if err != nil {
		return 0, 0, fmt.Errorf("高さの解析に失敗しました: %w", err)
	}
	return width, height, nil
}

// aspectRatio はピクセルサイズを Imagen 系 API のアスペクト比バケットに丸めるのだ。
// 正方形は "1:1"、横長は "4:3"、縦長は "3:4" の 3 区分で、厳密な比率は保持しない。
func aspectRatio(width, height int) string {
	switch {
	case width == height:
		return "1:1"
	case width > height:
		return "4:3"
	default:
		return "3:4"
	}
}

// seedToPtrInt32 は int64 のシードを SDK 用の *int32 に変換するのだ。
// 0 は未指定を意味するため nil を返す。
func seedToPtrInt32(seed int64) *int32 {
	if seed == 0 {
		return nil
	}
	v := int32(seed)
	return &v
}
