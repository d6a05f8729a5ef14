// Package config は環境変数からのサービス設定の読み込みを提供します。
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// デフォルト値。環境変数が未設定の場合に使われます。
const (
	DefaultPort            = 8000
	DefaultTmpPath         = "./images"
	DefaultMaxImagesToKeep = 10
	DefaultOpenAIModel        = "gpt-image-1"
	DefaultEnhanceModel       = "gpt-4.1-mini"
	DefaultGoogleModel        = "imagen-4.0-generate-001"
	DefaultGoogleEnhanceModel = "gemini-2.5-flash"
)

// Config はサービス全体の設定です。起動時に一度構築し、以後は変更しません。
type Config struct {
	// OpenAI 互換プロバイダー
	OpenAIAPIKey       string
	OpenAIBaseURL      string
	OpenAIImageModel   string
	OpenAIEnhanceModel string

	// Google プロバイダー
	GoogleAPIKey       string
	GoogleImageModel   string
	GoogleEnhanceModel string

	// 公開ベース URL（保存画像の URL 構築に必須）
	BackendServer string

	// 一時保存
	TmpPath         string
	MaxImagesToKeep int

	// サーバー
	Port         int
	MCPTransport string
}

// Load は .env（存在する場合）と環境変数から Config を構築します。
func Load() (*Config, error) {
	// .env はあれば読む。無くてもエラーにしない。
	if err := godotenv.Load(); err == nil {
		slog.Info(".env を読み込みました")
	}

	cfg := &Config{
		OpenAIAPIKey:       os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL:      os.Getenv("OPENAI_BASE_URL"),
		OpenAIImageModel:   getenvDefault("OPENAI_IMAGE_MODEL", DefaultOpenAIModel),
		OpenAIEnhanceModel: getenvDefault("OPENAI_ENHANCE_MODEL", DefaultEnhanceModel),
		GoogleAPIKey:       os.Getenv("GOOGLE_API_KEY"),
		GoogleImageModel:   getenvDefault("GOOGLE_IMAGE_MODEL", DefaultGoogleModel),
		GoogleEnhanceModel: getenvDefault("GOOGLE_ENHANCE_MODEL", DefaultGoogleEnhanceModel),
		BackendServer:      os.Getenv("BACKEND_SERVER"),
		TmpPath:            getenvDefault("TMP_PATH", DefaultTmpPath),
		MCPTransport:       getenvDefault("MCP_TRANSPORT", "http"),
	}

	var err error
	cfg.MaxImagesToKeep, err = getenvInt("MAX_IMAGES_TO_KEEP", DefaultMaxImagesToKeep)
	if err != nil {
		return nil, err
	}
	cfg.Port, err = getenvInt("PORT", DefaultPort)
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate は設定の整合性を検証します。
func (c *Config) Validate() error {
	if c.OpenAIAPIKey == "" && c.GoogleAPIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY か GOOGLE_API_KEY のどちらかが必要です")
	}
	if c.BackendServer == "" {
		return fmt.Errorf("BACKEND_SERVER（公開ベース URL）が必要です")
	}
	if c.MaxImagesToKeep < 1 {
		return fmt.Errorf("MAX_IMAGES_TO_KEEP は 1 以上である必要があります: %d", c.MaxImagesToKeep)
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("PORT が不正です: %d", c.Port)
	}
	if c.MCPTransport != "http" && c.MCPTransport != "stdio" {
		return fmt.Errorf("MCP_TRANSPORT は http か stdio を指定してください: %q", c.MCPTransport)
	}
	return nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s の解析に失敗しました: %w", key, err)
	}
	return n, nil
}
