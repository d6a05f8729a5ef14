package domain

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	// MaxPromptLength はプロンプトの最大文字数です（gpt-image-1 の上限に準拠）。
	MaxPromptLength = 32000

	// MaxImageCount は 1 リクエストで生成できる画像の最大枚数です。
	MaxImageCount = 10

	// MaxEditSources は編集時に渡せるソース画像の最大数です。
	MaxEditSources = 16
)

// 各列挙フィールドの許容値。バリデーションは許容リスト方式で行います。
var (
	allowedSizes           = []string{"1024x1024", "1536x1024", "1024x1536", "auto"}
	allowedQualities       = []string{"low", "medium", "high", "auto"}
	allowedOutputFormats   = []string{"png", "jpeg", "webp"}
	allowedBackgrounds     = []string{"transparent", "opaque", "auto"}
	allowedResponseFormats = []string{"image", "markdown", "adaptive_card"}
	allowedModerations     = []string{"low", "auto"}
	allowedFidelities      = []string{"high", "low"}
)

// GenerateRequest は単一の画像生成要求です。
// 受信ごとに構築される不変値で、バリデーション後は変更しません。
type GenerateRequest struct {
	Prompt         string `json:"prompt"`
	NegativePrompt string `json:"negative_prompt,omitempty"`
	Size           string `json:"size,omitempty"`
	Quality        string `json:"quality,omitempty"`
	OutputFormat   string `json:"output_format,omitempty"`
	Background     string `json:"background,omitempty"`
	ResponseFormat string `json:"response_format,omitempty"`
	N              int    `json:"n,omitempty"`

	// Seed は再現性のためのシード値です。0 は未指定を意味します。
	Seed int64 `json:"seed,omitempty"`

	EnhancePrompt bool   `json:"enhance_prompt,omitempty"`
	Moderation    string `json:"moderation,omitempty"`

	// OutputCompression は jpeg/webp 向けの圧縮率（0-100）です。
	OutputCompression int `json:"output_compression,omitempty"`

	// User は監査用の利用者識別子です。生成内容には影響しません。
	User string `json:"user,omitempty"`
}

// EditRequest は既存画像の編集（インペインティング含む）要求です。
type EditRequest struct {
	Prompt         string `json:"prompt"`
	NegativePrompt string `json:"negative_prompt,omitempty"`
	Size           string `json:"size,omitempty"`
	Quality        string `json:"quality,omitempty"`
	OutputFormat   string `json:"output_format,omitempty"`
	Background     string `json:"background,omitempty"`
	ResponseFormat string `json:"response_format,omitempty"`
	N              int    `json:"n,omitempty"`

	// ImagePaths は URL・ローカルパス・base64 データ URL のいずれかを並べたソース画像リストです。
	ImagePaths []string `json:"image_paths"`

	// MaskPath は任意のマスク画像です。透明領域が編集対象になります。
	MaskPath string `json:"mask_path,omitempty"`

	InputFidelity     string `json:"input_fidelity,omitempty"`
	OutputCompression int    `json:"output_compression,omitempty"`
	User              string `json:"user,omitempty"`
}

// Validate はデフォルト値を補完し、フィールドの範囲を検証します。
// ここで弾かれたリクエストはプロバイダー呼び出しに到達しません。
func (r *GenerateRequest) Validate() error {
	if err := validateBase(&r.Prompt, &r.Size, &r.Quality, &r.OutputFormat, &r.Background, &r.ResponseFormat, &r.N); err != nil {
		return err
	}
	if r.Moderation == "" {
		r.Moderation = "auto"
	}
	if !contains(allowedModerations, r.Moderation) {
		return Invalid(fmt.Sprintf("moderation が不正です: %q", r.Moderation))
	}
	if r.Seed < 0 {
		return Invalid("seed は 0 以上である必要があります")
	}
	if err := validateCompression(&r.OutputCompression); err != nil {
		return err
	}
	return nil
}

// Validate はデフォルト値を補完し、フィールドの範囲を検証します。
func (r *EditRequest) Validate() error {
	if err := validateBase(&r.Prompt, &r.Size, &r.Quality, &r.OutputFormat, &r.Background, &r.ResponseFormat, &r.N); err != nil {
		return err
	}
	if len(r.ImagePaths) == 0 {
		return Invalid("image_paths は 1 件以上必要です")
	}
	if len(r.ImagePaths) > MaxEditSources {
		return Invalid(fmt.Sprintf("image_paths は最大 %d 件までです", MaxEditSources))
	}
	for i, p := range r.ImagePaths {
		if strings.TrimSpace(p) == "" {
			return Invalid(fmt.Sprintf("image_paths[%d] が空です", i))
		}
	}
	if r.InputFidelity == "" {
		r.InputFidelity = "low"
	}
	if !contains(allowedFidelities, r.InputFidelity) {
		return Invalid(fmt.Sprintf("input_fidelity が不正です: %q", r.InputFidelity))
	}
	if err := validateCompression(&r.OutputCompression); err != nil {
		return err
	}
	return nil
}

func validateBase(prompt, size, quality, outputFormat, background, responseFormat *string, n *int) error {
	*prompt = strings.TrimSpace(*prompt)
	if *prompt == "" {
		return Invalid("prompt は必須です")
	}
	if utf8.RuneCountInString(*prompt) > MaxPromptLength {
		return Invalid(fmt.Sprintf("prompt は最大 %d 文字までです", MaxPromptLength))
	}

	if *size == "" {
		*size = "1024x1024"
	}
	if !contains(allowedSizes, *size) {
		return Invalid(fmt.Sprintf("size が不正です: %q", *size))
	}

	if *quality == "" {
		*quality = "auto"
	}
	if !contains(allowedQualities, *quality) {
		return Invalid(fmt.Sprintf("quality が不正です: %q", *quality))
	}

	if *outputFormat == "" {
		*outputFormat = "jpeg"
	}
	if !contains(allowedOutputFormats, *outputFormat) {
		return Invalid(fmt.Sprintf("output_format が不正です: %q", *outputFormat))
	}

	if *background == "" {
		*background = "auto"
	}
	if !contains(allowedBackgrounds, *background) {
		return Invalid(fmt.Sprintf("background が不正です: %q", *background))
	}

	if *responseFormat == "" {
		*responseFormat = "image"
	}
	if !contains(allowedResponseFormats, *responseFormat) {
		return Invalid(fmt.Sprintf("response_format が不正です: %q", *responseFormat))
	}

	if *n == 0 {
		*n = 1
	}
	if *n < 1 || *n > MaxImageCount {
		return Invalid(fmt.Sprintf("n は 1〜%d の範囲で指定してください", MaxImageCount))
	}
	return nil
}

func validateCompression(c *int) error {
	if *c == 0 {
		*c = 100
	}
	if *c < 0 || *c > 100 {
		return Invalid("output_compression は 0〜100 の範囲で指定してください")
	}
	return nil
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
