// Package server は REST API のハンドラーとルーティングを提供します。
package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/shouni/imagegen-kit/pkg/domain"
	"github.com/shouni/imagegen-kit/pkg/generator"
	"github.com/shouni/imagegen-kit/pkg/respond"
)

// Handler は REST API のハンドラー群を保持するコンポーネントです。
type Handler struct {
	registry  *generator.Registry
	formatter *respond.Formatter
	uploadDir string
}

// New は依存関係を注入して Handler を初期化します。
func New(registry *generator.Registry, formatter *respond.Formatter, uploadDir string) (*Handler, error) {
	if registry == nil {
		return nil, fmt.Errorf("registry is required")
	}
	if formatter == nil {
		return nil, fmt.Errorf("formatter is required")
	}
	if uploadDir == "" {
		return nil, fmt.Errorf("uploadDir is required")
	}
	return &Handler{
		registry:  registry,
		formatter: formatter,
		uploadDir: uploadDir,
	}, nil
}

// Register はハンドラーを mux に登録します。
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/generate_image", h.GenerateImage)
	mux.HandleFunc("POST /api/v1/edit_image", h.EditImage)
	mux.Handle("GET /_upload/", http.StripPrefix("/_upload/", http.FileServer(http.Dir(h.uploadDir))))
	mux.HandleFunc("GET /healthz", h.Healthz)
}

// generateBody は REST の生成リクエスト本体です。model でジェネレーターを選べます。
type generateBody struct {
	domain.GenerateRequest
	Model string `json:"model,omitempty"`
}

// editBody は REST の編集リクエスト本体です。
type editBody struct {
	domain.EditRequest
	Model string `json:"model,omitempty"`
}

// Healthz は死活確認エンドポイントです。
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// GenerateImage はテキストからの画像生成を処理します。
func (h *Handler) GenerateImage(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var body generateBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.writeError(w, domain.Invalid("リクエスト JSON の解析に失敗しました"), Metadata{}, start)
		return
	}

	meta := Metadata{
		Prompt:         body.Prompt,
		Size:           body.Size,
		Quality:        body.Quality,
		ResponseFormat: body.ResponseFormat,
		User:           body.User,
	}

	if err := body.GenerateRequest.Validate(); err != nil {
		h.writeError(w, domain.AsError(err), meta, start)
		return
	}

	gen, ok := h.registry.Get(body.Model)
	if !ok {
		slog.ErrorContext(r.Context(), "ジェネレーターが見つかりません", "model", body.Model)
		h.writeError(w, domain.NewError(domain.KindService, "image generator not initialized"), meta, start)
		return
	}

	slog.InfoContext(r.Context(), "画像生成リクエストを受け付けました",
		"model", gen.ModelName(), "format", body.ResponseFormat, "n", body.N)

	result := gen.Generate(r.Context(), body.GenerateRequest)
	h.writeResult(w, r.Context(), result, gen.ModelName(), body.GenerateRequest.Prompt,
		body.GenerateRequest, start)
}

// EditImage は既存画像の編集を処理します。
func (h *Handler) EditImage(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var body editBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.writeError(w, domain.Invalid("リクエスト JSON の解析に失敗しました"), Metadata{}, start)
		return
	}

	meta := Metadata{
		Prompt:         body.Prompt,
		Size:           body.Size,
		Quality:        body.Quality,
		ResponseFormat: body.ResponseFormat,
		User:           body.User,
	}

	if err := body.EditRequest.Validate(); err != nil {
		h.writeError(w, domain.AsError(err), meta, start)
		return
	}

	gen, ok := h.registry.Get(body.Model)
	if !ok {
		slog.ErrorContext(r.Context(), "ジェネレーターが見つかりません", "model", body.Model)
		h.writeError(w, domain.NewError(domain.KindService, "image generator not initialized"), meta, start)
		return
	}

	slog.InfoContext(r.Context(), "画像編集リクエストを受け付けました",
		"model", gen.ModelName(), "format", body.ResponseFormat, "sources", len(body.ImagePaths))

	result := gen.Edit(r.Context(), body.EditRequest)
	req := domain.GenerateRequest{
		Prompt:         body.Prompt,
		Size:           body.Size,
		Quality:        body.Quality,
		OutputFormat:   body.OutputFormat,
		ResponseFormat: body.ResponseFormat,
		User:           body.User,
	}
	h.writeResult(w, r.Context(), result, gen.ModelName(), body.EditRequest.Prompt, req, start)
}

// writeResult は domain.Result をエンベロープに変換して書き出します。
func (h *Handler) writeResult(w http.ResponseWriter, ctx context.Context, result domain.Result, model, prompt string, req domain.GenerateRequest, start time.Time) {
	meta := newMetadata(prompt, result.EnhancedPrompt, model, req.Size, req.Quality,
		req.ResponseFormat, req.User, time.Since(start))

	if !result.OK() {
		err := result.Err
		if err == nil {
			err = domain.NewError(domain.KindProcessing, "no images were generated")
		}
		h.write(w, httpStatusFor(err), errorEnvelope(err, meta))
		return
	}

	data, err := h.buildData(ctx, result, req)
	if err != nil {
		h.write(w, httpStatusFor(domain.AsError(err)), errorEnvelope(domain.AsError(err), meta))
		return
	}

	// 整形完了までを処理時間として計測する
	meta.ProcessingTimeMS = time.Since(start).Milliseconds()
	h.write(w, http.StatusOK, Envelope{Status: "success", Data: data, Metadata: meta})
}

// buildData は response_format に応じてレスポンス本体を組み立てます。
// image 形式は全画像を base64 で返し、markdown / adaptive_card は先頭の画像を使います。
func (h *Handler) buildData(ctx context.Context, result domain.Result, req domain.GenerateRequest) (*Data, error) {
	switch req.ResponseFormat {
	case respond.FormatImage:
		images := make([]string, 0, len(result.Images))
		for _, url := range result.Images {
			resp, err := h.formatter.Build(ctx, url, respond.FormatImage, req.Prompt, req.OutputFormat)
			if err != nil {
				return nil, err
			}
			images = append(images, base64.StdEncoding.EncodeToString(resp.ImageData))
		}
		return &Data{Images: images}, nil

	case respond.FormatMarkdown:
		resp, err := h.formatter.Build(ctx, result.Images[0], respond.FormatMarkdown, req.Prompt, req.OutputFormat)
		if err != nil {
			return nil, err
		}
		return &Data{Markdown: resp.Markdown}, nil

	case respond.FormatAdaptiveCard:
		resp, err := h.formatter.Build(ctx, result.Images[0], respond.FormatAdaptiveCard, req.Prompt, req.OutputFormat)
		if err != nil {
			return nil, err
		}
		return &Data{AdaptiveCard: json.RawMessage(resp.CardJSON)}, nil

	default:
		return nil, domain.Invalid(fmt.Sprintf("response_format が不正です: %q", req.ResponseFormat))
	}
}

func (h *Handler) writeError(w http.ResponseWriter, err *domain.Error, meta Metadata, start time.Time) {
	meta.Timestamp = time.Now().UTC().Format(time.RFC3339)
	meta.ProcessingTimeMS = time.Since(start).Milliseconds()
	h.write(w, httpStatusFor(err), errorEnvelope(err, meta))
}

func (h *Handler) write(w http.ResponseWriter, status int, env Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(env); err != nil {
		slog.Warn("レスポンスの書き込みに失敗しました", "error", err)
	}
}

// httpStatusFor はエラーコードを HTTP ステータスに対応づけます。
// 生成系の失敗はエンベロープで詳細を返すため 200 のままにします。
func httpStatusFor(err *domain.Error) int {
	switch err.Code() {
	case "INVALID_INPUT":
		return http.StatusBadRequest
	case "INTERNAL_ERROR", "SERVICE_ERROR":
		return http.StatusInternalServerError
	default:
		return http.StatusOK
	}
}
