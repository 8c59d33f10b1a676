package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/BaSui01/challenger/agent/reasoning"
	"github.com/BaSui01/challenger/config"
	"github.com/BaSui01/challenger/internal/ctxkeys"
	"github.com/BaSui01/challenger/internal/tlsutil"
	"github.com/BaSui01/challenger/types"
)

const providerName = "gemini"

// generator 是 genai.Models 中 Backend 用到的部分
type generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Backend 基于 Google Gen AI SDK 的推理后端
type Backend struct {
	models generator
	cfg    config.GeminiConfig
	logger *zap.Logger
}

var _ reasoning.Backend = (*Backend)(nil)

// New 创建 Gemini 后端
func New(ctx context.Context, cfg config.GeminiConfig, logger *zap.Logger) (*Backend, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, types.NewError(types.ErrConfiguration, "gemini api key is empty").WithProvider(providerName)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: tlsutil.SecureHTTPClient(0),
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return newBackend(client.Models, cfg, logger), nil
}

func newBackend(models generator, cfg config.GeminiConfig, logger *zap.Logger) *Backend {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Backend{
		models: models,
		cfg:    cfg,
		logger: logger.With(zap.String("component", "gemini")),
	}
}

// Infer 实现 reasoning.Backend
func (b *Backend) Infer(ctx context.Context, req *reasoning.InferRequest) (string, error) {
	if b.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.cfg.Timeout)
		defer cancel()
	}

	contents, gc := b.buildRequest(req)
	resp, err := b.models.GenerateContent(ctx, req.Model, contents, gc)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		mapped := mapError(err)
		b.logger.Debug("generate content failed", append(ctxkeys.Fields(ctx),
			zap.String("model", req.Model),
			zap.String("category", string(req.Category)),
			zap.Error(mapped))...)
		return "", mapped
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", types.NewError(types.ErrMalformedOutput, "empty response").
			WithRetryable(true).
			WithProvider(providerName)
	}
	return text, nil
}

// buildRequest 示例图片在前，其次是挑战图片，文字提示在最后
func (b *Backend) buildRequest(req *reasoning.InferRequest) ([]*genai.Content, *genai.GenerateContentConfig) {
	parts := make([]*genai.Part, 0, len(req.Examples)+len(req.Images)+2)
	if len(req.Examples) > 0 {
		parts = append(parts, &genai.Part{Text: "\n**Examples:**\n"})
		for _, img := range req.Examples {
			parts = append(parts, imagePart(img))
		}
	}
	for _, img := range req.Images {
		parts = append(parts, imagePart(img))
	}
	parts = append(parts, &genai.Part{Text: req.Prompt})

	gc := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr(float32(b.cfg.Temperature)),
		ResponseMIMEType: "application/json",
	}
	if req.SystemPrompt != "" {
		gc.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: req.SystemPrompt}}}
	}
	if req.StructuredOutput {
		gc.ResponseSchema = responseSchema(req.Category)
	}

	return []*genai.Content{{Role: "user", Parts: parts}}, gc
}

func imagePart(img reasoning.Image) *genai.Part {
	mime := img.MIMEType
	if mime == "" {
		mime = "image/png"
	}
	return &genai.Part{InlineData: &genai.Blob{MIMEType: mime, Data: img.Data}}
}

// mapError 把 SDK 错误映射为带重试标记的 types.Error
func mapError(err error) *types.Error {
	code, msg, ok := apiError(err)
	if !ok {
		// 网络层错误
		return types.NewError(types.ErrUpstreamError, "gemini request failed").
			WithCause(err).
			WithRetryable(true).
			WithProvider(providerName)
	}

	e := &types.Error{Message: msg, HTTPStatus: code, Provider: providerName, Cause: err}
	switch code {
	case http.StatusUnauthorized, http.StatusForbidden:
		e.Code = types.ErrUnauthorized
	case http.StatusTooManyRequests:
		e.Code, e.Retryable = types.ErrRateLimited, true
	case http.StatusBadRequest:
		lower := strings.ToLower(msg)
		if strings.Contains(lower, "quota") || strings.Contains(lower, "billing") {
			e.Code = types.ErrQuotaExceeded
		} else {
			e.Code = types.ErrInvalidRequest
		}
	case http.StatusServiceUnavailable, http.StatusBadGateway, http.StatusGatewayTimeout:
		e.Code, e.Retryable = types.ErrServiceUnavailable, true
	default:
		e.Code, e.Retryable = types.ErrUpstreamError, code >= 500
	}
	return e
}

func apiError(err error) (int, string, bool) {
	var v genai.APIError
	if errors.As(err, &v) {
		return v.Code, v.Message, true
	}
	var p *genai.APIError
	if errors.As(err, &p) && p != nil {
		return p.Code, p.Message, true
	}
	return 0, "", false
}
