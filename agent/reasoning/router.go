package reasoning

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/challenger/agent/classifier"
	"github.com/BaSui01/challenger/config"
	"github.com/BaSui01/challenger/internal/ctxkeys"
	"github.com/BaSui01/challenger/llm/retry"
	"github.com/BaSui01/challenger/types"
)

// errAttemptTimeout 单次后端调用超过 BackendTimeout
var errAttemptTimeout = errors.New("backend call timed out")

// Observer 接收推理结果，用于指标
type Observer interface {
	ObserveInference(category types.TaskCategory, model string, attempts int, elapsed time.Duration, err error)
	ObserveCache(category types.TaskCategory, hit bool)
}

// Option 配置 Router
type Option func(*Router)

// WithCache 启用答案缓存
func WithCache(c Cache) Option {
	return func(r *Router) { r.cache = c }
}

// WithObserver 设置指标观察者
func WithObserver(o Observer) Option {
	return func(r *Router) { r.observer = o }
}

// WithLogger 设置日志
func WithLogger(logger *zap.Logger) Option {
	return func(r *Router) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// Router 把已分类的挑战交给对应模型，并把输出映射为 Solution
type Router struct {
	backend  Backend
	cfg      config.AgentConfig
	cache    Cache
	observer Observer
	limiter  *modelLimiter
	examples []Image
	logger   *zap.Logger
}

// NewRouter 创建 Router。cfg 应已通过 Validate。
func NewRouter(backend Backend, cfg config.AgentConfig, opts ...Option) *Router {
	r := &Router{
		backend: backend,
		cfg:     cfg.Clone(),
		limiter: newModelLimiter(cfg.ReasoningRPS),
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With(zap.String("component", "reasoning_router"))

	if r.cfg.EnableSCoT {
		examples, err := LoadExamples(r.cfg.SCoTDir)
		switch {
		case err != nil:
			r.logger.Warn("load scot examples failed", zap.String("dir", r.cfg.SCoTDir), zap.Error(err))
		case len(examples) == 0:
			r.logger.Warn("no scot examples found", zap.String("dir", r.cfg.SCoTDir))
		default:
			r.examples = examples
		}
	}
	return r
}

// Solve 求解一个挑战。
//
// 命中缓存时直接返回；新答案不会写入缓存，通过验证后由 Remember 写入。
// 瞬时失败（超时、畸形输出、可重试的上游错误）按 ReasoningRetries 重试；
// 耗尽后返回 *ReasoningFailure。ctx 被取消时不重试，返回的错误包装
// types.ErrTimeoutExceeded。
func (r *Router) Solve(ctx context.Context, d *classifier.Descriptor) (*Solution, error) {
	category := d.Category()
	model, ok := r.cfg.ModelFor(category)
	if !ok {
		return nil, &ReasoningFailure{Category: category, Err: fmt.Errorf("no model configured for %s", category)}
	}

	img, ok := d.PrimaryImage()
	if !ok {
		return nil, &ReasoningFailure{Category: category, Model: model, Err: fmt.Errorf("%w: empty payload", ErrMalformedOutput)}
	}

	var key string
	if r.cache != nil {
		key = CacheKey(model, d)
		sol, hit, err := r.cache.Get(ctx, key)
		if err != nil {
			r.logger.Warn("answer cache lookup failed", zap.Error(err))
		}
		hit = hit && sol.fits(category, len(d.Tiles))
		if r.observer != nil {
			r.observer.ObserveCache(category, hit)
		}
		if hit {
			r.logger.Debug("answer cache hit", zap.String("type", string(d.Type)))
			return sol, nil
		}
	}

	req := &InferRequest{
		Category:         category,
		Model:            model,
		SystemPrompt:     SystemPrompt(category),
		Prompt:           userPrompt(d, img.Width, img.Height),
		Images:           r.images(category, img),
		StructuredOutput: r.cfg.EnableResponseSchema,
	}
	if category == types.CategorySpatialPath {
		req.Examples = r.examples
	}

	attempts := 0
	policy := retry.FixedRetryPolicy(r.cfg.ReasoningRetries, r.cfg.ReasoningBackoff)
	policy.RetryIf = func(err error) bool {
		return ctx.Err() == nil && transient(err)
	}
	policy.OnRetry = func(attempt int, err error, delay time.Duration) {
		r.logger.Warn("retrying reasoning request", append(ctxkeys.Fields(ctx),
			zap.String("model", model),
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Error(err))...)
	}
	retryer := retry.NewBackoffRetryer(policy, r.logger)

	start := time.Now()
	sol, err := retry.DoWithResultTyped[*Solution](retryer, ctx, func() (*Solution, error) {
		attempts++
		return r.attempt(ctx, req, d, img)
	})
	elapsed := time.Since(start)
	if r.observer != nil {
		r.observer.ObserveInference(category, model, attempts, elapsed, err)
	}

	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("%w: reasoning %s: %w", types.ErrTimeoutExceeded, category, ctxErr)
		}
		r.logger.Warn("reasoning failed", append(ctxkeys.Fields(ctx),
			zap.String("model", model),
			zap.Int("attempts", attempts),
			zap.Error(err))...)
		return nil, &ReasoningFailure{Category: category, Model: model, Attempts: attempts, Err: err}
	}

	r.logger.Debug("challenge solved by model",
		zap.String("model", model),
		zap.Int("attempts", attempts),
		zap.Duration("elapsed", elapsed))
	return sol, nil
}

// Remember 缓存一个已通过验证的答案
func (r *Router) Remember(ctx context.Context, d *classifier.Descriptor, sol *Solution) {
	if r.cache == nil || sol == nil {
		return
	}
	model, ok := r.cfg.ModelFor(d.Category())
	if !ok {
		return
	}
	if err := r.cache.Set(ctx, CacheKey(model, d), sol); err != nil {
		r.logger.Warn("answer cache store failed", zap.Error(err))
	}
}

// attempt 一次限流 + 带超时的后端调用
func (r *Router) attempt(ctx context.Context, req *InferRequest, d *classifier.Descriptor, img classifier.Image) (*Solution, error) {
	if err := r.limiter.Wait(ctx, req.Model); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, types.NewError(types.ErrRateLimited, "rate limit wait").WithCause(err)
	}

	attemptCtx, cancel := context.WithTimeout(ctx, r.cfg.BackendTimeout)
	defer cancel()

	raw, err := r.backend.Infer(attemptCtx, req)
	if err != nil {
		if ctx.Err() == nil && errors.Is(attemptCtx.Err(), context.DeadlineExceeded) {
			return nil, retry.WrapRetryable(fmt.Errorf("%w after %s", errAttemptTimeout, r.cfg.BackendTimeout))
		}
		return nil, err
	}
	sol, err := ParseSolution(raw, d, img.Width, img.Height)
	if err != nil {
		return nil, retry.WrapRetryable(err)
	}
	return sol, nil
}

// images 原始截图；空间类任务开启网格时再附上叠加网格的版本
func (r *Router) images(category types.TaskCategory, img classifier.Image) []Image {
	raw := Image{Name: "challenge_screenshot", MIMEType: "image/png", Data: img.Data}
	if !r.cfg.EnableGridDivisions || category == types.CategoryImageClassification {
		return []Image{raw}
	}
	out, err := DrawGridDivisions(img.Data, 0)
	if err != nil {
		r.logger.Debug("grid overlay skipped", zap.Error(err))
		return []Image{raw}
	}
	return []Image{raw, {Name: "grid_divisions", MIMEType: "image/png", Data: out}}
}

// transient 判断错误是否值得重试
func transient(err error) bool {
	if retry.IsRetryableError(err) {
		return true
	}
	var te *types.Error
	if errors.As(err, &te) {
		return te.Retryable
	}
	return true
}
