package agent

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/BaSui01/challenger/agent/arm"
	"github.com/BaSui01/challenger/agent/reasoning"
)

// Observer 接收会话级指标，同时覆盖推理与机械臂的观察点
type Observer interface {
	reasoning.Observer
	arm.Observer
	ObserveTransition(from, to string)
	ObserveRound(challengeType string, result string, elapsed time.Duration)
	ObserveSession(state string, rounds int, elapsed time.Duration)
}

// ResponseSink 接收每个成功会话的记录
type ResponseSink interface {
	Push(ctx context.Context, sessionID string, record []byte) error
}

// Option 配置 Agent
type Option func(*Agent)

// WithLogger 设置日志
func WithLogger(logger *zap.Logger) Option {
	return func(a *Agent) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithObserver 设置指标观察者
func WithObserver(o Observer) Option {
	return func(a *Agent) { a.observer = o }
}

// WithResponseSink 设置结果下游
func WithResponseSink(s ResponseSink) Option {
	return func(a *Agent) { a.sink = s }
}

// WithAnswerCache 为 Router 启用答案缓存
func WithAnswerCache(c reasoning.Cache) Option {
	return func(a *Agent) { a.cache = c }
}

// WithTracer 设置 tracer，默认取全局 TracerProvider
func WithTracer(t trace.Tracer) Option {
	return func(a *Agent) {
		if t != nil {
			a.tracer = t
		}
	}
}

// WithMotionSeed 固定机械臂的随机源
func WithMotionSeed(seed uint64) Option {
	return func(a *Agent) { a.seed = &seed }
}
