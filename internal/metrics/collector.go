package metrics

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/BaSui01/challenger/types"
)

// =============================================================================
// 📊 指标收集器
// =============================================================================

// Collector 指标收集器，实现 agent.Observer
type Collector struct {
	// 会话指标
	sessionsTotal    *prometheus.CounterVec
	sessionDuration  *prometheus.HistogramVec
	sessionRounds    *prometheus.HistogramVec
	stateTransitions *prometheus.CounterVec

	// 回合指标
	roundsTotal   *prometheus.CounterVec
	roundDuration *prometheus.HistogramVec

	// 推理指标
	inferenceTotal    *prometheus.CounterVec
	inferenceDuration *prometheus.HistogramVec
	inferenceAttempts *prometheus.HistogramVec

	// 缓存指标
	cacheHits   *prometheus.CounterVec
	cacheMisses *prometheus.CounterVec

	// 交互指标
	actionsTotal   *prometheus.CounterVec
	actionDuration *prometheus.HistogramVec

	logger *zap.Logger
}

// NewCollector 创建指标收集器，指标注册到默认 Registry
func NewCollector(namespace string, logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Collector{
		logger: logger.With(zap.String("component", "metrics")),
	}

	// 会话指标
	c.sessionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_total",
			Help:      "Total number of finished sessions",
		},
		[]string{"state"},
	)

	c.sessionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "session_duration_seconds",
			Help:      "Session duration from trigger to terminal state",
			Buckets:   []float64{1, 2, 5, 10, 20, 30, 60, 120, 300},
		},
		[]string{"state"},
	)

	c.sessionRounds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "session_rounds",
			Help:      "Number of rounds played per session",
			Buckets:   prometheus.LinearBuckets(0, 1, 9),
		},
		[]string{"state"},
	)

	c.stateTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "state_transitions_total",
			Help:      "Total number of session state transitions",
		},
		[]string{"from_state", "to_state"},
	)

	// 回合指标
	c.roundsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rounds_total",
			Help:      "Total number of challenge rounds by result",
		},
		[]string{"challenge_type", "result"},
	)

	c.roundDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "round_duration_seconds",
			Help:      "Challenge round duration in seconds",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60},
		},
		[]string{"challenge_type"},
	)

	// 推理指标
	c.inferenceTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "inference_requests_total",
			Help:      "Total number of reasoning requests",
		},
		[]string{"category", "model", "status"},
	)

	c.inferenceDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "inference_duration_seconds",
			Help:      "Reasoning duration including retries",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"category", "model"},
	)

	c.inferenceAttempts = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "inference_attempts",
			Help:      "Backend calls per reasoning request",
			Buckets:   prometheus.LinearBuckets(1, 1, 5),
		},
		[]string{"category"},
	)

	// 缓存指标
	c.cacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "answer_cache_hits_total",
			Help:      "Total number of answer cache hits",
		},
		[]string{"category"},
	)

	c.cacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "answer_cache_misses_total",
			Help:      "Total number of answer cache misses",
		},
		[]string{"category"},
	)

	// 交互指标
	c.actionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "actions_total",
			Help:      "Total number of pointer actions",
		},
		[]string{"action", "status"},
	)

	c.actionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "action_duration_seconds",
			Help:      "Pointer action duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
		[]string{"action"},
	)

	c.logger.Info("metrics collector initialized", zap.String("namespace", namespace))

	return c
}

// =============================================================================
// 🎭 会话与回合
// =============================================================================

// ObserveTransition 记录状态转换
func (c *Collector) ObserveTransition(from, to string) {
	c.stateTransitions.WithLabelValues(from, to).Inc()
}

// ObserveRound 记录回合结果
func (c *Collector) ObserveRound(challengeType string, result string, elapsed time.Duration) {
	c.roundsTotal.WithLabelValues(challengeType, result).Inc()
	c.roundDuration.WithLabelValues(challengeType).Observe(elapsed.Seconds())
}

// ObserveSession 记录会话终态
func (c *Collector) ObserveSession(state string, rounds int, elapsed time.Duration) {
	c.sessionsTotal.WithLabelValues(state).Inc()
	c.sessionDuration.WithLabelValues(state).Observe(elapsed.Seconds())
	c.sessionRounds.WithLabelValues(state).Observe(float64(rounds))
}

// =============================================================================
// 🤖 推理
// =============================================================================

// ObserveInference 记录一次推理
func (c *Collector) ObserveInference(category types.TaskCategory, model string, attempts int, elapsed time.Duration, err error) {
	c.inferenceTotal.WithLabelValues(string(category), model, status(err)).Inc()
	c.inferenceDuration.WithLabelValues(string(category), model).Observe(elapsed.Seconds())
	c.inferenceAttempts.WithLabelValues(string(category)).Observe(float64(attempts))
}

// ObserveCache 记录答案缓存命中
func (c *Collector) ObserveCache(category types.TaskCategory, hit bool) {
	if hit {
		c.cacheHits.WithLabelValues(string(category)).Inc()
		return
	}
	c.cacheMisses.WithLabelValues(string(category)).Inc()
}

// =============================================================================
// 🦾 交互
// =============================================================================

// ObserveAction 记录一次指针动作
func (c *Collector) ObserveAction(action string, elapsed time.Duration, err error) {
	c.actionsTotal.WithLabelValues(action, status(err)).Inc()
	c.actionDuration.WithLabelValues(action).Observe(elapsed.Seconds())
}

// =============================================================================
// 🔧 辅助函数
// =============================================================================

// status 将错误归类为标签值
func status(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	}
	if code := types.GetErrorCode(err); code != "" {
		return string(code)
	}
	return "error"
}
