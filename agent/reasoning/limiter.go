package reasoning

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// modelLimiter 每个模型一个令牌桶
type modelLimiter struct {
	rps      rate.Limit
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

func newModelLimiter(rps float64) *modelLimiter {
	if rps <= 0 {
		return nil
	}
	return &modelLimiter{
		rps:      rate.Limit(rps),
		limiters: make(map[string]*rate.Limiter),
	}
}

// Wait 阻塞直到 model 有可用令牌；nil 接收者不限流
func (m *modelLimiter) Wait(ctx context.Context, model string) error {
	if m == nil {
		return nil
	}
	m.mu.Lock()
	l, ok := m.limiters[model]
	if !ok {
		l = rate.NewLimiter(m.rps, 1)
		m.limiters[model] = l
	}
	m.mu.Unlock()
	return l.Wait(ctx)
}
