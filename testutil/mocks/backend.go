// Backend 的推理后端测试模拟实现。
//
// 支持固定输出、按序回复、延迟与错误注入。
package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/BaSui01/challenger/agent/reasoning"
)

// Reply 一次脚本化回复
type Reply struct {
	Output string
	Err    error
	// Delay 返回前等待；ctx 先结束时返回 ctx.Err()
	Delay time.Duration
}

// Backend 是 reasoning.Backend 的模拟实现
type Backend struct {
	mu      sync.Mutex
	replies []Reply
	calls   []reasoning.InferRequest
}

// NewBackend 创建返回空输出的 Backend
func NewBackend() *Backend {
	return &Backend{replies: []Reply{{}}}
}

// WithOutput 每次调用都返回 out
func (b *Backend) WithOutput(out string) *Backend {
	return b.WithReplies(Reply{Output: out})
}

// WithError 每次调用都返回 err
func (b *Backend) WithError(err error) *Backend {
	return b.WithReplies(Reply{Err: err})
}

// WithReplies 按序回复，最后一条重复使用
func (b *Backend) WithReplies(replies ...Reply) *Backend {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(replies) == 0 {
		replies = []Reply{{}}
	}
	b.replies = replies
	return b
}

// Infer 实现 reasoning.Backend
func (b *Backend) Infer(ctx context.Context, req *reasoning.InferRequest) (string, error) {
	b.mu.Lock()
	r := b.replies[min(len(b.calls), len(b.replies)-1)]
	b.calls = append(b.calls, *req)
	b.mu.Unlock()

	if r.Delay > 0 {
		timer := time.NewTimer(r.Delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-timer.C:
		}
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return r.Output, r.Err
}

// CallCount 返回调用次数
func (b *Backend) CallCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.calls)
}

// Calls 返回全部请求
func (b *Backend) Calls() []reasoning.InferRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]reasoning.InferRequest, len(b.calls))
	copy(out, b.calls)
	return out
}
