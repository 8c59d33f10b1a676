package browser

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/BaSui01/challenger/config"
)

// ErrPoolClosed 池已关闭
var ErrPoolClosed = errors.New("browser pool is closed")

// PooledWidget 可归还到 Pool 的控件句柄
type PooledWidget interface {
	Widget
	Close() error
}

// Factory 创建新的控件句柄
type Factory func(ctx context.Context) (PooledWidget, error)

// ChromeDPFactory 返回按 cfg 启动 chromedp 浏览器的 Factory
func ChromeDPFactory(cfg config.BrowserConfig, logger *zap.Logger, opts ...ChromeDPOption) Factory {
	return func(ctx context.Context) (PooledWidget, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return NewChromeDPWidget(cfg, logger, opts...)
	}
}

// PoolConfig 浏览器池配置
type PoolConfig struct {
	MaxSize int `yaml:"max_size" json:"max_size"`
	MinIdle int `yaml:"min_idle" json:"min_idle"`
}

// DefaultPoolConfig 默认池配置
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{MaxSize: 4, MinIdle: 0}
}

// Pool 控件句柄池，多会话并发时每个会话独占一个句柄
type Pool struct {
	factory   Factory
	pool      chan PooledWidget
	active    map[PooledWidget]bool
	creating  int
	maxSize   int
	logger    *zap.Logger
	mu        sync.Mutex
	closeOnce sync.Once
	closed    bool
}

// NewPool 创建池并预创建 MinIdle 个实例
func NewPool(ctx context.Context, cfg PoolConfig, factory Factory, logger *zap.Logger) (*Pool, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if factory == nil {
		return nil, errors.New("browser pool: nil factory")
	}
	if cfg.MaxSize <= 0 {
		cfg.MaxSize = DefaultPoolConfig().MaxSize
	}
	if cfg.MinIdle > cfg.MaxSize {
		cfg.MinIdle = cfg.MaxSize
	}

	p := &Pool{
		factory: factory,
		pool:    make(chan PooledWidget, cfg.MaxSize),
		active:  make(map[PooledWidget]bool),
		maxSize: cfg.MaxSize,
		logger:  logger.With(zap.String("component", "browser_pool")),
	}

	for i := 0; i < cfg.MinIdle; i++ {
		w, err := factory(ctx)
		if err != nil {
			p.Close()
			return nil, fmt.Errorf("failed to pre-create widget %d: %w", i, err)
		}
		p.pool <- w
	}

	p.logger.Info("browser pool created",
		zap.Int("max_size", cfg.MaxSize),
		zap.Int("min_idle", cfg.MinIdle))

	return p, nil
}

// Acquire 获取一个句柄，池满时阻塞直到有归还或 ctx 结束
func (p *Pool) Acquire(ctx context.Context) (PooledWidget, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, ErrPoolClosed
	}

	select {
	case w, ok := <-p.pool:
		if !ok {
			p.mu.Unlock()
			return nil, ErrPoolClosed
		}
		p.active[w] = true
		p.mu.Unlock()
		p.logger.Debug("acquired widget from pool")
		return w, nil
	default:
	}

	if len(p.active)+len(p.pool)+p.creating >= p.maxSize {
		p.mu.Unlock()
		p.logger.Debug("pool exhausted, waiting for available widget")
		select {
		case w, ok := <-p.pool:
			if !ok {
				return nil, ErrPoolClosed
			}
			p.mu.Lock()
			p.active[w] = true
			p.mu.Unlock()
			return w, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	p.creating++
	p.mu.Unlock()

	w, err := p.factory(ctx)

	p.mu.Lock()
	p.creating--
	if err != nil {
		p.mu.Unlock()
		return nil, fmt.Errorf("failed to create widget: %w", err)
	}
	if p.closed {
		p.mu.Unlock()
		_ = w.Close()
		return nil, ErrPoolClosed
	}
	p.active[w] = true
	p.mu.Unlock()

	p.logger.Debug("created new widget instance")
	return w, nil
}

// Release 归还句柄
func (p *Pool) Release(w PooledWidget) {
	p.mu.Lock()
	delete(p.active, w)

	if p.closed {
		p.mu.Unlock()
		_ = w.Close()
		return
	}

	// 锁内发送，避免与 Close 关闭 channel 竞争
	select {
	case p.pool <- w:
		p.mu.Unlock()
		p.logger.Debug("widget returned to pool")
	default:
		p.mu.Unlock()
		_ = w.Close()
		p.logger.Debug("pool full, closing excess widget")
	}
}

// Discard 丢弃失效的句柄，不再放回池中
func (p *Pool) Discard(w PooledWidget) {
	p.mu.Lock()
	delete(p.active, w)
	p.mu.Unlock()
	_ = w.Close()
}

// Close 关闭池与所有句柄
func (p *Pool) Close() error {
	p.mu.Lock()
	p.closed = true
	for w := range p.active {
		_ = w.Close()
	}
	p.active = make(map[PooledWidget]bool)
	p.closeOnce.Do(func() { close(p.pool) })
	p.mu.Unlock()

	for w := range p.pool {
		_ = w.Close()
	}

	p.logger.Info("browser pool closed")
	return nil
}

// Stats 返回池统计信息
func (p *Pool) Stats() (idle, active, total int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	idle = len(p.pool)
	active = len(p.active)
	total = idle + active
	return
}
