package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/challenger/agent"
	"github.com/BaSui01/challenger/agent/browser"
	"github.com/BaSui01/challenger/config"
	"github.com/BaSui01/challenger/internal/cache"
	"github.com/BaSui01/challenger/internal/logging"
	"github.com/BaSui01/challenger/internal/metrics"
	"github.com/BaSui01/challenger/internal/server"
	"github.com/BaSui01/challenger/internal/telemetry"
	"github.com/BaSui01/challenger/llm/providers/gemini"
)

// navigator 能打开页面的控件
type navigator interface {
	Navigate(ctx context.Context, url string) error
}

// services 运行期依赖，按配置可选
type services struct {
	collector *metrics.Collector
	answers   *cache.AnswerCache
	sink      *cache.ResponseSink
	tracer    *telemetry.Providers
}

// agentOptions 只附加已启用的依赖
func (s services) agentOptions(logger *zap.Logger) []agent.Option {
	opts := []agent.Option{agent.WithLogger(logger)}
	if s.collector != nil {
		opts = append(opts, agent.WithObserver(s.collector))
	}
	if s.answers != nil {
		opts = append(opts, agent.WithAnswerCache(s.answers))
	}
	if s.sink != nil {
		opts = append(opts, agent.WithResponseSink(s.sink))
	}
	if s.tracer != nil {
		opts = append(opts, agent.WithTracer(s.tracer.Tracer()))
	}
	return opts
}

func runSolve(args []string) int {
	fs := flag.NewFlagSet("solve", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file")
	url := fs.String("url", "", "Page hosting the challenge widget")
	sessions := fs.Int("sessions", 1, "Number of concurrent sessions")
	_ = fs.Parse(args)

	if *url == "" || *sessions < 1 {
		fmt.Fprintln(os.Stderr, "solve requires --url and --sessions >= 1")
		return 2
	}

	loader := config.NewLoader().WithValidator((*config.Config).Validate)
	if *configPath != "" {
		loader = loader.WithConfigPath(*configPath)
	}
	cfg, err := loader.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}

	logger := logging.MustNew(cfg.Log)
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := solve(ctx, cfg, *url, *sessions, os.Stdout, logger); err != nil {
		logger.Error("solve failed", zap.Error(err))
		return 1
	}
	return 0
}

func solve(ctx context.Context, cfg *config.Config, url string, sessions int, out io.Writer, logger *zap.Logger) error {
	var svc services

	providers, err := telemetry.Init(ctx, cfg.Telemetry, logger)
	if err != nil {
		return err
	}
	svc.tracer = providers
	defer shutdown(logger, "telemetry", providers.Shutdown)

	if cfg.Cache.Enabled {
		cm, err := cache.NewManager(cfg.Cache, logger)
		if err != nil {
			return err
		}
		defer cm.Close()
		svc.answers = cache.NewAnswerCache(cm)
		svc.sink = cache.NewResponseSink(cm)
	}

	backend, err := gemini.New(ctx, cfg.Gemini, logger)
	if err != nil {
		return err
	}

	pool, err := browser.NewPool(ctx, browser.PoolConfig{MaxSize: sessions}, browser.ChromeDPFactory(cfg.Browser, logger), logger)
	if err != nil {
		return err
	}
	defer pool.Close()

	if cfg.Metrics.Enabled {
		svc.collector = metrics.NewCollector(cfg.Metrics.Namespace, logger)

		srvCfg := server.DefaultConfig()
		srvCfg.Addr = cfg.Metrics.ListenAddr
		srv := server.NewManager(srvCfg, nil, func(context.Context) error {
			if _, active, _ := pool.Stats(); active > sessions {
				return fmt.Errorf("browser pool over capacity: %d active", active)
			}
			return nil
		}, logger)
		if err := srv.Start(); err != nil {
			return err
		}
		defer shutdown(logger, "metrics server", srv.Shutdown)
	}

	agents := make([]*agent.Agent, 0, sessions)
	widgets := make([]browser.PooledWidget, 0, sessions)
	defer func() { release(pool, widgets, agents) }()
	for i := 0; i < sessions; i++ {
		w, err := pool.Acquire(ctx)
		if err != nil {
			return err
		}
		widgets = append(widgets, w)

		if nav, ok := w.(navigator); ok {
			if err := nav.Navigate(ctx, url); err != nil {
				return fmt.Errorf("session %d: %w", i, err)
			}
		}

		a, err := agent.New(w, backend, cfg.Agent, svc.agentOptions(logger.With(zap.Int("session", i)))...)
		if err != nil {
			return err
		}
		agents = append(agents, a)
	}

	outcomes, err := agent.RunConcurrent(ctx, agents...)
	if werr := writeResponses(out, agents); werr != nil {
		err = errors.Join(err, werr)
	}

	resolved := 0
	for _, o := range outcomes {
		if o != nil && o.Resolved() {
			resolved++
		}
	}
	logger.Info("sessions finished", zap.Int("sessions", sessions), zap.Int("resolved", resolved))

	return err
}

// release 归还句柄；会话因句柄失效结束时丢弃该句柄
func release(pool *browser.Pool, widgets []browser.PooledWidget, agents []*agent.Agent) {
	for i, w := range widgets {
		if i < len(agents) {
			if out := agents[i].LastOutcome(); out != nil && browser.IsDetached(out.Reason) {
				pool.Discard(w)
				continue
			}
		}
		pool.Release(w)
	}
}

// writeResponses 每个成功响应输出一行 JSON
func writeResponses(out io.Writer, agents []*agent.Agent) error {
	enc := json.NewEncoder(out)
	for _, a := range agents {
		for _, r := range a.Responses() {
			if err := enc.Encode(r); err != nil {
				return err
			}
		}
	}
	return nil
}

func shutdown(logger *zap.Logger, name string, fn func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := fn(ctx); err != nil {
		logger.Warn("shutdown failed", zap.String("component", name), zap.Error(err))
	}
}
