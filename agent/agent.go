package agent

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/BaSui01/challenger/agent/arm"
	"github.com/BaSui01/challenger/agent/browser"
	"github.com/BaSui01/challenger/agent/classifier"
	"github.com/BaSui01/challenger/agent/reasoning"
	"github.com/BaSui01/challenger/config"
	"github.com/BaSui01/challenger/internal/ctxkeys"
	"github.com/BaSui01/challenger/types"
)

const tracerName = "github.com/BaSui01/challenger/agent"

// step 一轮结束后的去向
type step int

const (
	stepNext step = iota // 进入下一轮
	stepDone             // 会话已到达终态
)

// Agent 驱动一个控件上的挑战求解会话
//
// 同一 Agent 上的会话严格串行；不同 Agent 之间只共享只读配置。
// 状态与结果列表的访问器可在其它 goroutine 中调用。
type Agent struct {
	cfg        config.AgentConfig
	widget     browser.Widget
	classifier *classifier.Classifier
	router     *reasoning.Router
	arm        *arm.Arm

	logger   *zap.Logger
	tracer   trace.Tracer
	observer Observer
	sink     ResponseSink
	cache    reasoning.Cache
	seed     *uint64

	mu        sync.RWMutex
	state     State
	session   string
	startedAt time.Time
	rounds    int
	current   *classifier.Descriptor // 下一轮直接使用的挑战
	last      *classifier.Descriptor // 最近一次求解的挑战
	responses []CaptchaResponse
	outcome   *Outcome
}

// New 创建 Agent。配置不合法时返回 *config.ConfigurationError，不创建 Agent。
func New(widget browser.Widget, backend reasoning.Backend, cfg config.AgentConfig, opts ...Option) (*Agent, error) {
	var problems []string
	if widget == nil {
		problems = append(problems, "widget is nil")
	}
	if backend == nil {
		problems = append(problems, "reasoning backend is nil")
	}
	if err := cfg.Validate(); err != nil {
		var cerr *config.ConfigurationError
		if !errors.As(err, &cerr) {
			return nil, err
		}
		problems = append(problems, cerr.Problems...)
	}
	if len(problems) > 0 {
		return nil, &config.ConfigurationError{Problems: problems}
	}

	a := &Agent{
		cfg:    cfg.Clone(),
		widget: widget,
		logger: zap.NewNop(),
		tracer: otel.Tracer(tracerName),
		state:  StateIdle,
	}
	for _, opt := range opts {
		opt(a)
	}

	base := a.logger
	a.logger = base.With(zap.String("component", "agent"))

	routerOpts := []reasoning.Option{reasoning.WithLogger(base)}
	armOpts := []arm.Option{arm.WithLogger(base)}
	if a.cache != nil {
		routerOpts = append(routerOpts, reasoning.WithCache(a.cache))
	}
	if a.observer != nil {
		routerOpts = append(routerOpts, reasoning.WithObserver(a.observer))
		armOpts = append(armOpts, arm.WithObserver(a.observer))
	}
	if a.seed != nil {
		armOpts = append(armOpts, arm.WithSeed(*a.seed))
	}

	a.classifier = classifier.New(base)
	a.router = reasoning.NewRouter(backend, a.cfg, routerOpts...)
	a.arm = arm.New(widget, a.cfg.Motion, armOpts...)
	return a, nil
}

// Trigger 点击复选框开始新会话。
// 只能在 idle 或终态调用；结果列表在会话之间保留。
func (a *Agent) Trigger(ctx context.Context) error {
	a.mu.Lock()
	if from := a.state; from != StateIdle && !from.Terminal() {
		a.mu.Unlock()
		return &TransitionError{From: from, To: StateTriggered}
	}
	a.session = uuid.NewString()
	a.startedAt = time.Now()
	a.rounds = 0
	a.current, a.last, a.outcome = nil, nil, nil
	session := a.session
	a.mu.Unlock()

	if err := a.transition(StateTriggered); err != nil {
		return err
	}

	ctx, span := a.tracer.Start(ctx, "agent.trigger", trace.WithAttributes(attribute.String("session.id", session)))
	defer span.End()

	if err := a.arm.ClickCheckbox(ctx); err != nil {
		if ctx.Err() != nil {
			err = fmt.Errorf("%w: trigger: %w", ErrTimeoutExceeded, err)
		}
		recordError(span, err)
		a.finish(StateFailed, err, nil)
		return err
	}
	return nil
}

// WaitForChallenge 挂起直到挑战出现，最长 ChallengeTimeout。
// 超时或 ctx 取消时会话进入 failed，返回的错误包装 ErrTimeoutExceeded。
// 未出现挑战就拿到令牌时会话直接 resolved。
func (a *Agent) WaitForChallenge(ctx context.Context) error {
	if err := a.transition(StateAwaitingChallenge); err != nil {
		return err
	}

	ctx, span := a.tracer.Start(ctx, "agent.wait_for_challenge")
	defer span.End()

	wctx, cancel := context.WithTimeout(ctx, a.cfg.ChallengeTimeout)
	defer cancel()

	d, err := a.classifier.WaitForChallenge(wctx, a.widget, a.cfg.PollInterval)
	switch {
	case err == nil:
		a.setCurrent(d)
		return nil
	case errors.Is(err, classifier.ErrUnclassified):
		// Solve 会重新识别并跳过
		return nil
	case errors.Is(err, classifier.ErrPassedWithoutChallenge):
		return a.resolveFromPage(ctx, nil)
	case wctx.Err() != nil:
		err = fmt.Errorf("%w: wait for challenge: %w", ErrTimeoutExceeded, wctx.Err())
	default:
		err = &arm.InteractionLost{Op: "wait for challenge", Err: err}
	}

	recordError(span, err)
	a.finish(StateFailed, err, nil)
	return err
}

// Solve 执行 classify→solve→verify 循环直到终态。
//
// 每轮受 RoundTimeout 约束，整个循环受 RoundTimeout×MaxRounds 约束，
// 任一超时都使会话 failed。
// 跳过、超时、轮数耗尽都以 Outcome 返回且 error 为 nil；
// 控件失联等意外错误同时返回 Outcome 与 error。
func (a *Agent) Solve(ctx context.Context) (*Outcome, error) {
	a.mu.RLock()
	state, done := a.state, a.outcome != nil
	a.mu.RUnlock()

	if state.Terminal() && done {
		return a.LastOutcome(), nil
	}
	if state != StateAwaitingChallenge {
		return nil, &TransitionError{From: state, To: StateClassifying}
	}

	ctx, span := a.tracer.Start(ctx, "agent.solve", trace.WithAttributes(attribute.String("session.id", a.SessionID())))
	defer span.End()

	sctx, cancel := context.WithTimeout(ctxkeys.WithSessionID(ctx, a.SessionID()), a.cfg.SessionTimeout())
	defer cancel()

	var lastErr error
	for round := 1; round <= a.cfg.MaxRounds; round++ {
		if err := sctx.Err(); err != nil {
			a.finish(StateFailed, fmt.Errorf("%w: session: %w", ErrTimeoutExceeded, err), nil)
			return a.LastOutcome(), nil
		}

		a.mu.Lock()
		a.rounds = round
		a.mu.Unlock()

		next, err := a.playRound(sctx, round)
		if next == stepDone {
			if err != nil {
				recordError(span, err)
			}
			return a.LastOutcome(), err
		}
		if err != nil {
			lastErr = err
			a.logger.Warn("round failed",
				zap.String("session", a.SessionID()),
				zap.Int("round", round),
				zap.Error(err))
		}
	}

	reason := fmt.Errorf("%w after %d round(s)", ErrRoundsExhausted, a.cfg.MaxRounds)
	if lastErr != nil {
		reason = errors.Join(reason, lastErr)
	}
	a.finish(StateFailed, reason, nil)
	return a.LastOutcome(), nil
}

// Run 依次执行 Trigger、WaitForChallenge 和 Solve
func (a *Agent) Run(ctx context.Context) (*Outcome, error) {
	if err := a.Trigger(ctx); err != nil {
		return a.LastOutcome(), raise(err)
	}
	if err := a.WaitForChallenge(ctx); err != nil {
		return a.LastOutcome(), raise(err)
	}
	return a.Solve(ctx)
}

// raise 过滤掉会话内的预期错误
func raise(err error) error {
	if errors.Is(err, ErrTimeoutExceeded) {
		return nil
	}
	return err
}

func (a *Agent) playRound(sctx context.Context, round int) (step, error) {
	ctx, span := a.tracer.Start(sctx, "agent.round", trace.WithAttributes(attribute.Int("round", round)))
	defer span.End()

	rctx, cancel := context.WithTimeout(ctxkeys.WithRound(ctx, round), a.cfg.RoundTimeout)
	defer cancel()
	start := time.Now()

	if err := a.transition(StateClassifying); err != nil {
		return stepDone, err
	}

	d := a.takeCurrent()
	if d == nil {
		var err error
		d, err = a.classifier.WaitForChallenge(rctx, a.widget, a.cfg.PollInterval)
		switch {
		case err == nil:
		case errors.Is(err, classifier.ErrPassedWithoutChallenge):
			return stepDone, a.resolveFromPage(sctx, a.lastDescriptor())
		case errors.Is(err, classifier.ErrUnclassified):
			a.observeRound("", "skipped", start)
			a.finish(StateSkipped, err, nil)
			return stepDone, nil
		case rctx.Err() != nil:
			return a.interrupted(sctx, rctx, "classify", err)
		default:
			return a.interrupted(sctx, rctx, "classify", &arm.InteractionLost{Op: "classify", Err: err})
		}
	}

	a.mu.Lock()
	a.last = d
	a.mu.Unlock()
	span.SetAttributes(
		attribute.String("challenge.type", string(d.Type)),
		attribute.String("challenge.prompt", d.Prompt),
	)

	if a.cfg.IsIgnored(d.Type, d.Prompt) {
		a.observeRound(d.Type, "skipped", start)
		a.finish(StateSkipped, fmt.Errorf("%w: %s %q", ErrChallengeIgnored, d.Type, d.Prompt), nil)
		return stepDone, nil
	}

	if err := a.transition(StateSolving); err != nil {
		return stepDone, err
	}

	sol, err := a.router.Solve(rctx, d)
	if err != nil {
		if errors.Is(err, reasoning.ErrReasoningFailure) {
			a.observeRound(d.Type, "reasoning_failure", start)
			return a.refresh(sctx, rctx, d, err)
		}
		return a.interrupted(sctx, rctx, "reasoning", err)
	}

	if err := a.arm.Execute(rctx, d, sol); err != nil {
		switch {
		case errors.Is(err, arm.ErrSolutionMismatch):
			a.observeRound(d.Type, "reasoning_failure", start)
			return a.refresh(sctx, rctx, d, err)
		case errors.Is(err, arm.ErrElementMissing):
			a.observeRound(d.Type, "element_missing", start)
			return a.refresh(sctx, rctx, d, err)
		case errors.Is(err, arm.ErrInteractionLost):
			a.finish(StateFailed, err, nil)
			return stepDone, err
		}
		return a.interrupted(sctx, rctx, "execute", err)
	}

	if err := a.transition(StateVerifying); err != nil {
		return stepDone, err
	}
	return a.verify(sctx, rctx, d, sol, start)
}

// verify 提交后轮询页面：出现令牌则通过并缓存答案，挑战被替换则进入下一轮，
// VerifyTimeout 内没有变化也进入下一轮。
func (a *Agent) verify(sctx, rctx context.Context, d *classifier.Descriptor, sol *reasoning.Solution, start time.Time) (step, error) {
	vctx, cancel := context.WithTimeout(rctx, a.cfg.VerifyTimeout)
	defer cancel()

	ticker := time.NewTicker(a.cfg.PollInterval)
	defer ticker.Stop()

	for {
		snap, err := a.widget.Snapshot(vctx)
		switch {
		case err != nil && vctx.Err() == nil:
			lost := &arm.InteractionLost{Op: "verify", Err: err}
			a.finish(StateFailed, lost, nil)
			return stepDone, lost
		case err != nil:
		case snap.Solved():
			a.observeRound(d.Type, "resolved", start)
			a.router.Remember(context.WithoutCancel(sctx), d, sol)
			a.resolve(sctx, snap.Token, d)
			return stepDone, nil
		case snap.HasChallenge():
			next, err := a.classifier.Classify(vctx, a.widget)
			switch {
			case err == nil && next.Fingerprint != d.Fingerprint:
				a.observeRound(d.Type, "replaced", start)
				a.setCurrent(next)
				return stepNext, nil
			case errors.Is(err, classifier.ErrUnclassified):
				a.observeRound(d.Type, "replaced", start)
				return stepNext, nil
			}
		}

		select {
		case <-vctx.Done():
			if rctx.Err() != nil {
				return a.interrupted(sctx, rctx, "verify", rctx.Err())
			}
			a.observeRound(d.Type, "unverified", start)
			return stepNext, nil
		case <-ticker.C:
		}
	}
}

// refresh 推理失败后换一道题，再进入下一轮
func (a *Agent) refresh(sctx, rctx context.Context, d *classifier.Descriptor, cause error) (step, error) {
	if d.Refresh == nil {
		return stepNext, cause
	}
	if err := a.arm.Refresh(rctx, d.Refresh); err != nil {
		if errors.Is(err, arm.ErrElementMissing) {
			return stepNext, errors.Join(cause, err)
		}
		if errors.Is(err, arm.ErrInteractionLost) {
			a.finish(StateFailed, err, nil)
			return stepDone, err
		}
		return a.interrupted(sctx, rctx, "refresh", err)
	}
	return stepNext, cause
}

// interrupted 区分会话超时、单轮超时与意外错误。
// 两种超时都结束会话，error 为 nil。
func (a *Agent) interrupted(sctx, rctx context.Context, op string, err error) (step, error) {
	switch {
	case sctx.Err() != nil:
		a.finish(StateFailed, fmt.Errorf("%w: %s: %w", ErrTimeoutExceeded, op, sctx.Err()), nil)
		return stepDone, nil
	case rctx.Err() != nil:
		a.finish(StateFailed, fmt.Errorf("%w: round %s: %w", ErrTimeoutExceeded, op, rctx.Err()), nil)
		return stepDone, nil
	}
	a.finish(StateFailed, err, nil)
	return stepDone, err
}

// resolveFromPage 读取页面上已有的令牌并结束会话
func (a *Agent) resolveFromPage(ctx context.Context, d *classifier.Descriptor) error {
	snap, err := a.widget.Snapshot(ctx)
	if err == nil && !snap.Solved() {
		err = browser.ErrElementNotFound
	}
	if err != nil {
		lost := &arm.InteractionLost{Op: "read token", Err: err}
		a.finish(StateFailed, lost, nil)
		return lost
	}
	a.resolve(ctx, snap.Token, d)
	return nil
}

func (a *Agent) resolve(ctx context.Context, token string, d *classifier.Descriptor) {
	now := time.Now()

	a.mu.Lock()
	resp := CaptchaResponse{
		ID:        uuid.NewString(),
		SessionID: a.session,
		Token:     token,
		Rounds:    a.rounds,
		StartedAt: a.startedAt,
		SolvedAt:  now,
		ExpiresAt: now.Add(a.cfg.TokenTTL),
	}
	if d != nil {
		resp.ChallengeType = d.Type
		resp.Prompt = d.Prompt
	}
	a.responses = append(a.responses, resp)
	a.mu.Unlock()

	a.push(context.WithoutCancel(ctx), resp)
	a.finish(StateResolved, nil, &resp)
}

func (a *Agent) push(ctx context.Context, resp CaptchaResponse) {
	if a.sink == nil {
		return
	}
	record, err := resp.Record()
	if err == nil {
		err = a.sink.Push(ctx, resp.SessionID, record)
	}
	if err != nil {
		a.logger.Warn("push response failed", zap.String("session", resp.SessionID), zap.Error(err))
	}
}

// finish 进入终态并记录 Outcome
func (a *Agent) finish(state State, reason error, resp *CaptchaResponse) {
	if err := a.transition(state); err != nil {
		a.logger.Error("finish session", zap.Error(err))
		return
	}

	a.mu.Lock()
	out := &Outcome{
		SessionID: a.session,
		State:     state,
		Reason:    reason,
		Rounds:    a.rounds,
		Response:  resp,
	}
	a.outcome = out
	elapsed := time.Since(a.startedAt)
	a.mu.Unlock()

	fields := []zap.Field{
		zap.String("session", out.SessionID),
		zap.String("state", string(state)),
		zap.Int("rounds", out.Rounds),
		zap.Duration("elapsed", elapsed),
	}
	if reason != nil {
		fields = append(fields, zap.NamedError("reason", reason))
	}
	a.logger.Info("session finished", fields...)

	if a.observer != nil {
		a.observer.ObserveSession(string(state), out.Rounds, elapsed)
	}
}

func (a *Agent) transition(to State) error {
	a.mu.Lock()
	from := a.state
	if from == to {
		a.mu.Unlock()
		return nil
	}
	if !CanTransition(from, to) {
		a.mu.Unlock()
		return &TransitionError{From: from, To: to}
	}
	a.state = to
	session := a.session
	a.mu.Unlock()

	a.logger.Debug("state transition",
		zap.String("session", session),
		zap.String("from", string(from)),
		zap.String("to", string(to)))
	if a.observer != nil {
		a.observer.ObserveTransition(string(from), string(to))
	}
	return nil
}

func (a *Agent) observeRound(ct types.ChallengeType, result string, start time.Time) {
	if a.observer != nil {
		a.observer.ObserveRound(string(ct), result, time.Since(start))
	}
}

func (a *Agent) setCurrent(d *classifier.Descriptor) {
	a.mu.Lock()
	a.current = d
	a.mu.Unlock()
}

func (a *Agent) takeCurrent() *classifier.Descriptor {
	a.mu.Lock()
	defer a.mu.Unlock()
	d := a.current
	a.current = nil
	return d
}

func (a *Agent) lastDescriptor() *classifier.Descriptor {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.last
}

func recordError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// =============================================================================
// 访问器
// =============================================================================

// State 返回当前状态
func (a *Agent) State() State {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.state
}

// SessionID 返回当前会话 ID，未触发时为空
func (a *Agent) SessionID() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.session
}

// Responses 返回累计结果的副本
func (a *Agent) Responses() []CaptchaResponse {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return slices.Clone(a.responses)
}

// LastResponse 返回最近一次结果
func (a *Agent) LastResponse() (CaptchaResponse, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if len(a.responses) == 0 {
		return CaptchaResponse{}, false
	}
	return a.responses[len(a.responses)-1], true
}

// LastOutcome 返回当前会话的终态记录，会话未结束时为 nil
func (a *Agent) LastOutcome() *Outcome {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.outcome == nil {
		return nil
	}
	out := *a.outcome
	return &out
}

// Config 返回配置副本
func (a *Agent) Config() config.AgentConfig {
	return a.cfg.Clone()
}
