package agent_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"pgregory.net/rapid"

	"github.com/BaSui01/challenger/agent"
	"github.com/BaSui01/challenger/agent/reasoning"
	"github.com/BaSui01/challenger/config"
	"github.com/BaSui01/challenger/testutil"
	"github.com/BaSui01/challenger/testutil/fixtures"
	"github.com/BaSui01/challenger/testutil/mocks"
	"github.com/BaSui01/challenger/types"
)

const pointAnswer = `{"challenge_prompt": "select", "points": [{"x": 0.5, "y": 0.5}]}`

func testConfig() config.AgentConfig {
	cfg := config.DefaultAgentConfig()
	cfg.MaxRounds = 3
	cfg.RoundTimeout = 2 * time.Second
	cfg.ChallengeTimeout = time.Second
	cfg.PollInterval = 5 * time.Millisecond
	cfg.VerifyTimeout = 200 * time.Millisecond
	cfg.ReasoningRetries = 2
	cfg.ReasoningBackoff = 0
	cfg.BackendTimeout = 50 * time.Millisecond
	cfg.EnableGridDivisions = false
	cfg.Motion = config.MotionConfig{PixelsPerWaypoint: 40}
	return cfg
}

func newAgent(t *testing.T, w *mocks.Widget, b *mocks.Backend, cfg config.AgentConfig, opts ...agent.Option) *agent.Agent {
	t.Helper()
	opts = append([]agent.Option{agent.WithMotionSeed(1)}, opts...)
	a, err := agent.New(w, b, cfg, opts...)
	require.NoError(t, err)
	return a
}

type memorySink struct {
	mu      sync.Mutex
	records map[string][]byte
}

func (s *memorySink) Push(_ context.Context, sessionID string, record []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.records == nil {
		s.records = make(map[string][]byte)
	}
	s.records[sessionID] = record
	return nil
}

// =============================================================================
// 构造
// =============================================================================

func TestNew_MissingModel(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		cfg := testConfig()
		switch rapid.SampledFrom(types.AllTaskCategories()).Draw(rt, "category") {
		case types.CategoryImageClassification:
			cfg.ImageClassifierModel = ""
		case types.CategorySpatialPoint:
			cfg.SpatialPointReasonerModel = " "
		case types.CategorySpatialPath:
			cfg.SpatialPathReasonerModel = ""
		}

		a, err := agent.New(mocks.NewWidget(), mocks.NewBackend(), cfg)
		if a != nil {
			rt.Fatalf("agent created with invalid config")
		}
		if !errors.Is(err, agent.ErrConfigurationInvalid) {
			rt.Fatalf("got %v, want configuration error", err)
		}
		var cerr *config.ConfigurationError
		if !errors.As(err, &cerr) {
			rt.Fatalf("got %T, want *config.ConfigurationError", err)
		}
	})
}

func TestNew_NilCollaborators(t *testing.T) {
	a, err := agent.New(nil, nil, testConfig())
	assert.Nil(t, a)
	assert.ErrorIs(t, err, agent.ErrConfigurationInvalid)
	assert.ErrorContains(t, err, "widget is nil")
	assert.ErrorContains(t, err, "reasoning backend is nil")
}

func TestNew_StartsIdle(t *testing.T) {
	a := newAgent(t, mocks.NewWidget(), mocks.NewBackend(), testConfig())
	assert.Equal(t, agent.StateIdle, a.State())
	assert.Empty(t, a.Responses())
	assert.Nil(t, a.LastOutcome())
	_, ok := a.LastResponse()
	assert.False(t, ok)
}

// =============================================================================
// 端到端场景
// =============================================================================

func TestScenarioA_AreaSelectResolved(t *testing.T) {
	w := mocks.NewWidget().WithScreens(
		fixtures.IdleScreen(),
		fixtures.AreaSelectScreen("Select the bus"),
		fixtures.SolvedScreen("P1_scenario_a"),
	)
	b := mocks.NewBackend().WithOutput(pointAnswer)
	sink := &memorySink{}
	a := newAgent(t, w, b, testConfig(), agent.WithLogger(zaptest.NewLogger(t)), agent.WithResponseSink(sink))

	out, err := a.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, agent.StateResolved, out.State)
	assert.True(t, out.Resolved())
	assert.Equal(t, 1, out.Rounds)
	assert.NoError(t, out.Reason)
	assert.Equal(t, agent.StateResolved, a.State())

	responses := a.Responses()
	require.Len(t, responses, 1)
	resp := responses[0]
	assert.Equal(t, "P1_scenario_a", resp.Token)
	assert.Equal(t, types.ChallengeImageLabelSingleSelect, resp.ChallengeType)
	assert.Equal(t, "Select the bus", resp.Prompt)
	assert.Equal(t, a.SessionID(), resp.SessionID)
	assert.NotEmpty(t, resp.ID)
	assert.Equal(t, resp.SolvedAt.Add(testConfig().TokenTTL), resp.ExpiresAt)
	assert.Equal(t, &resp, out.Response)

	// 复选框、答案点、提交按钮
	releases := w.Releases()
	require.Len(t, releases, 3)
	assert.True(t, fixtures.CanvasBox.Contains(releases[1]))
	assert.Equal(t, types.Point{X: 300, Y: 360}, releases[1])
	assert.True(t, fixtures.SubmitBox.Contains(releases[2]))

	assert.Equal(t, 1, b.CallCount())
	call := b.Calls()[0]
	assert.Equal(t, types.CategorySpatialPoint, call.Category)
	assert.Equal(t, testConfig().SpatialPointReasonerModel, call.Model)

	require.Contains(t, sink.records, resp.SessionID)
	var stored agent.CaptchaResponse
	require.NoError(t, json.Unmarshal(sink.records[resp.SessionID], &stored))
	assert.Equal(t, resp.Token, stored.Token)
}

func TestScenarioB_IgnoredDragSkipped(t *testing.T) {
	for _, tag := range []string{"image_drag_drop", "image_drag_single"} {
		t.Run(tag, func(t *testing.T) {
			w := mocks.NewWidget().WithScreens(
				fixtures.IdleScreen(),
				fixtures.DragScreen("Please drag the crab to the lower half", 1),
			)
			b := mocks.NewBackend().WithOutput(`{"paths": []}`)
			cfg := testConfig()
			cfg.IgnoreRequestTypes = []string{tag}
			a := newAgent(t, w, b, cfg)

			out, err := a.Run(context.Background())
			require.NoError(t, err)

			assert.Equal(t, agent.StateSkipped, out.State)
			assert.ErrorIs(t, out.Reason, agent.ErrChallengeIgnored)
			assert.Zero(t, b.CallCount())
			assert.Empty(t, a.Responses())
			assert.Len(t, w.Releases(), 1)
		})
	}
}

func TestIgnoreByQuestion(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		prompt := rapid.SampledFrom([]string{
			"Select the bus",
			"Please click on all the animals that can fly",
			"Please drag the crab to the lower half",
		}).Draw(rt, "prompt")

		var screen mocks.Screen
		if rapid.Bool().Draw(rt, "drag") {
			screen = fixtures.DragScreen(prompt, 1)
		} else {
			screen = fixtures.AreaSelectScreen(prompt)
		}

		w := mocks.NewWidget().WithScreens(fixtures.IdleScreen(), screen)
		b := mocks.NewBackend().WithOutput(pointAnswer)
		cfg := testConfig()
		cfg.IgnoreRequestQuestions = []string{prompt}

		a, err := agent.New(w, b, cfg, agent.WithMotionSeed(1))
		if err != nil {
			rt.Fatalf("new agent: %v", err)
		}
		out, err := a.Run(context.Background())
		if err != nil {
			rt.Fatalf("run: %v", err)
		}
		if out.State != agent.StateSkipped {
			rt.Fatalf("state %s, want skipped", out.State)
		}
		if b.CallCount() != 0 {
			rt.Fatalf("router reached backend %d time(s)", b.CallCount())
		}
	})
}

func TestIgnoreByQuestion_CaseSensitive(t *testing.T) {
	w := mocks.NewWidget().WithScreens(
		fixtures.IdleScreen(),
		fixtures.AreaSelectScreen("Select the bus"),
		fixtures.SolvedScreen("P1_token"),
	)
	b := mocks.NewBackend().WithOutput(pointAnswer)
	cfg := testConfig()
	cfg.IgnoreRequestQuestions = []string{"select the bus"}

	out, err := newAgent(t, w, b, cfg).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, agent.StateResolved, out.State)
	assert.Equal(t, 1, b.CallCount())
}

func TestScenarioC_ReasoningTimeoutsExhaustRounds(t *testing.T) {
	w := mocks.NewWidget().WithScreens(
		fixtures.IdleScreen(),
		fixtures.DragScreen("Please drag the crab to the lower half", 1),
	)
	b := mocks.NewBackend().WithReplies(mocks.Reply{Delay: time.Second})
	cfg := testConfig()
	cfg.MaxRounds = 2
	cfg.BackendTimeout = 20 * time.Millisecond

	a := newAgent(t, w, b, cfg)
	out, err := a.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, agent.StateFailed, out.State)
	assert.Equal(t, 2, out.Rounds)
	assert.ErrorIs(t, out.Reason, agent.ErrRoundsExhausted)
	assert.ErrorIs(t, out.Reason, agent.ErrReasoningFailure)

	var rf *reasoning.ReasoningFailure
	require.ErrorAs(t, out.Reason, &rf)
	assert.Equal(t, 3, rf.Attempts)
	assert.Equal(t, types.CategorySpatialPath, rf.Category)

	// 每轮三次调用，两轮
	assert.Equal(t, 6, b.CallCount())
	assert.Empty(t, a.Responses())

	// 每轮失败后点击刷新
	var refreshes int
	for _, p := range w.Releases() {
		if fixtures.RefreshBox.Contains(p) {
			refreshes++
		}
	}
	assert.Equal(t, 2, refreshes)
}

func TestScenarioC_RecoversInNextRound(t *testing.T) {
	w := mocks.NewWidget().WithScreens(
		fixtures.IdleScreen(),
		fixtures.DragScreen("Please drag the crab to the lower half", 1),
		fixtures.SolvedScreen("P1_second_round"),
	)
	path := `{"paths": [{"start_point": {"x": 0.1, "y": 0.1}, "end_point": {"x": 0.8, "y": 0.8}}]}`
	b := mocks.NewBackend().WithReplies(
		mocks.Reply{Delay: time.Second},
		mocks.Reply{Delay: time.Second},
		mocks.Reply{Delay: time.Second},
		mocks.Reply{Output: path},
	)
	cfg := testConfig()
	cfg.BackendTimeout = 20 * time.Millisecond

	out, err := newAgent(t, w, b, cfg).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, agent.StateResolved, out.State)
	assert.Equal(t, 2, out.Rounds)
	assert.Equal(t, 4, b.CallCount())
	assert.Equal(t, types.ChallengeImageDragSingle, out.Response.ChallengeType)
}

// =============================================================================
// 轮数、超时与取消
// =============================================================================

func TestRoundsAreBounded(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		maxRounds := rapid.IntRange(1, 4).Draw(rt, "max_rounds")
		extra := rapid.IntRange(0, 3).Draw(rt, "extra_screens")

		screens := []mocks.Screen{fixtures.IdleScreen()}
		for i := 0; i < maxRounds+extra+1; i++ {
			screens = append(screens, fixtures.AreaSelectScreen(fmt.Sprintf("Select the bus #%d", i)))
		}
		w := mocks.NewWidget().WithScreens(screens...)
		b := mocks.NewBackend().WithOutput(pointAnswer)
		cfg := testConfig()
		cfg.MaxRounds = maxRounds

		a, err := agent.New(w, b, cfg, agent.WithMotionSeed(3))
		if err != nil {
			rt.Fatalf("new agent: %v", err)
		}
		out, err := a.Run(context.Background())
		if err != nil {
			rt.Fatalf("run: %v", err)
		}
		if out.State != agent.StateFailed {
			rt.Fatalf("state %s, want failed", out.State)
		}
		if out.Rounds > maxRounds {
			rt.Fatalf("ran %d rounds, limit %d", out.Rounds, maxRounds)
		}
		if b.CallCount() != maxRounds {
			rt.Fatalf("backend called %d times, want %d", b.CallCount(), maxRounds)
		}
		if !errors.Is(out.Reason, agent.ErrRoundsExhausted) {
			rt.Fatalf("reason %v", out.Reason)
		}
	})
}

func TestVerifyTimeoutStartsNextRound(t *testing.T) {
	stuck := fixtures.WithNext(fixtures.AreaSelectScreen("Select the bus"), mocks.Stay)
	w := mocks.NewWidget().WithScreens(fixtures.IdleScreen(), stuck)
	b := mocks.NewBackend().WithOutput(pointAnswer)
	cfg := testConfig()
	cfg.MaxRounds = 2
	cfg.VerifyTimeout = 30 * time.Millisecond

	out, err := newAgent(t, w, b, cfg).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, agent.StateFailed, out.State)
	assert.Equal(t, 2, out.Rounds)
	assert.Equal(t, 2, b.CallCount())
}

func TestNewChallengeAfterSubmit(t *testing.T) {
	w := mocks.NewWidget().WithScreens(
		fixtures.IdleScreen(),
		fixtures.AreaSelectScreen("Select the bus"),
		fixtures.AreaSelectScreen("Select the car"),
		fixtures.SolvedScreen("P1_token"),
	)
	b := mocks.NewBackend().WithOutput(pointAnswer)

	a := newAgent(t, w, b, testConfig())
	out, err := a.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, agent.StateResolved, out.State)
	assert.Equal(t, 2, out.Rounds)
	assert.Equal(t, "Select the car", out.Response.Prompt)
	assert.Equal(t, 2, b.CallCount())
}

func TestCancelDuringWait(t *testing.T) {
	w := mocks.NewWidget().WithScreens(fixtures.IdleScreen(), fixtures.WaitingScreen())
	a := newAgent(t, w, mocks.NewBackend(), testConfig())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, a.Trigger(ctx))

	go func() {
		time.Sleep(30 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	err := a.WaitForChallenge(ctx)
	assert.Less(t, time.Since(start), 500*time.Millisecond)

	assert.ErrorIs(t, err, agent.ErrTimeoutExceeded)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, agent.StateFailed, a.State())
	assert.Equal(t, agent.StateFailed, a.LastOutcome().State)
	assert.Empty(t, a.Responses())
	assert.Len(t, w.Releases(), 1)
}

func TestChallengeTimeout(t *testing.T) {
	w := mocks.NewWidget().WithScreens(fixtures.IdleScreen(), fixtures.WaitingScreen())
	cfg := testConfig()
	cfg.ChallengeTimeout = 40 * time.Millisecond

	out, err := newAgent(t, w, mocks.NewBackend(), cfg).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, agent.StateFailed, out.State)
	assert.ErrorIs(t, out.Reason, agent.ErrTimeoutExceeded)
	assert.ErrorIs(t, out.Reason, context.DeadlineExceeded)
}

func TestCancelDuringReasoning(t *testing.T) {
	w := mocks.NewWidget().WithScreens(fixtures.IdleScreen(), fixtures.AreaSelectScreen("Select the bus"))
	b := mocks.NewBackend().WithReplies(mocks.Reply{Delay: time.Minute})
	cfg := testConfig()
	cfg.BackendTimeout = time.Minute

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	a := newAgent(t, w, b, cfg)
	out, err := a.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, agent.StateFailed, out.State)
	assert.ErrorIs(t, out.Reason, agent.ErrTimeoutExceeded)
	assert.Equal(t, 1, b.CallCount())
	assert.Empty(t, a.Responses())
}

func TestRoundTimeoutFailsSession(t *testing.T) {
	w := mocks.NewWidget().WithScreens(
		fixtures.IdleScreen(),
		fixtures.AreaSelectScreen("Select the bus"),
		fixtures.SolvedScreen("P1_too_late"),
	)
	b := mocks.NewBackend().WithReplies(
		mocks.Reply{Delay: time.Second, Output: pointAnswer},
		mocks.Reply{Output: pointAnswer},
	)
	cfg := testConfig()
	cfg.RoundTimeout = 100 * time.Millisecond
	cfg.BackendTimeout = 5 * time.Second

	a := newAgent(t, w, b, cfg)
	out, err := a.Run(testutil.TestContext(t))
	require.NoError(t, err)

	assert.Equal(t, agent.StateFailed, out.State)
	assert.Equal(t, 1, out.Rounds)
	assert.ErrorIs(t, out.Reason, agent.ErrTimeoutExceeded)
	assert.ErrorIs(t, out.Reason, context.DeadlineExceeded)
	assert.NotErrorIs(t, out.Reason, agent.ErrRoundsExhausted)
	assert.Equal(t, 1, b.CallCount())
	assert.Empty(t, a.Responses())
}

func TestRoundTimeoutDuringVerify(t *testing.T) {
	stuck := fixtures.WithNext(fixtures.AreaSelectScreen("Select the bus"), mocks.Stay)
	w := mocks.NewWidget().WithScreens(fixtures.IdleScreen(), stuck)
	b := mocks.NewBackend().WithOutput(pointAnswer)
	cfg := testConfig()
	cfg.RoundTimeout = 150 * time.Millisecond
	cfg.VerifyTimeout = time.Second

	out, err := newAgent(t, w, b, cfg).Run(testutil.TestContext(t))
	require.NoError(t, err)
	assert.Equal(t, agent.StateFailed, out.State)
	assert.Equal(t, 1, out.Rounds)
	assert.ErrorIs(t, out.Reason, agent.ErrTimeoutExceeded)
	assert.Equal(t, 1, b.CallCount())
}

// =============================================================================
// 答案缓存
// =============================================================================

type memoryCache struct {
	mu    sync.Mutex
	items map[string]*reasoning.Solution
}

func newMemoryCache() *memoryCache {
	return &memoryCache{items: make(map[string]*reasoning.Solution)}
}

func (c *memoryCache) Get(_ context.Context, key string) (*reasoning.Solution, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	sol, ok := c.items[key]
	return sol, ok, nil
}

func (c *memoryCache) Set(_ context.Context, key string, sol *reasoning.Solution) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = sol
	return nil
}

func (c *memoryCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// 同一挑战停留在页面上时，每轮都重新询问后端，不重放未验证的答案
func TestUnverifiedAnswerNotReplayed(t *testing.T) {
	stuck := fixtures.WithNext(fixtures.AreaSelectScreen("Select the bus"), mocks.Stay)
	w := mocks.NewWidget().WithScreens(fixtures.IdleScreen(), stuck)
	b := mocks.NewBackend().WithOutput(pointAnswer)
	cache := newMemoryCache()
	cfg := testConfig()
	cfg.VerifyTimeout = 30 * time.Millisecond

	out, err := newAgent(t, w, b, cfg, agent.WithAnswerCache(cache)).Run(testutil.TestContext(t))
	require.NoError(t, err)
	assert.Equal(t, agent.StateFailed, out.State)
	assert.Equal(t, 3, out.Rounds)
	assert.Equal(t, 3, b.CallCount())
	assert.Zero(t, cache.len())
}

func TestVerifiedAnswerCached(t *testing.T) {
	screens := func() *mocks.Widget {
		return mocks.NewWidget().WithScreens(
			fixtures.IdleScreen(),
			fixtures.AreaSelectScreen("Select the bus"),
			fixtures.SolvedScreen("P1_cached"),
		)
	}
	cache := newMemoryCache()

	first := mocks.NewBackend().WithOutput(pointAnswer)
	out, err := newAgent(t, screens(), first, testConfig(), agent.WithAnswerCache(cache)).Run(testutil.TestContext(t))
	require.NoError(t, err)
	require.Equal(t, agent.StateResolved, out.State)
	assert.Equal(t, 1, cache.len())

	// 同一挑战再次出现时直接使用缓存答案
	second := mocks.NewBackend().WithOutput(pointAnswer)
	out, err = newAgent(t, screens(), second, testConfig(), agent.WithAnswerCache(cache)).Run(testutil.TestContext(t))
	require.NoError(t, err)
	assert.Equal(t, agent.StateResolved, out.State)
	assert.Zero(t, second.CallCount())
}

// =============================================================================
// 缺失的按钮
// =============================================================================

func TestMissingSubmitRefreshesAndContinues(t *testing.T) {
	noSubmit := fixtures.WithNext(fixtures.AreaSelectScreen("Select the bus"), mocks.OnRefresh)
	noSubmit.Snapshot.Submit = nil
	w := mocks.NewWidget().WithScreens(
		fixtures.IdleScreen(),
		noSubmit,
		fixtures.AreaSelectScreen("Select the car"),
		fixtures.SolvedScreen("P1_after_refresh"),
	)
	b := mocks.NewBackend().WithOutput(pointAnswer)

	out, err := newAgent(t, w, b, testConfig()).Run(testutil.TestContext(t))
	require.NoError(t, err)
	assert.Equal(t, agent.StateResolved, out.State)
	assert.Equal(t, 2, out.Rounds)
	assert.Equal(t, "Select the car", out.Response.Prompt)
	assert.Equal(t, 2, b.CallCount())
}

func TestMissingButtonsExhaustRounds(t *testing.T) {
	bare := fixtures.WithNext(fixtures.AreaSelectScreen("Select the bus"), mocks.Stay)
	bare.Snapshot.Submit = nil
	bare.Snapshot.Refresh = nil
	w := mocks.NewWidget().WithScreens(fixtures.IdleScreen(), bare)
	b := mocks.NewBackend().WithOutput(pointAnswer)

	out, err := newAgent(t, w, b, testConfig()).Run(testutil.TestContext(t))
	require.NoError(t, err)
	assert.Equal(t, agent.StateFailed, out.State)
	assert.Equal(t, 3, out.Rounds)
	assert.ErrorIs(t, out.Reason, agent.ErrRoundsExhausted)
	assert.ErrorIs(t, out.Reason, agent.ErrElementMissing)
	assert.NotErrorIs(t, out.Reason, agent.ErrInteractionLost)
	assert.Equal(t, 3, b.CallCount())
}

// =============================================================================
// 其它终态
// =============================================================================

func TestPassedWithoutChallenge(t *testing.T) {
	w := mocks.NewWidget().WithScreens(fixtures.IdleScreen(), fixtures.SolvedScreen("P1_instant"))
	b := mocks.NewBackend()

	a := newAgent(t, w, b, testConfig())
	out, err := a.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, agent.StateResolved, out.State)
	assert.Zero(t, out.Rounds)
	require.NotNil(t, out.Response)
	assert.Equal(t, "P1_instant", out.Response.Token)
	assert.Empty(t, out.Response.ChallengeType)
	assert.Zero(t, b.CallCount())
}

func TestUnclassifiedSkipped(t *testing.T) {
	w := mocks.NewWidget().WithScreens(fixtures.IdleScreen(), fixtures.UnknownScreen("Type the characters"))
	b := mocks.NewBackend()

	out, err := newAgent(t, w, b, testConfig()).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, agent.StateSkipped, out.State)
	assert.ErrorIs(t, out.Reason, agent.ErrUnclassified)
	assert.Zero(t, b.CallCount())
}

func TestInteractionLost(t *testing.T) {
	boom := errors.New("target closed")
	w := mocks.NewWidget().WithScreens(fixtures.IdleScreen()).WithPointerError(0, boom)

	a := newAgent(t, w, mocks.NewBackend(), testConfig())
	out, err := a.Run(context.Background())

	assert.ErrorIs(t, err, agent.ErrInteractionLost)
	assert.ErrorIs(t, err, boom)
	require.NotNil(t, out)
	assert.Equal(t, agent.StateFailed, out.State)
	assert.Equal(t, agent.StateFailed, a.State())
}

func TestInteractionLostDuringSolve(t *testing.T) {
	boom := errors.New("node detached")
	w := mocks.NewWidget().WithScreens(fixtures.IdleScreen(), fixtures.AreaSelectScreen("Select the bus"))
	b := mocks.NewBackend().WithOutput(pointAnswer)
	a := newAgent(t, w, b, testConfig())

	require.NoError(t, a.Trigger(context.Background()))
	require.NoError(t, a.WaitForChallenge(context.Background()))

	w.WithPointerError(len(w.Events()), boom)
	out, err := a.Solve(context.Background())
	assert.ErrorIs(t, err, agent.ErrInteractionLost)
	assert.Equal(t, agent.StateFailed, out.State)
	assert.Equal(t, 1, out.Rounds)
}

func TestInvalidTransitions(t *testing.T) {
	w := mocks.NewWidget().WithScreens(fixtures.IdleScreen(), fixtures.WaitingScreen())
	a := newAgent(t, w, mocks.NewBackend(), testConfig())

	_, err := a.Solve(context.Background())
	assert.ErrorIs(t, err, agent.ErrInvalidTransition)

	assert.ErrorIs(t, a.WaitForChallenge(context.Background()), agent.ErrInvalidTransition)

	require.NoError(t, a.Trigger(context.Background()))
	var terr *agent.TransitionError
	require.ErrorAs(t, a.Trigger(context.Background()), &terr)
	assert.Equal(t, agent.StateTriggered, terr.From)
}

func TestRetriggerKeepsResponses(t *testing.T) {
	w := mocks.NewWidget().WithScreens(
		fixtures.IdleScreen(),
		fixtures.AreaSelectScreen("Select the bus"),
		fixtures.WithNext(fixtures.SolvedScreen("P1_first"), mocks.OnCheckbox),
		fixtures.AreaSelectScreen("Select the car"),
		fixtures.SolvedScreen("P1_second"),
	)
	b := mocks.NewBackend().WithOutput(pointAnswer)
	a := newAgent(t, w, b, testConfig())

	first, err := a.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, agent.StateResolved, first.State)

	second, err := a.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, agent.StateResolved, second.State)
	assert.NotEqual(t, first.SessionID, second.SessionID)

	responses := a.Responses()
	require.Len(t, responses, 2)
	assert.Equal(t, "P1_first", responses[0].Token)
	assert.Equal(t, "P1_second", responses[1].Token)

	last, ok := a.LastResponse()
	require.True(t, ok)
	assert.Equal(t, responses[1], last)
}

func TestRunConcurrent(t *testing.T) {
	var agents []*agent.Agent
	var backends []*mocks.Backend
	for i := 0; i < 4; i++ {
		w := mocks.NewWidget().WithScreens(
			fixtures.IdleScreen(),
			fixtures.AreaSelectScreen("Select the bus"),
			fixtures.SolvedScreen(fmt.Sprintf("P1_%d", i)),
		)
		b := mocks.NewBackend().WithOutput(pointAnswer)
		agents = append(agents, newAgent(t, w, b, testConfig()))
		backends = append(backends, b)
	}

	outcomes, err := agent.RunConcurrent(context.Background(), agents...)
	require.NoError(t, err)
	require.Len(t, outcomes, 4)
	for i, out := range outcomes {
		assert.Equal(t, agent.StateResolved, out.State)
		assert.Equal(t, fmt.Sprintf("P1_%d", i), out.Response.Token)
		assert.Equal(t, 1, backends[i].CallCount())
		assert.Len(t, agents[i].Responses(), 1)
	}
}

func TestRunConcurrent_ReportsError(t *testing.T) {
	boom := errors.New("target closed")
	ok := mocks.NewWidget().WithScreens(
		fixtures.IdleScreen(),
		fixtures.AreaSelectScreen("Select the bus"),
		fixtures.SolvedScreen("P1_ok"),
	)
	broken := mocks.NewWidget().WithScreens(fixtures.IdleScreen()).WithPointerError(0, boom)

	a1 := newAgent(t, ok, mocks.NewBackend().WithOutput(pointAnswer), testConfig())
	a2 := newAgent(t, broken, mocks.NewBackend(), testConfig())

	outcomes, err := agent.RunConcurrent(context.Background(), a1, a2)
	assert.ErrorIs(t, err, agent.ErrInteractionLost)
	assert.Equal(t, agent.StateResolved, outcomes[0].State)
	assert.Equal(t, agent.StateFailed, outcomes[1].State)
}

func TestCaptchaResponse_Record(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	resp := agent.CaptchaResponse{
		ID:            "id-1",
		SessionID:     "s-1",
		Token:         "P1_abc",
		ChallengeType: types.ChallengeImageDragSingle,
		Prompt:        "Drag the piece",
		Rounds:        2,
		StartedAt:     now,
		SolvedAt:      now.Add(time.Second),
		ExpiresAt:     now.Add(time.Minute),
	}

	record, err := resp.Record()
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(record, &fields))
	assert.Equal(t, "P1_abc", fields["token"])
	assert.Equal(t, "image_drag_single", fields["challenge_type"])
	assert.EqualValues(t, 2, fields["rounds"])

	assert.False(t, resp.Expired(now.Add(30*time.Second)))
	assert.True(t, resp.Expired(now.Add(time.Minute)))
}
