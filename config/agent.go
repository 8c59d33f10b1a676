package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/BaSui01/challenger/types"
)

// ErrConfigurationInvalid 所有 *ConfigurationError 都包装此哨兵错误
var ErrConfigurationInvalid = errors.New("invalid agent configuration")

// ConfigurationError 列出校验 AgentConfig 时发现的全部问题
type ConfigurationError struct {
	Problems []string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%v: %s", ErrConfigurationInvalid, strings.Join(e.Problems, "; "))
}

func (e *ConfigurationError) Unwrap() error {
	return ErrConfigurationInvalid
}

// AgentConfig 挑战求解策略配置
//
// 构造后只读，可在多个会话间并发共享。零值不可用，请从
// DefaultAgentConfig 开始修改，或由 Loader 加载。
type AgentConfig struct {
	// 永不尝试的挑战标签，可为 ChallengeType 或 RequestType
	IgnoreRequestTypes []string `yaml:"ignore_request_types" env:"IGNORE_REQUEST_TYPES"`
	// 永不尝试的题目文本（精确、区分大小写）
	IgnoreRequestQuestions []string `yaml:"ignore_request_questions" env:"IGNORE_REQUEST_QUESTIONS"`

	// 每个任务类别的模型
	ImageClassifierModel      string `yaml:"image_classifier_model" env:"IMAGE_CLASSIFIER_MODEL"`
	SpatialPointReasonerModel string `yaml:"spatial_point_reasoner_model" env:"SPATIAL_POINT_REASONER_MODEL"`
	SpatialPathReasonerModel  string `yaml:"spatial_path_reasoner_model" env:"SPATIAL_PATH_REASONER_MODEL"`

	// 每个会话最多的 classify→solve→verify 轮数
	MaxRounds int `yaml:"max_rounds" env:"MAX_ROUNDS"`
	// 每轮的墙钟预算
	RoundTimeout time.Duration `yaml:"round_timeout" env:"ROUND_TIMEOUT"`
	// 等待挑战出现的预算
	ChallengeTimeout time.Duration `yaml:"challenge_timeout" env:"CHALLENGE_TIMEOUT"`
	// 轮询页面状态的间隔
	PollInterval time.Duration `yaml:"poll_interval" env:"POLL_INTERVAL"`
	// 提交后等待页面稳定的窗口
	VerifyTimeout time.Duration `yaml:"verify_timeout" env:"VERIFY_TIMEOUT"`

	// 推理后端瞬时失败的重试次数（不含首次调用）
	ReasoningRetries int `yaml:"reasoning_retries" env:"REASONING_RETRIES"`
	// 重试间隔
	ReasoningBackoff time.Duration `yaml:"reasoning_backoff" env:"REASONING_BACKOFF"`
	// 单次后端调用超时
	BackendTimeout time.Duration `yaml:"backend_timeout" env:"BACKEND_TIMEOUT"`
	// 每个模型每秒请求数上限，0 表示不限
	ReasoningRPS float64 `yaml:"reasoning_rps" env:"REASONING_RPS"`
	// 是否在空间类载荷上叠加坐标网格
	EnableGridDivisions bool `yaml:"enable_grid_divisions" env:"ENABLE_GRID_DIVISIONS"`
	// 要求后端按类别的 JSON Schema 输出
	EnableResponseSchema bool `yaml:"enable_response_schema" env:"ENABLE_RESPONSE_SCHEMA"`
	// 拖拽推理附带 SCoTDir 下的示例图片（*.png）
	EnableSCoT bool   `yaml:"enable_scot" env:"ENABLE_SCOT"`
	SCoTDir    string `yaml:"scot_dir" env:"SCOT_DIR"`

	// 令牌有效期，用于 CaptchaResponse.ExpiresAt
	TokenTTL time.Duration `yaml:"token_ttl" env:"TOKEN_TTL"`

	// 机械臂运动参数
	Motion MotionConfig `yaml:"motion" env:"MOTION"`
}

// MotionConfig 控制模拟指针运动的节奏
type MotionConfig struct {
	// 相邻路点间的最小/最大停顿
	StepDelayMin time.Duration `yaml:"step_delay_min" env:"STEP_DELAY_MIN"`
	StepDelayMax time.Duration `yaml:"step_delay_max" env:"STEP_DELAY_MAX"`
	// 按下到抬起的停顿
	PressHold time.Duration `yaml:"press_hold" env:"PRESS_HOLD"`
	// 两次独立动作之间的停顿
	ActionPause time.Duration `yaml:"action_pause" env:"ACTION_PAUSE"`
	// 每个路点覆盖的像素距离
	PixelsPerWaypoint float64 `yaml:"pixels_per_waypoint" env:"PIXELS_PER_WAYPOINT"`
	// 路点抖动幅度（像素）
	Jitter float64 `yaml:"jitter" env:"JITTER"`
}

// ModelFor 返回任务类别对应的模型
func (c AgentConfig) ModelFor(category types.TaskCategory) (string, bool) {
	var model string
	switch category {
	case types.CategoryImageClassification:
		model = c.ImageClassifierModel
	case types.CategorySpatialPoint:
		model = c.SpatialPointReasonerModel
	case types.CategorySpatialPath:
		model = c.SpatialPathReasonerModel
	}
	return model, strings.TrimSpace(model) != ""
}

// IsIgnored 判断挑战是否命中忽略策略
func (c AgentConfig) IsIgnored(ct types.ChallengeType, prompt string) bool {
	for _, tag := range c.IgnoreRequestTypes {
		if ct.MatchesTag(tag) {
			return true
		}
	}
	return slices.Contains(c.IgnoreRequestQuestions, prompt)
}

// SessionTimeout 返回整个会话的预算
func (c AgentConfig) SessionTimeout() time.Duration {
	return c.RoundTimeout * time.Duration(c.MaxRounds)
}

// Clone 返回不共享底层切片的副本
func (c AgentConfig) Clone() AgentConfig {
	c.IgnoreRequestTypes = slices.Clone(c.IgnoreRequestTypes)
	c.IgnoreRequestQuestions = slices.Clone(c.IgnoreRequestQuestions)
	return c
}

// Validate 校验配置，失败时返回 *ConfigurationError
func (c AgentConfig) Validate() error {
	var problems []string

	for _, category := range types.AllTaskCategories() {
		if _, ok := c.ModelFor(category); !ok {
			problems = append(problems, fmt.Sprintf("no model configured for %s", category))
		}
	}
	for _, tag := range c.IgnoreRequestTypes {
		if !types.KnownTag(tag) {
			problems = append(problems, fmt.Sprintf("unknown challenge tag %q", tag))
		}
	}

	if c.MaxRounds <= 0 {
		problems = append(problems, "max_rounds must be positive")
	}
	positive := []struct {
		name string
		d    time.Duration
	}{
		{"round_timeout", c.RoundTimeout},
		{"challenge_timeout", c.ChallengeTimeout},
		{"poll_interval", c.PollInterval},
		{"verify_timeout", c.VerifyTimeout},
		{"backend_timeout", c.BackendTimeout},
		{"token_ttl", c.TokenTTL},
	}
	for _, p := range positive {
		if p.d <= 0 {
			problems = append(problems, p.name+" must be positive")
		}
	}
	if c.ReasoningRetries < 0 {
		problems = append(problems, "reasoning_retries must not be negative")
	}
	if c.ReasoningBackoff < 0 {
		problems = append(problems, "reasoning_backoff must not be negative")
	}
	if c.ReasoningRPS < 0 {
		problems = append(problems, "reasoning_rps must not be negative")
	}
	if c.EnableSCoT && strings.TrimSpace(c.SCoTDir) == "" {
		problems = append(problems, "scot_dir is required when enable_scot is set")
	}
	if c.Motion.StepDelayMax < c.Motion.StepDelayMin {
		problems = append(problems, "motion.step_delay_max must be >= motion.step_delay_min")
	}
	if c.Motion.PixelsPerWaypoint <= 0 {
		problems = append(problems, "motion.pixels_per_waypoint must be positive")
	}

	if len(problems) > 0 {
		return &ConfigurationError{Problems: problems}
	}
	return nil
}
