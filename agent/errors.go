package agent

import (
	"errors"

	"github.com/BaSui01/challenger/agent/arm"
	"github.com/BaSui01/challenger/agent/classifier"
	"github.com/BaSui01/challenger/agent/reasoning"
	"github.com/BaSui01/challenger/config"
	"github.com/BaSui01/challenger/types"
)

var (
	// ErrConfigurationInvalid 配置无效，Agent 未创建
	ErrConfigurationInvalid = config.ErrConfigurationInvalid

	// ErrNotReady 当前没有渲染中的挑战
	ErrNotReady = classifier.ErrNotReady

	// ErrUnclassified 挑战布局未知，会话跳过
	ErrUnclassified = classifier.ErrUnclassified

	// ErrReasoningFailure 推理重试耗尽，本轮失败
	ErrReasoningFailure = reasoning.ErrReasoningFailure

	// ErrInteractionLost 控件失联，会话终止
	ErrInteractionLost = arm.ErrInteractionLost

	// ErrElementMissing 按钮缺失，本轮失败
	ErrElementMissing = arm.ErrElementMissing

	// ErrTimeoutExceeded 等待挑战或会话预算耗尽
	ErrTimeoutExceeded = types.ErrTimeoutExceeded

	// ErrInvalidTransition 非法状态转换
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrChallengeIgnored 挑战命中忽略策略
	ErrChallengeIgnored = errors.New("challenge ignored by policy")

	// ErrRoundsExhausted 达到 MaxRounds 仍未通过
	ErrRoundsExhausted = errors.New("max rounds exhausted")
)
