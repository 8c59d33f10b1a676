package agent

import (
	"fmt"
	"slices"
)

// State 定义会话状态
type State string

const (
	StateIdle              State = "idle"               // 未触发
	StateTriggered         State = "triggered"          // 已点击复选框
	StateAwaitingChallenge State = "awaiting_challenge" // 等待挑战渲染
	StateClassifying       State = "classifying"        // 识别挑战变体
	StateSolving           State = "solving"            // 推理并执行答案
	StateVerifying         State = "verifying"          // 等待页面给出结果
	StateResolved          State = "resolved"           // 拿到令牌
	StateSkipped           State = "skipped"            // 命中忽略策略或无法识别
	StateFailed            State = "failed"             // 超时、轮数耗尽或控件失联
)

// validTransitions 定义合法的状态转换
var validTransitions = map[State][]State{
	StateIdle:              {StateTriggered, StateFailed},
	StateTriggered:         {StateAwaitingChallenge, StateFailed},
	StateAwaitingChallenge: {StateClassifying, StateResolved, StateFailed}, // 未出现挑战直接通过
	StateClassifying:       {StateSolving, StateSkipped, StateResolved, StateFailed},
	StateSolving:           {StateVerifying, StateClassifying, StateFailed}, // 推理失败进入下一轮
	StateVerifying:         {StateResolved, StateClassifying, StateFailed},
	StateResolved:          {StateTriggered}, // 支持重新触发
	StateSkipped:           {StateTriggered},
	StateFailed:            {StateTriggered},
}

// CanTransition 检查状态转换是否合法
func CanTransition(from, to State) bool {
	allowed, ok := validTransitions[from]
	if !ok {
		return false
	}
	return slices.Contains(allowed, to)
}

// Terminal 报告状态是否为会话终态
func (s State) Terminal() bool {
	return s == StateResolved || s == StateSkipped || s == StateFailed
}

// TransitionError 非法状态转换错误
type TransitionError struct {
	From State
	To   State
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%v: %s -> %s", ErrInvalidTransition, e.From, e.To)
}

func (e *TransitionError) Unwrap() error {
	return ErrInvalidTransition
}
