package arm

import (
	"errors"
	"fmt"
)

var (
	// ErrInteractionLost 控件不再响应指针事件，会话无法继续
	ErrInteractionLost = errors.New("interaction lost")
	// ErrSolutionMismatch 答案与当前挑战的布局不符
	ErrSolutionMismatch = errors.New("solution does not fit the challenge")
	// ErrElementMissing 控件仍在，但要点击的按钮不存在；本轮失败，会话继续
	ErrElementMissing = errors.New("widget element missing")
)

// InteractionLost 记录失败的指针动作
type InteractionLost struct {
	Op  string
	Err error
}

func (e *InteractionLost) Error() string {
	return fmt.Sprintf("%v: %s: %v", ErrInteractionLost, e.Op, e.Err)
}

func (e *InteractionLost) Unwrap() []error {
	return []error{ErrInteractionLost, e.Err}
}
