package reasoning

import (
	"errors"
	"fmt"

	"github.com/BaSui01/challenger/types"
)

var (
	// ErrReasoningFailure 重试耗尽后仍未得到答案
	ErrReasoningFailure = errors.New("reasoning failure")
	// ErrMalformedOutput 模型输出无法解析为答案，可重试
	ErrMalformedOutput = errors.New("malformed model output")
)

// ReasoningFailure 一轮推理的最终失败
type ReasoningFailure struct {
	Category types.TaskCategory
	Model    string
	Attempts int
	Err      error
}

func (e *ReasoningFailure) Error() string {
	return fmt.Sprintf("%v: %s via %s after %d attempt(s): %v",
		ErrReasoningFailure, e.Category, e.Model, e.Attempts, e.Err)
}

// Unwrap 同时暴露哨兵错误与最后一次失败原因
func (e *ReasoningFailure) Unwrap() []error {
	return []error{ErrReasoningFailure, e.Err}
}
