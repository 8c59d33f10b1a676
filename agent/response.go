package agent

import (
	"encoding/json"
	"time"

	"github.com/BaSui01/challenger/types"
)

// CaptchaResponse 一次成功会话的结果，创建后不再修改
type CaptchaResponse struct {
	ID            string              `json:"id"`
	SessionID     string              `json:"session_id"`
	Token         string              `json:"token"`
	ChallengeType types.ChallengeType `json:"challenge_type,omitempty"`
	Prompt        string              `json:"prompt,omitempty"`
	Rounds        int                 `json:"rounds"`
	StartedAt     time.Time           `json:"started_at"`
	SolvedAt      time.Time           `json:"solved_at"`
	ExpiresAt     time.Time           `json:"expires_at"`
}

// Expired 报告令牌在 now 时是否已过期
func (r CaptchaResponse) Expired(now time.Time) bool {
	return !now.Before(r.ExpiresAt)
}

// Record 序列化为结构化记录，供调用方持久化
func (r CaptchaResponse) Record() ([]byte, error) {
	return json.Marshal(r)
}

// Outcome 会话的终态记录
type Outcome struct {
	SessionID string           `json:"session_id"`
	State     State            `json:"state"`
	Reason    error            `json:"-"`
	Rounds    int              `json:"rounds"`
	Response  *CaptchaResponse `json:"response,omitempty"`
}

// Resolved 报告会话是否拿到令牌
func (o *Outcome) Resolved() bool {
	return o != nil && o.State == StateResolved
}
