// Package ctxkeys 定义跨组件传递的 context 键，用于日志关联会话与回合。
package ctxkeys

import (
	"context"

	"go.uber.org/zap"
)

// contextKey 用于在 context 中存储值的键类型
type contextKey string

const (
	sessionIDKey contextKey = "session_id"
	roundKey     contextKey = "round"
)

// WithSessionID 设置会话 ID
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, sessionIDKey, sessionID)
}

// SessionID 获取会话 ID
func SessionID(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(sessionIDKey).(string)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// WithRound 设置回合序号（从 1 开始）
func WithRound(ctx context.Context, round int) context.Context {
	return context.WithValue(ctx, roundKey, round)
}

// Round 获取回合序号
func Round(ctx context.Context) (int, bool) {
	v, ok := ctx.Value(roundKey).(int)
	if !ok || v <= 0 {
		return 0, false
	}
	return v, true
}

// Fields 返回 ctx 中已设置的关联字段
func Fields(ctx context.Context) []zap.Field {
	var fields []zap.Field
	if id, ok := SessionID(ctx); ok {
		fields = append(fields, zap.String("session_id", id))
	}
	if round, ok := Round(ctx); ok {
		fields = append(fields, zap.Int("round", round))
	}
	return fields
}
