package cache

import (
	"context"
)

// ResponseSink 把成功会话的记录追加到 Redis 列表，列表保留 ResponseTTL
type ResponseSink struct {
	m *Manager
}

// NewResponseSink 创建结果下游
func NewResponseSink(m *Manager) *ResponseSink {
	return &ResponseSink{m: m}
}

// Push 追加一条记录到全局列表与会话列表
func (s *ResponseSink) Push(ctx context.Context, sessionID string, record []byte) error {
	ttl := s.m.config.ResponseTTL
	if err := s.m.Append(ctx, s.m.Key("responses"), record, ttl); err != nil {
		return err
	}
	return s.m.Append(ctx, s.m.Key("responses", sessionID), record, ttl)
}

// Records 返回全局列表中尚未过期的记录，按写入顺序
func (s *ResponseSink) Records(ctx context.Context) ([][]byte, error) {
	return s.records(ctx, s.m.Key("responses"))
}

// SessionRecords 返回某个会话的记录
func (s *ResponseSink) SessionRecords(ctx context.Context, sessionID string) ([][]byte, error) {
	return s.records(ctx, s.m.Key("responses", sessionID))
}

func (s *ResponseSink) records(ctx context.Context, key string) ([][]byte, error) {
	vals, err := s.m.List(ctx, key)
	if err != nil {
		return nil, err
	}
	out := make([][]byte, len(vals))
	for i, v := range vals {
		out[i] = []byte(v)
	}
	return out, nil
}
