package cache

import (
	"context"

	"github.com/BaSui01/challenger/agent/reasoning"
)

// AnswerCache 在 Redis 中缓存推理答案，实现 reasoning.Cache
type AnswerCache struct {
	m *Manager
}

var _ reasoning.Cache = (*AnswerCache)(nil)

// NewAnswerCache 创建答案缓存
func NewAnswerCache(m *Manager) *AnswerCache {
	return &AnswerCache{m: m}
}

// Get 读取答案，未命中时返回 (nil, false, nil)
func (c *AnswerCache) Get(ctx context.Context, key string) (*reasoning.Solution, bool, error) {
	var sol reasoning.Solution
	err := c.m.GetJSON(ctx, c.m.Key("answer", key), &sol)
	if IsCacheMiss(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return &sol, true, nil
}

// Set 写入答案，过期时间取 AnswerTTL
func (c *AnswerCache) Set(ctx context.Context, key string, sol *reasoning.Solution) error {
	return c.m.SetJSON(ctx, c.m.Key("answer", key), sol, c.m.config.AnswerTTL)
}
