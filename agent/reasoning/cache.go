package reasoning

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	"github.com/BaSui01/challenger/agent/classifier"
)

// Cache 按 (模型, 挑战指纹) 缓存已验证的答案
type Cache interface {
	Get(ctx context.Context, key string) (*Solution, bool, error)
	Set(ctx context.Context, key string, sol *Solution) error
}

// CacheKey 返回答案缓存键
func CacheKey(model string, d *classifier.Descriptor) string {
	h := sha256.New()
	h.Write([]byte(model))
	h.Write([]byte{0})
	h.Write([]byte(d.Fingerprint))
	return hex.EncodeToString(h.Sum(nil))
}
