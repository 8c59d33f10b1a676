package agent

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// RunConcurrent 并行运行多个互不相关的会话，返回的 Outcome 与 agents 一一对应。
// 某个会话返回错误不会取消其它会话，返回第一个错误。
func RunConcurrent(ctx context.Context, agents ...*Agent) ([]*Outcome, error) {
	outcomes := make([]*Outcome, len(agents))

	var g errgroup.Group
	for i, a := range agents {
		g.Go(func() error {
			out, err := a.Run(ctx)
			outcomes[i] = out
			if err != nil {
				return fmt.Errorf("session %d: %w", i, err)
			}
			return nil
		})
	}
	return outcomes, g.Wait()
}
