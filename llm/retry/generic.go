package retry

import "context"

// DoWithResultTyped 是 Retryer.DoWithResult 的泛型包装，省去类型断言。
// fn 返回 nil 指针等零值时结果也是零值。
//
//	sol, err := retry.DoWithResultTyped[*Solution](r, ctx, func() (*Solution, error) {
//	    return infer(ctx)
//	})
func DoWithResultTyped[T any](r Retryer, ctx context.Context, fn func() (T, error)) (T, error) {
	var zero T
	result, err := r.DoWithResult(ctx, func() (any, error) {
		return fn()
	})
	if err != nil {
		return zero, err
	}
	v, ok := result.(T)
	if !ok {
		return zero, nil
	}
	return v, nil
}
