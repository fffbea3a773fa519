package retry

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// StatusError 携带 HTTP 状态码的错误，用于判断是否可重试
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("http %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("http %d", e.StatusCode)
}

// Retryable 返回该错误是否值得重试
// 只有限流（429）和服务端错误（5xx）会重试，客户端错误立即失败
func Retryable(err error) bool {
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode == http.StatusTooManyRequests || se.StatusCode >= 500
	}
	return false
}

// Options 重试参数
type Options struct {
	MaxRetries   int           // 首次调用之外的最大重试次数
	InitialDelay time.Duration // 首次重试前的等待时间，之后每次翻倍
	Retryable    func(error) bool
}

func defaults(opts *Options) {
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 3
	}
	if opts.InitialDelay <= 0 {
		opts.InitialDelay = time.Second
	}
	if opts.Retryable == nil {
		opts.Retryable = Retryable
	}
}

// Do 执行 fn 并在可重试错误上按指数退避重试
// 不可重试的错误立即返回，ctx 取消时返回 ctx.Err()
func Do[T any](ctx context.Context, opts Options, fn func(ctx context.Context) (T, error)) (T, error) {
	defaults(&opts)

	var zero T
	delay := opts.InitialDelay
	var lastErr error
	for attempt := 0; attempt <= opts.MaxRetries; attempt++ {
		if attempt > 0 {
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return zero, ctx.Err()
			case <-timer.C:
			}
			delay *= 2
		}

		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}
		if !opts.Retryable(err) {
			return zero, err
		}
		lastErr = err
	}
	return zero, lastErr
}
