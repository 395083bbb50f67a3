package gemini

import (
	"context"
	"errors"
	"sync"
	"time"
)

var errLimiterClosed = errors.New("gemini rate limiter closed")

// newTokenBucket returns nil (no limiting) when rpm is negative.
func newTokenBucket(rpm int, burst int) *tokenBucket {
	if rpm == 0 {
		rpm = 60
	}
	if rpm < 0 {
		return nil
	}
	if burst <= 0 {
		burst = 5
	}
	return newTokenBucketWithRate(rpm, burst)
}

// tokenBucket admits up to burst requests at once and refills one token
// every minute/rpm. A refill goroutine runs until Close.
type tokenBucket struct {
	tokens chan struct{}
	stop   chan struct{}
	once   sync.Once
}

func newTokenBucketWithRate(rpm int, burst int) *tokenBucket {
	bucket := &tokenBucket{
		tokens: make(chan struct{}, burst),
		stop:   make(chan struct{}),
	}

	for i := 0; i < burst; i++ {
		bucket.tokens <- struct{}{}
	}

	interval := time.Minute / time.Duration(rpm)
	if interval <= 0 {
		interval = time.Millisecond
	}

	go bucket.refill(interval)
	return bucket
}

func (b *tokenBucket) refill(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-b.stop:
			return
		case <-ticker.C:
			select {
			case b.tokens <- struct{}{}:
			default:
			}
		}
	}
}

// Wait blocks until a token is available. It fails with ctx.Err() when ctx
// ends first and with errLimiterClosed once the bucket is closed.
func (b *tokenBucket) Wait(ctx context.Context) error {
	select {
	case <-b.stop:
		return errLimiterClosed
	default:
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-b.stop:
		return errLimiterClosed
	case <-b.tokens:
		return nil
	}
}

// Close stops the refill goroutine. Safe to call more than once.
func (b *tokenBucket) Close() {
	b.once.Do(func() { close(b.stop) })
}
