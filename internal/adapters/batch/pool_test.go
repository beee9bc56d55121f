package batch_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/okian/rankpoints/internal/adapters/batch"
	"github.com/okian/rankpoints/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func TestPoolRun(t *testing.T) {
	convey.Convey("Given a pool of four workers", t, func() {
		pool := batch.NewPool(4, batch.WithName("test-batch"), batch.WithLogger(logger.Nop()))
		ctx := context.Background()

		convey.Convey("When every job succeeds", func() {
			const n = 500
			var (
				mu   sync.Mutex
				seen = make(map[int]int, n)
			)
			err := pool.Run(ctx, n, func(_ context.Context, i int) error {
				mu.Lock()
				seen[i]++
				mu.Unlock()
				return nil
			})

			convey.Convey("Then each index is processed exactly once", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(seen, convey.ShouldHaveLength, n)
				for i := 0; i < n; i++ {
					convey.So(seen[i], convey.ShouldEqual, 1)
				}
			})
		})

		convey.Convey("When a job fails", func() {
			boom := errors.New("boom")
			var processed atomic.Int64
			err := pool.Run(ctx, 1000, func(_ context.Context, i int) error {
				processed.Add(1)
				if i == 3 {
					return boom
				}
				return nil
			})

			convey.Convey("Then the error names the record and the feed stops early", func() {
				convey.So(errors.Is(err, boom), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "record 3")
				convey.So(processed.Load(), convey.ShouldBeLessThan, 1000)
			})
		})

		convey.Convey("When the context is cancelled before the run", func() {
			cancelled, cancel := context.WithCancel(ctx)
			cancel()
			var processed atomic.Int64
			err := pool.Run(cancelled, 100, func(_ context.Context, _ int) error {
				processed.Add(1)
				return nil
			})

			convey.Convey("Then the run reports cancellation", func() {
				convey.So(errors.Is(err, context.Canceled), convey.ShouldBeTrue)
				convey.So(processed.Load(), convey.ShouldBeLessThan, 100)
			})
		})

		convey.Convey("When the context expires mid-run", func() {
			short, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
			defer cancel()
			err := pool.Run(short, 10_000, func(c context.Context, _ int) error {
				select {
				case <-c.Done():
					return c.Err()
				case <-time.After(time.Millisecond):
					return nil
				}
			})

			convey.Convey("Then the deadline error is surfaced", func() {
				convey.So(errors.Is(err, context.DeadlineExceeded), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When there is nothing to do", func() {
			convey.So(pool.Run(ctx, 0, func(context.Context, int) error { return errors.New("unreachable") }), convey.ShouldBeNil)
		})

		convey.Convey("When the job is nil", func() {
			convey.So(errors.Is(pool.Run(ctx, 3, nil), batch.ErrNilJob), convey.ShouldBeTrue)
		})
	})

	convey.Convey("Given a non-positive worker count", t, func() {
		pool := batch.NewPool(0)

		convey.Convey("Then at least one worker is used", func() {
			convey.So(pool.Workers(), convey.ShouldBeGreaterThanOrEqualTo, 1)
		})
	})
}

func TestPoolBoundsConcurrency(t *testing.T) {
	convey.Convey("Given a pool of two workers", t, func() {
		pool := batch.NewPool(2, batch.WithLogger(logger.Nop()))

		convey.Convey("When jobs block briefly", func() {
			var current, peak atomic.Int64
			err := pool.Run(context.Background(), 20, func(context.Context, int) error {
				n := current.Add(1)
				for {
					p := peak.Load()
					if n <= p || peak.CompareAndSwap(p, n) {
						break
					}
				}
				time.Sleep(2 * time.Millisecond)
				current.Add(-1)
				return nil
			})

			convey.Convey("Then no more than two run at once", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(peak.Load(), convey.ShouldBeLessThanOrEqualTo, 2)
				convey.So(peak.Load(), convey.ShouldBeGreaterThanOrEqualTo, 1)
			})
		})
	})
}
