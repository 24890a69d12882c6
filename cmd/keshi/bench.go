package main

import (
	"context"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jmgilman/go/errors"
	cache "github.com/krisalay/keshi"
	"github.com/krisalay/keshi/metrics"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

var (
	benchGoroutines int
	benchOps        int
	benchKeys       int
	benchRate       float64

	benchCmd = &cobra.Command{
		Use:   "bench",
		Short: "Hammer the cache with concurrent resolves and report throughput",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if benchGoroutines <= 0 || benchOps <= 0 || benchKeys <= 0 {
				return errors.New(errors.CodeInvalidInput, "goroutines, ops and keys must be positive")
			}

			m := &metrics.Counting{}
			c, closer, err := openCache(m)
			if err != nil {
				return err
			}
			defer closer.Close()
			defer c.Teardown()

			return runBench(cmd.Context(), c, m)
		},
	}
)

func init() {
	benchCmd.Flags().IntVar(&benchGoroutines, "goroutines", 200, "concurrent workers")
	benchCmd.Flags().IntVar(&benchOps, "ops", 5000, "resolves per worker")
	benchCmd.Flags().IntVar(&benchKeys, "keys", 100000, "distinct keys")
	benchCmd.Flags().Float64Var(&benchRate, "rate", 0, "overall resolves per second (0 means unlimited)")
}

func runBench(ctx context.Context, c *cache.Cache, m *metrics.Counting) error {
	fmt.Println("\n================ CACHE LOAD BENCHMARK =================")
	fmt.Println("Goroutines   :", humanize.Comma(int64(benchGoroutines)))
	fmt.Println("Ops/Goroutine:", humanize.Comma(int64(benchOps)))
	fmt.Println("Keys         :", humanize.Comma(int64(benchKeys)))

	produce := func(key string) cache.Producer {
		return func(context.Context) (any, error) { return len(key), nil }
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if benchRate > 0 {
		limiter = rate.NewLimiter(rate.Limit(benchRate), benchGoroutines)
	}

	start := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < benchGoroutines; i++ {
		offset := i
		g.Go(func() error {
			for j := 0; j < benchOps; j++ {
				if err := limiter.Wait(gctx); err != nil {
					return err
				}
				key := fmt.Sprintf("key-%d", (offset+j)%benchKeys)
				if _, _, err := c.Resolve(gctx, key, produce(key), "1m"); err != nil {
					return err
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	elapsed := time.Since(start)
	total := int64(benchGoroutines) * int64(benchOps)

	fmt.Println("\n================ RESULTS =================")
	fmt.Printf("Total Operations : %s\n", humanize.Comma(total))
	fmt.Printf("Total Time       : %v\n", elapsed)
	fmt.Printf("Throughput       : %s ops/sec\n", humanize.CommafWithDigits(float64(total)/elapsed.Seconds(), 2))
	printMetrics(m.Snapshot())
	return nil
}
