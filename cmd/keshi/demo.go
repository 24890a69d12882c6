package main

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jmgilman/go/errors"
	cache "github.com/krisalay/keshi"
	"github.com/krisalay/keshi/metrics"
	"github.com/spf13/cobra"
)

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Walk through resolve, expiry, deduplication and deletion",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		m := &metrics.Counting{}
		c, closer, err := openCache(m)
		if err != nil {
			return err
		}
		defer closer.Close()
		defer c.Teardown()

		if err := runDemo(cmd.Context(), c); err != nil {
			return err
		}
		printMetrics(m.Snapshot())
		return nil
	},
}

func step(title string) {
	fmt.Printf("\n==================== %s ====================\n", title)
}

func runDemo(ctx context.Context, c *cache.Cache) error {
	var loads atomic.Int64
	load := func(v any) cache.Producer {
		return func(context.Context) (any, error) {
			loads.Add(1)
			fmt.Println("PRODUCER → computing value")
			return v, nil
		}
	}

	step("1) MISS")
	v, _, err := c.Resolve(ctx, "hello", load("world"), nil)
	if err != nil {
		return err
	}
	fmt.Println("CACHE    → RESOLVE hello =", v)

	step("2) HIT")
	v, _, err = c.Resolve(ctx, "hello", load("ignored"), nil)
	if err != nil {
		return err
	}
	fmt.Println("CACHE    → RESOLVE hello =", v)

	step("3) TTL EXPIRATION")
	if _, _, err := c.Resolve(ctx, "n", load(5), "300ms"); err != nil {
		return err
	}
	fmt.Println("CACHE    → RESOLVE n (expiresIn = \"300ms\")")
	time.Sleep(400 * time.Millisecond)
	_, found, err := c.Resolve(ctx, "n", nil, nil)
	if err != nil {
		return err
	}
	fmt.Println("CACHE    → n found after TTL =", found)

	step("4) PREDICATE")
	invalidated := false
	if err := c.Set(ctx, "flag", "on", func() bool { return invalidated }); err != nil {
		return err
	}
	invalidated = true
	_, found, err = c.Resolve(ctx, "flag", nil, nil)
	if err != nil {
		return err
	}
	fmt.Println("CACHE    → flag found after invalidation =", found)

	step("5) DEDUPLICATION")
	slow := func(context.Context) (any, error) {
		loads.Add(1)
		time.Sleep(100 * time.Millisecond)
		return "shared", nil
	}
	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			val, _, err := c.Resolve(ctx, "b", slow, "1m")
			fmt.Printf("GOROUTINE-%d → RESOLVE b = %v (err: %v)\n", id, val, err)
		}(i)
	}
	wg.Wait()

	step("6) FAILURE")
	_, _, err = c.Resolve(ctx, "broken", func(context.Context) (any, error) {
		return nil, errors.New(errors.CodeNetwork, "backend unavailable")
	}, nil)
	fmt.Println("CACHE    → RESOLVE broken error =", err)
	_, found, err = c.Resolve(ctx, "broken", nil, nil)
	if err != nil {
		return err
	}
	fmt.Println("CACHE    → broken cached =", found)

	step("7) PREFIX DELETE")
	for _, k := range []string{"a.x", "a.y", "b.x"} {
		if err := c.Set(ctx, k, k, nil); err != nil {
			return err
		}
	}
	if err := c.Delete(ctx, "a.", true); err != nil {
		return err
	}
	for _, k := range []string{"a.x", "a.y", "b.x"} {
		_, found, err := c.Resolve(ctx, k, nil, nil)
		if err != nil {
			return err
		}
		fmt.Printf("CACHE    → %s present = %v\n", k, found)
	}

	step("8) CLEAR")
	if err := c.Clear(ctx); err != nil {
		return err
	}
	_, found, err = c.Resolve(ctx, "hello", nil, nil)
	if err != nil {
		return err
	}
	fmt.Println("CACHE    → hello present after clear =", found)

	fmt.Printf("\nPRODUCER → ran %s times\n", humanize.Comma(loads.Load()))
	return nil
}

func printMetrics(s metrics.Snapshot) {
	step("METRICS")
	fmt.Printf("HITS      : %s\n", humanize.Comma(s.Hits))
	fmt.Printf("MISSES    : %s\n", humanize.Comma(s.Misses))
	fmt.Printf("EXPIRED   : %s\n", humanize.Comma(s.Expired))
	fmt.Printf("SHARED    : %s\n", humanize.Comma(s.Shares))
	fmt.Printf("FAILURES  : %s\n", humanize.Comma(s.Failures))
	fmt.Printf("SWEPT     : %s (%s passes)\n", humanize.Comma(s.Swept), humanize.Comma(s.Sweeps))
	fmt.Printf("HIT RATIO : %.1f%%\n", s.HitRatio()*100)
}
