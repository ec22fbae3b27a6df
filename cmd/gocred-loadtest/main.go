// Command gocred-loadtest measures signin and resolve latency of an
// in-process engine in both credential modes.
package main

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/pflag"

	goCred "github.com/MrEthical07/goCred"
	"github.com/MrEthical07/goCred/store/memory"
)

var secret = []byte("gocred-loadtest-secret-0123456789abcdef")

type options struct {
	users       int
	concurrency int
	ops         int
	modes       []string
	sessions    string
	redisAddr   string
}

func main() {
	var opts options
	fs := pflag.NewFlagSet("gocred-loadtest", pflag.ExitOnError)
	fs.IntVar(&opts.users, "users", 500, "number of users to seed")
	fs.IntVar(&opts.concurrency, "concurrency", 64, "number of concurrent workers")
	fs.IntVar(&opts.ops, "ops", 20000, "operations per phase (signin, resolve)")
	fs.StringSliceVar(&opts.modes, "mode", []string{"stateless", "opaque"}, "credential modes to measure")
	fs.StringVar(&opts.sessions, "sessions", "memory", "opaque session backend: memory or redis")
	fs.StringVar(&opts.redisAddr, "redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
	_ = fs.Parse(os.Args[1:])

	if opts.users <= 0 || opts.concurrency <= 0 || opts.ops <= 0 {
		fmt.Fprintln(os.Stderr, "users, concurrency, and ops must be > 0")
		os.Exit(2)
	}

	if err := run(context.Background(), os.Stdout, opts); err != nil {
		fmt.Fprintf(os.Stderr, "loadtest failed: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, out io.Writer, opts options) error {
	for _, name := range opts.modes {
		var mode goCred.CredentialMode
		if err := mode.UnmarshalText([]byte(name)); err != nil {
			return err
		}
		if err := runMode(ctx, out, mode, opts); err != nil {
			return fmt.Errorf("%s: %w", mode, err)
		}
	}
	return nil
}

func runMode(ctx context.Context, out io.Writer, mode goCred.CredentialMode, opts options) error {
	store := memory.New()
	defer store.Close()

	cfg := goCred.DefaultConfig()
	cfg.Mode = mode
	cfg.Token.Secret = secret
	cfg.Metrics.EnableLatencyHistograms = false

	builder := goCred.New().WithConfig(cfg).WithUserStore(store)
	if mode == goCred.ModeOpaque && opts.sessions == "redis" {
		client, cleanup, err := redisClient(out, opts.redisAddr)
		if err != nil {
			return err
		}
		defer cleanup()
		builder = builder.WithRedis(client)
	}

	engine, err := builder.Build()
	if err != nil {
		return err
	}
	defer engine.Close()

	fmt.Fprintf(out, "==== %s ====\n", mode)
	fmt.Fprintf(out, "seeding %d users...\n", opts.users)
	startSeed := time.Now()
	emails := make([]string, opts.users)
	for i := range emails {
		emails[i] = fmt.Sprintf("user-%d@load.test", i)
		if _, err := engine.Signup(ctx, goCred.SignupRequest{
			Name:     fmt.Sprintf("User %d", i),
			Email:    emails[i],
			Password: passwordFor(i),
		}); err != nil {
			return fmt.Errorf("seed user %d: %w", i, err)
		}
	}
	fmt.Fprintf(out, "seeded in %s\n", time.Since(startSeed).Round(time.Millisecond))

	var credMu sync.Mutex
	credentials := make([]string, len(emails))
	signinStats := runPhase(opts.ops, opts.concurrency, 7919, func(r *rand.Rand) error {
		idx := r.Intn(len(emails))
		res, err := engine.Signin(ctx, emails[idx], passwordFor(idx))
		if err != nil {
			return err
		}
		credMu.Lock()
		credentials[idx] = res.Credential
		credMu.Unlock()
		return nil
	})

	// Fill the gaps the random signin phase left.
	for i, c := range credentials {
		if c != "" {
			continue
		}
		res, err := engine.Signin(ctx, emails[i], passwordFor(i))
		if err != nil {
			return fmt.Errorf("signin user %d: %w", i, err)
		}
		credentials[i] = res.Credential
	}

	resolveStats := runPhase(opts.ops, opts.concurrency, 6151, func(r *rand.Rand) error {
		_, err := engine.Resolve(ctx, credentials[r.Intn(len(credentials))])
		return err
	})

	fmt.Fprintln(out, "---- results ----")
	printStats(out, "signin", signinStats)
	printStats(out, "resolve", resolveStats)
	return nil
}

func redisClient(out io.Writer, addr string) (redis.UniversalClient, func(), error) {
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}
	if addr != "" {
		client := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{addr}})
		fmt.Fprintf(out, "using redis at %s\n", addr)
		return client, func() { _ = client.Close() }, nil
	}

	mr, err := miniredis.Run()
	if err != nil {
		return nil, nil, fmt.Errorf("start miniredis: %w", err)
	}
	client := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{mr.Addr()}})
	fmt.Fprintf(out, "using miniredis at %s\n", mr.Addr())
	return client, func() {
		_ = client.Close()
		mr.Close()
	}, nil
}

// runPhase runs op ops times across concurrency workers and records the
// latency of each call. Workers share a cursor so the total is exact.
func runPhase(ops, concurrency int, seed int64, op func(r *rand.Rand) error) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, ops)
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(worker)*seed))
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				t0 := time.Now()
				err := op(r)
				d := time.Since(t0)
				if err != nil {
					atomic.AddInt64(&failures, 1)
				}
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()
	return computeStats(time.Since(start), latencies, failures)
}

func passwordFor(i int) string {
	return fmt.Sprintf("pw-%d-load", i)
}
