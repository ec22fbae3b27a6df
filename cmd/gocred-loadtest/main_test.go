package main

import (
	"bytes"
	"context"
	"errors"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunBothModes(t *testing.T) {
	var out bytes.Buffer
	err := run(context.Background(), &out, options{
		users:       5,
		concurrency: 4,
		ops:         40,
		modes:       []string{"stateless", "opaque"},
		sessions:    "redis",
	})
	require.NoError(t, err)

	s := out.String()
	assert.Contains(t, s, "==== stateless ====")
	assert.Contains(t, s, "==== opaque ====")
	assert.Contains(t, s, "using miniredis at")
	assert.Equal(t, 4, strings.Count(s, "ops=40 failures=0"))
}

func TestRunRejectsUnknownMode(t *testing.T) {
	err := run(context.Background(), &bytes.Buffer{}, options{users: 1, concurrency: 1, ops: 1, modes: []string{"cookie"}})
	require.Error(t, err)
}

func TestRunPhaseCountsFailures(t *testing.T) {
	n := 0
	stats := runPhase(10, 1, 1, func(*rand.Rand) error {
		n++
		if n%2 == 0 {
			return errors.New("fail")
		}
		return nil
	})
	assert.Equal(t, 10, stats.ops)
	assert.EqualValues(t, 5, stats.failures)
}

func TestPercentile(t *testing.T) {
	samples := []time.Duration{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	assert.Equal(t, time.Duration(1), percentile(samples, 0))
	assert.Equal(t, time.Duration(5), percentile(samples, 50))
	assert.Equal(t, time.Duration(10), percentile(samples, 100))
	assert.Zero(t, percentile(nil, 50))

	stats := computeStats(time.Second, nil, 3)
	assert.Zero(t, stats.ops)
	assert.EqualValues(t, 3, stats.failures)
}
