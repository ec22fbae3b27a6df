// Command gocred-benchcheck compares two `go test -bench` outputs and fails
// when a tracked benchmark regressed past the threshold.
//
//	go test -run '^$' -bench . -count 5 . > new.txt
//	gocred-benchcheck --baseline old.txt --candidate new.txt
package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/pflag"
)

const defaultThreshold = 0.30

var trackedMetrics = map[string][]string{
	"BenchmarkResolveStateless": {"ns/op", "allocs/op"},
	"BenchmarkResolveOpaque":    {"ns/op", "allocs/op"},
	"BenchmarkSigninStateless":  {"ns/op"},
	"BenchmarkMetricsInc":       {"ns/op"},
}

type sampleSet map[string]map[string][]float64

var errRegression = errors.New("performance regression threshold exceeded")

func main() {
	err := run(os.Args[1:], os.Stdout, os.Stderr)
	switch {
	case err == nil:
	case errors.Is(err, errRegression):
		os.Exit(1)
	default:
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
}

func run(args []string, out, errOut io.Writer) error {
	fs := pflag.NewFlagSet("gocred-benchcheck", pflag.ContinueOnError)
	fs.SetOutput(errOut)
	baselinePath := fs.String("baseline", "", "path to baseline benchmark output")
	candidatePath := fs.String("candidate", "", "path to candidate benchmark output")
	threshold := fs.Float64("threshold", defaultThreshold, "maximum allowed regression ratio (0.30 = +30%)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *baselinePath == "" || *candidatePath == "" {
		return errors.New("--baseline and --candidate are required")
	}
	if *threshold < 0 {
		return errors.New("--threshold must be >= 0")
	}

	baseline, err := parseBenchmarkFile(*baselinePath)
	if err != nil {
		return fmt.Errorf("parse baseline: %w", err)
	}
	candidate, err := parseBenchmarkFile(*candidatePath)
	if err != nil {
		return fmt.Errorf("parse candidate: %w", err)
	}

	failures := compare(out, baseline, candidate, *threshold)
	if len(failures) > 0 {
		fmt.Fprintln(errOut, errRegression.Error()+":")
		for _, failure := range failures {
			fmt.Fprintf(errOut, "  - %s\n", failure)
		}
		return errRegression
	}
	return nil
}

// compare prints one line per tracked metric and returns the failures.
func compare(out io.Writer, baseline, candidate sampleSet, threshold float64) []string {
	benchmarks := make([]string, 0, len(trackedMetrics))
	for name := range trackedMetrics {
		benchmarks = append(benchmarks, name)
	}
	sort.Strings(benchmarks)

	var failures []string
	fmt.Fprintln(out, "perf regression check:")
	fmt.Fprintln(out, "benchmark metric baseline candidate delta")

	for _, benchmark := range benchmarks {
		for _, metric := range trackedMetrics[benchmark] {
			baseSamples := baseline[benchmark][metric]
			candidateSamples := candidate[benchmark][metric]
			if len(baseSamples) == 0 || len(candidateSamples) == 0 {
				failures = append(failures, fmt.Sprintf("missing samples for %s %s", benchmark, metric))
				continue
			}

			baseMedian := median(baseSamples)
			candidateMedian := median(candidateSamples)
			if baseMedian <= 0 {
				// 0 allocs/op stays acceptable only while it stays 0.
				if candidateMedian > 0 {
					failures = append(failures, fmt.Sprintf("%s %s grew from 0 to %.3f", benchmark, metric, candidateMedian))
				}
				fmt.Fprintf(out, "%s %s %.3f %.3f\n", benchmark, metric, baseMedian, candidateMedian)
				continue
			}

			delta := (candidateMedian - baseMedian) / baseMedian
			fmt.Fprintf(out, "%s %s %.3f %.3f %+0.2f%%\n", benchmark, metric, baseMedian, candidateMedian, delta*100)
			if delta > threshold {
				failures = append(failures, fmt.Sprintf("%s %s regressed by %+0.2f%% (limit %+0.2f%%)", benchmark, metric, delta*100, threshold*100))
			}
		}
	}
	return failures
}

func parseBenchmarkFile(path string) (sampleSet, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return parseBenchmarks(file)
}

func parseBenchmarks(r io.Reader) (sampleSet, error) {
	samples := sampleSet{}
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "Benchmark") {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) < 4 {
			continue
		}

		name := normalizeBenchmarkName(fields[0])
		if _, ok := trackedMetrics[name]; !ok {
			continue
		}

		if _, ok := samples[name]; !ok {
			samples[name] = map[string][]float64{}
		}

		for i := 2; i+1 < len(fields); i += 2 {
			value, err := strconv.ParseFloat(fields[i], 64)
			if err != nil {
				continue
			}
			unit := fields[i+1]
			samples[name][unit] = append(samples[name][unit], value)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return samples, nil
}

// normalizeBenchmarkName strips the -GOMAXPROCS suffix.
func normalizeBenchmarkName(raw string) string {
	if idx := strings.LastIndexByte(raw, '-'); idx > 0 {
		if _, err := strconv.Atoi(raw[idx+1:]); err == nil {
			return raw[:idx]
		}
	}
	return raw
}

func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	copied := make([]float64, len(values))
	copy(copied, values)
	sort.Float64s(copied)

	mid := len(copied) / 2
	if len(copied)%2 == 1 {
		return copied[mid]
	}
	return (copied[mid-1] + copied[mid]) / 2
}
