// Package perf implements the perf command, a throughput and latency test for
// lists driven from many goroutines at once.
package perf

import (
	"context"
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"slices"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ValentinKolb/dObs/cmd/util"
	"github.com/ValentinKolb/dObs/lib/collection"
	"github.com/ValentinKolb/dObs/lib/dispatch"
	libutil "github.com/ValentinKolb/dObs/lib/util"
	gometrics "github.com/rcrowley/go-metrics"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// PerfCmd represents the perf command
	PerfCmd = &cobra.Command{
		Use:     "perf",
		Short:   "Performance testing tool for observable lists",
		Long:    "",
		RunE:    run,
		PreRunE: processPerfConfig,
	}
	perfNumThreads = 4
	perfItems      = 1000
	perfPriority   = dispatch.PriorityBackground
	perfName       = "perf"
	perfSkip       = make([]string, 0)
)

func init() {
	util.SetupWorkloadFlags(PerfCmd)

	key := "skip"
	PerfCmd.Flags().String(key, "", util.WrapString("Benchmarks to skip (comma separated - e.g. add,get)"))
	key = "items"
	PerfCmd.Flags().Int(key, 1000, util.WrapString("How many items the list holds before each benchmark"))
	key = "csv"
	PerfCmd.Flags().String(key, "", util.WrapString("Optional path to save benchmark results as CSV"))
}

func processPerfConfig(cmd *cobra.Command, _ []string) error {
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}

	perfNumThreads = viper.GetInt("workers")
	perfItems = viper.GetInt("items")
	perfSkip = strings.Split(viper.GetString("skip"), ",")
	if name := viper.GetString("name"); name != "" {
		perfName = name
	}

	p, err := util.GetPriority()
	if err != nil {
		return err
	}
	perfPriority = p

	if perfNumThreads < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", perfNumThreads)
	}
	if perfItems < 1 {
		return fmt.Errorf("items must be at least 1, got %d", perfItems)
	}
	return nil
}

// --------------------------------------------------------------------------
// Benchmarks
// --------------------------------------------------------------------------

type benchmark struct {
	name     string
	observed bool
	op       func(ctx context.Context, list *collection.List[int], i int) error
}

var benchmarks = []benchmark{
	{
		name: "add",
		op: func(ctx context.Context, list *collection.List[int], i int) error {
			return list.Add(ctx, i)
		},
	},
	{
		name:     "add-observed",
		observed: true,
		op: func(ctx context.Context, list *collection.List[int], i int) error {
			return list.Add(ctx, i)
		},
	},
	{
		name: "insert-remove",
		op: func(ctx context.Context, list *collection.List[int], i int) error {
			if i%2 == 0 {
				return list.Insert(ctx, 0, i)
			}
			_, err := list.RemoveAt(ctx, 0)
			return err
		},
	},
	{
		name: "set",
		op: func(ctx context.Context, list *collection.List[int], i int) error {
			_, err := list.Set(ctx, i%perfItems, i)
			return err
		},
	},
	{
		name: "get",
		op: func(_ context.Context, list *collection.List[int], i int) error {
			list.Get(i % perfItems)
			return nil
		},
	},
	{
		name: "snapshot",
		op: func(_ context.Context, list *collection.List[int], _ int) error {
			list.Snapshot()
			return nil
		},
	},
	{
		name:     "mixed",
		observed: true,
		op: func(ctx context.Context, list *collection.List[int], i int) error {
			var err error
			switch i % 4 {
			case 0: // add
				err = list.Add(ctx, i)
			case 1: // get
				list.Get(i % perfItems)
			case 2: // set
				_, err = list.Set(ctx, i%perfItems, i)
			case 3: // remove last
				_, err = list.RemoveAt(ctx, list.Len()-1)
			}
			return err
		},
	},
}

type result struct {
	testing.BenchmarkResult
	p50, p99 time.Duration
	fairness libutil.DistributionStats
}

func run(cmd *cobra.Command, _ []string) error {
	fmt.Println("Performance testing tool for observable lists")

	fmt.Println()
	fmt.Println("Configuration:")
	fmt.Printf("Threads: %d\n", perfNumThreads)
	fmt.Printf("Items: %d\n", perfItems)
	fmt.Printf("Priority: %s\n", perfPriority)
	fmt.Println()

	fmt.Println("starting tests...")

	results := make(map[string]result)
	for _, bm := range benchmarks {
		r := runBenchmark(cmd.Context(), bm)
		results[bm.name] = r
		printResult(bm.name, r)
	}

	if csvPath := viper.GetString("csv"); csvPath != "" {
		fmt.Printf("\nExporting results to CSV: %s\n", csvPath)
		if err := writeResultsToCSV(csvPath, results); err != nil {
			return fmt.Errorf("failed to export results to CSV: %v", err)
		}
		fmt.Println("Export complete")
	}

	return nil
}

// runBenchmark runs bm against a fresh list of perfItems items owned by its own loop
func runBenchmark(ctx context.Context, bm benchmark) result {
	var (
		timer  gometrics.Timer
		counts []float64
	)

	res := testing.Benchmark(func(b *testing.B) {
		if shouldSkip(bm.name) {
			return
		}

		initial := make([]int, perfItems)
		for i := range initial {
			initial[i] = i
		}
		list := collection.From(initial,
			collection.WithName(perfName+"-"+bm.name),
			collection.WithPriority(perfPriority),
		)
		b.Cleanup(list.Close)

		if bm.observed {
			changes := gometrics.NewCounter()
			list.Subscribe(func(context.Context, collection.Change[int]) { changes.Inc(1) })
			b.Cleanup(func() {
				util.Logger.Debugf("(%s) - %d change records observed", bm.name, changes.Count())
			})
		}

		// only the last run of testing.Benchmark is reported
		if timer != nil {
			timer.Stop()
		}
		timer = gometrics.NewTimer()
		var mu sync.Mutex
		counts = counts[:0]

		b.SetParallelism(perfNumThreads)

		b.ResetTimer()

		b.RunParallel(func(pb *testing.PB) {
			counter := 0
			for pb.Next() {
				start := time.Now()
				if err := bm.op(ctx, list, counter); err != nil {
					util.Logger.Warningf("(%s) - error performing operation: %v", bm.name, err)
				}
				timer.UpdateSince(start)
				counter++
			}

			mu.Lock()
			counts = append(counts, float64(counter))
			mu.Unlock()
		})
	})

	r := result{BenchmarkResult: res}
	if timer != nil {
		ps := timer.Percentiles([]float64{0.5, 0.99})
		r.p50, r.p99 = time.Duration(ps[0]), time.Duration(ps[1])
		r.fairness = libutil.NewDistributionStats(counts)
		timer.Stop()
	}
	return r
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

func shouldSkip(test string) bool {
	return slices.Contains(perfSkip, test)
}

// printResult prints the result of a benchmark test in a formatted way
func printResult(test string, r result) {
	if r.NsPerOp() == 0 {
		fmt.Printf("%-20sskipped\n", test)
		return
	}

	nsPerOp := math.Max(float64(r.NsPerOp()), 1) // prevent division by zero
	opsPerSec := 1.0 / (nsPerOp / 1e9)

	fmt.Printf("%-20s%.0fns/op (%s/op)\t%.0f ops/sec\tp50 %s\tp99 %s\tfairness %.2f\n",
		test, nsPerOp, time.Duration(nsPerOp), opsPerSec, r.p50, r.p99, r.fairness.DistributionQuality)
}

// writeResultsToCSV writes benchmark results to a CSV file
func writeResultsToCSV(csvPath string, results map[string]result) error {
	file, err := os.Create(csvPath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %v", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{
		"Test", "NsPerOp", "DurationPerOp", "OpsPerSec", "Skipped",
		"P50", "P99", "Fairness",
		"Threads", "Items", "Priority",
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %v", err)
	}

	for test, r := range results {
		var nsPerOp float64
		var opsPerSec float64
		var skipped string

		if r.NsPerOp() == 0 {
			skipped = "true"
		} else {
			skipped = "false"
			nsPerOp = math.Max(float64(r.NsPerOp()), 1)
			opsPerSec = 1.0 / (nsPerOp / 1e9)
		}

		row := []string{
			test,
			fmt.Sprintf("%.0f", nsPerOp),
			time.Duration(nsPerOp).String(),
			fmt.Sprintf("%.0f", opsPerSec),
			skipped,
			r.p50.String(),
			r.p99.String(),
			fmt.Sprintf("%.3f", r.fairness.DistributionQuality),
			strconv.Itoa(perfNumThreads),
			strconv.Itoa(perfItems),
			perfPriority.String(),
		}

		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write row for test %s: %v", test, err)
		}
	}

	return nil
}
