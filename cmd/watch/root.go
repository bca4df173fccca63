// Package watch implements the watch command. It runs a list on the main
// goroutine, lets a group of workers mutate it and prints every change record
// in the order the owner produced it.
package watch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/ValentinKolb/dObs/cmd/util"
	"github.com/ValentinKolb/dObs/lib/collection"
	"github.com/ValentinKolb/dObs/lib/dispatch"
	"github.com/VictoriaMetrics/metrics"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

var (
	// WatchCmd represents the watch command
	WatchCmd = &cobra.Command{
		Use:   "watch",
		Short: "Mutate a list from many goroutines and print its change records",
		Long: `Mutate a list from many goroutines and print its change records.

The list is owned by the main goroutine of the command. Workers hand their
mutations to it, the owner applies them one at a time and prints the
resulting change records. The final contents are printed once all workers
are done.`,
		PreRunE: processWatchConfig,
		RunE:    run,
	}

	watchOps     = 20
	watchWorkers = 4
	watchFormat  = "text"
	watchMetrics = false
)

func init() {
	util.SetupWorkloadFlags(WatchCmd)

	key := "ops"
	WatchCmd.Flags().Int(key, 20, util.WrapString("Number of mutations each worker performs"))
	key = "format"
	WatchCmd.Flags().String(key, "text", util.WrapString("Output format of change records (text, json, yaml)"))
	key = "metrics"
	WatchCmd.Flags().Bool(key, false, util.WrapString("Print list and dispatcher metrics in Prometheus format when done"))
}

func processWatchConfig(cmd *cobra.Command, _ []string) error {
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}

	watchOps = viper.GetInt("ops")
	watchWorkers = viper.GetInt("workers")
	watchFormat = viper.GetString("format")
	watchMetrics = viper.GetBool("metrics")

	if watchWorkers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", watchWorkers)
	}
	if _, err := newPrinter(io.Discard, watchFormat); err != nil {
		return err
	}
	return nil
}

func run(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	priority, err := util.GetPriority()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	printRecord, err := newPrinter(out, watchFormat)
	if err != nil {
		return err
	}

	set := metrics.NewSet()
	loop := dispatch.NewLoop(dispatch.WithName(viper.GetString("name")), dispatch.WithMetrics(set))
	list := collection.New[int](
		collection.WithDispatcher(loop),
		collection.WithPriority(priority),
		collection.WithName(loop.Name()),
		collection.WithMetrics(set),
		collection.WithErrorHandler(func(err error) {
			util.Logger.Errorf("%v", err)
		}),
	)

	var seq atomic.Uint64
	list.Subscribe(func(_ context.Context, c collection.Change[int]) {
		if err := printRecord(record{Seq: seq.Add(1), Change: c}); err != nil {
			util.Logger.Warningf("failed to print change record: %v", err)
		}
	})
	list.SubscribeAttributes(func(_ context.Context, a collection.Attribute) {
		util.Logger.Debugf("list %s: %s changed", list.Name(), a)
	})

	util.Logger.Infof("watching list %s with %d workers (%d ops each, priority %s)", list.Name(), watchWorkers, watchOps, priority)

	g, gctx := errgroup.WithContext(ctx)
	for w := range watchWorkers {
		g.Go(func() error {
			return mutate(gctx, list, w)
		})
	}

	workersDone := make(chan error, 1)
	go func() {
		err := g.Wait()
		loop.Close()
		workersDone <- err
	}()

	// blocks until the loop is closed and every accepted mutation ran
	if err := loop.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	if err := <-workersDone; err != nil {
		return err
	}

	fmt.Fprintf(out, "\nfinal (%d items): [%s]\n", list.Len(), list)

	if watchMetrics {
		fmt.Fprintln(out)
		set.WritePrometheus(out)
	}
	return nil
}

// mutate performs watchOps random mutations. Indices are read before the
// mutation reaches the owner and may be stale by then; the list treats such
// calls as no-ops or rejects them, both of which are fine here.
func mutate(ctx context.Context, list *collection.List[int], worker int) error {
	rng := rand.New(rand.NewPCG(uint64(worker), 0))

	for i := range watchOps {
		value := worker*1000 + i
		var err error

		switch n := list.Len(); rng.IntN(6) {
		case 0:
			err = list.Add(ctx, value)
		case 1:
			err = list.Insert(ctx, rng.IntN(n+1), value)
		case 2:
			_, err = list.RemoveAt(ctx, rng.IntN(n+1))
		case 3:
			_, err = list.Set(ctx, rng.IntN(n+1), value)
		case 4:
			_, err = list.MoveAt(ctx, rng.IntN(n+1), rng.IntN(n+1))
		case 5:
			if item, ok := list.Get(rng.IntN(n + 1)); ok {
				err = list.Replace(ctx, item, value)
			}
		}

		switch {
		case err == nil:
		case errors.Is(err, collection.ErrIndexOutOfRange):
			util.Logger.Debugf("worker %d: stale index: %v", worker, err)
		case errors.Is(err, dispatch.ErrClosed), errors.Is(err, context.Canceled):
			return nil
		default:
			return fmt.Errorf("worker %d: %w", worker, err)
		}
	}
	return nil
}

// --------------------------------------------------------------------------
// Output
// --------------------------------------------------------------------------

type record struct {
	Seq                    uint64 `json:"seq" yaml:"seq"`
	collection.Change[int] `yaml:",inline"`
}

func newPrinter(w io.Writer, format string) (func(record) error, error) {
	switch format {
	case "text":
		return func(r record) error {
			_, err := fmt.Fprintf(w, "%6d  %s\n", r.Seq, r.Change)
			return err
		}, nil
	case "json":
		enc := json.NewEncoder(w)
		return func(r record) error {
			return enc.Encode(r)
		}, nil
	case "yaml":
		return func(r record) error {
			data, err := yaml.Marshal(r)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(w, "---\n%s", data)
			return err
		}, nil
	default:
		return nil, fmt.Errorf("invalid format: %s. must be one of text, json, yaml", format)
	}
}
