package cmd

import (
	"fmt"
	"os"

	"github.com/ValentinKolb/dObs/cmd/perf"
	"github.com/ValentinKolb/dObs/cmd/util"
	"github.com/ValentinKolb/dObs/cmd/watch"
	"github.com/ValentinKolb/dObs/lib/common"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	Version = "0.3.0"
)

var (

	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "dobs",
		Short: "observable lists owned by a single goroutine",
		Long: fmt.Sprintf(`dObs (v%s)

A concurrency-safe, change-observable ordered list for Go. Every
mutation runs on the goroutine that owns the list and is reported to
listeners as an ordered stream of change records.`, Version),
		PersistentPreRunE: initRoot,
		SilenceUsage:      true,
	}
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of dObs",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("dObs v%s\n", Version)
		},
	}
)

func init() {
	cobra.OnInitialize(util.InitConfig)

	RootCmd.AddCommand(watch.WatchCmd)
	RootCmd.AddCommand(perf.PerfCmd)
	RootCmd.AddCommand(versionCmd)

	key := "log-level"
	RootCmd.PersistentFlags().String(key, "warn", util.WrapString("Log level (debug, info, warn, error)"))
}

func initRoot(cmd *cobra.Command, _ []string) error {
	if err := viper.BindPFlags(cmd.Root().PersistentFlags()); err != nil {
		return err
	}
	common.SetOutput(os.Stderr)
	return common.InitLoggers(viper.GetString("log-level"))
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
