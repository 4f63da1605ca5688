package main

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	logFormatFlag   = "log-format"
	logLevelFlag    = "log-level"
	metricsAddrFlag = "metrics-addr"
	workersFlag     = "workers"
	iterationsFlag  = "iterations"
	durationFlag    = "duration"
	sizeFlag        = "size"
	thresholdFlag   = "gateway-threshold"
	timeoutFlag     = "timeout"
	seedFlag        = "seed"
)

// newRootCommand lets every subcommand read its settings from flags or from
// environment variables prefixed with PIPESTRESS, in that order.
func newRootCommand() *cobra.Command {
	viper.SetEnvPrefix("PIPESTRESS")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	cmd := &cobra.Command{
		Use:          "pipestress",
		Short:        "Stress the pipework locking and rendezvous protocols",
		SilenceUsage: true,
	}

	flags := cmd.PersistentFlags()
	flags.String(logFormatFlag, "text", "log format: 'text' or 'json'")
	flags.String(logLevelFlag, "info", "log level: 'none', 'debug', 'info', 'warn', 'error', 'panic' or 'fatal'")
	flags.String(metricsAddrFlag, "", "serve prometheus metrics on this address while running (e.g. ':2112')")
	flags.Int(workersFlag, 4, "number of concurrent workers")
	flags.Int(iterationsFlag, 1000, "operations per worker")
	flags.Duration(durationFlag, 0, "stop after this long even if workers are not finished (0 means no limit)")
	flags.Int(sizeFlag, 16, "number of resources or pipes in the scenario")
	flags.Int(thresholdFlag, 100, "failed acquisitions before the resource gateway closes")
	flags.Int64(seedFlag, 1, "random seed")

	// NOTE: if you add a new flag here, bind it below too.
	cmd.PersistentPreRun = bindFlagsFunc(flags,
		logFormatFlag,
		logLevelFlag,
		metricsAddrFlag,
		workersFlag,
		iterationsFlag,
		durationFlag,
		sizeFlag,
		thresholdFlag,
		seedFlag,
	)

	return cmd
}

func bindFlagsFunc(flags *pflag.FlagSet, names ...string) func(*cobra.Command, []string) {
	return func(cmd *cobra.Command, args []string) {
		for _, name := range names {
			mustBindPFlag(name, flags.Lookup(name))
		}
	}
}

// mustBindPFlag binds key to a cobra flag and panics if that fails.
func mustBindPFlag(key string, flag *pflag.Flag) {
	if err := viper.BindPFlag(key, flag); err != nil {
		panic("failed to bind pflag: " + err.Error())
	}
}
