// cairotrace serves and inspects Cairo execution traces: it drives the Cairo
// toolchain, decodes every reachable CASM instruction and maps instructions
// back to the Sierra statements that produced them.
package main

import (
	"fmt"
	"os"

	"github.com/colorfulnotion/cairotrace/common"
	"github.com/colorfulnotion/cairotrace/log"
	"github.com/spf13/cobra"
)

type logFlags struct {
	level   string
	file    string
	modules string
}

func (f *logFlags) init() (func() error, error) {
	if _, err := log.ParseLevel(f.level); err != nil {
		return nil, err
	}
	closeFn := func() error { return nil }
	if f.file != "" {
		var err error
		closeFn, err = log.InitLoggerWithFile(f.level, f.file)
		if err != nil {
			return nil, err
		}
	} else {
		log.InitLogger(f.level)
	}
	if f.modules != "" {
		log.EnableModules(f.modules)
	}
	return closeFn, nil
}

func newRootCmd() *cobra.Command {
	var lf logFlags
	var closeLog func() error

	rootCmd := &cobra.Command{
		Use:           "cairotrace",
		Short:         "Cairo trace and debug-info correlation service",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			closeLog, err = lf.init()
			return err
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if closeLog != nil {
				return closeLog()
			}
			return nil
		},
	}
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.PersistentFlags().StringVar(&lf.level, "log-level", "info", "log level (trace, debug, info, warn, error, crit)")
	rootCmd.PersistentFlags().StringVar(&lf.file, "log-file", "", "also write JSON logs to this file")
	rootCmd.PersistentFlags().StringVar(&lf.modules, "log-modules", "", "comma separated modules to trace/debug, or \"all\"")

	rootCmd.AddCommand(newServeCmd(), newTraceCmd(), newInspectCmd(), newVersionCmd())
	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the service version and git commit",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "cairotrace %s (commit %s)\n", common.Version, common.GetCommitHash())
		},
	}
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
