package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/refab/internal/cli"
	"github.com/example/refab/internal/version"
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "refab",
		Short:   "refab - staged release scheduler for reassembly factories",
		Version: version.String(),
		Long: `refab schedules order release through the pre-acceptance (pap),
pre-inspection (pip) and post-inspection (pipo) stage queues of a
reassembly factory. Time is simulation minutes supplied by the caller;
an external optimizer may reorder batches, attach ETAs and place holds.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cli.DetectAndStoreActor()
		},
	}

	rootCmd.AddCommand(cli.EnqueueCmd())
	rootCmd.AddCommand(cli.ReleaseCmd())
	rootCmd.AddCommand(cli.BatchCheckCmd())
	rootCmd.AddCommand(cli.StatusCmd())
	rootCmd.AddCommand(cli.HoldCmd())
	rootCmd.AddCommand(cli.ConfigCmd())
	rootCmd.AddCommand(cli.LogCmd())
	rootCmd.AddCommand(cli.ClearCmd())
	rootCmd.AddCommand(cli.SimulateCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
