package cli

import (
	"github.com/spf13/cobra"

	"github.com/example/refab/internal/wire"
)

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "View the scheduling log",
	Long:  "View release summaries and raw optimizer runs, newest first.",
	RunE: func(cmd *cobra.Command, args []string) error {
		factory, err := resolveFactory(cmd)
		if err != nil {
			return err
		}
		limit, _ := cmd.Flags().GetInt("limit")

		_, err = wire.LogAdapter().Tail(NewContext(), factory, limit)
		return err
	},
}

// LogCmd returns the log command.
func LogCmd() *cobra.Command {
	logCmd.Flags().StringP("factory", "f", "", "factory ID (default from config)")
	logCmd.Flags().IntP("limit", "n", 20, "number of entries to show")
	return logCmd
}
