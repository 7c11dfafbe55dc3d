package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"mediasort/internal/logs"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var file string
	var lines int
	var follow bool

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show the log of the most recent run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			path := strings.TrimSpace(file)
			if path == "" {
				if path, err = logs.Latest(cfg.Paths.LogDir); err != nil {
					return err
				}
			}
			if lines < 0 {
				return fmt.Errorf("--lines must not be negative")
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			out := cmd.OutOrStdout()
			fmt.Fprintf(cmd.ErrOrStderr(), "==> %s <==\n", path)
			return logs.Tail(runCtx, path, logs.TailOptions{Lines: lines, Follow: follow}, func(line string) {
				fmt.Fprintln(out, line)
			})
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "Log file to show instead of the newest run log")
	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of trailing lines to show")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep printing new lines until interrupted")
	return cmd
}
