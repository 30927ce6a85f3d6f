package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"ticksched/internal/kernel"
	"ticksched/internal/sched"
)

func newRunCmd() *cobra.Command {
	var (
		configPath string
		ticks      int
		tickMS     int
		traceCSV   string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Boot the configured tasks and run the scheduler",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := kernel.Load(configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("ticks") {
				cfg.Ticks = ticks
			}
			if cmd.Flags().Changed("tick-ms") && tickMS > 0 {
				cfg.TickMS = tickMS
			}
			if traceCSV != "" {
				cfg.TraceCSV = traceCSV
			}

			logger := newLogger(cmd, cfg.Log.Level, cfg.Log.Format)

			k, err := kernel.New(cfg, logger)
			if err != nil {
				return err
			}
			if err := k.Boot(); err != nil {
				logger.Warn("boot finished with errors", "err", err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			runErr := k.Run(ctx)
			printSummary(cmd, k)
			return runErr
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "config.yml", "Path to the YAML config")
	cmd.Flags().IntVar(&ticks, "ticks", 0, "Number of timer ticks to run (0 = until interrupted)")
	cmd.Flags().IntVar(&tickMS, "tick-ms", 0, "Timer period in milliseconds")
	cmd.Flags().StringVar(&traceCSV, "trace-csv", "", "Write every scheduler event to this CSV file")
	return cmd
}

func printSummary(cmd *cobra.Command, k *kernel.Kernel) {
	out := cmd.OutOrStdout()

	dispatches := make(map[sched.TaskID]int64)
	for _, tally := range k.Recorder().Summary() {
		dispatches[tally.ID] = tally.Dispatches
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSLOT\tSTATUS\tTICKS\tDISPATCHES\tPENDING\tEIP")
	for _, t := range k.Scheduler().Snapshot() {
		index, _ := k.Scheduler().FindIndex(t.ID)
		fmt.Fprintf(w, "%d\t%d\t%s\t%d\t%d\t%d\t%#08x\n",
			t.ID, index, t.Status, t.ElapsedTicks, dispatches[t.ID], t.PendingMessages, t.Seg.EIP)
	}
	w.Flush()

	fmt.Fprintf(out, "ticks: %d  idle: %d  dropped: %d  unread keys: %d\n",
		k.Tick(), k.Recorder().Idle(), k.Router().Dropped(), k.Machine().Keyboard.Pending())
	if tty := k.TTYOutput(); len(tty) > 0 {
		fmt.Fprintf(out, "tty: %q\n", tty)
	}
}

// Execute runs the root command with ctx.
func Execute(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}
