// Worker runs the asynchronous side of the pipeline: the queue consumer,
// the file-drop watcher and dead-letter maintenance.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/floorcraft/floorplan-backend/internal/queue"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "worker",
		Short:         "Floor plan pipeline worker",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	var replayFor time.Duration
	replayCmd := &cobra.Command{
		Use:   "replay-dlq",
		Short: "Move dead-lettered events back onto the main topic",
		RunE: func(c *cobra.Command, _ []string) error {
			return withRuntime(c.Context(), false, sharedQueue(func(ctx context.Context, rt *runtime) error {
				ctx, cancel := context.WithTimeout(ctx, replayFor)
				defer cancel()
				n, err := queue.ReplayDeadLetters(ctx, rt.broker, rt.cfg.Queue.Topic, rt.cfg.Queue.Group+"-replay", rt.log)
				rt.log.Info("dead letter replay finished", zap.Int("replayed", n))
				return err
			}))
		},
	}
	replayCmd.Flags().DurationVar(&replayFor, "for", 30*time.Second, "How long to drain the dead-letter topic")

	rootCmd.AddCommand(
		&cobra.Command{
			Use:   "consume",
			Short: "Consume customization events and apply them to the database",
			RunE: func(c *cobra.Command, _ []string) error {
				return withRuntime(c.Context(), false, sharedQueue(runConsume))
			},
		},
		&cobra.Command{
			Use:   "watch",
			Short: "Import file-drop batches on the FILEDROP_SCHEDULE cron schedule",
			RunE: func(c *cobra.Command, _ []string) error {
				return withRuntime(c.Context(), true, runWatch)
			},
		},
		&cobra.Command{
			Use:   "import",
			Short: "Scan the file drop once and exit",
			RunE: func(c *cobra.Command, _ []string) error {
				return withRuntime(c.Context(), true, sharedQueue(runImport))
			},
		},
		replayCmd,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "worker:", err)
		os.Exit(1)
	}
}
