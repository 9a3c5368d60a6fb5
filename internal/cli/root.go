package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mentiond/mentiond/internal/app"
	"github.com/mentiond/mentiond/internal/config"
	"github.com/mentiond/mentiond/internal/store"
)

const version = "0.1.0"

func NewRoot(logger *slog.Logger) *cobra.Command {
	root := &cobra.Command{
		Use:   "mentiond",
		Short: "mentiond polls platform mentions and replies in a configured persona",
	}

	root.AddCommand(newServeCommand(logger))
	root.AddCommand(newRunCommand(logger))
	root.AddCommand(newRecordsCommand())
	root.AddCommand(newVersionCommand())

	return root
}

func newServeCommand(logger *slog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the reply scheduler and status API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.FromEnv()
			runtime, err := app.New(cfg, logger)
			if err != nil {
				return err
			}
			defer runtime.Close()

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			return runtime.Run(ctx)
		},
	}
}

func newRunCommand(logger *slog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Execute a single mention pass and print the counters",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.FromEnv()
			runtime, err := app.New(cfg, logger)
			if err != nil {
				return err
			}
			defer runtime.Close()

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			stats, err := runtime.RunOnce(ctx)
			if err != nil {
				return err
			}
			cmd.Printf("mentions_found=%d replies_succeeded=%d replies_failed=%d\n",
				stats.MentionsFound, stats.RepliesSucceeded, stats.RepliesFailed)
			return nil
		},
	}
}

func newRecordsCommand() *cobra.Command {
	command := &cobra.Command{
		Use:   "records",
		Short: "Print recent reply records",
	}
	limit := command.Flags().Int("limit", 20, "maximum records to print")
	command.RunE = func(cmd *cobra.Command, args []string) error {
		cfg := config.FromEnv()
		sqlStore, err := store.New(cfg.DBPath)
		if err != nil {
			return err
		}
		defer sqlStore.Close()
		if err := sqlStore.AutoMigrate(cmd.Context()); err != nil {
			return err
		}

		records, err := sqlStore.ListReplyRecords(cmd.Context(), *limit)
		if err != nil {
			return err
		}
		for _, record := range records {
			cmd.Printf("%s\t%s -> %s\t%q\n",
				record.RepliedAt.Format("2006-01-02 15:04:05"),
				record.SourcePostID,
				record.ReplyPostID,
				record.ReplyPostText,
			)
		}
		return nil
	}
	return command
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print CLI version",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Println(version)
		},
	}
}
