package main

import (
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/curbside/internal/notify"
	"github.com/sells-group/curbside/pkg/simplepush"
)

var notifyOnce bool

var notifyCmd = &cobra.Command{
	Use:   "notify",
	Short: "Send sweep-tomorrow push reminders",
	Long:  "Finds callers whose recorded parking spot is swept tomorrow and pushes them a reminder. Runs on an interval unless --once is set.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if cfg.Notify.SimplePushKey == "" {
			return eris.New("notify: simplepush key is not configured")
		}

		loc, err := cfg.Region.Location()
		if err != nil {
			return err
		}

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		batch := notify.New(st,
			simplepush.NewClient(cfg.Notify.SimplePushKey),
			loc,
			notify.WithConcurrency(cfg.Notify.Concurrency),
		)

		sent, err := batch.RunOnce(ctx, time.Now())
		if err != nil {
			return err
		}
		zap.L().Info("reminder batch complete", zap.Int("sent", sent))

		if notifyOnce {
			return nil
		}

		batch.Run(ctx, cfg.Notify.Interval())
		return nil
	},
}

func init() {
	notifyCmd.Flags().BoolVar(&notifyOnce, "once", false, "run a single batch and exit")
	rootCmd.AddCommand(notifyCmd)
}
