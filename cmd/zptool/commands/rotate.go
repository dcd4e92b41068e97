package commands

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"go-zhipin-automation/internal/browser"
	"go-zhipin-automation/internal/logger"
)

var rotateSpec string

// GetRotateCmd returns the rotate command: repeated crawl passes on a
// cron schedule, so the sweep cursor keeps advancing through the
// parameter product over time.
func GetRotateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rotate",
		Short: "Run crawl passes on a schedule until interrupted",
		RunE: func(_ *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := newApp()
			if err != nil {
				return err
			}

			runOnce := func() {
				if err := runCrawl(ctx, a); err != nil {
					if errors.Is(err, context.Canceled) {
						return
					}
					a.reporter.CrawlFinished(err)
					logger.WithError(err).Errorf("Crawl pass failed")
					if errors.Is(err, browser.ErrVerificationWall) {
						stop()
					}
					return
				}
				a.reporter.CrawlFinished(nil)
			}

			c := cron.New()
			if _, err := c.AddFunc(rotateSpec, runOnce); err != nil {
				return err
			}
			c.Start()
			defer c.Stop()
			logger.Infof("Rotation started, spec %q", rotateSpec)

			// First pass right away; later passes come from the cron.
			runOnce()

			<-ctx.Done()
			logger.Infof("Rotation stopped")
			return nil
		},
	}
	cmd.Flags().StringVar(&rotateSpec, "spec", "@every 6h", "Cron spec for crawl passes")
	cmd.Flags().BoolVar(&headless, "headless", false, "Run the browser personas headless")
	return cmd
}
