package commands

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"go-zhipin-automation/internal/ai"
	"go-zhipin-automation/internal/browser"
	"go-zhipin-automation/internal/logger"
	"go-zhipin-automation/internal/outreach"
	"go-zhipin-automation/internal/zhipin"
)

// GetGreetCmd returns the greet command.
func GetGreetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "greet",
		Short: "Contact the posters of contactable jobs",
		RunE: func(_ *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := newApp()
			if err != nil {
				return err
			}

			session, err := browser.NewSession(browser.Options{
				LoggedIn:      true,
				UserDataDir:   a.cfg.UserDataDir,
				CookiesPath:   a.cfg.CookiesPath,
				ScreenshotDir: a.cfg.ScreenshotDir,
				Headless:      false,
				SiteURL:       zhipin.BaseURL,
				LoginURL:      zhipin.LoginURL,
				VerifyURL:     zhipin.VerifySliderURL,
			})
			if err != nil {
				return err
			}
			defer session.Close()

			if err := session.WaitForLogin(); err != nil {
				return err
			}

			var generator ai.Generator
			if a.cfg.GenerateGreeting {
				generator, err = ai.NewGeminiClient(ctx, a.cfg.GoogleAPIKey)
				if err != nil {
					logger.WithError(err).Warnf("Greeting generation disabled, using the static greeting")
					generator = nil
				}
			}

			greeter := outreach.NewGreeter(a.cfg, a.jobs, a.engine, zhipin.NewScraper(session), generator)
			stats, err := greeter.Run(ctx)
			a.reporter.OutreachFinished(stats, err)
			logger.Infof("Outreach run done: %s", stats)

			// The quota ceiling ends the run by design, not as a failure.
			if errors.Is(err, outreach.ErrRateLimited) {
				logger.Warnf("Daily outreach quota reached, stopping")
				return nil
			}
			return err
		},
	}
}
