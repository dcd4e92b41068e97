package commands

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"go-zhipin-automation/internal/browser"
	"go-zhipin-automation/internal/citys"
	"go-zhipin-automation/internal/crawler"
	"go-zhipin-automation/internal/logger"
	"go-zhipin-automation/internal/sanitize"
	"go-zhipin-automation/internal/zhipin"
)

var headless bool

// GetCrawlCmd returns the crawl command.
func GetCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Run one discovery pass over the configured search sweep",
		RunE: func(_ *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := newApp()
			if err != nil {
				return err
			}
			err = runCrawl(ctx, a)
			a.reporter.CrawlFinished(err)
			return err
		},
	}
	cmd.Flags().BoolVar(&headless, "headless", false, "Run the browser personas headless")
	return cmd
}

// runCrawl is shared between the crawl and rotate commands.
func runCrawl(ctx context.Context, a *app) error {
	docs, err := a.openDocstore(ctx)
	if err != nil {
		return err
	}
	defer docs.Close()

	session, err := browser.NewSession(browser.Options{
		LoggedIn:      a.cfg.LoggedInBrowser,
		Guest:         true,
		UserDataDir:   a.cfg.UserDataDir,
		CookiesPath:   a.cfg.CookiesPath,
		ScreenshotDir: a.cfg.ScreenshotDir,
		Headless:      headless,
		SiteURL:       zhipin.BaseURL,
		LoginURL:      zhipin.LoginURL,
		VerifyURL:     zhipin.VerifySliderURL,
	})
	if err != nil {
		return err
	}
	defer session.Close()

	if a.cfg.LoggedInBrowser {
		if err := session.WaitForLogin(); err != nil {
			return err
		}
	}

	scraper := zhipin.NewScraper(session)
	c := crawler.New(a.cfg, crawler.Deps{
		Lists:     scraper,
		Details:   scraper,
		Probe:     crawler.NewHTTPProbe(),
		Docs:      docs,
		Jobs:      a.jobs,
		Resolver:  a.engine,
		Cities:    citys.New(a.cfg.CityFilePath),
		Sanitizer: sanitize.New(),
	})

	logger.Infof("Starting crawl")
	return c.Run(ctx)
}
