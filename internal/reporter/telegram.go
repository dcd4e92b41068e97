package reporter

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"go-zhipin-automation/internal/config"
	"go-zhipin-automation/internal/logger"
	"go-zhipin-automation/internal/outreach"
)

// TelegramReporter sends run summaries and fatal alerts. A nil reporter
// is valid and silently drops everything, so callers never have to guard
// for the unconfigured case.
type TelegramReporter struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

// NewTelegramReporter returns nil, nil when no token is configured.
func NewTelegramReporter(cfg *config.Config) (*TelegramReporter, error) {
	if cfg.TelegramToken == "" {
		return nil, nil
	}
	bot, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram bot: %w", err)
	}
	return &TelegramReporter{
		bot:    bot,
		chatID: cfg.TelegramChatID,
	}, nil
}

func (t *TelegramReporter) SendMessage(text string) error {
	if t == nil {
		return nil
	}
	msg := tgbotapi.NewMessage(t.chatID, text)
	msg.ParseMode = "HTML"
	_, err := t.bot.Send(msg)
	return err
}

// CrawlFinished reports how a crawl run ended.
func (t *TelegramReporter) CrawlFinished(runErr error) {
	if t == nil {
		return
	}
	text := "✅ <b>Crawl finished</b>"
	if runErr != nil {
		text = fmt.Sprintf("⚠️ <b>Crawl aborted</b>:\n%v", runErr)
	}
	if err := t.SendMessage(text); err != nil {
		logger.WithError(err).Warnf("telegram report failed")
	}
}

// OutreachFinished reports the outcome of an outreach run.
func (t *TelegramReporter) OutreachFinished(stats outreach.Stats, runErr error) {
	if t == nil {
		return
	}
	text := fmt.Sprintf(
		"💬 <b>Outreach run</b>\n"+
			"considered: %d\n"+
			"contacted: %d\n"+
			"resolved: %d\n"+
			"suppressed: %d",
		stats.Considered,
		stats.Contacted,
		stats.Resolved,
		stats.Suppressed,
	)
	if runErr != nil {
		text += fmt.Sprintf("\n⚠️ halted: %v", runErr)
	}
	if err := t.SendMessage(text); err != nil {
		logger.WithError(err).Warnf("telegram report failed")
	}
}

// SendError forwards a fatal condition.
func (t *TelegramReporter) SendError(errReq error) error {
	if t == nil {
		return nil
	}
	return t.SendMessage(fmt.Sprintf("⚠️ <b>Error</b>:\n%v", errReq))
}
