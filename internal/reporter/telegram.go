package reporter

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"go-upwork-scraper/internal/scraper"
)

// TelegramReporter pushes the run summary to a chat after each run.
type TelegramReporter struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

func NewTelegramReporter(token string, chatID int64) (*TelegramReporter, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram bot: %w", err)
	}
	return &TelegramReporter{
		bot:    bot,
		chatID: chatID,
	}, nil
}

func (t *TelegramReporter) SendMessage(text string) error {
	msg := tgbotapi.NewMessage(t.chatID, text)
	msg.ParseMode = "HTML" //use HTML for bold/italic
	_, err := t.bot.Send(msg)
	return err
}

func (t *TelegramReporter) SendSummary(s scraper.Summary) error {
	icon := "✅"
	if s.Status == scraper.StatusFailed {
		icon = "❌"
	}
	text := fmt.Sprintf(
		"%s <b>Upwork scrape %s</b>\n"+
			"📦 %d records\n"+
			"🚫 %d rejected\n"+
			"📄 %d pages fetched",
		icon, s.Status,
		s.RecordCount,
		s.RejectedCount,
		s.PagesFetched,
	)
	for _, e := range s.Errors {
		text += fmt.Sprintf("\n⚠️ page %d [%s]: %s", e.Page, e.Kind, e.Message)
	}
	return t.SendMessage(text)
}

func (t *TelegramReporter) SendError(errReq error) error {
	return t.SendMessage(fmt.Sprintf("⚠️ <b>Scraper Error</b>:\n%v", errReq))
}
