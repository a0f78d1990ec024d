package reporter

import (
	"fmt"

	"go-jobpilot-automation/internal/models"
	"go-jobpilot-automation/internal/stats"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// TelegramReporter pushes run results to a Telegram chat. Formatting and
// delivery live here; the engine only hands over events.
type TelegramReporter struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

func NewTelegramReporter(token string, chatID int64) (*TelegramReporter, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram bot: %w", err)
	}

	//turn this on in case of debug
	//bot.Debug = true

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

// SendApplication announces one application outcome.
func (t *TelegramReporter) SendApplication(job models.JobPosting, status models.ApplicationStatus) error {
	text := fmt.Sprintf(
		"📬 <b>%s</b>\n"+
			"🏢 %s\n"+
			"📍 %s\n"+
			"🔖 %s\n"+
			"📌 Status: <b>%s</b>\n"+
			"🔗 <a href=\"%s\">View Job</a>",
		job.Title,
		job.Company,
		job.Location,
		job.Source,
		status,
		job.URL,
	)
	return t.SendMessage(text)
}

// SendRunSummary posts the end-of-run counter block.
func (t *TelegramReporter) SendRunSummary(c *stats.RunCounters) error {
	text := fmt.Sprintf(
		"🏁 <b>Run finished</b>\n"+
			"👀 Seen: %d\n"+
			"🚫 Filtered: %d\n"+
			"♻️ Duplicates: %d\n"+
			"🎯 Eligible: %d\n"+
			"✅ Applied: %d\n"+
			"⏸ Deferred: %d\n"+
			"❌ Failed: %d",
		c.Seen, c.Filtered, c.Duplicates, c.Eligible, c.Applied, c.Deferred, c.Failed,
	)
	return t.SendMessage(text)
}

func (t *TelegramReporter) SendError(errReq error) error {
	text := fmt.Sprintf("⚠️ <b>JobPilot Error</b>:\n%v", errReq)
	return t.SendMessage(text)
}
