package hosting

import (
	"fmt"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"tonearm/src/features/config"
	"tonearm/src/features/jobs"
)

// TelegramNotifier sends a Telegram message whenever a background job
// reaches a terminal state. It implements jobs.Notifier.
type TelegramNotifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

// NewTelegramNotifier creates a notifier from the Telegram configuration.
func NewTelegramNotifier(cfg *config.Manager) (*TelegramNotifier, error) {
	telegramConfig := cfg.Get().Telegram
	if !telegramConfig.Enabled {
		return nil, fmt.Errorf("telegram notifier is disabled in configuration")
	}
	if telegramConfig.Token == "" {
		return nil, fmt.Errorf("telegram bot token is not configured")
	}
	bot, err := tgbotapi.NewBotAPI(telegramConfig.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	slog.Info("Telegram notifier initialized", "username", bot.Self.UserName)
	return &TelegramNotifier{bot: bot, chatID: telegramConfig.ChatID}, nil
}

// NotifyJobFinished implements jobs.Notifier.
func (t *TelegramNotifier) NotifyJobFinished(job *jobs.Job) {
	var icon string
	switch job.Status {
	case jobs.JobStatusCompleted:
		icon = "✅"
	case jobs.JobStatusFailed:
		icon = "❌"
	case jobs.JobStatusCancelled:
		icon = "🚫"
	default:
		return
	}

	text := fmt.Sprintf("%s *%s* %s", icon, job.Name, job.Status)
	if job.Message != "" {
		text += fmt.Sprintf("\n`%s`", job.Message)
	}
	msg := tgbotapi.NewMessage(t.chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if _, err := t.bot.Send(msg); err != nil {
		slog.Error("Failed to send Telegram notification", "job_id", job.ID, "error", err)
	}
}
