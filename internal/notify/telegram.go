package notify

import (
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/pooja-fusiongs/ai-interview-platform-sub000/internal/api"
)

type TelegramNotifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

func NewTelegramNotifier(token string, chatID int64) (*TelegramNotifier, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("init telegram bot: %w", err)
	}
	return &TelegramNotifier{
		bot:    bot,
		chatID: chatID,
	}, nil
}

func (t *TelegramNotifier) Notify(text string) error {
	msg := tgbotapi.NewMessage(t.chatID, text)
	msg.ParseMode = "HTML"
	_, err := t.bot.Send(msg)
	return err
}

// FormatSyncFailure renders a failed ATS sync log for delivery.
func FormatSyncFailure(connectionName string, entry api.SyncLog) string {
	when := entry.StartedAt.Format(time.RFC822)
	reason := entry.ErrorMessage
	if reason == "" {
		reason = "no error detail reported"
	}
	return fmt.Sprintf(
		"⚠️ <b>ATS sync failed</b>\n"+
			"🔌 %s\n"+
			"🗂 %s sync started %s\n"+
			"❗ %s",
		connectionName,
		entry.SyncType,
		when,
		reason,
	)
}
