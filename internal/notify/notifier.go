package notify

import (
	"github.com/pooja-fusiongs/ai-interview-platform-sub000/pkg/log"
)

// Notifier delivers short operational messages to the candidate
// (failed resume processing, failed ATS syncs).
type Notifier interface {
	Notify(text string) error
}

// LogNotifier is the fallback used when no Telegram credentials are
// configured: messages land in the service log instead.
type LogNotifier struct{}

func (LogNotifier) Notify(text string) error {
	log.Info("notification: %s", text)
	return nil
}
