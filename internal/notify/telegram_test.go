package notify

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/pooja-fusiongs/ai-interview-platform-sub000/internal/api"
)

func TestFormatSyncFailure(t *testing.T) {
	started := time.Date(2026, 8, 27, 14, 30, 0, 0, time.UTC)
	text := FormatSyncFailure("Greenhouse Prod", api.SyncLog{
		ID:           9,
		ConnectionID: 2,
		SyncType:     "candidates",
		Status:       "failed",
		StartedAt:    started,
		ErrorMessage: "401 from provider",
	})

	assert.Contains(t, text, "Greenhouse Prod")
	assert.Contains(t, text, "candidates sync")
	assert.Contains(t, text, "401 from provider")
}

func TestFormatSyncFailureWithoutDetail(t *testing.T) {
	text := FormatSyncFailure("Lever", api.SyncLog{
		SyncType:  "jobs",
		Status:    "failed",
		StartedAt: time.Now(),
	})
	assert.Contains(t, text, "no error detail reported")
}
