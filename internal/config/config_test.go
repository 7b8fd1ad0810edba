package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"STORE_DRIVER", "DB_PATH", "NOTIFY_DRIVER", "TICK_INTERVAL", "DOSE_COOLDOWN", "TELEGRAM_CHAT_ID", "HTTP_ADDR"} {
		t.Setenv(k, "")
	}
	cfg := Load()

	assert.Equal(t, StoreSQLite, cfg.StoreDriver)
	assert.Equal(t, DBName, cfg.DBPath)
	assert.Equal(t, NotifyTelegram, cfg.NotifyDriver)
	assert.Equal(t, time.Minute, cfg.TickInterval)
	assert.Equal(t, 30*time.Minute, cfg.DoseCooldown)
	assert.Zero(t, cfg.TelegramChatID)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("STORE_DRIVER", "DynamoDB")
	t.Setenv("DYNAMO_TABLE_MEDICATIONS", "meds")
	t.Setenv("DYNAMO_CREATE_TABLE", "true")
	t.Setenv("TELEGRAM_CHAT_ID", "-100123")
	t.Setenv("TICK_INTERVAL", "30s")
	t.Setenv("DOSE_COOLDOWN", "not-a-duration")

	cfg := Load()

	assert.Equal(t, StoreDynamoDB, cfg.StoreDriver)
	assert.Equal(t, "meds", cfg.DynamoTable)
	assert.True(t, cfg.DynamoCreateTable)
	assert.Equal(t, int64(-100123), cfg.TelegramChatID)
	assert.Equal(t, 30*time.Second, cfg.TickInterval)
	assert.Equal(t, 30*time.Minute, cfg.DoseCooldown)
}

func TestLocation(t *testing.T) {
	cfg := &Config{TZName: "Europe/Moscow"}
	assert.Equal(t, "Europe/Moscow", cfg.Location().String())

	cfg.TZName = "Nowhere/Invalid"
	assert.Equal(t, time.Local, cfg.Location())
}

func TestNewLogger(t *testing.T) {
	l, err := NewLogger("production", "debug")
	require.NoError(t, err)
	assert.NotNil(t, l)

	l, err = NewLogger("development", "bogus")
	require.NoError(t, err)
	assert.NotNil(t, l)
}
