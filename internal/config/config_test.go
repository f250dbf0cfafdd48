package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	c := Default()
	assert.Equal(t, 2, c.Messaging.MaxGenerationRetries)
	assert.Equal(t, 6, c.Messaging.MinQualityScore)
	assert.Equal(t, 100, c.Messaging.MaxWords)
	assert.Equal(t, 20, c.Sending.MaxMessagesPerDay)
	assert.Equal(t, 3, c.FollowUp.FollowUp1MinDays)
	assert.Equal(t, 14, c.FollowUp.FollowUp2MaxDays)
	assert.Equal(t, 8, c.FollowUp.SendWindowStartHour)
	assert.Equal(t, 21, c.FollowUp.SendWindowEndHour)
	assert.True(t, c.LLM.Safeguard)
}

func TestSaveLoadRoundTripKeepsDefaultsForMissingKeys(t *testing.T) {
	p := filepath.Join(t.TempDir(), "nested", "config.yaml")
	c := Default()
	c.LLM.Provider = "openai"
	c.LLM.APIKey = "sk-test"
	c.Sending.MaxMessagesPerDay = 7
	require.NoError(t, Save(p, c))

	got, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, 7, got.Sending.MaxMessagesPerDay)
	assert.Equal(t, "sk-test", got.LLM.APIKey)

	partial := filepath.Join(t.TempDir(), "partial.yaml")
	require.NoError(t, os.WriteFile(partial, []byte("sending:\n  maxMessagesPerDay: 5\n"), 0o644))
	got, err = Load(partial)
	require.NoError(t, err)
	assert.Equal(t, 5, got.Sending.MaxMessagesPerDay)
	assert.Equal(t, 2, got.Messaging.MaxGenerationRetries)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
	assert.Error(t, Save("", Default()))
}

func TestResolveEnvAndDotEnv(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("OUTREACH_TEST_DOTENV=from-file\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("OUTREACH_TEST_DOTENV") })

	require.NoError(t, LoadDotEnv(envFile, filepath.Join(dir, "missing.env")))
	assert.Equal(t, "from-file", os.Getenv("OUTREACH_TEST_DOTENV"))

	t.Setenv("OPENAI_API_KEY", "sk-env")
	t.Setenv("OUTREACH_MAX_MESSAGES_PER_DAY", "12")
	t.Setenv("SAFEGUARD_ENABLED", "false")
	c := Default()
	c.LLM.Provider = "openai"
	c.ResolveEnv()
	assert.Equal(t, "sk-env", c.LLM.APIKey)
	assert.Equal(t, 12, c.Sending.MaxMessagesPerDay)
	assert.False(t, c.LLM.Safeguard)
}

func TestLocationFallsBackToUTC(t *testing.T) {
	c := Default()
	c.FollowUp.Timezone = "Not/AZone"
	assert.Equal(t, "UTC", c.Location().String())
}
