package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hal9000y/mail-mcp/internal/config"
)

var envKeys = []string{
	"EMAIL_USER", "EMAIL_APP_PASSWORD",
	"IMAP_HOST", "IMAP_PORT", "IMAP_TLS",
	"SMTP_HOST", "SMTP_PORT", "SMTP_TLS", "SMTP_STARTTLS",
	"DRAFTS_MAILBOX",
	"LLM_API_KEY", "ANTHROPIC_API_KEY", "OPENAI_API_KEY", "LLM_BASE_URL", "LLM_MODEL", "LLM_MAX_TOKENS",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, "imap.gmail.com", cfg.IMAP.Host)
	assert.Equal(t, "993", cfg.IMAP.Port)
	assert.True(t, cfg.IMAP.TLS)
	assert.Equal(t, "smtp.gmail.com", cfg.SMTP.Host)
	assert.Equal(t, "587", cfg.SMTP.Port)
	assert.True(t, cfg.SMTP.StartTLS)
	assert.Equal(t, 1024, cfg.LLM.MaxTokens)
	assert.Equal(t, []string{"[Gmail]/Drafts", "Drafts"}, cfg.DraftsMailboxes())
	assert.Error(t, cfg.Validate())
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("EMAIL_USER", "me@example.com")
	t.Setenv("EMAIL_APP_PASSWORD", "app-pass")
	t.Setenv("IMAP_HOST", "imap.example.com")
	t.Setenv("SMTP_PORT", "2525")
	t.Setenv("SMTP_STARTTLS", "false")
	t.Setenv("DRAFTS_MAILBOX", "INBOX.Drafts")
	t.Setenv("LLM_MAX_TOKENS", "300")

	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, "me@example.com", cfg.Account.User)
	assert.Equal(t, "app-pass", cfg.Account.Password)
	assert.Equal(t, "imap.example.com", cfg.IMAP.Host)
	assert.Equal(t, "2525", cfg.SMTP.Port)
	assert.False(t, cfg.SMTP.StartTLS)
	assert.Equal(t, []string{"INBOX.Drafts", "Drafts"}, cfg.DraftsMailboxes())
	assert.Equal(t, 300, cfg.LLM.MaxTokens)
	assert.NoError(t, cfg.Validate())
}

func TestLoadAPIKeyFallback(t *testing.T) {
	cases := []struct {
		name     string
		env      map[string]string
		expected string
	}{
		{
			name:     "llm_key_wins",
			env:      map[string]string{"LLM_API_KEY": "a", "ANTHROPIC_API_KEY": "b", "OPENAI_API_KEY": "c"},
			expected: "a",
		},
		{
			name:     "anthropic_before_openai",
			env:      map[string]string{"ANTHROPIC_API_KEY": "b", "OPENAI_API_KEY": "c"},
			expected: "b",
		},
		{
			name:     "openai_only",
			env:      map[string]string{"OPENAI_API_KEY": "c"},
			expected: "c",
		},
		{
			name:     "none",
			env:      map[string]string{},
			expected: "",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tc.env {
				t.Setenv(k, v)
			}

			cfg, err := config.Load("")
			require.NoError(t, err)
			assert.Equal(t, tc.expected, cfg.LLM.APIKey)
		})
	}
}

func TestLoadFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("IMAP_PORT", "1993")

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
account:
  user: file@example.com
  password: file-pass
imap:
  host: mail.example.com
  port: "143"
  tls: false
llm:
  base_url: http://localhost:11434/v1/
  model: llama3
`), 0o600))

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "file@example.com", cfg.Account.User)
	assert.Equal(t, "mail.example.com", cfg.IMAP.Host)
	assert.Equal(t, "1993", cfg.IMAP.Port)
	assert.False(t, cfg.IMAP.TLS)
	assert.Equal(t, "smtp.gmail.com", cfg.SMTP.Host)
	assert.Equal(t, "http://localhost:11434/v1/", cfg.LLM.BaseURL)
	assert.Equal(t, "llama3", cfg.LLM.Model)
}

func TestLoadErrors(t *testing.T) {
	clearEnv(t)

	_, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.NoError(t, err)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("imap: [unclosed"), 0o600))
	_, err = config.Load(bad)
	assert.Error(t, err)

	t.Setenv("LLM_MAX_TOKENS", "0")
	_, err = config.Load("")
	assert.Error(t, err)
}
