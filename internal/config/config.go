// Package config loads server settings from an optional YAML file and the
// environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Account struct {
		User     string `yaml:"user"`
		Password string `yaml:"password"`
	} `yaml:"account"`
	IMAP struct {
		Host     string `yaml:"host"`
		Port     string `yaml:"port"`
		TLS      bool   `yaml:"tls"`
		Insecure bool   `yaml:"insecure"`
	} `yaml:"imap"`
	SMTP struct {
		Host     string `yaml:"host"`
		Port     string `yaml:"port"`
		TLS      bool   `yaml:"tls"`
		StartTLS bool   `yaml:"starttls"`
	} `yaml:"smtp"`
	Drafts struct {
		Mailbox string `yaml:"mailbox"`
	} `yaml:"drafts"`
	LLM struct {
		APIKey    string `yaml:"api_key"`
		BaseURL   string `yaml:"base_url"`
		Model     string `yaml:"model"`
		MaxTokens int    `yaml:"max_tokens"`
	} `yaml:"llm"`
}

// FallbackDraftsMailbox is tried when the configured drafts mailbox rejects
// an append.
const FallbackDraftsMailbox = "Drafts"

func Default() Config {
	var cfg Config
	cfg.IMAP.Host = "imap.gmail.com"
	cfg.IMAP.Port = "993"
	cfg.IMAP.TLS = true
	cfg.SMTP.Host = "smtp.gmail.com"
	cfg.SMTP.Port = "587"
	cfg.SMTP.StartTLS = true
	cfg.Drafts.Mailbox = "[Gmail]/Drafts"
	cfg.LLM.Model = "gpt-4o"
	cfg.LLM.MaxTokens = 1024
	return cfg
}

// Load reads path when it is set and exists, then applies environment
// overrides.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return cfg, fmt.Errorf("os.ReadFile(%s) failed: %w", path, err)
			}
		} else if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("yaml.Unmarshal(%s) failed: %w", path, err)
		}
	}

	applyEnv(&cfg)

	if cfg.LLM.MaxTokens < 1 {
		return cfg, fmt.Errorf("llm.max_tokens must be positive, got %d", cfg.LLM.MaxTokens)
	}

	return cfg, nil
}

// Validate reports settings that every mail operation needs.
func (c Config) Validate() error {
	var errs []error
	if c.Account.User == "" {
		errs = append(errs, errors.New("missing account.user (or EMAIL_USER)"))
	}
	if c.Account.Password == "" {
		errs = append(errs, errors.New("missing account.password (or EMAIL_APP_PASSWORD)"))
	}
	if c.IMAP.Host == "" {
		errs = append(errs, errors.New("missing imap.host (or IMAP_HOST)"))
	}
	if c.SMTP.Host == "" {
		errs = append(errs, errors.New("missing smtp.host (or SMTP_HOST)"))
	}
	return errors.Join(errs...)
}

// DraftsMailboxes lists the mailboxes a draft is appended to, in order.
func (c Config) DraftsMailboxes() []string {
	return []string{c.Drafts.Mailbox, FallbackDraftsMailbox}
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("EMAIL_USER"); v != "" {
		cfg.Account.User = v
	}
	if v := os.Getenv("EMAIL_APP_PASSWORD"); v != "" {
		cfg.Account.Password = v
	}
	if v := os.Getenv("IMAP_HOST"); v != "" {
		cfg.IMAP.Host = v
	}
	if v := os.Getenv("IMAP_PORT"); v != "" {
		cfg.IMAP.Port = v
	}
	if v := os.Getenv("IMAP_TLS"); v != "" {
		cfg.IMAP.TLS = parseBool(v, cfg.IMAP.TLS)
	}
	if v := os.Getenv("SMTP_HOST"); v != "" {
		cfg.SMTP.Host = v
	}
	if v := os.Getenv("SMTP_PORT"); v != "" {
		cfg.SMTP.Port = v
	}
	if v := os.Getenv("SMTP_TLS"); v != "" {
		cfg.SMTP.TLS = parseBool(v, cfg.SMTP.TLS)
	}
	if v := os.Getenv("SMTP_STARTTLS"); v != "" {
		cfg.SMTP.StartTLS = parseBool(v, cfg.SMTP.StartTLS)
	}
	if v := os.Getenv("DRAFTS_MAILBOX"); v != "" {
		cfg.Drafts.Mailbox = v
	}
	if v := firstEnv("LLM_API_KEY", "ANTHROPIC_API_KEY", "OPENAI_API_KEY"); v != "" {
		cfg.LLM.APIKey = v
	}
	if v := os.Getenv("LLM_BASE_URL"); v != "" {
		cfg.LLM.BaseURL = v
	}
	if v := os.Getenv("LLM_MODEL"); v != "" {
		cfg.LLM.Model = v
	}
	if v := os.Getenv("LLM_MAX_TOKENS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.LLM.MaxTokens = n
		}
	}
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}

func parseBool(input string, fallback bool) bool {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return fallback
	}
}
