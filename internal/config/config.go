package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

const configDir = ".tidechat"
const configFile = "config.json"

// DefaultTimeoutSeconds applies when neither the config file nor the
// environment sets a request timeout.
const DefaultTimeoutSeconds = 300

// Env override names, applied on top of the config file by Load.
const (
	envHost       = "TIDECHAT_HOST"
	envWebhookURL = "TIDECHAT_WEBHOOK_URL"
	envTimeout    = "TIDECHAT_TIMEOUT_SECONDS"
)

// Config is loaded once at startup and immutable afterwards.
type Config struct {
	Host           string `json:"host,omitempty"`
	WebhookURL     string `json:"webhook_url"`
	TimeoutSeconds int    `json:"timeout_seconds,omitempty"`

	// SessionID identifies this chat session to the webhook. Randomly
	// generated per process, never persisted.
	SessionID string `json:"-"`

	Profile string `json:"-"`
}

func configPath(profile string) (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot find home directory: %w", err)
	}
	filename := configFile
	if profile != "" {
		filename = fmt.Sprintf("config-%s.json", profile)
	}
	return filepath.Join(home, configDir, filename), nil
}

// LogDir is where the diagnostic log rotates.
func LogDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot find home directory: %w", err)
	}
	return filepath.Join(home, configDir, "logs"), nil
}

// Load reads the profile's config file, layers environment overrides on top
// (a .env file in the working directory is honored) and mints the
// per-session identifier. A missing config file is not an error.
func Load(profile string) (*Config, error) {
	path, err := configPath(profile)
	if err != nil {
		return nil, err
	}

	cfg := &Config{Profile: profile}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
		cfg.Profile = profile
	case os.IsNotExist(err):
		// fresh install; the environment may still provide everything
	default:
		return nil, fmt.Errorf("reading config: %w", err)
	}

	_ = godotenv.Load()
	applyEnv(cfg)

	if cfg.TimeoutSeconds <= 0 {
		cfg.TimeoutSeconds = DefaultTimeoutSeconds
	}
	cfg.SessionID = uuid.NewString()
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv(envHost); v != "" {
		cfg.Host = v
	}
	if v := os.Getenv(envWebhookURL); v != "" {
		cfg.WebhookURL = v
	}
	if v := os.Getenv(envTimeout); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.TimeoutSeconds = n
		}
	}
}

// Save persists the file-backed fields for this profile.
func (c *Config) Save() error {
	path, err := configPath(c.Profile)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Timeout returns the request timeout as a duration.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

func (c *Config) profileFlag() string {
	if c.Profile == "" {
		return ""
	}
	return " --profile " + c.Profile
}

// Validate checks that the config can reach a webhook.
func (c *Config) Validate() error {
	if c.WebhookURL == "" {
		return fmt.Errorf("webhook not set. Run: tidechat%s set webhook <url>", c.profileFlag())
	}
	if !strings.HasPrefix(c.WebhookURL, "http://") && !strings.HasPrefix(c.WebhookURL, "https://") {
		return fmt.Errorf("webhook URL must be http(s), got %q", c.WebhookURL)
	}
	return nil
}

func ListProfiles() ([]string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("cannot find home directory: %w", err)
	}
	dir := filepath.Join(home, configDir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading config directory: %w", err)
	}
	var profiles []string
	for _, e := range entries {
		name := e.Name()
		if name == configFile {
			profiles = append(profiles, "default")
			continue
		}
		if strings.HasPrefix(name, "config-") && strings.HasSuffix(name, ".json") {
			profiles = append(profiles, strings.TrimSuffix(strings.TrimPrefix(name, "config-"), ".json"))
		}
	}
	return profiles, nil
}

func ProfileName(profile string) string {
	if profile == "" {
		return "default"
	}
	return profile
}
