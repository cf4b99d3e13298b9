package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// PricePerItem is the fixed price of a single food item.
const PricePerItem = 6.65

// channelEnvVars maps the five logical delivery channels to the
// environment variables that carry their numeric Telegram IDs.
var channelEnvVars = map[string]string{
	"female_main":  "CHANNEL_FEMALE_MAIN",
	"male_main":    "CHANNEL_MALE_MAIN",
	"female_tecno": "CHANNEL_FEMALE_TECNO",
	"male_tecno":   "CHANNEL_MALE_TECNO",
	"agri":         "CHANNEL_AGRI",
}

type Config struct {
	BotToken    string
	DatabaseURL string

	// Reserved for the Supabase REST API; the database layer does not use them.
	SupabaseURL string
	SupabaseKey string

	AppURL   string
	Channels map[string]int64
	AdminIDs []int64
}

// Load reads the optional env file at path and then the process environment,
// once. Missing values are not an error here: a component that needs a value
// fails when it is asked to start without one.
func Load(path string) (*Config, error) {
	if path != "" {
		if err := godotenv.Load(path); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to load env file %s: %w", path, err)
		}
	}

	cfg := &Config{
		BotToken:    os.Getenv("BOT_TOKEN"),
		DatabaseURL: os.Getenv("SUPABASE_DB_URL"),
		SupabaseURL: os.Getenv("SUPABASE_URL"),
		SupabaseKey: os.Getenv("SUPABASE_KEY"),
		AppURL:      os.Getenv("APP_URL"),
	}
	if cfg.AppURL == "" {
		cfg.AppURL = "https://your-app-name"
	}

	cfg.Channels = make(map[string]int64, len(channelEnvVars))
	for name, envVar := range channelEnvVars {
		raw := os.Getenv(envVar)
		if raw == "" {
			cfg.Channels[name] = 0
			continue
		}
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid channel id in %s: %w", envVar, err)
		}
		cfg.Channels[name] = id
	}

	adminIDs, err := parseAdminIDs(os.Getenv("ADMIN_IDS"))
	if err != nil {
		return nil, err
	}
	cfg.AdminIDs = adminIDs

	return cfg, nil
}

// parseAdminIDs splits a comma-separated ID list, dropping empty and
// whitespace-only entries.
func parseAdminIDs(raw string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid admin id %q in ADMIN_IDS: %w", part, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (c *Config) IsAdmin(telegramID int64) bool {
	for _, id := range c.AdminIDs {
		if id == telegramID {
			return true
		}
	}
	return false
}
