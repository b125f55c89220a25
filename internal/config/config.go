package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	// Trakt
	TraktClientID     string
	TraktClientSecret string
	TraktSyncDays     int // Days to look back for watched media (default: 3)
	CalendarDays      int // Days of upcoming episodes to place (default: 14)

	// HowLongToBeat
	HLTBUserID string

	// Server
	ServerPort string

	// Paths
	TokenFile    string // $CONFIG_DIR/token.json
	DatabaseFile string // $CONFIG_DIR/shelfspace.db

	// Logging
	LogLevel string
}

// Load loads configuration from environment variables and .env file
func Load() (*Config, error) {
	// Setup viper FIRST to load .env file
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()

	// Load .env file if it exists (ignore if not found)
	_ = viper.ReadInConfig()

	// Set defaults
	viper.SetDefault("TRAKT_SYNC_DAYS", 3)
	viper.SetDefault("CALENDAR_DAYS", 14)
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("LOG_LEVEL", "info")

	// NOW read CONFIG_DIR from viper (which has loaded .env file)
	configDir := viper.GetString("CONFIG_DIR")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(homeDir, ".config", "shelfspace")
	} else {
		// Convert relative path to absolute path
		absPath, err := filepath.Abs(configDir)
		if err != nil {
			return nil, fmt.Errorf("failed to get absolute path for CONFIG_DIR: %w", err)
		}
		configDir = absPath
	}

	// Create config directory if it doesn't exist
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	config := &Config{
		// Trakt
		TraktClientID:     viper.GetString("TRAKT_CLIENT_ID"),
		TraktClientSecret: viper.GetString("TRAKT_CLIENT_SECRET"),
		TraktSyncDays:     viper.GetInt("TRAKT_SYNC_DAYS"),
		CalendarDays:      viper.GetInt("CALENDAR_DAYS"),

		// HowLongToBeat
		HLTBUserID: viper.GetString("HLTB_USER_ID"),

		// Server
		ServerPort: viper.GetString("SERVER_PORT"),

		// Paths
		TokenFile:    filepath.Join(configDir, "token.json"),
		DatabaseFile: filepath.Join(configDir, "shelfspace.db"),

		// Logging
		LogLevel: viper.GetString("LOG_LEVEL"),
	}

	return config, nil
}

// RequireTrakt validates the fields the Trakt client needs. Commands that
// never talk to Trakt can run without them.
func (c *Config) RequireTrakt() error {
	if c.TraktClientID == "" {
		return fmt.Errorf("TRAKT_CLIENT_ID is required")
	}
	if c.TraktClientSecret == "" {
		return fmt.Errorf("TRAKT_CLIENT_SECRET is required")
	}
	return nil
}

// RequireHLTB validates the fields the howlongtobeat client needs.
func (c *Config) RequireHLTB() error {
	if c.HLTBUserID == "" {
		return fmt.Errorf("HLTB_USER_ID is required")
	}
	return nil
}
