package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"twitterbot/db"
	"twitterbot/model"
)

// requiredKeys must all be present before the bot may connect.
var requiredKeys = []string{
	"DISCORD_BOT_TOKEN",
	"DISCORD_CHANNEL_ID",
	"API_KEY",
	"SECRET_KEY",
	"ACCESS_TOKEN",
	"ACCESS_SECRET",
}

var optionalKeys = []string{
	"DATABASE_PATH",
	"LOG_LEVEL",
	"REDIS_ADDR",
	"REDIS_PASSWORD",
	"REDIS_DB",
}

// ConfigurationError lists required options that are missing.
type ConfigurationError struct {
	Missing []string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("missing required configuration: %s", strings.Join(e.Missing, ", "))
}

// LoadConfig reads dir/.env into the environment, then dir/config.yaml if it
// exists, with the environment taking precedence. It does not validate; see
// Validate.
func LoadConfig(dir string) (*model.Config, error) {
	if dir == "" {
		dir = "."
	}

	// Existing environment variables win over .env, as with dotenv.
	if err := godotenv.Load(filepath.Join(dir, ".env")); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("reading .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	v.AddConfigPath(dir)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AutomaticEnv()

	for _, key := range append(append([]string{}, requiredKeys...), optionalKeys...) {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("binding %s: %w", key, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config file error: %w", err)
		}
	}

	var cfg model.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("DATABASE_PATH", db.DefaultSource)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("REDIS_DB", 0)
}

// Validate returns a *ConfigurationError naming every required option that is
// empty.
func Validate(cfg *model.Config) error {
	values := map[string]string{
		"DISCORD_BOT_TOKEN":  cfg.DiscordToken,
		"DISCORD_CHANNEL_ID": cfg.DiscordChannelID,
		"API_KEY":            cfg.Twitter.APIKey,
		"SECRET_KEY":         cfg.Twitter.SecretKey,
		"ACCESS_TOKEN":       cfg.Twitter.AccessToken,
		"ACCESS_SECRET":      cfg.Twitter.AccessSecret,
	}

	var missing []string
	for _, key := range requiredKeys {
		if strings.TrimSpace(values[key]) == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return &ConfigurationError{Missing: missing}
	}
	return nil
}
