package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

var (
	once    sync.Once
	initErr error
)

// Init initializes the configuration system. Call once at startup.
func Init() error {
	once.Do(func() {
		// .env first so it is visible to viper's env binding
		_ = godotenv.Load()

		setDefaults()

		viper.SetEnvPrefix("SNIPPETS")
		viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
		viper.AutomaticEnv()

		configPath := filepath.Clean("./config/settings.yaml")
		viper.SetConfigFile(configPath)

		if err := viper.ReadInConfig(); err != nil {
			// Missing config file is fine, defaults and env vars apply
			if !os.IsNotExist(err) {
				initErr = fmt.Errorf("error reading config file %s: %w", configPath, err)
				return
			}
		}

		if err := validate(); err != nil {
			initErr = fmt.Errorf("invalid configuration: %w", err)
		}
	})

	return initErr
}

// GetConfig returns the current configuration as a struct.
// Init() must be called before using this.
func GetConfig() (*Config, error) {
	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	return &config, nil
}

// GetString returns a string config value
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt returns an int config value
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetDuration returns a time.Duration config value
func GetDuration(key string) time.Duration {
	return viper.GetDuration(key)
}

func validate() error {
	port := viper.GetInt("server.port")
	if port <= 0 || port > 65535 {
		return fmt.Errorf("invalid server port: %d", port)
	}

	if viper.GetInt("pipeline.max_in_flight") <= 0 {
		viper.Set("pipeline.max_in_flight", 1)
	}

	if viper.GetDuration("pipeline.poll_interval") <= 0 {
		viper.Set("pipeline.poll_interval", 5*time.Second)
	}

	if viper.GetInt("snippets.default_duration") <= 0 {
		viper.Set("snippets.default_duration", 60)
	}

	return nil
}

// setDefaults sets default configuration values
func setDefaults() {
	// Server defaults
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", 30*time.Second)
	viper.SetDefault("server.write_timeout", 30*time.Second)
	viper.SetDefault("server.shutdown_timeout", 10*time.Second)
	viper.SetDefault("server.max_header_bytes", 1048576)

	// Database defaults
	viper.SetDefault("database.path", "./data/snippets.db")
	viper.SetDefault("database.verbose", false)

	// Pipeline defaults
	viper.SetDefault("pipeline.workers", 1)
	viper.SetDefault("pipeline.max_in_flight", 1)
	viper.SetDefault("pipeline.poll_interval", 5*time.Second)

	// Snippet defaults
	viper.SetDefault("snippets.default_duration", 60)
	viper.SetDefault("snippets.done_window", 60*time.Second)

	// Media tool defaults
	viper.SetDefault("media.ffmpeg_path", "ffmpeg")
	viper.SetDefault("media.ffprobe_path", "ffprobe")
	viper.SetDefault("media.ffmpeg_timeout", 5*time.Minute)
	viper.SetDefault("media.ytdlp_path", "yt-dlp")
	viper.SetDefault("media.ytdlp_timeout", 10*time.Minute)

	// Transcription defaults
	viper.SetDefault("transcription.whisper_path", "whisper-cli")
	viper.SetDefault("transcription.model_path", "./models/ggml-base.en.bin")
	viper.SetDefault("transcription.language", "en")
	viper.SetDefault("transcription.threads", 4)
	viper.SetDefault("transcription.timeout", 5*time.Minute)

	// Storage defaults
	viper.SetDefault("storage.temp_dir", "./tmp")
	viper.SetDefault("storage.max_temp_age", 24*time.Hour)
	viper.SetDefault("storage.credentials_dir", "./data/credentials")
	viper.SetDefault("storage.audible_library_dir", "./data/audible")

	// Readwise importer defaults
	viper.SetDefault("readwise.base_url", "https://readwise.io/api/v2")
	viper.SetDefault("readwise.sync_interval", time.Minute)
	viper.SetDefault("readwise.timeout", 10*time.Second)

	// Rate limiting defaults
	viper.SetDefault("rate_limiting.enabled", true)
}
