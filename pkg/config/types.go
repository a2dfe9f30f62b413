package config

import "time"

// Config is the root configuration structure
type Config struct {
	Server        ServerConfig        `mapstructure:"server"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Pipeline      PipelineConfig      `mapstructure:"pipeline"`
	Snippets      SnippetsConfig      `mapstructure:"snippets"`
	Media         MediaConfig         `mapstructure:"media"`
	Transcription TranscriptionConfig `mapstructure:"transcription"`
	Storage       StorageConfig       `mapstructure:"storage"`
	Readwise      ReadwiseConfig      `mapstructure:"readwise"`
	RateLimiting  RateLimitingConfig  `mapstructure:"rate_limiting"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	MaxHeaderBytes  int           `mapstructure:"max_header_bytes"`
}

// DatabaseConfig holds sqlite settings
type DatabaseConfig struct {
	Path    string `mapstructure:"path"`
	Verbose bool   `mapstructure:"verbose"`
}

// PipelineConfig holds worker and concurrency-gate settings
type PipelineConfig struct {
	Workers      int           `mapstructure:"workers"`
	MaxInFlight  int           `mapstructure:"max_in_flight"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
}

// SnippetsConfig holds snippet request defaults
type SnippetsConfig struct {
	DefaultDuration int           `mapstructure:"default_duration"`
	DoneWindow      time.Duration `mapstructure:"done_window"`
}

// MediaConfig holds external media tool settings
type MediaConfig struct {
	FFmpegPath    string        `mapstructure:"ffmpeg_path"`
	FFprobePath   string        `mapstructure:"ffprobe_path"`
	FFmpegTimeout time.Duration `mapstructure:"ffmpeg_timeout"`
	YtdlpPath     string        `mapstructure:"ytdlp_path"`
	YtdlpTimeout  time.Duration `mapstructure:"ytdlp_timeout"`
}

// TranscriptionConfig holds whisper settings
type TranscriptionConfig struct {
	WhisperPath string        `mapstructure:"whisper_path"`
	ModelPath   string        `mapstructure:"model_path"`
	Language    string        `mapstructure:"language"`
	Threads     int           `mapstructure:"threads"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// StorageConfig holds filesystem layout settings
type StorageConfig struct {
	TempDir           string        `mapstructure:"temp_dir"`
	MaxTempAge        time.Duration `mapstructure:"max_temp_age"`
	CredentialsDir    string        `mapstructure:"credentials_dir"`
	AudibleLibraryDir string        `mapstructure:"audible_library_dir"`
}

// ReadwiseConfig holds highlight importer settings
type ReadwiseConfig struct {
	BaseURL      string        `mapstructure:"base_url"`
	SyncInterval time.Duration `mapstructure:"sync_interval"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

// RateLimitingConfig holds API rate limiting settings
type RateLimitingConfig struct {
	Enabled bool `mapstructure:"enabled"`
}
