package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable, e.g. SYLLABEST_DATA_DIR.
const EnvPrefix = "SYLLABEST"

// Defaults.
const (
	DefaultDataDir        = "data"
	DefaultOutputDir      = "output"
	DefaultCleanDir       = "output_clean_json"
	DefaultLogLevel       = "info"
	DefaultLogFormat      = "text"
	DefaultChunkOverlap   = 200
	DefaultPort           = "8090"
	DefaultWorkers        = 4
	DefaultQueueSize      = 100
	DefaultMaxUploadBytes = 50 * 1024 * 1024
	DefaultJobTTL         = time.Hour
)

type Config struct {
	// Batch directories
	DataDir   string
	OutputDir string
	CleanDir  string

	// Logging
	LogLevel  string
	LogFormat string // "text" or "json"

	// Course page splitting; 0 keeps one chunk per page
	ChunkSize    int
	ChunkOverlap int

	// PDF
	PDFFallbackPdftotext bool

	// HTTP service
	Port           string
	APIKey         string // Empty disables authentication
	WorkerCount    int
	MaxQueueSize   int
	MaxUploadBytes int64
	JobTTL         time.Duration

	// Args holds the positional arguments left after flag parsing.
	Args []string
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		DataDir:              DefaultDataDir,
		OutputDir:            DefaultOutputDir,
		CleanDir:             DefaultCleanDir,
		LogLevel:             DefaultLogLevel,
		LogFormat:            DefaultLogFormat,
		ChunkOverlap:         DefaultChunkOverlap,
		PDFFallbackPdftotext: true,
		Port:                 DefaultPort,
		WorkerCount:          DefaultWorkers,
		MaxQueueSize:         DefaultQueueSize,
		MaxUploadBytes:       DefaultMaxUploadBytes,
		JobTTL:               DefaultJobTTL,
	}
}

// Load reads flags from args, then SYLLABEST_* environment variables, then
// defaults, in that order of precedence.
func Load(name string, args []string) (Config, error) {
	cfg := Default()
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.String("data-dir", cfg.DataDir, "Root of the input directories (cours, syllabus_matiere, syllabus_projet)")
	fs.String("output-dir", cfg.OutputDir, "Directory receiving parsed documents and chunks")
	fs.String("clean-dir", cfg.CleanDir, "Directory receiving enriched project syllabi")
	fs.String("log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")
	fs.String("log-format", cfg.LogFormat, "Log format (text, json)")
	fs.Int("chunk-size", cfg.ChunkSize, "Token budget of a course chunk, 0 for one chunk per page")
	fs.Int("chunk-overlap", cfg.ChunkOverlap, "Token overlap between split course chunks")
	fs.Bool("pdftotext", cfg.PDFFallbackPdftotext, "Fall back to pdftotext when the PDF reader fails")
	fs.String("port", cfg.Port, "HTTP port (server only)")
	fs.String("api-key", cfg.APIKey, "Bearer token required by the API (server only)")
	fs.Int("workers", cfg.WorkerCount, "Parse workers (server only)")
	fs.Int("queue-size", cfg.MaxQueueSize, "Pending job capacity (server only)")
	fs.Int64("max-upload-bytes", cfg.MaxUploadBytes, "Largest accepted upload (server only)")
	fs.Duration("job-ttl", cfg.JobTTL, "How long finished jobs are kept (server only)")

	if err := fs.Parse(args); err != nil {
		return cfg, fmt.Errorf("parse flags: %w", err)
	}
	if err := v.BindPFlags(fs); err != nil {
		return cfg, fmt.Errorf("bind flags: %w", err)
	}

	cfg.DataDir = v.GetString("data-dir")
	cfg.OutputDir = v.GetString("output-dir")
	cfg.CleanDir = v.GetString("clean-dir")
	cfg.LogLevel = strings.ToLower(v.GetString("log-level"))
	cfg.LogFormat = strings.ToLower(v.GetString("log-format"))
	cfg.ChunkSize = v.GetInt("chunk-size")
	cfg.ChunkOverlap = v.GetInt("chunk-overlap")
	cfg.PDFFallbackPdftotext = v.GetBool("pdftotext")
	cfg.Port = v.GetString("port")
	cfg.APIKey = v.GetString("api-key")
	cfg.WorkerCount = v.GetInt("workers")
	cfg.MaxQueueSize = v.GetInt("queue-size")
	cfg.MaxUploadBytes = v.GetInt64("max-upload-bytes")
	cfg.JobTTL = v.GetDuration("job-ttl")
	cfg.Args = fs.Args()

	return cfg, nil
}

func (c Config) Validate() error {
	if c.DataDir == "" {
		return errors.New("data dir is required")
	}
	if c.OutputDir == "" {
		return errors.New("output dir is required")
	}
	if c.CleanDir == "" {
		return errors.New("clean dir is required")
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("invalid log format: %s (must be text or json)", c.LogFormat)
	}
	if c.ChunkSize < 0 {
		return errors.New("chunk size must not be negative")
	}
	if c.ChunkSize > 0 && (c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize) {
		return fmt.Errorf("chunk overlap %d must be between 0 and chunk size %d", c.ChunkOverlap, c.ChunkSize)
	}
	if c.WorkerCount <= 0 {
		return errors.New("workers must be positive")
	}
	if c.MaxQueueSize <= 0 {
		return errors.New("queue size must be positive")
	}
	if c.MaxUploadBytes <= 0 {
		return errors.New("max upload bytes must be positive")
	}
	if c.JobTTL <= 0 {
		return errors.New("job ttl must be positive")
	}
	return nil
}

// Logger builds the process logger writing to w.
func (c Config) Logger(w io.Writer) *slog.Logger {
	level, err := parseLevel(c.LogLevel)
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(s string) (slog.Level, error) {
	switch s {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", s)
}
