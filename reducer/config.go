package reducer

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"pdf_reducer/pdf"
)

// DefaultOutput is the output file used when none is given.
const DefaultOutput = "final_reduced_file.pdf"

// DefaultProcesses is the number of concurrent compression workers.
const DefaultProcesses = 4

// Config holds run configuration. Zero values are replaced by defaults in Validate.
type Config struct {
	Output          string `yaml:"output"`
	ChunkSize       int    `yaml:"chunk_size"`
	Processes       int    `yaml:"processes"`
	BatchSize       int    `yaml:"batch_size"`
	WorkDir         string `yaml:"work_dir"`
	NamespaceLength int    `yaml:"namespace_length"`

	// FallbackUncompressed merges the original pages of a chunk whose compression failed
	// instead of dropping them.
	FallbackUncompressed bool `yaml:"fallback_uncompressed"`

	LogLevel    string `yaml:"log_level"`
	LogFormat   string `yaml:"log_format"`
	MetricsFile string `yaml:"metrics_file"`

	Ghostscript GhostscriptConfig `yaml:"ghostscript"`
	Breaker     BreakerConfig     `yaml:"breaker"`
}

// GhostscriptConfig configures the external compression tool.
type GhostscriptConfig struct {
	Binary             string `yaml:"binary"`
	TimeoutSeconds     int    `yaml:"timeout_seconds"`
	Resolution         int    `yaml:"resolution"`
	Preset             string `yaml:"preset"`
	CompatibilityLevel string `yaml:"compatibility_level"`
}

// Timeout returns the per-chunk deadline.
func (g GhostscriptConfig) Timeout() time.Duration {
	return time.Duration(g.TimeoutSeconds) * time.Second
}

// Settings returns the compression settings for the compressor.
func (g GhostscriptConfig) Settings() pdf.CompressionSettings {
	return pdf.CompressionSettings{
		Preset:             g.Preset,
		Resolution:         g.Resolution,
		CompatibilityLevel: g.CompatibilityLevel,
	}
}

// BreakerConfig configures the optional circuit breaker around the compressor.
type BreakerConfig struct {
	Enabled                bool   `yaml:"enabled"`
	MaxConsecutiveFailures uint32 `yaml:"max_consecutive_failures"`
}

// Defaults returns the configuration used when nothing is overridden.
func Defaults() Config {
	return Config{
		Output:          DefaultOutput,
		ChunkSize:       pdf.DefaultChunkSize,
		Processes:       DefaultProcesses,
		BatchSize:       pdf.DefaultBatchSize,
		WorkDir:         ".",
		NamespaceLength: pdf.DefaultNamespaceLength,
		LogLevel:        "info",
		LogFormat:       "text",
		Ghostscript: GhostscriptConfig{
			Binary:             pdf.DefaultGhostscript,
			TimeoutSeconds:     int(pdf.DefaultCLITimeout / time.Second),
			Resolution:         pdf.DefaultImageResolution,
			Preset:             pdf.DefaultPreset,
			CompatibilityLevel: pdf.DefaultCompatibilityLevel,
		},
		Breaker: BreakerConfig{
			MaxConsecutiveFailures: 5,
		},
	}
}

// LoadFile overlays the YAML file at path onto cfg. Unknown keys are rejected.
func LoadFile(cfg Config, path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnv overlays PDFREDUCE_* environment variables onto cfg.
func ApplyEnv(cfg Config) Config {
	cfg.Output = getEnv("PDFREDUCE_OUTPUT", cfg.Output)
	cfg.ChunkSize = getEnvInt("PDFREDUCE_CHUNK_SIZE", cfg.ChunkSize)
	cfg.Processes = getEnvInt("PDFREDUCE_PROCESSES", cfg.Processes)
	cfg.BatchSize = getEnvInt("PDFREDUCE_BATCH_SIZE", cfg.BatchSize)
	cfg.WorkDir = getEnv("PDFREDUCE_WORK_DIR", cfg.WorkDir)
	cfg.NamespaceLength = getEnvInt("PDFREDUCE_NAMESPACE_LENGTH", cfg.NamespaceLength)
	cfg.FallbackUncompressed = getEnvBool("PDFREDUCE_FALLBACK_UNCOMPRESSED", cfg.FallbackUncompressed)
	cfg.LogLevel = getEnv("PDFREDUCE_LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = getEnv("PDFREDUCE_LOG_FORMAT", cfg.LogFormat)
	cfg.MetricsFile = getEnv("PDFREDUCE_METRICS_FILE", cfg.MetricsFile)
	cfg.Ghostscript.Binary = getEnv("PDFREDUCE_GS", cfg.Ghostscript.Binary)
	cfg.Ghostscript.TimeoutSeconds = getEnvInt("PDFREDUCE_GS_TIMEOUT", cfg.Ghostscript.TimeoutSeconds)
	cfg.Ghostscript.Resolution = getEnvInt("PDFREDUCE_GS_RESOLUTION", cfg.Ghostscript.Resolution)
	cfg.Breaker.Enabled = getEnvBool("PDFREDUCE_BREAKER", cfg.Breaker.Enabled)
	return cfg
}

// Validate rejects impossible values and fills unset ones with defaults.
func (c *Config) Validate() error {
	def := Defaults()

	if c.ChunkSize < 0 {
		return fmt.Errorf("chunk size must be positive, got %d", c.ChunkSize)
	}
	if c.Processes < 0 {
		return fmt.Errorf("processes must be positive, got %d", c.Processes)
	}
	if c.BatchSize < 0 {
		return fmt.Errorf("batch size must be positive, got %d", c.BatchSize)
	}
	if c.NamespaceLength != 0 && c.NamespaceLength < pdf.MinNamespaceLength {
		return fmt.Errorf("namespace length must be at least %d, got %d", pdf.MinNamespaceLength, c.NamespaceLength)
	}
	if c.Ghostscript.Resolution < 0 {
		return fmt.Errorf("ghostscript resolution must be positive, got %d", c.Ghostscript.Resolution)
	}
	if c.Ghostscript.TimeoutSeconds < 0 {
		return fmt.Errorf("ghostscript timeout must be positive, got %d", c.Ghostscript.TimeoutSeconds)
	}

	if c.Output == "" {
		c.Output = def.Output
	}
	if c.ChunkSize == 0 {
		c.ChunkSize = def.ChunkSize
	}
	if c.Processes == 0 {
		c.Processes = def.Processes
	}
	if c.BatchSize == 0 {
		c.BatchSize = def.BatchSize
	}
	if c.WorkDir == "" {
		c.WorkDir = def.WorkDir
	}
	if c.NamespaceLength == 0 {
		c.NamespaceLength = def.NamespaceLength
	}
	if c.LogLevel == "" {
		c.LogLevel = def.LogLevel
	}
	if c.LogFormat == "" {
		c.LogFormat = def.LogFormat
	}
	if c.Ghostscript.Binary == "" {
		c.Ghostscript.Binary = def.Ghostscript.Binary
	}
	if c.Ghostscript.TimeoutSeconds == 0 {
		c.Ghostscript.TimeoutSeconds = def.Ghostscript.TimeoutSeconds
	}
	if c.Ghostscript.Resolution == 0 {
		c.Ghostscript.Resolution = def.Ghostscript.Resolution
	}
	if c.Ghostscript.Preset == "" {
		c.Ghostscript.Preset = def.Ghostscript.Preset
	}
	if c.Ghostscript.CompatibilityLevel == "" {
		c.Ghostscript.CompatibilityLevel = def.Ghostscript.CompatibilityLevel
	}
	if c.Breaker.MaxConsecutiveFailures == 0 {
		c.Breaker.MaxConsecutiveFailures = def.Breaker.MaxConsecutiveFailures
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
