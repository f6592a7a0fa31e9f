package logger

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds logging configuration
type Config struct {
	Level          string `yaml:"level"`
	ConsoleEnabled bool   `yaml:"console_enabled"`
	ConsoleFormat  string `yaml:"console_format"`
	FileEnabled    bool   `yaml:"file_enabled"`
	FilePath       string `yaml:"file_path"`
	FileFormat     string `yaml:"file_format"`
	FileMaxSizeMB  int    `yaml:"file_max_size_mb"`
	FileMaxBackups int    `yaml:"file_max_backups"`
	FileMaxAgeDays int    `yaml:"file_max_age_days"`
	FileCompress   bool   `yaml:"file_compress"`
	AddSource      bool   `yaml:"add_source"`

	// StageLevels overrides Level for loggers returned by Stage, keyed by
	// stage name. A stage may log more or less than the rest of the run.
	StageLevels map[string]string `yaml:"stage_levels"`
}

// LoggingConfig wraps the Config for YAML parsing
type LoggingConfig struct {
	Logging Config `yaml:"logging"`
}

// DefaultConfig logs INFO and above as text to stderr.
func DefaultConfig() Config {
	return Config{
		Level:          "INFO",
		ConsoleEnabled: true,
		ConsoleFormat:  "text",
		FilePath:       "logs/worldgen.log",
		FileFormat:     "text",
		FileMaxSizeMB:  10,
		FileMaxBackups: 5,
		FileMaxAgeDays: 30,
	}
}

// LoadConfig reads configPath over the defaults and applies the LOG_*
// environment overrides. Keys absent from the file keep their defaults. A
// missing file is not an error; a malformed one is, and the defaults (with
// env overrides) are still returned alongside it.
func LoadConfig(configPath string) (Config, error) {
	wrapped := LoggingConfig{Logging: DefaultConfig()}

	var loadErr error
	if configPath != "" {
		data, err := os.ReadFile(configPath)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			loadErr = fmt.Errorf("read logging config: %w", err)
		default:
			if err := yaml.Unmarshal(data, &wrapped); err != nil {
				wrapped = LoggingConfig{Logging: DefaultConfig()}
				loadErr = fmt.Errorf("parse logging config %s: %w", configPath, err)
			}
		}
	}
	config := wrapped.Logging

	applyEnv(&config)

	if loadErr != nil {
		return config, loadErr
	}
	return config, config.Validate()
}

func applyEnv(config *Config) {
	if logLevel := os.Getenv("LOG_LEVEL"); logLevel != "" {
		config.Level = logLevel
	}

	if consoleFormat := os.Getenv("LOG_CONSOLE_FORMAT"); consoleFormat != "" {
		config.ConsoleFormat = consoleFormat
	}

	if fileEnabled := os.Getenv("LOG_FILE_ENABLED"); fileEnabled != "" {
		if enabled, err := strconv.ParseBool(fileEnabled); err == nil {
			config.FileEnabled = enabled
		}
	}

	if filePath := os.Getenv("LOG_FILE_PATH"); filePath != "" {
		config.FilePath = filePath
	}

	// LOG_STAGE_LEVELS=moisture=DEBUG,wind=WARN
	if stageLevels := os.Getenv("LOG_STAGE_LEVELS"); stageLevels != "" {
		if config.StageLevels == nil {
			config.StageLevels = make(map[string]string)
		}
		for _, pair := range strings.Split(stageLevels, ",") {
			stage, level, ok := strings.Cut(strings.TrimSpace(pair), "=")
			if ok && stage != "" {
				config.StageLevels[stage] = level
			}
		}
	}
}

// Validate rejects level names parseLogLevel would silently treat as INFO.
func (c Config) Validate() error {
	var bad []string
	if _, ok := lookupLevel(c.Level); !ok {
		bad = append(bad, fmt.Sprintf("level %q", c.Level))
	}
	stages := make([]string, 0, len(c.StageLevels))
	for stage := range c.StageLevels {
		stages = append(stages, stage)
	}
	sort.Strings(stages)
	for _, stage := range stages {
		if _, ok := lookupLevel(c.StageLevels[stage]); !ok {
			bad = append(bad, fmt.Sprintf("stage_levels.%s %q", stage, c.StageLevels[stage]))
		}
	}
	if len(bad) > 0 {
		return fmt.Errorf("unknown log level: %s", strings.Join(bad, ", "))
	}
	return nil
}
