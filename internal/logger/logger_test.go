package logger

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// useLogger installs l for one test and restores the package state after.
func useLogger(t *testing.T, l *slog.Logger) {
	t.Helper()
	logger, base, stageLevels = l, nil, nil
	t.Cleanup(func() { logger, base, stageLevels = nil, nil, nil })
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "logging.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	return path
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected slog.Level
		known    bool
	}{
		{"DEBUG", slog.LevelDebug, true},
		{"debug", slog.LevelDebug, true},
		{"INFO", slog.LevelInfo, true},
		{"Warn", slog.LevelWarn, true},
		{"WARNING", slog.LevelWarn, true},
		{"ERROR", slog.LevelError, true},
		{"", slog.LevelInfo, true},
		{"verbose", slog.LevelInfo, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := parseLogLevel(tt.input); got != tt.expected {
				t.Errorf("parseLogLevel(%q) = %v, want %v", tt.input, got, tt.expected)
			}
			if _, ok := lookupLevel(tt.input); ok != tt.known {
				t.Errorf("lookupLevel(%q) known = %v, want %v", tt.input, ok, tt.known)
			}
		})
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	config, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig returned error for missing file: %v", err)
	}
	want := DefaultConfig()
	if config.Level != want.Level || config.ConsoleEnabled != want.ConsoleEnabled || config.FilePath != want.FilePath {
		t.Errorf("LoadConfig() = %+v, want defaults %+v", config, want)
	}
}

func TestLoadConfigKeepsUnsetDefaults(t *testing.T) {
	path := writeConfig(t, `logging:
  level: DEBUG
  file_enabled: true
  stage_levels:
    moisture: ERROR
`)

	config, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if config.Level != "DEBUG" {
		t.Errorf("Level = %q, want DEBUG", config.Level)
	}
	if !config.FileEnabled {
		t.Error("FileEnabled = false, want true")
	}
	// console_enabled is absent from the file.
	if !config.ConsoleEnabled {
		t.Error("ConsoleEnabled = false, want the default true")
	}
	if config.FileMaxBackups != 5 {
		t.Errorf("FileMaxBackups = %d, want the default 5", config.FileMaxBackups)
	}
	if config.StageLevels["moisture"] != "ERROR" {
		t.Errorf("StageLevels = %v, want moisture=ERROR", config.StageLevels)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		mention string
	}{
		{"malformed yaml", "logging: [unclosed", "parse logging config"},
		{"unknown level", "logging:\n  level: LOUD\n", `level "LOUD"`},
		{"unknown stage level", "logging:\n  stage_levels:\n    wind: CHATTY\n", `stage_levels.wind "CHATTY"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config, err := LoadConfig(writeConfig(t, tt.content))
			if err == nil {
				t.Fatal("expected an error")
			}
			if !strings.Contains(err.Error(), tt.mention) {
				t.Errorf("error %q does not mention %q", err, tt.mention)
			}
			if !config.ConsoleEnabled {
				t.Error("config returned with the error lost its defaults")
			}
		})
	}
}

func TestEnvVarOverride(t *testing.T) {
	t.Setenv("LOG_LEVEL", "ERROR")
	t.Setenv("LOG_CONSOLE_FORMAT", "json")
	t.Setenv("LOG_FILE_ENABLED", "true")
	t.Setenv("LOG_FILE_PATH", "/custom/path.log")
	t.Setenv("LOG_STAGE_LEVELS", "moisture=DEBUG, wind=WARN,broken")

	path := writeConfig(t, "logging:\n  level: DEBUG\n  stage_levels:\n    biomes: INFO\n")
	config, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}

	if config.Level != "ERROR" {
		t.Errorf("Level = %q, want ERROR (from env var)", config.Level)
	}
	if config.ConsoleFormat != "json" {
		t.Errorf("ConsoleFormat = %q, want json (from env var)", config.ConsoleFormat)
	}
	if !config.FileEnabled {
		t.Error("FileEnabled = false, want true (from env var)")
	}
	if config.FilePath != "/custom/path.log" {
		t.Errorf("FilePath = %q, want /custom/path.log (from env var)", config.FilePath)
	}
	want := map[string]string{"biomes": "INFO", "moisture": "DEBUG", "wind": "WARN"}
	if len(config.StageLevels) != len(want) {
		t.Fatalf("StageLevels = %v, want %v", config.StageLevels, want)
	}
	for stage, level := range want {
		if config.StageLevels[stage] != level {
			t.Errorf("StageLevels[%s] = %q, want %q", stage, config.StageLevels[stage], level)
		}
	}
}

func TestStageTagsRecords(t *testing.T) {
	var buf bytes.Buffer
	useLogger(t, slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo})))

	Stage("moisture").Info("Stage computed", "cells", 512)
	Logger().Info("Run finished")

	output := buf.String()
	if !strings.Contains(output, "stage=moisture") || !strings.Contains(output, "cells=512") {
		t.Errorf("Output missing stage record fields: %s", output)
	}
	if strings.Count(output, "stage=") != 1 {
		t.Errorf("Logger() records should carry no stage: %s", output)
	}
}

func TestStageLevelOverrides(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "worldgen.log")
	t.Cleanup(func() { logger, base, stageLevels = nil, nil, nil })

	err := Initialize(Config{
		Level:       "INFO",
		FileEnabled: true,
		FilePath:    logPath,
		StageLevels: map[string]string{"moisture": "DEBUG", "wind": "ERROR"},
	})
	if err != nil {
		t.Fatalf("Initialize returned error: %v", err)
	}

	Stage("moisture").Debug("trace rows", "rows", 16)
	Stage("wind").Info("wind sampled")
	Stage("biomes").Debug("biome debug")
	Stage("biomes").Info("biomes classified")
	Debug("run debug")
	Info("run info")

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}
	output := string(data)

	for _, want := range []string{"trace rows", "biomes classified", "run info"} {
		if !strings.Contains(output, want) {
			t.Errorf("log missing %q: %s", want, output)
		}
	}
	for _, unwanted := range []string{"wind sampled", "biome debug", "run debug"} {
		if strings.Contains(output, unwanted) {
			t.Errorf("log contains filtered record %q: %s", unwanted, output)
		}
	}
}

func TestStageBeforeInitialize(t *testing.T) {
	useLogger(t, nil)

	defer func() {
		if r := recover(); r != nil {
			t.Errorf("logging before Initialize caused panic: %v", r)
		}
	}()

	Stage("wind").Info("dropped")
	Logger().Error("dropped")
	Debug("debug")
	Warningf("warning %d", 1)
}

func TestFormattedLogging(t *testing.T) {
	var buf bytes.Buffer
	useLogger(t, slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))

	Debugf("sampled %dx%d", 1024, 512)
	Infof("stage %s cached", "coastline")
	Warningf("moisture at %.2f%%", 99.95)
	Errorf("store: %v", "closed")

	output := buf.String()
	for _, want := range []string{
		`"msg":"sampled 1024x512"`,
		`"msg":"stage coastline cached"`,
		`"msg":"moisture at 99.95%"`,
		`"msg":"store: closed"`,
	} {
		if !strings.Contains(output, want) {
			t.Errorf("Output missing %s: %s", want, output)
		}
	}
}

func TestMultiHandler(t *testing.T) {
	var info, errs bytes.Buffer
	h := newMultiHandler(
		slog.NewTextHandler(&info, &slog.HandlerOptions{Level: slog.LevelInfo}),
		slog.NewTextHandler(&errs, &slog.HandlerOptions{Level: slog.LevelError}),
	)
	useLogger(t, slog.New(h))

	Stage("elevation").Info("elevation computed")
	Stage("elevation").Error("elevation failed")

	if !strings.Contains(info.String(), "elevation computed") || !strings.Contains(info.String(), "elevation failed") {
		t.Errorf("info handler output = %s", info.String())
	}
	if strings.Contains(errs.String(), "elevation computed") || !strings.Contains(errs.String(), "elevation failed") {
		t.Errorf("error handler output = %s", errs.String())
	}
	if !strings.Contains(errs.String(), "stage=elevation") {
		t.Errorf("WithAttrs lost on the second handler: %s", errs.String())
	}
}

func TestInitializeWritesRotatingFile(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "logs", "worldgen.log")
	t.Cleanup(func() { logger, base, stageLevels = nil, nil, nil })

	err := Initialize(Config{
		Level:          "DEBUG",
		ConsoleEnabled: false,
		FileEnabled:    true,
		FilePath:       logPath,
		FileFormat:     "json",
		FileMaxSizeMB:  1,
	})
	if err != nil {
		t.Fatalf("Initialize returned error: %v", err)
	}

	Stage("biomes").Debug("Stage cached", "fingerprint", "abc123")

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}
	if !strings.Contains(string(data), `"stage":"biomes"`) {
		t.Errorf("Log file missing stage field: %s", data)
	}
	if !strings.Contains(string(data), `"fingerprint":"abc123"`) {
		t.Errorf("Log file missing structured field: %s", data)
	}
}
