package cliconfig

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestApplyFileConfig(t *testing.T) {
	trueVal := true
	port := 8000
	otherPort := 8100

	tests := []struct {
		name       string
		fileConfig FileConfig
		command    string
		changed    map[string]bool
		initial    Config
		expected   Config
		wantErr    bool
	}{
		{
			name: "applies global values",
			fileConfig: FileConfig{
				HealthcheckPort: &port,
				HealthcheckPath: "/hc",
				Lifespan:        &trueVal,
				LogLevel:        "warn",
				ShutdownTimeout: "1m",
				CheckTimeout:    "3s",
			},
			command: "migrate",
			changed: map[string]bool{},
			expected: Config{
				HealthcheckPort: 8000,
				HealthcheckPath: "/hc",
				Lifespan:        true,
				LogLevel:        "warn",
				ShutdownTimeout: time.Minute,
				CheckTimeout:    3 * time.Second,
			},
		},
		{
			name: "command table overrides global values",
			fileConfig: FileConfig{
				HealthcheckPort: &port,
				Commands: map[string]CommandOverrides{
					"worker":  {HealthcheckPort: &otherPort, HealthcheckPath: "/worker"},
					"migrate": {Lifespan: &trueVal},
				},
			},
			command:  "worker",
			changed:  map[string]bool{},
			expected: Config{HealthcheckPort: 8100, HealthcheckPath: "/worker"},
		},
		{
			name: "respects changed flags",
			fileConfig: FileConfig{
				HealthcheckPort: &port,
				LogLevel:        "warn",
			},
			command:  "migrate",
			changed:  map[string]bool{FlagHealthcheck: true},
			initial:  Config{HealthcheckPort: 9000},
			expected: Config{HealthcheckPort: 9000, LogLevel: "warn"},
		},
		{
			name:       "invalid duration",
			fileConfig: FileConfig{ShutdownTimeout: "forever"},
			command:    "migrate",
			changed:    map[string]bool{},
			wantErr:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.initial
			err := ApplyFileConfig(&cfg, tt.fileConfig, tt.command, tt.changed)

			if tt.wantErr && err == nil {
				t.Error("ApplyFileConfig() expected error but got nil")
				return
			}
			if !tt.wantErr && err != nil {
				t.Errorf("ApplyFileConfig() unexpected error: %v", err)
				return
			}
			if !tt.wantErr && cfg != tt.expected {
				t.Errorf("ApplyFileConfig() = %+v, want %+v", cfg, tt.expected)
			}
		})
	}
}

func TestLoadFileConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.toml")

	tomlContent := `
healthcheck_port = 8000
lifespan = true
shutdown_timeout = "45s"

[commands.migrate]
healthcheck_port = 0
healthcheck_path = "/migrate"
`

	if err := os.WriteFile(configPath, []byte(tomlContent), 0644); err != nil {
		t.Fatalf("Failed to create test config file: %v", err)
	}

	fc, err := LoadFileConfig(configPath)
	if err != nil {
		t.Fatalf("LoadFileConfig() error = %v", err)
	}

	if fc.HealthcheckPort == nil || *fc.HealthcheckPort != 8000 {
		t.Errorf("HealthcheckPort = %v, want 8000", fc.HealthcheckPort)
	}
	if fc.Lifespan == nil || !*fc.Lifespan {
		t.Errorf("Lifespan = %v, want true", fc.Lifespan)
	}
	if fc.ShutdownTimeout != "45s" {
		t.Errorf("ShutdownTimeout = %v, want 45s", fc.ShutdownTimeout)
	}

	migrate, ok := fc.Commands["migrate"]
	if !ok {
		t.Fatal("missing [commands.migrate] table")
	}
	if migrate.HealthcheckPort == nil || *migrate.HealthcheckPort != 0 {
		t.Errorf("migrate.HealthcheckPort = %v, want 0", migrate.HealthcheckPort)
	}
	if migrate.HealthcheckPath != "/migrate" {
		t.Errorf("migrate.HealthcheckPath = %v, want /migrate", migrate.HealthcheckPath)
	}
}

func TestLoadFileConfig_InvalidFile(t *testing.T) {
	_, err := LoadFileConfig("/nonexistent/path/config.toml")
	if err == nil {
		t.Error("LoadFileConfig() expected error for nonexistent file")
	}
}

func TestLoadFileConfig_InvalidTOML(t *testing.T) {
	tmpDir := t.TempDir()

	for name, content := range map[string]string{
		"syntax.toml":  "healthcheck_port = \nthis is not valid toml\n",
		"unknown.toml": "healthcheck_prot = 8000\n",
	} {
		configPath := filepath.Join(tmpDir, name)
		if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
			t.Fatalf("Failed to create test config file: %v", err)
		}
		if _, err := LoadFileConfig(configPath); err == nil {
			t.Errorf("LoadFileConfig(%s) expected error", name)
		}
	}
}

func TestDefaultConfigPath(t *testing.T) {
	path := DefaultConfigPath()

	if path != "" && !strings.HasSuffix(path, filepath.Join(".appcommands", "config.toml")) {
		t.Errorf("DefaultConfigPath() = %v, should end in .appcommands/config.toml", path)
	}
}

func TestFileExists(t *testing.T) {
	tmpDir := t.TempDir()
	existingFile := filepath.Join(tmpDir, "exists.txt")

	if err := os.WriteFile(existingFile, []byte("test"), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	if !FileExists(existingFile) {
		t.Error("FileExists() = false, want true for existing file")
	}

	if FileExists(filepath.Join(tmpDir, "nonexistent.txt")) {
		t.Error("FileExists() = true, want false for nonexistent file")
	}
}
