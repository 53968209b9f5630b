package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	// Clear any existing env vars that might interfere
	clearEnv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() with defaults failed: %v", err)
	}

	// Check defaults are applied
	if cfg.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Port)
	}
	if cfg.Env != EnvDevelopment {
		t.Errorf("Env = %q, want %q", cfg.Env, EnvDevelopment)
	}
	if cfg.DatabasePath != "./data/bizcal.db" {
		t.Errorf("DatabasePath = %q, want %q", cfg.DatabasePath, "./data/bizcal.db")
	}
	if cfg.DefaultCalendar != "TARGET" {
		t.Errorf("DefaultCalendar = %q, want %q", cfg.DefaultCalendar, "TARGET")
	}
	if cfg.HolidaysDir != "" {
		t.Errorf("HolidaysDir = %q, want empty", cfg.HolidaysDir)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "info")
	}
	if cfg.LogFormat != "text" {
		t.Errorf("LogFormat = %q, want %q", cfg.LogFormat, "text")
	}
}

func TestLoad_FromEnv(t *testing.T) {
	clearEnv()

	dir := t.TempDir()

	// Set custom values
	os.Setenv("PORT", "3000")
	os.Setenv("ENV", "production")
	os.Setenv("DATABASE_PATH", "/data/test.db")
	os.Setenv("API_KEY", "secret-key-123")
	os.Setenv("DEFAULT_CALENDAR", "London")
	os.Setenv("HOLIDAYS_DIR", dir)
	os.Setenv("LOG_LEVEL", "debug")
	os.Setenv("LOG_FORMAT", "json")
	defer clearEnv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Port != 3000 {
		t.Errorf("Port = %d, want 3000", cfg.Port)
	}
	if cfg.Env != EnvProduction {
		t.Errorf("Env = %q, want %q", cfg.Env, EnvProduction)
	}
	if cfg.DatabasePath != "/data/test.db" {
		t.Errorf("DatabasePath = %q, want %q", cfg.DatabasePath, "/data/test.db")
	}
	if cfg.APIKey != "secret-key-123" {
		t.Errorf("APIKey = %q, want %q", cfg.APIKey, "secret-key-123")
	}
	if cfg.DefaultCalendar != "London" {
		t.Errorf("DefaultCalendar = %q, want %q", cfg.DefaultCalendar, "London")
	}
	if cfg.HolidaysDir != dir {
		t.Errorf("HolidaysDir = %q, want %q", cfg.HolidaysDir, dir)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "debug")
	}
	if cfg.LogFormat != "json" {
		t.Errorf("LogFormat = %q, want %q", cfg.LogFormat, "json")
	}
}

func TestLoad_InvalidPortFallsBackToDefault(t *testing.T) {
	clearEnv()
	os.Setenv("PORT", "not-a-number")
	defer clearEnv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Port)
	}
}

func TestConfig_Validate(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "holidays.yaml")
	if err := os.WriteFile(file, []byte("name: x\n"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	// valid returns a config that passes validation; cases mutate a copy.
	valid := func() Config {
		return Config{
			Port:            8080,
			Env:             EnvDevelopment,
			DatabasePath:    "./data/test.db",
			DefaultCalendar: "TARGET",
			LogLevel:        "info",
			LogFormat:       "text",
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{
			name:    "valid development config",
			mutate:  func(c *Config) {},
			wantErr: false,
		},
		{
			name: "valid production config",
			mutate: func(c *Config) {
				c.Env = EnvProduction
				c.APIKey = "required-in-prod"
				c.LogFormat = "json"
			},
			wantErr: false,
		},
		{
			name:    "production requires API key",
			mutate:  func(c *Config) { c.Env = EnvProduction },
			wantErr: true,
		},
		{
			name:    "invalid port - too low",
			mutate:  func(c *Config) { c.Port = 0 },
			wantErr: true,
		},
		{
			name:    "invalid port - too high",
			mutate:  func(c *Config) { c.Port = 70000 },
			wantErr: true,
		},
		{
			name:    "invalid environment",
			mutate:  func(c *Config) { c.Env = "invalid" },
			wantErr: true,
		},
		{
			name:    "invalid log level",
			mutate:  func(c *Config) { c.LogLevel = "verbose" },
			wantErr: true,
		},
		{
			name:    "invalid log format",
			mutate:  func(c *Config) { c.LogFormat = "xml" },
			wantErr: true,
		},
		{
			name:    "empty database path",
			mutate:  func(c *Config) { c.DatabasePath = "" },
			wantErr: true,
		},
		{
			name:    "empty default calendar",
			mutate:  func(c *Config) { c.DefaultCalendar = "" },
			wantErr: true,
		},
		{
			name:    "holidays dir exists",
			mutate:  func(c *Config) { c.HolidaysDir = dir },
			wantErr: false,
		},
		{
			name:    "holidays dir missing",
			mutate:  func(c *Config) { c.HolidaysDir = filepath.Join(dir, "missing") },
			wantErr: true,
		},
		{
			name:    "holidays dir is a file",
			mutate:  func(c *Config) { c.HolidaysDir = file },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadCLI_SkipsServerChecks(t *testing.T) {
	clearEnv()
	t.Setenv("ENV", EnvProduction)
	t.Setenv("PORT", "0")

	if _, err := Load(); err == nil {
		t.Fatal("Load() in production without API_KEY succeeded")
	}

	cfg, err := LoadCLI()
	if err != nil {
		t.Fatalf("LoadCLI() error = %v", err)
	}
	if !cfg.IsProduction() {
		t.Errorf("Env = %q, want %q", cfg.Env, EnvProduction)
	}
}

func TestConfig_ValidateCLI(t *testing.T) {
	cfg := Config{
		Env:             EnvProduction,
		DatabasePath:    "./data/test.db",
		DefaultCalendar: "TARGET",
		LogLevel:        "info",
		LogFormat:       "text",
	}
	if err := cfg.ValidateCLI(); err != nil {
		t.Errorf("ValidateCLI() error = %v", err)
	}

	cfg.LogLevel = "verbose"
	if err := cfg.ValidateCLI(); err == nil {
		t.Error("ValidateCLI() accepted an invalid LOG_LEVEL")
	}
}

func TestConfig_IsDevelopment(t *testing.T) {
	cfg := &Config{Env: EnvDevelopment}
	if !cfg.IsDevelopment() {
		t.Error("IsDevelopment() = false, want true")
	}

	cfg.Env = EnvProduction
	if cfg.IsDevelopment() {
		t.Error("IsDevelopment() = true, want false")
	}
}

func TestConfig_IsProduction(t *testing.T) {
	cfg := &Config{Env: EnvProduction}
	if !cfg.IsProduction() {
		t.Error("IsProduction() = false, want true")
	}

	cfg.Env = EnvDevelopment
	if cfg.IsProduction() {
		t.Error("IsProduction() = true, want false")
	}
}

// clearEnv removes all config-related environment variables
func clearEnv() {
	vars := []string{
		"PORT", "ENV", "DATABASE_PATH", "API_KEY",
		"DEFAULT_CALENDAR", "HOLIDAYS_DIR",
		"LOG_LEVEL", "LOG_FORMAT",
	}
	for _, v := range vars {
		os.Unsetenv(v)
	}
}
