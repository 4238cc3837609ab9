package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	os.Unsetenv("APS_CONFIG_FILE")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}

	if cfg.App.Name != "nice-aps" {
		t.Errorf("App.Name = %s", cfg.App.Name)
	}
	if cfg.App.Port != 7021 {
		t.Errorf("App.Port = %d", cfg.App.Port)
	}
	if cfg.Planner.DefaultTimeLimit != 60*time.Second {
		t.Errorf("Planner.DefaultTimeLimit = %v", cfg.Planner.DefaultTimeLimit)
	}
	if !cfg.IsDevelopment() {
		t.Error("默认环境应为 development")
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("APP_PORT", "8080")
	t.Setenv("PLANNER_PARALLELISM", "8")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.App.Port != 8080 {
		t.Errorf("App.Port = %d, want 8080", cfg.App.Port)
	}
	if cfg.Planner.Parallelism != 8 {
		t.Errorf("Planner.Parallelism = %d, want 8", cfg.Planner.Parallelism)
	}
}

func TestLoadFileMerge(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
app:
  name: aps-staging
  port: 9000
planner:
  default_gap_limit: 0.05
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("APS_CONFIG_FILE", path)

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.App.Name != "aps-staging" {
		t.Errorf("App.Name = %s", cfg.App.Name)
	}
	if cfg.App.Port != 9000 {
		t.Errorf("App.Port = %d", cfg.App.Port)
	}
	if cfg.Planner.DefaultGapLimit != 0.05 {
		t.Errorf("DefaultGapLimit = %v", cfg.Planner.DefaultGapLimit)
	}
	// 文件未覆盖的字段保留环境默认值
	if cfg.Database.Name != "niceaps" {
		t.Errorf("Database.Name = %s", cfg.Database.Name)
	}
}

func TestLoadFileMissing(t *testing.T) {
	t.Setenv("APS_CONFIG_FILE", "/nonexistent/config.yaml")
	if _, err := Load(); err == nil {
		t.Error("配置文件不存在应返回错误")
	}
}

func TestDSN(t *testing.T) {
	c := DatabaseConfig{
		Host: "db", Port: 5432, User: "u", Password: "p", Name: "aps", SSLMode: "disable",
	}
	want := "host=db port=5432 user=u password=p dbname=aps sslmode=disable"
	if got := c.DSN(); got != want {
		t.Errorf("DSN = %s", got)
	}
}
