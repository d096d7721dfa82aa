package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const sampleYAML = `
app:
  env: dev
http:
  addr: ":9090"
  cors_origins: ["http://lab.local"]
postgres:
  dsn: "postgres://u:p@localhost/lab"
metrics:
  enabled: true
auth:
  jwt_secret: "s3cret"
  token_ttl: 2h
telegram:
  admin_chat_id: 42
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	c, err := Load(writeConfig(t, sampleYAML))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.App.Env != "dev" {
		t.Errorf("App.Env = %q, want dev", c.App.Env)
	}
	if c.HTTP.Addr != ":9090" {
		t.Errorf("HTTP.Addr = %q, want :9090", c.HTTP.Addr)
	}
	if len(c.HTTP.CORSOrigins) != 1 || c.HTTP.CORSOrigins[0] != "http://lab.local" {
		t.Errorf("HTTP.CORSOrigins = %v", c.HTTP.CORSOrigins)
	}
	if c.Auth.TokenTTL != 2*time.Hour {
		t.Errorf("Auth.TokenTTL = %s, want 2h", c.Auth.TokenTTL)
	}
	if c.Auth.BcryptCost != 10 {
		t.Errorf("Auth.BcryptCost default = %d, want 10", c.Auth.BcryptCost)
	}
	if c.Postgres.MaxConns != 10 {
		t.Errorf("Postgres.MaxConns default = %d, want 10", c.Postgres.MaxConns)
	}
	if c.Telegram.AdminChatID != 42 {
		t.Errorf("Telegram.AdminChatID = %d, want 42", c.Telegram.AdminChatID)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("APP_POSTGRES_DSN", "postgres://override/lab")

	c, err := Load(writeConfig(t, sampleYAML))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Postgres.DSN != "postgres://override/lab" {
		t.Errorf("Postgres.DSN = %q, want env override", c.Postgres.DSN)
	}
}

func TestLoad_MissingSecret(t *testing.T) {
	body := `
postgres:
  dsn: "postgres://u:p@localhost/lab"
`
	if _, err := Load(writeConfig(t, body)); err == nil {
		t.Fatal("expected error for missing auth.jwt_secret")
	}
}

func TestLoad_BootstrapNeedsPassword(t *testing.T) {
	body := sampleYAML + `
bootstrap:
  admin_email: "root@lab.local"
`
	if _, err := Load(writeConfig(t, body)); err == nil {
		t.Fatal("expected error for bootstrap email without password")
	}
}
