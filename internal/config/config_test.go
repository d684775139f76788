package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsWithSecret(t *testing.T) {
	t.Setenv("APP_CONFIG", "")
	t.Setenv("AUTH_JWT_SECRET", "s3cret")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, StoreWorkbook, cfg.Store.Backend)
	assert.Equal(t, BlobLocal, cfg.Blob.Backend)
	assert.Equal(t, "INR", cfg.Document.Currency)
	assert.Equal(t, int32(2), cfg.Document.CurrencyPlaces)
	assert.Equal(t, 55, cfg.Document.ReasonBudget)
	assert.Equal(t, "s3cret", cfg.Auth.JWTSecret)
}

func TestLoad_RequiresSecretUnlessDisabled(t *testing.T) {
	t.Setenv("APP_CONFIG", "")
	t.Setenv("AUTH_JWT_SECRET", "")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("AUTH_DISABLED", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AUTH_JWT_SECRET")

	t.Setenv("AUTH_DISABLED", "true")
	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.Auth.Disabled)
}

func TestLoad_YAMLThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
http_addr: ":9090"
store:
  backend: postgres
  database_url: postgres://from-yaml
blob:
  backend: drive
  drive_folder_id: folder-1
  drive_credentials_file: /etc/sa.json
auth:
  jwt_secret: yaml-secret
notify:
  webhook_url: https://hooks.example/notes
  timeout: 2s
document:
  company_name: G P Group
  categories: [quality, safety]
`), 0o600))
	t.Setenv("APP_CONFIG", path)
	t.Setenv("DATABASE_URL", "postgres://from-env")
	t.Setenv("CATEGORIES", "quality, delay ,")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, StorePostgres, cfg.Store.Backend)
	assert.Equal(t, "postgres://from-env", cfg.Store.DatabaseURL)
	assert.Equal(t, BlobDrive, cfg.Blob.Backend)
	assert.Equal(t, "yaml-secret", cfg.Auth.JWTSecret)
	assert.Equal(t, 2*time.Second, cfg.Notify.Timeout)
	assert.Equal(t, "G P Group", cfg.Document.CompanyName)
	assert.Equal(t, []string{"quality", "delay"}, cfg.Document.Categories)
}

func TestLoad_BadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("store: [unclosed"), 0o600))
	t.Setenv("APP_CONFIG", path)

	_, err := Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Auth.JWTSecret = "x"
	require.NoError(t, cfg.Validate())

	bad := cfg
	bad.Store.Backend = "sqlite"
	assert.Error(t, bad.Validate())

	bad = cfg
	bad.Store.Backend = StorePostgres
	assert.Error(t, bad.Validate())

	bad = cfg
	bad.Blob.Backend = BlobDrive
	assert.Error(t, bad.Validate())

	bad = cfg
	bad.Document.ReasonBudget = 0
	assert.Error(t, bad.Validate())
}
