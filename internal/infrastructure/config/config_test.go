package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigSQLite(t *testing.T) {
	t.Setenv("ENV_TYPE", "LOCAL")
	t.Setenv("LOCAL_DB_DRIVER", "sqlite")
	t.Setenv("LOCAL_DB_NAME", "test.db")
	t.Setenv("DEFAULT_SUPERADMIN_PASSWORD", "Secret123")
	t.Setenv("JWT_EXPIRE_MINUTES", "30")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.example, ,http://b.example")

	cfg := LoadConfig()

	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, "test.db?_pragma=foreign_keys(1)", cfg.GetDSN())
	assert.Equal(t, 30*time.Minute, cfg.JWTExpire)
	assert.Equal(t, []string{"http://a.example", "http://b.example"}, cfg.CORSAllowedOrigins)
	assert.False(t, cfg.StorageEnabled())
	assert.False(t, cfg.OAuthEnabled())
}

func TestLoadConfigUnknownEnvFallsBackToLocal(t *testing.T) {
	t.Setenv("ENV_TYPE", "staging")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DEFAULT_SUPERADMIN_PASSWORD", "Secret123")

	cfg := LoadConfig()
	assert.Equal(t, "LOCAL", cfg.EnvType)
}

func TestLoadConfigRequiresDatabaseForMySQL(t *testing.T) {
	t.Setenv("ENV_TYPE", "SERVER")
	t.Setenv("SERVER_DB_DRIVER", "mysql")
	t.Setenv("DEFAULT_SUPERADMIN_PASSWORD", "Secret123")

	require.Panics(t, func() { LoadConfig() })
}

func TestGetDSN(t *testing.T) {
	cfg := &Config{DBDriver: "mysql", DBUser: "u", DBPassword: "p", DBHost: "h", DBPort: "3306", DBName: "d"}
	assert.Contains(t, cfg.GetDSN(), "u:p@tcp(h:3306)/d?")

	cfg.DBDriver = "postgres"
	assert.Contains(t, cfg.GetDSN(), "host=h user=u password=p dbname=d port=3306")
}
