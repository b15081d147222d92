package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearConfigEnv(t *testing.T) {
	t.Helper()
	keys := []string{
		"APP_NAME", "APP_ENV", "APP_PORT",
		"DB_HOST", "DB_PORT", "DB_USER", "DB_PASSWORD", "DB_NAME", "DB_SSLMODE",
		"DB_MAX_OPEN_CONNS", "DB_MAX_IDLE_CONNS",
		"JWT_SECRET", "JWT_EXPIRATION_HOURS",
		"WORKERPOOL_SIZE", "WORKERPOOL_QUEUE_CAPACITY",
	}
	for _, k := range keys {
		original, had := os.LookupEnv(k)
		os.Unsetenv(k)
		if had {
			t.Cleanup(func() { os.Setenv(k, original) })
		}
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearConfigEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "workerpool-service", cfg.App.Name)
	assert.Equal(t, "development", cfg.App.Env)
	assert.Equal(t, "8080", cfg.App.Port)

	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, 25, cfg.Database.MaxOpenConns)
	assert.Equal(t, 5, cfg.Database.MaxIdleConns)

	assert.Equal(t, 4, cfg.WorkerPool.Size)
	assert.Equal(t, 0, cfg.WorkerPool.QueueCapacity)
	assert.Equal(t, 30*time.Second, cfg.WorkerPool.ShutdownDrainWait)

	assert.Equal(t, "jobs:submit", cfg.Redis.Channel)
	assert.Equal(t, "workerpool-reports", cfg.Storage.Bucket)
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearConfigEnv(t)

	os.Setenv("APP_ENV", "staging")
	os.Setenv("WORKERPOOL_SIZE", "16")
	os.Setenv("DB_MAX_OPEN_CONNS", "50")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "staging", cfg.App.Env)
	assert.Equal(t, 16, cfg.WorkerPool.Size)
	assert.Equal(t, 50, cfg.Database.MaxOpenConns)
}

func TestLoad_ProductionRequiresSecrets(t *testing.T) {
	clearConfigEnv(t)

	os.Setenv("APP_ENV", "production")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "jwt.secret")
}

func TestLoad_ProductionValidConfig(t *testing.T) {
	clearConfigEnv(t)

	os.Setenv("APP_ENV", "production")
	os.Setenv("JWT_SECRET", "this-is-a-32-character-secret-key!!")
	os.Setenv("DB_PASSWORD", "secret")
	os.Setenv("DB_SSLMODE", "require")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "production", cfg.App.Env)
}

func TestValidate_RejectsInvalidPoolSettings(t *testing.T) {
	cfg := &Config{
		Database: DatabaseConfig{MaxOpenConns: 0},
	}
	err := cfg.validate()
	require.Error(t, err)

	cfg = &Config{
		Database: DatabaseConfig{MaxOpenConns: 10, MaxIdleConns: 20},
	}
	err = cfg.validate()
	require.Error(t, err)

	cfg = &Config{
		Database:   DatabaseConfig{MaxOpenConns: 10, MaxIdleConns: 5},
		WorkerPool: WorkerPoolConfig{Size: -1},
	}
	err = cfg.validate()
	require.Error(t, err)
}

func TestDatabaseConfig_DSN(t *testing.T) {
	d := DatabaseConfig{
		Host:     "db.internal",
		Port:     5432,
		User:     "svc",
		Password: "p@ss/word",
		DBName:   "workerpool",
		SSLMode:  "require",
	}

	dsn := d.DSN()
	assert.Contains(t, dsn, "postgres://")
	assert.Contains(t, dsn, "db.internal:5432")
	assert.Contains(t, dsn, "sslmode=require")
}
