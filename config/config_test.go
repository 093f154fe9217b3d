package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFirstNonEmpty(t *testing.T) {
	assert.Equal(t, "", firstNonEmpty("", "   "))
	assert.Equal(t, "foo", firstNonEmpty("foo", "bar"))
	assert.Equal(t, "bar", firstNonEmpty("  ", "bar"))
}

func TestParseWithDefault(t *testing.T) {
	assert.Equal(t, 7, parseIntWithDefault("", 7))
	assert.Equal(t, 3, parseIntWithDefault("abc", 3))
	assert.Equal(t, 42, parseIntWithDefault(" 42 ", 0))

	assert.Equal(t, 2.5, parseFloatWithDefault("2.5", 1))
	assert.Equal(t, 1.0, parseFloatWithDefault("x", 1))

	assert.Equal(t, 5*time.Second, parseDurationWithDefault("", 5*time.Second))
	assert.Equal(t, 5*time.Second, parseDurationWithDefault("soon", 5*time.Second))
	assert.Equal(t, 90*time.Minute, parseDurationWithDefault("1h30m", time.Second))
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"http://a", "http://b"}, splitList(" http://a, ,http://b "))
	assert.Nil(t, splitList(""))
}

func TestLoad(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_DSN", "")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("PORT", "9090")
	t.Setenv("JWT_TTL", "2h")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, 2*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, 7*24*time.Hour, cfg.Auth.InvitationTTL)
}

func TestLoadRejectsBadConfig(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("DB_DRIVER", "oracle")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("DB_DRIVER", "mysql")
	t.Setenv("DB_DSN", "")
	t.Setenv("DATABASE_URL", "")
	_, err = Load()
	assert.Error(t, err)

	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("JWT_SECRET", " ")
	_, err = Load()
	assert.Error(t, err)
}

func TestInitDBSQLite(t *testing.T) {
	db, err := InitDB(DatabaseConfig{Driver: DriverSQLite, DSN: "file::memory:", MaxIdleConns: 1})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	assert.NoError(t, sqlDB.Ping())
	sqlDB.Close()

	_, err = InitDB(DatabaseConfig{Driver: "oracle"})
	assert.Error(t, err)
}
