package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseApprovers(t *testing.T) {
	got, err := ParseApprovers(" d1 = u1 | u2 ;D2=u3;; ")
	require.NoError(t, err)
	assert.Equal(t, map[string][]string{"D1": {"u1", "u2"}, "D2": {"u3"}}, got)

	got, err = ParseApprovers("")
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = ParseApprovers("D1")
	assert.Error(t, err, "sin '='")
	_, err = ParseApprovers("D1=|")
	assert.Error(t, err, "sin aprobadores")
	_, err = ParseApprovers("=u1")
	assert.Error(t, err, "sin división")
}

func TestFromViper_ValoresPorDefecto(t *testing.T) {
	cfg, err := fromViper(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.App.Env)
	assert.Equal(t, "postgres", cfg.App.Store)
	assert.Equal(t, 5432, cfg.DB.Port)
	assert.False(t, cfg.DB.AutoMigrate)
	assert.Equal(t, 20*time.Second, cfg.Catalog.QueryTimeout)
	assert.Equal(t, 5*time.Minute, cfg.Redis.TTL)
	assert.Empty(t, cfg.Redis.Addr)
	assert.Zero(t, cfg.Counting.SamplingSeed)
	assert.Equal(t, "0.0.0.0:8080", cfg.HTTP.Addr())
}

func TestFromViper_ValoresExplicitos(t *testing.T) {
	v := viper.New()
	v.Set("COUNTING_APPROVERS", "D1=ap1|ap2")
	v.Set("COUNTING_DEFAULT_APPROVERS", "boss")
	v.Set("COUNTING_SAMPLING_SEED", "42")
	v.Set("MIGRATIONS_AUTO", "true")
	v.Set("DB_PORT", "6543")
	v.Set("STORE", "memory")

	cfg, err := fromViper(v)
	require.NoError(t, err)
	assert.Equal(t, []string{"ap1", "ap2"}, cfg.Counting.Approvers["D1"])
	assert.Equal(t, []string{"boss"}, cfg.Counting.DefaultApprovers)
	assert.Equal(t, uint64(42), cfg.Counting.SamplingSeed)
	assert.True(t, cfg.DB.AutoMigrate)
	assert.Equal(t, 6543, cfg.DB.Port)
	assert.Equal(t, "memory", cfg.App.Store)

	v.Set("COUNTING_SAMPLING_SEED", "-1")
	_, err = fromViper(v)
	assert.Error(t, err)
}

func TestDBConfig_ConnectionString(t *testing.T) {
	c := DBConfig{Host: "db", Port: 5432, User: "app", Password: "p@ss:word", DBName: "conteo", SSLMode: "disable"}
	assert.Equal(t, "postgres://app:p%40ss%3Aword@db:5432/conteo?sslmode=disable", c.ConnectionString())

	c.DatabaseURL = "postgres://x@y/z"
	assert.Equal(t, "postgres://x@y/z", c.ConnectionString())
}
