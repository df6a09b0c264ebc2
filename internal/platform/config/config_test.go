package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, BackendMemory, cfg.Store.ProfileBackend)
	assert.Equal(t, "wei", cfg.Rental.CurrencyUnit)
	assert.Zero(t, cfg.Rental.MaxAttempts, "stuck agreements are never cancelled unless configured")
	assert.Equal(t, 3*time.Second, cfg.Redis.ReadTimeout)
	assert.Empty(t, cfg.Tracing.Endpoint)
}

func TestParseOverrides(t *testing.T) {
	t.Setenv("BRIQ_PROFILE_BACKEND", "sqlite")
	t.Setenv("BRIQ_KAFKA_BROKERS", "a:9092,b:9092")
	t.Setenv("BRIQ_EVENT_SINK", "kafka")
	t.Setenv("BRIQ_OPTIMISTIC_SAVE", "true")

	cfg, err := Parse()
	require.NoError(t, err)
	assert.Equal(t, BackendSQLite, cfg.Store.ProfileBackend)
	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.Kafka.Brokers)
	assert.True(t, cfg.Ledger.OptimisticSave)
}

func TestParseRejectsIncompleteBackends(t *testing.T) {
	cases := map[string]map[string]string{
		"unknown backend":    {"BRIQ_PROFILE_BACKEND": "etcd"},
		"postgres no dsn":    {"BRIQ_PROFILE_BACKEND": "postgres"},
		"redis no url":       {"BRIQ_PROFILE_BACKEND": "redis"},
		"kafka no brokers":   {"BRIQ_EVENT_SINK": "kafka"},
		"registry no dsn":    {"BRIQ_AGREEMENT_BACKEND": "postgres"},
		"unknown event sink": {"BRIQ_EVENT_SINK": "s3"},
	}
	for name, vars := range cases {
		t.Run(name, func(t *testing.T) {
			for k, v := range vars {
				t.Setenv(k, v)
			}
			_, err := Parse()
			assert.Error(t, err)
		})
	}
}
