package config_test

import (
	"os"
	"testing"
	"time"

	"github.com/sksmith/room-reservation/config"
	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := config.LoadDefaults()

	if cfg.Profile.Value != cfg.Profile.Default {
		t.Errorf("profile got=%s want=%s", cfg.Profile.Value, cfg.Profile.Default)
	}
	assert.Equal(t, config.AppName, cfg.AppName.Value)
	assert.Equal(t, 10, cfg.Reservation.DefaultCapacity.Value)
	assert.Equal(t, 24*time.Hour, cfg.Reservation.CancellationCutoff.Value)
	assert.Equal(t, 365, cfg.Reservation.CalendarHorizonDays.Value)
	assert.Equal(t, 730, cfg.Reservation.MaxNights.Value)
	assert.Equal(t, "log", cfg.Notify.Mode.Value)
	assert.NotEmpty(t, cfg.Db.Host.Description)
}

func TestLoad(t *testing.T) {
	cfg := config.Load("config_test")

	if cfg.Profile.Value != "test" {
		t.Errorf("profile got=%s want=%s", cfg.Profile.Value, "test")
	}

	tests := []struct {
		name string
		got  interface{}
		want interface{}
	}{
		{"port", cfg.Port.Value, "9090"},
		{"log level", cfg.Log.Level.Value, "warn"},
		{"in memory", cfg.Db.InMemory.Value, true},
		{"pool max", cfg.Db.Pool.MaxSize.Value, 3},
		{"pool min default", cfg.Db.Pool.MinSize.Value, 1},
		{"default capacity", cfg.Reservation.DefaultCapacity.Value, 4},
		{"cutoff", cfg.Reservation.CancellationCutoff.Value, 48 * time.Hour},
		{"notify mode", cfg.Notify.Mode.Value, "gateway"},
		{"gateway timeout", cfg.Notify.Gateway.Timeout.Value, 2 * time.Second},
		{"unit queue default", cfg.RabbitMQ.Unit.Queue.Value, "unit.queue"},
		{"admin default", cfg.Admin.User.Value, "admin"},
		{"admin pass unset", cfg.Admin.Pass.Value, ""},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.want, test.got)
		})
	}
}

func TestEnvironmentOverride(t *testing.T) {
	os.Setenv("DB_HOST", "db.internal")
	defer os.Unsetenv("DB_HOST")

	cfg := config.LoadDefaults()

	assert.Equal(t, "db.internal", cfg.Db.Host.Value)
	assert.Equal(t, "localhost", cfg.Db.Host.Default)
}

func TestLoadMissingFile(t *testing.T) {
	cfg := config.Load("no_such_config")

	assert.Equal(t, cfg.Port.Default, cfg.Port.Value)
	assert.Equal(t, 10, cfg.Reservation.DefaultCapacity.Value)
}
