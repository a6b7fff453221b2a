package db_test

import (
	"testing"
	"time"

	"github.com/sksmith/room-reservation/config"
	"github.com/sksmith/room-reservation/core"
	"github.com/sksmith/room-reservation/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoolConfig(t *testing.T) {
	cfg := config.LoadDefaults()
	cfg.Db.Host.Value = "db.internal"
	cfg.Db.Port.Value = "6543"
	cfg.Db.Name.Value = "reservations"

	opts := db.DefaultPoolOptions()
	opts.MinConns, opts.MaxConns = 2, 7

	got, err := db.PoolConfig(cfg, opts)
	require.NoError(t, err)

	assert.Equal(t, "db.internal", got.ConnConfig.Host)
	assert.Equal(t, uint16(6543), got.ConnConfig.Port)
	assert.Equal(t, "reservations", got.ConnConfig.Database)
	assert.Equal(t, int32(2), got.MinConns)
	assert.Equal(t, int32(7), got.MaxConns)
	assert.Equal(t, time.Hour, got.MaxConnLifetime)
	assert.Equal(t, "UTC", got.ConnConfig.RuntimeParams["timezone"])
	assert.NotNil(t, got.ConnConfig.Logger)
}

func TestPoolConfigBadPort(t *testing.T) {
	cfg := config.LoadDefaults()
	cfg.Db.Port.Value = "not-a-port"

	_, err := db.PoolConfig(cfg, db.DefaultPoolOptions())
	assert.Error(t, err)
}

func TestGetQueryOptions(t *testing.T) {
	c := db.NewMockConn()
	conn := &c
	tx := db.NewMockTransaction()

	tests := []struct {
		name          string
		options       []core.QueryOptions
		wantTx        bool
		wantForUpdate string
	}{
		{name: "none"},
		{name: "transaction", options: []core.QueryOptions{{Tx: tx}}, wantTx: true},
		{name: "locked", options: []core.QueryOptions{{Tx: tx, ForUpdate: true}}, wantTx: true, wantForUpdate: "FOR UPDATE"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, forUpdate := db.GetQueryOptions(conn, test.options...)
			assert.Equal(t, test.wantForUpdate, forUpdate)
			if test.wantTx {
				assert.Same(t, tx, got)
			} else {
				assert.Same(t, conn, got)
			}
		})
	}
}

func TestGetUpdateOptions(t *testing.T) {
	c := db.NewMockConn()
	conn := &c
	tx := db.NewMockTransaction()

	assert.Same(t, conn, db.GetUpdateOptions(conn))
	assert.Same(t, conn, db.GetUpdateOptions(conn, core.UpdateOptions{}))
	assert.Same(t, tx, db.GetUpdateOptions(conn, core.UpdateOptions{Tx: tx}))
}
