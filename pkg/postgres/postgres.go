package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Config struct {
	DSN         string `envconfig:"POSTGRES_DSN"`
	MaxConns    int32  `envconfig:"POSTGRES_MAX_CONNS" default:"4"`
	MinConns    int32  `envconfig:"POSTGRES_MIN_CONNS" default:"0"`
	PingTimeout int    `envconfig:"POSTGRES_PING_TIMEOUT" default:"5"`
}

// Enabled reports whether a DSN was configured.
func (c *Config) Enabled() bool {
	return c.DSN != ""
}

// New opens a pool and verifies connectivity.
func (c *Config) New(ctx context.Context) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(c.DSN)
	if err != nil {
		return nil, err
	}
	if c.MaxConns > 0 {
		poolConfig.MaxConns = c.MaxConns
	}
	if c.MinConns > 0 {
		poolConfig.MinConns = c.MinConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, time.Duration(c.PingTimeout)*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}
