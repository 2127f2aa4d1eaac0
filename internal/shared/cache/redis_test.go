package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/payflow/server/internal/shared/config"
)

func TestOptionsFromConfig(t *testing.T) {
	cfg := &config.RedisConfig{
		Address:      "localhost:6379",
		Password:     "secret",
		DB:           2,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
		PoolSize:     10,
	}

	opts := Options(cfg)
	assert.Equal(t, "localhost:6379", opts.Addr)
	assert.Equal(t, "secret", opts.Password)
	assert.Equal(t, 2, opts.DB)
	assert.Equal(t, 5*time.Second, opts.DialTimeout)
	assert.Equal(t, 2*time.Second, opts.ReadTimeout)
	assert.Equal(t, 2*time.Second, opts.WriteTimeout)
	assert.Equal(t, 10, opts.PoolSize)
}
