package database

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"isp-assistant/internal/common/config"
)

func TestRedisClient_Ping(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := NewRedis(config.RedisConfig{Address: mr.Addr()})
	require.NoError(t, err)
	defer client.Close()

	assert.NoError(t, client.Ping(context.Background()))

	mr.Close()
	assert.Error(t, client.Ping(context.Background()))
}

func TestNewRedis_EmptyAddress(t *testing.T) {
	_, err := NewRedis(config.RedisConfig{})
	assert.Error(t, err)
}

func TestNewPostgres_DoesNotDial(t *testing.T) {
	client, err := NewPostgres(config.PostgresConfig{
		Host:           "127.0.0.1",
		Port:           1,
		Database:       "analytics",
		User:           "reader",
		SSLMode:        "disable",
		MaxConnections: 2,
		MaxIdle:        1,
	})
	require.NoError(t, err)
	defer client.Close()

	assert.NotNil(t, client.GetDB())
	assert.Equal(t, 2, client.GetDB().Stats().MaxOpenConnections)
}
