package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	assert.Equal(t, "localhost:9745", GetString(WSListenAddrKey))
	assert.Equal(t, DbTypeBadger, GetString(DbTypeKey))
	assert.NotEmpty(t, GetDatadir())
}

func TestChainEndpoints(t *testing.T) {
	endpoints := GetChainEndpoints()
	require.Contains(t, endpoints, "0x1")
	require.Contains(t, endpoints, "0x89")

	Set(ChainEndpointsKey, "0x1=http://localhost:8545, bogus, =x, 0x539=http://localhost:8546")
	defer Set(ChainEndpointsKey, "")

	endpoints = GetChainEndpoints()
	assert.Equal(t, "http://localhost:8545", endpoints["0x1"])
	assert.Equal(t, "http://localhost:8546", endpoints["0x539"])
	assert.NotContains(t, endpoints, "bogus")
}
