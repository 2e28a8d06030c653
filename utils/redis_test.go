package utils

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitRedisAcceptsAddrAndURL(t *testing.T) {
	mr := miniredis.RunT(t)

	for _, url := range []string{mr.Addr(), "redis://" + mr.Addr() + "/0"} {
		client, err := InitRedis(url, "", 0)
		require.NoError(t, err, url)
		require.NoError(t, client.Set(t.Context(), "k", "v", 0).Err())
		assert.NoError(t, CloseRedis(client))
	}
}

func TestInitRedisUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := InitRedis(addr, "", 0)
	assert.Error(t, err)
}

func TestCloseNilHandles(t *testing.T) {
	assert.NoError(t, CloseRedis(nil))
	assert.NoError(t, CloseDB(nil))
}
