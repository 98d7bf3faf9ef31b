package redis

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cfgpkg "github.com/taoyao-code/cec-server/internal/config"
	"github.com/taoyao-code/cec-server/internal/coremodel"
	"github.com/taoyao-code/cec-server/internal/protocol/cec"
)

// 需要本地 Redis，不可用时跳过
func setupTestRedis(t *testing.T) *Client {
	t.Helper()
	rdb := redis.NewClient(&redis.Options{Addr: "localhost:6379", DB: 15})
	ctx := context.Background()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		t.Skip("Redis not available, skipping test")
	}
	rdb.FlushDB(ctx)
	t.Cleanup(func() {
		rdb.FlushDB(ctx)
		_ = rdb.Close()
	})
	return Wrap(rdb)
}

func command(t *testing.T, raw string) *coremodel.UnhandledCommand {
	t.Helper()
	f, err := cec.ParseString(raw)
	require.NoError(t, err)
	return coremodel.NewUnhandledCommand(cec.LogicalAddressPlayback1, f, time.Now())
}

func TestCommandQueue_PushRecent(t *testing.T) {
	client := setupTestRedis(t)
	q := NewCommandQueue(client, "test:unhandled", 3)
	ctx := context.Background()

	for _, raw := range []string{"04:01", "04:02", "04:03", "04:04"} {
		require.NoError(t, q.Push(ctx, command(t, raw)))
	}

	n, err := q.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	recent, err := q.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "04:04", recent[0].Raw)
	assert.Equal(t, "04:03", recent[1].Raw)

	// 超出上限的最旧记录已被裁剪
	all, err := q.Recent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "04:02", all[2].Raw)
}

func TestCommandQueue_SkipsCorruptRecords(t *testing.T) {
	client := setupTestRedis(t)
	q := NewCommandQueue(client, "", 0)
	assert.Equal(t, "cec:unhandled", q.Key())
	ctx := context.Background()

	require.NoError(t, q.Push(ctx, command(t, "04:36")))
	require.NoError(t, client.LPush(ctx, q.Key(), "not-json").Err())

	recent, err := q.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, "04:36", recent[0].Raw)
}

func TestOptions(t *testing.T) {
	opts := options(cfgpkg.RedisConfig{Addr: "redis:6379", DB: 2, PoolSize: 7, DialTimeout: time.Second})
	assert.Equal(t, "redis:6379", opts.Addr)
	assert.Equal(t, 2, opts.DB)
	assert.Equal(t, 7, opts.PoolSize)
	assert.Equal(t, time.Second, opts.DialTimeout)

	_, err := NewClient(cfgpkg.RedisConfig{Enabled: false})
	assert.Error(t, err)
}
