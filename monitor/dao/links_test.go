package dao

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yaron8/netmonitor/telemetrics"
)

func TestLinkKey(t *testing.T) {
	view := telemetrics.LinkView{
		SrcNode: "00:00:00:00:00:00:00:01", SrcPort: 19,
		DstNode: "00:00:00:00:00:00:00:02", DstPort: 24,
	}

	assert.Equal(t, "netmonitor:link:00:00:00:00:00:00:00:01:19:00:00:00:00:00:00:00:02:24", LinkKey(view))
}

// two links between the same switches must not overwrite each other
func TestLinkKey_ParallelLinks(t *testing.T) {
	a := telemetrics.LinkView{SrcNode: "00:00:00:00:00:00:00:01", SrcPort: 1, DstNode: "00:00:00:00:00:00:00:02", DstPort: 1}
	b := telemetrics.LinkView{SrcNode: "00:00:00:00:00:00:00:01", SrcPort: 2, DstNode: "00:00:00:00:00:00:00:02", DstPort: 2}

	assert.NotEqual(t, LinkKey(a), LinkKey(b))
}

// newTestDAO connects to the Redis named by REDIS_TEST_ADDR and skips otherwise.
func newTestDAO(t *testing.T) *DAOLinks {
	t.Helper()

	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR not set, skipping Redis tests")
	}

	client := redis.NewClient(&redis.Options{Addr: addr, Protocol: 2})
	ctx := context.Background()
	require.NoError(t, client.Ping(ctx).Err(), "Failed to reach Redis at %s", addr)

	cleanup := func() {
		iter := client.Scan(ctx, 0, keyPrefix+"*", 100).Iterator()
		for iter.Next(ctx) {
			client.Del(ctx, iter.Val())
		}
		client.Del(ctx, lastUpdatedKey)
	}
	cleanup()

	dao := NewDAOLinks(client, time.Minute)
	t.Cleanup(func() {
		cleanup()
		dao.Close()
	})
	return dao
}

func TestDAOLinks_StoreAndReadBack(t *testing.T) {
	dao := newTestDAO(t)
	ctx := context.Background()

	views := []telemetrics.LinkView{
		{SrcNode: "00:00:00:00:00:00:00:02", SrcPort: 1, DstNode: "00:00:00:00:00:00:00:01", DstPort: 2, DelayMs: 3, BandwidthBps: 1e8},
		{SrcNode: "00:00:00:00:00:00:00:02", SrcPort: 5, DstNode: "00:00:00:00:00:00:00:01", DstPort: 6, LossPercent: 0.5},
	}
	updatedAt := time.Unix(1586869012, 0)

	require.NoError(t, dao.StoreAll(ctx, views, updatedAt))

	got, err := dao.GetAll(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, views, got)

	last, err := dao.GetLastUpdateTime(ctx)
	require.NoError(t, err)
	assert.True(t, updatedAt.Equal(last), fmt.Sprintf("last update %v, want %v", last, updatedAt))
}

func TestDAOLinks_NothingStored(t *testing.T) {
	dao := newTestDAO(t)
	ctx := context.Background()

	got, err := dao.GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)

	last, err := dao.GetLastUpdateTime(ctx)
	require.NoError(t, err)
	assert.True(t, last.IsZero())
}
