package dao

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/yaron8/netmonitor/telemetrics"
)

const (
	keyPrefix      = "netmonitor:link:"
	lastUpdatedKey = "netmonitor:last_update"
)

// DAOLinks stores the latest link views in Redis for consumers outside the monitor.
// Every key expires after ttl so links that stop being reported disappear.
type DAOLinks struct {
	redisClient *redis.Client
	ttl         time.Duration
}

// NewDAOLinks creates a new DAOLinks with the provided Redis client
func NewDAOLinks(redisClient *redis.Client, ttl time.Duration) *DAOLinks {
	return &DAOLinks{
		redisClient: redisClient,
		ttl:         ttl,
	}
}

// LinkKey is the Redis key of the view of the link src:srcPort -> dst:dstPort.
// Ports are part of the key since two switches may be joined by parallel links.
func LinkKey(view telemetrics.LinkView) string {
	return fmt.Sprintf("%s%s:%d:%s:%d", keyPrefix, view.SrcNode, view.SrcPort, view.DstNode, view.DstPort)
}

// StoreAll writes every view and the update time in a single pipeline.
func (dao *DAOLinks) StoreAll(ctx context.Context, views []telemetrics.LinkView, updatedAt time.Time) error {
	pipe := dao.redisClient.Pipeline()
	for _, view := range views {
		data, err := json.Marshal(view)
		if err != nil {
			return fmt.Errorf("marshal link view %s: %w", LinkKey(view), err)
		}
		pipe.Set(ctx, LinkKey(view), data, dao.ttl)
	}
	pipe.Set(ctx, lastUpdatedKey, updatedAt.Unix(), dao.ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store link views: %w", err)
	}
	return nil
}

// GetAll reads back every stored view.
func (dao *DAOLinks) GetAll(ctx context.Context) ([]telemetrics.LinkView, error) {
	var views []telemetrics.LinkView

	iter := dao.redisClient.Scan(ctx, 0, keyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		data, err := dao.redisClient.Get(ctx, iter.Val()).Bytes()
		if err == redis.Nil {
			// expired between SCAN and GET
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("get %s: %w", iter.Val(), err)
		}

		var view telemetrics.LinkView
		if err := json.Unmarshal(data, &view); err != nil {
			return nil, fmt.Errorf("decode %s: %w", iter.Val(), err)
		}
		views = append(views, view)
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scan link views: %w", err)
	}

	return views, nil
}

// GetLastUpdateTime returns the zero time if nothing was published yet.
func (dao *DAOLinks) GetLastUpdateTime(ctx context.Context) (time.Time, error) {
	val, err := dao.redisClient.Get(ctx, lastUpdatedKey).Result()
	if err == redis.Nil {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, err
	}

	sec, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid last update time %q: %w", val, err)
	}
	return time.Unix(sec, 0), nil
}

func (dao *DAOLinks) Close() error {
	return dao.redisClient.Close()
}
