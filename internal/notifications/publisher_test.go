package notifications

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"clickseed/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func click(i int) models.ClickEvent {
	return models.ClickEvent{
		ClickTS:      time.Date(2023, 2, 1, 13, 30, 25, 0, time.UTC).Add(time.Duration(i) * time.Minute),
		AdCost:       1.25,
		IsConversion: i%2 == 0,
		UserID:       "000000000001",
	}
}

func TestClickPublisher_PushesRecent(t *testing.T) {
	mr, rdb := setupRedis(t)
	p := NewClickPublisher(rdb, "clicks:inserted")
	ctx := context.Background()

	require.NoError(t, p.Publish(ctx, "run-1", 1, click(1)))

	items, err := mr.List("clicks:inserted:recent")
	require.NoError(t, err)
	require.Len(t, items, 1)

	var msg ClickMessage
	require.NoError(t, json.Unmarshal([]byte(items[0]), &msg))
	assert.Equal(t, "run-1", msg.RunID)
	assert.Equal(t, 1, msg.Row)
	assert.Equal(t, "000000000001", msg.UserID)
	assert.Equal(t, 1.25, msg.AdCost)
	assert.True(t, msg.ClickTS.Equal(click(1).ClickTS))
}

func TestClickPublisher_RecentIsCapped(t *testing.T) {
	mr, rdb := setupRedis(t)
	p := NewClickPublisher(rdb, "clicks:inserted")
	ctx := context.Background()

	for i := 1; i <= RecentLimit+20; i++ {
		require.NoError(t, p.Publish(ctx, "run-1", i, click(i)))
	}

	items, err := mr.List(p.RecentKey())
	require.NoError(t, err)
	assert.Len(t, items, RecentLimit)

	var newest ClickMessage
	require.NoError(t, json.Unmarshal([]byte(items[0]), &newest))
	assert.Equal(t, RecentLimit+20, newest.Row)
}

func TestClickPublisher_Subscribe(t *testing.T) {
	_, rdb := setupRedis(t)
	p := NewClickPublisher(rdb, "clicks:inserted")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan ClickMessage, 1)
	require.NoError(t, p.Subscribe(ctx, func(m ClickMessage) { received <- m }))

	require.NoError(t, p.Publish(ctx, "run-9", 3, click(3)))

	select {
	case m := <-received:
		assert.Equal(t, "run-9", m.RunID)
		assert.Equal(t, 3, m.Row)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for published click")
	}
}

func TestClickPublisher_NilClientIsNoop(t *testing.T) {
	p := NewClickPublisher(nil, "clicks:inserted")
	assert.NoError(t, p.Publish(context.Background(), "run", 1, click(1)))
	assert.NoError(t, p.Subscribe(context.Background(), func(ClickMessage) {}))
}

func TestClickPublisher_ErrorWhenServerGone(t *testing.T) {
	mr, rdb := setupRedis(t)
	p := NewClickPublisher(rdb, "clicks:inserted")
	mr.Close()

	err := p.Publish(context.Background(), "run", 1, click(1))
	assert.ErrorContains(t, err, "publish click 1")
}
