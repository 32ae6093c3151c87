// Package notifications publishes committed clicks as a live feed over Redis.
package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"clickseed/internal/models"

	"github.com/redis/go-redis/v9"
)

// RecentLimit is how many clicks the recent list keeps.
const RecentLimit = 100

// ClickMessage is the payload published for every committed click.
type ClickMessage struct {
	RunID        string    `json:"run_id"`
	Row          int       `json:"row"`
	ClickTS      time.Time `json:"click_ts"`
	AdCost       float64   `json:"ad_cost"`
	IsConversion bool      `json:"is_conversion"`
	UserID       string    `json:"user_id"`
}

// ClickPublisher provides helpers to publish clicks into Redis channels
type ClickPublisher struct {
	rdb     *redis.Client
	channel string
}

// NewClickPublisher creates a publisher. A nil client disables publishing.
func NewClickPublisher(rdb *redis.Client, channel string) *ClickPublisher {
	return &ClickPublisher{rdb: rdb, channel: channel}
}

// RecentKey is the list holding the latest published clicks.
func (p *ClickPublisher) RecentKey() string {
	return p.channel + ":recent"
}

// Publish sends the click on the channel and pushes it onto the capped recent list.
func (p *ClickPublisher) Publish(ctx context.Context, runID string, row int, click models.ClickEvent) error {
	if p.rdb == nil {
		return nil
	}

	payload, err := json.Marshal(ClickMessage{
		RunID:        runID,
		Row:          row,
		ClickTS:      click.ClickTS,
		AdCost:       click.AdCost,
		IsConversion: click.IsConversion,
		UserID:       click.UserID,
	})
	if err != nil {
		return fmt.Errorf("encode click %d: %w", row, err)
	}

	_, err = p.rdb.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Publish(ctx, p.channel, payload)
		pipe.LPush(ctx, p.RecentKey(), payload)
		pipe.LTrim(ctx, p.RecentKey(), 0, RecentLimit-1)
		return nil
	})
	if err != nil {
		return fmt.Errorf("publish click %d: %w", row, err)
	}
	return nil
}

// Subscribe listens on the click channel and calls onMessage for each click
// until ctx is done.
func (p *ClickPublisher) Subscribe(ctx context.Context, onMessage func(ClickMessage)) error {
	if p.rdb == nil {
		return nil
	}
	sub := p.rdb.Subscribe(ctx, p.channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("subscribe %s: %w", p.channel, err)
	}
	ch := sub.Channel()

	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var m ClickMessage
				if err := json.Unmarshal([]byte(msg.Payload), &m); err != nil {
					continue
				}
				onMessage(m)
			}
		}
	}()

	return nil
}
