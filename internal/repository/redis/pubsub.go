package redis

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"

	"github.com/kirinyoku/tix-gate/internal/domain"
	redisx "github.com/kirinyoku/tix-gate/internal/redis"
)

// EventsPubSub fans committed ledger changes out over a redis channel.
type EventsPubSub struct {
	rdb     *redis.Client
	channel string
}

func NewEventsPubSub(rdb *redis.Client) *EventsPubSub {
	return &EventsPubSub{
		rdb:     rdb,
		channel: redisx.ChannelTicketsChanged(),
	}
}

func (p *EventsPubSub) Publish(ctx context.Context, ev domain.ChangeEvent) error {
	b, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	return p.rdb.Publish(ctx, p.channel, b).Err()
}

// Subscribe calls handler for every well-formed event until ctx is done
// or the subscription is closed. ready, when non-nil, is closed once the
// subscription is confirmed by the server.
func (p *EventsPubSub) Subscribe(
	ctx context.Context,
	ready chan<- struct{},
	handler func(ctx context.Context, ev domain.ChangeEvent),
) error {
	sub := p.rdb.Subscribe(ctx, p.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return err
	}
	if ready != nil {
		close(ready)
	}

	ch := sub.Channel(redis.WithChannelSize(256))
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case m, ok := <-ch:
			if !ok {
				return nil
			}
			var ev domain.ChangeEvent
			if err := json.Unmarshal([]byte(m.Payload), &ev); err == nil &&
				ev.Type != "" {
				handler(ctx, ev)
			}
		}
	}
}
