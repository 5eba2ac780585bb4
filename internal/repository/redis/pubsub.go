package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// EventsPubSub fans event changes out to every API instance so each can drop
// its cached copy of the row.
type EventsPubSub struct {
	rdb     *redis.Client
	channel string
	now     func() time.Time
}

func NewEventsPubSub(rdb *redis.Client) *EventsPubSub {
	return &EventsPubSub{
		rdb:     rdb,
		channel: ChannelEventsChanged(),
		now:     time.Now,
	}
}

// EventChange is the payload sent on the events channel.
type EventChange struct {
	EventID int64  `json:"event_id"`
	Kind    string `json:"kind"`
	TsUnix  int64  `json:"ts_unix"`
}

func (p *EventsPubSub) PublishEventChanged(ctx context.Context, eventID int64, kind string) error {
	b, err := json.Marshal(EventChange{
		EventID: eventID,
		Kind:    kind,
		TsUnix:  p.now().Unix(),
	})
	if err != nil {
		return err
	}

	return p.rdb.Publish(ctx, p.channel, b).Err()
}

// Subscribe calls handler for every event change until ctx is done.
// Malformed payloads are skipped.
func (p *EventsPubSub) Subscribe(ctx context.Context, handler func(ctx context.Context, ch EventChange)) error {
	sub := p.rdb.Subscribe(ctx, p.channel)
	defer sub.Close()

	msgs := sub.Channel(redis.WithChannelSize(256))
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case m, ok := <-msgs:
			if !ok {
				return nil
			}
			ch, ok := decodeEventChange(m.Payload)
			if !ok {
				continue
			}
			handler(ctx, ch)
		}
	}
}

func decodeEventChange(payload string) (EventChange, bool) {
	var ch EventChange
	if err := json.Unmarshal([]byte(payload), &ch); err != nil || ch.EventID == 0 {
		return EventChange{}, false
	}
	return ch, true
}
