package rediscache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"petmatch/internal/changefeed"
	"petmatch/internal/platform/logger"

	"github.com/redis/go-redis/v9"
)

const feedChannelPrefix = KeyPrefix + "feed:"

// Feed publica en Redis pub/sub y reparte lo recibido en el hub local, así
// varias instancias de la API comparten el mismo flujo de cambios.
type Feed struct {
	rdb  *redis.Client
	hub  *changefeed.Hub
	log  logger.Logger
	once sync.Once
}

func NewFeed(rdb *redis.Client, hub *changefeed.Hub, log logger.Logger) *Feed {
	if log == nil {
		log = logger.Nop()
	}
	return &Feed{rdb: rdb, hub: hub, log: log}
}

func (f *Feed) Publish(ctx context.Context, e changefeed.Event) error {
	b, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	return f.rdb.Publish(ctx, feedChannelPrefix+e.Topic, b).Err()
}

func (f *Feed) Subscribe(topic string) (<-chan changefeed.Event, func()) {
	return f.hub.Subscribe(topic)
}

// Start lanza un único listener por proceso; termina con ctx.
func (f *Feed) Start(ctx context.Context) {
	f.once.Do(func() {
		go f.run(ctx)
	})
}

func (f *Feed) run(ctx context.Context) {
	backoff := time.Second

	for {
		if ctx.Err() != nil {
			return
		}

		err := f.listen(ctx, func() { backoff = time.Second })
		if ctx.Err() != nil {
			return
		}
		f.log.Warn("changefeed subscriber disconnected", map[string]any{"err": err, "retry_in": backoff.String()})

		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > 30*time.Second {
			backoff = 30 * time.Second
		}
	}
}

func (f *Feed) listen(ctx context.Context, connected func()) error {
	ps := f.rdb.PSubscribe(ctx, feedChannelPrefix+"*")
	defer ps.Close()

	if _, err := ps.Receive(ctx); err != nil {
		return err
	}
	connected()
	f.log.Info("changefeed subscriber started", map[string]any{"pattern": feedChannelPrefix + "*"})

	for {
		msg, err := ps.ReceiveMessage(ctx)
		if err != nil {
			return err
		}

		var e changefeed.Event
		if err := json.Unmarshal([]byte(msg.Payload), &e); err != nil {
			f.log.Warn("changefeed event dropped", map[string]any{"channel": msg.Channel, "err": err})
			continue
		}
		if e.Topic == "" {
			e.Topic = strings.TrimPrefix(msg.Channel, feedChannelPrefix)
		}
		f.hub.Deliver(e)
	}
}
