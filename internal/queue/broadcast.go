package queue

import (
	"context"
	"errors"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// DefaultRefreshChannel carries catalog reload requests to API replicas.
const DefaultRefreshChannel = "catalog:refresh"

// Broadcast fans a refresh out to every subscribed process over Redis pub/sub.
type Broadcast struct {
	Client  *redis.Client
	Channel string
}

func (b Broadcast) channel() string {
	if b.Channel == "" {
		return DefaultRefreshChannel
	}
	return b.Channel
}

// Publish announces that the catalog source changed.
func (b Broadcast) Publish(ctx context.Context) error {
	if b.Client == nil {
		return errors.New("queue: broadcast redis client not configured")
	}
	return b.Client.Publish(ctx, b.channel(), time.Now().UTC().Format(time.RFC3339Nano)).Err()
}

// Listen refreshes r on every announcement until ctx is done. ready is closed
// once the subscription is active.
func (b Broadcast) Listen(ctx context.Context, r Refresher, logger zerolog.Logger, ready chan<- struct{}) error {
	if b.Client == nil {
		return errors.New("queue: broadcast redis client not configured")
	}
	sub := b.Client.Subscribe(ctx, b.channel())
	defer sub.Close()
	if _, err := sub.Receive(ctx); err != nil {
		return err
	}
	if ready != nil {
		close(ready)
	}
	msgs := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-msgs:
			if !ok {
				return nil
			}
			snap, err := r.Refresh(ctx)
			if err != nil {
				logger.Warn().Err(err).Msg("broadcast catalog refresh failed")
				continue
			}
			logger.Info().Str("version", snap.Version).Msg("catalog refreshed by broadcast")
		}
	}
}
