package audit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/wso2/xs2a-sca-engine/internal/system/config"
	"github.com/wso2/xs2a-sca-engine/internal/system/log"
)

const redisWriteTimeout = 2 * time.Second

// StreamAdder is the part of the redis client the stream sink uses.
type StreamAdder interface {
	XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd
}

// RedisSink appends events to a redis stream with XADD.
type RedisSink struct {
	client StreamAdder
	stream string
	maxLen int64
	logger *log.Logger
	wg     sync.WaitGroup
}

// NewRedisClient connects to the configured redis server and verifies it with a ping.
func NewRedisClient(cfg config.RedisAuditConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return client, nil
}

// NewRedisSink creates a sink writing to stream. A positive maxLen trims the stream
// approximately to that length.
func NewRedisSink(client StreamAdder, stream string, maxLen int64) *RedisSink {
	return &RedisSink{
		client: client,
		stream: stream,
		maxLen: maxLen,
		logger: log.GetLogger().With(log.String(log.LoggerKeyComponentName, "AuditRedisSink")),
	}
}

// RecordRequest returns immediately; the XADD runs in the background.
func (s *RedisSink) RecordRequest(ctx context.Context, eventType EventType, payload interface{}) {
	event := NewEvent(ctx, eventType, payload)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.publish(context.WithoutCancel(ctx), event)
	}()
}

// Wait blocks until every in-flight event has been appended.
func (s *RedisSink) Wait() {
	s.wg.Wait()
}

func (s *RedisSink) publish(ctx context.Context, event *Event) {
	writeCtx, cancel := context.WithTimeout(ctx, redisWriteTimeout)
	defer cancel()

	args := &redis.XAddArgs{
		Stream: s.stream,
		Values: map[string]interface{}{
			"eventType": string(event.EventType),
			"timestamp": event.Timestamp,
			"requestId": event.RequestID,
			"tppId":     event.TppID,
			"payload":   string(event.Payload),
		},
	}
	if s.maxLen > 0 {
		args.MaxLen = s.maxLen
		args.Approx = true
	}

	if err := s.client.XAdd(writeCtx, args).Err(); err != nil {
		s.logger.Warn("Failed to append audit event to stream",
			log.String("stream", s.stream),
			log.String("eventType", string(event.EventType)),
			log.Error(err))
	}
}
