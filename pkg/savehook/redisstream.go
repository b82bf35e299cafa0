package savehook

import (
	"context"
	"encoding/json"

	"github.com/ThreeDotsLabs/watermill"
	rstream "github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// RedisSettings configures the Redis Streams sink.
type RedisSettings struct {
	Addr   string `mapstructure:"addr"`
	Stream string `mapstructure:"stream"`
}

// RedisStreamSink publishes each saved exchange as a watermill message on a
// Redis stream, so other services can consume widget conversations.
type RedisStreamSink struct {
	stream    string
	client    redis.UniversalClient
	publisher message.Publisher
}

var _ Sink = &RedisStreamSink{}

func NewRedisStreamSink(s RedisSettings) (*RedisStreamSink, error) {
	if s.Addr == "" {
		return nil, errors.New("redis save sink: empty addr")
	}
	client := redis.NewClient(&redis.Options{Addr: s.Addr})
	return newRedisStreamSink(client, s.Stream)
}

func newRedisStreamSink(client redis.UniversalClient, stream string) (*RedisStreamSink, error) {
	if stream == "" {
		stream = "chatwidget.exchanges"
	}
	pub, err := rstream.NewPublisher(rstream.PublisherConfig{
		Client:     client,
		Marshaller: rstream.DefaultMarshallerUnmarshaller{},
	}, NewWatermillLogger(log.Logger))
	if err != nil {
		return nil, errors.Wrap(err, "redis save sink: publisher")
	}
	return &RedisStreamSink{stream: stream, client: client, publisher: pub}, nil
}

func (r *RedisStreamSink) Save(ctx context.Context, rec Record) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return errors.Wrap(err, "redis save sink: marshal")
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.Metadata.Set("user_id", rec.UserID)
	msg.SetContext(ctx)
	if err := r.publisher.Publish(r.stream, msg); err != nil {
		return errors.Wrap(err, "redis save sink: publish")
	}
	return nil
}

func (r *RedisStreamSink) Close() error {
	err := r.publisher.Close()
	if cerr := r.client.Close(); err == nil {
		err = cerr
	}
	return err
}

// zerologWatermill adapts a zerolog logger to watermill's LoggerAdapter.
type zerologWatermill struct {
	logger zerolog.Logger
}

func NewWatermillLogger(l zerolog.Logger) watermill.LoggerAdapter {
	return zerologWatermill{logger: l.With().Str("component", "watermill").Logger()}
}

func (z zerologWatermill) Error(msg string, err error, fields watermill.LogFields) {
	z.logger.Error().Err(err).Fields(map[string]interface{}(fields)).Msg(msg)
}

func (z zerologWatermill) Info(msg string, fields watermill.LogFields) {
	z.logger.Info().Fields(map[string]interface{}(fields)).Msg(msg)
}

func (z zerologWatermill) Debug(msg string, fields watermill.LogFields) {
	z.logger.Debug().Fields(map[string]interface{}(fields)).Msg(msg)
}

func (z zerologWatermill) Trace(msg string, fields watermill.LogFields) {
	z.logger.Trace().Fields(map[string]interface{}(fields)).Msg(msg)
}

func (z zerologWatermill) With(fields watermill.LogFields) watermill.LoggerAdapter {
	return zerologWatermill{logger: z.logger.With().Fields(map[string]interface{}(fields)).Logger()}
}
