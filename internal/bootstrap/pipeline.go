package bootstrap

import (
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/floorcraft/floorplan-backend/config"
	"github.com/floorcraft/floorplan-backend/internal/pipeline"
	"github.com/floorcraft/floorplan-backend/internal/queue"
)

// OpenBroker builds the queue driver selected by QUEUE_DRIVER. rdb is only
// needed for the redis driver.
func OpenBroker(cfg config.QueueConfig, rdb redis.UniversalClient, log *zap.Logger) (queue.Broker, error) {
	switch cfg.Driver {
	case config.QueueMemory:
		return queue.NewMemoryBroker(1024, log), nil
	case config.QueueRedis:
		if rdb == nil {
			return nil, fmt.Errorf("redis queue driver needs a redis client")
		}
		return queue.NewRedisBroker(rdb, cfg.Consumer, log), nil
	case config.QueueKafka:
		return queue.NewKafkaBroker(cfg.KafkaBrokers, log), nil
	case config.QueueAMQP:
		return queue.NewAMQPBroker(cfg.AMQPURL, log)
	}
	return nil, fmt.Errorf("unknown queue driver %q", cfg.Driver)
}

func RetryPolicy(cfg config.QueueConfig) queue.Policy {
	p := queue.DefaultPolicy()
	if cfg.MaxAttempts > 0 {
		p.MaxAttempts = cfg.MaxAttempts
	}
	if cfg.BackoffBase > 0 {
		p.BackoffBase = cfg.BackoffBase
	}
	if cfg.BackoffMax > 0 {
		p.BackoffMax = cfg.BackoffMax
	}
	return p
}

// Pipeline groups the relay and the consumer side around one broker and one
// Stats instance.
type Pipeline struct {
	Broker queue.Broker
	Topic  string
	Group  string
	Policy queue.Policy
	Stats  *pipeline.Stats
	Relay  *pipeline.Relay

	log *zap.Logger
}

func NewPipeline(cfg config.QueueConfig, broker queue.Broker, log *zap.Logger) *Pipeline {
	stats := pipeline.NewStats()
	return &Pipeline{
		Broker: broker,
		Topic:  cfg.Topic,
		Group:  cfg.Group,
		Policy: RetryPolicy(cfg),
		Stats:  stats,
		Relay:  pipeline.NewRelay(broker, cfg.Topic, stats, log.Named("relay")),
		log:    log,
	}
}

// Processor wires a consumer writing through w behind the retry policy.
func (p *Pipeline) Processor(w pipeline.Writer) *queue.Processor {
	log := p.log.Named("consumer")
	consumer := pipeline.NewConsumer(w, p.Stats, log)
	return queue.NewProcessor(p.Broker, p.Topic, p.Policy, consumer.Handle, p.Stats, log)
}
