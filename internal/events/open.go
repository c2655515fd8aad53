package events

import (
	"fmt"

	"go.uber.org/zap"
)

type Config struct {
	Driver       string // none | log | amqp | kafka
	AMQPURL      string
	AMQPExchange string
	KafkaBrokers []string
	KafkaTopic   string
}

// Open builds the publisher selected by cfg.Driver.
func Open(cfg Config, logger *zap.Logger) (Publisher, error) {
	switch cfg.Driver {
	case "", "none":
		return Noop{}, nil
	case "log":
		return NewLog(logger), nil
	case "amqp":
		return DialAMQP(cfg.AMQPURL, cfg.AMQPExchange)
	case "kafka":
		return NewKafka(KafkaConfig{Brokers: cfg.KafkaBrokers, Topic: cfg.KafkaTopic})
	default:
		return nil, fmt.Errorf("unknown events driver %q", cfg.Driver)
	}
}
