package config

import "time"

type Kafka struct {
	Addresses []string `env:"KAFKA_ADDRESSES,required" envSeparator:","`
	Group     string   `env:"KAFKA_GROUP,required"`
	ClientID  string   `env:"KAFKA_CLIENT_ID" envDefault:"medsupply"`

	ProduceTimeout time.Duration `env:"KAFKA_PRODUCE_TIMEOUT" envDefault:"10s"`

	// HandlerMaxTries bounds the attempts made for one record before it is
	// logged and committed.
	HandlerMaxTries uint          `env:"KAFKA_HANDLER_MAX_TRIES" envDefault:"3"`
	HandlerBackoff  time.Duration `env:"KAFKA_HANDLER_BACKOFF" envDefault:"500ms"`
}
