package config

import "time"

type Relay struct {
	BatchSize uint32        `env:"RELAY_BATCH_SIZE" envDefault:"100"`
	Interval  time.Duration `env:"RELAY_INTERVAL" envDefault:"1s"`
	// Concurrency caps the messages of one batch produced in parallel. Zero means no cap.
	Concurrency int `env:"RELAY_CONCURRENCY" envDefault:"16"`
}
