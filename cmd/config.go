package main

import (
	"time"

	"github.com/go-playground/validator/v10"
)

type Config struct {
	BufferSize           int           `env:"BUFFER_SIZE,required=true" validate:"gt=0"`
	ConnectionBufferSize int           `env:"CONNECTION_BUFFER_SIZE,required=true" validate:"gt=0"`
	LimitMessages        *int          `env:"LIMIT_MESSAGES" validate:"omitempty,gt=0"`
	MaxContentLength     int           `env:"MAX_CONTENT_LENGTH,default=4000" validate:"gt=0"`
	SinkTimeout          time.Duration `env:"SINK_TIMEOUT,required=true" validate:"gt=0"`
	PublishTimeout       time.Duration `env:"PUBLISH_TIMEOUT,default=2s" validate:"gt=0"`
	OrderTimeout         time.Duration `env:"ORDER_TIMEOUT,default=5s" validate:"gt=0"`
	RestartInterval      time.Duration `env:"RESTART_INTERVAL,required=true" validate:"gt=0"`
	ShutdownTimeout      time.Duration `env:"SHUTDOWN_TIMEOUT,default=10s" validate:"gt=0"`
	StatsInterval        time.Duration `env:"STATS_INTERVAL,default=1m" validate:"gt=0"`
	AuthSecret           string        `env:"AUTH_SECRET,required=true" validate:"required"`
	AuthTokenDuration    time.Duration `env:"AUTH_TOKEN_DURATION,required=true" validate:"gt=0"`
	BadgerFilepath       string        `env:"BADGER_FILEPATH,required=true" validate:"required"`
	LogLevel             string        `env:"LOG_LEVEL,required=true"`
	Host                 string        `env:"HOST,default=localhost"`
	Port                 int           `env:"PORT,default=8080" validate:"gt=0,lte=65535"`
}

// Validate rejects values go-env accepts but the runtime cannot use,
// such as a zero ticker interval.
func (c Config) Validate() error {
	return validator.New().Struct(c)
}
