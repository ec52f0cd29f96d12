package config

import (
	"time"

	"github.com/mitchellh/mapstructure"
)

type (
	Pool struct {
		// MaxConnections is the number of client slots the server owns. Connections
		// exceeding it are rejected.
		MaxConnections int `mapstructure:"max_connections"`
	}

	NET struct {
		// Addr is the address the host listens on.
		Addr string `mapstructure:"addr"`
		// ReadBufferSize is a size of buffer in bytes which will be used to read from
		// socket
		ReadBufferSize int `mapstructure:"read_buffer_size"`
		// ReadTimeout controls the maximal lifetime of IDLE connections. If no data was
		// received in this period of time, it'll be closed.
		ReadTimeout time.Duration `mapstructure:"read_timeout"`
		// WriteTimeout limits how long a single write may block. A client not reading
		// its response would otherwise stall the whole host. Zero disables it.
		WriteTimeout time.Duration `mapstructure:"write_timeout"`
		// AcceptLoopInterruptPeriod controls how often will the Accept() call be interrupted
		// in order to check whether it's time to stop. Defaults to 5 seconds.
		AcceptLoopInterruptPeriod time.Duration `mapstructure:"accept_loop_interrupt_period"`
	}

	Metrics struct {
		// Addr enables the metrics endpoint if not empty.
		Addr string `mapstructure:"addr" test:"nullable"`
	}
)

// Config holds settings of the host running the server.
//
// You must ALWAYS modify defaults (returned via Default()) and NEVER try to initialize the
// config manually, because most likely this will result in ambiguous errors.
type Config struct {
	Pool    Pool    `mapstructure:"pool"`
	NET     NET     `mapstructure:"net"`
	Metrics Metrics `mapstructure:"metrics"`
}

// Default returns default config.
func Default() *Config {
	return &Config{
		Pool: Pool{
			MaxConnections: 4,
		},
		NET: NET{
			Addr:                      "localhost:8080",
			ReadBufferSize:            1024,
			ReadTimeout:               90 * time.Second,
			WriteTimeout:              10 * time.Second,
			AcceptLoopInterruptPeriod: 5 * time.Second,
		},
	}
}

// DecodeHook converts the values coming from config files, environment and flags
// into the types of Config fields.
func DecodeHook() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.TextUnmarshallerHookFunc(),
	)
}

// Decode merges the raw settings into the config. Keys missing in raw keep their
// current values.
func (c *Config) Decode(raw map[string]any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       DecodeHook(),
		ErrorUnused:      true,
		WeaklyTypedInput: true,
		Result:           c,
	})
	if err != nil {
		return err
	}

	return dec.Decode(raw)
}
