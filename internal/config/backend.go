package config

import "time"

// Backend configures the upstream catalog API client.
type Backend struct {
	BaseURL        string        `env:"BACKEND_BASE_URL,required"`
	RequestTimeout time.Duration `env:"BACKEND_REQUEST_TIMEOUT" envDefault:"30s"`
}
