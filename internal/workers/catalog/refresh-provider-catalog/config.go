// internal/workers/catalog/refresh-provider-catalog/config.go
package refreshprovidercatalog

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 60 * time.Second,
	}
}
