// internal/workers/data-access/fetch-isp-account/config.go
package fetchispaccount

import "time"

type Config struct {
	Timeout      time.Duration
	QueryTimeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout:      30 * time.Second,
		QueryTimeout: 15 * time.Second,
	}
}
