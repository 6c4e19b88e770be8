// internal/workers/ai-conversation/answer-follow-up/config.go
package answerfollowup

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 90 * time.Second,
	}
}
