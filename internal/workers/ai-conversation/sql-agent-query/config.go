// internal/workers/ai-conversation/sql-agent-query/config.go
package sqlagentquery

import "time"

type Config struct {
	Timeout      time.Duration
	QueryTimeout time.Duration
	CacheTTL     time.Duration
	MaxResults   int
	CachePrefix  string
}

func LoadConfig() *Config {
	return &Config{
		Timeout:      60 * time.Second,
		QueryTimeout: 15 * time.Second,
		CacheTTL:     5 * time.Minute,
		MaxResults:   50,
		CachePrefix:  "isp:sqlagent",
	}
}
