// internal/workers/communication/export-chat/config.go
package exportchat

import (
	"fmt"
	"time"
)

type Config struct {
	Timeout time.Duration
	// Location drives the date printed in the transcript and its filename.
	Location     *time.Location
	EmailEnabled bool
	Subject      string
}

func LoadConfig() *Config {
	loc, err := time.LoadLocation("America/Sao_Paulo")
	if err != nil {
		loc = time.UTC
	}
	return &Config{
		Timeout:  30 * time.Second,
		Location: loc,
		Subject:  "Histórico de Chat - ISP Assistant",
	}
}

func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.Location == nil {
		return fmt.Errorf("location is required")
	}
	return nil
}
