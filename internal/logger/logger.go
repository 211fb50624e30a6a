package logger

import (
	"fmt"

	log "github.com/sirupsen/logrus"
)

type Config struct {
	Level string
}

// Prepare applies the configured level to the global logrus logger.
func Prepare(config Config) error {
	level, err := log.ParseLevel(config.Level)
	if err != nil {
		return fmt.Errorf("unknown log level %q: %w", config.Level, err)
	}
	log.SetLevel(level)
	return nil
}
