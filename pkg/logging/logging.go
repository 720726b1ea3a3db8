package logging

import (
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
)

const (
	FormatJSON = "json"
	FormatText = "text"
)

func Setup(level, format string) error {
	switch format {
	case FormatJSON:
		log.SetFormatter(&log.JSONFormatter{
			TimestampFormat: time.RFC3339Nano,
		})
	case FormatText:
		log.SetFormatter(&log.TextFormatter{
			FullTimestamp: true,
		})
	default:
		return fmt.Errorf("log format '%s' is not recognized", format)
	}

	logLevel, err := log.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("while setting log level: %s", err)
	}
	log.SetLevel(logLevel)

	return nil
}
