package applogger

import (
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	logger *logrus.Logger
	once   sync.Once
)

// GetLogrus returns the process-wide JSON logger.
func GetLogrus() *logrus.Logger {
	once.Do(func() {
		logger = logrus.New()
		logger.SetOutput(os.Stdout)
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetLevel(logrus.InfoLevel)
		if os.Getenv("APP_DEBUG") == "true" {
			logger.SetLevel(logrus.DebugLevel)
		}
	})

	return logger
}
