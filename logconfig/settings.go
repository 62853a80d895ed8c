package logconfig

import (
	"fmt"
	"strings"

	myLogger "github.com/sirupsen/logrus"
)

// This output format is used in the test (has terminal).
func ConfigDebugLogger() {
	myLogger.SetReportCaller(true)
	myLogger.SetLevel(myLogger.DebugLevel)
	myLogger.SetFormatter(&myLogger.TextFormatter{
		ForceColors:            true,
		DisableTimestamp:       true,
		DisableLevelTruncation: true,
		PadLevelText:           true,
	})
}

func ConfigInfoLogger() {
	myLogger.SetReportCaller(false)
	myLogger.SetLevel(myLogger.InfoLevel)
	myLogger.SetFormatter(&myLogger.TextFormatter{
		ForceColors:            true,
		DisableTimestamp:       true,
		DisableLevelTruncation: true,
		PadLevelText:           true,
	})
}

// This output format is used in production.
func ConfigProductionLogger() {
	myLogger.SetReportCaller(false)
	myLogger.SetLevel(myLogger.InfoLevel)
	myLogger.SetFormatter(&myLogger.JSONFormatter{
		TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
	})
}

// ConfigLogger picks a preset by name: debug, info or production. Any other
// name is read as a logrus level and applied on top of the info preset.
func ConfigLogger(name string) error {
	switch strings.ToLower(name) {
	case "", "info":
		ConfigInfoLogger()
	case "debug":
		ConfigDebugLogger()
	case "production", "prod", "json":
		ConfigProductionLogger()
	default:
		level, err := myLogger.ParseLevel(name)
		if err != nil {
			return fmt.Errorf("unknown log preset %q", name)
		}
		ConfigInfoLogger()
		myLogger.SetLevel(level)
	}
	return nil
}
