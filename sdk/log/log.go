package shiplog

import (
	"context"
	"io"
	"os"

	"github.com/rockbears/log"
	"github.com/sirupsen/logrus"
)

// Conf contains log configuration
type Conf struct {
	Level      string
	Format     string
	TextFields []string
	Output     io.Writer
}

// Initialize init log level
func Initialize(ctx context.Context, conf *Conf) {
	switch conf.Level {
	case "debug":
		logrus.SetLevel(logrus.DebugLevel)
	case "info":
		logrus.SetLevel(logrus.InfoLevel)
	case "error":
		logrus.SetLevel(logrus.ErrorLevel)
	case "warning":
		logrus.SetLevel(logrus.WarnLevel)
	default:
		logrus.SetLevel(logrus.InfoLevel)
	}

	if conf.Output != nil {
		logrus.SetOutput(conf.Output)
	} else {
		logrus.SetOutput(os.Stderr)
	}

	switch conf.Format {
	case "discard":
		logrus.SetOutput(io.Discard)
	case "json":
		logrus.SetFormatter(&logrus.JSONFormatter{})
	default:
		logrus.SetFormatter(&Formatter{Fields: conf.TextFields})
	}

	log.Debug(ctx, "logger initialized with level %s", logrus.GetLevel())
}
