package logging

import (
	"io"
	"strings"

	"github.com/sirupsen/logrus"
)

// New создаёт логгер с заданным уровнем и форматом ("json" или "text").
// Неизвестный уровень заменяется на info.
func New(level, format string, out io.Writer) *logrus.Logger {
	logger := logrus.New()
	if out != nil {
		logger.SetOutput(out)
	}

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	logger.SetLevel(lvl)

	if strings.EqualFold(format, "text") {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	return logger
}
