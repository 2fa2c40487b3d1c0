package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := New("debug", "json", &buf)
	require.Equal(t, logrus.DebugLevel, logger.GetLevel())

	logger.WithField("radius", 120).Info("disk found")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	require.Equal(t, "disk found", entry["msg"])
	require.Equal(t, float64(120), entry["radius"])
}

func TestNew_TextAndFallbackLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New("nonsense", "TEXT", &buf)
	require.Equal(t, logrus.InfoLevel, logger.GetLevel())
	require.IsType(t, &logrus.TextFormatter{}, logger.Formatter)

	logger.Debug("hidden")
	require.Empty(t, buf.String())
}
