package common

import (
	"bytes"
	"os"
	"testing"

	"github.com/lni/dragonboat/v4/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLogLevel(t *testing.T) {
	cases := map[string]logger.LogLevel{
		"debug":   logger.DEBUG,
		"INFO":    logger.INFO,
		"warn":    logger.WARNING,
		"warning": logger.WARNING,
		"error":   logger.ERROR,
	}
	for in, want := range cases {
		got, err := ParseLogLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseLogLevel("verbose")
	assert.Error(t, err)
}

func TestCreateLoggerFormatAndLevel(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stdout)

	l := CreateLogger("test")
	l.Infof("hidden %d", 1)
	assert.Empty(t, buf.String(), "default level is warning")

	l.SetLevel(logger.DEBUG)
	l.Debugf("visible %d", 2)
	assert.Contains(t, buf.String(), "DEBUG | test       | visible 2")
}

func TestInitLoggersRejectsUnknownLevel(t *testing.T) {
	assert.Error(t, InitLoggers("loud"))
	assert.NoError(t, InitLoggers("error"))
	assert.NoError(t, InitLoggers("warn"), "installing the factory twice must be safe")
}

func TestLoggerAfterOutputRestored(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	SetOutput(os.Stdout)

	l := CreateLogger("restored")
	assert.NotPanics(t, func() { l.Errorf("written to stdout") })
	assert.Empty(t, buf.String())
}
