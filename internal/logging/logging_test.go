package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func restore(t *testing.T) {
	t.Cleanup(func() {
		logrus.SetLevel(logrus.InfoLevel)
		logrus.SetFormatter(&logrus.TextFormatter{})
		logrus.SetOutput(os.Stderr)
	})
}

func TestSetupJSON(t *testing.T) {
	restore(t)
	var buf bytes.Buffer
	require.NoError(t, Setup("debug", "json", &buf))

	logrus.WithField("component", "test").Debug("hello")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "hello", entry["msg"])
	assert.Equal(t, "test", entry["component"])
	assert.Equal(t, "debug", entry["level"])
}

func TestSetupLevelFilters(t *testing.T) {
	restore(t)
	var buf bytes.Buffer
	require.NoError(t, Setup("warn", "text", &buf))

	logrus.Info("quiet")
	assert.Empty(t, buf.String())
	logrus.Warn("loud")
	assert.Contains(t, buf.String(), "loud")
}

func TestSetupRejectsBadInput(t *testing.T) {
	restore(t)
	assert.Error(t, Setup("chatty", "text", nil))
	assert.Error(t, Setup("info", "xml", nil))
}
