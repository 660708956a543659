package ulogger

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewZeroLogger(t *testing.T) {
	var buf bytes.Buffer

	logger := NewZeroLogger("test", WithWriter(&buf), WithLevel("DEBUG"))
	require.NotNil(t, logger)

	logger.Debugf("hello %s", "world")
	assert.Contains(t, buf.String(), "hello world")
}

func TestSetLogLevel(t *testing.T) {
	var buf bytes.Buffer

	logger := NewZeroLogger("test", WithWriter(&buf), WithLevel("ERROR"))

	logger.Infof("should be suppressed")
	assert.NotContains(t, buf.String(), "should be suppressed")

	logger.Errorf("should appear")
	assert.Contains(t, buf.String(), "should appear")

	logger.SetLogLevel("DEBUG")
	logger.Debugf("now visible")
	assert.Contains(t, buf.String(), "now visible")
}

func TestNewDerivedLogger(t *testing.T) {
	var buf bytes.Buffer

	parent := NewZeroLogger("parent", WithWriter(&buf), WithLevel("INFO"))

	child := parent.New("child")
	require.NotNil(t, child)

	child.Infof("from child")
	assert.Contains(t, buf.String(), "from child")
}

func TestTestLogger(t *testing.T) {
	var logger Logger = TestLogger{}

	// must be safe to call everything
	logger.Debugf("x")
	logger.Infof("x")
	logger.Warnf("x")
	logger.Errorf("x")
	assert.Equal(t, 0, logger.LogLevel())
	assert.NotNil(t, logger.New("child"))
}
