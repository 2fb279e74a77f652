package logging

import (
	"testing"

	"github.com/pion/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	level, err := ParseLevel("DEBUG")
	require.NoError(t, err)
	assert.Equal(t, logging.LogLevelDebug, level)

	_, err = ParseLevel("loud")
	assert.Error(t, err)
}

func TestSetLevel(t *testing.T) {
	l := NewLogger("framebridge/test")
	require.NoError(t, SetLevel("trace"))
	assert.Equal(t, logging.LogLevelTrace, loggerFactory.DefaultLogLevel)
	l.Trace("visible at trace level")

	assert.Error(t, SetLevel("nope"))
	require.NoError(t, SetLevel("error"))
}
