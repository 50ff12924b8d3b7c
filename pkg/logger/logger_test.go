package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetLogger(t *testing.T) {
	for _, level := range []string{LogLevelInfo, LogLevelDebug, LogLevelNone} {
		l, err := GetLogger(level)
		require.NoError(t, err)
		require.NotNil(t, l)
	}

	_, err := GetLogger("chatty")
	require.Error(t, err)

	assert.NotPanics(t, func() {
		MustGetLogger(LogLevelDebug).Debug("test entry")
	})
	assert.Panics(t, func() {
		MustGetLogger("chatty")
	})
}
