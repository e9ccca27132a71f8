package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyFile(t *testing.T) {
	oldBind, oldDelay, oldDebug := BIND_ADDRESS, SPLASH_DELAY_MS, DEBUG_MODE
	t.Cleanup(func() {
		BIND_ADDRESS, SPLASH_DELAY_MS, DEBUG_MODE = oldBind, oldDelay, oldDebug
	})

	err := apply([]byte(`
bind_address = "127.0.0.1:9090"
splash_delay_ms = 500
debug_mode = false
`))
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9090", BIND_ADDRESS)
	assert.Equal(t, 500*time.Millisecond, SplashDelay())
	assert.False(t, DEBUG_MODE)
}

func TestApplyFileInvalid(t *testing.T) {
	assert.Error(t, apply([]byte("bind_address = ")))
}

func TestReadEnv(t *testing.T) {
	oldKey, oldRate, oldDebug := SESSION_KEY, LOGIN_RATE_PER_MINUTE, DEBUG_MODE
	t.Cleanup(func() {
		SESSION_KEY, LOGIN_RATE_PER_MINUTE, DEBUG_MODE = oldKey, oldRate, oldDebug
	})

	t.Setenv("SESSION_KEY", "another key")
	t.Setenv("LOGIN_RATE_PER_MINUTE", "not a number")
	t.Setenv("DEBUG_MODE", "off")
	LOGIN_RATE_PER_MINUTE = 7
	ReadEnv()
	assert.Equal(t, "another key", SESSION_KEY)
	assert.Equal(t, 7, LOGIN_RATE_PER_MINUTE)
	assert.False(t, DEBUG_MODE)
}
