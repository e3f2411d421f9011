package player

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/f8k8/spotify-house-player/pkg/logger"
)

func TestNewExecController_Validation(t *testing.T) {
	t.Run("empty path", func(t *testing.T) {
		_, err := NewExecController(logger.Nop(), "")
		require.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := NewExecController(logger.Nop(), filepath.Join(t.TempDir(), "nope"))
		require.Error(t, err)
	})

	t.Run("directory", func(t *testing.T) {
		_, err := NewExecController(logger.Nop(), t.TempDir())
		require.Error(t, err)
	})
}

func TestExecController_StartStop(t *testing.T) {
	script := filepath.Join(t.TempDir(), "player.sh")
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\nsleep 60\n"), 0o755))

	c, err := NewExecController(logger.Nop(), script)
	require.NoError(t, err)

	start := time.Now()
	h, err := c.Start(context.Background(), StartSpec{
		Account:     "kitchen",
		Token:       "tok-1",
		Destination: "default",
		Label:       "Kitchen",
	})
	require.NoError(t, err)
	require.NotNil(t, h)

	require.NoError(t, c.Stop(h))
	assert.Less(t, time.Since(start), stopGrace, "SIGTERM should end the process well before the kill fallback")

	t.Run("stopping an already dead process is not an error", func(t *testing.T) {
		assert.NoError(t, c.Stop(h))
	})
}

func TestExecController_StopInvalidHandle(t *testing.T) {
	c := &ExecController{log: logger.Nop()}
	require.Error(t, c.Stop("not a handle"))
}
