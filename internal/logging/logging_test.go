package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ndx-snapshot-backend/internal/config"
)

func TestNew(t *testing.T) {
	t.Run("should write json lines to the rotating file", func(t *testing.T) {
		// given
		path := filepath.Join(t.TempDir(), "app.log")
		logger, err := New(config.LogConfig{Level: "debug", File: path, MaxSizeMB: 1})
		require.NoError(t, err)

		// when
		logger.Info("refresh finished")
		_ = logger.Sync()

		// then
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(data), `"msg":"refresh finished"`)
	})

	t.Run("should reject an unknown level", func(t *testing.T) {
		_, err := New(config.LogConfig{Level: "loud"})

		var cfgErr *config.ConfigurationError
		assert.ErrorAs(t, err, &cfgErr)
	})
}
