package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		DBHost:             "localhost",
		DBUser:             "docai",
		DBName:             "docai",
		EmbeddingDimension: 768,
		MaxChunkSize:       1000,
	}
}

func TestValidate(t *testing.T) {
	t.Run("Valid", func(t *testing.T) {
		require.NoError(t, validConfig().Validate())
	})

	t.Run("Missing DB Host", func(t *testing.T) {
		cfg := validConfig()
		cfg.DBHost = ""
		assert.ErrorIs(t, cfg.Validate(), ErrMissingRequired)
	})

	t.Run("Non-Positive Dimension", func(t *testing.T) {
		cfg := validConfig()
		cfg.EmbeddingDimension = 0
		assert.ErrorIs(t, cfg.Validate(), ErrMissingRequired)
	})

	t.Run("Non-Positive Chunk Size", func(t *testing.T) {
		cfg := validConfig()
		cfg.MaxChunkSize = -1
		assert.ErrorIs(t, cfg.Validate(), ErrMissingRequired)
	})
}
