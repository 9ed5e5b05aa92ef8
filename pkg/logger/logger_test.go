package logger_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/notevault/notevault/pkg/logger"
)

func TestLogWritesToBuffer(t *testing.T) {
	buff := bytes.NewBuffer([]byte{})
	log, err := logger.New().FromBuffer(buff).Make()
	require.NoError(t, err)
	require.NotNil(t, log)
	require.Equal(t, 0, buff.Len())
	log.Logger.Info().Msg("hello")
	require.Contains(t, buff.String(), "hello")
}

func TestLogLevelFilters(t *testing.T) {
	buff := bytes.NewBuffer([]byte{})
	log, err := logger.New().FromBuffer(buff).WithLevel("warn").Make()
	require.NoError(t, err)
	log.Logger.Debug().Msg("quiet")
	require.Equal(t, 0, buff.Len())
	log.Logger.Warn().Msg("loud")
	require.Contains(t, buff.String(), "loud")
}

func TestLogFromPath(t *testing.T) {
	path := t.TempDir() + "/app.log"
	log, err := logger.New().FromPath(path).Make()
	require.NoError(t, err)
	log.Logger.Info().Msg("persisted")
	require.NoError(t, log.Close())
}
