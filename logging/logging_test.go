// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package logging_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/devblok/koruvox/logging"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWritesLogFile(t *testing.T) {
	dir := t.TempDir()
	logger, closer, err := logging.New(dir, "koru", "debug")
	require.NoError(t, err)

	assert.Equal(t, logrus.DebugLevel, logger.GetLevel())
	logger.WithField("frame", 3).Debug("frame rendered")
	logger.Trace("not written")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(filepath.Join(dir, "koru.log"))
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), `msg="frame rendered"`))
	assert.True(t, strings.Contains(string(data), "frame=3"))
	assert.False(t, strings.Contains(string(data), "not written"))
}

func TestNewAppends(t *testing.T) {
	dir := t.TempDir()
	for i := 0; i < 2; i++ {
		logger, closer, err := logging.New(dir, "koru", "info")
		require.NoError(t, err)
		logger.Info("started")
		require.NoError(t, closer.Close())
	}

	data, err := os.ReadFile(filepath.Join(dir, "koru.log"))
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(string(data), "started"))
}

func TestNewBadLevel(t *testing.T) {
	_, _, err := logging.New(t.TempDir(), "koru", "loud")
	assert.Error(t, err)
}
