package mlog

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, DebugLevel, ParseLevel("debug"))
	assert.Equal(t, WarnLevel, ParseLevel(" WARN "))
	assert.Equal(t, InfoLevel, ParseLevel("bogus"))
	assert.Equal(t, "trace", TraceLevel.String())
	assert.Equal(t, "unknown", Level(99).String())
}

func TestWriterLogger(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(NewWriterLogger(&buf, InfoLevel))
	defer SetLogger(nil)

	Debugf("hidden %d", 1)
	Infof("shown %d", 2)
	Warn("warned")
	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "[info] shown 2")
	assert.Contains(t, out, "[warn] warned")
}

func TestNilLoggerDiscards(t *testing.T) {
	SetLogger(nil)
	require.NotPanics(t, func() {
		Errorf("nobody listens %v", 1)
		Info("nobody")
	})
}

func TestFileLogger(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	wg := &sync.WaitGroup{}
	require.NoError(t, UseDefaultLogger(ctx, wg, dir, "tmr", DebugLevel, false))
	defer SetLogger(nil)

	Debugf("spoke %d drained", 3)
	Tracef("too verbose")
	cancel()
	wg.Wait()

	data, err := os.ReadFile(filepath.Join(dir, "tmr.log"))
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), "[debug] spoke 3 drained"))
	assert.NotContains(t, string(data), "too verbose")
}
