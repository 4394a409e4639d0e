package utils

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogLevelUnmarshalText(t *testing.T) {
	tests := []struct {
		in      string
		want    LogLevel
		wantErr bool
	}{
		{"off", LogLevelOff, false},
		{"ERROR", LogLevelError, false},
		{"warn", LogLevelWarn, false},
		{"warning", LogLevelWarn, false},
		{" Info ", LogLevelInfo, false},
		{"debug", LogLevelDebug, false},
		{"verbose", LogLevelOff, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var level LogLevel
			err := level.UnmarshalText([]byte(tt.in))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, level)
		})
	}
}

func TestDefaultLoggerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(&buf, LogLevelWarn)

	logger.Info("hidden")
	logger.Warn("shown", "key", "value")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
	assert.Contains(t, buf.String(), "key=value")

	logger.SetLevel(LogLevelDebug)
	logger.Debug("now visible")
	assert.Contains(t, buf.String(), "now visible")
}

func TestDefaultLoggerOffAndConcurrentLevels(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(&buf, LogLevelOff)
	logger.Error("suppressed")
	assert.Empty(t, buf.String())

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			logger.SetLevel(LogLevel(i % 5))
			logger.Debug("racing")
		}()
	}
	wg.Wait()
}

func TestLoggerInterface(t *testing.T) {
	var _ Logger = NewNopLogger()
	var _ Logger = NewLogger(LogLevelInfo)
	var _ Logger = &MockLogger{}
}

func TestNewRunID(t *testing.T) {
	a := NewRunID()
	b := NewRunID()
	assert.True(t, strings.HasPrefix(a, PrefixRun+"_"))
	assert.Len(t, a, len(PrefixRun)+1+DefaultIDLength)
	assert.NotEqual(t, a, b)
}

func TestDebugManagerSavesIteration(t *testing.T) {
	dir := t.TempDir()
	dm := NewDebugManager(NewNopLogger(), DebugOptions{
		Enabled:    true,
		SaveToFile: true,
		LogPrompts: true,
		OutputDir:  dir,
	})

	dm.SaveIteration("run_x", 2, map[string]float64{"score": 0.7})
	dm.LogPrompt("run_x", "feedback", "hello")

	data, err := os.ReadFile(filepath.Join(dir, "run_x_iteration_02.json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"score": 0.7`)

	_, err = os.Stat(filepath.Join(dir, "run_x_feedback_prompt.txt"))
	assert.NoError(t, err)
}

func TestNilDebugManagerIsSafe(t *testing.T) {
	var dm *DebugManager
	assert.False(t, dm.IsEnabled())
	dm.LogPrompt("run", "stage", "prompt")
	dm.LogResponse("run", "stage", "response")
	dm.SaveIteration("run", 1, nil)
}
