package utils

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// DebugOptions contains configuration for debug output.
type DebugOptions struct {
	Enabled      bool
	OutputDir    string
	SaveToFile   bool
	LogPrompts   bool
	LogResponses bool
}

// DebugManager records the prompts sent during optimization, the raw responses,
// and per-iteration snapshots of a run. A nil *DebugManager is valid and does nothing.
type DebugManager struct {
	options   DebugOptions
	logger    Logger
	outputDir string
	mu        sync.Mutex
}

// NewDebugManager creates a new debug manager with the given options.
func NewDebugManager(logger Logger, options DebugOptions) *DebugManager {
	if logger == nil {
		logger = NewNopLogger()
	}
	outputDir := options.OutputDir
	if outputDir == "" {
		outputDir = filepath.Join(".", "debug_output")
	}

	if options.SaveToFile && options.Enabled {
		if err := os.MkdirAll(outputDir, 0o755); err != nil {
			logger.Warn("Failed to create debug output directory", "dir", outputDir, "error", err)
		}
	}

	return &DebugManager{
		options:   options,
		logger:    logger,
		outputDir: outputDir,
	}
}

// IsEnabled returns whether debugging is enabled.
func (dm *DebugManager) IsEnabled() bool {
	return dm != nil && dm.options.Enabled
}

// LogPrompt logs a prompt sent to a provider under the given stage name.
func (dm *DebugManager) LogPrompt(runID, stage, prompt string) {
	if !dm.IsEnabled() || !dm.options.LogPrompts {
		return
	}
	dm.logger.Debug("Prompt", "run_id", runID, "stage", stage, "prompt", prompt)
	if dm.options.SaveToFile {
		dm.saveToFile(fmt.Sprintf("%s_%s_prompt.txt", runID, stage), prompt)
	}
}

// LogResponse logs a raw provider response under the given stage name.
func (dm *DebugManager) LogResponse(runID, stage, response string) {
	if !dm.IsEnabled() || !dm.options.LogResponses {
		return
	}
	dm.logger.Debug("Response", "run_id", runID, "stage", stage, "response", response)
	if dm.options.SaveToFile {
		dm.saveToFile(fmt.Sprintf("%s_%s_response.txt", runID, stage), response)
	}
}

// SaveIteration writes a JSON snapshot of data for the given iteration.
func (dm *DebugManager) SaveIteration(runID string, iteration int, data any) {
	if !dm.IsEnabled() || !dm.options.SaveToFile {
		return
	}
	payload, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		dm.logger.Warn("Failed to encode iteration snapshot", "run_id", runID, "iteration", iteration, "error", err)
		return
	}
	dm.saveToFile(fmt.Sprintf("%s_iteration_%02d.json", runID, iteration), string(payload))
}

func (dm *DebugManager) saveToFile(filename string, content string) {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	path := filepath.Join(dm.outputDir, filename)
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		dm.logger.Error("Failed to open file for debug output", "error", err, "file", path)
		return
	}
	defer file.Close()

	timestamp := time.Now().Format("2006-01-02 15:04:05")
	if _, err := fmt.Fprintf(file, "[%s] %s\n", timestamp, content); err != nil {
		dm.logger.Error("Failed to write debug output", "error", err, "file", path)
	}
}
