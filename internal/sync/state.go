package sync

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// RunStatus is the outcome of a reconciliation run
type RunStatus string

const (
	StatusInProgress RunStatus = "in_progress"
	StatusSucceeded  RunStatus = "succeeded"
	StatusFailed     RunStatus = "failed"
	StatusDryRun     RunStatus = "dry_run"
)

// RunState describes one reconciliation run
type RunState struct {
	StartedAt   time.Time `json:"startedAt"`
	FinishedAt  time.Time `json:"finishedAt,omitempty"`
	Status      RunStatus `json:"status"`
	PlanDigest  string    `json:"planDigest,omitempty"`
	Removals    int       `json:"removals"`
	FieldTypes  int       `json:"fieldTypes"`
	Fields      int       `json:"fields"`
	BatchesSent int       `json:"batchesSent"`
	Languages   []string  `json:"languages,omitempty"`
	Error       string    `json:"error,omitempty"`
}

// ReconcileState is the persisted history summary
type ReconcileState struct {
	LastRun     *RunState `json:"lastRun,omitempty"`
	LastSuccess *RunState `json:"lastSuccess,omitempty"`
	Runs        int64     `json:"runs"`
	Failures    int64     `json:"failures"`
	LastSaved   time.Time `json:"lastSaved"`
}

// StateManager handles loading and saving reconcile state
type StateManager struct {
	filePath string
	state    *ReconcileState
	mutex    sync.RWMutex
	logger   zerolog.Logger
}

// NewStateManager creates a new state manager. An empty path keeps state in memory only.
func NewStateManager(filePath string, logger zerolog.Logger) *StateManager {
	return &StateManager{
		filePath: filePath,
		state:    &ReconcileState{},
		logger:   logger,
	}
}

// Load loads the state from disk
func (sm *StateManager) Load() error {
	sm.mutex.Lock()
	defer sm.mutex.Unlock()

	if sm.filePath == "" {
		return nil
	}

	// Check if file exists
	if _, err := os.Stat(sm.filePath); os.IsNotExist(err) {
		sm.logger.Info().Str("path", sm.filePath).Msg("Reconcile state file not found, starting fresh")
		return nil
	}

	data, err := os.ReadFile(sm.filePath)
	if err != nil {
		return fmt.Errorf("failed to read reconcile state file: %w", err)
	}

	if err := json.Unmarshal(data, sm.state); err != nil {
		return fmt.Errorf("failed to parse reconcile state file: %w", err)
	}

	sm.logger.Info().Int64("runs", sm.state.Runs).Str("path", sm.filePath).Msg("Loaded reconcile state")
	return nil
}

// Save saves the current state to disk
func (sm *StateManager) Save() error {
	sm.mutex.Lock()
	defer sm.mutex.Unlock()

	if sm.filePath == "" {
		return nil
	}

	sm.state.LastSaved = time.Now()

	data, err := json.MarshalIndent(sm.state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal reconcile state: %w", err)
	}

	// Write to temporary file first
	tempFile := sm.filePath + ".tmp"
	if err := os.WriteFile(tempFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write temp reconcile state file: %w", err)
	}

	// Atomic move
	if err := os.Rename(tempFile, sm.filePath); err != nil {
		return fmt.Errorf("failed to move reconcile state file: %w", err)
	}

	return nil
}

// Begin marks a run as in progress
func (sm *StateManager) Begin(startedAt time.Time) {
	sm.mutex.Lock()
	defer sm.mutex.Unlock()

	sm.state.LastRun = &RunState{StartedAt: startedAt, Status: StatusInProgress}
}

// Finish records the outcome of the current run and counts it
func (sm *StateManager) Finish(run RunState) {
	sm.mutex.Lock()
	defer sm.mutex.Unlock()

	stored := run
	sm.state.LastRun = &stored
	sm.state.Runs++
	switch run.Status {
	case StatusFailed:
		sm.state.Failures++
	case StatusSucceeded:
		success := run
		sm.state.LastSuccess = &success
	}
}

// Snapshot returns a copy of the state
func (sm *StateManager) Snapshot() ReconcileState {
	sm.mutex.RLock()
	defer sm.mutex.RUnlock()

	// Copy pointed-to runs to avoid races with later updates
	out := *sm.state
	if sm.state.LastRun != nil {
		run := *sm.state.LastRun
		run.Languages = append([]string(nil), run.Languages...)
		out.LastRun = &run
	}
	if sm.state.LastSuccess != nil {
		run := *sm.state.LastSuccess
		run.Languages = append([]string(nil), run.Languages...)
		out.LastSuccess = &run
	}
	return out
}

// InProgress reports whether a run has begun and not finished
func (sm *StateManager) InProgress() bool {
	sm.mutex.RLock()
	defer sm.mutex.RUnlock()

	return sm.state.LastRun != nil && sm.state.LastRun.Status == StatusInProgress
}
