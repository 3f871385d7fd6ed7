package watch

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const stateFileName = "watch_state.json"

// BuildState contains the last build information for the watched site
type BuildState struct {
	Fingerprint      string    `json:"fingerprint"`
	LastBuildTime    time.Time `json:"last_build_time"`
	LastBuildSuccess bool      `json:"last_build_success"`
	Pages            int       `json:"pages"`
	ErrorMessage     string    `json:"error_message,omitempty"`
}

// StateManager handles persisting and loading watch state
type StateManager struct {
	stateDir  string
	statePath string
	state     BuildState
	built     bool
	mu        sync.RWMutex
}

// NewStateManager creates a new state manager
func NewStateManager(stateDir string) *StateManager {
	return &StateManager{
		stateDir:  stateDir,
		statePath: filepath.Join(stateDir, stateFileName),
	}
}

// Load loads the state from disk. A missing file means no build has run.
func (m *StateManager) Load() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, err := os.ReadFile(m.statePath)
	if err != nil {
		if os.IsNotExist(err) {
			m.state, m.built = BuildState{}, false
			return nil
		}
		return fmt.Errorf("failed to read state file: %w", err)
	}

	var state BuildState
	if err := json.Unmarshal(data, &state); err != nil {
		return fmt.Errorf("failed to parse state file: %w", err)
	}
	m.state, m.built = state, true
	return nil
}

// Save saves the state to disk
func (m *StateManager) Save() error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if err := os.MkdirAll(m.stateDir, 0755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	data, err := json.MarshalIndent(m.state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	if err := os.WriteFile(m.statePath, data, 0644); err != nil {
		return fmt.Errorf("failed to write state file: %w", err)
	}

	return nil
}

// Get returns the last recorded build, if any
func (m *StateManager) Get() (BuildState, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state, m.built
}

// Record stores the outcome of a build of the sources with fingerprint
func (m *StateManager) Record(fingerprint string, success bool, pages int, errorMsg string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.state = BuildState{
		Fingerprint:      fingerprint,
		LastBuildTime:    time.Now(),
		LastBuildSuccess: success,
		Pages:            pages,
		ErrorMessage:     errorMsg,
	}
	m.built = true
}

// NeedsBuild reports whether sources with fingerprint differ from the last
// successful build
func (m *StateManager) NeedsBuild(fingerprint string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.built || !m.state.LastBuildSuccess {
		return true
	}
	return m.state.Fingerprint != fingerprint
}
