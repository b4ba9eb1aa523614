package sync

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// State is everything a session must recover after a restart: the last-known
// snapshot plus the mutations still awaiting retransmission. Records created
// during an outage live in Pending until the store confirms them.
type State struct {
	Snapshot Snapshot   `json:"snapshot"`
	Pending  []Mutation `json:"pending,omitempty"`
}

// Cache persists the session state so a restart while the authoritative
// store is unreachable loses neither data nor queued work. One serialized
// state under one key, nothing incremental.
type Cache interface {
	Save(state State) error
	// Load returns the stored state, or ok=false when none exists yet.
	Load() (state State, ok bool, err error)
}

// FileCache stores the state as a JSON file, written atomically via a
// temp-file rename so a crash mid-write never corrupts the previous copy.
type FileCache struct {
	path string
}

func NewFileCache(path string) *FileCache {
	return &FileCache{path: path}
}

func (c *FileCache) Save(state State) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	dir := filepath.Dir(c.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".state-*")
	if err != nil {
		return fmt.Errorf("create temp state: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close state: %w", err)
	}
	if err := os.Rename(tmp.Name(), c.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace state: %w", err)
	}
	return nil
}

func (c *FileCache) Load() (State, bool, error) {
	data, err := os.ReadFile(c.path)
	if os.IsNotExist(err) {
		return State{}, false, nil
	}
	if err != nil {
		return State{}, false, fmt.Errorf("read state: %w", err)
	}
	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		// A malformed cache is a fatal condition for fallback mode;
		// surface it rather than silently starting empty.
		return State{}, false, fmt.Errorf("malformed state cache: %w", err)
	}
	return state, true, nil
}

// NoopCache is used when durable fallback is disabled.
type NoopCache struct{}

func (NoopCache) Save(State) error { return nil }
func (NoopCache) Load() (State, bool, error) { return State{}, false, nil }
