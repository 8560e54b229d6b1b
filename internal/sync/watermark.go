package sync

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// DefaultWatermarkPath is where the last-check timestamp lives unless the CLI
// overrides it.
const DefaultWatermarkPath = "last_check.json"

type watermarkRecord struct {
	LastCheckTime float64 `json:"last_check_time"`
}

// WatermarkStore persists the epoch-seconds timestamp of the last check as a
// single-key JSON file.
type WatermarkStore struct {
	path string
}

func NewWatermarkStore(path string) *WatermarkStore {
	return &WatermarkStore{path: path}
}

// Load returns the persisted timestamp, or nil when the file does not exist
// (first-ever run).
func (s *WatermarkStore) Load() (*float64, error) {
	fileContent, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read watermark: %w", err)
	}

	var record watermarkRecord
	if err := json.Unmarshal(fileContent, &record); err != nil {
		return nil, fmt.Errorf("parse watermark %s: %w", s.path, err)
	}

	return &record.LastCheckTime, nil
}

// Save overwrites the watermark file with the given timestamp.
func (s *WatermarkStore) Save(timestamp float64) error {
	content, err := json.Marshal(watermarkRecord{LastCheckTime: timestamp})
	if err != nil {
		return err
	}

	if err := os.WriteFile(s.path, content, 0644); err != nil {
		return fmt.Errorf("write watermark: %w", err)
	}
	return nil
}
