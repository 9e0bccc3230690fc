package game

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"ChartQuest/internal/model"
)

// SavedGame is the resumable part of a session written to the state file.
type SavedGame struct {
	SessionID string          `json:"session_id"`
	Symbol    string          `json:"symbol"`
	Year      int             `json:"year"`
	Current   time.Time       `json:"current"`
	Portfolio model.Portfolio `json:"portfolio"`
	Equipment model.Equipment `json:"equipment"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// LoadState reads a saved game. Returns nil without error if the file doesn't exist.
func LoadState(filePath string) (*SavedGame, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var g SavedGame
	if err := json.Unmarshal(data, &g); err != nil {
		return nil, fmt.Errorf("decode %s: %w", filePath, err)
	}
	return &g, nil
}

// SaveState writes the saved game as indented JSON.
func SaveState(filePath string, g *SavedGame) error {
	if dir := filepath.Dir(filePath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create state dir: %w", err)
		}
	}
	g.UpdatedAt = time.Now()
	data, err := json.MarshalIndent(g, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filePath, data, 0644)
}

// RemoveState deletes the state file if present.
func RemoveState(filePath string) error {
	if err := os.Remove(filePath); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
