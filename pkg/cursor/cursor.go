package cursor

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"viewledger/pkg/logger"
)

// Cursor records how far a run got through one dataset. Items with a
// position greater than LastProcessedPosition are eligible next run.
type Cursor struct {
	DatasetKey            string    `json:"dataset_key"`
	LastProcessedPosition int       `json:"last_processed_position"`
	TotalProcessed        int       `json:"total_processed"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
	Version               int       `json:"version"`
}

// Store reads and writes per-dataset cursor files.
type Store struct {
	dir    string
	logger logger.Logger
}

// NewStore creates a cursor store rooted at dir. An empty dir falls
// back to the platform data directory.
func NewStore(dir string) (*Store, error) {
	if dir == "" {
		dataDir, err := dataDirectory()
		if err != nil {
			return nil, fmt.Errorf("failed to get data directory: %w", err)
		}
		dir = filepath.Join(dataDir, "cursors")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cursor directory: %w", err)
	}
	return &Store{dir: dir, logger: logger.GetLogger()}, nil
}

func (s *Store) path(datasetKey string) string {
	return filepath.Join(s.dir, fmt.Sprintf("%s.cursor.json", datasetKey))
}

// Read loads the cursor for datasetKey. A missing file is not an error;
// it returns (nil, nil) meaning the whole dataset is eligible.
func (s *Store) Read(datasetKey string) (*Cursor, error) {
	file, err := os.Open(s.path(datasetKey))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open cursor file: %w", err)
	}
	defer file.Close()

	var c Cursor
	if err := json.NewDecoder(file).Decode(&c); err != nil {
		return nil, fmt.Errorf("failed to decode cursor: %w", err)
	}

	s.logger.DebugWithFields("Cursor loaded", map[string]interface{}{
		"dataset":       c.DatasetKey,
		"last_position": c.LastProcessedPosition,
		"updated_at":    c.UpdatedAt,
	})
	return &c, nil
}

// Write persists the cursor atomically: write to a temp file, sync, and
// rename over the target so a crash never leaves a torn cursor behind.
func (s *Store) Write(c *Cursor) error {
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	if c.Version == 0 {
		c.Version = 1
	}
	c.UpdatedAt = time.Now()

	target := s.path(c.DatasetKey)
	tempPath := target + ".tmp"
	file, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("failed to create temporary cursor file: %w", err)
	}

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(c); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to encode cursor: %w", err)
	}

	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to sync cursor file: %w", err)
	}

	if err := file.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to close cursor file: %w", err)
	}

	if err := os.Rename(tempPath, target); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to replace cursor file: %w", err)
	}

	s.logger.DebugWithFields("Cursor saved", map[string]interface{}{
		"dataset":       c.DatasetKey,
		"last_position": c.LastProcessedPosition,
	})
	return nil
}

// Clear removes the cursor for datasetKey. Clearing a dataset that has
// no cursor is a no-op.
func (s *Store) Clear(datasetKey string) error {
	if err := os.Remove(s.path(datasetKey)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete cursor: %w", err)
	}
	s.logger.InfoWithFields("Cursor cleared", map[string]interface{}{
		"dataset": datasetKey,
	})
	return nil
}

// Exists reports whether a cursor file is present for datasetKey.
func (s *Store) Exists(datasetKey string) bool {
	_, err := os.Stat(s.path(datasetKey))
	return err == nil
}

// dataDirectory returns the platform data directory for viewledger.
func dataDirectory() (string, error) {
	var dataDir string

	switch runtime.GOOS {
	case "linux":
		if xdgDataHome := os.Getenv("XDG_DATA_HOME"); xdgDataHome != "" {
			dataDir = filepath.Join(xdgDataHome, "viewledger")
		} else {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			dataDir = filepath.Join(home, ".local", "share", "viewledger")
		}
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		dataDir = filepath.Join(home, "Library", "Application Support", "viewledger")
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData == "" {
			return "", fmt.Errorf("APPDATA environment variable not set")
		}
		dataDir = filepath.Join(appData, "viewledger")
	default:
		return "", fmt.Errorf("unsupported operating system: %s", runtime.GOOS)
	}

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create data directory: %w", err)
	}
	return dataDir, nil
}
