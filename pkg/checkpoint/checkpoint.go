// Package checkpoint persists run state so an interrupted harvest can
// resume without repeating finished phases.
package checkpoint

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"igharvest/pkg/logger"
	"igharvest/pkg/models"
)

// Phase names the orchestration stage a run has completed.
type Phase string

const (
	PhaseStarted    Phase = "started"
	PhaseProfile    Phase = "profile"
	PhaseLinks      Phase = "links"
	PhaseExtraction Phase = "extraction"
	PhaseDone       Phase = "done"
)

// Checkpoint is one run's persisted state. Links and records are stored
// whole; both sets are small enough that partial-file bookkeeping would
// cost more than it saves.
type Checkpoint struct {
	Username  string                 `json:"username"`
	Phase     Phase                  `json:"phase"`
	Stats     models.ProfileStats    `json:"stats"`
	Links     []models.ContentLink   `json:"links"`
	Records   []models.ContentRecord `json:"records"`
	Cancelled bool                   `json:"cancelled"`
	CreatedAt time.Time              `json:"created_at"`
	UpdatedAt time.Time              `json:"updated_at"`
	Version   int                    `json:"version"`
}

// ExtractedURLs returns the set of URLs whose items were actually
// visited. Backfilled placeholder records do not count: a cancelled run
// stores them for the items it never reached, and the resumed run must
// still extract those.
func (c *Checkpoint) ExtractedURLs() map[string]bool {
	done := make(map[string]bool, len(c.Records))
	for _, r := range c.Records {
		if r.Attempted {
			done[r.URL] = true
		}
	}
	return done
}

// Manager handles checkpoint persistence for one profile.
type Manager struct {
	checkpointPath string
	logger         logger.Logger
}

// NewManager creates a checkpoint manager rooted in dir.
func NewManager(dir, username string) (*Manager, error) {
	checkpointsDir := filepath.Join(dir, "checkpoints")
	if err := os.MkdirAll(checkpointsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create checkpoints directory: %w", err)
	}

	return &Manager{
		checkpointPath: filepath.Join(checkpointsDir, fmt.Sprintf("%s.checkpoint.json", username)),
		logger:         logger.GetLogger(),
	}, nil
}

// Create starts a fresh checkpoint for a run.
func (m *Manager) Create(username string) (*Checkpoint, error) {
	checkpoint := &Checkpoint{
		Username:  username,
		Phase:     PhaseStarted,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
		Version:   1,
	}

	if err := m.Save(checkpoint); err != nil {
		return nil, fmt.Errorf("failed to save initial checkpoint: %w", err)
	}

	m.logger.InfoWithFields("Checkpoint created", map[string]interface{}{
		"username": username,
		"path":     m.checkpointPath,
	})

	return checkpoint, nil
}

// Load loads an existing checkpoint. A missing file is not an error;
// it returns nil.
func (m *Manager) Load() (*Checkpoint, error) {
	file, err := os.Open(m.checkpointPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open checkpoint file: %w", err)
	}
	defer file.Close()

	var checkpoint Checkpoint
	if err := json.NewDecoder(file).Decode(&checkpoint); err != nil {
		return nil, fmt.Errorf("failed to decode checkpoint: %w", err)
	}

	m.logger.InfoWithFields("Checkpoint loaded", map[string]interface{}{
		"username":   checkpoint.Username,
		"phase":      string(checkpoint.Phase),
		"links":      len(checkpoint.Links),
		"records":    len(checkpoint.Records),
		"updated_at": checkpoint.UpdatedAt,
	})

	return &checkpoint, nil
}

// Save writes the checkpoint to disk atomically.
func (m *Manager) Save(checkpoint *Checkpoint) error {
	checkpoint.UpdatedAt = time.Now()

	tempPath := m.checkpointPath + ".tmp"
	file, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("failed to create temporary checkpoint file: %w", err)
	}

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(checkpoint); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to encode checkpoint: %w", err)
	}

	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to sync checkpoint file: %w", err)
	}

	if err := file.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to close checkpoint file: %w", err)
	}

	if err := os.Rename(tempPath, m.checkpointPath); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to replace checkpoint file: %w", err)
	}

	m.logger.DebugWithFields("Checkpoint saved", map[string]interface{}{
		"username": checkpoint.Username,
		"phase":    string(checkpoint.Phase),
		"records":  len(checkpoint.Records),
	})

	return nil
}

// AdvancePhase records a completed phase and persists immediately.
func (m *Manager) AdvancePhase(checkpoint *Checkpoint, phase Phase) error {
	checkpoint.Phase = phase
	return m.Save(checkpoint)
}

// Delete removes the checkpoint file.
func (m *Manager) Delete() error {
	if err := os.Remove(m.checkpointPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete checkpoint: %w", err)
	}

	m.logger.Info("Checkpoint deleted")
	return nil
}

// Exists checks if a checkpoint file exists.
func (m *Manager) Exists() bool {
	_, err := os.Stat(m.checkpointPath)
	return err == nil
}
