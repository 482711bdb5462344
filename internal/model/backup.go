package model

import "time"

// Backup types
const (
	BackupTypeManual    = "manual"
	BackupTypeAuto      = "auto"
	BackupTypeMigration = "migration"
)

// ValidBackupType reports whether t is one of the known backup types.
func ValidBackupType(t string) bool {
	switch t {
	case BackupTypeManual, BackupTypeAuto, BackupTypeMigration:
		return true
	}
	return false
}

// Backup is an immutable point-in-time snapshot of all region configs
// plus the system config, keyed by a generated id.
type Backup struct {
	ID            string                  `json:"id"`
	Name          string                  `json:"name"`
	Type          string                  `json:"type"`
	Timestamp     time.Time               `json:"timestamp"`
	Version       string                  `json:"version"`
	RegionConfigs map[string]RegionConfig `json:"regionConfigs"`
	SystemConfig  *SystemConfig           `json:"systemConfig,omitempty"`
	Stats         *StatsSnapshot          `json:"stats,omitempty"`
}

// BackupSummary is one entry of the maintained backup index. Insertion
// order is creation order; the index is capped and evicted FIFO.
type BackupSummary struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Type      string         `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	Stats     *StatsSnapshot `json:"stats,omitempty"`
}

// RestoreResult reports the outcome of any restore operation.
type RestoreResult struct {
	Success         bool           `json:"success"`
	RestoredAt      time.Time      `json:"restoredAt"`
	Type            string         `json:"type,omitempty"`
	Stats           *StatsSnapshot `json:"stats,omitempty"`
	RestoredRegions int            `json:"restoredRegions,omitempty"`
	BackupInfo      *BackupInfo    `json:"backupInfo,omitempty"`
}

// BackupInfo identifies the snapshot a restore was sourced from.
type BackupInfo struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Type      string    `json:"type"`
}

// SystemConfig is the singleton system configuration record.
type SystemConfig struct {
	Version            string    `json:"version"`
	AutoBackupEnabled  bool      `json:"autoBackupEnabled"`
	AutoBackupInterval int       `json:"autoBackupInterval"`
	MaxBackupCount     int       `json:"maxBackupCount"`
	LastUpdated        time.Time `json:"lastUpdated,omitempty"`
}

// DefaultSystemConfig is applied when no system config has been persisted.
func DefaultSystemConfig() *SystemConfig {
	return &SystemConfig{
		Version:            ConfigVersion,
		AutoBackupEnabled:  true,
		AutoBackupInterval: 30,
		MaxBackupCount:     50,
	}
}
