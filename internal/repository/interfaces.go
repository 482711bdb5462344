package repository

import (
	"context"
	"time"
)

// Logical key names used across the KV backend. Per-backup and per-log
// entries append a generated id to their prefix.
const (
	KeyRegionConfigs = "delivery:regions"
	KeySystemConfig  = "system:config"
	KeyBackupPrefix  = "data:backups"
	KeyBackupIndex   = "data:backups:list"
	KeyLogPrefix     = "system:logs"
	KeyLastBackup    = "system:last_backup"
)

// BackupKey returns the KV key holding the payload of one backup.
func BackupKey(backupID string) string {
	return KeyBackupPrefix + ":" + backupID
}

// LogKey returns the KV key holding one operation log entry.
func LogKey(logID string) string {
	return KeyLogPrefix + ":" + logID
}

// KVStore is the key-value backend contract consumed by the services.
// Get returns (nil, nil) for a missing key; absence is a normal outcome.
// A zero ttl on Set means no expiry.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
	Close() error
}
