package model

import "time"

// OperationLogEntry is one best-effort audit record of a mutation.
// Entries auto-expire in the backing store; callers must never depend
// on one existing.
type OperationLogEntry struct {
	ID            string      `json:"id"`
	OperationType string      `json:"operationType"`
	ResourceType  string      `json:"resourceType"`
	ResourceID    string      `json:"resourceId"`
	Data          interface{} `json:"data,omitempty"`
	Timestamp     time.Time   `json:"timestamp"`
	Origin        string      `json:"origin"`
}
