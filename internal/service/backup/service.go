package backup

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mapleship/delivery-api/internal/model"
	"github.com/mapleship/delivery-api/internal/repository"
	"github.com/mapleship/delivery-api/internal/service/oplog"
	apperrors "github.com/mapleship/delivery-api/pkg/errors"
	"github.com/mapleship/delivery-api/pkg/logger"
	"github.com/mapleship/delivery-api/pkg/metrics"
)

const defaultMaxBackups = 50

// regionStore is the slice of the region service the backup manager needs.
type regionStore interface {
	GetAll(ctx context.Context) map[string]model.RegionConfig
	SaveAll(ctx context.Context, configs map[string]model.RegionConfig) (map[string]model.RegionConfig, error)
	ReplaceAllRaw(ctx context.Context, configs map[string]model.RegionConfig) error
	CalculateStats(ctx context.Context, configs map[string]model.RegionConfig) *model.StatsSnapshot
	SystemConfig(ctx context.Context) *model.SystemConfig
}

// Service snapshots and restores the full region mapping plus the system
// config. The backup index is strict FIFO: once it exceeds the cap, the
// oldest entry is evicted and its payload deleted.
type Service struct {
	kv         repository.KVStore
	regions    regionStore
	oplog      *oplog.Service
	log        *logger.Logger
	metrics    *metrics.Metrics
	seed       map[string]model.RegionConfig
	maxBackups int
}

type Option func(*Service)

// WithMaxBackups overrides the backup index cap.
func WithMaxBackups(n int) Option {
	return func(s *Service) { s.maxBackups = n }
}

// WithSeedData sets the dataset served by RestoreDefault. The service
// itself carries no embedded business data; the composition root decides
// what "default" means.
func WithSeedData(seed map[string]model.RegionConfig) Option {
	return func(s *Service) { s.seed = seed }
}

func NewService(kv repository.KVStore, regions regionStore, ol *oplog.Service, log *logger.Logger, m *metrics.Metrics, opts ...Option) *Service {
	s := &Service{
		kv:         kv,
		regions:    regions,
		oplog:      ol,
		log:        log,
		metrics:    m,
		maxBackups: defaultMaxBackups,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create snapshots the entire store under a caller-supplied name. An empty
// type defaults to manual; an unknown type is a caller error.
func (s *Service) Create(ctx context.Context, name, backupType string) (*model.Backup, error) {
	if strings.TrimSpace(name) == "" {
		return nil, apperrors.BadRequest("backup name is required", nil)
	}
	if backupType == "" {
		backupType = model.BackupTypeManual
	}
	if !model.ValidBackupType(backupType) {
		return nil, apperrors.BadRequest(fmt.Sprintf("invalid backup type %q", backupType), nil)
	}

	configs := s.regions.GetAll(ctx)
	sysCfg := s.regions.SystemConfig(ctx)
	stats := s.regions.CalculateStats(ctx, configs)

	backup := &model.Backup{
		ID:            newBackupID(),
		Name:          name,
		Type:          backupType,
		Timestamp:     time.Now().UTC(),
		Version:       model.ConfigVersion,
		RegionConfigs: configs,
		SystemConfig:  sysCfg,
		Stats:         stats,
	}

	payload, err := json.Marshal(backup)
	if err != nil {
		return nil, fmt.Errorf("failed to encode backup: %w", err)
	}
	if err := s.kv.Set(ctx, repository.BackupKey(backup.ID), payload, 0); err != nil {
		return nil, fmt.Errorf("failed to persist backup %s: %w", backup.ID, err)
	}

	index := s.List(ctx)
	index = append(index, model.BackupSummary{
		ID:        backup.ID,
		Name:      backup.Name,
		Type:      backup.Type,
		Timestamp: backup.Timestamp,
		Stats:     stats,
	})

	// Strict FIFO eviction once the index exceeds the cap.
	for len(index) > s.maxBackups {
		oldest := index[0]
		index = index[1:]
		if err := s.kv.Delete(ctx, repository.BackupKey(oldest.ID)); err != nil {
			s.log.Warn("failed to delete evicted backup payload", "backupId", oldest.ID, "error", err.Error())
		}
	}

	if err := s.writeIndex(ctx, index); err != nil {
		return nil, err
	}
	if err := s.kv.Set(ctx, repository.KeyLastBackup, timestampJSON(backup.Timestamp), 0); err != nil {
		s.log.Warn("failed to update last backup marker", "error", err.Error())
	}

	s.oplog.Log(ctx, "backup", "data_backup", backup.ID, map[string]string{"name": name, "type": backupType})
	if s.metrics != nil {
		s.metrics.BackupsCreated.WithLabelValues(backupType).Inc()
		s.metrics.BackupIndexSize.Set(float64(len(index)))
	}

	return backup, nil
}

// List returns the backup index in creation order. Read failures degrade
// to an empty list.
func (s *Service) List(ctx context.Context) []model.BackupSummary {
	raw, err := s.kv.Get(ctx, repository.KeyBackupIndex)
	if err != nil {
		s.log.Warn("failed to read backup index, serving empty list", "error", err.Error())
		return nil
	}
	if raw == nil {
		return nil
	}

	var index []model.BackupSummary
	if err := json.Unmarshal(raw, &index); err != nil {
		s.log.Warn("failed to decode backup index, serving empty list", "error", err.Error())
		return nil
	}
	return index
}

// Get fetches one backup's full payload by id.
func (s *Service) Get(ctx context.Context, backupID string) (*model.Backup, error) {
	raw, err := s.kv.Get(ctx, repository.BackupKey(backupID))
	if err != nil {
		return nil, fmt.Errorf("failed to read backup %s: %w", backupID, err)
	}
	if raw == nil {
		return nil, apperrors.NotFound(fmt.Sprintf("backup %s", backupID), nil)
	}

	var backup model.Backup
	if err := json.Unmarshal(raw, &backup); err != nil {
		return nil, fmt.Errorf("failed to decode backup %s: %w", backupID, err)
	}
	return &backup, nil
}

// Restore overwrites the store with a snapshot's payload. Restored records
// land byte-for-byte as captured; the snapshot itself is kept.
func (s *Service) Restore(ctx context.Context, backupID string) (*model.RestoreResult, error) {
	backup, err := s.Get(ctx, backupID)
	if err != nil {
		return nil, err
	}

	if backup.RegionConfigs != nil {
		if err := s.regions.ReplaceAllRaw(ctx, backup.RegionConfigs); err != nil {
			return nil, err
		}
	}
	if backup.SystemConfig != nil {
		payload, err := json.Marshal(backup.SystemConfig)
		if err != nil {
			return nil, fmt.Errorf("failed to encode system config: %w", err)
		}
		if err := s.kv.Set(ctx, repository.KeySystemConfig, payload, 0); err != nil {
			return nil, fmt.Errorf("failed to restore system config: %w", err)
		}
	}

	s.oplog.Log(ctx, "restore", "data_backup", backupID, nil)
	if s.metrics != nil {
		s.metrics.BackupsRestored.Inc()
	}

	return &model.RestoreResult{
		Success:    true,
		RestoredAt: time.Now().UTC(),
		BackupInfo: &model.BackupInfo{
			ID:        backup.ID,
			Timestamp: backup.Timestamp,
			Type:      backup.Type,
		},
	}, nil
}

// RestoreFromRaw imports externally supplied data, accepting a bare region
// mapping or a {regions}/{regionConfigs} wrapper. A migration backup is
// created afterwards so a botched import stays recoverable.
func (s *Service) RestoreFromRaw(ctx context.Context, raw json.RawMessage) (*model.RestoreResult, error) {
	configs, err := normalizeRestorePayload(raw)
	if err != nil {
		return nil, err
	}

	saved, err := s.regions.SaveAll(ctx, configs)
	if err != nil {
		return nil, err
	}
	stats := s.regions.CalculateStats(ctx, saved)

	name := "restore-import_" + time.Now().UTC().Format("2006-01-02")
	if _, err := s.Create(ctx, name, model.BackupTypeMigration); err != nil {
		return nil, fmt.Errorf("import succeeded but migration backup failed: %w", err)
	}

	return &model.RestoreResult{
		Success:         true,
		RestoredAt:      time.Now().UTC(),
		Stats:           stats,
		RestoredRegions: len(saved),
	}, nil
}

// RestoreDefault loads the seed dataset injected at construction, then
// creates an auto backup of the result.
func (s *Service) RestoreDefault(ctx context.Context) (*model.RestoreResult, error) {
	if len(s.seed) == 0 {
		return nil, apperrors.BadRequest("no default dataset configured", nil)
	}

	now := time.Now().UTC()
	configs := make(map[string]model.RegionConfig, len(s.seed))
	for id, cfg := range s.seed {
		meta := make(model.JSONMap, len(cfg.Metadata)+1)
		for k, v := range cfg.Metadata {
			meta[k] = v
		}
		meta["restoredAt"] = now.Format(time.RFC3339)
		cfg.Metadata = meta
		configs[id] = cfg
	}

	saved, err := s.regions.SaveAll(ctx, configs)
	if err != nil {
		return nil, err
	}
	stats := s.regions.CalculateStats(ctx, saved)

	name := "default-data-restore_" + now.Format("2006-01-02")
	if _, err := s.Create(ctx, name, model.BackupTypeAuto); err != nil {
		return nil, fmt.Errorf("default restore succeeded but backup failed: %w", err)
	}

	return &model.RestoreResult{
		Success:         true,
		RestoredAt:      now,
		Type:            "default",
		Stats:           stats,
		RestoredRegions: len(saved),
	}, nil
}

func (s *Service) writeIndex(ctx context.Context, index []model.BackupSummary) error {
	payload, err := json.Marshal(index)
	if err != nil {
		return fmt.Errorf("failed to encode backup index: %w", err)
	}
	if err := s.kv.Set(ctx, repository.KeyBackupIndex, payload, 0); err != nil {
		return fmt.Errorf("failed to persist backup index: %w", err)
	}
	return nil
}

// normalizeRestorePayload sniffs the three accepted restore shapes and
// reduces them to a plain region mapping. A present wrapper key claims the
// payload even when its mapping is empty, so an explicit `{"regions": {}}`
// never falls through and gets misread as a bare mapping with a region
// literally named "regions". Empty mappings are rejected in every shape.
func normalizeRestorePayload(raw json.RawMessage) (map[string]model.RegionConfig, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, apperrors.BadRequest("invalid backup data format", err)
	}

	payload := raw
	if inner, ok := fields["regionConfigs"]; ok {
		payload = inner
	} else if inner, ok := fields["regions"]; ok {
		payload = inner
	}

	var configs map[string]model.RegionConfig
	if err := json.Unmarshal(payload, &configs); err != nil {
		return nil, apperrors.BadRequest("invalid backup data format", err)
	}
	if len(configs) == 0 {
		return nil, apperrors.BadRequest("invalid backup data format", nil)
	}
	return configs, nil
}

func newBackupID() string {
	suffix := strings.SplitN(uuid.New().String(), "-", 2)[0]
	return fmt.Sprintf("backup_%d_%s", time.Now().UnixMilli(), suffix)
}

func timestampJSON(t time.Time) []byte {
	b, _ := json.Marshal(t)
	return b
}
