package region

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/mapleship/delivery-api/internal/model"
	"github.com/mapleship/delivery-api/internal/repository"
	"github.com/mapleship/delivery-api/internal/service/oplog"
	"github.com/mapleship/delivery-api/pkg/logger"
)

const (
	statsCacheKey   = "stats"
	defaultStatsTTL = 5 * time.Minute
)

// Servicer is the region configuration store contract.
type Servicer interface {
	GetAll(ctx context.Context) map[string]model.RegionConfig
	Get(ctx context.Context, regionID string) (*model.RegionConfig, bool)
	Save(ctx context.Context, regionID string, cfg model.RegionConfig) (*model.RegionConfig, error)
	Delete(ctx context.Context, regionID string) (bool, error)
	SaveAll(ctx context.Context, configs map[string]model.RegionConfig) (map[string]model.RegionConfig, error)
	CalculateStats(ctx context.Context, configs map[string]model.RegionConfig) *model.StatsSnapshot
	CachedStats(ctx context.Context) *model.StatsSnapshot
	InvalidateStats()
	SystemConfig(ctx context.Context) *model.SystemConfig
	SaveSystemConfig(ctx context.Context, cfg model.SystemConfig) (*model.SystemConfig, error)
}

// Service is the single source of truth for region records. The full
// region mapping is one KV document: every write, however small, rewrites
// the whole document (read-modify-write, last write wins).
type Service struct {
	kv      repository.KVStore
	oplog   *oplog.Service
	log     *logger.Logger
	stats   *gocache.Cache
	ttl     time.Duration
	statsFn func(map[string]model.RegionConfig) *model.StatsSnapshot
}

type Option func(*Service)

// WithStatsTTL overrides the statistics cache TTL.
func WithStatsTTL(ttl time.Duration) Option {
	return func(s *Service) { s.ttl = ttl }
}

func NewService(kv repository.KVStore, ol *oplog.Service, log *logger.Logger, opts ...Option) *Service {
	s := &Service{
		kv:    kv,
		oplog: ol,
		log:   log,
		ttl:   defaultStatsTTL,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.stats = gocache.New(s.ttl, 2*s.ttl)
	return s
}

var _ Servicer = (*Service)(nil)

// GetAll returns the current region mapping. Reads favor availability:
// a backend failure degrades to an empty map, never an error.
func (s *Service) GetAll(ctx context.Context) map[string]model.RegionConfig {
	configs := make(map[string]model.RegionConfig)

	raw, err := s.kv.Get(ctx, repository.KeyRegionConfigs)
	if err != nil {
		s.log.Warn("failed to read region configs, serving empty set", "error", err.Error())
		return configs
	}
	if raw == nil {
		return configs
	}

	if err := json.Unmarshal(raw, &configs); err != nil {
		s.log.Warn("failed to decode region configs, serving empty set", "error", err.Error())
		return make(map[string]model.RegionConfig)
	}
	return configs
}

// Get looks up a single region. Absence is a normal outcome.
func (s *Service) Get(ctx context.Context, regionID string) (*model.RegionConfig, bool) {
	configs := s.GetAll(ctx)
	cfg, ok := configs[regionID]
	if !ok {
		return nil, false
	}
	return &cfg, true
}

// Save merges the caller's config under regionID and rewrites the whole
// mapping. The id in the payload is ignored; lastUpdated and the metadata
// version/provenance stamps are set here, never by the caller.
func (s *Service) Save(ctx context.Context, regionID string, cfg model.RegionConfig) (*model.RegionConfig, error) {
	configs := s.GetAll(ctx)

	cfg.RegionID = regionID
	cfg.LastUpdated = time.Now().UTC()
	cfg.NormalizePostalCodes()
	cfg.Metadata = stampMetadata(cfg.Metadata, model.JSONMap{
		"version":   model.ConfigVersion,
		"updatedBy": "system",
	})

	configs[regionID] = cfg
	if err := s.writeAll(ctx, configs); err != nil {
		return nil, fmt.Errorf("failed to save region %s: %w", regionID, err)
	}

	s.InvalidateStats()
	s.oplog.Log(ctx, "update", "region_config", regionID, cfg)

	return &cfg, nil
}

// Delete removes a region and rewrites the mapping. Deleting a missing
// id is idempotent success.
func (s *Service) Delete(ctx context.Context, regionID string) (bool, error) {
	configs := s.GetAll(ctx)

	deleted, ok := configs[regionID]
	if !ok {
		return true, nil
	}

	delete(configs, regionID)
	if err := s.writeAll(ctx, configs); err != nil {
		return false, fmt.Errorf("failed to delete region %s: %w", regionID, err)
	}

	s.InvalidateStats()
	s.oplog.Log(ctx, "delete", "region_config", regionID, deleted)

	return true, nil
}

// SaveAll replaces the entire mapping with exactly the provided set.
// Destructive: regions absent from the input are lost.
func (s *Service) SaveAll(ctx context.Context, configs map[string]model.RegionConfig) (map[string]model.RegionConfig, error) {
	now := time.Now().UTC()

	processed := make(map[string]model.RegionConfig, len(configs))
	for regionID, cfg := range configs {
		cfg.RegionID = regionID
		cfg.LastUpdated = now
		cfg.NormalizePostalCodes()
		cfg.Metadata = stampMetadata(cfg.Metadata, model.JSONMap{
			"version":      model.ConfigVersion,
			"batchUpdated": true,
		})
		processed[regionID] = cfg
	}

	if err := s.writeAll(ctx, processed); err != nil {
		return nil, fmt.Errorf("failed to save region configs: %w", err)
	}

	s.InvalidateStats()
	s.oplog.Log(ctx, "batch_update", "region_configs", "all", processed)

	return processed, nil
}

// ReplaceAllRaw writes a mapping verbatim, bypassing metadata stamping.
// Used by backup restore, where records must land byte-for-byte as captured.
func (s *Service) ReplaceAllRaw(ctx context.Context, configs map[string]model.RegionConfig) error {
	if err := s.writeAll(ctx, configs); err != nil {
		return fmt.Errorf("failed to replace region configs: %w", err)
	}
	s.InvalidateStats()
	return nil
}

// CalculateStats aggregates counts over configs, or over the current
// mapping when configs is nil. Statistics are advisory: failures degrade
// to a zeroed snapshot carrying an error marker.
func (s *Service) CalculateStats(ctx context.Context, configs map[string]model.RegionConfig) *model.StatsSnapshot {
	if configs == nil {
		configs = s.GetAll(ctx)
	}

	snapshot := &model.StatsSnapshot{LastCalculated: time.Now().UTC()}
	for _, cfg := range configs {
		snapshot.TotalRegions++
		if cfg.IsActive {
			snapshot.ActiveRegions++
		}
		snapshot.TotalFSAs += len(cfg.PostalCodes)
		snapshot.TotalWeightRanges += len(cfg.WeightRanges)
		if cfg.HasActivePricing() {
			snapshot.RegionsWithPricing++
		}
	}
	return snapshot
}

// CachedStats returns the cached snapshot when present and unexpired,
// recomputing and repopulating the cache otherwise.
func (s *Service) CachedStats(ctx context.Context) *model.StatsSnapshot {
	if cached, ok := s.stats.Get(statsCacheKey); ok {
		return cached.(*model.StatsSnapshot)
	}

	snapshot := s.CalculateStats(ctx, nil)
	s.stats.Set(statsCacheKey, snapshot, s.ttl)
	return snapshot
}

// InvalidateStats drops the single stats cache slot. Every mutation
// anywhere invalidates it; the write volume does not justify anything
// finer grained.
func (s *Service) InvalidateStats() {
	s.stats.Delete(statsCacheKey)
}

// SystemConfig returns the singleton system configuration, falling back
// to defaults when absent or unreadable.
func (s *Service) SystemConfig(ctx context.Context) *model.SystemConfig {
	raw, err := s.kv.Get(ctx, repository.KeySystemConfig)
	if err != nil {
		s.log.Warn("failed to read system config, serving defaults", "error", err.Error())
		return model.DefaultSystemConfig()
	}
	if raw == nil {
		return model.DefaultSystemConfig()
	}

	var cfg model.SystemConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		s.log.Warn("failed to decode system config, serving defaults", "error", err.Error())
		return model.DefaultSystemConfig()
	}
	return &cfg
}

// SaveSystemConfig persists the singleton system configuration.
func (s *Service) SaveSystemConfig(ctx context.Context, cfg model.SystemConfig) (*model.SystemConfig, error) {
	cfg.LastUpdated = time.Now().UTC()

	payload, err := json.Marshal(&cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to encode system config: %w", err)
	}
	if err := s.kv.Set(ctx, repository.KeySystemConfig, payload, 0); err != nil {
		return nil, fmt.Errorf("failed to save system config: %w", err)
	}
	return &cfg, nil
}

func (s *Service) writeAll(ctx context.Context, configs map[string]model.RegionConfig) error {
	payload, err := json.Marshal(configs)
	if err != nil {
		return fmt.Errorf("failed to encode region configs: %w", err)
	}
	return s.kv.Set(ctx, repository.KeyRegionConfigs, payload, 0)
}

// stampMetadata shallow-merges caller metadata with store stamps, the
// stamps winning on conflicts.
func stampMetadata(meta, stamps model.JSONMap) model.JSONMap {
	merged := make(model.JSONMap, len(meta)+len(stamps))
	for k, v := range meta {
		merged[k] = v
	}
	for k, v := range stamps {
		merged[k] = v
	}
	return merged
}
