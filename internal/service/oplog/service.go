package oplog

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/mapleship/delivery-api/internal/model"
	"github.com/mapleship/delivery-api/internal/repository"
	"github.com/mapleship/delivery-api/pkg/logger"
	"github.com/mapleship/delivery-api/pkg/metrics"
)

// retention is how long entries survive in the backing store.
const retention = 30 * 24 * time.Hour

// Service is the best-effort operation log. Log never returns an error:
// persistence failures are counted and reported through the side channel
// only, so a failing log write cannot abort the mutation that triggered it.
type Service struct {
	kv       repository.KVStore
	log      *logger.Logger
	metrics  *metrics.Metrics
	origin   string
	failures atomic.Int64
}

func NewService(kv repository.KVStore, log *logger.Logger, m *metrics.Metrics, origin string) *Service {
	if origin == "" {
		origin = "server"
	}
	return &Service{kv: kv, log: log, metrics: m, origin: origin}
}

// Log appends one entry recording a mutation. Fire-and-forget: the entry
// may silently not exist afterwards.
func (s *Service) Log(ctx context.Context, operationType, resourceType, resourceID string, data interface{}) *model.OperationLogEntry {
	entry := &model.OperationLogEntry{
		ID:            newLogID(),
		OperationType: operationType,
		ResourceType:  resourceType,
		ResourceID:    resourceID,
		Data:          data,
		Timestamp:     time.Now().UTC(),
		Origin:        s.origin,
	}

	payload, err := json.Marshal(entry)
	if err != nil {
		s.recordFailure(err, entry)
		return entry
	}

	if err := s.kv.Set(ctx, repository.LogKey(entry.ID), payload, retention); err != nil {
		s.recordFailure(err, entry)
		return entry
	}

	if s.metrics != nil {
		s.metrics.OplogEntries.Inc()
	}
	return entry
}

// Failures reports how many log writes were swallowed since startup.
// Exposed via the health endpoint so operators retain some visibility.
func (s *Service) Failures() int64 {
	return s.failures.Load()
}

func (s *Service) recordFailure(err error, entry *model.OperationLogEntry) {
	s.failures.Add(1)
	if s.metrics != nil {
		s.metrics.OplogFailures.Inc()
	}
	if s.log != nil {
		s.log.Warn("operation log write failed",
			"error", err.Error(),
			"operation", entry.OperationType,
			"resource", entry.ResourceType+"/"+entry.ResourceID,
		)
	}
}

func newLogID() string {
	suffix := strings.SplitN(uuid.New().String(), "-", 2)[0]
	return fmt.Sprintf("log_%d_%s", time.Now().UnixMilli(), suffix)
}
