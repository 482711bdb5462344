// Package seed holds the default demo dataset: five delivery zones with
// the standard weight tiers. The backup service receives this data from
// the composition root rather than embedding it itself.
package seed

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/mapleship/delivery-api/internal/model"
)

//go:embed regions.json
var regionsJSON []byte

// Regions decodes the embedded default region set. The embedded file is
// part of the build, so a decode failure is a programming error.
func Regions() (map[string]model.RegionConfig, error) {
	var regions map[string]model.RegionConfig
	if err := json.Unmarshal(regionsJSON, &regions); err != nil {
		return nil, fmt.Errorf("failed to decode embedded seed data: %w", err)
	}
	return regions, nil
}
