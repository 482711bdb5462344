package model

import (
	"regexp"
	"strings"
	"time"
)

// ConfigVersion is stamped into region metadata and backup payloads on
// every write.
const ConfigVersion = "2.1.0"

// JSONMap represents a free-form metadata bag
type JSONMap map[string]interface{}

// RegionConfig is a delivery region: a set of FSAs sharing weight-tiered
// pricing. RegionID is the sole key; saving an existing id replaces the
// record wholesale.
type RegionConfig struct {
	RegionID     string        `json:"regionId"`
	RegionName   string        `json:"regionName"`
	IsActive     bool          `json:"isActive"`
	PostalCodes  []string      `json:"postalCodes"`
	WeightRanges []WeightRange `json:"weightRanges"`
	LastUpdated  time.Time     `json:"lastUpdated"`
	Metadata     JSONMap       `json:"metadata"`
}

// WeightRange is one pricing tier keyed by an inclusive kilogram interval.
// Bounds are not validated; gaps and overlaps between tiers are tolerated.
type WeightRange struct {
	ID       string  `json:"id"`
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	Price    float64 `json:"price"`
	Label    string  `json:"label"`
	IsActive bool    `json:"isActive"`
}

// fsaPattern is the letter-digit-letter rule for a Forward Sortation Area.
var fsaPattern = regexp.MustCompile(`^[A-Z][0-9][A-Z]$`)

// NormalizeFSA uppercases and trims an FSA candidate.
func NormalizeFSA(fsa string) string {
	return strings.ToUpper(strings.TrimSpace(fsa))
}

// IsValidFSA reports whether fsa matches the letter-digit-letter rule
// after normalization.
func IsValidFSA(fsa string) bool {
	return fsaPattern.MatchString(NormalizeFSA(fsa))
}

// NormalizePostalCodes returns the region's postal codes normalized to
// uppercase, preserving order.
func (r *RegionConfig) NormalizePostalCodes() {
	for i, fsa := range r.PostalCodes {
		r.PostalCodes[i] = NormalizeFSA(fsa)
	}
}

// ContainsFSA reports whether the region covers the given FSA.
func (r *RegionConfig) ContainsFSA(fsa string) bool {
	fsa = NormalizeFSA(fsa)
	for _, pc := range r.PostalCodes {
		if NormalizeFSA(pc) == fsa {
			return true
		}
	}
	return false
}

// PriceForWeight returns the first active weight range whose inclusive
// [Min, Max] interval covers weight. The second return is false when no
// active tier matches (out of range).
func (r *RegionConfig) PriceForWeight(weight float64) (*WeightRange, bool) {
	for i := range r.WeightRanges {
		wr := &r.WeightRanges[i]
		if wr.IsActive && weight >= wr.Min && weight <= wr.Max {
			return wr, true
		}
	}
	return nil, false
}

// HasActivePricing reports whether the region has at least one active
// weight range with a positive price.
func (r *RegionConfig) HasActivePricing() bool {
	for _, wr := range r.WeightRanges {
		if wr.IsActive && wr.Price > 0 {
			return true
		}
	}
	return false
}
